package stats

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// Article table columns.
const (
	ColPMID     = "pmid"
	ColPubdate  = "pubdate"
	ColPubdays  = "pubdays"
	ColYear     = "year"
	ColScore    = "score"
	ColCitcount = "citcount"
)

// Columns lists the valid article table columns.
var Columns = []string{ColPMID, ColPubdate, ColPubdays, ColYear, ColScore, ColCitcount}

// ErrUnknownColumn is returned for a column name not in Columns.
var ErrUnknownColumn = errors.New("unknown column")

// ArticleFilter restricts the rows of an article table.
type ArticleFilter string

const (
	AllArticles     ArticleFilter = ""
	ClinicalOnly    ArticleFilter = "clinical-only"
	NonClinicalOnly ArticleFilter = "non-clinical-only"
)

func (f ArticleFilter) keep(n *graph.Node) bool {
	switch f {
	case ClinicalOnly:
		return IsClinical(n)
	case NonClinicalOnly:
		// Articles without publication types are neither.
		return n.Pubtypes != nil && !IsClinical(n)
	default:
		return true
	}
}

// Table is a header and rows of cells. Missing values are empty cells.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// WriteCSV writes the table with its header.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "writing rows")
	}
	return nil
}

func cell(n *graph.Node, column string) string {
	switch column {
	case ColPMID:
		return n.PMID
	case ColPubdate:
		if n.Pubdate != nil {
			return strconv.Itoa(*n.Pubdate)
		}
	case ColPubdays:
		if n.Pubdate != nil {
			return strconv.Itoa(reference.Pubdate(*n.Pubdate).DaysSince1900())
		}
	case ColYear:
		if n.Pubdate != nil {
			return strconv.Itoa(reference.Pubdate(*n.Pubdate).Year())
		}
	case ColScore:
		if v, ok := n.Attr(AttrScore); ok {
			return graph.FormatValue(v)
		}
	case ColCitcount:
		if n.Citcount != nil {
			return strconv.Itoa(*n.Citcount)
		}
	}
	return ""
}

// ArticleTable builds one row per article node passing filter, in index
// order, with the given columns.
func ArticleTable(g *graph.Graph, columns []string, filter ArticleFilter) (Table, error) {
	valid := map[string]bool{}
	for _, c := range Columns {
		valid[c] = true
	}
	for _, c := range columns {
		if !valid[c] {
			return Table{}, errors.Wrapf(ErrUnknownColumn, "%q", c)
		}
	}

	t := Table{Header: append([]string{}, columns...)}
	for _, n := range g.NodesOf(graph.KindArticle) {
		if !filter.keep(n) {
			continue
		}
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = cell(n, c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// MeshMatrix builds a PMID by MeSH term incidence table over the articles
// with a PMID. Term columns are sorted.
func MeshMatrix(g *graph.Graph) Table {
	var articles []*graph.Node
	terms := map[string]int{}
	for _, n := range g.NodesOf(graph.KindArticle) {
		if n.PMID == "" {
			continue
		}
		articles = append(articles, n)
		for _, term := range n.MeshTerms {
			terms[term] = 0
		}
	}

	names := make([]string, 0, len(terms))
	for term := range terms {
		names = append(names, term)
	}
	sort.Strings(names)
	for i, term := range names {
		terms[term] = i
	}

	t := Table{Header: append([]string{"PMID"}, names...)}
	for _, a := range articles {
		row := make([]string, len(names)+1)
		row[0] = a.PMID
		for i := range names {
			row[i+1] = "0"
		}
		for _, term := range a.MeshTerms {
			row[terms[term]+1] = "1"
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
