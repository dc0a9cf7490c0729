package stats

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/litnet"
)

// ErrNoSuchAuthor is returned when a network has no author node with the
// requested name.
var ErrNoSuchAuthor = errors.New("no such author")

// Spread summarizes a sample of counts.
type Spread struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	SD     float64 `json:"sd"`
}

func spread(counts []int) Spread {
	if len(counts) == 0 {
		return Spread{}
	}
	x := make([]float64, len(counts))
	for i, c := range counts {
		x[i] = float64(c)
	}
	sort.Float64s(x)

	var s Spread
	s.Mean, s.SD = stat.PopMeanStdDev(x, nil)
	if mid := len(x) / 2; len(x)%2 == 1 {
		s.Median = x[mid]
	} else {
		s.Median = (x[mid-1] + x[mid]) / 2
	}
	return s
}

// AuthorSummary describes an author's own articles in a bottom-up network.
type AuthorSummary struct {
	Author        string `json:"author"`
	Articles      int    `json:"articles"`
	CoAuthors     Spread `json:"co_authors"`
	Institutions  Spread `json:"institutions"`
	GrantAgencies Spread `json:"grant_agencies"`
	YearsDelta    int    `json:"years_delta"`
	HIndex        int    `json:"h_index"`
	MaxCitations  int    `json:"max_citations"`

	// TGScore is the share of citing articles with known publication types
	// that are trials or guidelines.
	TGScore float64 `json:"tg_score"`
}

// HIndex returns the largest h such that h of the counts are at least h.
func HIndex(counts []int) int {
	n := len(counts)
	buckets := make([]int, n+1)
	for _, c := range counts {
		if c > n {
			c = n
		}
		if c < 0 {
			c = 0
		}
		buckets[c]++
	}
	total := 0
	for h := n; h >= 0; h-- {
		total += buckets[h]
		if total >= h {
			return h
		}
	}
	return 0
}

// FindAuthor returns the author node whose label equals the normalized name.
func FindAuthor(g *graph.Graph, name string) (*graph.Node, error) {
	key := litnet.NormalizeAuthor(name)
	for _, n := range g.NodesOf(graph.KindAuthor) {
		if n.Label == key {
			return n, nil
		}
	}
	return nil, errors.Wrapf(ErrNoSuchAuthor, "%q", name)
}

func successorsOf(g *graph.Graph, i int, kind graph.Kind) int {
	count := 0
	for _, s := range g.Successors(i) {
		if n, err := g.Node(s); err == nil && n.Kind == kind {
			count++
		}
	}
	return count
}

// SummarizeAuthor computes the summary of the named author from the
// articles linking to the author node.
func SummarizeAuthor(g *graph.Graph, name string) (AuthorSummary, error) {
	author, err := FindAuthor(g, name)
	if err != nil {
		return AuthorSummary{}, err
	}
	articles := linkingArticles(g, author.Index)

	sum := AuthorSummary{Author: author.Label, Articles: len(articles)}
	var coauthors, institutions, agencies, citations, years []int
	for _, a := range articles {
		coauthors = append(coauthors, successorsOf(g, a.Index, graph.KindAuthor))
		institutions = append(institutions, successorsOf(g, a.Index, graph.KindInstitution))
		agencies = append(agencies, successorsOf(g, a.Index, graph.KindGrantAgency))
		citations = append(citations, len(linkingArticles(g, a.Index)))
		if a.Pubdate != nil {
			years = append(years, *a.Pubdate/10000)
		}
	}
	sum.CoAuthors = spread(coauthors)
	sum.Institutions = spread(institutions)
	sum.GrantAgencies = spread(agencies)
	sum.HIndex = HIndex(citations)
	for _, c := range citations {
		if c > sum.MaxCitations {
			sum.MaxCitations = c
		}
	}
	if len(years) > 0 {
		sort.Ints(years)
		sum.YearsDelta = years[len(years)-1] - years[0]
	}
	sum.TGScore = tgScore(g, articles)
	return sum, nil
}

func tgScore(g *graph.Graph, articles []*graph.Node) float64 {
	seen := map[int]bool{}
	total, tg := 0, 0
	for _, a := range articles {
		for _, citing := range linkingArticles(g, a.Index) {
			if citing.Pubtypes == nil || seen[citing.Index] {
				continue
			}
			seen[citing.Index] = true
			total++
			for _, t := range citing.Pubtypes {
				t = strings.ToLower(t)
				if strings.Contains(t, "trial") || strings.Contains(t, "guideline") {
					tg++
					break
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(tg) / float64(total)
}

// LabelCount is a label with an occurrence count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopInstitutions returns the limit institutions most often linked from
// the named author's articles, most frequent first and then by label.
func TopInstitutions(g *graph.Graph, name string, limit int) ([]LabelCount, error) {
	author, err := FindAuthor(g, name)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, a := range linkingArticles(g, author.Index) {
		for _, s := range g.Successors(a.Index) {
			if n, err := g.Node(s); err == nil && n.Kind == graph.KindInstitution {
				counts[n.Label]++
			}
		}
	}

	out := make([]LabelCount, 0, len(counts))
	for label, c := range counts {
		out = append(out, LabelCount{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
