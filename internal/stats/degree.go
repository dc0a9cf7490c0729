package stats

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// Ranked is a node with its in-degree and its degree relative to the
// highest in-degree of its kind.
type Ranked struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Degree int     `json:"degree"`
	Rank   float64 `json:"rank"`
}

// DegreeRanking lists the nodes of kind by descending in-degree. Ties keep
// index order. Rank is Degree divided by the first entry's degree, or 0
// when every degree is 0.
func DegreeRanking(g *graph.Graph, kind graph.Kind) []Ranked {
	nodes := g.NodesOf(kind)
	out := make([]Ranked, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Ranked{Index: n.Index, Label: n.Label, Degree: g.InDegree(n.Index)})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Degree > out[b].Degree })

	if len(out) > 0 && out[0].Degree > 0 {
		top := float64(out[0].Degree)
		for i := range out {
			out[i].Rank = float64(out[i].Degree) / top
		}
	}
	return out
}

// WriteRankingCSV writes a ranking as Name,Degree,Rank rows.
func WriteRankingCSV(w io.Writer, ranking []Ranked) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Degree", "Rank"}); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, r := range ranking {
		row := []string{r.Label, strconv.Itoa(r.Degree), strconv.FormatFloat(r.Rank, 'g', -1, 64)}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}

// KindCounts returns the number of nodes of each kind.
func KindCounts(g *graph.Graph) map[graph.Kind]int {
	out := make(map[graph.Kind]int)
	for _, n := range g.Nodes() {
		out[n.Kind]++
	}
	return out
}
