package stats

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

var nonWordRe = regexp.MustCompile(`\W+`)

// Difference lists the children that only one of two networks has below
// the node reached by Path.
type Difference struct {
	Path    []string `json:"path"`
	OnlyInA []string `json:"only_in_a,omitempty"`
	OnlyInB []string `json:"only_in_b,omitempty"`
}

// childKey identifies a node across networks: articles by PMID, WoS ID or
// normalized title, everything else by label.
func childKey(n *graph.Node) string {
	if n.Kind != graph.KindArticle {
		return n.Label
	}
	switch {
	case n.PMID != "":
		return n.PMID
	case n.WoSID != "":
		return n.WoSID
	default:
		return nonWordRe.ReplaceAllString(strings.ToLower(n.Label), "")
	}
}

// children returns the nodes one step further from the root: trials of a
// drug and the articles linking to a node.
func children(g *graph.Graph, i int) map[string]*graph.Node {
	out := map[string]*graph.Node{}
	if n, err := g.Node(i); err == nil && n.Kind == graph.KindDrug {
		for _, s := range g.Successors(i) {
			if t, err := g.Node(s); err == nil && t.Kind == graph.KindClinicalTrial {
				out[childKey(t)] = t
			}
		}
	}
	for _, a := range linkingArticles(g, i) {
		out[childKey(a)] = a
	}
	return out
}

// Diff walks two networks in step from their drug or root nodes and reports
// every node whose children differ. Shared children are compared
// recursively, each node at most once.
func Diff(a, b *graph.Graph) ([]Difference, error) {
	ra, ok := findRoot(a)
	if !ok {
		return nil, ErrNoRoot
	}
	rb, ok := findRoot(b)
	if !ok {
		return nil, ErrNoRoot
	}

	d := differ{a: a, b: b, seenA: map[int]bool{}, seenB: map[int]bool{}}
	na, _ := a.Node(ra)
	d.compare(ra, rb, []string{na.Label})
	return d.out, nil
}

type differ struct {
	a, b         *graph.Graph
	seenA, seenB map[int]bool
	out          []Difference
}

func (d *differ) compare(ia, ib int, path []string) {
	d.seenA[ia] = true
	d.seenB[ib] = true
	ca, cb := children(d.a, ia), children(d.b, ib)

	diff := Difference{Path: path}
	var shared []string
	for k := range ca {
		if _, ok := cb[k]; ok {
			shared = append(shared, k)
		} else {
			diff.OnlyInA = append(diff.OnlyInA, k)
		}
	}
	for k := range cb {
		if _, ok := ca[k]; !ok {
			diff.OnlyInB = append(diff.OnlyInB, k)
		}
	}
	if len(diff.OnlyInA) > 0 || len(diff.OnlyInB) > 0 {
		sort.Strings(diff.OnlyInA)
		sort.Strings(diff.OnlyInB)
		d.out = append(d.out, diff)
	}

	sort.Strings(shared)
	for _, k := range shared {
		na, nb := ca[k], cb[k]
		if d.seenA[na.Index] || d.seenB[nb.Index] {
			continue
		}
		next := append(append([]string{}, path...), k)
		d.compare(na.Index, nb.Index, next)
	}
}
