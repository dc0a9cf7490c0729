// Package stats scores and summarizes finished literature networks.
package stats

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// Extra attribute names written by the scoring passes.
const (
	AttrScore   = "score"
	AttrCTCount = "ct_count"
)

// ArticleScoring selects how article scores are computed.
type ArticleScoring string

const (
	// Individual scores each article by the number of articles linking to it.
	Individual ArticleScoring = "individual"
	// Propagate adds the score of the parent article on a breadth-first walk
	// from the drug root.
	Propagate ArticleScoring = "propagate"
)

// NeighborScoring selects how author, institution and grant agency scores
// are computed.
type NeighborScoring string

const (
	// Sum adds up the scores of linked articles.
	Sum NeighborScoring = "sum"
	// Indegree counts linked articles.
	Indegree NeighborScoring = "indegree"
)

var (
	// ErrUnknownMethod is returned for a scoring method name that does not exist.
	ErrUnknownMethod = errors.New("unknown scoring method")
	// ErrNoRoot is returned by propagation scoring on a network without a
	// drug or root node.
	ErrNoRoot = errors.New("network has no drug or root node")
)

// neighborKinds are the node kinds scored from their articles.
var neighborKinds = []graph.Kind{graph.KindAuthor, graph.KindInstitution, graph.KindGrantAgency}

// linkingArticles returns the article nodes with an edge to i.
func linkingArticles(g *graph.Graph, i int) []*graph.Node {
	var out []*graph.Node
	for _, p := range g.Predecessors(i) {
		if n, err := g.Node(p); err == nil && n.Kind == graph.KindArticle {
			out = append(out, n)
		}
	}
	return out
}

func articleScore(g *graph.Graph, i int) int {
	return len(linkingArticles(g, i))
}

// Score runs article scoring, neighbor scoring and clinical trial counting.
func Score(g *graph.Graph, articles ArticleScoring, neighbors NeighborScoring) error {
	if err := ScoreArticles(g, articles); err != nil {
		return err
	}
	if err := ScoreNeighbors(g, neighbors); err != nil {
		return err
	}
	return AddCTCounts(g)
}

// ScoreArticles sets the score attribute of article nodes.
func ScoreArticles(g *graph.Graph, method ArticleScoring) error {
	switch method {
	case Individual:
		for _, n := range g.NodesOf(graph.KindArticle) {
			if err := n.SetAttr(AttrScore, articleScore(g, n.Index)); err != nil {
				return err
			}
		}
		return nil
	case Propagate:
		return scoreByPropagation(g)
	default:
		return errors.Wrapf(ErrUnknownMethod, "article scoring %q", method)
	}
}

func findRoot(g *graph.Graph) (int, bool) {
	for _, kind := range []graph.Kind{graph.KindDrug, graph.KindRoot} {
		if nodes := g.NodesOf(kind); len(nodes) > 0 {
			return nodes[0].Index, true
		}
	}
	return 0, false
}

// scoreByPropagation walks the network breadth-first from the root,
// ignoring edge direction. An article's score is its own article in-degree
// plus the score of the article it was reached from, if any.
func scoreByPropagation(g *graph.Graph) error {
	root, ok := findRoot(g)
	if !ok {
		return ErrNoRoot
	}

	scores := map[int]int{}
	seen := map[int]bool{root: true}
	queue := []int{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		neighbors := append(g.Successors(cur), g.Predecessors(cur)...)
		for _, next := range neighbors {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)

			n, err := g.Node(next)
			if err != nil {
				return err
			}
			if n.Kind != graph.KindArticle {
				continue
			}
			score := articleScore(g, next)
			if parentScore, ok := scores[cur]; ok {
				score += parentScore
			}
			scores[next] = score
			if err := n.SetAttr(AttrScore, score); err != nil {
				return err
			}
		}
	}
	return nil
}

func intAttr(n *graph.Node, name string) (int, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return 0, false
	}
	i, ok := v.(graph.Integer)
	return int(i), ok
}

// ScoreNeighbors sets the score attribute of author, institution and grant
// agency nodes from the articles linking to them.
func ScoreNeighbors(g *graph.Graph, method NeighborScoring) error {
	if method != Sum && method != Indegree {
		return errors.Wrapf(ErrUnknownMethod, "neighbor scoring %q", method)
	}
	for _, kind := range neighborKinds {
		for _, n := range g.NodesOf(kind) {
			articles := linkingArticles(g, n.Index)
			score := len(articles)
			if method == Sum {
				score = 0
				for _, a := range articles {
					if s, ok := intAttr(a, AttrScore); ok {
						score += s
					}
				}
			}
			if err := n.SetAttr(AttrScore, score); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsClinical reports whether any publication type mentions "Clinical".
func IsClinical(n *graph.Node) bool {
	for _, t := range n.Pubtypes {
		if strings.Contains(t, "Clinical") {
			return true
		}
	}
	return false
}

// AddCTCounts sets ct_count on author, institution and grant agency nodes
// to the number of linked clinical articles.
func AddCTCounts(g *graph.Graph) error {
	for _, kind := range neighborKinds {
		for _, n := range g.NodesOf(kind) {
			count := 0
			for _, a := range linkingArticles(g, n.Index) {
				if IsClinical(a) {
					count++
				}
			}
			if err := n.SetAttr(AttrCTCount, count); err != nil {
				return err
			}
		}
	}
	return nil
}
