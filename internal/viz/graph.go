package viz

import (
	"strconv"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// Attribute read for node scores.
const scoreAttr = "score"

// FromGraph converts a network for rendering. Kinds not in keep are left
// out together with their edges; a nil keep renders every kind.
func FromGraph(g *graph.Graph, keep map[graph.Kind]bool) *GraphData {
	data := &GraphData{Nodes: []Node{}, Edges: []Edge{}}
	included := make(map[int]bool, g.NodeCount())

	for _, n := range g.Nodes() {
		if keep != nil && !keep[n.Kind] {
			continue
		}
		included[n.Index] = true
		data.Nodes = append(data.Nodes, newNode(g, n))
	}

	for _, e := range g.Edges() {
		if !included[e.Source] || !included[e.Target] {
			continue
		}
		data.Edges = append(data.Edges, Edge{
			Source: nodeID(e.Source),
			Target: nodeID(e.Target),
			Count:  e.Count,
		})
	}
	return data
}

func nodeID(i int) string {
	return "n" + strconv.Itoa(i)
}

func newNode(g *graph.Graph, n *graph.Node) Node {
	node := Node{
		ID:       nodeID(n.Index),
		Kind:     string(n.Kind),
		Label:    n.Label,
		Title:    n.Title,
		PMID:     n.PMID,
		Level:    n.Level,
		InDegree: g.InDegree(n.Index),
	}
	if n.Kind == graph.KindArticle && n.PMID != "" {
		node.Label = n.PMID
	}
	if n.Pubdate != nil {
		node.Year = reference.Pubdate(*n.Pubdate).Year()
	}
	if v, ok := n.Attr(scoreAttr); ok {
		if s, ok := v.(graph.Integer); ok {
			score := int(s)
			node.Score = &score
		}
	}
	if n.Position != nil {
		node.X, node.Y, node.Placed = n.Position.X, n.Position.Y, true
	}
	return node
}
