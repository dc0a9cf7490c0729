// Package graph is the in-memory directed graph behind a literature network.
//
// Nodes receive consecutive integer indices that are never reused. At most
// one edge exists per ordered (source, target) pair: inserting an existing
// pair merges attributes into the edge instead of creating a parallel one.
// A Graph is not safe for concurrent use.
package graph

import (
	"sort"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNoSuchNode is returned for an index that was never allocated.
	ErrNoSuchNode = errors.New("no such node")
	// ErrNoSuchEdge is returned for an unknown or removed edge.
	ErrNoSuchEdge = errors.New("no such edge")
)

// Graph stores nodes and edges.
type Graph struct {
	Name string

	nodes []*Node
	edges []*Edge

	// out[src][dst] and in[dst][src] hold the id of the live edge src→dst.
	out map[int]map[int]int
	in  map[int]map[int]int
}

// New returns an empty graph.
func New(name string) *Graph {
	return &Graph{
		Name: name,
		out:  make(map[int]map[int]int),
		in:   make(map[int]map[int]int),
	}
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode(kind Kind, label string) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, &Node{Index: idx, Kind: kind, Label: label})
	return idx
}

// Node returns the node at index i.
func (g *Graph) Node(i int) (*Node, error) {
	if i < 0 || i >= len(g.nodes) {
		return nil, errors.Wrapf(ErrNoSuchNode, "index %d", i)
	}
	return g.nodes[i], nil
}

// NodeCount returns the number of allocated nodes, orphans included.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, e := range g.edges {
		if !e.removed {
			n++
		}
	}
	return n
}

// Nodes returns all nodes in index order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NodesOf returns the nodes of the given kind in index order.
func (g *Graph) NodesOf(kind Kind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the live edges in creation order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if !e.removed {
			out = append(out, e)
		}
	}
	return out
}

// Edge returns the live edge with the given id.
func (g *Graph) Edge(id int) (*Edge, error) {
	if id < 0 || id >= len(g.edges) || g.edges[id].removed {
		return nil, errors.Wrapf(ErrNoSuchEdge, "id %d", id)
	}
	return g.edges[id], nil
}

// EdgeBetween returns the id of the edge src→dst if it exists.
func (g *Graph) EdgeBetween(src, dst int) (int, bool) {
	id, ok := g.out[src][dst]
	return id, ok
}

// AddEdge inserts src→dst without attributes. Inserting an existing pair
// returns the existing edge.
func (g *Graph) AddEdge(src, dst int) (int, error) {
	return g.AddUniqueEdge(src, dst, EdgeAttrs{})
}

// AddUniqueEdge creates src→dst when it does not exist yet. Otherwise attrs
// are merged onto the existing edge: Count is added and extra attributes
// overwrite by key.
func (g *Graph) AddUniqueEdge(src, dst int, attrs EdgeAttrs) (int, error) {
	if _, err := g.Node(src); err != nil {
		return -1, errors.Wrap(err, "edge source")
	}
	if _, err := g.Node(dst); err != nil {
		return -1, errors.Wrap(err, "edge target")
	}
	if src == dst {
		return -1, errors.Wrapf(ErrSelfEdge, "node %d", src)
	}

	if id, ok := g.EdgeBetween(src, dst); ok {
		g.edges[id].merge(attrs)
		return id, nil
	}

	e := &Edge{Index: len(g.edges), Source: src, Target: dst}
	e.merge(attrs)
	g.edges = append(g.edges, e)
	g.link(src, dst, e.Index)
	return e.Index, nil
}

func (g *Graph) link(src, dst, id int) {
	if g.out[src] == nil {
		g.out[src] = make(map[int]int)
	}
	if g.in[dst] == nil {
		g.in[dst] = make(map[int]int)
	}
	g.out[src][dst] = id
	g.in[dst][src] = id
}

func (g *Graph) removeEdge(id int) {
	e := g.edges[id]
	e.removed = true
	delete(g.out[e.Source], e.Target)
	delete(g.in[e.Target], e.Source)
}

// Successors returns the targets of i's outgoing edges in edge creation order.
func (g *Graph) Successors(i int) []int {
	return neighbors(g.out[i])
}

// Predecessors returns the sources of i's incoming edges in edge creation order.
func (g *Graph) Predecessors(i int) []int {
	return neighbors(g.in[i])
}

// OutDegree returns the number of outgoing edges of i.
func (g *Graph) OutDegree(i int) int {
	return len(g.out[i])
}

// InDegree returns the number of incoming edges of i.
func (g *Graph) InDegree(i int) int {
	return len(g.in[i])
}

func neighbors(adj map[int]int) []int {
	type pair struct{ node, edge int }
	pairs := make([]pair, 0, len(adj))
	for node, edge := range adj {
		pairs = append(pairs, pair{node, edge})
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].edge < pairs[b].edge })
	out := make([]int, len(pairs))
	for i, p := range pairs {
		out[i] = p.node
	}
	return out
}

// RedirectEdges moves every edge incident to from onto to. A moved edge
// whose new endpoints already have an edge is merged into it (counts add
// up); an edge between from and to is dropped rather than becoming a self
// loop. The from node stays allocated with no edges. Redirecting a node
// without edges does nothing.
func (g *Graph) RedirectEdges(from, to int) error {
	if _, err := g.Node(from); err != nil {
		return err
	}
	if _, err := g.Node(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	for _, src := range g.Predecessors(from) {
		id := g.in[from][src]
		e := g.edges[id]
		g.removeEdge(id)
		if src == to {
			continue
		}
		if _, err := g.AddUniqueEdge(src, to, EdgeAttrs{Count: e.Count, Extra: e.Extra}); err != nil {
			return err
		}
	}
	for _, dst := range g.Successors(from) {
		id := g.out[from][dst]
		e := g.edges[id]
		g.removeEdge(id)
		if dst == to {
			continue
		}
		if _, err := g.AddUniqueEdge(to, dst, EdgeAttrs{Count: e.Count, Extra: e.Extra}); err != nil {
			return err
		}
	}
	return nil
}
