// Package layout assigns 2D positions to network nodes with a
// force-directed pass, for viewers that open XGMML without running their
// own layout.
package layout

import (
	"math/rand/v2"

	gonumgraph "gonum.org/v1/gonum/graph"
	gonumlayout "gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// Scale multiplies the optimizer's coordinates so that node labels do not
// overlap in viewers.
const Scale = 4.0

// Options tune the Eades optimizer. Seed fixes the random stream used
// for initial positions.
type Options struct {
	Updates   int
	Repulsion float64
	Rate      float64
	Theta     float64
	Seed      uint64
}

// DefaultOptions are reasonable settings for networks of a few thousand nodes.
var DefaultOptions = Options{
	Updates:   50,
	Repulsion: 1,
	Rate:      0.05,
	Theta:     0.2,
	Seed:      1,
}

// Apply runs the optimizer over g, treating edges as undirected, and stores
// the scaled coordinates on every node that has at least one edge. Isolated
// nodes keep no position. It returns the number of positioned nodes.
func Apply(g *graph.Graph, opts Options) int {
	ug := undirected(g)
	if ug.Nodes().Len() == 0 {
		return 0
	}

	eades := gonumlayout.EadesR2{
		Updates:   opts.Updates,
		Repulsion: opts.Repulsion,
		Rate:      opts.Rate,
		Theta:     opts.Theta,
		Src:       rand.NewPCG(opts.Seed, opts.Seed),
	}
	optimizer := gonumlayout.NewOptimizerR2(ug, eades.Update)
	for optimizer.Update() {
	}

	positioned := 0
	nodes := ug.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		n, err := g.Node(int(id))
		if err != nil {
			continue
		}
		c := optimizer.Coord2(id)
		n.Position = &graph.Position{X: c.X * Scale, Y: c.Y * Scale}
		positioned++
	}
	return positioned
}

func undirected(g *graph.Graph) gonumgraph.Graph {
	ug := simple.NewUndirectedGraph()
	for _, e := range g.Edges() {
		if e.Source == e.Target {
			continue
		}
		if ug.HasEdgeBetween(int64(e.Source), int64(e.Target)) {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(e.Source), simple.Node(e.Target)))
	}
	return ug
}
