// Package viz renders literature networks as self-contained Cytoscape.js
// HTML pages.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one network node with the fields shown in tooltips.
type Node struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`

	// Article fields
	Title string `json:"title,omitempty"`
	PMID  string `json:"pmid,omitempty"`
	Year  int    `json:"year,omitempty"`
	Level *int   `json:"level,omitempty"`

	// Score attribute, when the network has been scored
	Score *int `json:"score,omitempty"`

	// InDegree drives node size.
	InDegree int `json:"inDegree"`

	// Position from a layout pass, if any.
	X, Y   float64 `json:"-"`
	Placed bool    `json:"-"`
}

// Edge is one directed edge.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count,omitempty"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// HasPositions reports whether every node carries layout coordinates.
func (g *GraphData) HasPositions() bool {
	if g.IsEmpty() {
		return false
	}
	for _, n := range g.Nodes {
		if !n.Placed {
			return false
		}
	}
	return true
}
