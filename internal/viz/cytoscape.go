package viz

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// CytoscapeElements represents the Cytoscape.js data format.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode represents a node in Cytoscape.js format.
type CytoscapeNode struct {
	Data     Node      `json:"data"`
	Position *Position `json:"position,omitempty"`
}

// Position is a Cytoscape.js model position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CytoscapeEdge represents an edge in Cytoscape.js format.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains the edge data fields.
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count,omitempty"`
}

// ToCytoscapeJSON converts GraphData to Cytoscape.js JSON format.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		cyNode := CytoscapeNode{Data: n}
		if n.Placed {
			cyNode.Position = &Position{X: n.X, Y: n.Y}
		}
		elements.Nodes = append(elements.Nodes, cyNode)
	}

	for i, e := range g.Edges {
		elements.Edges = append(elements.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     edgeID(e.Source, e.Target, i),
				Source: e.Source,
				Target: e.Target,
				Count:  e.Count,
			},
		})
	}

	jsonBytes, err := json.Marshal(elements)
	if err != nil {
		return "", errors.Wrap(err, "marshaling Cytoscape elements to JSON")
	}
	return string(jsonBytes), nil
}

// edgeID generates an edge ID unique within one rendering.
func edgeID(source, target string, index int) string {
	return fmt.Sprintf("%s-%s-%d", source, target, index)
}
