package main

import (
	"github.com/gladstone-institutes/bibliometrics/internal/export"
	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// mustLoadGraph reads a saved network or exits.
func mustLoadGraph(path string) *graph.Graph {
	g, err := export.Load(path)
	if err != nil {
		exitForError(err, "loading "+path)
	}
	return g
}
