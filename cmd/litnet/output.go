package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/gladstone-institutes/bibliometrics/internal/builder"
	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/litnet"
)

// Constants for output formatting.
const (
	DefaultTopLimit = 20 // Default limit for ranking and search commands

	TitleMaxLen = 70 // Title truncation in human output
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that write a file.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count"`
}

// BuildResponse summarizes a built network.
type BuildResponse struct {
	Path      string               `json:"path"`
	Nodes     int                  `json:"nodes"`
	Edges     int                  `json:"edges"`
	Kinds     map[graph.Kind]int   `json:"kinds"`
	Sources   builder.SourceCounts `json:"sources"`
	Resolved  litnet.Counts        `json:"resolved"`
	Positions int                  `json:"positions,omitempty"`
}

func printKindsHuman(kinds map[graph.Kind]int) {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("  %-14s %d\n", k, kinds[graph.Kind(k)])
	}
}

func printBuildHuman(r BuildResponse) {
	fmt.Printf("Wrote %s: %d nodes, %d edges\n", r.Path, r.Nodes, r.Edges)
	printKindsHuman(r.Kinds)
	s := r.Sources
	fmt.Printf("Records: %d (WoS %d, PubMed %d, both %d, unknown %d)\n", s.All, s.WoS, s.PubMed, s.Both, s.Unknown)
	if r.Positions > 0 {
		fmt.Printf("Laid out %d nodes\n", r.Positions)
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
