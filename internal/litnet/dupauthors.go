package litnet

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// CollapseDuplicateAuthors merges author nodes whose initials are a proper
// prefix of another author's initials under the same last name, so
// "smith j" and "smith jm" are folded into "smith jmr". The fuller node
// receives every edge; the shorter one stays allocated with no edges and
// the author table points its name at the fuller node.
//
// Two different people whose initials nest ("smith j" and "smith jm") are
// merged as well. Callers that cannot accept that should skip this pass.
//
// It returns the number of nodes whose edges were redirected.
func (n *Net) CollapseDuplicateAuthors() (int, error) {
	authors := n.g.NodesOf(graph.KindAuthor)
	byLabel := make(map[string][]int, len(authors))
	for _, a := range authors {
		byLabel[a.Label] = append(byLabel[a.Label], a.Index)
	}

	into := make(map[int]int)
	merged := 0
	for _, a := range authors {
		parts := strings.Split(a.Label, " ")
		if len(parts) != 2 {
			continue
		}
		last, initials := parts[0], parts[1]
		for l := 1; l < len(initials); l++ {
			short := last + " " + initials[:l]
			for _, dup := range byLabel[short] {
				if dup == a.Index || n.g.InDegree(dup)+n.g.OutDegree(dup) == 0 {
					continue
				}
				if err := n.g.RedirectEdges(dup, a.Index); err != nil {
					return merged, errors.Wrapf(err, "merging %q into %q", short, a.Label)
				}
				into[dup] = a.Index
				merged++
			}
		}
	}

	for key, idx := range n.authors {
		for {
			next, ok := into[idx]
			if !ok {
				break
			}
			idx = next
		}
		n.authors[key] = idx
	}
	return merged, nil
}
