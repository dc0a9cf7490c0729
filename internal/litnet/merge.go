package litnet

import (
	"strings"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// MergeAttributes copies the fields present on rec onto the article node.
// Present fields overwrite earlier values so a richer source wins; absent
// fields leave the node untouched.
func MergeAttributes(n *graph.Node, rec reference.Record) {
	if rec.WoSID != "" {
		n.WoSID = rec.WoSID
	}
	if rec.PMID != "" {
		n.PMID = rec.PMID
	}
	if rec.Title != "" {
		n.Title = rec.Title
		n.Label = rec.Title
	}
	if rec.Pubdate != nil {
		n.Pubdate = intPtr(int(*rec.Pubdate))
	}
	if rec.Pubtypes != nil {
		n.Pubtypes = append([]string{}, rec.Pubtypes...)
	}
	if rec.Level != nil {
		n.Level = intPtr(*rec.Level)
	}
	if rec.Citcount != nil {
		n.Citcount = intPtr(*rec.Citcount)
	}
	if rec.MeshTerms != nil {
		n.MeshTerms = FlattenMeshTerms(rec.MeshTerms)
	}
}

// FlattenMeshTerms turns descriptor/qualifier groups into one string per
// qualifier. [["A","B","C"],["X"]] becomes ["A/B","A/C","X"].
func FlattenMeshTerms(terms [][]string) []string {
	out := []string{}
	for _, term := range terms {
		if len(term) == 0 {
			continue
		}
		if len(term) == 1 {
			out = append(out, term[0])
			continue
		}
		for _, qualifier := range term[1:] {
			out = append(out, strings.Join([]string{term[0], qualifier}, "/"))
		}
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
