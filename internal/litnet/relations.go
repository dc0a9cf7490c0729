package litnet

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// NormalizeAuthor returns the lookup key for an author name: lower case,
// decomposed with combining marks and other non-ASCII runes dropped,
// punctuation removed, whitespace collapsed. "O'Brien, JM" and
// "OBrien JM" both become "obrien jm".
func NormalizeAuthor(name string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
		runes.Remove(runes.In(unicode.P)),
	)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// AddAuthor returns the author node for name, creating it on first use.
// An empty normalized name yields -1.
func (n *Net) AddAuthor(name string) int {
	key := NormalizeAuthor(name)
	if key == "" {
		return -1
	}
	if idx, ok := n.authors[key]; ok {
		return idx
	}
	idx := n.g.AddNode(graph.KindAuthor, key)
	n.authors[key] = idx
	return idx
}

func (n *Net) addAuthors(article int, authors []reference.Author) error {
	for _, a := range authors {
		idx := n.AddAuthor(a.Name)
		if idx < 0 {
			continue
		}
		if _, err := n.g.AddUniqueEdge(article, idx, graph.EdgeAttrs{}); err != nil {
			return errors.Wrapf(err, "author %q", a.Name)
		}
	}
	return nil
}

func (n *Net) addInstitutions(article int, insts map[int]reference.Institution) error {
	keys := make([]int, 0, len(insts))
	for k := range insts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, k := range keys {
		inst := insts[k]
		if inst.Address == "" {
			continue
		}
		addr := lookupOrAdd(n.g, n.institutions, graph.KindInstitution, inst.Address)
		if _, err := n.g.AddUniqueEdge(article, addr, graph.EdgeAttrs{Count: 1}); err != nil {
			return errors.Wrapf(err, "institution %q", inst.Address)
		}

		prev := addr
		for _, org := range inst.Organizations {
			if org == "" {
				continue
			}
			idx := lookupOrAdd(n.g, n.institutions, graph.KindInstitution, org)
			if idx == prev {
				continue
			}
			if _, err := n.g.AddUniqueEdge(prev, idx, graph.EdgeAttrs{}); err != nil {
				return errors.Wrapf(err, "organization %q", org)
			}
			prev = idx
		}
	}
	return nil
}

func (n *Net) addGrantAgencies(article int, agencies []string) error {
	for _, agency := range agencies {
		if agency == "" {
			continue
		}
		idx := lookupOrAdd(n.g, n.grantAgencies, graph.KindGrantAgency, agency)
		if _, err := n.g.AddUniqueEdge(article, idx, graph.EdgeAttrs{Count: 1}); err != nil {
			return errors.Wrapf(err, "grant agency %q", agency)
		}
	}
	return nil
}

func (n *Net) addMeshTerms(article int, terms []string) error {
	for _, term := range terms {
		idx := lookupOrAdd(n.g, n.meshTerms, graph.KindMeshTerm, term)
		if _, err := n.g.AddUniqueEdge(article, idx, graph.EdgeAttrs{}); err != nil {
			return errors.Wrapf(err, "mesh term %q", term)
		}
	}
	return nil
}

func lookupOrAdd(g *graph.Graph, table map[string]int, kind graph.Kind, label string) int {
	if idx, ok := table[label]; ok {
		return idx
	}
	idx := g.AddNode(kind, label)
	table[label] = idx
	return idx
}
