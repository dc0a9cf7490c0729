// Package litnet merges reference records into a literature network.
//
// A Net owns the graph together with the identity tables that map PMIDs,
// WoS IDs, titles, author names, institutions, grant agencies and MeSH
// terms to node indices. Records are applied one at a time with AddRef;
// Finish runs the end-of-construction passes. A Net is not safe for
// concurrent use.
package litnet

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// NoParent is passed to AddRef for records that hang off no other node.
const NoParent = -1

// Net is a literature network under construction.
type Net struct {
	g        *graph.Graph
	resolver *Resolver
	log      *zap.Logger

	authors       map[string]int
	institutions  map[string]int
	grantAgencies map[string]int
	meshTerms     map[string]int

	meshTermNodes bool
}

// Option configures a Net.
type Option func(*Net)

// WithLogger sets the logger used for per-record debug output.
func WithLogger(l *zap.Logger) Option {
	return func(n *Net) {
		n.log = l
	}
}

// WithMeshTermNodes adds a meshterm node per flattened MeSH term, linked
// from each article that carries it.
func WithMeshTermNodes() Option {
	return func(n *Net) {
		n.meshTermNodes = true
	}
}

// New returns an empty network whose graph is called name.
func New(name string, opts ...Option) *Net {
	n := &Net{
		g:             graph.New(name),
		log:           zap.NewNop(),
		authors:       make(map[string]int),
		institutions:  make(map[string]int),
		grantAgencies: make(map[string]int),
		meshTerms:     make(map[string]int),
	}
	n.resolver = NewResolver(func() int {
		return n.g.AddNode(graph.KindArticle, "")
	})
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Graph returns the underlying graph.
func (n *Net) Graph() *graph.Graph {
	return n.g
}

// Counts returns the resolver's diagnostic counters.
func (n *Net) Counts() Counts {
	return n.resolver.Counts()
}

// AddNode adds a node that is not resolved through any identity table,
// such as a root, drug or clinical trial node.
func (n *Net) AddNode(kind graph.Kind, label string) int {
	return n.g.AddNode(kind, label)
}

// AddRef resolves rec to an article node, merges its attributes and
// builds its author, institution, grant agency and MeSH relationships.
// When parent is not NoParent an edge article→parent is added. The article
// index is returned.
func (n *Net) AddRef(rec reference.Record, parent int) (int, error) {
	res := n.resolver.Resolve(rec)
	idx := res.Index
	n.resolver.Register(rec, idx)

	n.log.Debug("resolved reference",
		zap.Int("index", idx),
		zap.Stringer("by", res.By),
		zap.String("pmid", rec.PMID),
		zap.String("wosid", rec.WoSID))

	if parent != NoParent && parent != idx {
		if _, err := n.g.AddUniqueEdge(idx, parent, graph.EdgeAttrs{}); err != nil {
			return idx, errors.Wrap(err, "linking parent")
		}
	}

	node, err := n.g.Node(idx)
	if err != nil {
		return idx, err
	}
	MergeAttributes(node, rec)

	if err := n.addAuthors(idx, rec.Authors); err != nil {
		return idx, err
	}
	if err := n.addInstitutions(idx, rec.Institutions); err != nil {
		return idx, err
	}
	if err := n.addGrantAgencies(idx, rec.GrantAgencies); err != nil {
		return idx, err
	}
	if n.meshTermNodes {
		if err := n.addMeshTerms(idx, node.MeshTerms); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// Finish collapses duplicate authors and then propagates pubdates. It
// returns the number of author merges.
func (n *Net) Finish() (int, error) {
	merged, err := n.CollapseDuplicateAuthors()
	if err != nil {
		return merged, errors.Wrap(err, "collapsing authors")
	}
	n.PropagatePubdates()

	c := n.resolver.Counts()
	n.log.Info("network finished",
		zap.Int("nodes", n.g.NodeCount()),
		zap.Int("edges", n.g.EdgeCount()),
		zap.Int("refs", c.All),
		zap.Int("new", c.New),
		zap.Int("by_pmid", c.PMID),
		zap.Int("by_wosid", c.WoSID),
		zap.Int("by_title", c.Title),
		zap.Int("authors_merged", merged))
	return merged, nil
}
