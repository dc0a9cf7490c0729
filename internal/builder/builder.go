// Package builder drives the construction of literature networks from
// PubMed searches, clinical trials and reference lists.
//
// Every driver follows the same shape: create the root nodes, apply layers
// of records breadth-first with AddRef, optionally expand the articles of
// each level into the next through their citation links, and finish the
// network.
package builder

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gladstone-institutes/bibliometrics/internal/clinicaltrials"
	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/litnet"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

var (
	// ErrNoArticleSource is returned by drivers that need a PubMed client
	// when none was configured.
	ErrNoArticleSource = errors.New("no article source configured")
	// ErrNoTrialSource is returned by Drug when no trial client was configured.
	ErrNoTrialSource = errors.New("no clinical trial source configured")
)

// FDALabel labels the node holding the references of an FDA approval package.
const FDALabel = "FDA NDA"

// Articles is the PubMed surface the drivers use.
type Articles interface {
	SearchByAuthor(ctx context.Context, name string) ([]string, error)
	Fetch(ctx context.Context, pmids []string) ([]reference.Record, error)
	AddPubmedData(ctx context.Context, recs []reference.Record) error
	CitedBy(ctx context.Context, pmid string) ([]string, error)
	References(ctx context.Context, pmid string) ([]string, error)
}

// Trials searches clinical trial registries.
type Trials interface {
	Search(ctx context.Context, term string) ([]clinicaltrials.Trial, error)
}

// SourceCounts tallies the identifiers of the records added so far.
type SourceCounts struct {
	All     int `json:"all"`
	WoS     int `json:"wos"`
	PubMed  int `json:"pm"`
	Both    int `json:"w+p"`
	Unknown int `json:"?"`
}

func (c *SourceCounts) add(rec reference.Record) {
	c.All++
	if rec.WoSID != "" {
		c.WoS++
	}
	if rec.PMID != "" {
		c.PubMed++
	}
	if rec.WoSID != "" && rec.PMID != "" {
		c.Both++
	}
	if !rec.HasIdentifier() {
		c.Unknown++
	}
}

// Builder owns one network under construction.
type Builder struct {
	net      *litnet.Net
	articles Articles
	trials   Trials
	log      *zap.Logger

	netOpts []litnet.Option
	counts  SourceCounts
	depth   map[int]int // shallowest level each node was reached at
}

// Option configures a Builder.
type Option func(*Builder)

// WithArticles sets the PubMed source.
func WithArticles(a Articles) Option {
	return func(b *Builder) {
		b.articles = a
	}
}

// WithTrials sets the clinical trial source.
func WithTrials(t Trials) Option {
	return func(b *Builder) {
		b.trials = t
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		b.log = l
	}
}

// WithNetOptions passes options through to litnet.New.
func WithNetOptions(opts ...litnet.Option) Option {
	return func(b *Builder) {
		b.netOpts = append(b.netOpts, opts...)
	}
}

// New returns a Builder for a network called name.
func New(name string, opts ...Option) *Builder {
	b := &Builder{
		log:   zap.NewNop(),
		depth: make(map[int]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	netOpts := append([]litnet.Option{litnet.WithLogger(b.log)}, b.netOpts...)
	b.net = litnet.New(name, netOpts...)
	return b
}

// Net returns the network being built.
func (b *Builder) Net() *litnet.Net {
	return b.net
}

// Counts returns the identifier tallies of every record added.
func (b *Builder) Counts() SourceCounts {
	return b.counts
}

// expandFunc returns the PMIDs of the next level below an article.
type expandFunc func(ctx context.Context, pmid string) ([]string, error)

// group is a batch of records hanging off one parent node.
type group struct {
	parent int
	recs   []reference.Record
}

// layer adds recs at level below parent and, when expand is set, walks
// breadth-first: a whole level is added before any of its articles is
// expanded into the next one. An article is expanded when it is reached at
// a shallower level than any earlier visit, as long as that level is below
// maxLevels, and its node keeps the shallowest level seen.
func (b *Builder) layer(ctx context.Context, recs []reference.Record, parent, level, maxLevels int, expand expandFunc) error {
	type pending struct {
		pmid string
		idx  int
	}
	frontier := []group{{parent: parent, recs: recs}}
	for ; len(frontier) > 0; level++ {
		var next []pending
		added := 0
		for _, grp := range frontier {
			for i := range grp.recs {
				rec := &grp.recs[i]
				rec.SetLevel(level)
				b.counts.add(*rec)

				idx, err := b.net.AddRef(*rec, grp.parent)
				if err != nil {
					return errors.Wrapf(err, "adding reference %d of level %d", i, level)
				}
				added++
				shallower, err := b.reach(idx, level)
				if err != nil {
					return err
				}
				if expand != nil && shallower && level < maxLevels && rec.PMID != "" {
					next = append(next, pending{pmid: rec.PMID, idx: idx})
				}
			}
		}

		b.log.Debug("layer added",
			zap.Int("level", level),
			zap.Int("records", added),
			zap.Int("articles", b.counts.All))

		frontier = nil
		for _, p := range next {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids, err := expand(ctx, p.pmid)
			if err != nil {
				return errors.Wrapf(err, "expanding %s", p.pmid)
			}
			if len(ids) == 0 {
				continue
			}
			children, err := b.articles.Fetch(ctx, ids)
			if err != nil {
				return errors.Wrapf(err, "fetching level %d below %s", level+1, p.pmid)
			}
			frontier = append(frontier, group{parent: p.idx, recs: children})
		}
	}
	return nil
}

// reach records that node idx was reached at level. It reports whether
// this is the shallowest visit so far; otherwise the node's level is put
// back to the shallowest one.
func (b *Builder) reach(idx, level int) (bool, error) {
	prev, seen := b.depth[idx]
	if !seen || level < prev {
		b.depth[idx] = level
		return true, nil
	}
	n, err := b.net.Graph().Node(idx)
	if err != nil {
		return false, err
	}
	if n.Level != nil && *n.Level > prev {
		n.Level = &prev
	}
	return false, nil
}

// finish runs the end-of-construction passes and logs the source counts.
func (b *Builder) finish() error {
	if _, err := b.net.Finish(); err != nil {
		return err
	}
	c := b.counts
	b.log.Info("sources",
		zap.Int("all", c.All),
		zap.Int("wos", c.WoS),
		zap.Int("pm", c.PubMed),
		zap.Int("w+p", c.Both),
		zap.Int("unknown", c.Unknown))
	return nil
}

// HasInstitution reports whether any address or organization of rec
// contains name, ignoring case. An empty name matches every record.
func HasInstitution(rec reference.Record, name string) bool {
	name = strings.ToLower(name)
	if name == "" {
		return true
	}
	for _, inst := range rec.Institutions {
		if strings.Contains(strings.ToLower(inst.Address), name) {
			return true
		}
		for _, org := range inst.Organizations {
			if strings.Contains(strings.ToLower(org), name) {
				return true
			}
		}
	}
	return false
}

// BottomUp builds the network of an author's articles and the articles
// citing them. The root is the author node; only articles listing an
// affiliation that contains institution are kept at the first level.
func (b *Builder) BottomUp(ctx context.Context, author, institution string, levels int) error {
	if b.articles == nil {
		return ErrNoArticleSource
	}
	root := b.net.AddAuthor(author)
	if root < 0 {
		return errors.Newf("author name %q is empty after normalization", author)
	}

	pmids, err := b.articles.SearchByAuthor(ctx, author)
	if err != nil {
		return errors.Wrapf(err, "searching articles by %s", author)
	}
	recs, err := b.articles.Fetch(ctx, pmids)
	if err != nil {
		return errors.Wrap(err, "fetching articles")
	}

	kept := recs[:0]
	for _, r := range recs {
		if HasInstitution(r, institution) {
			kept = append(kept, r)
		}
	}
	b.log.Info("author articles",
		zap.String("author", author),
		zap.Int("found", len(recs)),
		zap.Int("at_institution", len(kept)))

	if err := b.layer(ctx, kept, root, 1, levels, b.articles.CitedBy); err != nil {
		return err
	}
	return b.finish()
}

// TopDown builds the network below the given articles by following their
// reference lists. The articles hang off a root node labelled root.
func (b *Builder) TopDown(ctx context.Context, root string, pmids []string, levels int) error {
	if b.articles == nil {
		return ErrNoArticleSource
	}
	rootIdx := b.net.AddNode(graph.KindRoot, root)

	recs, err := b.articles.Fetch(ctx, pmids)
	if err != nil {
		return errors.Wrap(err, "fetching root articles")
	}
	if err := b.layer(ctx, recs, rootIdx, 1, levels, b.articles.References); err != nil {
		return err
	}
	return b.finish()
}

// Drug builds the network of a drug: its FDA approval references and the
// clinical trials studying it, each with the articles they cite, expanded
// through reference lists down to levels.
func (b *Builder) Drug(ctx context.Context, drug string, fdaRefs []reference.Record, levels int) error {
	if b.articles == nil {
		return ErrNoArticleSource
	}
	if b.trials == nil {
		return ErrNoTrialSource
	}
	g := b.net.Graph()
	drugIdx := b.net.AddNode(graph.KindDrug, drug)

	if len(fdaRefs) > 0 {
		fda := b.net.AddNode(graph.KindClinicalTrial, FDALabel)
		if _, err := g.AddUniqueEdge(drugIdx, fda, graph.EdgeAttrs{}); err != nil {
			return err
		}
		if err := b.articles.AddPubmedData(ctx, fdaRefs); err != nil {
			return errors.Wrap(err, "matching FDA references")
		}
		if err := b.layer(ctx, fdaRefs, fda, 1, levels, b.articles.References); err != nil {
			return err
		}
	}

	trials, err := b.trials.Search(ctx, drug)
	if err != nil {
		return errors.Wrapf(err, "searching trials for %s", drug)
	}
	for _, t := range trials {
		idx := b.net.AddNode(graph.KindClinicalTrial, t.NCTID)
		node, err := g.Node(idx)
		if err != nil {
			return err
		}
		node.Title = t.Title
		if t.CompletionDate != nil {
			pd := int(*t.CompletionDate)
			node.Pubdate = &pd
		}
		if _, err := g.AddUniqueEdge(drugIdx, idx, graph.EdgeAttrs{}); err != nil {
			return err
		}

		recs := t.Records()
		if len(recs) == 0 {
			continue
		}
		if err := b.articles.AddPubmedData(ctx, recs); err != nil {
			return errors.Wrapf(err, "fetching references of %s", t.NCTID)
		}
		if err := b.layer(ctx, recs, idx, 1, levels, b.articles.References); err != nil {
			return err
		}
	}
	b.log.Info("clinical trials added", zap.String("drug", drug), zap.Int("trials", len(trials)))
	return b.finish()
}

// Records adds recs below a root node labelled root, or without a parent
// when root is empty. With an article source the records are matched
// against PubMed first.
func (b *Builder) Records(ctx context.Context, root string, recs []reference.Record) error {
	parent := litnet.NoParent
	if root != "" {
		parent = b.net.AddNode(graph.KindRoot, root)
	}
	if b.articles != nil {
		if err := b.articles.AddPubmedData(ctx, recs); err != nil {
			return errors.Wrap(err, "matching records")
		}
	}
	if err := b.layer(ctx, recs, parent, 1, 1, nil); err != nil {
		return err
	}
	return b.finish()
}
