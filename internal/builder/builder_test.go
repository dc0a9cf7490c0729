package builder

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gladstone-institutes/bibliometrics/internal/clinicaltrials"
	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

type fakeArticles struct {
	db       map[string]reference.Record
	byAuthor map[string][]string
	citedBy  map[string][]string
	refs     map[string][]string
	titles   map[string]string

	searchErr error
	expanded  []string
}

func (f *fakeArticles) SearchByAuthor(_ context.Context, name string) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.byAuthor[name], nil
}

func (f *fakeArticles) Fetch(_ context.Context, pmids []string) ([]reference.Record, error) {
	var out []reference.Record
	for _, id := range pmids {
		if r, ok := f.db[id]; ok {
			r.PMID = id
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeArticles) AddPubmedData(_ context.Context, recs []reference.Record) error {
	for i := range recs {
		if recs[i].PMID == "" {
			recs[i].PMID = f.titles[recs[i].Title]
		}
		if r, ok := f.db[recs[i].PMID]; ok {
			recs[i].Update(r)
		}
	}
	return nil
}

func (f *fakeArticles) CitedBy(_ context.Context, pmid string) ([]string, error) {
	f.expanded = append(f.expanded, pmid)
	return f.citedBy[pmid], nil
}

func (f *fakeArticles) References(_ context.Context, pmid string) ([]string, error) {
	f.expanded = append(f.expanded, pmid)
	return f.refs[pmid], nil
}

type fakeTrials []clinicaltrials.Trial

func (f fakeTrials) Search(context.Context, string) ([]clinicaltrials.Trial, error) {
	return f, nil
}

func article(g *graph.Graph, pmid string) (*graph.Node, bool) {
	for _, n := range g.NodesOf(graph.KindArticle) {
		if n.PMID == pmid {
			return n, true
		}
	}
	return nil, false
}

func requireArticle(t *testing.T, g *graph.Graph, pmid string) *graph.Node {
	t.Helper()
	n, ok := article(g, pmid)
	require.True(t, ok, "article %s", pmid)
	return n
}

func hasEdge(g *graph.Graph, src, dst int) bool {
	_, ok := g.EdgeBetween(src, dst)
	return ok
}

func TestBottomUp(t *testing.T) {
	smith := []reference.Author{{Name: "Smith JA", Institutions: []int{1}}}
	src := &fakeArticles{
		db: map[string]reference.Record{
			"1": {Title: "Here", Authors: smith, Institutions: map[int]reference.Institution{1: {Address: "Gladstone Institutes, San Francisco"}}},
			"2": {Title: "Elsewhere", Authors: smith, Institutions: map[int]reference.Institution{1: {Address: "Other University"}}},
			"3": {Title: "Citing", Authors: []reference.Author{{Name: "Roe R"}}},
			"4": {Title: "Too deep"},
		},
		byAuthor: map[string][]string{"Smith JA": {"1", "2"}},
		citedBy:  map[string][]string{"1": {"3"}, "3": {"4"}},
	}

	b := New("smith", WithArticles(src))
	require.NoError(t, b.BottomUp(context.Background(), "Smith JA", "gladstone", 2))
	g := b.Net().Graph()

	root, err := g.Node(0)
	require.NoError(t, err)
	assert.Equal(t, graph.KindAuthor, root.Kind)
	assert.Equal(t, "smith ja", root.Label)

	a1 := requireArticle(t, g, "1")
	a3 := requireArticle(t, g, "3")
	_, found := article(g, "2")
	assert.False(t, found, "article outside the institution")
	_, found = article(g, "4")
	assert.False(t, found, "article beyond the last level")

	assert.True(t, hasEdge(g, a1.Index, root.Index))
	assert.True(t, hasEdge(g, a3.Index, a1.Index))
	require.NotNil(t, a1.Level)
	require.NotNil(t, a3.Level)
	assert.Equal(t, 1, *a1.Level)
	assert.Equal(t, 2, *a3.Level)

	assert.Equal(t, []string{"1"}, src.expanded)
	assert.Equal(t, SourceCounts{All: 2, PubMed: 2}, b.Counts())
}

func TestBottomUpSearchError(t *testing.T) {
	boom := errors.New("esearch down")
	b := New("x", WithArticles(&fakeArticles{searchErr: boom}))
	err := b.BottomUp(context.Background(), "Smith JA", "", 1)
	assert.ErrorIs(t, err, boom)
}

func TestTopDownExpandsEachArticleOnce(t *testing.T) {
	src := &fakeArticles{
		db: map[string]reference.Record{
			"10": {Title: "Review"},
			"11": {Title: "Cited one"},
			"12": {Title: "Cited two"},
		},
		refs: map[string][]string{
			"10": {"11", "12"},
			"11": {"10"},
		},
	}

	b := New("review", WithArticles(src))
	require.NoError(t, b.TopDown(context.Background(), "review", []string{"10"}, 3))
	g := b.Net().Graph()

	roots := g.NodesOf(graph.KindRoot)
	require.Len(t, roots, 1)
	a10 := requireArticle(t, g, "10")
	a11 := requireArticle(t, g, "11")
	a12 := requireArticle(t, g, "12")

	assert.True(t, hasEdge(g, a10.Index, roots[0].Index))
	assert.True(t, hasEdge(g, a11.Index, a10.Index))
	assert.True(t, hasEdge(g, a12.Index, a10.Index))
	assert.True(t, hasEdge(g, a10.Index, a11.Index))
	assert.Len(t, g.NodesOf(graph.KindArticle), 3)
	assert.Equal(t, []string{"10", "11", "12"}, src.expanded)
}

func diamondSource() *fakeArticles {
	return &fakeArticles{
		db: map[string]reference.Record{
			"A": {Title: "A"}, "B": {Title: "B"}, "C": {Title: "C"},
			"X": {Title: "X"}, "Y": {Title: "Y"}, "Z": {Title: "Z"},
		},
		refs: map[string][]string{
			"A": {"C"},
			"B": {"X"},
			"C": {"X"},
			"X": {"Y"},
			"Y": {"Z"},
		},
	}
}

func requireLevel(t *testing.T, g *graph.Graph, pmid string, want int) {
	t.Helper()
	n := requireArticle(t, g, pmid)
	require.NotNil(t, n.Level, pmid)
	assert.Equal(t, want, *n.Level, pmid)
}

func TestTopDownLevelsAreBreadthFirst(t *testing.T) {
	src := diamondSource()
	b := New("diamond", WithArticles(src))
	require.NoError(t, b.TopDown(context.Background(), "diamond", []string{"A", "B"}, 4))
	g := b.Net().Graph()

	for pmid, level := range map[string]int{"A": 1, "B": 1, "C": 2, "X": 2, "Y": 3, "Z": 4} {
		requireLevel(t, g, pmid, level)
	}
	x := requireArticle(t, g, "X")
	assert.True(t, hasEdge(g, x.Index, requireArticle(t, g, "B").Index))
	assert.True(t, hasEdge(g, x.Index, requireArticle(t, g, "C").Index))
	assert.Equal(t, []string{"A", "B", "C", "X", "Y"}, src.expanded)
}

func TestLayerReexpandsAtShallowerLevel(t *testing.T) {
	src := diamondSource()
	b := New("diamond", WithArticles(src))
	root := b.Net().AddNode(graph.KindRoot, "diamond")
	ctx := context.Background()

	deep, err := src.Fetch(ctx, []string{"X"})
	require.NoError(t, err)
	require.NoError(t, b.layer(ctx, deep, root, 3, 4, src.References))
	g := b.Net().Graph()
	requireLevel(t, g, "Y", 4)
	_, found := article(g, "Z")
	assert.False(t, found)

	shallow, err := src.Fetch(ctx, []string{"X"})
	require.NoError(t, err)
	require.NoError(t, b.layer(ctx, shallow, root, 1, 4, src.References))
	requireLevel(t, g, "X", 1)
	requireLevel(t, g, "Y", 2)
	requireLevel(t, g, "Z", 3)
	assert.Equal(t, []string{"X", "X", "Y", "Z"}, src.expanded)

	// A deeper visit afterwards leaves the shallow level alone.
	again, err := src.Fetch(ctx, []string{"Y"})
	require.NoError(t, err)
	require.NoError(t, b.layer(ctx, again, root, 4, 4, src.References))
	requireLevel(t, g, "Y", 2)
}

func TestDrug(t *testing.T) {
	done := reference.NewPubdate(2019, 5, 0)
	src := &fakeArticles{
		db: map[string]reference.Record{
			"20": {Title: "Trial result"},
			"21": {Title: "FDA ref", Authors: []reference.Author{{Name: "Doe J"}}},
		},
		titles: map[string]string{"FDA ref": "21"},
	}
	trials := fakeTrials{
		{NCTID: "NCT1", Title: "A trial", PMIDs: []string{"20"}, CompletionDate: &done},
		{NCTID: "NCT2", Title: "No references"},
	}

	b := New("drugx", WithArticles(src), WithTrials(trials))
	fda := []reference.Record{{Title: "FDA ref"}, {Title: "Unmatched label text"}}
	require.NoError(t, b.Drug(context.Background(), "drugx", fda, 1))
	g := b.Net().Graph()

	drugs := g.NodesOf(graph.KindDrug)
	require.Len(t, drugs, 1)
	drug := drugs[0]

	trialNodes := map[string]*graph.Node{}
	for _, n := range g.NodesOf(graph.KindClinicalTrial) {
		trialNodes[n.Label] = n
		assert.True(t, hasEdge(g, drug.Index, n.Index), n.Label)
	}
	require.Len(t, trialNodes, 3)
	require.Contains(t, trialNodes, FDALabel)

	nct1 := trialNodes["NCT1"]
	assert.Equal(t, "A trial", nct1.Title)
	require.NotNil(t, nct1.Pubdate)
	assert.Equal(t, 20190500, *nct1.Pubdate)

	a20 := requireArticle(t, g, "20")
	a21 := requireArticle(t, g, "21")
	assert.True(t, hasEdge(g, a20.Index, nct1.Index))
	assert.True(t, hasEdge(g, a21.Index, trialNodes[FDALabel].Index))
	assert.Equal(t, SourceCounts{All: 3, PubMed: 2, Unknown: 1}, b.Counts())
}

func TestDrugRequiresSources(t *testing.T) {
	err := New("x").Drug(context.Background(), "drugx", nil, 1)
	assert.ErrorIs(t, err, ErrNoArticleSource)

	err = New("x", WithArticles(&fakeArticles{})).Drug(context.Background(), "drugx", nil, 1)
	assert.ErrorIs(t, err, ErrNoTrialSource)

	assert.ErrorIs(t, New("x").TopDown(context.Background(), "r", nil, 1), ErrNoArticleSource)
	assert.ErrorIs(t, New("x").BottomUp(context.Background(), "a", "", 1), ErrNoArticleSource)
}

func TestRecords(t *testing.T) {
	recs := []reference.Record{
		{PMID: "1", Title: "One", Authors: []reference.Author{{Name: "Smith J"}}},
		{PMID: "1", WoSID: "WOS:1"},
		{Title: "Anonymous"},
	}

	b := New("input")
	require.NoError(t, b.Records(context.Background(), "input", recs))
	g := b.Net().Graph()

	assert.Len(t, g.NodesOf(graph.KindArticle), 2)
	a1 := requireArticle(t, g, "1")
	assert.Equal(t, "WOS:1", a1.WoSID)
	roots := g.NodesOf(graph.KindRoot)
	require.Len(t, roots, 1)
	assert.True(t, hasEdge(g, a1.Index, roots[0].Index))

	assert.Equal(t, SourceCounts{All: 3, WoS: 1, PubMed: 2, Both: 1, Unknown: 1}, b.Counts())
	assert.Equal(t, 3, b.Net().Counts().All)
}

func TestRecordsWithoutRoot(t *testing.T) {
	b := New("input")
	require.NoError(t, b.Records(context.Background(), "", []reference.Record{{PMID: "1"}}))
	g := b.Net().Graph()
	assert.Empty(t, g.NodesOf(graph.KindRoot))
	assert.Equal(t, 0, g.EdgeCount())
}

func TestHasInstitution(t *testing.T) {
	rec := reference.Record{Institutions: map[int]reference.Institution{
		1: {Address: "Dept of Medicine, 1 Main St", Organizations: []string{"UCSF", "University of California"}},
	}}
	tests := []struct {
		name string
		want bool
	}{
		{"", true},
		{"medicine", true},
		{"ucsf", true},
		{"UNIVERSITY OF CALIFORNIA", true},
		{"stanford", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasInstitution(rec, tt.name), tt.name)
	}
	assert.False(t, HasInstitution(reference.Record{}, "ucsf"))
}
