package litnet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

func pubdate(v int) *reference.Pubdate {
	p := reference.Pubdate(v)
	return &p
}

func edgeCount(t *testing.T, g *graph.Graph, src, dst int) int {
	t.Helper()
	id, ok := g.EdgeBetween(src, dst)
	require.True(t, ok, "edge %d→%d", src, dst)
	e, err := g.Edge(id)
	require.NoError(t, err)
	return e.Count
}

func TestAddRef_PMIDScenario(t *testing.T) {
	n := New("test")
	root := n.AddNode(graph.KindRoot, "root")
	require.Equal(t, 0, root)

	idx, err := n.AddRef(reference.Record{
		PMID:          "100",
		Title:         "Title A",
		Authors:       []reference.Author{{Name: "Doe J"}},
		GrantAgencies: []string{"NIH", "NIH"},
	}, root)
	require.NoError(t, err)

	g := n.Graph()
	art, err := g.Node(idx)
	require.NoError(t, err)
	assert.Equal(t, graph.KindArticle, art.Kind)
	assert.Equal(t, "100", art.PMID)
	assert.Equal(t, "Title A", art.Label)

	authors := g.NodesOf(graph.KindAuthor)
	require.Len(t, authors, 1)
	assert.Equal(t, "doe j", authors[0].Label)
	_, ok := g.EdgeBetween(idx, authors[0].Index)
	assert.True(t, ok)

	agencies := g.NodesOf(graph.KindGrantAgency)
	require.Len(t, agencies, 1)
	assert.Equal(t, "NIH", agencies[0].Label)
	assert.Equal(t, 2, edgeCount(t, g, idx, agencies[0].Index))

	_, ok = g.EdgeBetween(idx, root)
	assert.True(t, ok)
	assert.Equal(t, 3, g.EdgeCount())
}

func TestAddRef_SameTitleWithoutIdentifiers(t *testing.T) {
	n := New("test")

	i1, err := n.AddRef(reference.Record{Title: "Same Title", Authors: []reference.Author{{Name: "Roe R"}}}, NoParent)
	require.NoError(t, err)
	i2, err := n.AddRef(reference.Record{Title: "Same Title", Authors: []reference.Author{{Name: "Poe P"}}}, NoParent)
	require.NoError(t, err)

	assert.Equal(t, i1, i2)
	g := n.Graph()
	var labels []string
	for _, s := range g.Successors(i1) {
		node, err := g.Node(s)
		require.NoError(t, err)
		labels = append(labels, node.Label)
	}
	assert.Equal(t, []string{"roe r", "poe p"}, labels)
	assert.Equal(t, Counts{All: 2, Title: 1, New: 1}, n.Counts())
}

func TestAddRef_SamePMIDSameIndex(t *testing.T) {
	n := New("test")
	i1, err := n.AddRef(reference.Record{PMID: "7", Title: "First"}, NoParent)
	require.NoError(t, err)
	i2, err := n.AddRef(reference.Record{PMID: "7", Title: "Second wording"}, NoParent)
	require.NoError(t, err)

	assert.Equal(t, i1, i2)
	node, err := n.Graph().Node(i1)
	require.NoError(t, err)
	assert.Equal(t, "Second wording", node.Title)
}

func TestAddRef_DistinctPMIDsSameTitle(t *testing.T) {
	n := New("test")
	i1, err := n.AddRef(reference.Record{PMID: "1", Title: "Editorial"}, NoParent)
	require.NoError(t, err)
	i2, err := n.AddRef(reference.Record{PMID: "2", Title: "Editorial"}, NoParent)
	require.NoError(t, err)
	assert.NotEqual(t, i1, i2)

	// An identifier-confirmed node is never registered under its title.
	i3, err := n.AddRef(reference.Record{Title: "Editorial"}, NoParent)
	require.NoError(t, err)
	assert.NotEqual(t, i1, i3)
	assert.NotEqual(t, i2, i3)
}

func TestAddRef_WoSIDThenPMID(t *testing.T) {
	n := New("test")
	i1, err := n.AddRef(reference.Record{WoSID: "WOS:1", Title: "T"}, NoParent)
	require.NoError(t, err)
	i2, err := n.AddRef(reference.Record{WoSID: "WOS:1", PMID: "55"}, NoParent)
	require.NoError(t, err)
	i3, err := n.AddRef(reference.Record{PMID: "55"}, NoParent)
	require.NoError(t, err)

	assert.Equal(t, i1, i2)
	assert.Equal(t, i1, i3)
	assert.Equal(t, Counts{All: 3, New: 1, WoSID: 1, PMID: 1}, n.Counts())
}

func TestAddRef_NoIdentityAlwaysNew(t *testing.T) {
	n := New("test")
	i1, err := n.AddRef(reference.Record{}, NoParent)
	require.NoError(t, err)
	i2, err := n.AddRef(reference.Record{}, NoParent)
	require.NoError(t, err)
	assert.NotEqual(t, i1, i2)
}

func TestAddRef_ParentEdgeIsIdempotent(t *testing.T) {
	n := New("test")
	root := n.AddNode(graph.KindRoot, "root")
	rec := reference.Record{PMID: "9"}

	idx, err := n.AddRef(rec, root)
	require.NoError(t, err)
	_, err = n.AddRef(rec, root)
	require.NoError(t, err)

	assert.Equal(t, 1, n.Graph().OutDegree(idx))
}

func TestAddRef_SelfParentSkipped(t *testing.T) {
	n := New("test")
	idx, err := n.AddRef(reference.Record{PMID: "9"}, NoParent)
	require.NoError(t, err)

	got, err := n.AddRef(reference.Record{PMID: "9"}, idx)
	require.NoError(t, err)
	assert.Equal(t, idx, got)
	assert.Zero(t, n.Graph().EdgeCount())
}

func TestAddRef_InstitutionChain(t *testing.T) {
	n := New("test")
	rec := reference.Record{
		PMID: "1",
		Institutions: map[int]reference.Institution{
			1: {Address: "Dept Medicine", Organizations: []string{"School of Medicine", "UCSF"}},
			2: {Address: "Gladstone"},
		},
	}
	idx, err := n.AddRef(rec, NoParent)
	require.NoError(t, err)
	_, err = n.AddRef(reference.Record{PMID: "1", Institutions: map[int]reference.Institution{
		1: {Address: "Dept Medicine", Organizations: []string{"School of Medicine", "UCSF"}},
	}}, NoParent)
	require.NoError(t, err)

	g := n.Graph()
	byLabel := map[string]int{}
	for _, inst := range g.NodesOf(graph.KindInstitution) {
		byLabel[inst.Label] = inst.Index
	}
	require.Len(t, byLabel, 4)

	assert.Equal(t, 2, edgeCount(t, g, idx, byLabel["Dept Medicine"]))
	assert.Equal(t, 1, edgeCount(t, g, idx, byLabel["Gladstone"]))
	_, ok := g.EdgeBetween(byLabel["Dept Medicine"], byLabel["School of Medicine"])
	assert.True(t, ok)
	_, ok = g.EdgeBetween(byLabel["School of Medicine"], byLabel["UCSF"])
	assert.True(t, ok)
	_, ok = g.EdgeBetween(idx, byLabel["UCSF"])
	assert.False(t, ok, "organizations hang off the address, not the article")
}

func TestAddRef_CountsAcrossMerges(t *testing.T) {
	n := New("test")
	idx, err := n.AddRef(reference.Record{PMID: "1", GrantAgencies: []string{"NIH", "NSF"}}, NoParent)
	require.NoError(t, err)
	_, err = n.AddRef(reference.Record{PMID: "1", GrantAgencies: []string{"NIH", "NIH"}}, NoParent)
	require.NoError(t, err)

	g := n.Graph()
	counts := map[string]int{}
	for _, ga := range g.NodesOf(graph.KindGrantAgency) {
		counts[ga.Label] = edgeCount(t, g, idx, ga.Index)
	}
	assert.Equal(t, map[string]int{"NIH": 3, "NSF": 1}, counts)
}

func TestAddRef_MeshTermNodes(t *testing.T) {
	rec := reference.Record{PMID: "1", MeshTerms: [][]string{{"Humans"}, {"Neoplasms", "drug therapy", "genetics"}}}

	plain := New("test")
	_, err := plain.AddRef(rec, NoParent)
	require.NoError(t, err)
	assert.Empty(t, plain.Graph().NodesOf(graph.KindMeshTerm))

	n := New("test", WithMeshTermNodes())
	idx, err := n.AddRef(rec, NoParent)
	require.NoError(t, err)
	terms := n.Graph().NodesOf(graph.KindMeshTerm)
	require.Len(t, terms, 3)
	assert.Equal(t, "Neoplasms/drug therapy", terms[1].Label)
	assert.Equal(t, 3, n.Graph().OutDegree(idx))
}

func TestNormalizeAuthor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Doe J", "doe j"},
		{"O'Brien, JM", "obrien jm"},
		{"OBrien JM", "obrien jm"},
		{"Müller K.", "muller k"},
		{"  Smith   J  ", "smith j"},
		{"Çammade, L", "cammade l"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAuthor(tt.in))
		})
	}
}

func TestAddAuthor_VariantsShareNode(t *testing.T) {
	n := New("test")
	a := n.AddAuthor("O'Brien, JM")
	b := n.AddAuthor("OBRIEN JM")
	assert.Equal(t, a, b)
	assert.Equal(t, -1, n.AddAuthor(",."))
}

func TestMergeAttributes_Idempotent(t *testing.T) {
	cit, level := 12, 1
	rec := reference.Record{
		PMID:      "1",
		WoSID:     "WOS:1",
		Title:     "T",
		Pubdate:   pubdate(20010500),
		Pubtypes:  []string{"Journal Article"},
		Citcount:  &cit,
		Level:     &level,
		MeshTerms: [][]string{{"Humans"}},
	}

	once := &graph.Node{Kind: graph.KindArticle}
	MergeAttributes(once, rec)
	twice := &graph.Node{Kind: graph.KindArticle}
	MergeAttributes(twice, rec)
	MergeAttributes(twice, rec)

	assert.Equal(t, once, twice)
	assert.Equal(t, "T", once.Label)
	require.NotNil(t, once.Pubdate)
	assert.Equal(t, 20010500, *once.Pubdate)
}

func TestMergeAttributes_AbsentFieldsKeepValues(t *testing.T) {
	cit := 3
	n := &graph.Node{Kind: graph.KindArticle}
	MergeAttributes(n, reference.Record{Title: "T", Citcount: &cit, Pubtypes: []string{"Review"}})
	MergeAttributes(n, reference.Record{PMID: "5"})

	assert.Equal(t, "T", n.Title)
	assert.Equal(t, "5", n.PMID)
	require.NotNil(t, n.Citcount)
	assert.Equal(t, 3, *n.Citcount)
	assert.Equal(t, []string{"Review"}, n.Pubtypes)
}

func TestFlattenMeshTerms(t *testing.T) {
	got := FlattenMeshTerms([][]string{{"A", "B", "C"}, {"X"}, {}})
	assert.Equal(t, []string{"A/B", "A/C", "X"}, got)
}

func buildPubdateNet(t *testing.T) *Net {
	t.Helper()
	n := New("test")
	recs := []reference.Record{
		{PMID: "1", Pubdate: pubdate(20050300), Authors: []reference.Author{{Name: "A X"}, {Name: "B Y"}}, GrantAgencies: []string{"NIH"}},
		{PMID: "2", Pubdate: pubdate(19990101), Authors: []reference.Author{{Name: "A X"}}, Institutions: map[int]reference.Institution{1: {Address: "Lab", Organizations: []string{"Univ"}}}},
		{PMID: "3", Pubdate: pubdate(20120000), Authors: []reference.Author{{Name: "B Y"}, {Name: "C Z"}}, GrantAgencies: []string{"NIH", "NSF"}, Institutions: map[int]reference.Institution{1: {Address: "Lab"}}},
		{PMID: "4", Authors: []reference.Author{{Name: "D W"}}},
	}
	root := n.AddNode(graph.KindRoot, "root")
	for _, r := range recs {
		_, err := n.AddRef(r, root)
		require.NoError(t, err)
	}
	return n
}

func pubdates(n *Net) map[int]*int {
	out := map[int]*int{}
	for _, node := range n.Graph().Nodes() {
		if node.Pubdate != nil {
			out[node.Index] = intPtr(*node.Pubdate)
		} else {
			out[node.Index] = nil
		}
	}
	return out
}

func TestPropagatePubdates(t *testing.T) {
	n := buildPubdateNet(t)
	n.PropagatePubdates()

	want := map[string]int{
		"a x": 19990101, "b y": 20050300, "c z": 20120000,
		"NIH": 20050300, "NSF": 20120000, "Lab": 19990101,
	}
	g := n.Graph()
	for _, node := range g.Nodes() {
		if node.Kind == graph.KindArticle {
			continue
		}
		if v, ok := want[node.Label]; ok {
			require.NotNil(t, node.Pubdate, node.Label)
			assert.Equal(t, v, *node.Pubdate, node.Label)
		} else {
			assert.Nil(t, node.Pubdate, node.Label)
		}
	}
}

func TestPropagatePubdates_OrderInvariant(t *testing.T) {
	base := buildPubdateNet(t)
	base.PropagatePubdates()
	want := pubdates(base)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		n := buildPubdateNet(t)
		var order []int
		for _, a := range n.Graph().NodesOf(graph.KindArticle) {
			order = append(order, a.Index)
		}
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		n.propagatePubdates(order)
		assert.Equal(t, want, pubdates(n), "order %v", order)
	}
}

func TestCollapseDuplicateAuthors_AnyOrder(t *testing.T) {
	names := []string{"Smith J", "Smith JM", "Smith JMR"}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, p := range perms {
		n := New("test")
		var articles []int
		for i, j := range p {
			idx, err := n.AddRef(reference.Record{
				PMID:    string(rune('a' + i)),
				Authors: []reference.Author{{Name: names[j]}},
			}, NoParent)
			require.NoError(t, err)
			articles = append(articles, idx)
		}

		merged, err := n.CollapseDuplicateAuthors()
		require.NoError(t, err)
		assert.Equal(t, 2, merged)

		g := n.Graph()
		var reachable []*graph.Node
		for _, a := range g.NodesOf(graph.KindAuthor) {
			if g.InDegree(a.Index) > 0 {
				reachable = append(reachable, a)
			}
		}
		require.Len(t, reachable, 1, "perm %v", p)
		assert.Equal(t, "smith jmr", reachable[0].Label)
		assert.ElementsMatch(t, articles, g.Predecessors(reachable[0].Index))
		assert.Len(t, g.NodesOf(graph.KindAuthor), 3, "collapsed nodes stay allocated")
	}
}

func TestCollapseDuplicateAuthors_WithoutFullest(t *testing.T) {
	n := New("test")
	_, err := n.AddRef(reference.Record{PMID: "1", Authors: []reference.Author{{Name: "Smith JM"}, {Name: "Jones A"}}}, NoParent)
	require.NoError(t, err)
	_, err = n.AddRef(reference.Record{PMID: "2", Authors: []reference.Author{{Name: "Smith J"}}}, NoParent)
	require.NoError(t, err)

	merged, err := n.CollapseDuplicateAuthors()
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	jm := n.AddAuthor("Smith JM")
	assert.Equal(t, 2, n.Graph().InDegree(jm))
	assert.Equal(t, jm, n.AddAuthor("Smith J"), "table follows the merge")
}

func TestCollapseDuplicateAuthors_Skips(t *testing.T) {
	n := New("test")
	_, err := n.AddRef(reference.Record{PMID: "1", Authors: []reference.Author{
		{Name: "van der Berg J"}, {Name: "van der Berg JK"}, {Name: "Lee A"}, {Name: "Lee B"},
	}}, NoParent)
	require.NoError(t, err)

	merged, err := n.CollapseDuplicateAuthors()
	require.NoError(t, err)
	assert.Zero(t, merged)
}

func TestFinish(t *testing.T) {
	n := buildPubdateNet(t)
	_, err := n.AddRef(reference.Record{PMID: "5", Pubdate: pubdate(19800000), Authors: []reference.Author{{Name: "A XY"}}}, NoParent)
	require.NoError(t, err)

	merged, err := n.Finish()
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	axy := n.AddAuthor("A XY")
	node, err := n.Graph().Node(axy)
	require.NoError(t, err)
	require.NotNil(t, node.Pubdate)
	assert.Equal(t, 19800000, *node.Pubdate, "propagation runs after the collapse")
	assert.Equal(t, 3, n.Graph().InDegree(axy))
}
