package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("sample")
	art := g.AddNode(graph.KindArticle, "A <title> & more")
	auth := g.AddNode(graph.KindAuthor, "doe j")
	nih := g.AddNode(graph.KindGrantAgency, "NIH")
	g.AddNode(graph.KindAuthor, "orphan x")

	n, err := g.Node(art)
	require.NoError(t, err)
	require.NoError(t, n.SetAttr(graph.AttrPMID, "100"))
	require.NoError(t, n.SetAttr(graph.AttrTitle, "A <title> & more"))
	require.NoError(t, n.SetAttr(graph.AttrPubdate, 19990100))
	require.NoError(t, n.SetAttr(graph.AttrPubtypes, []string{"Journal Article", "Review"}))
	require.NoError(t, n.SetAttr(graph.AttrMeshTerms, []string{}))
	require.NoError(t, n.SetAttr("score", 2.5))
	require.NoError(t, n.SetAttr("weights", []int{3, 1}))
	n.Position = &graph.Position{X: 1.25, Y: -4}

	_, err = g.AddEdge(art, auth)
	require.NoError(t, err)
	_, err = g.AddUniqueEdge(art, nih, graph.EdgeAttrs{Count: 2})
	require.NoError(t, err)
	return g
}

func assertSameGraph(t *testing.T, want, got *graph.Graph) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	require.Equal(t, want.NodeCount(), got.NodeCount())
	for i, wn := range want.Nodes() {
		gn := got.Nodes()[i]
		assert.Equal(t, wn.Attributes(), gn.Attributes(), "node %d", i)
		assert.Equal(t, wn.Position, gn.Position, "node %d", i)
	}
	require.Equal(t, want.EdgeCount(), got.EdgeCount())
	for i, we := range want.Edges() {
		ge := got.Edges()[i]
		assert.Equal(t, we.Source, ge.Source)
		assert.Equal(t, we.Target, ge.Target)
		assert.Equal(t, we.Attributes(), ge.Attributes())
	}
}

func TestXGMML_RoundTrip(t *testing.T) {
	g := sampleGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteXGMML(&buf, g))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `xmlns="http://www.cs.rpi.edu/XGMML"`)
	assert.Contains(t, out, `<att name="pubtypes" type="list">`)
	assert.Contains(t, out, `<att name="pubtypes" value="Review" type="string"></att>`)
	assert.Contains(t, out, `<att name="count" value="2" type="integer"></att>`)
	assert.Contains(t, out, `<graphics x="1.25" y="-4"></graphics>`)

	got, err := ReadXGMML(&buf)
	require.NoError(t, err)
	assertSameGraph(t, g, got)
}

func TestXGMML_RejectsBeforeWriting(t *testing.T) {
	g := sampleGraph(t)
	n, err := g.Node(1)
	require.NoError(t, err)

	err = n.SetAttr("affiliation", map[string]string{"address": "Lab"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrUnserializable))

	// A value that slipped past SetAttr is still caught by the encoder.
	require.NoError(t, n.ApplyAttribute("broken", nil))
	var buf bytes.Buffer
	err = WriteXGMML(&buf, g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrUnserializable))
	assert.Contains(t, err.Error(), `"broken"`)
	assert.Contains(t, err.Error(), "node 1")
	assert.Zero(t, buf.Len())
}

func TestReadXGMML_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"gap in ids", `<graph xmlns="http://www.cs.rpi.edu/XGMML" label="x" directed="1"><node id="1" label="a"></node></graph>`},
		{"bad integer", `<graph xmlns="http://www.cs.rpi.edu/XGMML" label="x" directed="1"><node id="0" label="a"><att name="level" value="two" type="integer"></att></node></graph>`},
		{"unknown type", `<graph xmlns="http://www.cs.rpi.edu/XGMML" label="x" directed="1"><node id="0" label="a"><att name="x" value="1" type="map"></att></node></graph>`},
		{"dangling edge", `<graph xmlns="http://www.cs.rpi.edu/XGMML" label="x" directed="1"><node id="0" label="a"></node><edge source="0" target="3"></edge></graph>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadXGMML(strings.NewReader(tt.doc))
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	g := sampleGraph(t)

	var buf bytes.Buffer
	info, err := WriteSnapshot(&buf, g)
	require.NoError(t, err)
	assert.NotEmpty(t, info.RunID)

	got, gotInfo, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, info.RunID, gotInfo.RunID)
	assertSameGraph(t, g, got)

	n := got.Nodes()[0]
	v, ok := n.Attr("weights")
	require.True(t, ok)
	assert.Equal(t, graph.IntegerList{3, 1}, v)
	assert.Equal(t, []string{}, n.MeshTerms)
}

func TestSnapshot_RejectsBeforeWriting(t *testing.T) {
	g := sampleGraph(t)
	e := g.Edges()[0]
	require.NoError(t, e.ApplyAttribute("broken", nil))

	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, g)
	assert.True(t, errors.Is(err, graph.ErrUnserializable))
	assert.Zero(t, buf.Len())
}

func TestSaveLoad(t *testing.T) {
	g := sampleGraph(t)
	dir := t.TempDir()

	for _, name := range []string{"net.xgmml", "net.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, g))
			got, err := Load(path)
			require.NoError(t, err)
			assertSameGraph(t, g, got)
		})
	}

	err := Save(filepath.Join(dir, "net.pkl"), g)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	_, statErr := os.Stat(filepath.Join(dir, "net.pkl"))
	assert.True(t, os.IsNotExist(statErr))
}
