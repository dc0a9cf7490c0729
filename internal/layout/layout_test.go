package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

func TestApply(t *testing.T) {
	g := graph.New("test")
	root := g.AddNode(graph.KindRoot, "root")
	a := g.AddNode(graph.KindArticle, "a")
	b := g.AddNode(graph.KindArticle, "b")
	au := g.AddNode(graph.KindAuthor, "smith j")
	lonely := g.AddNode(graph.KindArticle, "lonely")

	for _, e := range [][2]int{{a, root}, {b, root}, {au, a}, {au, b}, {root, a}} {
		_, err := g.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}

	n := Apply(g, DefaultOptions)
	assert.Equal(t, 4, n)

	for _, i := range []int{root, a, b, au} {
		node, err := g.Node(i)
		require.NoError(t, err)
		require.NotNil(t, node.Position, "node %d", i)
		assert.False(t, math.IsNaN(node.Position.X))
		assert.False(t, math.IsNaN(node.Position.Y))
	}

	node, err := g.Node(lonely)
	require.NoError(t, err)
	assert.Nil(t, node.Position)
}

func TestApplyEmpty(t *testing.T) {
	g := graph.New("empty")
	g.AddNode(graph.KindArticle, "x")
	assert.Equal(t, 0, Apply(g, DefaultOptions))
}
