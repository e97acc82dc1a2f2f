package kgraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bismuthai/codegraph/pkg/kgraph"
)

func TestAddEdgeMirrorsReverse(t *testing.T) {
	g := kgraph.New("feat-1")
	fn := g.AddNode(kgraph.NodeFunction, "a.foo", "a.py", 0, 2)
	file := g.AddNode(kgraph.NodeFile, "a", "a.py", 0, 0)

	g.AddEdge(fn.ID, file.ID, kgraph.EdgeFunctionDef, "a.py", "a.py")

	out := g.OutEdges(fn.ID)
	require.Len(t, out, 1)
	assert.Equal(t, kgraph.EdgeFunctionDef, out[0].Type)
	assert.False(t, out[0].Reverse)

	back := g.OutEdges(file.ID)
	require.Len(t, back, 1)
	assert.True(t, back[0].Reverse)
	assert.Equal(t, fn.ID, back[0].Dst)
	assert.Equal(t, typeOf(out[0]), typeOf(back[0]))
}

func typeOf(e *kgraph.KGEdge) kgraph.EdgeType { return e.Type }

func TestInvalidateRemovesFileNodes(t *testing.T) {
	g := kgraph.New("feat-1")
	a := g.AddNode(kgraph.NodeFile, "a", "a.py", 0, 0)
	b := g.AddNode(kgraph.NodeFile, "b", "b.py", 0, 0)
	g.AddEdge(a.ID, b.ID, kgraph.EdgeCall, "a.py", "b.py")

	g.Invalidate(map[string]bool{"a.py": true})

	assert.Nil(t, g.GetNode(a.ID))
	assert.NotNil(t, g.GetNode(b.ID))
	assert.Empty(t, g.OutEdges(b.ID))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := kgraph.New("feat-1")
	fn := g.AddNode(kgraph.NodeFunction, "a.foo", "a.py", 1, 3)
	file := g.AddNode(kgraph.NodeFile, "a", "a.py", 0, 0)
	g.AddEdge(fn.ID, file.ID, kgraph.EdgeFunctionDef, "a.py", "a.py")

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	require.NoError(t, g.Save(path))

	loaded, err := kgraph.Load("feat-1", path)
	require.NoError(t, err)

	assert.Equal(t, g.NodeCount(), loaded.NodeCount())
	ln := loaded.GetNode(fn.ID)
	require.NotNil(t, ln)
	assert.Equal(t, fn.Symbol, ln.Symbol)
	assert.Equal(t, fn.Line, ln.Line)
	assert.Equal(t, fn.EndLine, ln.EndLine)

	edges := loaded.OutEdges(fn.ID)
	require.Len(t, edges, 1)
	assert.Equal(t, "a.py", edges[0].SrcFile)
	assert.Equal(t, "a.py", edges[0].DstFile)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestPageRankConvergesWhenDisconnected(t *testing.T) {
	g := kgraph.New("feat-1")
	a := g.AddNode(kgraph.NodeFunction, "a", "a.py", 0, 1)
	b := g.AddNode(kgraph.NodeFunction, "b", "b.py", 0, 1)

	personalization := map[int]float64{a.ID: 1.0, b.ID: 0.2}
	ranks, converged := g.PageRank(personalization, false, kgraph.TestBiasWeight(false))
	assert.True(t, converged)
	assert.Len(t, ranks, 2)
}
