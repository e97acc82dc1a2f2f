package overlay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/overlay"
)

func TestApplyDeleteDoesNotTouchBase(t *testing.T) {
	base := kgraph.New("feat-1")
	n := base.AddNode(kgraph.NodeFile, "a", "a.py", 0, 1)

	scratch, err := overlay.Apply(context.Background(), base, []overlay.Edit{{Path: "a.py", Content: nil}})
	require.NoError(t, err)

	assert.Nil(t, scratch.GetNode(n.ID))
	assert.NotNil(t, base.GetNode(n.ID))
}

func TestApplyEditReanalyzesFile(t *testing.T) {
	base := kgraph.New("feat-1")
	base.AddNode(kgraph.NodeFile, "a", "a.py", 0, 1)

	scratch, err := overlay.Apply(context.Background(), base, []overlay.Edit{
		{Path: "a.py", Content: []byte("def hello():\n    return 1\n")},
	})
	require.NoError(t, err)

	var sawFunction bool
	for _, n := range scratch.AllNodes() {
		if n.Type == kgraph.NodeFunction {
			sawFunction = true
		}
	}
	assert.True(t, sawFunction)
	assert.Equal(t, 1, base.NodeCount())
}

func TestFilterDeletedDropsMatchingFileNodes(t *testing.T) {
	base := kgraph.New("feat-1")
	a := base.AddNode(kgraph.NodeFile, "a", "a.py", 0, 1)
	b := base.AddNode(kgraph.NodeFile, "b", "b.py", 0, 1)

	filtered := overlay.FilterDeleted([]int{a.ID, b.ID}, base, map[string]bool{"a.py": true})
	require.Len(t, filtered, 1)
	assert.Equal(t, b.ID, filtered[0])
}
