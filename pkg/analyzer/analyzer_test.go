package analyzer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bismuthai/codegraph/pkg/analyzer"
	"github.com/bismuthai/codegraph/pkg/kgraph"
)

const goSource = `package sample

type Greeter struct{}

func (g *Greeter) Hello(name string) string {
	return format(name)
}

func format(name string) string {
	return "hi " + name
}
`

func TestAnalyzeGoFileProducesScopes(t *testing.T) {
	a := analyzer.New()
	outcomes, err := a.Analyze(context.Background(), map[string][]byte{
		"sample.go": []byte(goSource),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	assert.False(t, out.Chunked)

	var sawFunction, sawClass, sawFile bool
	for _, d := range out.Drafts {
		switch d.Type {
		case kgraph.NodeFile:
			sawFile = true
		case kgraph.NodeClass:
			sawClass = true
		case kgraph.NodeFunction:
			sawFunction = true
		}
	}
	assert.True(t, sawFile)
	assert.True(t, sawClass)
	assert.True(t, sawFunction)

	var sawCall bool
	for _, e := range out.Deferred {
		if e.Type == kgraph.EdgeCall && e.ParentSymbol == "format" {
			sawCall = true
		}
	}
	assert.True(t, sawCall)
}

func TestAnalyzeUnparsedExtensionChunks(t *testing.T) {
	a := analyzer.New()
	src := make([]byte, 0)
	for i := 0; i < 120; i++ {
		src = append(src, []byte("line of yaml\n")...)
	}
	outcomes, err := a.Analyze(context.Background(), map[string][]byte{
		"config/values.yaml": src,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	out := outcomes[0]
	assert.True(t, out.Chunked)
	assert.GreaterOrEqual(t, len(out.Drafts), 3) // 1 file node + at least 2 chunks
}

func TestIsTestFileConventionMatchesPageRankBias(t *testing.T) {
	a := analyzer.New()
	outcomes, err := a.Analyze(context.Background(), map[string][]byte{
		"test_utils/helpers.py": []byte("def run():\n    call_target()\n"),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	var sawCoverage bool
	for _, e := range outcomes[0].Deferred {
		if e.Type == kgraph.EdgeTestCoverage {
			sawCoverage = true
		}
	}
	assert.True(t, sawCoverage)
}
