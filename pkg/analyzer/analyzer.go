// Package analyzer turns source files into the scope drafts and deferred
// symbol edges the Graph Builder assembles into a knowledge graph. It walks
// each file with the tree-sitter grammar registered for its extension in
// extByExt, falling back to fixed-size line chunking for files with no
// grammar or no recognized class/function scopes.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bismuthai/codegraph/pkg/kgraph"
)

// FileOutcome is everything Analyze produces for one file.
type FileOutcome struct {
	FileName   string
	Drafts     []Draft
	Deferred   []kgraph.DeferredEdge
	Whitespace WhitespaceProfile
	Chunked    bool // true when the file fell back to line-window chunking
}

// Analyzer walks source files into scope drafts. It holds no state across
// calls; tree-sitter parsers are created per file since *sitter.Parser is
// not safe for concurrent reuse.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

// Analyze processes every entry in files (repo-relative path -> raw bytes)
// and returns one FileOutcome per file.
func (a *Analyzer) Analyze(ctx context.Context, files map[string][]byte) ([]FileOutcome, error) {
	outcomes := make([]FileOutcome, 0, len(files))
	for name, src := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := a.analyzeFile(ctx, name, src)
		if err != nil {
			return nil, fmt.Errorf("analyzer: %s: %w", name, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, name string, src []byte) (FileOutcome, error) {
	ws := detectWhitespace(src)
	isTest := isTestFile(name)

	spec, ok := lookup(name)
	if !ok || (len(spec.classTypes) == 0 && len(spec.functionTypes) == 0) {
		return chunkOutcome(name, src, ws), nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.grammar())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		// Malformed input for this grammar: fall back rather than fail the
		// whole batch over one bad file.
		return chunkOutcome(name, src, ws), nil
	}
	root := tree.RootNode()
	if root == nil {
		return chunkOutcome(name, src, ws), nil
	}

	result := walkFile(name, root, src, spec, isTest)
	return FileOutcome{FileName: name, Drafts: result.drafts, Deferred: result.deferred, Whitespace: ws}, nil
}

// chunkOutcome builds a FILE node plus one FUNCTION-typed chunk node per
// chunkSize-line window, for files the analyzer cannot or does not parse
// into real scopes.
func chunkOutcome(name string, src []byte, ws WhitespaceProfile) FileOutcome {
	symbol := symbolOf(name)
	chunks := chunkFile(name, src)

	drafts := make([]Draft, 0, len(chunks)+1)
	drafts = append(drafts, Draft{
		Type: kgraph.NodeFile, Symbol: symbol, FileName: name,
		Line: 0, EndLine: len(splitLines(src)),
	})
	for i, c := range chunks {
		drafts = append(drafts, Draft{
			Type:     kgraph.NodeFunction,
			Symbol:   fmt.Sprintf("%s.chunk_%d", symbol, i),
			FileName: name,
			Line:     c.startLine,
			EndLine:  c.endLine,
			Content:  c.content,
		})
	}
	return FileOutcome{FileName: name, Drafts: drafts, Whitespace: ws, Chunked: true}
}

// isTestFile applies the same underscore-split substring convention as
// kgraph.isTestTargetFile, so a test file's outgoing calls are recorded as
// TEST_COVERAGE edges instead of plain CALL edges.
func isTestFile(name string) bool {
	return strings.Contains(strings.SplitN(name, "_", 2)[0], "test")
}
