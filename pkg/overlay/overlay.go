// Package overlay applies transient, uncommitted edits on top of a
// knowledge graph for the duration of a single retrieval call. Nothing it
// does ever mutates the graph the Store persists: edits live in a scratch
// copy built fresh per call and discarded afterward.
package overlay

import (
	"context"

	"github.com/bismuthai/codegraph/pkg/analyzer"
	"github.com/bismuthai/codegraph/pkg/kgraph"
)

// Edit describes one uncommitted change to a file: Content == nil means the
// file was deleted; otherwise Content is its proposed new contents.
type Edit struct {
	Path    string
	Content []byte
}

// Apply returns a scratch graph combining base's nodes with overlay's
// edits: deleted files' nodes are dropped, and edited files are
// re-analyzed and inserted in place of their previous scopes. base is
// never modified.
func Apply(ctx context.Context, base *kgraph.Graph, edits []Edit) (*kgraph.Graph, error) {
	scratch := base.Clone()

	deleted := map[string]bool{}
	var changed []Edit
	for _, e := range edits {
		if e.Content == nil {
			deleted[e.Path] = true
			continue
		}
		changed = append(changed, e)
	}

	if len(deleted) > 0 {
		scratch.Invalidate(deleted)
	}
	for _, e := range changed {
		scratch.Invalidate(map[string]bool{e.Path: true})
	}

	if len(changed) == 0 {
		return scratch, nil
	}

	files := make(map[string][]byte, len(changed))
	for _, e := range changed {
		files[e.Path] = e.Content
	}

	a := analyzer.New()
	outcomes, err := a.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}

	symbolIndex := map[string]int{}
	bareIndex := map[string][]int{}
	for _, out := range outcomes {
		for _, d := range out.Drafts {
			node := scratch.AddNode(d.Type, d.Symbol, d.FileName, d.Line, d.EndLine)
			symbolIndex[d.Symbol] = node.ID
			bare := kgraph.LastSymbolComponent(d.Symbol)
			bareIndex[bare] = append(bareIndex[bare], node.ID)
		}
	}
	for _, out := range outcomes {
		for _, e := range out.Deferred {
			srcID, ok := symbolIndex[e.ChildSymbol]
			if !ok {
				continue
			}
			candidates := bareIndex[e.ParentSymbol]
			if len(candidates) == 0 {
				continue
			}
			dstID := candidates[0]
			srcNode, dstNode := scratch.GetNode(srcID), scratch.GetNode(dstID)
			if srcNode == nil || dstNode == nil {
				continue
			}
			scratch.AddEdge(srcID, dstID, e.Type, srcNode.FileName, dstNode.FileName)
		}
	}

	return scratch, nil
}

// FilterDeleted drops any node whose FileName is among deleted from ids,
// preserving order — used after a hybrid search or PageRank pass that ran
// against the persisted graph, to keep overlay-deleted files out of
// results even when the scratch graph itself was never consulted.
func FilterDeleted(ids []int, scratch *kgraph.Graph, deleted map[string]bool) []int {
	if len(deleted) == 0 {
		return ids
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		node := scratch.GetNode(id)
		if node == nil {
			continue
		}
		if deleted[node.FileName] {
			continue
		}
		out = append(out, id)
	}
	return out
}
