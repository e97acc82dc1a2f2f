// Package retrieval implements hybrid search personalized with a two-pass
// PageRank over the knowledge graph: hybrid search finds seed nodes, a
// forward and a reverse PageRank pass spread relevance along the call
// graph from those seeds, and the merged ranking is filtered through any
// active overlay before being returned.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/overlay"
	"github.com/bismuthai/codegraph/pkg/searchindex"
)

// Embedder is the minimal surface retrieval needs to embed a query string.
// Returns a nil vector (not an error) when embeddings are disabled.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Config controls how many candidates flow through each stage.
type Config struct {
	SearchTop int // hybrid search candidates used to seed PageRank
	GraphTop  int // final result count after PageRank re-ranking
	Weights   searchindex.Weights
}

// Engine answers retrieval queries against one graph at a time.
type Engine struct {
	graphs *kgraph.Store
	search *searchindex.Store
	embed  Embedder
	cfg    Config
}

// New builds an Engine from its collaborators.
func New(graphs *kgraph.Store, search *searchindex.Store, embed Embedder, cfg Config) *Engine {
	return &Engine{graphs: graphs, search: search, embed: embed, cfg: cfg}
}

// Hit is one ranked node returned from Query.
type Hit struct {
	Node  *kgraph.KGNode
	Score float64
}

// Query runs hybrid search to find seed nodes for query within graphID,
// spreads relevance through forward and reverse PageRank passes biased
// toward those seeds, and returns the top GraphTop nodes by combined rank.
// seedNodeIDs are additional already-known graph nodes to personalize on
// (e.g. files the caller is already editing) — each is weighted as the
// highest score among the hybrid search hits, same as spec section 4.6 step
// 3. onlyTests is the caller's explicit declaration that this query concerns
// test code, switching the PageRank edge-weighting policy to the test-biased
// mode (spec section 4.6 step 4); it is never inferred from the seeds, since
// a single non-test hit among otherwise-test seeds would silently defeat a
// heuristic guess. edits apply transiently for the duration of this call only.
func (e *Engine) Query(ctx context.Context, graphID, query string, seedNodeIDs []int, onlyTests bool, edits []overlay.Edit) ([]Hit, error) {
	base, err := e.graphs.Get(graphID)
	if err != nil {
		return nil, fmt.Errorf("retrieval: load graph %s: %w", graphID, err)
	}

	scratch, err := overlay.Apply(ctx, base, edits)
	if err != nil {
		return nil, fmt.Errorf("retrieval: apply overlay: %w", err)
	}

	var queryVec []float32
	if vecs, err := e.embed.Embed(ctx, []string{query}); err == nil && len(vecs) == 1 {
		queryVec = vecs[0]
	}

	seeds, err := e.search.Search(ctx, graphID, query, queryVec, e.cfg.SearchTop, e.cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("retrieval: hybrid search: %w", err)
	}
	if len(seeds) == 0 && len(seedNodeIDs) == 0 {
		return nil, nil
	}

	personalization := make(map[int]float64, len(seeds)+len(seedNodeIDs))
	for _, s := range seeds {
		personalization[s.NodeID] = s.Score
	}

	if len(seedNodeIDs) > 0 {
		weight := maxScore(personalization)
		for _, id := range seedNodeIDs {
			personalization[id] = weight
		}
	}

	weightFn := kgraph.TestBiasWeight(onlyTests)

	forward, forwardOK := scratch.PageRank(personalization, false, weightFn)
	reverse, reverseOK := scratch.PageRank(personalization, true, weightFn)

	var merged map[int]float64
	if forwardOK && reverseOK {
		merged = mergeRanks(forward, reverse)
	} else {
		// GraphNotConverged: fall back to the personalization vector itself
		// rather than trusting a power iteration that never settled.
		merged = make(map[int]float64, len(personalization))
		for id, v := range personalization {
			merged[id] = v
		}
	}

	deleted := deletedFiles(edits)
	ids := topIDs(merged, e.cfg.GraphTop+len(deleted))
	ids = overlay.FilterDeleted(ids, scratch, deleted)
	if len(ids) > e.cfg.GraphTop {
		ids = ids[:e.cfg.GraphTop]
	}

	hits := make([]Hit, 0, len(ids))
	for _, id := range ids {
		node := scratch.GetNode(id)
		if node == nil {
			continue
		}
		hits = append(hits, Hit{Node: node, Score: merged[id]})
	}
	return hits, nil
}

func deletedFiles(edits []overlay.Edit) map[string]bool {
	out := map[string]bool{}
	for _, e := range edits {
		if e.Content == nil {
			out[e.Path] = true
		}
	}
	return out
}

func mergeRanks(forward, reverse map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(forward))
	for id, v := range forward {
		out[id] = v
	}
	for id, v := range reverse {
		out[id] += v
	}
	return out
}

func topIDs(ranks map[int]float64, n int) []int {
	ids := make([]int, 0, len(ranks))
	for id := range ranks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ranks[ids[i]] > ranks[ids[j]] })
	if n >= 0 && n < len(ids) {
		ids = ids[:n]
	}
	return ids
}

// maxScore returns the highest value in scores, or 1.0 if scores is empty —
// seed nodes supplied with no hybrid search hits to scale against still need
// a non-zero personalization weight.
func maxScore(scores map[int]float64) float64 {
	max := 0.0
	found := false
	for _, v := range scores {
		if !found || v > max {
			max = v
			found = true
		}
	}
	if !found {
		return 1.0
	}
	return max
}
