// Package ingest runs the bulk ingestion pipeline: analyze every file in a
// batch, insert the resulting scopes into the knowledge graph, resolve
// deferred symbol edges, embed and index their content, and persist
// everything as a single transactional unit so a failure midway leaves no
// partial graph behind.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bismuthai/codegraph/pkg/analyzer"
	"github.com/bismuthai/codegraph/pkg/embedding"
	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/searchindex"
)

// maxFileBytes is the per-file size cap; larger files are skipped rather
// than parsed (a file this large is almost never hand-written source).
const maxFileBytes = 1 << 20

// Event is a streaming progress update emitted during Pipeline.Run.
type Event struct {
	Stage   string // "analyzing", "resolving", "embedding", "indexing", "persisting", "done"
	Message string
	Done    int
	Total   int
}

// ProgressFunc receives streaming Events; nil is a valid no-op callback.
type ProgressFunc func(Event)

// Pipeline wires the Source Analyzer, Graph Builder, Search Index, and
// Embedding Adapter into one ingestion operation.
type Pipeline struct {
	analyzer *analyzer.Analyzer
	graphs   *kgraph.Store
	search   *searchindex.Store
	embed    *embedding.Adapter
	pool     *pgxpool.Pool
	log      *slog.Logger
}

// New builds a Pipeline from its collaborators.
func New(graphs *kgraph.Store, search *searchindex.Store, embed *embedding.Adapter, pool *pgxpool.Pool, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{analyzer: analyzer.New(), graphs: graphs, search: search, embed: embed, pool: pool, log: log}
}

// Run ingests files (repo-relative path -> raw bytes) into graphID,
// reporting progress through report (nil is accepted). On a failure before
// the transaction commits, the search rows added during this call are rolled
// back and the graph is evicted from memory and its directory removed. A
// failure to persist the graph file after the commit is returned as an
// error; the committed search rows stay in place.
func (p *Pipeline) Run(ctx context.Context, graphID string, files map[string][]byte, report ProgressFunc) error {
	files = filterFiles(files)
	report.emit(Event{Stage: "analyzing", Total: len(files)})

	outcomes, err := p.analyzer.Analyze(ctx, files)
	if err != nil {
		return fmt.Errorf("ingest: analyze: %w", err)
	}

	graph, err := p.graphs.Get(graphID)
	if err != nil {
		return fmt.Errorf("ingest: load graph %s: %w", graphID, err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ingest: begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
			p.graphs.RemovePartial(graphID)
		}
	}()

	symbolIndex := map[string]int{}
	bareIndex := map[string][]int{}
	var deferred []kgraph.DeferredEdge
	var contentByID = map[int]string{}

	report.emit(Event{Stage: "resolving", Total: len(outcomes)})
	for i, out := range outcomes {
		for _, d := range out.Drafts {
			node := graph.AddNode(d.Type, d.Symbol, d.FileName, d.Line, d.EndLine)
			symbolIndex[d.Symbol] = node.ID
			bareIndex[kgraph.LastSymbolComponent(d.Symbol)] = append(bareIndex[kgraph.LastSymbolComponent(d.Symbol)], node.ID)
			contentByID[node.ID] = d.Content
		}
		deferred = append(deferred, out.Deferred...)
		report.emit(Event{Stage: "resolving", Done: i + 1, Total: len(outcomes)})
	}

	for _, e := range deferred {
		srcID, ok := symbolIndex[e.ChildSymbol]
		if !ok {
			continue
		}
		candidates := bareIndex[e.ParentSymbol]
		if len(candidates) == 0 {
			continue
		}
		dstID := candidates[0]
		srcNode, dstNode := graph.GetNode(srcID), graph.GetNode(dstID)
		if srcNode == nil || dstNode == nil {
			continue
		}
		graph.AddEdge(srcID, dstID, e.Type, srcNode.FileName, dstNode.FileName)
	}

	contents := make([]string, 0, len(contentByID))
	ids := make([]int, 0, len(contentByID))
	for id, c := range contentByID {
		ids = append(ids, id)
		contents = append(contents, c)
	}

	report.emit(Event{Stage: "embedding", Total: len(contents)})
	vectors, err := p.embed.Embed(ctx, contents)
	if err != nil {
		return fmt.Errorf("ingest: embed: %w", err)
	}

	rows := make([]searchindex.Row, 0, len(ids))
	for i, id := range ids {
		node := graph.GetNode(id)
		if node == nil {
			continue
		}
		rows = append(rows, searchindex.Row{
			NodeID: id, GraphID: graphID, Symbol: node.Symbol, FileName: node.FileName,
			NodeType: node.Type, Content: contents[i], Embedding: vectors[i],
		})
	}

	report.emit(Event{Stage: "indexing", Total: len(rows)})
	if err := p.search.BulkUpsert(ctx, tx, rows); err != nil {
		return fmt.Errorf("ingest: index rows: %w", err)
	}

	report.emit(Event{Stage: "persisting"})
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ingest: commit: %w", err)
	}
	committed = true

	if err := p.graphs.Persist(graphID); err != nil {
		return fmt.Errorf("ingest: persist graph: %w", err)
	}

	report.emit(Event{Stage: "done", Done: len(rows), Total: len(rows)})
	p.log.Info("ingest complete", slog.String("graph_id", graphID), slog.Int("nodes", len(symbolIndex)), slog.Int("indexed", len(rows)))
	return nil
}

func (f ProgressFunc) emit(e Event) {
	if f != nil {
		f(e)
	}
}

// filterFiles drops anything over maxFileBytes.
func filterFiles(files map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(files))
	for name, src := range files {
		if len(src) > maxFileBytes {
			continue
		}
		out[name] = src
	}
	return out
}
