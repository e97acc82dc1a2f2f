package searchindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/bismuthai/codegraph/pkg/kgraph"
)

// Row is one search-indexed node: a node's identity, its content string
// (empty for FILE nodes, which are still indexed), and its embedding vector
// (nil when the embedding provider is disabled or the content is empty).
type Row struct {
	NodeID    int
	GraphID   string
	Symbol    string
	FileName  string
	NodeType  kgraph.NodeType
	Content   string
	Embedding []float32
}

// Result is one scored hit from Search, carrying both component scores so
// callers can see how BM25 and vector similarity each contributed.
type Result struct {
	NodeID    int
	BM25Score float64
	VecScore  float64
	Score     float64
}

// Store is the PostgreSQL-backed hybrid index. All methods are safe for
// concurrent use; BulkUpsert and Delete participate in a caller-supplied
// transaction when tx is non-nil, so ingestion can commit the index update
// atomically with the graph's node rows.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps pool. Call Migrate once before first use.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BulkUpsert inserts or replaces rows, batched via pgx's Batch so a large
// ingestion issues one round trip instead of one per row. When tx is
// non-nil the statements run inside it and are not committed here.
func (s *Store) BulkUpsert(ctx context.Context, tx pgx.Tx, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	const q = `
		INSERT INTO search_rows (node_id, graph_id, symbol, file_name, node_type, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (node_id) DO UPDATE SET
		    graph_id  = EXCLUDED.graph_id,
		    symbol    = EXCLUDED.symbol,
		    file_name = EXCLUDED.file_name,
		    node_type = EXCLUDED.node_type,
		    content   = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    updated_at = now()`

	batch := &pgx.Batch{}
	for _, r := range rows {
		var vec any
		if r.Embedding != nil {
			vec = pgvector.NewVector(r.Embedding)
		}
		batch.Queue(q, r.NodeID, r.GraphID, r.Symbol, r.FileName, string(r.NodeType), r.Content, vec)
	}

	var br pgx.BatchResults
	if tx != nil {
		br = tx.SendBatch(ctx, batch)
	} else {
		br = s.pool.SendBatch(ctx, batch)
	}
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("searchindex: bulk upsert: %w", err)
		}
	}
	return nil
}

// DeleteGraph removes every row belonging to graphID, used when a graph is
// deleted outright rather than partially invalidated.
func (s *Store) DeleteGraph(ctx context.Context, graphID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM search_rows WHERE graph_id = $1`, graphID)
	if err != nil {
		return fmt.Errorf("searchindex: delete graph %s: %w", graphID, err)
	}
	return nil
}

// Delete removes rows for the given node ids, used when the Graph Builder
// invalidates a file's nodes on re-ingestion.
func (s *Store) Delete(ctx context.Context, tx pgx.Tx, nodeIDs []int) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	const q = `DELETE FROM search_rows WHERE node_id = ANY($1)`
	var err error
	if tx != nil {
		_, err = tx.Exec(ctx, q, nodeIDs)
	} else {
		_, err = s.pool.Exec(ctx, q, nodeIDs)
	}
	if err != nil {
		return fmt.Errorf("searchindex: delete: %w", err)
	}
	return nil
}
