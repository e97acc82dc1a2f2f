// Package searchindex is the hybrid BM25 + vector store backing hybrid
// retrieval: a PostgreSQL table with a full-text index for lexical scoring
// and a pgvector HNSW index for cosine similarity, fused with a weighted
// sum at query time.
package searchindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlSearchRows = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS search_rows (
    node_id     BIGINT       PRIMARY KEY,
    graph_id    TEXT         NOT NULL,
    symbol      TEXT         NOT NULL,
    file_name   TEXT         NOT NULL,
    node_type   TEXT         NOT NULL,
    content     TEXT         NOT NULL DEFAULT '',
    embedding   vector(%d),
    updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_search_rows_graph_id
    ON search_rows (graph_id);

CREATE INDEX IF NOT EXISTS idx_search_rows_fts
    ON search_rows USING GIN (
        setweight(to_tsvector('english', content), 'B') ||
        setweight(to_tsvector('english', file_name), 'A')
    );

CREATE INDEX IF NOT EXISTS idx_search_rows_embedding
    ON search_rows USING hnsw (embedding vector_cosine_ops);
`

// Migrate creates the search_rows table and its indexes if they do not
// already exist. embeddingDimensions must match the configured embedding
// model (e.g. 1536 for text-embedding-3-small); changing it later requires
// a manual schema migration, which is why this lives behind an explicit
// call rather than being baked into NewStore.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	stmt := fmt.Sprintf(ddlSearchRows, embeddingDimensions)
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("searchindex: migrate: %w", err)
	}
	return nil
}
