package searchindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// Weights controls how BM25 and vector similarity are combined into
// Result.Score. Callers normally take these from configuration
// (BM25Weight / VectorWeight).
type Weights struct {
	BM25   float64
	Vector float64
}

// bm25RankExpr ranks a row against a plain-text query over both its content
// and its file name, with file name matches weighted twice as heavily as
// content matches (spec section 4.3/6's "file boosted 2x" lexical scoring).
const bm25RankExpr = `ts_rank_cd(
	ARRAY[0, 0, 1, 2],
	setweight(to_tsvector('english', content), 'B') || setweight(to_tsvector('english', file_name), 'A'),
	plainto_tsquery('english', $2)
)`

// Search runs a hybrid lexical + vector query over graphID's rows and
// returns the topK fused results, ordered by descending Score.
//
// When queryEmbedding is nil (embeddings disabled, or the query failed to
// embed) the vector term is dropped entirely and ranking falls back to
// BM25 alone, returning only rows that match the query text — callers do
// not need a separate code path for that case.
func (s *Store) Search(ctx context.Context, graphID, query string, queryEmbedding []float32, topK int, w Weights) ([]Result, error) {
	if queryEmbedding == nil {
		return s.searchBM25Only(ctx, graphID, query, topK)
	}

	q := fmt.Sprintf(`
		SELECT node_id,
		       %[1]s AS bm25,
		       1 - (embedding <=> $3) AS vec_sim
		FROM   search_rows
		WHERE  graph_id = $1 AND embedding IS NOT NULL
		ORDER BY ($4 * %[1]s
		          + $5 * (1 - (embedding <=> $3))) DESC
		LIMIT $6`, bm25RankExpr)

	vec := pgvector.NewVector(queryEmbedding)
	rows, err := s.pool.Query(ctx, q, graphID, query, vec, w.BM25, w.Vector, topK)
	if err != nil {
		return nil, fmt.Errorf("searchindex: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Result, error) {
		var r Result
		if err := row.Scan(&r.NodeID, &r.BM25Score, &r.VecScore); err != nil {
			return Result{}, err
		}
		r.Score = w.BM25*r.BM25Score + w.Vector*r.VecScore
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("searchindex: scan results: %w", err)
	}
	return results, nil
}

func (s *Store) searchBM25Only(ctx context.Context, graphID, query string, topK int) ([]Result, error) {
	q := fmt.Sprintf(`
		SELECT node_id, %[1]s AS bm25
		FROM   search_rows
		WHERE  graph_id = $1
		  AND  (setweight(to_tsvector('english', content), 'B') || setweight(to_tsvector('english', file_name), 'A'))
		       @@ plainto_tsquery('english', $2)
		ORDER BY bm25 DESC
		LIMIT $3`, bm25RankExpr)

	rows, err := s.pool.Query(ctx, q, graphID, query, topK)
	if err != nil {
		return nil, fmt.Errorf("searchindex: search (bm25 only): %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Result, error) {
		var r Result
		if err := row.Scan(&r.NodeID, &r.BM25Score); err != nil {
			return Result{}, err
		}
		r.Score = r.BM25Score
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("searchindex: scan results (bm25 only): %w", err)
	}
	return results, nil
}
