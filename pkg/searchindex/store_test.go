package searchindex_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/searchindex"
)

const testEmbeddingDim = 4

// testDSN returns the test database DSN from the environment, or skips the
// test if CODEGRAPH_TEST_POSTGRES_DSN is not set — these tests exercise real
// BM25/HNSW ranking and are not meaningful against a mock.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CODEGRAPH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CODEGRAPH_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}
	return dsn
}

func newTestStore(t *testing.T) *searchindex.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS search_rows`)
	require.NoError(t, searchindex.Migrate(ctx, pool, testEmbeddingDim))

	return searchindex.NewStore(pool)
}

func TestBulkUpsertAndBM25OnlySearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := []searchindex.Row{
		{NodeID: 1, GraphID: "feat-1", Symbol: "a.parse", FileName: "a.py", NodeType: kgraph.NodeFunction, Content: "parse tokens into an ast"},
		{NodeID: 2, GraphID: "feat-1", Symbol: "a.render", FileName: "a.py", NodeType: kgraph.NodeFunction, Content: "render html from the ast"},
	}
	require.NoError(t, store.BulkUpsert(ctx, nil, rows))

	results, err := store.Search(ctx, "feat-1", "ast", nil, 10, searchindex.Weights{BM25: 1, Vector: 0})
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestDeleteRemovesRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := []searchindex.Row{
		{NodeID: 5, GraphID: "feat-1", Symbol: "a.foo", FileName: "a.py", NodeType: kgraph.NodeFunction, Content: "foo bar"},
	}
	require.NoError(t, store.BulkUpsert(ctx, nil, rows))
	require.NoError(t, store.Delete(ctx, nil, []int{5}))

	results, err := store.Search(ctx, "feat-1", "foo", nil, 10, searchindex.Weights{BM25: 1})
	require.NoError(t, err)
	require.Empty(t, results)
}
