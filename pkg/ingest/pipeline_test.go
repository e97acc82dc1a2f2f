package ingest_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/bismuthai/codegraph/pkg/embedding"
	"github.com/bismuthai/codegraph/pkg/ingest"
	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/searchindex"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if CODEGRAPH_TEST_POSTGRES_DSN is not set — Pipeline.Run drives a real
// transaction and search index, not meaningful against a mock.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CODEGRAPH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CODEGRAPH_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}
	return dsn
}

func newTestPipeline(t *testing.T) (*ingest.Pipeline, *kgraph.Store, *searchindex.Store) {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS search_rows`)
	require.NoError(t, searchindex.Migrate(ctx, pool, 4))

	graphs := kgraph.NewStore(t.TempDir())
	search := searchindex.NewStore(pool)
	adapter := embedding.NewAdapter(nil) // disabled: BM25-only indexing
	pipeline := ingest.New(graphs, search, adapter, pool, slog.Default())
	return pipeline, graphs, search
}

func TestRunAnalyzesResolvesAndIndexesAFile(t *testing.T) {
	pipeline, graphs, search := newTestPipeline(t)
	ctx := context.Background()

	files := map[string][]byte{
		"pkg/a.go": []byte("package pkg\n\nfunc parse() {}\n\nfunc render() {\n\tparse()\n}\n"),
	}

	var events []ingest.Event
	err := pipeline.Run(ctx, "feat-pipeline", files, func(e ingest.Event) { events = append(events, e) })
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, "done", events[len(events)-1].Stage)

	graph, err := graphs.Get("feat-pipeline")
	require.NoError(t, err)
	require.NotEmpty(t, graph.AllNodes())

	results, err := search.Search(ctx, "feat-pipeline", "parse", nil, 10, searchindex.Weights{BM25: 1})
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestRunRollsBackOnCanceledContext(t *testing.T) {
	pipeline, graphs, _ := newTestPipeline(t)

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()

	files := map[string][]byte{"pkg/a.go": []byte("package pkg\n\nfunc parse() {}\n")}
	err := pipeline.Run(cancelCtx, "feat-rollback", files, nil)
	require.Error(t, err)

	// The canceled context stops Run during analysis, before the graph is
	// loaded or mutated, so a fresh Get must return an empty graph.
	graph, err := graphs.Get("feat-rollback")
	require.NoError(t, err)
	require.Empty(t, graph.AllNodes())
}
