package retrieval_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/overlay"
	"github.com/bismuthai/codegraph/pkg/retrieval"
	"github.com/bismuthai/codegraph/pkg/searchindex"
)

const testEmbeddingDim = 4

type nilEmbedder struct{}

func (nilEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	return make([][]float32, len(inputs)), nil
}

func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CODEGRAPH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CODEGRAPH_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}
	return dsn
}

// TestQueryRanksSeedsThroughPageRank builds a tiny two-node call graph, seeds
// hybrid search against the caller, and checks the callee surfaces in the
// merged ranking via the CALL edge rather than only the seed itself.
func TestQueryRanksSeedsThroughPageRank(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS search_rows`)
	require.NoError(t, searchindex.Migrate(ctx, pool, testEmbeddingDim))
	search := searchindex.NewStore(pool)

	graphDir := t.TempDir()
	graphs := kgraph.NewStore(graphDir)
	g, err := graphs.Get("feat-1")
	require.NoError(t, err)

	caller := g.AddNode(kgraph.NodeFunction, "a.parse", "a.py", 0, 3)
	callee := g.AddNode(kgraph.NodeFunction, "a.tokenize", "a.py", 5, 8)
	g.AddEdge(caller.ID, callee.ID, kgraph.EdgeCall, "a.py", "a.py")

	rows := []searchindex.Row{
		{NodeID: caller.ID, GraphID: "feat-1", Symbol: caller.Symbol, FileName: caller.FileName, NodeType: caller.Type, Content: "parse tokens into an ast"},
		{NodeID: callee.ID, GraphID: "feat-1", Symbol: callee.Symbol, FileName: callee.FileName, NodeType: callee.Type, Content: "split raw text into tokens"},
	}
	require.NoError(t, search.BulkUpsert(ctx, nil, rows))

	engine := retrieval.New(graphs, search, nilEmbedder{}, retrieval.Config{
		SearchTop: 5,
		GraphTop:  5,
		Weights:   searchindex.Weights{BM25: 1, Vector: 0},
	})

	hits, err := engine.Query(ctx, "feat-1", "parse", nil, false, []overlay.Edit{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	var sawCallee bool
	for _, h := range hits {
		if h.Node.ID == callee.ID {
			sawCallee = true
		}
	}
	require.True(t, sawCallee, "callee reached only via CALL edge propagation should surface in results")
}

// TestQuerySeedNodeIDsPersonalizeEvenWithoutAHybridHit checks that a caller
// supplied seed node (e.g. a file already open in the editor) gets pulled
// into the personalization vector and can surface results even when the
// query text itself would not have matched it via BM25.
func TestQuerySeedNodeIDsPersonalizeEvenWithoutAHybridHit(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS search_rows`)
	require.NoError(t, searchindex.Migrate(ctx, pool, testEmbeddingDim))
	search := searchindex.NewStore(pool)

	graphs := kgraph.NewStore(t.TempDir())
	g, err := graphs.Get("feat-2")
	require.NoError(t, err)

	seed := g.AddNode(kgraph.NodeFunction, "b.unrelated", "b.py", 0, 3)
	neighbor := g.AddNode(kgraph.NodeFunction, "b.helper", "b.py", 5, 8)
	g.AddEdge(seed.ID, neighbor.ID, kgraph.EdgeCall, "b.py", "b.py")

	rows := []searchindex.Row{
		{NodeID: seed.ID, GraphID: "feat-2", Symbol: seed.Symbol, FileName: seed.FileName, NodeType: seed.Type, Content: "does not mention the query term"},
		{NodeID: neighbor.ID, GraphID: "feat-2", Symbol: neighbor.Symbol, FileName: neighbor.FileName, NodeType: neighbor.Type, Content: "also unrelated text"},
	}
	require.NoError(t, search.BulkUpsert(ctx, nil, rows))

	engine := retrieval.New(graphs, search, nilEmbedder{}, retrieval.Config{
		SearchTop: 5,
		GraphTop:  5,
		Weights:   searchindex.Weights{BM25: 1, Vector: 0},
	})

	hits, err := engine.Query(ctx, "feat-2", "zzz_no_match_zzz", []int{seed.ID}, false, nil)
	require.NoError(t, err)

	var sawNeighbor bool
	for _, h := range hits {
		if h.Node.ID == neighbor.ID {
			sawNeighbor = true
		}
	}
	require.True(t, sawNeighbor, "explicit seed node id should personalize PageRank even without a BM25 hit")
}
