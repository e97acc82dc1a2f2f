// Command codegraphd runs the Code Knowledge Graph & Hybrid Retrieval Engine
// as a standalone HTTP service.
//
// Usage:
//
//	codegraphd -config codegraphd.yaml
//
// Configuration is loaded from the given YAML file and then overlaid with
// environment variables (see internal/config). The PostgreSQL database must
// already exist; codegraphd runs the search-index migration at startup.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bismuthai/codegraph/internal/config"
	"github.com/bismuthai/codegraph/internal/server"
	"github.com/bismuthai/codegraph/internal/telemetry"
	"github.com/bismuthai/codegraph/pkg/embedding"
	"github.com/bismuthai/codegraph/pkg/ingest"
	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/retrieval"
	"github.com/bismuthai/codegraph/pkg/searchindex"
)

func main() {
	configPath := flag.String("config", "codegraphd.yaml", "path to the configuration file")
	humanLogs := flag.Bool("human-logs", false, "emit text logs to stderr instead of JSON to stdout")
	flag.Parse()

	logger := telemetry.NewLogger(*humanLogs)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Any("config", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.InitProvider(ctx)
	if err != nil {
		logger.Error("failed to init telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := searchindex.Migrate(ctx, pool, embeddingDimensions(cfg)); err != nil {
		logger.Error("failed to run search index migration", slog.Any("error", err))
		os.Exit(1)
	}

	graphs := kgraph.NewStore(cfg.Graph.Root)
	search := searchindex.NewStore(pool)
	embedAdapter := embedding.NewAdapter(newEmbeddingProvider(cfg))
	pipeline := ingest.New(graphs, search, embedAdapter, pool, logger)
	engine := retrieval.New(graphs, search, embedAdapter, retrieval.Config{
		SearchTop: cfg.Search.SearchTop,
		GraphTop:  cfg.Search.GraphTop,
		Weights:   searchindex.Weights{BM25: cfg.Search.BM25Weight, Vector: cfg.Search.VectorWeight},
	})

	srv := server.New(cfg, logger, server.Deps{
		Graphs:   graphs,
		Search:   search,
		Pipeline: pipeline,
		Engine:   engine,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error("server error", slog.Any("error", err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	logger.Info("codegraphd stopped")
}

// newEmbeddingProvider returns nil when embeddings are not configured,
// producing a disabled Adapter that falls back to BM25-only search.
func newEmbeddingProvider(cfg *config.Config) embedding.Provider {
	if !cfg.Embed.Enabled() {
		return nil
	}
	return embedding.NewOpenAIProvider(cfg.Embed.APIKey, cfg.Embed.Model)
}

func embeddingDimensions(cfg *config.Config) int {
	if cfg.Embed.Dimensions > 0 {
		return cfg.Embed.Dimensions
	}
	return 768
}
