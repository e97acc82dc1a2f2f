package config

import (
	"os"
	"testing"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Graph.Root == "" {
		t.Fatal("expected a default graph root")
	}
	if cfg.Embed.Enabled() {
		t.Fatal("embedding should be disabled with no api key configured")
	}
}

func TestLoadEnvOverlayWinsOverDefaults(t *testing.T) {
	os.Setenv("CODEGRAPH_GRAPH_ROOT", "/tmp/graphs")
	os.Setenv("CODEGRAPH_EMBEDDING_API_KEY", "sk-test")
	defer os.Unsetenv("CODEGRAPH_GRAPH_ROOT")
	defer os.Unsetenv("CODEGRAPH_EMBEDDING_API_KEY")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Graph.Root != "/tmp/graphs" {
		t.Fatalf("expected env overlay to win, got %q", cfg.Graph.Root)
	}
	if !cfg.Embed.Enabled() {
		t.Fatal("expected embedding enabled once api key is set")
	}
}

func TestValidateRejectsEmptyDatabaseDSN(t *testing.T) {
	cfg := defaults()
	cfg.Database.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty database dsn")
	}
}
