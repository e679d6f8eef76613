package kgnorm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/kgnorm/graph"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Normalizer.Relations) == 0 {
		t.Error("default config should carry the relation vocabulary")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative dim", func(c *Config) { c.EmbeddingDim = -1 }},
		{"unknown storage dir", func(c *Config) { c.StorageDir = "cloud" }},
		{"negative limit", func(c *Config) { c.Normalizer.MaxNodeNameLength = -5 }},
		{"empty relation phrase", func(c *Config) {
			c.Normalizer.Relations = append(c.Normalizer.Relations, graph.RelationRule{Phrase: " ", Label: "x"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "kgnorm.yaml", `
db_path: /data/kg.db
embedding_dim: 32
normalizer:
  max_node_name_length: 12
  filter_entities: true
neo4j:
  uri: bolt://localhost:7687
  user: neo4j
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBPath != "/data/kg.db" || cfg.EmbeddingDim != 32 {
		t.Errorf("unexpected top-level fields: %+v", cfg)
	}
	if cfg.Normalizer.MaxNodeNameLength != 12 || !cfg.Normalizer.FilterEntities {
		t.Errorf("unexpected normalizer config: %+v", cfg.Normalizer)
	}
	if cfg.Neo4j.URI != "bolt://localhost:7687" || cfg.Neo4j.User != "neo4j" {
		t.Errorf("unexpected neo4j config: %+v", cfg.Neo4j)
	}
	// Untouched fields keep their defaults.
	if cfg.DBName != "kgnorm" || len(cfg.Normalizer.Relations) == 0 {
		t.Errorf("defaults lost: db_name=%q relations=%d", cfg.DBName, len(cfg.Normalizer.Relations))
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeFile(t, "kgnorm.json", `{"db_name": "books", "storage_dir": "local"}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.resolveDBPath(); got != "books.db" {
		t.Errorf("resolveDBPath = %q, want books.db", got)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeFile(t, "cfg.toml", "")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for .toml, got %v", err)
	}
	if _, err := LoadConfig(writeFile(t, "cfg.json", "{")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for bad JSON, got %v", err)
	}
	if _, err := LoadConfig(writeFile(t, "cfg.yaml", "embedding_dim: -3\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for negative dim, got %v", err)
	}
}

func TestResolveDBPathHome(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.resolveDBPath()
	if !strings.HasSuffix(got, filepath.Join(".kgnorm", "kgnorm.db")) {
		t.Errorf("resolveDBPath = %q", got)
	}
	cfg.DBPath = "/explicit.db"
	if got := cfg.resolveDBPath(); got != "/explicit.db" {
		t.Errorf("explicit path ignored: %q", got)
	}
}
