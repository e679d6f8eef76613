package kgnorm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/kgnorm/graph"
	"github.com/brunobiangulo/kgnorm/neo4jdb"
)

// Config holds all configuration for the kgnorm engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.kgnorm/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set: "home" (default) uses ~/.kgnorm/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// EmbeddingDim is the dimension of the name vectors used by SimilarNodes.
	// Changing it requires a fresh database.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// Normalizer configures the vocabulary, taxonomy and limits.
	Normalizer graph.Config `json:"normalizer" yaml:"normalizer"`

	// Neo4j mirrors ingested graphs when URI is set.
	Neo4j neo4jdb.Config `json:"neo4j" yaml:"neo4j"`
}

// DefaultConfig returns a Config with the built-in vocabulary and a local
// database in ~/.kgnorm/kgnorm.db.
func DefaultConfig() Config {
	return Config{
		DBName:       "kgnorm",
		StorageDir:   "home",
		EmbeddingDim: 64,
		Normalizer:   graph.DefaultConfig(),
	}
}

// Validate reports configuration values the engine cannot run with.
func (c Config) Validate() error {
	if c.EmbeddingDim < 0 {
		return fmt.Errorf("%w: embedding_dim must not be negative", ErrInvalidConfig)
	}
	switch c.StorageDir {
	case "", "home", "local", "cwd":
	default:
		return fmt.Errorf("%w: unknown storage_dir %q", ErrInvalidConfig, c.StorageDir)
	}
	n := c.Normalizer
	if n.MaxNodeNameLength < 0 || n.MaxRelationLength < 0 || n.DescriptionThreshold < 0 {
		return fmt.Errorf("%w: normalizer limits must not be negative", ErrInvalidConfig)
	}
	for i, r := range n.Relations {
		if strings.TrimSpace(r.Phrase) == "" || r.Label == "" {
			return fmt.Errorf("%w: relation rule %d needs a phrase and a label", ErrInvalidConfig, i)
		}
	}
	return nil
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON (.json) file on top of
// DefaultConfig. Fields absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unsupported config file %s", ErrInvalidConfig, path)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "kgnorm"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".kgnorm", name+".db")
	}
}
