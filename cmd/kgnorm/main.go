// Command kgnorm normalizes knowledge-graph extracts and manages the local
// graph store from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/kgnorm"
	"github.com/brunobiangulo/kgnorm/neo4jdb"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dbPath     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "kgnorm",
		Short: "Normalize knowledge-graph extracts",
		Long: `kgnorm cleans LLM-extracted knowledge graphs: it canonicalizes entity
names, merges near-duplicate entities, maps free-text relations onto a
fixed vocabulary and stores the result in a local SQLite database.

Examples:
  kgnorm normalize extract.json              # print the canonical graph
  kgnorm normalize extract.xlsx -o out.xlsx  # write a workbook
  kgnorm ingest extract.json --id rich-dad   # normalize and store
  kgnorm documents                           # list stored documents
  kgnorm similar "穷爸爸富爸爸"               # find close entity names`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config file (YAML or JSON)")
	pf.StringVar(&opts.dbPath, "db", "", "path to the SQLite database (overrides config)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newNormalizeCmd(opts),
		newIngestCmd(opts),
		newDocumentsCmd(opts),
		newShowCmd(opts),
		newDeleteCmd(opts),
		newExportCmd(opts),
		newSimilarCmd(opts),
	)
	return root
}

// loadConfig reads --config over the defaults and applies --db and the
// NEO4J_* environment.
func (o *globalOptions) loadConfig() (kgnorm.Config, error) {
	cfg := kgnorm.DefaultConfig()
	if o.configPath != "" {
		loaded, err := kgnorm.LoadConfig(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	} else if v := os.Getenv("KGNORM_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	cfg.Neo4j = neo4jdb.ConfigFromEnv(cfg.Neo4j)
	return cfg, nil
}

// withEngine opens the engine for the duration of fn.
func (o *globalOptions) withEngine(fn func(kgnorm.Engine) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	engine, err := kgnorm.New(cfg)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()
	return fn(engine)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
