// Command server exposes the kgnorm engine over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brunobiangulo/kgnorm"
	"github.com/brunobiangulo/kgnorm/neo4jdb"
)

const defaultCacheSize = 256

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := kgnorm.DefaultConfig()
	if *configPath != "" {
		loaded, err := kgnorm.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyEnv(&cfg)

	apiKey := os.Getenv("KGNORM_API_KEY")
	corsOrigins := os.Getenv("KGNORM_CORS_ORIGINS")
	cacheSize := envInt("KGNORM_CACHE_SIZE", defaultCacheSize)

	engine, err := kgnorm.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h, err := newHandler(engine, cacheSize)
	if err != nil {
		slog.Error("creating handler", "error", err)
		os.Exit(1)
	}

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = h.routes()
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 0, // large exports and ingests
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "cache_size", cacheSize)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /normalize", h.handleNormalize)
	mux.HandleFunc("POST /documents", h.handleIngest)
	mux.HandleFunc("GET /documents", h.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", h.handleGetDocument)
	mux.HandleFunc("DELETE /documents/{id}", h.handleDeleteDocument)
	mux.HandleFunc("GET /documents/{id}/export", h.handleExport)
	mux.HandleFunc("GET /nodes/similar", h.handleSimilarNodes)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

// applyEnv overrides config fields from KGNORM_* and NEO4J_* variables.
func applyEnv(cfg *kgnorm.Config) {
	if v := os.Getenv("KGNORM_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("KGNORM_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := envInt("KGNORM_EMBEDDING_DIM", 0); v > 0 {
		cfg.EmbeddingDim = v
	}
	if v := os.Getenv("KGNORM_FILTER_ENTITIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Normalizer.FilterEntities = b
		}
	}
	cfg.Neo4j = neo4jdb.ConfigFromEnv(cfg.Neo4j)
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer env var", "key", key, "value", v)
		return def
	}
	return n
}
