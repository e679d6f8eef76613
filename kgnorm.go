package kgnorm

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/kgnorm/export"
	"github.com/brunobiangulo/kgnorm/graph"
	"github.com/brunobiangulo/kgnorm/neo4jdb"
	"github.com/brunobiangulo/kgnorm/parser"
	"github.com/brunobiangulo/kgnorm/store"
)

// Engine is the main entry point for knowledge-graph normalization.
type Engine interface {
	// Normalize runs the pipeline on one snapshot without persisting it.
	Normalize(raw *graph.RawGraph) *graph.Graph

	// Parse reads an upstream extract in the given format ("json", "xlsx").
	Parse(ctx context.Context, r io.Reader, format string) (*graph.RawGraph, error)

	// Ingest normalizes a snapshot and stores it under docID, replacing any
	// previous version. Skips if the content hash is unchanged.
	Ingest(ctx context.Context, docID string, raw *graph.RawGraph, opts ...IngestOption) (*IngestResult, error)

	// Load returns the stored normalized graph of a document.
	Load(ctx context.Context, docID string) (*graph.Graph, error)

	// ListDocuments returns all ingested documents.
	ListDocuments(ctx context.Context) ([]Document, error)

	// Delete removes a document and all associated data.
	Delete(ctx context.Context, docID string) error

	// SimilarNodes returns the k stored nodes whose names are closest to name.
	SimilarNodes(ctx context.Context, name string, k int) ([]SimilarNode, error)

	// Export writes the stored graph of a document as an XLSX workbook.
	Export(ctx context.Context, docID string, w io.Writer) error

	// Close cleanly shuts down the engine.
	Close() error
}

// Document represents an ingested document.
type Document struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Format      string            `json:"format"`
	Source      string            `json:"source,omitempty"`
	ContentHash string            `json:"content_hash"`
	Stats       graph.Stats       `json:"stats"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	NodeCount   int               `json:"node_count"`
	EdgeCount   int               `json:"edge_count"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// IngestResult reports the outcome of one Ingest call.
type IngestResult struct {
	DocumentID  string      `json:"document_id"`
	ContentHash string      `json:"content_hash"`
	Skipped     bool        `json:"skipped"`
	Stats       graph.Stats `json:"stats"`
	Mirrored    bool        `json:"mirrored"`
	MirrorError string      `json:"mirror_error,omitempty"`
}

// SimilarNode is a stored node close to a queried name.
type SimilarNode struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Degree     int     `json:"degree"`
	Score      float64 `json:"score"`
}

// IngestOption configures ingestion behavior.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	force    bool
	name     string
	format   string
	source   string
	metadata map[string]string
}

// WithForce re-normalizes and stores even if the hash hasn't changed.
func WithForce() IngestOption {
	return func(o *ingestOptions) { o.force = true }
}

// WithName sets a human-readable document name, e.g. the upload filename.
func WithName(name string) IngestOption {
	return func(o *ingestOptions) { o.name = name }
}

// WithFormat records the input format the snapshot was parsed from.
func WithFormat(format string) IngestOption {
	return func(o *ingestOptions) { o.format = format }
}

// WithSource records where the snapshot came from (api, cli, ...).
func WithSource(source string) IngestOption {
	return func(o *ingestOptions) { o.source = source }
}

// WithMetadata attaches custom metadata to the ingested document.
func WithMetadata(metadata map[string]string) IngestOption {
	return func(o *ingestOptions) { o.metadata = metadata }
}

// defaultSimilarK is used when SimilarNodes is called with k <= 0.
const defaultSimilarK = 10

// engine is the concrete implementation of Engine.
type engine struct {
	cfg        Config
	normalizer *graph.Normalizer
	parsers    *parser.Registry
	store      *store.Store
	mirror     *neo4jdb.Client

	mu     sync.RWMutex
	closed bool
}

// New creates a new engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dbPath := cfg.resolveDBPath()

	// Apply defaults for zero values
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 64
	}

	s, err := store.New(dbPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	mirror, err := neo4jdb.New(context.Background(), cfg.Neo4j, slog.Default())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	n := graph.NewNormalizer(cfg.Normalizer)
	cfg.Normalizer = n.Config()

	slog.Info("engine ready", "db", dbPath, "embedding_dim", cfg.EmbeddingDim,
		"neo4j", mirror != nil, "relations", len(cfg.Normalizer.Relations))

	return &engine{
		cfg:        cfg,
		normalizer: n,
		parsers:    parser.NewRegistry(),
		store:      s,
		mirror:     mirror,
	}, nil
}

func (e *engine) Normalize(raw *graph.RawGraph) *graph.Graph {
	return e.normalizer.NormalizeGraph(raw)
}

func (e *engine) Parse(ctx context.Context, r io.Reader, format string) (*graph.RawGraph, error) {
	p, err := e.parsers.Get(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	raw, err := p.Parse(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return raw, nil
}

// Ingest normalizes raw and writes it to the store and, when configured,
// to Neo4j. Both sinks run concurrently; a Neo4j failure is reported in
// the result and never fails the call.
func (e *engine) Ingest(ctx context.Context, docID string, raw *graph.RawGraph, opts ...IngestOption) (*IngestResult, error) {
	options := &ingestOptions{}
	for _, o := range opts {
		o(options)
	}

	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, fmt.Errorf("%w: empty document id", ErrInvalidGraph)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidGraph)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrStoreClosed
	}

	hash, err := contentHash(raw)
	if err != nil {
		return nil, fmt.Errorf("hashing graph: %w", err)
	}

	// Check if document already exists with same hash
	if !options.force {
		existing, err := e.store.GetDocument(ctx, docID)
		if err == nil && existing.ContentHash == hash {
			slog.Info("ingest: unchanged, skipping", "doc_id", docID)
			return &IngestResult{
				DocumentID:  docID,
				ContentHash: hash,
				Skipped:     true,
				Stats:       decodeStats(existing.Stats),
			}, nil
		}
	}

	start := time.Now()
	g := e.normalizer.NormalizeGraph(raw)
	slog.Info("ingest: normalized graph",
		"doc_id", docID,
		"nodes", g.Stats.OriginalNodes, "canonical_nodes", g.Stats.NormalizedNodes,
		"edges", g.Stats.OriginalEdges, "canonical_edges", g.Stats.NormalizedEdges,
		"aliases", g.Stats.Aliases, "elapsed", time.Since(start).Round(time.Millisecond))

	rec, err := toRecord(docID, hash, options, g)
	if err != nil {
		return nil, fmt.Errorf("encoding graph: %w", err)
	}

	result := &IngestResult{DocumentID: docID, ContentHash: hash, Stats: g.Stats}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		if err := e.store.SaveGraph(gctx, rec); err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
		return nil
	})
	if e.mirror != nil {
		grp.Go(func() error {
			if err := e.mirror.UpsertGraph(gctx, docID, g); err != nil {
				slog.Warn("ingest: neo4j mirror failed (non-fatal)", "doc_id", docID, "error", err)
				result.MirrorError = err.Error()
				return nil
			}
			result.Mirrored = true
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	slog.Info("ingest: document ready", "doc_id", docID,
		"mirrored", result.Mirrored, "total_elapsed", time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (e *engine) Load(ctx context.Context, docID string) (*graph.Graph, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrStoreClosed
	}

	rec, err := e.store.LoadGraph(ctx, docID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	return fromRecord(rec), nil
}

func (e *engine) ListDocuments(ctx context.Context) ([]Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrStoreClosed
	}

	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Document, len(docs))
	for i, d := range docs {
		result[i] = toDocument(d)
	}
	return result, nil
}

func (e *engine) Delete(ctx context.Context, docID string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrStoreClosed
	}

	if err := e.store.DeleteDocument(ctx, docID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		return err
	}
	if err := e.mirror.DeleteDocument(ctx, docID); err != nil {
		slog.Warn("delete: neo4j mirror failed (non-fatal)", "doc_id", docID, "error", err)
	}
	return nil
}

func (e *engine) SimilarNodes(ctx context.Context, name string, k int) ([]SimilarNode, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrStoreClosed
	}

	name = e.normalizer.NormalizeName(name)
	if name == "" {
		return nil, nil
	}
	if k <= 0 {
		k = defaultSimilarK
	}

	hits, err := e.store.SimilarNodes(ctx, name, k)
	if err != nil {
		return nil, fmt.Errorf("similar nodes: %w", err)
	}
	out := make([]SimilarNode, len(hits))
	for i, h := range hits {
		out[i] = SimilarNode{
			DocumentID: h.DocumentID,
			Name:       h.Name,
			Type:       h.NodeType,
			Degree:     h.Degree,
			Score:      h.Score,
		}
	}
	return out, nil
}

func (e *engine) Export(ctx context.Context, docID string, w io.Writer) error {
	g, err := e.Load(ctx, docID)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, g)
}

// Close shuts down the engine. Calls after the first are no-ops.
func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if err := e.mirror.Close(context.Background()); err != nil {
		slog.Warn("closing neo4j driver", "error", err)
	}
	return e.store.Close()
}

// contentHash computes the SHA-256 of the canonical JSON encoding of raw.
func contentHash(raw *graph.RawGraph) (string, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
