package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Document represents a row in the documents table.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Format      string `json:"format"`
	Source      string `json:"source,omitempty"`
	ContentHash string `json:"content_hash"`
	Stats       string `json:"stats,omitempty"` // JSON object
	Metadata    string `json:"metadata,omitempty"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Node represents a row in the nodes table.
type Node struct {
	ID          int64  `json:"id"`
	DocumentID  string `json:"document_id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	NodeType    string `json:"node_type"`
	Description string `json:"description"`
	Properties  string `json:"properties,omitempty"` // JSON object
	Degree      int    `json:"degree"`
	Original    string `json:"original,omitempty"` // JSON object
}

// Edge represents a row in the edges table.
type Edge struct {
	ID         int64   `json:"id"`
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Label      string  `json:"label"`
	Weight     float64 `json:"weight"`
	Original   string  `json:"original,omitempty"` // JSON object
}

// Alias represents a row in the aliases table.
type Alias struct {
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
}

// GraphRecord is everything stored for one document.
type GraphRecord struct {
	Document Document
	Nodes    []Node
	Edges    []Edge
	Aliases  []Alias
}

// SimilarNode is a nearest-neighbour hit from the name-vector index.
type SimilarNode struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	NodeType   string  `json:"node_type"`
	Degree     int     `json:"degree"`
	Score      float64 `json:"score"`
}

// Store wraps the SQLite database for all kgnorm persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the sqlite-vec virtual table.
func New(dbPath string, embeddingDim int) (*Store, error) {
	if embeddingDim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", embeddingDim)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured name-vector dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- Graph operations ---

// SaveGraph replaces everything stored for rec.Document.ID in one
// transaction: the document row is upserted, its previous nodes, edges,
// aliases and name vectors are removed, and the new ones are inserted.
func (s *Store) SaveGraph(ctx context.Context, rec GraphRecord) error {
	doc := rec.Document
	if doc.ID == "" {
		return fmt.Errorf("saving graph: empty document id")
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, name, format, source, content_hash, stats, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				format = excluded.format,
				source = excluded.source,
				content_hash = excluded.content_hash,
				stats = excluded.stats,
				metadata = excluded.metadata,
				updated_at = CURRENT_TIMESTAMP
		`, doc.ID, doc.Name, doc.Format, doc.Source, doc.ContentHash,
			nullJSON(doc.Stats), nullJSON(doc.Metadata)); err != nil {
			return fmt.Errorf("upserting document: %w", err)
		}

		if err := deleteGraphRows(ctx, tx, doc.ID); err != nil {
			return err
		}

		nodeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (document_id, name, label, node_type, description, properties, degree, original, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer nodeStmt.Close()

		vecStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO vec_nodes (node_id, embedding) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer vecStmt.Close()

		for i, n := range rec.Nodes {
			res, err := nodeStmt.ExecContext(ctx, doc.ID, n.Name, n.Label, n.NodeType,
				n.Description, nullJSON(n.Properties), n.Degree, nullJSON(n.Original), i)
			if err != nil {
				return fmt.Errorf("inserting node %q: %w", n.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			vec := NameVector(n.Name, s.embeddingDim)
			if _, err := vecStmt.ExecContext(ctx, id, serializeFloat32(vec)); err != nil {
				return fmt.Errorf("inserting name vector for %q: %w", n.Name, err)
			}
		}

		edgeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges (document_id, source, target, label, weight, original, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer edgeStmt.Close()

		for i, e := range rec.Edges {
			if _, err := edgeStmt.ExecContext(ctx, doc.ID, e.Source, e.Target, e.Label,
				e.Weight, nullJSON(e.Original), i); err != nil {
				return fmt.Errorf("inserting edge %s->%s: %w", e.Source, e.Target, err)
			}
		}

		for _, a := range rec.Aliases {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO aliases (document_id, alias, canonical) VALUES (?, ?, ?)",
				doc.ID, a.Alias, a.Canonical); err != nil {
				return fmt.Errorf("inserting alias %q: %w", a.Alias, err)
			}
		}
		return nil
	})
}

// deleteGraphRows removes the nodes, edges, aliases and vectors of a document.
func deleteGraphRows(ctx context.Context, tx *sql.Tx, docID string) error {
	stmts := []string{
		"DELETE FROM vec_nodes WHERE node_id IN (SELECT id FROM nodes WHERE document_id = ?)",
		"DELETE FROM edges WHERE document_id = ?",
		"DELETE FROM aliases WHERE document_id = ?",
		"DELETE FROM nodes WHERE document_id = ?",
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, docID); err != nil {
			return fmt.Errorf("clearing document %s: %w", docID, err)
		}
	}
	return nil
}

// LoadGraph returns the stored graph of a document. It returns
// sql.ErrNoRows when the document does not exist.
func (s *Store) LoadGraph(ctx context.Context, docID string) (*GraphRecord, error) {
	doc, err := s.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	rec := &GraphRecord{Document: *doc}

	nodeRows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, name, label, node_type, description, properties, degree, original
		FROM nodes WHERE document_id = ? ORDER BY position
	`, docID)
	if err != nil {
		return nil, err
	}
	defer nodeRows.Close()
	for nodeRows.Next() {
		var n Node
		var desc, props, orig sql.NullString
		if err := nodeRows.Scan(&n.ID, &n.DocumentID, &n.Name, &n.Label, &n.NodeType,
			&desc, &props, &n.Degree, &orig); err != nil {
			return nil, err
		}
		n.Description, n.Properties, n.Original = desc.String, props.String, orig.String
		rec.Nodes = append(rec.Nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, source, target, label, weight, original
		FROM edges WHERE document_id = ? ORDER BY position
	`, docID)
	if err != nil {
		return nil, err
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e Edge
		var orig sql.NullString
		if err := edgeRows.Scan(&e.ID, &e.DocumentID, &e.Source, &e.Target,
			&e.Label, &e.Weight, &orig); err != nil {
			return nil, err
		}
		e.Original = orig.String
		rec.Edges = append(rec.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	aliasRows, err := s.db.QueryContext(ctx,
		"SELECT alias, canonical FROM aliases WHERE document_id = ? ORDER BY alias", docID)
	if err != nil {
		return nil, err
	}
	defer aliasRows.Close()
	for aliasRows.Next() {
		var a Alias
		if err := aliasRows.Scan(&a.Alias, &a.Canonical); err != nil {
			return nil, err
		}
		rec.Aliases = append(rec.Aliases, a)
	}
	return rec, aliasRows.Err()
}

// --- Document operations ---

const documentColumns = `
	d.id, d.name, d.format, d.source, d.content_hash, d.stats, d.metadata,
	(SELECT COUNT(*) FROM nodes n WHERE n.document_id = d.id),
	(SELECT COUNT(*) FROM edges e WHERE e.document_id = d.id),
	d.created_at, d.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	d := &Document{}
	var stats, metadata sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &d.Format, &d.Source, &d.ContentHash,
		&stats, &metadata, &d.NodeCount, &d.EdgeCount,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Stats, d.Metadata = stats.String, metadata.String
	return d, nil
}

// GetDocument retrieves a document by ID. It returns sql.ErrNoRows when
// the document does not exist.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx,
		"SELECT"+documentColumns+" FROM documents d WHERE d.id = ?", id))
}

// ListDocuments returns all documents, most recently updated first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+documentColumns+" FROM documents d ORDER BY d.updated_at DESC, d.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and everything stored for it. It
// returns sql.ErrNoRows when the document does not exist.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteGraphRows(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// --- Vector operations ---

// SimilarNodes returns the k stored nodes whose names are closest to name
// across all documents. Score is the cosine similarity of the name vectors.
func (s *Store) SimilarNodes(ctx context.Context, name string, k int) ([]SimilarNode, error) {
	if k <= 0 {
		return nil, nil
	}
	query := NameVector(name, s.embeddingDim)
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.distance, n.document_id, n.name, n.node_type, n.degree
		FROM vec_nodes v
		JOIN nodes n ON n.id = v.node_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SimilarNode
	for rows.Next() {
		var r SimilarNode
		var distance float64
		if err := rows.Scan(&distance, &r.DocumentID, &r.Name, &r.NodeType, &r.Degree); err != nil {
			return nil, err
		}
		// Unit vectors: squared L2 distance = 2 - 2cos.
		r.Score = 1.0 - distance*distance/2
		results = append(results, r)
	}
	return results, rows.Err()
}

// DBStats holds row counts for health reporting.
type DBStats struct {
	Documents int `json:"documents"`
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
	Aliases   int `json:"aliases"`
	Vectors   int `json:"vectors"`
}

// DBStats returns counts of documents, nodes, edges, aliases and vectors.
func (s *Store) DBStats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM nodes", &stats.Nodes},
		{"SELECT COUNT(*) FROM edges", &stats.Edges},
		{"SELECT COUNT(*) FROM aliases", &stats.Aliases},
		{"SELECT COUNT(*) FROM vec_nodes", &stats.Vectors},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// nullJSON stores empty JSON text as NULL.
func nullJSON(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
