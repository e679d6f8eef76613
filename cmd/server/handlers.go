package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brunobiangulo/kgnorm"
	"github.com/brunobiangulo/kgnorm/graph"
	"github.com/brunobiangulo/kgnorm/parser"
)

// maxBodyBytes bounds uploaded extracts.
const maxBodyBytes = 100 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handler struct {
	engine kgnorm.Engine
	cache  *lru.Cache[string, []byte] // nil disables /normalize caching
}

func newHandler(e kgnorm.Engine, cacheSize int) (*handler, error) {
	h := &handler{engine: e}
	if cacheSize > 0 {
		c, err := lru.New[string, []byte](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating response cache: %w", err)
		}
		h.cache = c
	}
	return h, nil
}

// upload is one graph extract read from a request.
type upload struct {
	data   []byte
	format string
	name   string
	fields map[string]string // multipart form values
}

// readUpload accepts either a multipart form with a "file" part or a raw
// body. The format comes from the "format" query parameter, then the file
// extension, then the content type, defaulting to json.
func readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	u := &upload{fields: map[string]string{}}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("invalid multipart form: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()
		if u.data, err = io.ReadAll(file); err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		// Sanitise filename to prevent path traversal.
		u.name = filepath.Base(header.Filename)
		u.format = parser.FormatFromPath(u.name)
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				u.fields[k] = v[0]
			}
		}
	} else {
		var err error
		if u.data, err = io.ReadAll(r.Body); err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		if r.Header.Get("Content-Type") == xlsxContentType {
			u.format = "xlsx"
		}
	}

	if f := r.URL.Query().Get("format"); f != "" {
		u.format = strings.ToLower(f)
	}
	if u.format == "" {
		u.format = "json"
	}
	return u, nil
}

// POST /normalize
// Normalizes an extract without storing it. Responses are cached by the
// SHA-256 of format and body.
func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	u, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum := sha256.Sum256(append([]byte(u.format+"\x00"), u.data...))
	key := hex.EncodeToString(sum[:])
	if h.cache != nil {
		if body, ok := h.cache.Get(key); ok {
			w.Header().Set("X-Cache", "HIT")
			writeRawJSON(w, http.StatusOK, body)
			return
		}
	}

	raw, err := h.engine.Parse(ctx, bytes.NewReader(u.data), u.format)
	if err != nil {
		writeEngineError(w, "normalize", err)
		return
	}
	g := h.engine.Normalize(raw)

	body, err := json.Marshal(g)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding graph failed")
		slog.Error("normalize: encoding graph", "error", err)
		return
	}
	if h.cache != nil {
		h.cache.Add(key, body)
	}
	w.Header().Set("X-Cache", "MISS")
	writeRawJSON(w, http.StatusOK, body)
}

// POST /documents
// Accepts a multipart upload (file plus optional id, name, force fields) or
// a JSON body {"id", "name", "format", "force", "graph"}.
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	var (
		id, name, format string
		force            bool
		data             []byte
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		u, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, name, format, data = u.fields["id"], u.name, u.format, u.data
		if v := u.fields["name"]; v != "" {
			name = v
		}
		force, _ = strconv.ParseBool(u.fields["force"])
	} else {
		var req struct {
			ID     string          `json:"id"`
			Name   string          `json:"name"`
			Format string          `json:"format"`
			Force  bool            `json:"force"`
			Graph  json.RawMessage `json:"graph"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'graph'")
			return
		}
		if len(req.Graph) == 0 {
			writeError(w, http.StatusBadRequest, "graph is required")
			return
		}
		id, name, format, force, data = req.ID, req.Name, "json", req.Force, req.Graph
		if req.Format != "" && req.Format != "json" {
			writeError(w, http.StatusBadRequest, "inline graphs must be JSON")
			return
		}
	}

	if id == "" {
		id = uuid.NewString()
	}

	raw, err := h.engine.Parse(ctx, bytes.NewReader(data), format)
	if err != nil {
		writeEngineError(w, "ingest", err)
		return
	}

	opts := []kgnorm.IngestOption{
		kgnorm.WithName(name),
		kgnorm.WithFormat(format),
		kgnorm.WithSource("api"),
	}
	if force {
		opts = append(opts, kgnorm.WithForce())
	}

	res, err := h.engine.Ingest(ctx, id, raw, opts...)
	if err != nil {
		writeEngineError(w, "ingest", err)
		return
	}

	status := http.StatusCreated
	if res.Skipped {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// GET /documents
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.ListDocuments(r.Context())
	if err != nil {
		writeEngineError(w, "list documents", err)
		return
	}
	if docs == nil {
		docs = []kgnorm.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
	})
}

// GET /documents/{id}
// Optional focus (comma-separated names) and depth parameters restrict the
// response to the neighbourhood of the focus nodes.
func (h *handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g, err := h.engine.Load(r.Context(), id)
	if err != nil {
		writeEngineError(w, "load document", err)
		return
	}

	if focus := r.URL.Query().Get("focus"); focus != "" {
		depth := 1
		if v := r.URL.Query().Get("depth"); v != "" {
			d, err := strconv.Atoi(v)
			if err != nil || d < 0 || d > 10 {
				writeError(w, http.StatusBadRequest, "depth must be between 0 and 10")
				return
			}
			depth = d
		}
		g = graph.Subgraph(g, strings.Split(focus, ","), depth)
	}

	writeJSON(w, http.StatusOK, g)
}

// DELETE /documents/{id}
func (h *handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.engine.Delete(r.Context(), id); err != nil {
		writeEngineError(w, "delete document", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /documents/{id}/export
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Buffer the workbook so a failure can still produce an error status.
	var buf bytes.Buffer
	if err := h.engine.Export(r.Context(), id, &buf); err != nil {
		writeEngineError(w, "export document", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GET /nodes/similar?name=...&k=...
func (h *handler) handleSimilarNodes(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "k must be between 1 and 100")
			return
		}
		k = n
	}

	hits, err := h.engine.SimilarNodes(r.Context(), name, k)
	if err != nil {
		writeEngineError(w, "similar nodes", err)
		return
	}
	if hits == nil {
		hits = []kgnorm.SimilarNode{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "nodes": hits})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.cache != nil {
		resp["cache_entries"] = h.cache.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, kgnorm.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, kgnorm.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, kgnorm.ErrParsingFailed), errors.Is(err, kgnorm.ErrInvalidGraph):
		return http.StatusBadRequest
	case errors.Is(err, kgnorm.ErrStoreClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" error", "error", err)
		writeError(w, status, op+" failed")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
