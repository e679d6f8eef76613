package parser

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/brunobiangulo/kgnorm/graph"
)

// Parser turns one upstream graph extract into a raw graph snapshot.
// Field names are adapted to the fixed RawGraph shape; values are not
// normalized.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*graph.RawGraph, error)
	SupportedFormats() []string
}

// FormatFromPath returns the lower-cased file extension of path without
// the dot, e.g. "json" for "extract.JSON".
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
