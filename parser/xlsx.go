package parser

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/kgnorm/graph"
)

// XLSXParser reads a workbook with a nodes sheet and an edges sheet. The
// first row of each sheet is the header; header cells use the same field
// names as the JSON adapter.
type XLSXParser struct{}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx"} }

func (p *XLSXParser) Parse(ctx context.Context, r io.Reader) (*graph.RawGraph, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	g := &graph.RawGraph{}
	found := false

	for _, sheet := range f.GetSheetList() {
		name := strings.ToLower(strings.TrimSpace(sheet))
		isNodes := slices.Contains(nodeContainers, name)
		isEdges := slices.Contains(edgeContainers, name)
		if !isNodes && !isEdges {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		found = true

		for _, fields := range sheetRecords(rows) {
			if isNodes {
				g.Nodes = append(g.Nodes, adaptNode(fields))
			} else {
				g.Edges = append(g.Edges, adaptEdge(fields))
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("no nodes or edges sheet found in XLSX")
	}
	return g, nil
}

// sheetRecords turns rows into header-keyed records, skipping blank rows.
func sheetRecords(rows [][]string) []map[string]any {
	if len(rows) < 2 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var out []map[string]any
	for _, row := range rows[1:] {
		fields := make(map[string]any, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				fields[header[i]] = cell
			}
		}
		if len(fields) > 0 {
			out = append(out, fields)
		}
	}
	return out
}
