// Package export renders canonical graphs as XLSX workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/kgnorm/graph"
)

// Sheet names. Nodes and Edges are readable by parser.XLSXParser.
const (
	SheetNodes      = "Nodes"
	SheetEdges      = "Edges"
	SheetAliases    = "Aliases"
	SheetComponents = "Components"
	SheetStats      = "Stats"
)

var (
	nodeHeader      = []any{"id", "label", "type", "description", "degree", "properties"}
	edgeHeader      = []any{"source", "target", "label", "weight"}
	aliasHeader     = []any{"alias", "canonical"}
	componentHeader = []any{"component", "size", "edges", "weight", "members"}
	statsHeader     = []any{"metric", "value"}
)

// WriteXLSX writes g as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, g *graph.Graph) error {
	if g == nil {
		g = &graph.Graph{}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetNodes); err != nil {
		return fmt.Errorf("export: naming sheet: %w", err)
	}
	for _, name := range []string{SheetEdges, SheetAliases, SheetComponents, SheetStats} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export: creating sheet %s: %w", name, err)
		}
	}

	nodes := make([][]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, []any{n.ID, n.Label, n.Type, n.Description, n.Degree, encodeProps(n.Properties)})
	}
	edges := make([][]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, []any{e.Source, e.Target, e.Label, e.Weight})
	}

	aliasNames := make([]string, 0, len(g.Aliases))
	for a := range g.Aliases {
		aliasNames = append(aliasNames, a)
	}
	sort.Strings(aliasNames)
	aliases := make([][]any, 0, len(aliasNames))
	for _, a := range aliasNames {
		aliases = append(aliases, []any{a, g.Aliases[a]})
	}

	var components [][]any
	for i, c := range graph.Components(g) {
		components = append(components, []any{i + 1, len(c.NodeIDs), c.Edges, c.Weight, strings.Join(c.NodeIDs, ", ")})
	}

	s := g.Stats
	stats := [][]any{
		{"originalNodes", s.OriginalNodes},
		{"normalizedNodes", s.NormalizedNodes},
		{"originalEdges", s.OriginalEdges},
		{"normalizedEdges", s.NormalizedEdges},
		{"filteredNodes", s.FilteredNodes},
		{"selfLoops", s.SelfLoops},
		{"dangling", s.Dangling},
		{"aliases", s.Aliases},
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetNodes, nodeHeader, nodes},
		{SheetEdges, edgeHeader, edges},
		{SheetAliases, aliasHeader, aliases},
		{SheetComponents, componentHeader, components},
		{SheetStats, statsHeader, stats},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.header, sh.rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("export: stream writer for %s: %w", sheet, err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export: %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export: %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flushing %s: %w", sheet, err)
	}
	return nil
}

func encodeProps(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	b, err := json.Marshal(props)
	if err != nil {
		return ""
	}
	return string(b)
}
