package parser

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryBuiltInParsers(t *testing.T) {
	reg := NewRegistry()

	formats := []struct {
		format     string
		wantParser string
	}{
		{"json", "*parser.JSONParser"},
		{"JSON", "*parser.JSONParser"},
		{"xlsx", "*parser.XLSXParser"},
	}

	for _, tt := range formats {
		t.Run(tt.format, func(t *testing.T) {
			p, err := reg.Get(tt.format)
			if err != nil {
				t.Fatalf("Get(%q) returned error: %v", tt.format, err)
			}
			if p == nil {
				t.Fatalf("Get(%q) returned nil parser", tt.format)
			}
			found := false
			for _, f := range p.SupportedFormats() {
				if f == strings.ToLower(tt.format) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("parser for %q does not list it in SupportedFormats(): %v",
					tt.format, p.SupportedFormats())
			}
		})
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry()
	for _, format := range []string{"pdf", "csv", "txt", ""} {
		t.Run("format_"+format, func(t *testing.T) {
			if p, err := reg.Get(format); err == nil {
				t.Errorf("Get(%q) expected error, got parser: %v", format, p)
			}
		})
	}
}

func TestRegistryFormats(t *testing.T) {
	got := NewRegistry().Formats()
	if strings.Join(got, ",") != "json,xlsx" {
		t.Errorf("Formats() = %v, want [json xlsx]", got)
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("NDJSON", &JSONParser{})
	p, err := reg.Get("ndjson")
	if err != nil {
		t.Fatalf("Get after Register: %v", err)
	}
	if _, ok := p.(*JSONParser); !ok {
		t.Errorf("expected *JSONParser, got %T", p)
	}
	if strings.Join(reg.Formats(), ",") != "json,ndjson,xlsx" {
		t.Errorf("Formats() = %v", reg.Formats())
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"graph.json":         "json",
		"/tmp/Extract.XLSX":  "xlsx",
		"noext":              "",
		"archive.tar.gz":     "gz",
		"dir.v2/graph.jsonl": "jsonl",
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// JSON adapter
// ---------------------------------------------------------------------------

func TestJSONParserCanonicalShape(t *testing.T) {
	input := `{
		"nodes": [
			{"id": "李笑来", "label": "李笑来", "type": "Person", "description": "作者", "degree": 3,
			 "properties": {"source": "chunk-1"}}
		],
		"edges": [
			{"source": "李笑来", "target": "财富自由之路", "label": "编写", "weight": 2.5}
		]
	}`

	g, err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Nodes) != 1 || len(g.Edges) != 1 {
		t.Fatalf("got %d nodes, %d edges; want 1, 1", len(g.Nodes), len(g.Edges))
	}

	n := g.Nodes[0]
	if n.ID != "李笑来" || n.Type != "Person" || n.Description != "作者" || n.Degree != 3 {
		t.Errorf("unexpected node: %+v", n)
	}
	if n.Properties["source"] != "chunk-1" {
		t.Errorf("properties not carried: %v", n.Properties)
	}

	e := g.Edges[0]
	if e.Source != "李笑来" || e.Target != "财富自由之路" || e.Label != "编写" || e.Weight != 2.5 {
		t.Errorf("unexpected edge: %+v", e)
	}
}

func TestJSONParserSynonyms(t *testing.T) {
	input := `{
		"entities": [
			{"entity_name": "\"INDEX FUND\"", "entity_type": "concept", "desc": "低成本", "source_id": "c-9"},
			{"name": "复利"}
		],
		"relationships": [
			{"src_id": "\"INDEX FUND\"", "tgt_id": "复利", "keywords": "depends on", "weight": "1.5"},
			{"from": "复利", "to": "INDEX FUND", "relation": "包含"}
		]
	}`

	g, err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges; want 2, 2", len(g.Nodes), len(g.Edges))
	}

	n := g.Nodes[0]
	if n.ID != `"INDEX FUND"` || n.Type != "concept" || n.Description != "低成本" {
		t.Errorf("unexpected node: %+v", n)
	}
	if n.Properties["source_id"] != "c-9" {
		t.Errorf("unknown field should be kept as property: %v", n.Properties)
	}
	if g.Nodes[1].ID != "复利" || g.Nodes[1].Label != "复利" {
		t.Errorf("name should fill id and label: %+v", g.Nodes[1])
	}

	if e := g.Edges[0]; e.Source != `"INDEX FUND"` || e.Target != "复利" || e.Label != "depends on" || e.Weight != 1.5 {
		t.Errorf("unexpected edge: %+v", e)
	}
	if e := g.Edges[1]; e.Source != "复利" || e.Label != "包含" || e.Weight != 0 {
		t.Errorf("unexpected edge: %+v", e)
	}
}

func TestJSONParserErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":         `{"nodes": [`,
		"container type":    `{"nodes": {"id": "x"}}`,
		"element type":      `{"edges": ["a->b"]}`,
		"not an object doc": `[1, 2]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(input)); err == nil {
				t.Errorf("expected error for %s", input)
			}
		})
	}
}

func TestJSONParserEmpty(t *testing.T) {
	g, err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
}

// ---------------------------------------------------------------------------
// XLSX adapter
// ---------------------------------------------------------------------------

func buildWorkbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("renaming sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("adding sheet: %v", err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("writing row: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	return buf
}

func TestXLSXParser(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]any{
		"Nodes": {
			{"Entity_Name", "Entity_Type", "Description", "Page"},
			{"李笑来", "Person", "作者", "12"},
			{},
			{"财富自由之路", "Book", "", ""},
		},
		"Edges": {
			{"source", "target", "relation", "weight"},
			{"李笑来", "财富自由之路", "撰写", "2"},
		},
	})

	g, err := (&XLSXParser{}).Parse(context.Background(), buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(g.Nodes))
	}
	if n := g.Nodes[0]; n.ID != "李笑来" || n.Type != "Person" || n.Properties["page"] != "12" {
		t.Errorf("unexpected node: %+v", n)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(g.Edges))
	}
	if e := g.Edges[0]; e.Label != "撰写" || e.Weight != 2 {
		t.Errorf("unexpected edge: %+v", e)
	}
}

func TestXLSXParserMissingSheets(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]any{
		"Summary": {{"a", "b"}},
	})
	if _, err := (&XLSXParser{}).Parse(context.Background(), buf); err == nil {
		t.Error("expected error for workbook without nodes or edges sheet")
	}
}
