package kgnorm

import (
	"testing"

	"github.com/brunobiangulo/kgnorm/graph"
)

func TestRecordRoundTrip(t *testing.T) {
	g := graph.NewNormalizer(graph.DefaultConfig()).NormalizeGraph(&graph.RawGraph{
		Nodes: []graph.RawNode{
			{ID: "穷爸爸富爸爸", Type: "Book"},
			{ID: "《穷爸爸富爸爸这本书》", Properties: map[string]any{"pages": 320}},
			{ID: "李笑来"},
		},
		Edges: []graph.RawEdge{{Source: "李笑来", Target: "穷爸爸富爸爸", Label: "撰写", Weight: 2}},
	})

	opts := &ingestOptions{name: "x.json", format: "json", metadata: map[string]string{"k": "v"}}
	rec, err := toRecord("doc", "hash", opts, g)
	if err != nil {
		t.Fatalf("toRecord: %v", err)
	}
	if rec.Document.ID != "doc" || rec.Document.ContentHash != "hash" || rec.Document.Metadata != `{"k":"v"}` {
		t.Errorf("unexpected document row: %+v", rec.Document)
	}
	if len(rec.Aliases) != 1 {
		t.Fatalf("expected 1 alias row, got %d", len(rec.Aliases))
	}

	back := fromRecord(&rec)
	if len(back.Nodes) != len(g.Nodes) || len(back.Edges) != len(g.Edges) {
		t.Fatalf("round trip lost rows: %d/%d", len(back.Nodes), len(back.Edges))
	}
	if back.Stats != g.Stats {
		t.Errorf("stats = %+v, want %+v", back.Stats, g.Stats)
	}
	book, _ := back.NodeByID("穷爸爸富爸爸")
	// JSON numbers come back as float64.
	if book == nil || book.Properties["pages"] != float64(320) {
		t.Errorf("properties not restored: %+v", book)
	}
	if back.Edges[0].Weight != 2 || back.Edges[0].Original == nil {
		t.Errorf("edge not restored: %+v", back.Edges[0])
	}
	if back.Aliases["穷爸爸富爸爸这本书"] != "穷爸爸富爸爸" {
		t.Errorf("aliases = %v", back.Aliases)
	}
}

func TestEncodeJSONEmpty(t *testing.T) {
	for _, v := range []any{map[string]any{}, (*graph.RawNode)(nil), (*graph.RawEdge)(nil)} {
		s, err := encodeJSON(v)
		if err != nil || s != "" {
			t.Errorf("encodeJSON(%#v) = %q, %v; want empty", v, s, err)
		}
	}
}

func TestDecodeJSONTolerant(t *testing.T) {
	var m map[string]any
	decodeJSON("not json", &m)
	if m != nil {
		t.Errorf("expected nil map after bad input, got %v", m)
	}
	if st := decodeStats(""); st != (graph.Stats{}) {
		t.Errorf("empty stats text should decode to zero stats: %+v", st)
	}
}
