package kgnorm

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/brunobiangulo/kgnorm/graph"
	"github.com/brunobiangulo/kgnorm/store"
)

// toRecord flattens a canonical graph into store rows.
func toRecord(docID, hash string, opts *ingestOptions, g *graph.Graph) (store.GraphRecord, error) {
	stats, err := json.Marshal(g.Stats)
	if err != nil {
		return store.GraphRecord{}, err
	}
	var metadata string
	if len(opts.metadata) > 0 {
		data, err := json.Marshal(opts.metadata)
		if err != nil {
			return store.GraphRecord{}, err
		}
		metadata = string(data)
	}

	rec := store.GraphRecord{
		Document: store.Document{
			ID:          docID,
			Name:        opts.name,
			Format:      opts.format,
			Source:      opts.source,
			ContentHash: hash,
			Stats:       string(stats),
			Metadata:    metadata,
		},
		Nodes: make([]store.Node, 0, len(g.Nodes)),
		Edges: make([]store.Edge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		props, err := encodeJSON(n.Properties)
		if err != nil {
			return store.GraphRecord{}, err
		}
		orig, err := encodeJSON(n.Original)
		if err != nil {
			return store.GraphRecord{}, err
		}
		rec.Nodes = append(rec.Nodes, store.Node{
			Name:        n.ID,
			Label:       n.Label,
			NodeType:    n.Type,
			Description: n.Description,
			Properties:  props,
			Degree:      n.Degree,
			Original:    orig,
		})
	}
	for _, e := range g.Edges {
		orig, err := encodeJSON(e.Original)
		if err != nil {
			return store.GraphRecord{}, err
		}
		rec.Edges = append(rec.Edges, store.Edge{
			Source:   e.Source,
			Target:   e.Target,
			Label:    e.Label,
			Weight:   e.Weight,
			Original: orig,
		})
	}

	aliases := make([]string, 0, len(g.Aliases))
	for a := range g.Aliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	for _, a := range aliases {
		rec.Aliases = append(rec.Aliases, store.Alias{Alias: a, Canonical: g.Aliases[a]})
	}
	return rec, nil
}

// fromRecord rebuilds a canonical graph from store rows.
func fromRecord(rec *store.GraphRecord) *graph.Graph {
	g := &graph.Graph{
		Nodes:   make([]graph.Node, 0, len(rec.Nodes)),
		Edges:   make([]graph.Edge, 0, len(rec.Edges)),
		Aliases: make(graph.AliasTable, len(rec.Aliases)),
		Stats:   decodeStats(rec.Document.Stats),
	}
	for _, n := range rec.Nodes {
		node := graph.Node{
			ID:          n.Name,
			Label:       n.Label,
			Type:        n.NodeType,
			Description: n.Description,
			Properties:  map[string]any{},
			Degree:      n.Degree,
		}
		decodeJSON(n.Properties, &node.Properties)
		if n.Original != "" {
			node.Original = &graph.RawNode{}
			decodeJSON(n.Original, node.Original)
		}
		g.Nodes = append(g.Nodes, node)
	}
	for _, e := range rec.Edges {
		edge := graph.Edge{
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
			Weight: e.Weight,
		}
		if e.Original != "" {
			edge.Original = &graph.RawEdge{}
			decodeJSON(e.Original, edge.Original)
		}
		g.Edges = append(g.Edges, edge)
	}
	for _, a := range rec.Aliases {
		g.Aliases[a.Alias] = a.Canonical
	}
	return g
}

func toDocument(d store.Document) Document {
	doc := Document{
		ID:          d.ID,
		Name:        d.Name,
		Format:      d.Format,
		Source:      d.Source,
		ContentHash: d.ContentHash,
		Stats:       decodeStats(d.Stats),
		NodeCount:   d.NodeCount,
		EdgeCount:   d.EdgeCount,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	decodeJSON(d.Metadata, &doc.Metadata)
	return doc
}

func decodeStats(s string) graph.Stats {
	var st graph.Stats
	decodeJSON(s, &st)
	return st
}

// encodeJSON returns "" for nil pointers and empty maps.
func encodeJSON(v any) (string, error) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return "", nil
		}
	case *graph.RawNode:
		if t == nil {
			return "", nil
		}
	case *graph.RawEdge:
		if t == nil {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeJSON unmarshals stored JSON text, logging rows that fail to decode.
func decodeJSON(s string, v any) {
	if s == "" {
		return
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		slog.Warn("decoding stored JSON", "error", err)
	}
}
