package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/brunobiangulo/kgnorm/graph"
)

// JSONParser reads a graph extract encoded as one JSON object holding node
// and edge arrays under any of the accepted container names.
type JSONParser struct{}

func (p *JSONParser) SupportedFormats() []string { return []string{"json"} }

func (p *JSONParser) Parse(ctx context.Context, r io.Reader) (*graph.RawGraph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding JSON graph: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nodes, err := objects(doc, nodeContainers)
	if err != nil {
		return nil, err
	}
	edges, err := objects(doc, edgeContainers)
	if err != nil {
		return nil, err
	}

	g := &graph.RawGraph{
		Nodes: make([]graph.RawNode, 0, len(nodes)),
		Edges: make([]graph.RawEdge, 0, len(edges)),
	}
	for _, n := range nodes {
		g.Nodes = append(g.Nodes, adaptNode(n))
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, adaptEdge(e))
	}
	return g, nil
}

// objects returns the array stored under the first present container key.
// Elements that are not objects are rejected.
func objects(doc map[string]any, containers []string) ([]map[string]any, error) {
	for _, key := range containers {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("field %q: expected array, got %T", key, v)
		}
		out := make([]map[string]any, 0, len(arr))
		for i, item := range arr {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("field %q[%d]: expected object, got %T", key, i, item)
			}
			out = append(out, obj)
		}
		return out, nil
	}
	return nil, nil
}
