package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/brunobiangulo/kgnorm/graph"
)

// Field synonyms accepted from upstream extractors, in precedence order.
var (
	nodeIDKeys    = []string{"id", "entity_id", "entity_name", "name"}
	nodeLabelKeys = []string{"label", "name"}
	nodeTypeKeys  = []string{"type", "entity_type", "category"}
	descKeys      = []string{"description", "desc"}
	degreeKeys    = []string{"degree"}

	edgeSourceKeys = []string{"source", "src_id", "from", "src"}
	edgeTargetKeys = []string{"target", "tgt_id", "to", "tgt"}
	edgeLabelKeys  = []string{"label", "relation", "relation_type", "keywords"}
	weightKeys     = []string{"weight"}

	nodeContainers = []string{"nodes", "entities"}
	edgeContainers = []string{"edges", "relations", "relationships"}
)

const propertiesKey = "properties"

// record is one upstream object with its consumed keys tracked, so the
// leftovers can be kept as properties.
type record struct {
	fields map[string]any
	used   map[string]bool
}

func newRecord(fields map[string]any) *record {
	return &record{fields: fields, used: map[string]bool{propertiesKey: true}}
}

// str returns the first non-empty value among keys as a string.
func (r *record) str(keys []string) string {
	for _, k := range keys {
		v, ok := r.fields[k]
		if !ok || v == nil {
			continue
		}
		r.used[k] = true
		if s := strings.TrimSpace(stringify(v)); s != "" {
			return s
		}
	}
	return ""
}

func (r *record) number(keys []string) float64 {
	for _, k := range keys {
		v, ok := r.fields[k]
		if !ok || v == nil {
			continue
		}
		r.used[k] = true
		if f, err := strconv.ParseFloat(strings.TrimSpace(stringify(v)), 64); err == nil {
			return f
		}
	}
	return 0
}

// properties merges the explicit properties object with unconsumed fields.
// Explicit properties win on conflict.
func (r *record) properties() map[string]any {
	props := make(map[string]any)
	for k, v := range r.fields {
		if !r.used[k] && v != nil && k != "" {
			props[k] = v
		}
	}
	for k, v := range explicitProperties(r.fields[propertiesKey]) {
		props[k] = v
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// explicitProperties accepts a properties object or, as written by the XLSX
// exporter, its JSON encoding.
func explicitProperties(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case string:
		var m map[string]any
		if json.Unmarshal([]byte(t), &m) == nil {
			return m
		}
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool, int, int64:
		return fmt.Sprint(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

// adaptNode maps one upstream entity object onto RawNode.
func adaptNode(fields map[string]any) graph.RawNode {
	r := newRecord(fields)
	n := graph.RawNode{
		ID:          r.str(nodeIDKeys),
		Label:       r.str(nodeLabelKeys),
		Type:        r.str(nodeTypeKeys),
		Description: r.str(descKeys),
		Degree:      int(r.number(degreeKeys)),
	}
	n.Properties = r.properties()
	return n
}

// adaptEdge maps one upstream relation object onto RawEdge.
func adaptEdge(fields map[string]any) graph.RawEdge {
	r := newRecord(fields)
	e := graph.RawEdge{
		Source:      r.str(edgeSourceKeys),
		Target:      r.str(edgeTargetKeys),
		Label:       r.str(edgeLabelKeys),
		Description: r.str(descKeys),
		Weight:      r.number(weightKeys),
	}
	e.Properties = r.properties()
	return e
}
