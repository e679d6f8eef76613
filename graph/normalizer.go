package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalizer turns raw graph snapshots into canonical graphs. It holds only
// immutable configuration, so one instance may serve concurrent calls.
type Normalizer struct {
	cfg Config
	cls *classifier
	rel *canonicalizer
}

// NewNormalizer creates a Normalizer. Zero-valued fields of cfg take the
// values of DefaultConfig.
func NewNormalizer(cfg Config) *Normalizer {
	cfg = cfg.withDefaults()
	return &Normalizer{
		cfg: cfg,
		cls: newClassifier(cfg),
		rel: newCanonicalizer(cfg),
	}
}

// Config returns the effective configuration.
func (n *Normalizer) Config() Config {
	return n.cfg
}

// NormalizeName canonicalizes a name with the configured length limit.
func (n *Normalizer) NormalizeName(raw string) string {
	return NormalizeName(raw, n.cfg.MaxNodeNameLength)
}

// InferType returns the semantic type of a raw node. The display label is
// classified when present, since ids may be opaque.
func (n *Normalizer) InferType(raw RawNode) string {
	name := raw.Label
	if strings.TrimSpace(name) == "" {
		name = raw.ID
	}
	return n.cls.infer(raw.Type, n.NormalizeName(name), raw.Description)
}

// CanonicalizeRelation maps a relation phrase onto the canonical vocabulary.
func (n *Normalizer) CanonicalizeRelation(phrase string) string {
	return n.rel.canonicalize(phrase)
}

// ExtractProperties shortens the node description and extracts its values.
func (n *Normalizer) ExtractProperties(raw RawNode) (string, map[string]any) {
	return ExtractProperties(raw.Description, raw.Properties, n.cfg.DescriptionThreshold)
}

// NormalizeNode builds the normalized record of one raw node. The raw degree
// is carried over until the assembler recomputes it.
func (n *Normalizer) NormalizeNode(raw RawNode) Node {
	id := n.NormalizeName(raw.Name())
	desc, props := n.ExtractProperties(raw)
	orig := raw
	return Node{
		ID:          id,
		Label:       id,
		Type:        n.InferType(raw),
		Description: desc,
		Properties:  props,
		Degree:      max(raw.Degree, 0),
		Original:    &orig,
	}
}

// NormalizeEdge normalizes both endpoints, rewrites them through aliases and
// canonicalizes the relation label. It does not validate the result.
func (n *Normalizer) NormalizeEdge(raw RawEdge, aliases AliasTable) Edge {
	source := aliases.Resolve(n.NormalizeName(raw.Source))
	target := aliases.Resolve(n.NormalizeName(raw.Target))
	orig := raw
	return Edge{
		Source:   source,
		Target:   target,
		Label:    n.CanonicalizeRelation(relationPhrase(raw, n.cfg.FallbackRelation)),
		Weight:   edgeWeight(raw),
		Original: &orig,
	}
}

// NormalizeGraph runs the full pipeline over one raw graph. It never fails:
// a nil or empty input yields an empty graph with zero stats.
func (n *Normalizer) NormalizeGraph(raw *RawGraph) *Graph {
	out := &Graph{
		Nodes:   []Node{},
		Edges:   []Edge{},
		Aliases: AliasTable{},
	}
	if raw == nil || (len(raw.Nodes) == 0 && len(raw.Edges) == 0) {
		return out
	}
	out.Stats.OriginalNodes = len(raw.Nodes)
	out.Stats.OriginalEdges = len(raw.Edges)

	normalized := make([]Node, 0, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		node := n.NormalizeNode(rn)
		if node.ID == "" || (n.cfg.FilterEntities && ShouldFilterEntity(node.ID)) {
			out.Stats.FilteredNodes++
			continue
		}
		normalized = append(normalized, node)
	}

	nodes, aliases := MergeDuplicates(normalized, n.cfg.BlockingThreshold)
	aliases.Flatten()

	index := make(map[string]int, len(nodes))
	for i := range nodes {
		nodes[i].Degree = 0
		index[nodes[i].ID] = i
	}

	edges := make([]Edge, 0, len(raw.Edges))
	for _, re := range raw.Edges {
		e := n.NormalizeEdge(re, aliases)
		if e.Source == "" || e.Target == "" {
			continue
		}
		if e.Source == e.Target {
			out.Stats.SelfLoops++
			continue
		}
		si, okS := index[e.Source]
		ti, okT := index[e.Target]
		if !okS || !okT {
			out.Stats.Dangling++
			continue
		}
		nodes[si].Degree++
		nodes[ti].Degree++
		edges = append(edges, e)
	}

	out.Nodes = nodes
	out.Edges = edges
	out.Aliases = aliases
	out.Stats.NormalizedNodes = len(nodes)
	out.Stats.NormalizedEdges = len(edges)
	out.Stats.Aliases = len(aliases)
	return out
}

// relationPhrase picks the first non-empty of label, description property
// and description.
func relationPhrase(e RawEdge, fallback string) string {
	if s := strings.TrimSpace(e.Label); s != "" {
		return s
	}
	if s, ok := e.Properties["description"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if s := strings.TrimSpace(e.Description); s != "" {
		return s
	}
	return fallback
}

// edgeWeight returns the positive weight of e, defaulting to 1.
func edgeWeight(e RawEdge) float64 {
	if e.Weight > 0 {
		return e.Weight
	}
	if w, ok := toFloat(e.Properties["weight"]); ok && w > 0 {
		return w
	}
	return 1
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case fmt.Stringer:
		f, err := strconv.ParseFloat(strings.TrimSpace(t.String()), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
