package graph

// Node type tags of the default taxonomy.
const (
	TypePerson   = "Person"
	TypeBook     = "Book"
	TypeConcept  = "Concept"
	TypeStrategy = "Strategy"
	TypeMetric   = "Metric"
	TypeExample  = "Example"
	TypeGroup    = "Group"
	TypeEntity   = "Entity"
)

// RelRelated is the label used when an edge carries no relation phrase.
const RelRelated = "相关"

// Property keys written by the property extractor.
const (
	PropNumbers = "numbers"
	PropTimes   = "times"
)

// RawNode is an upstream entity record after field-name adaptation.
// ID may be empty, in which case Label is used as the identifier.
type RawNode struct {
	ID          string         `json:"id,omitempty"`
	Label       string         `json:"label,omitempty"`
	Type        string         `json:"type,omitempty"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Degree      int            `json:"degree,omitempty"`
}

// Name returns the identifier the pipeline normalizes: ID, or Label when ID is empty.
func (n RawNode) Name() string {
	if n.ID != "" {
		return n.ID
	}
	return n.Label
}

// RawEdge is an upstream relation record after field-name adaptation.
type RawEdge struct {
	Source      string         `json:"source"`
	Target      string         `json:"target"`
	Label       string         `json:"label,omitempty"`
	Description string         `json:"description,omitempty"`
	Weight      float64        `json:"weight,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// RawGraph is one snapshot handed to the pipeline.
type RawGraph struct {
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"edges"`
}

// Node is a canonical node. Label always equals ID.
type Node struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
	Degree      int            `json:"degree"`
	Original    *RawNode       `json:"original,omitempty"`
}

// Edge is a canonical edge between two canonical node ids.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Label    string   `json:"label"`
	Weight   float64  `json:"weight"`
	Original *RawEdge `json:"original,omitempty"`
}

// Stats reports raw versus normalized counts for one run.
type Stats struct {
	OriginalNodes   int `json:"originalNodes"`
	NormalizedNodes int `json:"normalizedNodes"`
	OriginalEdges   int `json:"originalEdges"`
	NormalizedEdges int `json:"normalizedEdges"`

	FilteredNodes int `json:"filteredNodes,omitempty"`
	SelfLoops     int `json:"selfLoops,omitempty"`
	Dangling      int `json:"dangling,omitempty"`
	Aliases       int `json:"aliases,omitempty"`
}

// Graph is the canonical output of NormalizeGraph.
type Graph struct {
	Nodes   []Node     `json:"nodes"`
	Edges   []Edge     `json:"edges"`
	Aliases AliasTable `json:"aliases,omitempty"`
	Stats   Stats      `json:"stats"`
}

// NodeByID returns the canonical node with the given id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}
