package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/kgnorm/graph"
	"github.com/brunobiangulo/kgnorm/parser"
)

func sampleGraph() *graph.Graph {
	raw := &graph.RawGraph{
		Nodes: []graph.RawNode{
			{ID: "穷爸爸富爸爸", Type: "Book", Properties: map[string]any{"isbn": "978"}},
			{ID: "穷爸爸富爸爸这本书"},
			{ID: "李笑来"},
			{ID: "复利", Description: "利滚利"},
		},
		Edges: []graph.RawEdge{
			{Source: "李笑来", Target: "穷爸爸富爸爸这本书", Label: "撰写"},
			{Source: "李笑来", Target: "复利", Label: "强调", Weight: 2},
		},
	}
	return graph.NewNormalizer(graph.DefaultConfig()).NormalizeGraph(raw)
}

func TestWriteXLSXSheets(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, g))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetNodes, SheetEdges, SheetAliases, SheetComponents, SheetStats}, f.GetSheetList())

	nodes, err := f.GetRows(SheetNodes)
	require.NoError(t, err)
	require.Len(t, nodes, len(g.Nodes)+1)
	assert.Equal(t, "id", nodes[0][0])

	aliases, err := f.GetRows(SheetAliases)
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, []string{"穷爸爸富爸爸这本书", "穷爸爸富爸爸"}, aliases[1])

	components, err := f.GetRows(SheetComponents)
	require.NoError(t, err)
	require.Len(t, components, 2)
	assert.Equal(t, "3", components[1][1])

	stats, err := f.GetRows(SheetStats)
	require.NoError(t, err)
	assert.Equal(t, []string{"originalNodes", "4"}, stats[1])
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, g))

	raw, err := (&parser.XLSXParser{}).Parse(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, raw.Nodes, len(g.Nodes))
	require.Len(t, raw.Edges, len(g.Edges))

	again := graph.NewNormalizer(graph.DefaultConfig()).NormalizeGraph(raw)
	require.Len(t, again.Nodes, len(g.Nodes))
	for i := range g.Nodes {
		assert.Equal(t, g.Nodes[i].ID, again.Nodes[i].ID)
		assert.Equal(t, g.Nodes[i].Type, again.Nodes[i].Type)
	}
	book, ok := again.NodeByID("穷爸爸富爸爸")
	require.True(t, ok)
	assert.Equal(t, "978", book.Properties["isbn"])
	for i := range g.Edges {
		assert.Equal(t, g.Edges[i].Label, again.Edges[i].Label)
		assert.Equal(t, g.Edges[i].Weight, again.Edges[i].Weight)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))
	assert.Positive(t, buf.Len())
}
