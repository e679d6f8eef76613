package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/kgnorm/graph"
	"github.com/brunobiangulo/kgnorm/parser"
)

const extract = `{
  "nodes": [
    {"id": "穷爸爸富爸爸", "type": "Book"},
    {"id": "《穷爸爸富爸爸这本书》"},
    {"id": "李笑来", "type": "Person"}
  ],
  "edges": [
    {"source": "李笑来", "target": "《穷爸爸富爸爸这本书》", "label": "著作"}
  ]
}`

func writeExtract(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.json")
	require.NoError(t, os.WriteFile(path, []byte(extract), 0o644))
	return path
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Definition(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "kgnorm", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"normalize", "ingest", "documents", "show", "delete", "export", "similar"} {
		assert.Contains(t, names, want)
	}

	pf := root.PersistentFlags()
	require.NotNil(t, pf.Lookup("config"))
	require.NotNil(t, pf.Lookup("db"))
	assert.Equal(t, "v", pf.Lookup("verbose").Shorthand)
}

func TestNormalizeCmd_JSON(t *testing.T) {
	out, err := run(t, "", "normalize", writeExtract(t))
	require.NoError(t, err)

	var g graph.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "穷爸爸富爸爸", g.Edges[0].Target)
	assert.Equal(t, "穷爸爸富爸爸", g.Aliases["穷爸爸富爸爸这本书"])
}

func TestNormalizeCmd_Stdin(t *testing.T) {
	out, err := run(t, extract, "normalize", "-", "--stats")
	require.NoError(t, err)

	var st graph.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 3, st.OriginalNodes)
	assert.Equal(t, 2, st.NormalizedNodes)
}

func TestNormalizeCmd_XLSXOutput(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := run(t, "", "normalize", writeExtract(t), "-o", target)
	require.NoError(t, err)

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()

	raw, err := (&parser.XLSXParser{}).Parse(t.Context(), f)
	require.NoError(t, err)
	assert.Len(t, raw.Nodes, 2)
	assert.Len(t, raw.Edges, 1)
}

func TestNormalizeCmd_Errors(t *testing.T) {
	_, err := run(t, "", "normalize", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "", "normalize", writeExtract(t), "--format", "pdf")
	assert.Error(t, err)

	_, err = run(t, "", "normalize")
	assert.Error(t, err, "FILE argument is required")
}

func TestLoadConfig_DBOverride(t *testing.T) {
	opts := &globalOptions{dbPath: "/tmp/x.db"}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)

	cfgPath := filepath.Join(t.TempDir(), "kgnorm.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("embedding_dim: 32\n"), 0o644))
	opts = &globalOptions{configPath: cfgPath}
	cfg, err = opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.EmbeddingDim)
}
