package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/qerr"
)

const graphYAML = `
nodes:
  - id: 1
    labels: [Person]
    properties: {name: Alice, age: 30}
  - id: 2
    labels: [Person]
    properties: {name: Bob}
  - id: 3
    labels: [City]
    properties: {name: Oslo}
edges:
  - {id: 10, source: 1, target: 2, type: KNOWS}
  - {id: 11, source: 1, target: 3, type: LIVES_IN}
`

type cli struct {
	dataDir    string
	catalogDir string
}

func newCLI(t *testing.T) *cli {
	t.Setenv("GRAPHEXEC_IN_MEMORY", "false")
	t.Setenv("GRAPHEXEC_LOG_LEVEL", "error")
	t.Setenv("GRAPHEXEC_LOG_FORMAT", "text")
	dir := t.TempDir()
	return &cli{dataDir: filepath.Join(dir, "data"), catalogDir: filepath.Join(dir, "catalog")}
}

// run executes the root command and returns its standard output.
func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--data-dir", c.dataDir, "--catalog-dir", c.catalogDir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) load(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(graphYAML), 0o644))
	out, err := c.run(t, "load", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 3 nodes, 2 edges")
}

func TestVersion(t *testing.T) {
	out, err := newCLI(t).run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "graphexec v"+version)
}

func TestQuery(t *testing.T) {
	c := newCLI(t)
	c.load(t)

	out, err := c.run(t, "query", "MATCH (n:Person) WHERE n.age = 30 RETURN n.name AS name")
	require.NoError(t, err)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "Alice")
	assert.NotContains(t, out, "Bob")
	assert.Contains(t, out, "(1 rows)")

	_, err = c.run(t, "query", "MATCH (n RETURN n")
	assert.ErrorIs(t, err, qerr.ErrParse)
}

func TestCall(t *testing.T) {
	c := newCLI(t)
	c.load(t)

	out, err := c.run(t, "call", "db.labels")
	require.NoError(t, err)
	assert.Contains(t, out, "City")
	assert.Contains(t, out, "Person")
	assert.Contains(t, out, "(2 rows)")

	out, err = c.run(t, "call", "gds.graph.project", "g", "Person", "'*'")
	require.NoError(t, err)
	assert.Contains(t, out, "nodeCount: 2")

	out, err = c.run(t, "call", "no.such.proc")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 rows)")
}

func TestCatalogCommands(t *testing.T) {
	c := newCLI(t)
	c.load(t)

	out, err := c.run(t, "--metrics", "catalog", "project", "people", "Person", "KNOWS,LIVES_IN",
		"--configuration", "{validateRelationships: false}")
	require.NoError(t, err)
	assert.Contains(t, out, "people")
	assert.Contains(t, out, `["KNOWS","LIVES_IN"]`)
	assert.Contains(t, out, "graphexec_catalog_projections_total 1")

	out, err = c.run(t, "catalog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "people")

	out, err = c.run(t, "catalog", "drop", "people")
	require.NoError(t, err)
	assert.Contains(t, out, "people")

	_, err = c.run(t, "catalog", "drop", "people")
	assert.ErrorIs(t, err, qerr.ErrNotFound)

	out, err = c.run(t, "catalog", "drop", "people", "--fail-if-missing=false")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestSpecArg(t *testing.T) {
	assert.Equal(t, binding.String("Person"), specArg("Person"))
	assert.Equal(t, binding.String("*"), specArg("*"))
	assert.Equal(t, binding.List(binding.String("A"), binding.String("B")), specArg("A, B"))
	assert.Equal(t, binding.String("MATCH (a)-[r]->(b) RETURN a, r, b"), specArg("MATCH (a)-[r]->(b) RETURN a, r, b"))
}

func TestParseLiteral(t *testing.T) {
	v, err := parseLiteral("{readConcurrency: 2, concurrency: false}")
	require.NoError(t, err)
	assert.Equal(t, binding.Map(map[string]binding.Value{
		"readConcurrency": binding.Int(2),
		"concurrency":     binding.Bool(false),
	}), v)

	v, err = parseLiteral("[a, 1]")
	require.NoError(t, err)
	assert.Equal(t, binding.List(binding.String("a"), binding.Int(1)), v)

	_, err = parseLiteral("{unclosed")
	assert.Error(t, err)
}
