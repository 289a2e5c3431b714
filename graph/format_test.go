package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderableGraph(t *testing.T) *Graph {
	t.Helper()
	root := NewRoot("app", "App")
	g := NewGraph(root)

	lib := New("lib", "Lib")
	lib.Constraint.Attach("app", ">=1.0.0")
	require.NoError(t, g.AddAt(lib, 1))

	util := New("util", "util")
	util.Constraint.Attach("lib", "=5.0.0")
	require.NoError(t, g.AddAt(util, 2))

	return g
}

func TestGraph_DOT(t *testing.T) {
	g := renderableGraph(t)
	out := g.DOT()

	assert.Contains(t, out, "digraph dependencies {")
	assert.Contains(t, out, `"app" [label="App", color="blue"];`)
	assert.Contains(t, out, `"lib" [label="Lib >=1.0.0", color="forestgreen"];`)
	assert.Contains(t, out, `"util" [label="util =5.0.0", color="black"];`)
	assert.Contains(t, out, `"app" -> "lib" [label=">=1.0.0"];`)
	assert.Contains(t, out, `"lib" -> "util" [label="=5.0.0"];`)
}

func TestGraph_DOT_ConflictColor(t *testing.T) {
	g := renderableGraph(t)
	g.Conflict = g.Get("util")

	assert.Contains(t, g.DOT(), `"util" [label="util =5.0.0", color="crimson"];`)
}

func TestGraph_Text(t *testing.T) {
	g := renderableGraph(t)
	g.Conflict = g.Get("util")
	out := g.Text()

	assert.Contains(t, out, "Dependency graph (roots: App)")
	assert.Contains(t, out, "Layers: 3")
	assert.Contains(t, out, "Dependencies: 2")
	assert.Contains(t, out, "Fully applied: false")
	assert.Contains(t, out, "Conflict: util")
	assert.Contains(t, out, "layer 2:")
}
