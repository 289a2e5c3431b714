package graph

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// child creates a discovered dependency contributed by parent and places it
// at the given depth.
func child(t *testing.T, g *Graph, parent *Dependency, name string, level int) *Dependency {
	t.Helper()
	dep := New(name, name)
	dep.Constraint.Attach(parent.Name, "")
	require.NoError(t, g.AddAt(dep, level))
	parent.Deps = append(parent.Deps, dep)
	parent.Locked = true
	return dep
}

func TestGraph_Add_RootGoesToLayerZero(t *testing.T) {
	g := NewGraph(NewRoot("app", "app"))

	extra := NewRoot("tools", "tools")
	require.NoError(t, g.Add(extra))

	layer0 := g.LayerAt(0)
	require.NotNil(t, layer0)
	assert.True(t, layer0.HasName("app"))
	assert.True(t, layer0.HasName("tools"))
	assert.Len(t, g.Roots(), 2)
}

func TestGraph_Add_PlacesBelowShallowestParent(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	lib := child(t, g, root, "lib", 1)

	dep := New("util", "util")
	dep.Constraint.Attach("lib", ">=1.0.0")
	require.NoError(t, g.Add(dep))

	layer := g.LayerOf(dep)
	require.NotNil(t, layer)
	assert.Equal(t, 2, layer.Level)
	_ = lib
}

func TestGraph_Add_Orphan(t *testing.T) {
	g := NewGraph(NewRoot("app", "app"))

	dep := New("stray", "stray")
	dep.Constraint.Attach("nowhere", ">=1.0.0")
	err := g.Add(dep)

	var orphan *OrphanDependencyError
	require.ErrorAs(t, err, &orphan)
	assert.Equal(t, "stray", orphan.Name)
	assert.Equal(t, []string{"nowhere"}, orphan.Sources)
}

func TestGraph_Get_DeepestWins(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)

	shallow := New("shared", "shared")
	shallow.Constraint.Attach("app", "")
	require.NoError(t, g.AddAt(shallow, 1))

	deep := New("shared", "shared")
	deep.Constraint.Attach("lib", "")
	require.NoError(t, g.AddAt(deep, 3))

	assert.Same(t, deep, g.Get("shared"))
}

func TestGraph_Leaves_OrderAndFilter(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	a := child(t, g, root, "a", 1)
	b := child(t, g, root, "b", 1)
	c := child(t, g, a, "c", 2)

	// Frontier starts with the unapplied root, then layer 1, then layer 2.
	names := leafNames(g.Leaves())
	assert.Equal(t, []string{"app", "a", "b", "c"}, names)

	a.Applied = true
	b.Used = false
	assert.Equal(t, []string{"app", "c"}, leafNames(g.Leaves()))

	// Bounded frontier stops at the requested layer.
	assert.Equal(t, []string{"app"}, leafNames(g.LeavesTo(1)))
	_ = c
}

func leafNames(deps []*Dependency) []string {
	out := make([]string, len(deps))
	for i, dep := range deps {
		out[i] = dep.Name
	}
	return out
}

func TestGraph_Children_BreaksCycles(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	a := child(t, g, root, "a", 1)
	b := child(t, g, a, "b", 2)

	// Close the cycle: b depends back on a.
	b.Deps = append(b.Deps, a)
	b.Locked = true

	result := g.Children(root)
	assert.Len(t, result, 2, "result sized to distinct reachable names")
	assert.Contains(t, result, "a")
	assert.Contains(t, result, "b")
}

func TestGraph_Children_UnlockedIsEmpty(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	a := child(t, g, root, "a", 1)

	assert.Empty(t, g.Children(a))
}

func TestGraph_Parents_Fixpoint(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	a := child(t, g, root, "a", 1)
	b := child(t, g, a, "b", 2)
	c := child(t, g, b, "c", 3)

	parents := g.Parents(c)
	assert.Len(t, parents, 3)
	assert.Contains(t, parents, "app")
	assert.Contains(t, parents, "a")
	assert.Contains(t, parents, "b")
}

func TestGraph_Parents_TerminatesOnCycle(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	a := child(t, g, root, "a", 1)
	b := child(t, g, a, "b", 2)
	b.Deps = append(b.Deps, a)
	b.Locked = true

	parents := g.Parents(a)
	assert.Contains(t, parents, "app")
	assert.Contains(t, parents, "b")
}

func TestGraph_Prune_KeepsRootsAndUsed(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	a := child(t, g, root, "a", 1)
	b := child(t, g, root, "b", 1)

	root.Used = false // layer 0 is never pruned
	b.Used = false
	g.Prune()

	assert.True(t, g.HasName("app"))
	assert.True(t, g.HasName("a"))
	assert.False(t, g.HasName("b"))

	for _, dep := range g.Deps() {
		assert.True(t, dep.Used, "every surviving non-root dep must be used")
	}
	_ = a
}

func TestGraph_Reset(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	child(t, g, root, "a", 1)
	g.Conflict = g.Get("a")

	g.Reset()

	assert.Equal(t, 1, g.Depth())
	assert.Nil(t, g.Conflict)
	assert.True(t, g.HasName("app"))
	assert.False(t, g.HasName("a"))
}

func TestGraph_Applied(t *testing.T) {
	root := NewRoot("app", "app")
	other := NewRoot("tools", "tools")
	g := NewGraph(root, other)

	assert.False(t, g.Applied())
	root.Applied = true
	assert.False(t, g.Applied())
	other.Applied = true
	assert.True(t, g.Applied())
}

func TestGraph_NamesAndDeps(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)
	child(t, g, root, "b", 1)
	child(t, g, root, "a", 1)

	assert.Equal(t, []string{"a", "app", "b"}, g.Names())

	names := leafNames(g.Deps())
	assert.Equal(t, []string{"b", "a"}, names, "deps keep layer insertion order and exclude roots")
}

// TestGraph_DeepestWins_ShallowStateDiverges pins the lazy deepest-wins
// policy: the same name may exist in two layers, and committing a version on
// the deep instance leaves the shallow instance untouched. Callers must go
// through Get, which always returns the deep instance.
func TestGraph_DeepestWins_ShallowStateDiverges(t *testing.T) {
	root := NewRoot("app", "app")
	g := NewGraph(root)

	shallow := New("shared", "shared")
	shallow.Constraint.Attach("app", "")
	require.NoError(t, g.AddAt(shallow, 1))

	deep := New("shared", "shared")
	deep.Constraint.Attach("lib", "")
	require.NoError(t, g.AddAt(deep, 2))

	deep.Locked = true
	deep.Apply(semver.MustParse("2.0.0"))

	assert.False(t, shallow.Applied, "shallow instance silently diverges; deepest-wins hides it")
	assert.True(t, g.Get("shared").Applied)

	// The superseded shallow instance is excluded from Deps.
	assert.Len(t, g.Deps(), 1)
	assert.Same(t, deep, g.Deps()[0])
}
