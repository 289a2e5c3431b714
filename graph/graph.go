package graph

import (
	"log/slog"
	"sort"

	"github.com/griels/dephell/internal/logx"
)

// Graph is the authoritative snapshot of every discovered dependency,
// organized into layers by distance from the roots.
//
// The graph is mutated by a single writer (the resolver); concurrent readers
// must only observe a quiesced graph.
type Graph struct {
	// Conflict holds the currently conflicting dependency, or nil.
	Conflict *Dependency

	roots  []*Dependency
	layers []*Layer
	logger *slog.Logger
}

// NewGraph creates a graph holding the given roots in layer 0.
func NewGraph(roots ...*Dependency) *Graph {
	g := &Graph{logger: logx.Discard()}
	for _, root := range roots {
		root.root = true
		root.Locked = true
		g.roots = append(g.roots, root)
	}
	g.Reset()
	return g
}

// SetLogger installs a structured logger for traversal diagnostics
// (cycle warnings). The default logger discards everything.
func (g *Graph) SetLogger(l *slog.Logger) {
	if l != nil {
		g.logger = l
	}
}

// Reset discards all layers except a fresh layer 0 holding only the current
// roots, and clears the conflict slot.
func (g *Graph) Reset() {
	layer0 := NewLayer(0)
	for _, root := range g.roots {
		// Roots are unique by construction; a duplicate here is a caller bug.
		if err := layer0.Add(root); err != nil {
			panic(err)
		}
	}
	g.layers = []*Layer{layer0}
	g.Conflict = nil
}

// Add places a dependency. A root goes into layer 0 and is registered as an
// additional resolution target. Any other dependency is placed one layer
// below the shallowest layer containing one of its contributing parents;
// if no layer contains such a parent, Add fails with OrphanDependencyError.
func (g *Graph) Add(dep *Dependency) error {
	if dep.IsRoot() {
		if err := g.layers[0].Add(dep); err != nil {
			return err
		}
		g.roots = append(g.roots, dep)
		return nil
	}

	sources := dep.Constraint.Sources()
	for _, layer := range g.layers {
		for _, parent := range layer.Deps() {
			for _, source := range sources {
				if parent.Name == source {
					return g.AddAt(dep, layer.Level+1)
				}
			}
		}
	}
	return &OrphanDependencyError{Name: dep.Name, Sources: sources}
}

// AddAt places a dependency at an explicit depth, extending the layer
// sequence if needed.
func (g *Graph) AddAt(dep *Dependency, level int) error {
	for level >= len(g.layers) {
		g.layers = append(g.layers, NewLayer(len(g.layers)))
	}
	return g.layers[level].Add(dep)
}

// Get scans layers deepest-first and returns the first dependency with the
// given name, or nil. Deepest wins: the deepest known instance is the one
// currently being refined, shallower same-named placeholders are superseded.
func (g *Graph) Get(name string) *Dependency {
	for i := len(g.layers) - 1; i >= 0; i-- {
		if dep := g.layers[i].Get(name); dep != nil {
			return dep
		}
	}
	return nil
}

// HasName reports whether any layer contains the given name.
func (g *Graph) HasName(name string) bool {
	return g.Get(name) != nil
}

// Has reports whether any layer contains dep's name.
func (g *Graph) Has(dep *Dependency) bool {
	return g.HasName(dep.Name)
}

// Leaves returns the resolution frontier: every used, not-yet-applied
// dependency across all layers, in layer-then-insertion order.
func (g *Graph) Leaves() []*Dependency {
	return g.LeavesTo(len(g.layers) - 1)
}

// LeavesTo bounds the frontier to layers 0..level.
func (g *Graph) LeavesTo(level int) []*Dependency {
	if level >= len(g.layers) {
		level = len(g.layers) - 1
	}
	var out []*Dependency
	for _, layer := range g.layers[:level+1] {
		for _, dep := range layer.Deps() {
			if dep.Used && !dep.Applied {
				out = append(out, dep)
			}
		}
	}
	return out
}

// LayerAt returns the layer at an explicit depth, or nil if out of range.
func (g *Graph) LayerAt(level int) *Layer {
	if level < 0 || level >= len(g.layers) {
		return nil
	}
	return g.layers[level]
}

// LayerOf locates, deepest-first, the layer containing a dependency with
// dep's name, or nil if the name is not graphed.
func (g *Graph) LayerOf(dep *Dependency) *Layer {
	for i := len(g.layers) - 1; i >= 0; i-- {
		if g.layers[i].Has(dep) {
			return g.layers[i]
		}
	}
	return nil
}

// Depth returns the number of layers.
func (g *Graph) Depth() int {
	return len(g.layers)
}

// Children collects every already-graphed descendant of dep into a
// name-keyed map. A descendant name seen a second time is recorded once and
// not re-descended; this breaks cycles and keeps the result sized to the
// number of distinct reachable names.
func (g *Graph) Children(dep *Dependency) map[string]*Dependency {
	result := make(map[string]*Dependency)
	if !dep.Locked {
		return result
	}

	queue := []*Dependency{dep}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !current.Locked {
			continue
		}
		for _, child := range current.Deps {
			if g.LayerOf(child) == nil {
				continue
			}
			if _, seen := result[child.Name]; seen {
				g.logger.Warn("recursive dependency", slog.String("name", child.Name))
				continue
			}
			result[child.Name] = child
			queue = append(queue, child)
		}
	}
	return result
}

// Parents collects every graphed dependency, in any layer, that lists one of
// deps among its own children, then repeats on the newly found parents to a
// fixpoint. The avoid set grows by the names just consumed, so traversal
// terminates on cyclic graphs. The result is the ancestor set implicated by
// a conflict on deps.
func (g *Graph) Parents(deps ...*Dependency) map[string]*Dependency {
	found := make(map[string]*Dependency)
	avoid := make(map[string]bool)
	frontier := deps

	for len(frontier) > 0 {
		var next []*Dependency
		for _, dep := range frontier {
			for _, layer := range g.layers {
				for _, parent := range layer.Deps() {
					for _, child := range parent.Deps {
						if child.Name != dep.Name || avoid[child.Name] {
							continue
						}
						if _, ok := found[parent.Name]; !ok {
							found[parent.Name] = parent
							next = append(next, parent)
						}
						break
					}
				}
			}
		}
		for _, dep := range frontier {
			avoid[dep.Name] = true
		}
		frontier = next
	}
	return found
}

// Prune drops, from every non-root layer, entries whose Used flag is false.
// Layer 0 is never pruned: roots stay for the lifetime of the graph.
func (g *Graph) Prune() {
	for _, layer := range g.layers[1:] {
		layer.Prune()
	}
}

// Names returns the union of all layer keys, sorted for determinism.
func (g *Graph) Names() []string {
	seen := make(map[string]bool)
	for _, layer := range g.layers {
		for _, dep := range layer.Deps() {
			seen[dep.Name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deps returns every graphed dependency excluding roots, in layer order.
// Where a name appears in several layers only the deepest instance is
// returned, matching Get's lookup policy.
func (g *Graph) Deps() []*Dependency {
	var out []*Dependency
	for _, layer := range g.layers[1:] {
		for _, dep := range layer.Deps() {
			if g.Get(dep.Name) == dep {
				out = append(out, dep)
			}
		}
	}
	return out
}

// Roots returns the top-level targets.
func (g *Graph) Roots() []*Dependency {
	out := make([]*Dependency, len(g.roots))
	copy(out, g.roots)
	return out
}

// Applied reports whether every root has been applied, i.e. resolution is
// complete.
func (g *Graph) Applied() bool {
	for _, root := range g.roots {
		if !root.Applied {
			return false
		}
	}
	return true
}
