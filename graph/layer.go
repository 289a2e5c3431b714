package graph

// Layer is a name-keyed collection of dependencies sharing one discovery
// depth. Iteration follows insertion order; names are unique within a layer.
type Layer struct {
	// Level is the discovery depth. Level 0 is reserved for roots.
	Level int

	byName map[string]*Dependency
	order  []string
}

// NewLayer creates an empty layer at the given depth.
func NewLayer(level int) *Layer {
	return &Layer{
		Level:  level,
		byName: make(map[string]*Dependency),
	}
}

// Add inserts a dependency by name. Adding a second dependency with a name
// already present fails with a DuplicateNameError.
func (l *Layer) Add(dep *Dependency) error {
	if _, ok := l.byName[dep.Name]; ok {
		return &DuplicateNameError{Name: dep.Name, Level: l.Level}
	}
	l.byName[dep.Name] = dep
	l.order = append(l.order, dep.Name)
	return nil
}

// Get returns the dependency with the given name, or nil.
func (l *Layer) Get(name string) *Dependency {
	return l.byName[name]
}

// HasName reports whether a dependency with the given name is present.
func (l *Layer) HasName(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Has reports whether a dependency with dep's name is present.
func (l *Layer) Has(dep *Dependency) bool {
	return l.HasName(dep.Name)
}

// Deps returns the layer's dependencies in insertion order.
func (l *Layer) Deps() []*Dependency {
	out := make([]*Dependency, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.byName[name])
	}
	return out
}

// Len returns the number of dependencies in the layer.
func (l *Layer) Len() int {
	return len(l.order)
}

// Prune removes entries whose Used flag is false.
func (l *Layer) Prune() {
	kept := l.order[:0]
	for _, name := range l.order {
		if l.byName[name].Used {
			kept = append(kept, name)
		} else {
			delete(l.byName, name)
		}
	}
	l.order = kept
}
