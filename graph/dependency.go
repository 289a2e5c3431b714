package graph

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Dependency is one package requirement node.
//
// Lifecycle: a dependency is discovered (placed in a layer, Used=true),
// locked once its child list has been fetched and is trustworthy, and
// applied once a concrete version has been committed. Backtracking can force
// an applied dependency back to merely discovered; a dependency whose last
// live parent disappears becomes unused and is dropped by the next prune.
type Dependency struct {
	// Name is the stable identity key, unique within a layer.
	Name string

	// RawName is the display form (original casing).
	RawName string

	// Constraint merges every contributing parent's version range.
	Constraint *Constraint

	// Applied is true once a concrete version has been committed.
	Applied bool

	// Used is true while at least one live parent still needs this node.
	Used bool

	// Locked is true once Deps has been fetched and is trustworthy.
	Locked bool

	// Version is the committed version. Valid only when Applied.
	Version *semver.Version

	// Deps are the direct children, in declaration order.
	// Valid only when Locked.
	Deps []*Dependency

	root bool
}

// New creates a discovered, unlocked dependency.
func New(name, rawName string) *Dependency {
	if rawName == "" {
		rawName = name
	}
	return &Dependency{
		Name:       name,
		RawName:    rawName,
		Constraint: NewConstraint(),
		Used:       true,
	}
}

// NewRoot creates a top-level target requirement. Roots always live in
// layer 0 and are considered locked as soon as their children are attached:
// the manifest is the authority on a root's child list.
func NewRoot(name, rawName string) *Dependency {
	d := New(name, rawName)
	d.root = true
	d.Locked = true
	return d
}

// IsRoot reports whether this is a top-level target requirement.
func (d *Dependency) IsRoot() bool {
	return d.root
}

// Apply commits a concrete version.
func (d *Dependency) Apply(v *semver.Version) {
	d.Version = v
	d.Applied = true
}

// Unlock reverts an applied or locked dependency back to merely discovered,
// detaching its constraint contribution from each of its children. Roots
// only clear the applied flag: their child list comes from the manifest and
// stays trustworthy.
func (d *Dependency) Unlock() {
	d.Applied = false
	if d.root {
		return
	}
	for _, child := range d.Deps {
		child.Constraint.Detach(d.Name)
	}
	d.Deps = nil
	d.Locked = false
	d.Version = nil
}

// String renders "name constraint" or "name==version" once applied.
func (d *Dependency) String() string {
	if d.Applied && d.Version != nil {
		return fmt.Sprintf("%s==%s", d.Name, d.Version)
	}
	return fmt.Sprintf("%s %s", d.Name, d.Constraint)
}
