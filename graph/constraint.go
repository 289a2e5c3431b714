package graph

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Constraint accumulates, per contributing parent, the version range that
// parent demanded for one dependency. It grows as new parents reference the
// same package; re-attaching from the same parent replaces that parent's
// previous demand.
//
// The merged range is the conjunction of every attached spec.
type Constraint struct {
	specs map[string]string
	order []string
}

// SourcedSpec is one parent's contribution to a merged constraint.
type SourcedSpec struct {
	// Source is the name of the parent that demanded this range.
	Source string

	// Spec is the raw range expression, e.g. ">=2.0.0, <3.0.0".
	// Empty means "any version".
	Spec string
}

// NewConstraint returns an empty constraint (admits any version).
func NewConstraint() *Constraint {
	return &Constraint{specs: make(map[string]string)}
}

// Attach records that source demands the given range. Attaching again from
// the same source overwrites its previous spec.
func (c *Constraint) Attach(source, spec string) {
	if _, ok := c.specs[source]; !ok {
		c.order = append(c.order, source)
	}
	c.specs[source] = spec
}

// Detach removes a parent's contribution, typically because that parent was
// unlocked during backtracking and no longer vouches for the range.
func (c *Constraint) Detach(source string) {
	if _, ok := c.specs[source]; !ok {
		return
	}
	delete(c.specs, source)
	for i, name := range c.order {
		if name == source {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Sources returns the contributing parent names in attachment order.
func (c *Constraint) Sources() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Specs returns every (source, spec) pair in attachment order.
func (c *Constraint) Specs() []SourcedSpec {
	out := make([]SourcedSpec, 0, len(c.order))
	for _, source := range c.order {
		out = append(out, SourcedSpec{Source: source, Spec: c.specs[source]})
	}
	return out
}

// Spec returns the range demanded by a single source.
func (c *Constraint) Spec(source string) (string, bool) {
	spec, ok := c.specs[source]
	return spec, ok
}

// Len returns the number of contributing parents.
func (c *Constraint) Len() int {
	return len(c.order)
}

// Range merges every attached spec into a single semver range (conjunction).
// An empty constraint, or one whose specs are all empty, admits any version.
func (c *Constraint) Range() (*semver.Constraints, error) {
	parts := make([]string, 0, len(c.order))
	for _, source := range c.order {
		if spec := strings.TrimSpace(c.specs[source]); spec != "" {
			parts = append(parts, spec)
		}
	}
	if len(parts) == 0 {
		return semver.NewConstraint("*")
	}
	return semver.NewConstraint(strings.Join(parts, ", "))
}

// Check reports whether a version satisfies the merged range.
func (c *Constraint) Check(v *semver.Version) (bool, error) {
	rng, err := c.Range()
	if err != nil {
		return false, err
	}
	return rng.Check(v), nil
}

// String renders the merged range for display, e.g. ">=2.0.0, <3.0.0".
func (c *Constraint) String() string {
	parts := make([]string, 0, len(c.order))
	for _, source := range c.order {
		if spec := strings.TrimSpace(c.specs[source]); spec != "" {
			parts = append(parts, spec)
		}
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, ", ")
}
