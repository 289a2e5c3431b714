package graph

import (
	"fmt"
	"strings"
)

// DuplicateNameError is returned when two distinct dependencies with the
// same name are added to one layer. This indicates a graph-construction bug,
// not a resolvable conflict.
type DuplicateNameError struct {
	// Name is the duplicated package name.
	Name string

	// Level is the layer the second add targeted.
	Level int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("dependency %q already present in layer %d", e.Name, e.Level)
}

// OrphanDependencyError is returned when a dependency is added without an
// explicit level and no layer contains any of its contributing parents.
type OrphanDependencyError struct {
	// Name is the orphaned package name.
	Name string

	// Sources are the parent names the dependency claims contributed to it.
	Sources []string
}

func (e *OrphanDependencyError) Error() string {
	if len(e.Sources) == 0 {
		return fmt.Sprintf("no layer contains a parent of %q (no contributing parents recorded)", e.Name)
	}
	return fmt.Sprintf("no layer contains a parent of %q (contributed by %s)",
		e.Name, strings.Join(e.Sources, ", "))
}
