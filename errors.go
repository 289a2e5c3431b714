package dephell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/griels/dephell/graph"
)

// Sentinel errors for provider failures.
var (
	// ErrNotFound indicates the requested package does not exist in the
	// provider's registry. Recoverable: treated as zero candidates.
	ErrNotFound = errors.New("package not found")

	// ErrNetworkFailure indicates the provider could not be reached.
	// Recoverable: treated as zero candidates, eligible for retry.
	ErrNetworkFailure = errors.New("network failure")

	// ErrMalformedMetadata indicates metadata that could not be interpreted.
	// Providers skip a single broken candidate; when the whole package index
	// is unreadable the lookup fails with this error, which the resolver
	// treats as zero candidates rather than aborting.
	ErrMalformedMetadata = errors.New("malformed metadata")
)

// ErrStepLimit is returned when resolution exceeds the configured step
// budget before reaching a fully applied graph.
var ErrStepLimit = errors.New("resolution step limit exceeded")

// UnsatisfiableConstraintError reports that no version satisfies a merged
// constraint after backtracking was exhausted. It carries the conflicting
// dependency and the full ancestor chain so a caller can request diagnostic
// rendering of the graph.
type UnsatisfiableConstraintError struct {
	// Dep is the dependency whose merged constraint admits no version.
	Dep *graph.Dependency

	// Ancestors is the ancestor set implicated by the conflict, sorted by
	// name.
	Ancestors []*graph.Dependency
}

func (e *UnsatisfiableConstraintError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no version of %s satisfies %s", e.Dep.Name, e.Dep.Constraint)
	if len(e.Ancestors) > 0 {
		names := make([]string, len(e.Ancestors))
		for i, dep := range e.Ancestors {
			names[i] = dep.Name
		}
		fmt.Fprintf(&sb, " (required through %s)", strings.Join(names, " -> "))
	}
	return sb.String()
}
