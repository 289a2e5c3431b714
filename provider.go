package dephell

import (
	"context"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/griels/dephell/graph"
)

// ChildSpec declares one child requirement of a candidate version.
type ChildSpec struct {
	// Name is the child's identity key.
	Name string

	// RawName is the child's display form. Defaults to Name when empty.
	RawName string

	// Spec is the version range the parent demands, in semver range syntax.
	// Empty means "any version".
	Spec string

	// Source names the parent that contributes this requirement. When empty
	// the resolver attributes the requirement to the queried package itself.
	Source string
}

// Candidate is one installable version of a package together with the child
// requirements that version declares.
type Candidate struct {
	Version  *semver.Version
	Children []ChildSpec
}

// VersionProvider supplies candidate versions for a name and merged
// constraint. Implementations return candidates in any order; the resolver
// orders them by version before picking.
//
// Error contract: ErrNotFound, ErrNetworkFailure and ErrMalformedMetadata
// are recoverable and treated as an empty candidate list, eligible for retry
// or backtracking. Any other error aborts resolution. A single candidate
// with malformed metadata is skipped by the provider; ErrMalformedMetadata
// for the whole lookup means the package index itself was unreadable.
type VersionProvider interface {
	Candidates(ctx context.Context, name string, constraint *graph.Constraint) ([]Candidate, error)
}

// StaticProvider is an in-memory VersionProvider backed by a fixed registry
// of releases. It serves tests, examples and offline runs.
//
// Safe for concurrent lookups once populated; Register calls must not race
// with Candidates.
type StaticProvider struct {
	mu       sync.RWMutex
	releases map[string][]Candidate
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{releases: make(map[string][]Candidate)}
}

// Register adds one release of a package. Invalid version strings panic:
// fixtures are authored by hand and a typo should fail loudly.
func (p *StaticProvider) Register(name, version string, children ...ChildSpec) {
	v := semver.MustParse(version)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases[name] = append(p.releases[name], Candidate{Version: v, Children: children})
}

// Candidates returns the registered releases of name that satisfy the merged
// constraint, newest first. An unknown name yields ErrNotFound.
func (p *StaticProvider) Candidates(ctx context.Context, name string, constraint *graph.Constraint) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	releases, ok := p.releases[name]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	rng, err := constraint.Range()
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(releases))
	for _, c := range releases {
		if rng.Check(c.Version) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version.GreaterThan(out[j].Version)
	})
	return out, nil
}
