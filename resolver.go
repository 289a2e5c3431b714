package dephell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/griels/dephell/graph"
)

// Resolver drives a layered dependency graph to a state where every used
// dependency is applied with a version satisfying every contributing
// parent's constraint, or fails with UnsatisfiableConstraintError.
//
// The loop reads the graph's frontier, queries the version provider, and
// either commits the best candidate or backtracks the ancestor chain of a
// conflict. Provider lookups for one frontier pass run concurrently (they
// are read-only and commutative); every graph mutation happens on the
// calling goroutine, so at every suspension point the graph is
// self-consistent and inspectable.
type Resolver struct {
	graph    *graph.Graph
	provider VersionProvider
	cfg      *config

	// excluded tracks versions rejected per node name during backtracking.
	// Keyed by name, not node pointer: a pruned and rediscovered node keeps
	// its rejections.
	excluded map[string]map[string]struct{}
}

// NewResolver creates a resolver for the given graph and provider.
func NewResolver(g *graph.Graph, provider VersionProvider, opts ...Option) (*Resolver, error) {
	if g == nil {
		return nil, errors.New("graph is nil")
	}
	if provider == nil {
		return nil, errors.New("version provider is nil")
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.logger != nil {
		g.SetLogger(cfg.logger)
	}
	return &Resolver{
		graph:    g,
		provider: provider,
		cfg:      cfg,
		excluded: make(map[string]map[string]struct{}),
	}, nil
}

// Graph returns the graph the resolver operates on. Useful for diagnostic
// rendering after a failed resolve; only read it while the resolver is
// quiescent.
func (r *Resolver) Graph() *graph.Graph {
	return r.graph
}

// Resolve runs the resolution loop until the graph is fully applied or the
// candidate space is exhausted. The returned graph is the same one passed to
// NewResolver, returned for convenience.
func (r *Resolver) Resolve(ctx context.Context) (*graph.Graph, error) {
	steps := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frontier := r.graph.Leaves()
		if len(frontier) == 0 {
			return r.graph, nil
		}

		if r.cfg.maxSteps > 0 && steps >= r.cfg.maxSteps {
			return nil, fmt.Errorf("%w after %d iterations", ErrStepLimit, steps)
		}
		steps++

		candidates, err := r.fetch(ctx, frontier)
		if err != nil {
			return nil, err
		}

		if err := r.commitOrBacktrack(frontier, candidates); err != nil {
			return nil, err
		}
	}
}

// fetch queries the provider for every unlocked frontier dependency,
// bounded-concurrently. Recoverable provider failures yield an absent entry,
// which the commit phase treats as zero candidates.
func (r *Resolver) fetch(ctx context.Context, frontier []*graph.Dependency) (map[*graph.Dependency][]Candidate, error) {
	results := make([][]Candidate, len(frontier))

	eg, ctx := errgroup.WithContext(ctx)
	if r.cfg.concurrency > 0 {
		eg.SetLimit(r.cfg.concurrency)
	}
	for i, dep := range frontier {
		if dep.Locked {
			continue
		}
		i, dep := i, dep
		eg.Go(func() error {
			cands, err := r.provider.Candidates(ctx, dep.Name, dep.Constraint)
			if err != nil {
				if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNetworkFailure) || errors.Is(err, ErrMalformedMetadata) {
					r.cfg.log().Warn("no candidates from provider",
						slog.String("name", dep.Name), slog.Any("error", err))
					return nil
				}
				return fmt.Errorf("fetch candidates for %s: %w", dep.Name, err)
			}
			results[i] = cands
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	byDep := make(map[*graph.Dependency][]Candidate, len(frontier))
	for i, dep := range frontier {
		byDep[dep] = results[i]
	}
	return byDep, nil
}

// commitOrBacktrack walks the frontier in layer-then-insertion order,
// committing candidates until the frontier is consumed or a conflict forces
// a backtrack. After a backtrack the remaining prefetched candidates are
// stale, so the pass ends early and the caller rescans.
func (r *Resolver) commitOrBacktrack(frontier []*graph.Dependency, candidates map[*graph.Dependency][]Candidate) error {
	for _, dep := range frontier {
		if !dep.Used {
			// Pruned or superseded by an earlier commit in this pass.
			continue
		}

		if dep.Locked {
			// Roots: the child list came from the manifest, no version to pick.
			if err := r.applyLocked(dep); err != nil {
				return err
			}
			continue
		}

		pick := r.pick(dep, candidates[dep])
		if pick == nil {
			r.graph.Conflict = dep
			if err := r.backtrack(dep); err != nil {
				return err
			}
			return nil
		}

		if err := r.commit(dep, pick); err != nil {
			return err
		}
	}
	return nil
}

// pick returns the highest candidate that satisfies the current merged
// constraint and was not previously rejected for this node, or nil.
//
// Candidates are re-filtered here even though the provider already saw a
// constraint: an earlier commit in the same pass may have grown it.
func (r *Resolver) pick(dep *graph.Dependency, candidates []Candidate) *Candidate {
	rng, err := dep.Constraint.Range()
	if err != nil {
		r.cfg.log().Warn("unparsable merged constraint",
			slog.String("name", dep.Name), slog.Any("error", err))
		return nil
	}

	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Version == nil || !rng.Check(c.Version) {
			continue
		}
		if r.isExcluded(dep.Name, c.Version) {
			continue
		}
		if best == nil || c.Version.GreaterThan(best.Version) {
			best = c
		}
	}
	return best
}

// commit locks a dependency at the picked version and materializes its
// children one layer deeper, merging into already-graphed same-named entries
// instead of duplicating them.
func (r *Resolver) commit(dep *graph.Dependency, pick *Candidate) error {
	layer := r.graph.LayerOf(dep)
	if layer == nil {
		return fmt.Errorf("commit %s: dependency is not graphed", dep.Name)
	}

	dep.Locked = true
	seen := make(map[string]bool, len(pick.Children))
	for _, spec := range pick.Children {
		if seen[spec.Name] {
			continue
		}
		seen[spec.Name] = true
		child, err := r.place(dep, layer.Level+1, spec)
		if err != nil {
			dep.Unlock()
			return err
		}
		dep.Deps = append(dep.Deps, child)
	}
	dep.Apply(pick.Version)

	r.cfg.log().Debug("applied",
		slog.String("name", dep.Name), slog.String("version", pick.Version.String()))
	return nil
}

// applyLocked commits an already-locked dependency (a root): its children
// are trustworthy, so they are only materialized into the layer below.
func (r *Resolver) applyLocked(dep *graph.Dependency) error {
	level := 1
	if layer := r.graph.LayerOf(dep); layer != nil {
		level = layer.Level + 1
	}

	for i, child := range dep.Deps {
		existing := r.graph.Get(child.Name)
		if existing == child {
			continue // already graphed
		}
		if existing != nil && existing.IsRoot() {
			return fmt.Errorf("%s requires %s, which is a root target", dep.Name, child.Name)
		}
		if existing != nil {
			for _, ss := range child.Constraint.Specs() {
				existing.Constraint.Attach(ss.Source, ss.Spec)
			}
			r.revive(existing)
			dep.Deps[i] = existing
			continue
		}
		if err := r.graph.AddAt(child, level); err != nil {
			return err
		}
	}
	dep.Applied = true
	return nil
}

// place materializes one declared child at the given depth. If the name is
// already graphed, the parent's demand is merged into the existing node
// wherever it sits; the node does not move. Always merging is what keeps
// dependency cycles finite: a rediscovered name folds back into its node
// instead of spawning an ever-deeper duplicate.
func (r *Resolver) place(parent *graph.Dependency, level int, spec ChildSpec) (*graph.Dependency, error) {
	source := spec.Source
	if source == "" {
		source = parent.Name
	}

	if existing := r.graph.Get(spec.Name); existing != nil {
		if existing.IsRoot() {
			return nil, fmt.Errorf("%s requires %s, which is a root target", parent.Name, spec.Name)
		}
		existing.Constraint.Attach(source, spec.Spec)
		r.revive(existing)
		return existing, nil
	}

	child := graph.New(spec.Name, spec.RawName)
	child.Constraint.Attach(source, spec.Spec)
	if err := r.graph.AddAt(child, level); err != nil {
		return nil, err
	}
	return child, nil
}

// revive marks a merged-into entry used again and re-opens it when its
// committed version no longer satisfies the grown constraint.
func (r *Resolver) revive(dep *graph.Dependency) {
	dep.Used = true
	if !dep.Applied || dep.Version == nil {
		return
	}
	ok, err := dep.Constraint.Check(dep.Version)
	if err == nil && ok {
		return
	}
	r.cfg.log().Debug("re-opening under grown constraint", slog.String("name", dep.Name))
	dep.Unlock()
}

// backtrack reverts the ancestor chain of a conflicting dependency: each
// non-root ancestor's applied version is recorded as rejected and the
// ancestor is unlocked, their abandoned children are pruned, and resolution
// resumes. When no ancestor can be re-opened the conflict is permanent.
func (r *Resolver) backtrack(conflict *graph.Dependency) error {
	parents := r.graph.Parents(conflict)
	ancestors := sortDeps(parents)

	r.cfg.log().Warn("conflict, backtracking",
		slog.String("name", conflict.Name),
		slog.String("constraint", conflict.Constraint.String()),
		slog.Int("ancestors", len(ancestors)))

	reopened := false
	for _, parent := range ancestors {
		if !parent.IsRoot() && parent.Applied && parent.Version != nil {
			r.exclude(parent.Name, parent.Version)
			reopened = true
		}
		// For roots Unlock only clears the applied flag: the manifest child
		// list stays trustworthy, and the next pass re-applies them. Without
		// this the graph would report itself fully applied mid-conflict.
		parent.Unlock()
	}
	conflict.Unlock()

	if !reopened {
		return &UnsatisfiableConstraintError{Dep: conflict, Ancestors: ancestors}
	}

	r.markUsed()
	r.graph.Prune()
	r.graph.Conflict = nil
	return nil
}

// markUsed recomputes liveness: a non-root dependency is used iff it is
// reachable from a root through locked parents.
func (r *Resolver) markUsed() {
	// Clear every non-root entry, superseded shallow duplicates included.
	for level := 1; level < r.graph.Depth(); level++ {
		for _, dep := range r.graph.LayerAt(level).Deps() {
			dep.Used = false
		}
	}

	seen := make(map[string]bool)
	queue := r.graph.Roots()
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current.Name] {
			continue
		}
		seen[current.Name] = true
		if !current.Locked {
			continue
		}
		for _, child := range current.Deps {
			child.Used = true
			queue = append(queue, child)
		}
	}
}

func (r *Resolver) exclude(name string, v *semver.Version) {
	if r.excluded[name] == nil {
		r.excluded[name] = make(map[string]struct{})
	}
	r.excluded[name][v.String()] = struct{}{}
}

func (r *Resolver) isExcluded(name string, v *semver.Version) bool {
	_, ok := r.excluded[name][v.String()]
	return ok
}

func sortDeps(m map[string]*graph.Dependency) []*graph.Dependency {
	out := make([]*graph.Dependency, 0, len(m))
	for _, dep := range m {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
