// Package dephell resolves a consistent, conflict-free set of concrete
// package versions for a project whose dependencies are declared as version
// ranges contributed transitively by multiple parents.
//
// # Overview
//
// The package provides three main components:
//
//   - graph: the layered dependency graph (see the graph subpackage)
//   - VersionProvider: supplies candidate versions and their child
//     requirements (PyPIProvider for a live registry, StaticProvider for
//     fixed sets)
//   - Resolver: the engine that drives the graph to full commitment or
//     reports unsatisfiability, backtracking through ancestor chains when a
//     conflict is found deep in the graph
//
// # Quick Start
//
//	root, err := converters.Requirements{}.Load("lib>=1.0.0, <3.0.0")
//	g := graph.NewGraph(root)
//	r, err := dephell.NewResolver(g, dephell.NewPyPIProvider(dephell.DefaultRegistry))
//	g, err = r.Resolve(ctx)
//
// Or in one call:
//
//	g, err := dephell.Resolve(ctx, requirementsText, provider)
//
// # Thread Safety
//
// The graph has a single writer (the resolver). Concurrent readers, such as
// a rendering pass, must only observe a quiesced graph.
package dephell

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/griels/dephell/converters"
	"github.com/griels/dephell/graph"
)

// Resolve parses requirement lines into a root target and resolves it
// against the given provider. A nil provider selects the public registry,
// honoring WithTimeout and WithHTTPClient. On unsatisfiability the returned
// error is an *UnsatisfiableConstraintError and the graph, with its conflict
// slot set, can be recovered from the resolver for diagnostic rendering; use
// NewResolver directly when that matters.
func Resolve(ctx context.Context, requirements string, provider VersionProvider, opts ...Option) (*graph.Graph, error) {
	root, err := converters.Requirements{}.Load(requirements)
	if err != nil {
		return nil, fmt.Errorf("parse requirements: %w", err)
	}

	if provider == nil {
		cfg, err := newConfig(opts...)
		if err != nil {
			return nil, err
		}
		client := cfg.httpClient
		if client == nil {
			client = &http.Client{Timeout: cfg.timeout}
		}
		provider = NewPyPIProviderWithClient(DefaultRegistry, client)
	}

	r, err := NewResolver(graph.NewGraph(root), provider, opts...)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx)
}

// ResolveFile resolves a requirements file.
func ResolveFile(ctx context.Context, path string, provider VersionProvider, opts ...Option) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requirements file: %w", err)
	}
	return Resolve(ctx, string(data), provider, opts...)
}
