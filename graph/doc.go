// Package graph implements the layered dependency graph that the resolution
// engine operates on.
//
// Dependencies are organized into Layers by discovery depth: layer 0 holds
// the root (top-level) requirements, layer 1 their direct children, and so
// on. Name lookup is deepest-first across all layers, so the deepest known
// instance of a package name supersedes shallower placeholders.
//
// The graph itself is passive: it records placement, merged constraints and
// lifecycle flags, and answers traversal queries (frontier, ancestors,
// descendants). All version decisions are made by the resolver on top of it.
package graph
