// Package converters translates between ecosystem manifest formats and the
// dependency graph: a requirements-file converter for declaring top-level
// targets, and a YAML lock converter for persisting a resolved graph.
//
// Converters run before and after the resolution engine; they never talk to
// a version provider themselves.
package converters
