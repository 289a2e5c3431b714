package graph

import (
	"bytes"
	"fmt"
	"strings"
)

const separatorWidth = 60

// DOT renders the graph in Graphviz DOT format. Roots are blue, first-layer
// dependencies forestgreen, the conflicting dependency crimson, everything
// else black. Edges are labeled with the range each parent demanded.
//
// Rendering is read-only; call it only on a quiesced graph.
func (g *Graph) DOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	for _, root := range g.roots {
		buf.WriteString(fmt.Sprintf("  %q [label=%q, color=\"blue\"];\n", root.Name, root.RawName))
	}

	first := g.LayerAt(1)
	for _, dep := range g.Deps() {
		color := "black"
		switch {
		case g.Conflict != nil && dep.Name == g.Conflict.Name:
			color = "crimson"
		case first != nil && first.Has(dep):
			color = "forestgreen"
		}
		label := dep.RawName + " " + dep.Constraint.String()
		buf.WriteString(fmt.Sprintf("  %q [label=%q, color=%q];\n", dep.Name, label, color))
	}

	buf.WriteString("\n")
	for _, dep := range g.Deps() {
		for _, spec := range dep.Constraint.Specs() {
			buf.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", spec.Source, dep.Name, spec.Spec))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Text renders a human-readable summary of the graph state.
func (g *Graph) Text() string {
	var buf bytes.Buffer

	rootNames := make([]string, len(g.roots))
	for i, root := range g.roots {
		rootNames[i] = root.RawName
	}
	buf.WriteString(fmt.Sprintf("Dependency graph (roots: %s)\n", strings.Join(rootNames, ", ")))
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	buf.WriteString(fmt.Sprintf("Layers: %d\n", len(g.layers)))
	buf.WriteString(fmt.Sprintf("Dependencies: %d\n", len(g.Deps())))
	buf.WriteString(fmt.Sprintf("Fully applied: %v\n", g.Applied()))
	if g.Conflict != nil {
		buf.WriteString(fmt.Sprintf("Conflict: %s (%s)\n", g.Conflict.Name, g.Conflict.Constraint))
	}
	buf.WriteString("\n")

	for _, layer := range g.layers {
		buf.WriteString(fmt.Sprintf("layer %d:\n", layer.Level))
		for _, dep := range layer.Deps() {
			state := "discovered"
			switch {
			case dep.Applied && dep.Version != nil:
				state = "applied " + dep.Version.String()
			case dep.Locked:
				state = "locked"
			}
			buf.WriteString(fmt.Sprintf("  %-24s %-24s %s\n", dep.Name, dep.Constraint.String(), state))
		}
	}

	return buf.String()
}
