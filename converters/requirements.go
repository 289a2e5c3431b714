package converters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/griels/dephell/graph"
)

// Requirements converts between requirement-file text and the graph: Load
// builds a root dependency from declared targets, Dump renders a resolved
// graph back as pinned requirement lines.
type Requirements struct {
	// RootName names the synthetic root target. Defaults to "root".
	RootName string
}

// Load parses requirement lines into a root dependency whose children carry
// the root as their constraint source. Blank lines and "#" comments are
// skipped. A duplicate package name merges into the earlier child.
func (c Requirements) Load(text string) (*graph.Dependency, error) {
	rootName := c.RootName
	if rootName == "" {
		rootName = "root"
	}
	root := graph.NewRoot(rootName, rootName)

	byName := make(map[string]*graph.Dependency)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req, err := ParseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		spec := req.Spec
		if req.Link != nil {
			if commit := req.Link.Commit(); commit != "" {
				// An exact commit pin carries no version range.
				spec = ""
			}
		}

		if existing, ok := byName[req.Name]; ok {
			existing.Constraint.Attach(rootName, spec)
			continue
		}
		child := graph.New(req.Name, req.RawName)
		child.Constraint.Attach(rootName, spec)
		byName[req.Name] = child
		root.Deps = append(root.Deps, child)
	}

	return root, nil
}

// Dump renders every applied non-root dependency as a pinned
// "name==version" line, sorted by name for stable output.
func (c Requirements) Dump(g *graph.Graph) string {
	var lines []string
	for _, dep := range g.Deps() {
		if !dep.Used || !dep.Applied || dep.Version == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s==%s", dep.RawName, dep.Version))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n"
}
