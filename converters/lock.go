package converters

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/griels/dephell/graph"
)

// Lock converts between a resolved graph and a YAML lock document. The lock
// records, per package, the committed version, every parent's demanded
// range, and the child names, so a later run can reconstruct the pinned set
// without re-resolving.
type Lock struct {
	// RootName names the synthetic root when loading. Defaults to "root".
	RootName string
}

// lockDocument is the YAML schema.
type lockDocument struct {
	Packages []lockPackage `yaml:"packages"`
}

type lockPackage struct {
	Name         string           `yaml:"name"`
	RawName      string           `yaml:"raw_name,omitempty"`
	Version      string           `yaml:"version"`
	Constraints  []lockConstraint `yaml:"constraints,omitempty"`
	Dependencies []string         `yaml:"dependencies,omitempty"`
}

type lockConstraint struct {
	Source string `yaml:"source"`
	Spec   string `yaml:"spec,omitempty"`
}

// Dump serializes every applied non-root dependency, sorted by name.
func (c Lock) Dump(g *graph.Graph) (string, error) {
	doc := lockDocument{}
	for _, dep := range g.Deps() {
		if !dep.Used || !dep.Applied || dep.Version == nil {
			continue
		}

		pkg := lockPackage{
			Name:    dep.Name,
			Version: dep.Version.String(),
		}
		if dep.RawName != dep.Name {
			pkg.RawName = dep.RawName
		}
		for _, spec := range dep.Constraint.Specs() {
			pkg.Constraints = append(pkg.Constraints, lockConstraint{
				Source: spec.Source,
				Spec:   spec.Spec,
			})
		}
		for _, child := range dep.Deps {
			pkg.Dependencies = append(pkg.Dependencies, child.Name)
		}
		doc.Packages = append(doc.Packages, pkg)
	}

	sort.Slice(doc.Packages, func(i, j int) bool {
		return doc.Packages[i].Name < doc.Packages[j].Name
	})

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal lock: %w", err)
	}
	return string(out), nil
}

// Load parses a lock document into a root dependency whose children are
// pinned to the locked versions with "=" ranges.
func (c Lock) Load(text string) (*graph.Dependency, error) {
	var doc lockDocument
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal lock: %w", err)
	}

	rootName := c.RootName
	if rootName == "" {
		rootName = "root"
	}
	root := graph.NewRoot(rootName, rootName)
	for _, pkg := range doc.Packages {
		rawName := pkg.RawName
		if rawName == "" {
			rawName = pkg.Name
		}
		child := graph.New(pkg.Name, rawName)
		child.Constraint.Attach(rootName, "="+pkg.Version)
		root.Deps = append(root.Deps, child)
	}
	return root, nil
}
