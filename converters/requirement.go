package converters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/griels/dephell/vcslink"
)

// Requirement is one parsed requirement line.
type Requirement struct {
	// Name is the canonical identity key (lowercase, underscores folded).
	Name string

	// RawName is the name as written.
	RawName string

	// Spec is the version range in semver range syntax. Empty means any.
	Spec string

	// Link is set for VCS requirements; Spec is empty for those.
	Link *vcslink.Link
}

// nameRe matches the leading package name of a requirement line.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)

// ParseRequirement parses a single requirement line such as "name",
// "Name==1.2.3", "name >=1.0, <3" or a VCS link. Extras and environment
// markers (everything after ";") are dropped.
func ParseRequirement(line string) (Requirement, error) {
	line = strings.TrimSpace(line)
	if i := strings.Index(line, ";"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}

	if link := vcslink.Parse(line); link != nil && strings.ContainsAny(line, ":/") {
		return Requirement{
			Name:    NormalizeName(link.Name),
			RawName: link.Name,
			Link:    link,
		}, nil
	}

	raw := nameRe.FindString(line)
	if raw == "" {
		return Requirement{}, fmt.Errorf("unparsable requirement %q", line)
	}
	spec := strings.TrimSpace(line[len(raw):])
	spec = strings.Trim(spec, "()")

	return Requirement{
		Name:    NormalizeName(raw),
		RawName: raw,
		Spec:    NormalizeSpec(spec),
	}, nil
}

// NormalizeName folds a package name to its canonical form: lowercase with
// underscores and dots folded to dashes.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return name
}

// NormalizeSpec rewrites requirement-file operators into semver range
// syntax: "==" becomes "=", and the compatible-release operator "~=" expands
// to its explicit pair of bounds ("~=1.4" means ">=1.4, <2", "~=1.4.5" means
// ">=1.4.5, <1.5"). Comparison operators pass through unchanged.
func NormalizeSpec(spec string) string {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "*" {
		return ""
	}

	clauses := strings.Split(spec, ",")
	out := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "=="):
			clause = "=" + clause[2:]
		case strings.HasPrefix(clause, "~="):
			clause = expandCompatible(strings.TrimSpace(clause[2:]))
		}
		out = append(out, clause)
	}
	return strings.Join(out, ", ")
}

// expandCompatible turns a compatible-release version into an explicit
// range: the lower bound is the version itself, the upper bound drops the
// final segment and increments the one before it.
func expandCompatible(version string) string {
	segments := strings.Split(version, ".")
	if len(segments) < 2 {
		return "=" + version
	}
	upper := make([]string, len(segments)-1)
	copy(upper, segments[:len(segments)-1])
	last, err := strconv.Atoi(upper[len(upper)-1])
	if err != nil {
		return "=" + version
	}
	upper[len(upper)-1] = strconv.Itoa(last + 1)
	return ">=" + version + ", <" + strings.Join(upper, ".")
}
