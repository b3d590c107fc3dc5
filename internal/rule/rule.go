// Package rule implements scheduling rules: the lock scopes that keep conflicting builds from
// running at the same time.
package rule

import (
	"slices"
	"strings"
)

// Rule is a set of locked projects. The zero value is the NONE rule.
type Rule struct {
	projects  []string
	workspace bool
	self      bool
}

// None locks nothing.
func None() Rule { return Rule{} }

// Workspace locks everything.
func Workspace() Rule { return Rule{workspace: true} }

// Self locks the project the rule is resolved for. Use Resolve to bind it.
func Self() Rule { return Rule{self: true} }

// Projects locks the named projects.
func Projects(names ...string) Rule {
	projects := slices.Clone(names)
	slices.Sort(projects)

	return Rule{projects: slices.Compact(projects)}
}

// Resolve binds a SELF rule to the given project.
func (rule Rule) Resolve(project string) Rule {
	if !rule.self {
		return rule
	}

	resolved := Projects(append(slices.Clone(rule.projects), project)...)
	resolved.workspace = rule.workspace

	return resolved
}

// Union returns a rule locking everything either rule locks.
func (rule Rule) Union(other Rule) Rule {
	if rule.workspace || other.workspace {
		return Workspace()
	}

	union := Projects(append(slices.Clone(rule.projects), other.projects...)...)
	union.self = rule.self || other.self

	return union
}

// IsNone reports whether the rule locks nothing.
func (rule Rule) IsNone() bool {
	return !rule.workspace && !rule.self && len(rule.projects) == 0
}

// IsWorkspace reports whether the rule locks everything.
func (rule Rule) IsWorkspace() bool {
	return rule.workspace
}

// Contains reports whether the rule locks the project.
func (rule Rule) Contains(project string) bool {
	if rule.workspace {
		return true
	}

	_, found := slices.BinarySearch(rule.projects, project)

	return found
}

// Conflicts reports whether the locked sets intersect.
func (rule Rule) Conflicts(other Rule) bool {
	if rule.IsNone() || other.IsNone() {
		return false
	}

	if rule.workspace || other.workspace {
		return true
	}

	for _, project := range rule.projects {
		if other.Contains(project) {
			return true
		}
	}

	return false
}

// Locked returns the locked project names.
func (rule Rule) Locked() []string {
	return slices.Clone(rule.projects)
}

func (rule Rule) String() string {
	switch {
	case rule.workspace:
		return "workspace"
	case rule.IsNone():
		return "none"
	case rule.self && len(rule.projects) == 0:
		return "self"
	}

	return "projects(" + strings.Join(rule.projects, ",") + ")"
}

// Parse parses a rule name: none, self, workspace, or a comma separated project list.
func Parse(str string) Rule {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "", "none":
		return None()
	case "self":
		return Self()
	case "workspace":
		return Workspace()
	}

	var names []string

	for _, name := range strings.Split(str, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	return Projects(names...)
}
