// Package order computes the build order of a set of build configs from the workspace
// references.
package order

import (
	"slices"

	"github.com/weavebuild/weave/internal/digraph"
	"github.com/weavebuild/weave/internal/workspace"
)

// References is the subset of the workspace the computer needs.
type References interface {
	Resolve(cfg workspace.BuildConfig) (workspace.BuildConfig, bool)
	References(cfg workspace.BuildConfig) workspace.BuildConfigs
}

// Result is a computed build order.
type Result struct {
	// Graph holds every config reachable from the roots, with an edge from each config to
	// the configs it references. It is frozen.
	Graph *digraph.Digraph[workspace.BuildConfig]
	// Configs is the build order, dependencies first.
	Configs workspace.BuildConfigs
	// Roots are the resolved requested configs.
	Roots     workspace.BuildConfigs
	Knots     []workspace.BuildConfigs
	HasCycles bool
}

// Position returns the index of cfg in the order, or -1.
func (res *Result) Position(cfg workspace.BuildConfig) int {
	return slices.Index(res.Configs, cfg)
}

// Computer computes build orders.
type Computer struct {
	refs References
	// explicit is the user supplied project sequence; nil means none.
	explicit []string
}

// NewComputer returns a computer resolving references through refs. A non-nil explicit order
// overrides the computed one for the projects it names.
func NewComputer(refs References, explicit []string) *Computer {
	return &Computer{refs: refs, explicit: slices.Clone(explicit)}
}

// Compute resolves the roots and orders them. With resolveReferences every config transitively
// referenced by a root is part of the order; otherwise only the roots are, still ordered by the
// dependencies they have through configs that were left out. Missing and closed configs are
// dropped silently.
func (computer *Computer) Compute(roots workspace.BuildConfigs, resolveReferences bool) (*Result, error) {
	resolved := make(workspace.BuildConfigs, 0, len(roots))

	for _, root := range roots {
		if cfg, ok := computer.refs.Resolve(root); ok {
			resolved = append(resolved, cfg)
		}
	}

	resolved = resolved.Dedup()

	graph, err := computer.closure(resolved)
	if err != nil {
		return nil, err
	}

	ordered := graph

	if !resolveReferences {
		isRoot := make(map[workspace.BuildConfig]struct{}, len(resolved))
		for _, cfg := range resolved {
			isRoot[cfg] = struct{}{}
		}

		ordered, err = digraph.BuildFilteredDigraph(graph, func(cfg workspace.BuildConfig) bool {
			_, ok := isRoot[cfg]
			return !ok
		})
		if err != nil {
			return nil, err
		}
	}

	vertexOrder, err := digraph.ComputeVertexOrder(ordered)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Graph:     graph,
		Configs:   applyExplicitOrder(vertexOrder.Vertices, computer.explicit),
		Roots:     resolved,
		HasCycles: vertexOrder.HasCycles,
	}

	for _, knot := range vertexOrder.Knots {
		res.Knots = append(res.Knots, knot)
	}

	return res, nil
}

// closure builds the reference graph over the roots and everything they reach. Vertices are
// inserted in discovery order so that independent configs keep the requested order.
func (computer *Computer) closure(roots workspace.BuildConfigs) (*digraph.Digraph[workspace.BuildConfig], error) {
	graph := digraph.New[workspace.BuildConfig]()
	queue := slices.Clone(roots)

	for _, cfg := range roots {
		if err := graph.AddVertex(cfg); err != nil {
			return nil, err
		}
	}

	for len(queue) > 0 {
		cfg := queue[0]
		queue = queue[1:]

		for _, ref := range computer.refs.References(cfg) {
			if !graph.Contains(ref) {
				if err := graph.AddVertex(ref); err != nil {
					return nil, err
				}

				queue = append(queue, ref)
			}

			if err := graph.AddEdge(cfg, ref); err != nil {
				return nil, err
			}
		}
	}

	graph.Freeze()

	return graph, nil
}

// applyExplicitOrder puts the configs of the named projects in the explicit relative order
// and appends the rest in computed order.
func applyExplicitOrder(computed []workspace.BuildConfig, explicit []string) workspace.BuildConfigs {
	if explicit == nil {
		return computed
	}

	byProject := make(map[string][]workspace.BuildConfig, len(computed))
	for _, cfg := range computed {
		byProject[cfg.Project] = append(byProject[cfg.Project], cfg)
	}

	out := make(workspace.BuildConfigs, 0, len(computed))
	named := make(map[string]struct{}, len(explicit))

	for _, project := range explicit {
		if _, ok := named[project]; ok {
			continue
		}

		named[project] = struct{}{}
		out = append(out, byProject[project]...)
	}

	for _, cfg := range computed {
		if _, ok := named[cfg.Project]; !ok {
			out = append(out, cfg)
		}
	}

	return out
}
