package order

import (
	"github.com/gobwas/glob"
	"github.com/weavebuild/weave/internal/digraph"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
)

// Filter selects configs by project name globs. An empty include list keeps every project.
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewFilter compiles the include and exclude patterns.
func NewFilter(include, exclude []string) (*Filter, error) {
	filter := &Filter{}

	for _, pattern := range include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Errorf("invalid include pattern %q: %w", pattern, err)
		}

		filter.include = append(filter.include, g)
	}

	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		filter.exclude = append(filter.exclude, g)
	}

	return filter, nil
}

// Keep reports whether the config passes the filter.
func (filter *Filter) Keep(cfg workspace.BuildConfig) bool {
	for _, g := range filter.exclude {
		if g.Match(cfg.Project) {
			return false
		}
	}

	if len(filter.include) == 0 {
		return true
	}

	for _, g := range filter.include {
		if g.Match(cfg.Project) {
			return true
		}
	}

	return false
}

// Apply narrows a computed order to the configs that pass the filter. Dependencies through
// filtered out configs are kept as direct edges, so the narrowed order is still valid.
func (filter *Filter) Apply(res *Result) (*Result, error) {
	filtered, err := digraph.BuildFilteredDigraph(res.Graph, func(cfg workspace.BuildConfig) bool {
		return !filter.Keep(cfg)
	})
	if err != nil {
		return nil, err
	}

	vertexOrder, err := digraph.ComputeVertexOrder(filtered)
	if err != nil {
		return nil, err
	}

	out := &Result{
		Graph:     filtered,
		HasCycles: vertexOrder.HasCycles,
	}

	// Keep the relative order of the input, which may carry an explicit override.
	kept := make(map[workspace.BuildConfig]struct{}, filtered.Len())
	for _, cfg := range filtered.Vertices() {
		kept[cfg] = struct{}{}
	}

	for _, cfg := range res.Configs {
		if _, ok := kept[cfg]; ok {
			out.Configs = append(out.Configs, cfg)
		}
	}

	for _, cfg := range res.Roots {
		if _, ok := kept[cfg]; ok {
			out.Roots = append(out.Roots, cfg)
		}
	}

	for _, knot := range vertexOrder.Knots {
		out.Knots = append(out.Knots, knot)
	}

	return out, nil
}
