// Package buildctx assembles the per-config view of a build pass handed to builders.
package buildctx

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/weavebuild/weave/internal/digraph"
	"github.com/weavebuild/weave/internal/order"
	"github.com/weavebuild/weave/internal/workspace"
)

// Context is an immutable snapshot of where a config stands in the current pass.
type Context struct {
	config      workspace.BuildConfig
	requested   workspace.BuildConfigs
	order       workspace.BuildConfigs
	referenced  workspace.BuildConfigs
	referencing workspace.BuildConfigs
	hasContext  bool
}

// Empty returns the context of a direct build of one config with no references supplied.
func Empty(cfg workspace.BuildConfig) *Context {
	return &Context{config: cfg}
}

// HasContext is false for a context-less direct build. It tells "not computed" apart from
// "computed and found empty".
func (ctx *Context) HasContext() bool { return ctx.hasContext }

func (ctx *Context) Config() workspace.BuildConfig { return ctx.config }

// RequestedConfigs returns the roots of the invocation.
func (ctx *Context) RequestedConfigs() workspace.BuildConfigs { return slices.Clone(ctx.requested) }

// BuildOrder returns the full order of the invocation.
func (ctx *Context) BuildOrder() workspace.BuildConfigs { return slices.Clone(ctx.order) }

// ReferencedConfigs returns the configs built before this one that it depends on, directly
// or not, in build order.
func (ctx *Context) ReferencedConfigs() workspace.BuildConfigs {
	return slices.Clone(ctx.referenced)
}

// ReferencingConfigs returns the configs built after this one that depend on it, in build order.
func (ctx *Context) ReferencingConfigs() workspace.BuildConfigs {
	return slices.Clone(ctx.referencing)
}

// Assembler creates the contexts of one computed order. Contexts are immutable, so each is
// computed once per config and then shared.
type Assembler struct {
	contexts   *xsync.MapOf[workspace.BuildConfig, *Context]
	graph      *digraph.Digraph[workspace.BuildConfig]
	transposed *digraph.Digraph[workspace.BuildConfig]
	positions  map[workspace.BuildConfig]int
	requested  workspace.BuildConfigs
	order      workspace.BuildConfigs
}

// NewAssembler prepares the contexts for the given order.
func NewAssembler(res *order.Result) *Assembler {
	positions := make(map[workspace.BuildConfig]int, len(res.Configs))
	for i, cfg := range res.Configs {
		positions[cfg] = i
	}

	return &Assembler{
		contexts:   xsync.NewMapOf[workspace.BuildConfig, *Context](),
		graph:      res.Graph,
		transposed: res.Graph.Transpose(),
		positions:  positions,
		requested:  slices.Clone(res.Roots),
		order:      slices.Clone(res.Configs),
	}
}

// Context returns the context of cfg. A config outside the order gets an empty context.
func (asm *Assembler) Context(cfg workspace.BuildConfig) *Context {
	ctx, _ := asm.contexts.LoadOrCompute(cfg, func() *Context { return asm.assemble(cfg) })

	return ctx
}

func (asm *Assembler) assemble(cfg workspace.BuildConfig) *Context {
	pos, ok := asm.positions[cfg]
	if !ok {
		return Empty(cfg)
	}

	ctx := &Context{
		config:     cfg,
		requested:  asm.requested,
		order:      asm.order,
		hasContext: true,
	}

	if asm.graph.Contains(cfg) {
		ctx.referenced = asm.collect(asm.graph.Reachable(cfg), func(p int) bool { return p < pos })
		ctx.referencing = asm.collect(asm.transposed.Reachable(cfg), func(p int) bool { return p > pos })
	}

	return ctx
}

func (asm *Assembler) collect(reach map[workspace.BuildConfig]struct{}, keep func(pos int) bool) workspace.BuildConfigs {
	out := workspace.BuildConfigs{}

	for _, cfg := range asm.order {
		if _, ok := reach[cfg]; ok && keep(asm.positions[cfg]) {
			out = append(out, cfg)
		}
	}

	return out
}
