// Package builder defines the contract between the scheduler and the pluggable builders.
package builder

//go:generate mockgen -destination=mocks/mock_builder.go -package=mocks . Builder

import (
	"context"

	"github.com/weavebuild/weave/internal/buildctx"
	"github.com/weavebuild/weave/internal/delta"
	"github.com/weavebuild/weave/internal/rule"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/pkg/log"
)

// Builder runs one command of a project's build spec.
type Builder interface {
	// Build runs the builder. A returned error fails the config but not the invocation.
	Build(ctx context.Context, req *Request) (*Result, error)
	// Rule returns the lock the builder needs for the trigger. SELF is bound by the scheduler.
	Rule(trigger workspace.Trigger, args map[string]string) rule.Rule
	// Clean removes the builder's output.
	Clean(ctx context.Context, req *Request) error
}

// Request carries everything a builder run may look at.
type Request struct {
	Context *buildctx.Context
	// Delta is nil for full and clean builds.
	Delta     *delta.Delta
	Args      map[string]string
	Logger    log.Logger
	Config    workspace.BuildConfig
	Trigger   workspace.Trigger
	Pass      int
	Iteration int
}

// RebuildRequest asks for another config to be built again.
type RebuildRequest struct {
	Target workspace.BuildConfig
	// Count is the number of extra builds requested; values below 1 mean 1.
	Count int
}

// Result is what a builder reports back besides an error.
type Result struct {
	// InterestingProjects are the projects whose changes the builder wants in its next delta.
	InterestingProjects []string
	RebuildRequests     []RebuildRequest
	Warnings            []string
	// NeedRebuild asks for the builder chain of this project to run again.
	NeedRebuild bool
}

// Factory creates a builder for a build spec command.
type Factory func(cmd workspace.Command) (Builder, error)
