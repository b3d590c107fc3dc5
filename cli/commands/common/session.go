// Package common holds what the commands share: loading the workspace and reporting builds.
package common

import (
	"context"

	"github.com/weavebuild/weave/config"
	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/builders"
	"github.com/weavebuild/weave/internal/locks"
	"github.com/weavebuild/weave/internal/scheduler"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/options"
)

// Session is a loaded workspace ready to build.
type Session struct {
	Opts      *options.WeaveOptions
	Config    *config.WorkspaceConfig
	Workspace *workspace.Workspace
	Registry  *builder.Registry
	Scheduler *scheduler.Scheduler
}

// NewSession loads the workspace file and sets up a scheduler with the built-in builders.
func NewSession(ctx context.Context, opts *options.WeaveOptions) (*Session, error) {
	path, err := opts.ResolvedConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(ctx, opts.Logger, path)
	if err != nil {
		return nil, err
	}

	ws, err := cfg.NewWorkspace()
	if err != nil {
		return nil, err
	}

	registry := builder.NewRegistry()

	if err := builders.Register(registry, cfg.Dir, opts.Env); err != nil {
		return nil, err
	}

	settings := config.Settings{
		Parallelism:          opts.Parallelism,
		PropagateRebuild:     opts.PropagateRebuild,
		ProcessOtherBuilders: opts.ProcessOtherBuilders,
		EarlyExit:            opts.EarlyExit,
	}

	if err := cfg.MergeSettings(&settings); err != nil {
		return nil, err
	}

	s := scheduler.New(ws, registry, opts.Logger,
		scheduler.WithParallelism(settings.Parallelism),
		scheduler.WithMaxBuildIterations(opts.MaxBuildIterations),
		scheduler.WithPropagateRebuild(settings.PropagateRebuild),
		scheduler.WithProcessOtherBuilders(settings.ProcessOtherBuilders),
		scheduler.WithEarlyExit(settings.EarlyExit),
	)

	return &Session{
		Opts:      opts,
		Config:    cfg,
		Workspace: ws,
		Registry:  registry,
		Scheduler: s,
	}, nil
}

// WithLock runs fn while holding the workspace lock. With a lock timeout it waits that long
// for another process, otherwise it fails right away.
func (session *Session) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	wait := session.Opts.LockTimeout > 0

	lockCtx := ctx

	if wait {
		var cancel context.CancelFunc

		lockCtx, cancel = context.WithTimeout(ctx, session.Opts.LockTimeout)
		defer cancel()
	}

	return locks.WithWorkspaceLock(lockCtx, session.Opts.Logger, session.Config.Dir, wait, func() error {
		return fn(ctx)
	})
}

// ParseConfigs parses PROJECT[:VARIANT] arguments.
func ParseConfigs(args []string) workspace.BuildConfigs {
	configs := make(workspace.BuildConfigs, 0, len(args))

	for _, arg := range args {
		configs = append(configs, workspace.ParseBuildConfig(arg))
	}

	return configs
}
