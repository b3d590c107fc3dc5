// Package scheduler runs build invocations over a workspace.
//
// An invocation resolves the requested configs, orders them with their references, and runs
// each config's builder chain in passes. Builders can ask for their own chain to run again
// or for other configs to be rebuilt; both loops are bounded. Independent configs run on a
// worker pool under scheduling rules, and failures are collected into a single Status.
package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/delta"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/rebuild"
	"github.com/weavebuild/weave/internal/rule"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/pkg/log"
)

// DefaultParallelism runs configs one at a time.
const DefaultParallelism = 1

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithParallelism sets the number of configs built at once. Values below 2 build serially
// under the union of the pass's rules.
func WithParallelism(parallelism int) Option {
	return func(s *Scheduler) {
		if parallelism <= 0 {
			parallelism = DefaultParallelism
		}

		s.parallelism = parallelism
	}
}

// WithMaxBuildIterations overrides the cap from the workspace description.
func WithMaxBuildIterations(n int) Option {
	return func(s *Scheduler) {
		s.maxIterations = n
	}
}

func WithPropagateRebuild(propagate bool) Option {
	return func(s *Scheduler) {
		s.policy.PropagateRebuild = propagate
	}
}

func WithProcessOtherBuilders(process bool) Option {
	return func(s *Scheduler) {
		s.policy.ProcessOtherBuilders = process
	}
}

// WithEarlyExit lets later passes skip configs nothing changed for.
func WithEarlyExit(earlyExit bool) Option {
	return func(s *Scheduler) {
		s.policy.EarlyExit = earlyExit
	}
}

// WithRuleManager shares a rule manager between schedulers of one workspace.
func WithRuleManager(rules *rule.Manager) Option {
	return func(s *Scheduler) {
		s.rules = rules
	}
}

type instanceKey struct {
	cfg     workspace.BuildConfig
	builder string
	index   int
}

// Scheduler builds configs of a workspace. It keeps builder instances and their interesting
// projects between invocations.
type Scheduler struct {
	ws          *workspace.Workspace
	registry    *builder.Registry
	rules       *rule.Manager
	logger      log.Logger
	instances   *xsync.MapOf[instanceKey, builder.Builder]
	interesting *xsync.MapOf[delta.Cursor, []string]
	policy      rebuild.Policy
	// maxIterations overrides the workspace description when positive.
	maxIterations int
	parallelism   int
}

// New returns a scheduler building ws with the builders of registry.
func New(ws *workspace.Workspace, registry *builder.Registry, logger log.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		ws:          ws,
		registry:    registry,
		logger:      logger,
		rules:       rule.NewManager(),
		instances:   xsync.NewMapOf[instanceKey, builder.Builder](),
		interesting: xsync.NewMapOf[delta.Cursor, []string](),
		parallelism: DefaultParallelism,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Build builds the configs. With resolveReferences every config they reference, directly or
// not, is built first; otherwise only the configs themselves are built, in dependency order.
func (s *Scheduler) Build(ctx context.Context, configs workspace.BuildConfigs, trigger workspace.Trigger, resolveReferences bool) *Status {
	return s.invoke(ctx, configs, trigger, resolveReferences, false)
}

// BuildWorkspace builds the active config of every open project.
func (s *Scheduler) BuildWorkspace(ctx context.Context, trigger workspace.Trigger) *Status {
	return s.invoke(ctx, s.ws.ActiveConfigs(), trigger, true, false)
}

// BuildConfig builds a single config directly. Its builders get a context without references.
func (s *Scheduler) BuildConfig(ctx context.Context, cfg workspace.BuildConfig, trigger workspace.Trigger) *Status {
	return s.invoke(ctx, workspace.BuildConfigs{cfg}, trigger, false, true)
}

// Clean runs a clean build of the whole workspace.
func (s *Scheduler) Clean(ctx context.Context) *Status {
	return s.BuildWorkspace(ctx, workspace.CleanBuild)
}

func (s *Scheduler) invoke(ctx context.Context, configs workspace.BuildConfigs, trigger workspace.Trigger, resolveReferences, contextless bool) *Status {
	id := uuid.NewString()
	status := newStatus(id, trigger)

	desc := s.ws.Description()

	policy := s.policy
	policy.MaxIterations = desc.MaxBuildIterations

	if s.maxIterations > 0 {
		policy.MaxIterations = s.maxIterations
	}

	inv := &invocation{
		scheduler:   s,
		status:      status,
		controller:  rebuild.NewController(policy),
		logger:      s.logger.WithField(log.FieldKeyInvocation, id[:8]),
		roots:       configs,
		trigger:     trigger,
		resolveRefs: resolveReferences,
		contextless: contextless,
		explicit:    desc.BuildOrder,
	}

	if trigger == workspace.AutoBuild && !desc.AutoBuild {
		inv.logger.Debugf("Auto build is disabled, nothing to do")
		status.setState(StateComplete)

		return status
	}

	inv.run(ctx)

	return status
}

func (s *Scheduler) instance(cfg workspace.BuildConfig, index int, cmd workspace.Command) (_ builder.Builder, err error) {
	key := instanceKey{cfg: cfg, builder: cmd.BuilderID, index: index}

	if b, ok := s.instances.Load(key); ok {
		return b, nil
	}

	defer errors.Recover(func(cause error) { err = cause })

	b, err := s.registry.New(cmd)
	if err != nil {
		return nil, err
	}

	actual, _ := s.instances.LoadOrStore(key, b)

	return actual, nil
}
