package scheduler

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/weavebuild/weave/internal/buildctx"
	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/delta"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/order"
	"github.com/weavebuild/weave/internal/rebuild"
	"github.com/weavebuild/weave/internal/rule"
	"github.com/weavebuild/weave/internal/worker"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/pkg/log"
	"github.com/weavebuild/weave/telemetry"
)

// invocation is the state of one Build call. Nothing in it outlives the call.
type invocation struct {
	scheduler  *Scheduler
	status     *Status
	controller *rebuild.Controller
	logger     log.Logger
	result     *order.Result
	assembler  *buildctx.Assembler
	// passSet holds the configs of the running pass. It is only written between passes.
	passSet     map[workspace.BuildConfig]struct{}
	knotsSeen   map[string]struct{}
	roots       workspace.BuildConfigs
	explicit    []string
	trigger     workspace.Trigger
	resolveRefs bool
	contextless bool
}

// plan is what a config needs to build in a pass.
type plan struct {
	err      error
	ctx      *buildctx.Context
	cfg      workspace.BuildConfig
	commands []workspace.Command
	// indices are the positions of the commands in the build spec.
	indices  []int
	builders []builder.Builder
	rule     rule.Rule
}

func (inv *invocation) run(ctx context.Context) {
	inv.status.setState(StateRunning)
	inv.logger.Debugf("Starting %s build of %s", inv.trigger, strings.Join(inv.roots.Strings(), ", "))

	if err := inv.computeOrder(); err != nil {
		inv.fail(err)
		return
	}

	for {
		targets := inv.controller.StartPass()
		pass := inv.controller.Pass()
		inv.status.setPasses(pass)

		configs, err := inv.passConfigs(pass, targets)
		if err != nil {
			inv.fail(err)
			return
		}

		if len(configs) > 0 {
			inv.runPass(ctx, pass, configs)
		}

		if ctx.Err() != nil {
			inv.logger.Warnf("Build cancelled during pass %d", pass)
			inv.status.setState(StateCancelled)

			return
		}

		more, err := inv.controller.EndPass()
		if err != nil {
			inv.logger.Warnf("%v", err)
			inv.status.addWarning(err)

			break
		}

		if !more {
			break
		}
	}

	if inv.status.Severity() == SeverityError {
		inv.status.setState(StateFailed)
		return
	}

	inv.status.setState(StateComplete)
}

func (inv *invocation) fail(err error) {
	inv.logger.Errorf("Build failed: %v", err)
	inv.status.setFatal(err)
	inv.status.setState(StateFailed)
}

func (inv *invocation) computeOrder() error {
	ws := inv.scheduler.ws

	if inv.contextless {
		var resolved workspace.BuildConfigs

		for _, root := range inv.roots {
			if cfg, ok := ws.Resolve(root); ok {
				resolved = append(resolved, cfg)
			}
		}

		resolved = resolved.Dedup()
		inv.result = &order.Result{Configs: resolved, Roots: resolved}
		inv.status.setOrder(resolved, nil)

		return nil
	}

	res, err := order.NewComputer(ws, inv.explicit).Compute(inv.roots, inv.resolveRefs)
	if err != nil {
		return err
	}

	inv.result = res
	inv.assembler = buildctx.NewAssembler(res)
	inv.status.setOrder(res.Configs, res.Knots)

	if inv.knotsSeen == nil {
		inv.knotsSeen = make(map[string]struct{})
	}

	for _, knot := range res.Knots {
		key := strings.Join(knot.Strings(), ",")
		if _, ok := inv.knotsSeen[key]; ok {
			continue
		}

		inv.knotsSeen[key] = struct{}{}

		err := NewCycleDetectedError(knot)
		inv.logger.Warnf("%v", err)
		inv.status.addWarning(err)
	}

	return nil
}

// passConfigs returns the configs of a pass. Later passes start at the first requested
// config; requested configs that are not part of the order yet are added as roots.
func (inv *invocation) passConfigs(pass int, targets workspace.BuildConfigs) (workspace.BuildConfigs, error) {
	if pass == 1 {
		return inv.result.Configs, nil
	}

	var missing workspace.BuildConfigs

	for _, target := range targets {
		if !inv.result.Configs.Contains(target) {
			missing = append(missing, target)
		}
	}

	if len(missing) > 0 {
		inv.logger.Debugf("Adding %s to the build", strings.Join(missing.Strings(), ", "))
		inv.roots = append(inv.roots, missing...)

		if err := inv.computeOrder(); err != nil {
			return nil, err
		}
	}

	start := -1

	for _, target := range targets {
		if pos := inv.result.Position(target); pos >= 0 && (start < 0 || pos < start) {
			start = pos
		}
	}

	if start < 0 {
		return nil, nil
	}

	return inv.result.Configs[start:], nil
}

func (inv *invocation) contextFor(cfg workspace.BuildConfig) *buildctx.Context {
	if inv.assembler == nil {
		return buildctx.Empty(cfg)
	}

	return inv.assembler.Context(cfg)
}

func (inv *invocation) runPass(ctx context.Context, pass int, configs workspace.BuildConfigs) {
	logger := inv.logger.WithField(log.FieldKeyPass, pass)

	contexts := make(map[workspace.BuildConfig]*buildctx.Context, len(configs))
	inv.passSet = make(map[workspace.BuildConfig]struct{}, len(configs))

	for _, cfg := range configs {
		contexts[cfg] = inv.contextFor(cfg)
		inv.passSet[cfg] = struct{}{}
	}

	attrs := map[string]any{
		"pass":    pass,
		"configs": len(configs),
		"trigger": inv.trigger.String(),
	}

	_ = telemetry.TelemeterFromContext(ctx).Collect(ctx, "build_pass", attrs, func(ctx context.Context) error {
		q := newPassQueue(configs, func(cfg workspace.BuildConfig) workspace.BuildConfigs {
			return contexts[cfg].ReferencedConfigs()
		}, inv.explicit)

		logger.Debugf("Pass %d over %d configs", pass, len(configs))

		if inv.scheduler.parallelism <= 1 {
			inv.runSerial(ctx, pass, q, contexts, logger)
		} else {
			inv.runParallel(ctx, pass, q, contexts, logger)
		}

		return nil
	})
}

// runSerial builds the pass in order while holding the union of every rule the pass needs,
// so no other build can slip in between two configs.
func (inv *invocation) runSerial(ctx context.Context, pass int, q *passQueue, contexts map[workspace.BuildConfig]*buildctx.Context, logger log.Logger) {
	plans := make([]*plan, len(q.entries))
	union := rule.None()

	for i, e := range q.entries {
		plans[i] = inv.plan(e.cfg, contexts[e.cfg])
		union = union.Union(plans[i].rule)
	}

	_ = inv.scheduler.rules.Run(ctx, union, func(ctx context.Context) error {
		for i, e := range q.entries {
			if ctx.Err() != nil {
				return nil
			}

			if e.status == statusAncestorFailed {
				continue
			}

			ok := inv.buildConfig(ctx, pass, plans[i], logger)

			for _, skipped := range q.done(e, ok) {
				inv.skip(skipped, pass, logger)
			}
		}

		return nil
	})
}

// runParallel builds every config as soon as the configs it references are built, each under
// its own rule.
func (inv *invocation) runParallel(ctx context.Context, pass int, q *passQueue, contexts map[workspace.BuildConfig]*buildctx.Context, logger log.Logger) {
	pool := worker.NewWorkerPool(inv.scheduler.parallelism)
	readyCh := make(chan struct{}, 1)

	logger.Debugf("Building with up to %d workers", pool.MaxWorkers())

	signal := func() {
		select {
		case readyCh <- struct{}{}:
		default:
		}
	}

	for ctx.Err() == nil {
		for _, e := range q.next() {
			p := inv.plan(e.cfg, contexts[e.cfg])

			pool.Submit(ctx, func(ctx context.Context) error {
				defer signal()

				release, err := inv.scheduler.rules.Acquire(ctx, p.rule)
				if err != nil {
					return nil
				}

				ok := inv.buildConfig(ctx, pass, p, logger)

				release()

				for _, skipped := range q.done(e, ok) {
					inv.skip(skipped, pass, logger)
				}

				return nil
			})
		}

		if q.empty() {
			break
		}

		select {
		case <-readyCh:
		case <-ctx.Done():
		}
	}

	_ = pool.GracefulStop()
}

func (inv *invocation) plan(cfg workspace.BuildConfig, bctx *buildctx.Context) *plan {
	p := &plan{cfg: cfg, ctx: bctx}

	for i, cmd := range inv.scheduler.ws.BuildSpec(cfg.Project) {
		if !cmd.Triggers.Enabled(inv.trigger) {
			continue
		}

		b, err := inv.scheduler.instance(cfg, i, cmd)
		if err != nil {
			p.err = NewBuilderFailedError(cfg, cmd.BuilderID, err)
			return p
		}

		r, err := builderRule(b, inv.trigger, cmd.Args)
		if err != nil {
			p.err = NewBuilderFailedError(cfg, cmd.BuilderID, err)
			return p
		}

		p.commands = append(p.commands, cmd)
		p.indices = append(p.indices, i)
		p.builders = append(p.builders, b)
		p.rule = p.rule.Union(r.Resolve(cfg.Project))
	}

	return p
}

func builderRule(b builder.Builder, trigger workspace.Trigger, args map[string]string) (r rule.Rule, err error) {
	defer errors.Recover(func(cause error) { err = cause })

	return b.Rule(trigger, maps.Clone(args)), nil
}

func (inv *invocation) skip(e *entry, pass int, logger log.Logger) {
	err := NewDependencyFailedError(e.cfg, e.failedDep.cfg)
	logger.WithField(log.FieldKeyConfig, e.cfg.String()).Warnf("%v", err)

	inv.status.startConfig(e.cfg, pass)
	inv.status.updateConfig(e.cfg, func(res *ConfigResult) {
		res.State = ConfigSkipped
		res.Errors = append(res.Errors, err)
	})
}

// buildConfig runs the builder chain of one config and reports whether it succeeded.
func (inv *invocation) buildConfig(ctx context.Context, pass int, p *plan, logger log.Logger) bool {
	cfg := p.cfg
	logger = logger.WithField(log.FieldKeyConfig, cfg.String())

	if inv.controller.Skip(cfg, p.ctx.ReferencedConfigs()) {
		logger.Debugf("Nothing it depends on was rebuilt, skipping")
		return true
	}

	inv.controller.Begin(cfg)
	inv.status.startConfig(cfg, pass)

	if p.err != nil {
		logger.Errorf("%v", p.err)
		inv.status.updateConfig(cfg, func(res *ConfigResult) {
			res.State = ConfigFailed
			res.Errors = append(res.Errors, p.err)
		})

		return false
	}

	if len(p.builders) == 0 {
		logger.Debugf("No builder enabled for %s builds", inv.trigger)
		return true
	}

	logger.Infof("Building %s", cfg)

	attrs := map[string]any{
		"config":   cfg.String(),
		"pass":     pass,
		"builders": len(p.builders),
	}

	_ = telemetry.TelemeterFromContext(ctx).Collect(ctx, "build_config", attrs, func(ctx context.Context) error {
		if inv.trigger == workspace.CleanBuild {
			inv.clean(ctx, pass, p, logger)
			return nil
		}

		policy := inv.controller.Policy()

		_, err := rebuild.RunProjectLoop(ctx, policy, cfg, len(p.builders), func(ctx context.Context, idx, iteration int) bool {
			return inv.runBuilder(ctx, pass, iteration, p, idx, logger)
		})
		if err != nil {
			logger.Warnf("%v", err)
			inv.status.updateConfig(cfg, func(res *ConfigResult) {
				res.Warnings = append(res.Warnings, err.Error())
			})
		}

		return nil
	})

	inv.controller.Rebuilt(cfg)

	state, _ := inv.status.configState(cfg)

	return state == ConfigSucceeded
}

func cursorFor(p *plan, idx int) delta.Cursor {
	return delta.Cursor{
		Owner:   p.cfg.String(),
		Builder: fmt.Sprintf("%d:%s", p.indices[idx], p.commands[idx].BuilderID),
	}
}

// runBuilder runs one builder and reports whether it asked for its chain to run again.
func (inv *invocation) runBuilder(ctx context.Context, pass, iteration int, p *plan, idx int, logger log.Logger) bool {
	var (
		s       = inv.scheduler
		cmd     = p.commands[idx]
		cfg     = p.cfg
		cursor  = cursorFor(p, idx)
		tracker = s.ws.Tracker()
		trigger = inv.trigger
	)

	logger = logger.WithField(log.FieldKeyBuilder, cmd.BuilderID)

	if trigger.IsIncremental() && !tracker.HasState(cursor) {
		logger.Debugf("No previous build, running a full build")

		trigger = workspace.FullBuild
	}

	// Taken after the rule is held: anything recorded later is left for the next build.
	snapshot, release := tracker.Hold()
	defer release()

	var changes *delta.Delta

	if trigger.IsIncremental() {
		related, _ := s.interesting.Load(cursor)
		changes = tracker.Delta(cursor, cfg.Project, related, snapshot)

		if cmd.SkipOnEmptyDelta && changes.Empty() {
			logger.Debugf("Nothing changed, skipping")
			tracker.Commit(cursor, snapshot)

			return false
		}
	}

	req := &builder.Request{
		Context:   p.ctx,
		Delta:     changes,
		Args:      maps.Clone(cmd.Args),
		Logger:    logger,
		Config:    cfg,
		Trigger:   trigger,
		Pass:      pass,
		Iteration: iteration,
	}

	inv.status.updateConfig(cfg, func(res *ConfigResult) { res.Builds++ })

	attrs := map[string]any{
		"config":    cfg.String(),
		"builder":   cmd.BuilderID,
		"trigger":   trigger.String(),
		"iteration": iteration,
	}

	var result *builder.Result

	err := telemetry.TelemeterFromContext(ctx).Collect(ctx, "run_builder", attrs, func(ctx context.Context) (err error) {
		defer errors.Recover(func(cause error) { err = cause })

		result, err = p.builders[idx].Build(ctx, req)

		return err
	})
	if err != nil {
		if errors.IsContextCanceled(err) && ctx.Err() != nil {
			logger.Debugf("Builder stopped: %v", err)
			return false
		}

		logger.Errorf("Build failed: %v", err)
		inv.status.updateConfig(cfg, func(res *ConfigResult) {
			res.State = ConfigFailed
			res.Errors = append(res.Errors, NewBuilderFailedError(cfg, cmd.BuilderID, err))
		})

		return false
	}

	tracker.Commit(cursor, snapshot)

	if result == nil {
		return false
	}

	inv.handleResult(cfg, cursor, result, logger)

	return result.NeedRebuild
}

func (inv *invocation) handleResult(cfg workspace.BuildConfig, cursor delta.Cursor, result *builder.Result, logger log.Logger) {
	s := inv.scheduler

	if len(result.InterestingProjects) > 0 {
		s.interesting.Store(cursor, slices.Clone(result.InterestingProjects))
	} else {
		s.interesting.Delete(cursor)
	}

	if len(result.Warnings) > 0 {
		for _, warning := range result.Warnings {
			logger.Warnf("%s", warning)
		}

		inv.status.updateConfig(cfg, func(res *ConfigResult) {
			res.Warnings = append(res.Warnings, result.Warnings...)
		})
	}

	for _, req := range result.RebuildRequests {
		target, ok := s.ws.Resolve(req.Target)
		if !ok {
			logger.Debugf("Ignoring rebuild request for %s: not part of the workspace", req.Target)
			continue
		}

		_, inPass := inv.passSet[target]
		inv.controller.Request(target, req.Count, inPass)

		logger.Debugf("Rebuild of %s requested", target)
	}
}

func (inv *invocation) clean(ctx context.Context, pass int, p *plan, logger log.Logger) {
	s := inv.scheduler

	for idx, b := range p.builders {
		cursor := cursorFor(p, idx)
		blog := logger.WithField(log.FieldKeyBuilder, p.commands[idx].BuilderID)

		req := &builder.Request{
			Context: p.ctx,
			Args:    maps.Clone(p.commands[idx].Args),
			Logger:  blog,
			Config:  p.cfg,
			Trigger: workspace.CleanBuild,
			Pass:    pass,
		}

		inv.status.updateConfig(p.cfg, func(res *ConfigResult) { res.Builds++ })

		err := telemetry.TelemeterFromContext(ctx).Collect(ctx, "clean_builder", map[string]any{"config": p.cfg.String()}, func(ctx context.Context) (err error) {
			defer errors.Recover(func(cause error) { err = cause })

			return b.Clean(ctx, req)
		})

		s.ws.Tracker().Forget(cursor)
		s.interesting.Delete(cursor)

		if err != nil {
			blog.Errorf("Clean failed: %v", err)
			inv.status.updateConfig(p.cfg, func(res *ConfigResult) {
				res.State = ConfigFailed
				res.Errors = append(res.Errors, NewBuilderFailedError(p.cfg, p.commands[idx].BuilderID, err))
			})
		}
	}
}
