// Package rebuild bounds the two rebuild loops of a build invocation.
//
// The project loop re-runs the builder chain of one config while a builder asks for it. The
// workspace loop repeats the ordered pass while builders ask for other configs to be rebuilt.
// Both stop at the configured number of iterations and report non-convergence.
package rebuild

import (
	"slices"
	"sync"

	"github.com/weavebuild/weave/internal/workspace"
)

// Policy tunes the rebuild loops.
type Policy struct {
	MaxIterations int
	// PropagateRebuild re-runs every builder of a project when one asks for a rebuild.
	PropagateRebuild bool
	// ProcessOtherBuilders lets the rest of a cycle run after a rebuild request and honors
	// requests for configs that were not built yet within the same pass.
	ProcessOtherBuilders bool
	// EarlyExit skips configs in later passes when nothing they depend on was rebuilt.
	EarlyExit bool
}

// Controller keeps the rebuild requests of one invocation. It is safe for concurrent use.
type Controller struct {
	// scheduled are requests honored in the current pass, pending the ones for the next.
	scheduled map[workspace.BuildConfig]int
	pending   map[workspace.BuildConfig]int
	started   map[workspace.BuildConfig]struct{}
	rebuilt   map[workspace.BuildConfig]struct{}
	policy    Policy
	pass      int
	mu        sync.Mutex
}

// NewController returns a controller with no requests.
func NewController(policy Policy) *Controller {
	if policy.MaxIterations <= 0 {
		policy.MaxIterations = workspace.DefaultMaxBuildIterations
	}

	return &Controller{
		scheduled: make(map[workspace.BuildConfig]int),
		pending:   make(map[workspace.BuildConfig]int),
		started:   make(map[workspace.BuildConfig]struct{}),
		rebuilt:   make(map[workspace.BuildConfig]struct{}),
		policy:    policy,
	}
}

func (c *Controller) Policy() Policy {
	return c.policy
}

// Pass returns the number of the current pass, starting at 1.
func (c *Controller) Pass() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pass
}

// StartPass begins a pass and returns the configs requested for it.
func (c *Controller) StartPass() workspace.BuildConfigs {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pass++
	c.scheduled = c.pending
	c.pending = make(map[workspace.BuildConfig]int)
	c.started = make(map[workspace.BuildConfig]struct{})
	c.rebuilt = make(map[workspace.BuildConfig]struct{})

	targets := make(workspace.BuildConfigs, 0, len(c.scheduled))
	for cfg := range c.scheduled {
		targets = append(targets, cfg)
	}

	slices.SortFunc(targets, compareConfigs)

	return targets
}

// Request records a request to build target count more times. inPass tells whether the target
// is part of the current pass order.
func (c *Controller) Request(target workspace.BuildConfig, count int, inPass bool) {
	if count < 1 {
		count = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, started := c.started[target]

	if c.policy.ProcessOtherBuilders && inPass && !started {
		c.scheduled[target] = max(c.scheduled[target], count)
		return
	}

	c.pending[target] = max(c.pending[target], count)
}

// Begin marks cfg as started in this pass and consumes one of its scheduled requests.
// It returns whether the config was requested.
func (c *Controller) Begin(cfg workspace.BuildConfig) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.started[cfg] = struct{}{}

	count, ok := c.scheduled[cfg]
	if !ok {
		return false
	}

	delete(c.scheduled, cfg)

	if count > 1 {
		c.pending[cfg] = max(c.pending[cfg], count-1)
	}

	return true
}

// Rebuilt marks cfg as built in this pass.
func (c *Controller) Rebuilt(cfg workspace.BuildConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rebuilt[cfg] = struct{}{}
}

// Skip reports whether early exit lets cfg be skipped: a later pass, no request for cfg, and
// none of the configs it references rebuilt in this pass.
func (c *Controller) Skip(cfg workspace.BuildConfig, referenced workspace.BuildConfigs) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.policy.EarlyExit || c.pass <= 1 {
		return false
	}

	if _, ok := c.scheduled[cfg]; ok {
		return false
	}

	for _, ref := range referenced {
		if _, ok := c.rebuilt[ref]; ok {
			return false
		}
	}

	return true
}

// EndPass closes the pass. It returns whether another pass is needed, or a
// NonConvergenceError when requests are left but the cap has been reached.
func (c *Controller) EndPass() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for cfg, count := range c.scheduled {
		c.pending[cfg] = max(c.pending[cfg], count)
	}

	c.scheduled = make(map[workspace.BuildConfig]int)

	if len(c.pending) == 0 {
		return false, nil
	}

	if c.pass >= c.policy.MaxIterations {
		targets := make(workspace.BuildConfigs, 0, len(c.pending))
		for cfg := range c.pending {
			targets = append(targets, cfg)
		}

		slices.SortFunc(targets, compareConfigs)

		return false, NewWorkspaceNonConvergenceError(c.pass, targets)
	}

	return true, nil
}

func compareConfigs(a, b workspace.BuildConfig) int {
	switch {
	case a.Project < b.Project:
		return -1
	case a.Project > b.Project:
		return 1
	case a.Variant < b.Variant:
		return -1
	case a.Variant > b.Variant:
		return 1
	}

	return 0
}
