package scheduler

import (
	"slices"
	"sync"

	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
)

// State is the lifecycle state of an invocation.
type State int

const (
	StatePending State = iota
	StateRunning
	StateComplete
	StateFailed
	StateCancelled
)

func (state State) String() string {
	switch state {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}

	return "unknown"
}

// Severity is the overall outcome of an invocation. Higher is worse.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
	SeverityCancelled
)

func (severity Severity) String() string {
	switch severity {
	case SeverityOK:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCancelled:
		return "CANCELLED"
	}

	return "UNKNOWN"
}

// ExitCode maps the severity to a process exit code.
func (severity Severity) ExitCode() int {
	switch severity {
	case SeverityOK, SeverityWarning:
		return 0
	case SeverityCancelled:
		return 2
	}

	return 1
}

// ConfigState is the outcome of the last build of a config.
type ConfigState int

const (
	ConfigSucceeded ConfigState = iota
	ConfigFailed
	// ConfigSkipped means a config it references failed.
	ConfigSkipped
)

func (state ConfigState) String() string {
	switch state {
	case ConfigSucceeded:
		return "succeeded"
	case ConfigFailed:
		return "failed"
	case ConfigSkipped:
		return "skipped"
	}

	return "unknown"
}

// ConfigResult is what happened to one config during an invocation. State, Errors and Warnings
// describe its last build; Builds counts builder runs over the whole invocation.
type ConfigResult struct {
	Errors   []error
	Warnings []string
	Config   workspace.BuildConfig
	State    ConfigState
	Builds   int
	Pass     int
}

// Status is the aggregated result of an invocation. It is safe for concurrent use.
type Status struct {
	results      map[workspace.BuildConfig]*ConfigResult
	fatal        error
	InvocationID string
	order        workspace.BuildConfigs
	knots        []workspace.BuildConfigs
	warnings     []error
	passes       int
	state        State
	Trigger      workspace.Trigger
	mu           sync.RWMutex
}

func newStatus(id string, trigger workspace.Trigger) *Status {
	return &Status{
		InvocationID: id,
		Trigger:      trigger,
		results:      make(map[workspace.BuildConfig]*ConfigResult),
	}
}

// State returns the lifecycle state.
func (status *Status) State() State {
	status.mu.RLock()
	defer status.mu.RUnlock()

	return status.state
}

// Order returns the last computed build order.
func (status *Status) Order() workspace.BuildConfigs {
	status.mu.RLock()
	defer status.mu.RUnlock()

	return slices.Clone(status.order)
}

// Knots returns the reference cycles found while ordering.
func (status *Status) Knots() []workspace.BuildConfigs {
	status.mu.RLock()
	defer status.mu.RUnlock()

	return slices.Clone(status.knots)
}

// Passes returns the number of passes run.
func (status *Status) Passes() int {
	status.mu.RLock()
	defer status.mu.RUnlock()

	return status.passes
}

// Warnings returns the invocation level warnings: cycles and non-convergence.
func (status *Status) Warnings() []error {
	status.mu.RLock()
	defer status.mu.RUnlock()

	return slices.Clone(status.warnings)
}

// Result returns the result of a config.
func (status *Status) Result(cfg workspace.BuildConfig) (ConfigResult, bool) {
	status.mu.RLock()
	defer status.mu.RUnlock()

	res, ok := status.results[cfg]
	if !ok {
		return ConfigResult{}, false
	}

	return *res, true
}

// Results returns the results in build order.
func (status *Status) Results() []ConfigResult {
	status.mu.RLock()
	defer status.mu.RUnlock()

	out := make([]ConfigResult, 0, len(status.results))

	for _, cfg := range status.order {
		if res, ok := status.results[cfg]; ok {
			out = append(out, *res)
		}
	}

	for cfg, res := range status.results {
		if !status.order.Contains(cfg) {
			out = append(out, *res)
		}
	}

	return out
}

// Failed returns the configs whose last build failed or was skipped.
func (status *Status) Failed() workspace.BuildConfigs {
	var failed workspace.BuildConfigs

	for _, res := range status.Results() {
		if res.State != ConfigSucceeded {
			failed = append(failed, res.Config)
		}
	}

	return failed
}

// Severity returns the overall outcome.
func (status *Status) Severity() Severity {
	status.mu.RLock()
	defer status.mu.RUnlock()

	if status.state == StateCancelled {
		return SeverityCancelled
	}

	if status.fatal != nil {
		return SeverityError
	}

	severity := SeverityOK

	if len(status.warnings) > 0 {
		severity = SeverityWarning
	}

	for _, res := range status.results {
		if res.State != ConfigSucceeded {
			return SeverityError
		}

		if len(res.Warnings) > 0 {
			severity = SeverityWarning
		}
	}

	return severity
}

// ExitCode maps the overall outcome to a process exit code.
func (status *Status) ExitCode() int {
	return status.Severity().ExitCode()
}

// Err aggregates the fatal error and the errors of every failed config.
func (status *Status) Err() error {
	errs := &errors.MultiError{}

	status.mu.RLock()
	fatal := status.fatal
	status.mu.RUnlock()

	errs = errs.Append(fatal)

	for _, res := range status.Results() {
		errs = errs.Append(res.Errors...)
	}

	return errs.ErrorOrNil()
}

func (status *Status) setState(state State) {
	status.mu.Lock()
	defer status.mu.Unlock()

	status.state = state
}

func (status *Status) setOrder(configs workspace.BuildConfigs, knots []workspace.BuildConfigs) {
	status.mu.Lock()
	defer status.mu.Unlock()

	status.order = slices.Clone(configs)
	status.knots = slices.Clone(knots)
}

func (status *Status) setPasses(passes int) {
	status.mu.Lock()
	defer status.mu.Unlock()

	status.passes = passes
}

func (status *Status) setFatal(err error) {
	status.mu.Lock()
	defer status.mu.Unlock()

	status.fatal = err
}

func (status *Status) addWarning(err error) {
	status.mu.Lock()
	defer status.mu.Unlock()

	status.warnings = append(status.warnings, err)
}

// startConfig resets the outcome of cfg for a new build and returns its result for update.
func (status *Status) startConfig(cfg workspace.BuildConfig, pass int) {
	status.mu.Lock()
	defer status.mu.Unlock()

	res, ok := status.results[cfg]
	if !ok {
		res = &ConfigResult{Config: cfg}
		status.results[cfg] = res
	}

	res.State = ConfigSucceeded
	res.Errors = nil
	res.Warnings = nil
	res.Pass = pass
}

func (status *Status) updateConfig(cfg workspace.BuildConfig, fn func(res *ConfigResult)) {
	status.mu.Lock()
	defer status.mu.Unlock()

	res, ok := status.results[cfg]
	if !ok {
		res = &ConfigResult{Config: cfg}
		status.results[cfg] = res
	}

	fn(res)
}

func (status *Status) configState(cfg workspace.BuildConfig) (ConfigState, bool) {
	status.mu.RLock()
	defer status.mu.RUnlock()

	res, ok := status.results[cfg]
	if !ok {
		return 0, false
	}

	return res.State, true
}
