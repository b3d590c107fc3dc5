package scheduler

import (
	"fmt"
	"strings"

	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
)

// BuilderFailedError wraps the error of a builder run.
type BuilderFailedError struct {
	Err     error
	Config  workspace.BuildConfig
	Builder string
}

func (err BuilderFailedError) Error() string {
	return fmt.Sprintf("builder %s failed for %s: %v", err.Builder, err.Config, err.Err)
}

func (err BuilderFailedError) Unwrap() error {
	return err.Err
}

func NewBuilderFailedError(cfg workspace.BuildConfig, builderID string, err error) error {
	return errors.New(BuilderFailedError{Config: cfg, Builder: builderID, Err: err})
}

// DependencyFailedError marks a config skipped because a config it references did not build.
type DependencyFailedError struct {
	Config     workspace.BuildConfig
	Dependency workspace.BuildConfig
}

func (err DependencyFailedError) Error() string {
	return fmt.Sprintf("%s was not built because %s failed", err.Config, err.Dependency)
}

func NewDependencyFailedError(cfg, dependency workspace.BuildConfig) error {
	return errors.New(DependencyFailedError{Config: cfg, Dependency: dependency})
}

// CycleDetectedError reports a knot of configs referencing each other. The build still runs.
type CycleDetectedError struct {
	Knot workspace.BuildConfigs
}

func (err CycleDetectedError) Error() string {
	return "reference cycle between " + strings.Join(err.Knot.Strings(), ", ")
}

func NewCycleDetectedError(knot workspace.BuildConfigs) error {
	return errors.New(CycleDetectedError{Knot: knot})
}
