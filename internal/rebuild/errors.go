package rebuild

import (
	"fmt"
	"strings"

	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
)

// NonConvergenceError is reported when a rebuild loop hits its cap with requests left.
type NonConvergenceError struct {
	Configs    workspace.BuildConfigs
	Iterations int
	// Workspace is true for the pass loop, false for a project loop.
	Workspace bool
}

func (err NonConvergenceError) Error() string {
	if err.Workspace {
		return fmt.Sprintf("build did not converge after %d passes, rebuild still requested for %s",
			err.Iterations, strings.Join(err.Configs.Strings(), ", "))
	}

	return fmt.Sprintf("build of %s did not converge after %d iterations",
		strings.Join(err.Configs.Strings(), ", "), err.Iterations)
}

func NewProjectNonConvergenceError(cfg workspace.BuildConfig, iterations int) error {
	return errors.New(NonConvergenceError{Configs: workspace.BuildConfigs{cfg}, Iterations: iterations})
}

func NewWorkspaceNonConvergenceError(passes int, configs workspace.BuildConfigs) error {
	return errors.New(NonConvergenceError{Configs: configs, Iterations: passes, Workspace: true})
}
