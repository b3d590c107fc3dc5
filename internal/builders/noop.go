package builders

import (
	"context"
	"time"

	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/rule"
	"github.com/weavebuild/weave/internal/workspace"
)

// NoopSettings are the arguments of the noop builder.
type NoopSettings struct {
	Rule string `mapstructure:"rule"`
	// Warning is reported on every build.
	Warning string        `mapstructure:"warning"`
	Fail    string        `mapstructure:"fail"`
	Delay   time.Duration `mapstructure:"delay"`
	// Rebuilds asks for the project to be built again until the given iteration.
	Rebuilds int `mapstructure:"rebuilds"`
}

// Noop logs what it was asked to build. It is meant for trying out build specs.
type Noop struct {
	settings NoopSettings
}

func NewNoop(cmd workspace.Command) (builder.Builder, error) {
	settings := NoopSettings{Rule: "none"}

	if err := decodeArgs(cmd.Args, &settings); err != nil {
		return nil, err
	}

	return &Noop{settings: settings}, nil
}

func (noop *Noop) Rule(workspace.Trigger, map[string]string) rule.Rule {
	return rule.Parse(noop.settings.Rule)
}

func (noop *Noop) Build(ctx context.Context, req *builder.Request) (*builder.Result, error) {
	logger := req.Logger

	logger.Infof("%s build of %s, pass %d iteration %d", req.Trigger, req.Config, req.Pass, req.Iteration)

	if req.Delta != nil {
		for _, change := range req.Delta.Changes {
			logger.Infof("  %s %s", change.Kind, change.Path)
		}

		for project, changes := range req.Delta.Related {
			for _, change := range changes {
				logger.Infof("  %s %s (%s)", change.Kind, change.Path, project)
			}
		}
	}

	if noop.settings.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, errors.New(ctx.Err())
		case <-time.After(noop.settings.Delay):
		}
	}

	if noop.settings.Fail != "" {
		return nil, errors.New(noop.settings.Fail)
	}

	res := &builder.Result{NeedRebuild: req.Iteration < noop.settings.Rebuilds}

	if noop.settings.Warning != "" {
		res.Warnings = append(res.Warnings, noop.settings.Warning)
	}

	return res, nil
}

func (noop *Noop) Clean(_ context.Context, req *builder.Request) error {
	req.Logger.Infof("Cleaning %s", req.Config)
	return nil
}
