package build

import (
	"context"

	"github.com/weavebuild/weave/cli/commands/common"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/scheduler"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/options"
)

// Trigger returns the trigger the flags select. At most one may be set.
func (cmdOpts *Options) Trigger() (workspace.Trigger, error) {
	trigger := workspace.IncrementalBuild
	set := 0

	for flagTrigger, on := range map[workspace.Trigger]bool{
		workspace.FullBuild:  cmdOpts.Full,
		workspace.CleanBuild: cmdOpts.Clean,
		workspace.AutoBuild:  cmdOpts.Auto,
	} {
		if on {
			trigger = flagTrigger
			set++
		}
	}

	if set > 1 {
		return 0, errors.Errorf("only one of --%s, --%s and --%s can be set", FullFlagName, CleanFlagName, AutoFlagName)
	}

	return trigger, nil
}

// Run builds the configs in args, or the whole workspace without args.
func Run(ctx context.Context, opts *options.WeaveOptions, cmdOpts *Options, args []string) error {
	trigger, err := cmdOpts.Trigger()
	if err != nil {
		return err
	}

	session, err := common.NewSession(ctx, opts)
	if err != nil {
		return err
	}

	var status *scheduler.Status

	err = session.WithLock(ctx, func(ctx context.Context) error {
		if len(args) == 0 {
			status = session.Scheduler.BuildWorkspace(ctx, trigger)
		} else {
			status = session.Scheduler.Build(ctx, common.ParseConfigs(args), trigger, !cmdOpts.NoReferences)
		}

		return nil
	})
	if err != nil {
		return err
	}

	common.NewReporter(opts.Writer, opts.DisableLogColors).Status(status)

	return common.ExitError(status)
}
