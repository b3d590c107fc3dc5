// Package clean implements `weave clean`.
package clean

import (
	"context"

	"github.com/urfave/cli/v2"
	"github.com/weavebuild/weave/cli/commands/common"
	"github.com/weavebuild/weave/internal/scheduler"
	"github.com/weavebuild/weave/options"
)

const CommandName = "clean"

func NewCommand(opts *options.WeaveOptions) *cli.Command {
	return &cli.Command{
		Name:  CommandName,
		Usage: "Clean the outputs of every project and forget their build state.",
		Action: func(ctx *cli.Context) error {
			return Run(ctx.Context, opts)
		},
	}
}

func Run(ctx context.Context, opts *options.WeaveOptions) error {
	session, err := common.NewSession(ctx, opts)
	if err != nil {
		return err
	}

	var status *scheduler.Status

	if err := session.WithLock(ctx, func(ctx context.Context) error {
		status = session.Scheduler.Clean(ctx)
		return nil
	}); err != nil {
		return err
	}

	common.NewReporter(opts.Writer, opts.DisableLogColors).Status(status)

	return common.ExitError(status)
}
