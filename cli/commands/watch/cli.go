// Package watch implements `weave watch`, a long-running session that records changes read from
// stdin and runs automatic builds on a cron schedule.
package watch

import (
	"github.com/urfave/cli/v2"
	"github.com/weavebuild/weave/cli/flags"
	"github.com/weavebuild/weave/options"
)

const (
	CommandName = "watch"

	ScheduleFlagName = "schedule"
)

func NewFlags(opts *options.WeaveOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        ScheduleFlagName,
			EnvVars:     flags.EnvVars("watch-" + ScheduleFlagName),
			Destination: &opts.WatchSchedule,
			Value:       opts.WatchSchedule,
			Usage:       "Cron spec of the automatic builds, e.g. \"*/5 * * * *\" or \"@every 30s\".",
		},
	}
}

func NewCommand(opts *options.WeaveOptions) *cli.Command {
	return &cli.Command{
		Name:  CommandName,
		Usage: "Record changes from stdin and build automatically on a schedule.",
		Description: `Each line read from stdin is one of:

   touch PROJECT PATH [added|changed|removed]   record a change (default: changed)
   build [full|incremental|auto|clean]          build the workspace now (default: incremental)
   quit                                         stop watching`,
		Flags: NewFlags(opts),
		Action: func(ctx *cli.Context) error {
			return Run(ctx.Context, opts)
		},
	}
}
