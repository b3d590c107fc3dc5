// Package order implements `weave order`, which prints the build order without building.
package order

import (
	"github.com/urfave/cli/v2"
	"github.com/weavebuild/weave/cli/commands/common"
	"github.com/weavebuild/weave/options"
)

const (
	CommandName = "order"

	IncludeFlagName      = "include"
	ExcludeFlagName      = "exclude"
	NoReferencesFlagName = "no-references"
	FormatFlagName       = "format"
)

type Options struct {
	Format       string
	NoReferences bool
}

func NewFlags(opts *options.WeaveOptions, cmdOpts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  IncludeFlagName,
			Usage: "Only list projects matching the glob. Can be repeated.",
			Action: func(_ *cli.Context, patterns []string) error {
				opts.Include = append(opts.Include, patterns...)
				return nil
			},
		},
		&cli.StringSliceFlag{
			Name:  ExcludeFlagName,
			Usage: "Leave out projects matching the glob. Can be repeated; wins over --include.",
			Action: func(_ *cli.Context, patterns []string) error {
				opts.Exclude = append(opts.Exclude, patterns...)
				return nil
			},
		},
		&cli.BoolFlag{
			Name:        NoReferencesFlagName,
			Destination: &cmdOpts.NoReferences,
			Usage:       "Order only the named configs.",
		},
		&cli.StringFlag{
			Name:        FormatFlagName,
			Destination: &cmdOpts.Format,
			Value:       common.FormatText,
			Usage:       "Output format: text, json or yaml.",
		},
	}
}

func NewCommand(opts *options.WeaveOptions) *cli.Command {
	cmdOpts := &Options{}

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Print the build order of the workspace or of the given configs.",
		ArgsUsage: "[PROJECT[:VARIANT]...]",
		Flags:     NewFlags(opts, cmdOpts),
		Action: func(ctx *cli.Context) error {
			return Run(ctx.Context, opts, cmdOpts, ctx.Args().Slice())
		},
	}
}
