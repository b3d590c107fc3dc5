// Package build implements `weave build`.
package build

import (
	"github.com/urfave/cli/v2"
	"github.com/weavebuild/weave/options"
)

const (
	CommandName = "build"

	FullFlagName         = "full"
	CleanFlagName        = "clean"
	AutoFlagName         = "auto"
	NoReferencesFlagName = "no-references"
)

// Options are the flags of the build command.
type Options struct {
	Full         bool
	Clean        bool
	Auto         bool
	NoReferences bool
}

func NewFlags(cmdOpts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        FullFlagName,
			Destination: &cmdOpts.Full,
			Usage:       "Ignore recorded changes and build everything.",
		},
		&cli.BoolFlag{
			Name:        CleanFlagName,
			Destination: &cmdOpts.Clean,
			Usage:       "Clean the outputs instead of building.",
		},
		&cli.BoolFlag{
			Name:        AutoFlagName,
			Destination: &cmdOpts.Auto,
			Usage:       "Run an automatic build. Does nothing when the workspace disables auto builds.",
		},
		&cli.BoolFlag{
			Name:        NoReferencesFlagName,
			Destination: &cmdOpts.NoReferences,
			Usage:       "Build only the named configs, not the configs they reference.",
		},
	}
}

func NewCommand(opts *options.WeaveOptions) *cli.Command {
	cmdOpts := &Options{}

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Build the workspace or the given configs and everything they reference.",
		ArgsUsage: "[PROJECT[:VARIANT]...]",
		Flags:     NewFlags(cmdOpts),
		Action: func(ctx *cli.Context) error {
			return Run(ctx.Context, opts, cmdOpts, ctx.Args().Slice())
		},
	}
}
