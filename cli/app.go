// Package cli wires the weave commands into a urfave/cli application.
package cli

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"github.com/weavebuild/weave/cli/commands/build"
	"github.com/weavebuild/weave/cli/commands/clean"
	"github.com/weavebuild/weave/cli/commands/order"
	"github.com/weavebuild/weave/cli/commands/watch"
	"github.com/weavebuild/weave/cli/flags/global"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/options"
	"github.com/weavebuild/weave/pkg/env"
	"github.com/weavebuild/weave/pkg/log"
	"github.com/weavebuild/weave/telemetry"
)

const AppName = "weave"

// Version is set at build time with -ldflags "-X github.com/weavebuild/weave/cli.Version=...".
var Version = "dev"

// NewApp creates the weave CLI app.
func NewApp(opts *options.WeaveOptions) *cli.App {
	var telemeter *telemetry.Telemeter

	app := cli.NewApp()
	app.Name = AppName
	app.Usage = "Incremental builds of a workspace of interdependent projects."
	app.UsageText = "weave [global options] <command> [command options] [PROJECT[:VARIANT] ...]"
	app.Version = Version
	app.Writer = opts.Writer
	app.ErrWriter = opts.ErrWriter
	app.Flags = global.NewFlags(opts)
	app.Commands = []*cli.Command{
		build.NewCommand(opts),
		order.NewCommand(opts),
		clean.NewCommand(opts),
		watch.NewCommand(opts),
	}
	app.EnableBashCompletion = true
	// Errors are printed and turned into exit codes by the caller.
	app.ExitErrHandler = func(*cli.Context, error) {}

	app.Before = func(ctx *cli.Context) error {
		if err := initialSetup(opts); err != nil {
			return err
		}

		var err error

		telemeter, err = telemetry.NewTelemeter(ctx.Context, AppName, Version, opts.ErrWriter, opts.Telemetry)
		if err != nil {
			return err
		}

		ctx.Context = telemetry.ContextWithTelemeter(ctx.Context, telemeter)
		ctx.Context = options.ContextWithOptions(ctx.Context, opts)

		return nil
	}

	app.After = func(ctx *cli.Context) error {
		return telemeter.Shutdown(ctx.Context)
	}

	return app
}

func initialSetup(opts *options.WeaveOptions) error {
	// https://no-color.org
	if _, ok := env.LookupEnv("NO_COLOR"); ok {
		opts.DisableLogColors = true
	}

	formatter, err := log.ParseFormat(opts.LogFormat, opts.DisableLogColors || !log.IsTerminal(opts.ErrWriter))
	if err != nil {
		return err
	}

	opts.Logger.SetOptions(
		log.WithLevel(opts.LogLevel),
		log.WithFormatter(formatter),
		log.WithOutput(opts.ErrWriter),
	)

	if opts.WorkingDir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return errors.New(err)
		}

		opts.WorkingDir = dir
	}

	dir, err := filepath.Abs(opts.WorkingDir)
	if err != nil {
		return errors.New(err)
	}

	opts.WorkingDir = dir

	opts.Logger.Debugf("%s %s in %s", AppName, Version, opts.WorkingDir)

	return nil
}
