package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"
	weavecli "github.com/weavebuild/weave/cli"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/os/signal"
	"github.com/weavebuild/weave/options"
	"github.com/weavebuild/weave/pkg/log"
)

// The main entrypoint for weave
func main() {
	opts := options.NewWeaveOptions()

	defer errors.Recover(checkForErrorsAndExit(opts.Logger))

	ctx, cancel := signal.NotifyContext(context.Background(), func(sig os.Signal) {
		opts.Logger.Warnf("Received %s, cancelling the build", sig)
	})
	defer cancel()

	err := weavecli.NewApp(opts).RunContext(ctx, os.Args)

	checkForErrorsAndExit(opts.Logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		var exitCoder cli.ExitCoder
		if errors.As(err, &exitCoder) {
			if msg := exitCoder.Error(); msg != "" {
				logger.Error(msg)
			}

			os.Exit(exitCoder.ExitCode())
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		os.Exit(1)
	}
}
