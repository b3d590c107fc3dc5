package watch

import (
	"bufio"
	"context"

	"github.com/robfig/cron/v3"
	"github.com/weavebuild/weave/cli/commands/common"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/options"
	"github.com/weavebuild/weave/pkg/log"
)

// cronLogger sends cron's logs to the weave logger.
type cronLogger struct {
	logger log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugf("%s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorf("%s %v: %v", msg, keysAndValues, err)
}

// Run watches until stdin is closed, a quit command is read, or ctx is done. The workspace
// lock is held the whole time.
func Run(ctx context.Context, opts *options.WeaveOptions) error {
	session, err := common.NewSession(ctx, opts)
	if err != nil {
		return err
	}

	return session.WithLock(ctx, func(ctx context.Context) error {
		return watch(ctx, session)
	})
}

func watch(ctx context.Context, session *common.Session) error {
	var (
		opts     = session.Opts
		logger   = opts.Logger
		reporter = common.NewReporter(opts.Writer, opts.DisableLogColors)
	)

	build := func(trigger workspace.Trigger) {
		status := session.Scheduler.BuildWorkspace(ctx, trigger)
		reporter.Status(status)
		session.Workspace.Tracker().Compact()
	}

	schedule := cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))

	if _, err := schedule.AddFunc(opts.WatchSchedule, func() { build(workspace.AutoBuild) }); err != nil {
		return errors.Errorf("invalid schedule %q: %w", opts.WatchSchedule, err)
	}

	schedule.Start()

	defer func() {
		<-schedule.Stop().Done()
	}()

	logger.Infof("Watching %s, automatic builds %s", session.Config.Path, opts.WatchSchedule)

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(opts.Reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return errors.New(<-scanErr)
			}

			cmd, err := parseCommand(line)
			if err != nil {
				logger.Errorf("%v", err)
				continue
			}

			if cmd == nil {
				continue
			}

			switch cmd.name {
			case commandTouch:
				if err := session.Workspace.RecordChange(cmd.project, cmd.path, cmd.kind); err != nil {
					logger.Errorf("%v", err)
				}
			case commandBuild:
				build(cmd.trigger)
			case commandQuit:
				return nil
			}
		}
	}
}
