// Package options holds the runtime settings of a weave process.
package options

import (
	"context"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/pkg/env"
	"github.com/weavebuild/weave/pkg/log"
	"github.com/weavebuild/weave/telemetry"
)

const ContextKey ctxKey = iota

const (
	// DefaultConfigFileName is looked up in the working directory.
	DefaultConfigFileName = "weave.hcl"

	DefaultParallelism = 1

	// DefaultWatchSchedule runs an auto build every minute.
	DefaultWatchSchedule = "@every 1m"

	defaultLogLevel = log.InfoLevel
)

type ctxKey byte

// WeaveOptions represents options that configure the behavior of the weave program.
type WeaveOptions struct {
	// Reader feeds `watch`.
	Reader    io.Reader
	Writer    io.Writer
	ErrWriter io.Writer
	Logger    log.Logger

	// Telemetry selects the trace and metric exporters.
	Telemetry *telemetry.Options

	// Env is the environment of builder commands.
	Env map[string]string

	// WorkingDir is the workspace root.
	WorkingDir string
	// ConfigPath is the workspace file. Relative paths are resolved against WorkingDir.
	ConfigPath string

	LogLevel  log.Level
	LogFormat string

	// Include and Exclude are glob patterns over project names used by `order`.
	Include []string
	Exclude []string

	// WatchSchedule is the cron spec of `watch`.
	WatchSchedule string

	// Parallelism is taken from the workspace file when zero, DefaultParallelism if unset there too.
	Parallelism int
	// MaxBuildIterations overrides the workspace file when positive.
	MaxBuildIterations int

	// LockTimeout bounds the wait for the workspace lock; zero fails right away.
	LockTimeout time.Duration

	PropagateRebuild     bool
	ProcessOtherBuilders bool
	EarlyExit            bool
	DisableLogColors     bool
}

// NewWeaveOptions returns the defaults writing to the standard streams.
func NewWeaveOptions() *WeaveOptions {
	return NewWeaveOptionsWithWriters(os.Stdout, os.Stderr)
}

func NewWeaveOptionsWithWriters(stdout, stderr io.Writer) *WeaveOptions {
	return &WeaveOptions{
		Reader:        os.Stdin,
		Writer:        stdout,
		ErrWriter:     stderr,
		Logger:        log.New(log.WithOutput(stderr), log.WithLevel(defaultLogLevel), log.WithFormatter(log.NewTextFormatter())),
		Telemetry:     &telemetry.Options{TraceExporter: telemetry.NoneExporter, MetricExporter: telemetry.NoneExporter},
		Env:           env.Parse(os.Environ()),
		LogLevel:      defaultLogLevel,
		LogFormat:     "text",
		WatchSchedule: DefaultWatchSchedule,
		ConfigPath:    DefaultConfigFileName,
	}
}

// NewWeaveOptionsForTest returns options for a workspace in workingDir that log through logger.
func NewWeaveOptionsForTest(workingDir string, logger log.Logger) *WeaveOptions {
	opts := NewWeaveOptionsWithWriters(io.Discard, io.Discard)
	opts.Reader = strings.NewReader("")
	opts.WorkingDir = workingDir
	opts.Logger = logger

	return opts
}

// Clone returns a copy that can be changed without affecting opts.
func (opts *WeaveOptions) Clone() *WeaveOptions {
	clone := *opts

	clone.Env = maps.Clone(opts.Env)
	clone.Include = slices.Clone(opts.Include)
	clone.Exclude = slices.Clone(opts.Exclude)

	if opts.Logger != nil {
		clone.Logger = opts.Logger.Clone()
	}

	if opts.Telemetry != nil {
		telemetryOpts := *opts.Telemetry
		clone.Telemetry = &telemetryOpts
	}

	return &clone
}

// ResolvedConfigPath returns the absolute path of the workspace file.
func (opts *WeaveOptions) ResolvedConfigPath() (string, error) {
	path := opts.ConfigPath
	if path == "" {
		path = DefaultConfigFileName
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(opts.WorkingDir, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.New(err)
	}

	return abs, nil
}

// ContextWithOptions returns a context carrying opts.
func ContextWithOptions(ctx context.Context, opts *WeaveOptions) context.Context {
	return context.WithValue(ctx, ContextKey, opts)
}

// OptionsFromContext returns the options carried by ctx, or nil.
func OptionsFromContext(ctx context.Context) *WeaveOptions {
	opts, _ := ctx.Value(ContextKey).(*WeaveOptions)
	return opts
}
