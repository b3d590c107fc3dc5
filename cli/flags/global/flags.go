// Package global defines the flags accepted by every command.
package global

import (
	"github.com/urfave/cli/v2"
	"github.com/weavebuild/weave/cli/flags"
	"github.com/weavebuild/weave/options"
	"github.com/weavebuild/weave/pkg/log"
	"github.com/weavebuild/weave/telemetry"
)

const (
	WorkingDirFlagName              = "working-dir"
	ConfigFlagName                  = "config"
	LogLevelFlagName                = "log-level"
	LogFormatFlagName               = "log-format"
	NoColorFlagName                 = "no-color"
	ParallelismFlagName             = "parallelism"
	MaxBuildIterationsFlagName      = "max-build-iterations"
	PropagateRebuildFlagName        = "propagate-rebuild"
	ProcessOtherBuildersFlagName    = "process-other-builders"
	EarlyExitFlagName               = "early-exit"
	LockTimeoutFlagName             = "lock-timeout"
	TelemetryTraceExporterFlagName  = "telemetry-trace-exporter"
	TelemetryMetricExporterFlagName = "telemetry-metric-exporter"
	TelemetryInsecureFlagName       = "telemetry-exporter-insecure-endpoint"

	// CategoryScheduling groups the flags that tune the scheduler.
	CategoryScheduling = "Scheduling"
)

// NewFlags returns the global flags writing into opts.
func NewFlags(opts *options.WeaveOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        WorkingDirFlagName,
			EnvVars:     flags.EnvVars(WorkingDirFlagName),
			Destination: &opts.WorkingDir,
			Usage:       "The workspace root. Defaults to the current directory.",
		},
		&cli.StringFlag{
			Name:        ConfigFlagName,
			EnvVars:     flags.EnvVars(ConfigFlagName),
			Destination: &opts.ConfigPath,
			Value:       options.DefaultConfigFileName,
			Usage:       "The workspace file, relative to the working directory.",
		},
		&cli.StringFlag{
			Name:    LogLevelFlagName,
			EnvVars: flags.EnvVars(LogLevelFlagName),
			Value:   opts.LogLevel.String(),
			Usage:   "Log level: " + log.AllLevels.String() + ".",
			Action: func(_ *cli.Context, str string) error {
				level, err := log.ParseLevel(str)
				if err != nil {
					return err
				}

				opts.LogLevel = level

				return nil
			},
		},
		&cli.StringFlag{
			Name:        LogFormatFlagName,
			EnvVars:     flags.EnvVars(LogFormatFlagName),
			Destination: &opts.LogFormat,
			Value:       opts.LogFormat,
			Usage:       "Log format: text or json.",
		},
		&cli.BoolFlag{
			Name:        NoColorFlagName,
			EnvVars:     flags.EnvVars(NoColorFlagName),
			Destination: &opts.DisableLogColors,
			Usage:       "Disable colors in logs and reports.",
		},
		&cli.IntFlag{
			Name:        ParallelismFlagName,
			EnvVars:     flags.EnvVars(ParallelismFlagName),
			Destination: &opts.Parallelism,
			Category:    CategoryScheduling,
			DefaultText: "from the workspace file, else 1",
			Usage:       "Number of configs built at once.",
		},
		&cli.IntFlag{
			Name:        MaxBuildIterationsFlagName,
			EnvVars:     flags.EnvVars(MaxBuildIterationsFlagName),
			Destination: &opts.MaxBuildIterations,
			Category:    CategoryScheduling,
			DefaultText: "from the workspace file",
			Usage:       "Cap on the rebuild loops of a build.",
		},
		&cli.BoolFlag{
			Name:        PropagateRebuildFlagName,
			EnvVars:     flags.EnvVars(PropagateRebuildFlagName),
			Destination: &opts.PropagateRebuild,
			Category:    CategoryScheduling,
			Usage:       "Run every builder of a project again when one asks for a rebuild.",
		},
		&cli.BoolFlag{
			Name:        ProcessOtherBuildersFlagName,
			EnvVars:     flags.EnvVars(ProcessOtherBuildersFlagName),
			Destination: &opts.ProcessOtherBuilders,
			Category:    CategoryScheduling,
			Usage:       "Keep running the remaining builders after a rebuild request.",
		},
		&cli.BoolFlag{
			Name:        EarlyExitFlagName,
			EnvVars:     flags.EnvVars(EarlyExitFlagName),
			Destination: &opts.EarlyExit,
			Category:    CategoryScheduling,
			Usage:       "Skip configs in later passes when nothing they reference was rebuilt.",
		},
		&cli.DurationFlag{
			Name:        LockTimeoutFlagName,
			EnvVars:     flags.EnvVars(LockTimeoutFlagName),
			Destination: &opts.LockTimeout,
			Usage:       "How long to wait for another weave process to release the workspace.",
		},
		&cli.StringFlag{
			Name:        TelemetryTraceExporterFlagName,
			EnvVars:     flags.EnvVars(TelemetryTraceExporterFlagName),
			Destination: &opts.Telemetry.TraceExporter,
			Value:       telemetry.NoneExporter,
			Usage:       "Trace exporter: none, console, otlpHttp or otlpGrpc.",
		},
		&cli.StringFlag{
			Name:        TelemetryMetricExporterFlagName,
			EnvVars:     flags.EnvVars(TelemetryMetricExporterFlagName),
			Destination: &opts.Telemetry.MetricExporter,
			Value:       telemetry.NoneExporter,
			Usage:       "Metric exporter: none, console, otlpHttp or otlpGrpc.",
		},
		&cli.BoolFlag{
			Name:        TelemetryInsecureFlagName,
			EnvVars:     flags.EnvVars(TelemetryInsecureFlagName),
			Destination: &opts.Telemetry.Insecure,
			Usage:       "Send OTLP telemetry without TLS.",
		},
	}
}
