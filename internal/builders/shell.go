package builders

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/os/signal"
	"github.com/weavebuild/weave/internal/rule"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/pkg/env"
	"github.com/weavebuild/weave/pkg/log"
)

// DirectivePrefix marks output lines a shell command uses to talk back to the scheduler:
//
//	::weave rebuild                          run the project's builders again
//	::weave rebuild-config PROJECT[:VARIANT] [COUNT]
//	::weave interesting PROJECT              include PROJECT's changes in the next delta
//	::weave warning MESSAGE
const DirectivePrefix = "::weave "

// ShutdownDelay is how long a cancelled command gets to exit after the interrupt signal.
const ShutdownDelay = 10 * time.Second

// ShellSettings are the arguments of the shell builder.
type ShellSettings struct {
	Command string `mapstructure:"command"`
	// Clean runs on clean builds. Nothing runs when it is empty.
	Clean string `mapstructure:"clean"`
	// Dir is relative to the workspace root.
	Dir   string `mapstructure:"dir"`
	Shell string `mapstructure:"shell"`
	// Rule is none, self, workspace, or a comma separated project list.
	Rule    string        `mapstructure:"rule"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func defaultShellSettings() ShellSettings {
	return ShellSettings{Shell: "sh", Rule: "self"}
}

// Shell runs a command through a shell.
type Shell struct {
	envs     map[string]string
	rootDir  string
	settings ShellSettings
}

// NewShellFactory returns a factory of shell builders running under rootDir. A nil envs
// means the environment of the process.
func NewShellFactory(rootDir string, envs map[string]string) builder.Factory {
	return func(cmd workspace.Command) (builder.Builder, error) {
		settings := defaultShellSettings()

		if err := decodeArgs(cmd.Args, &settings); err != nil {
			return nil, err
		}

		if settings.Command == "" {
			return nil, errors.New(InvalidArgsError{Err: errors.New("command is required")})
		}

		return &Shell{rootDir: rootDir, envs: envs, settings: settings}, nil
	}
}

func (sh *Shell) Rule(workspace.Trigger, map[string]string) rule.Rule {
	return rule.Parse(sh.settings.Rule)
}

func (sh *Shell) Build(ctx context.Context, req *builder.Request) (*builder.Result, error) {
	stdout, err := sh.run(ctx, req, sh.settings.Command)
	if err != nil {
		return nil, err
	}

	return parseDirectives(stdout, req.Logger)
}

func (sh *Shell) Clean(ctx context.Context, req *builder.Request) error {
	if sh.settings.Clean == "" {
		return nil
	}

	_, err := sh.run(ctx, req, sh.settings.Clean)

	return err
}

func (sh *Shell) dir() string {
	if filepath.IsAbs(sh.settings.Dir) {
		return sh.settings.Dir
	}

	return filepath.Join(sh.rootDir, sh.settings.Dir)
}

func (sh *Shell) environ() []string {
	if sh.envs == nil {
		return os.Environ()
	}

	return env.Slice(sh.envs)
}

func (sh *Shell) run(ctx context.Context, req *builder.Request, script string) ([]byte, error) {
	if sh.settings.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, sh.settings.Timeout)
		defer cancel()
	}

	req.Logger.Debugf("Running command: %s", script)

	cmd := exec.CommandContext(ctx, sh.settings.Shell, "-c", script)
	cmd.Dir = sh.dir()
	cmd.Env = append(sh.environ(), commandEnv(req)...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(signal.InterruptSignal)
	}
	cmd.WaitDelay = ShutdownDelay

	var stdout bytes.Buffer

	stderr := req.Logger.WriterLevel(log.WarnLevel)
	defer stderr.Close() //nolint:errcheck

	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.New(ctx.Err())
		}

		return nil, errors.New(CommandFailedError{Command: script, Dir: cmd.Dir, Err: err})
	}

	return stdout.Bytes(), nil
}

// commandEnv describes the build to the command.
func commandEnv(req *builder.Request) []string {
	env := []string{
		"WEAVE_PROJECT=" + req.Config.Project,
		"WEAVE_VARIANT=" + req.Config.Variant,
		"WEAVE_TRIGGER=" + req.Trigger.String(),
		"WEAVE_PASS=" + strconv.Itoa(req.Pass),
		"WEAVE_ITERATION=" + strconv.Itoa(req.Iteration),
	}

	if req.Context != nil {
		env = append(env, "WEAVE_REFERENCED="+strings.Join(req.Context.ReferencedConfigs().Strings(), ","))
	}

	if req.Delta != nil {
		env = append(env, "WEAVE_CHANGED="+strings.Join(req.Delta.Paths(), "\n"))
	}

	return env
}

func parseDirectives(stdout []byte, logger log.Logger) (*builder.Result, error) {
	res := &builder.Result{}

	scanner := bufio.NewScanner(bytes.NewReader(stdout))

	for scanner.Scan() {
		line := scanner.Text()

		directive, ok := strings.CutPrefix(line, DirectivePrefix)
		if !ok {
			logger.Info(line)
			continue
		}

		name, value, _ := strings.Cut(strings.TrimSpace(directive), " ")
		value = strings.TrimSpace(value)

		switch name {
		case "rebuild":
			res.NeedRebuild = true
		case "rebuild-config":
			req, err := parseRebuildRequest(value)
			if err != nil {
				return nil, err
			}

			res.RebuildRequests = append(res.RebuildRequests, req)
		case "interesting":
			res.InterestingProjects = append(res.InterestingProjects, value)
		case "warning":
			res.Warnings = append(res.Warnings, value)
		default:
			logger.Warnf("Unknown directive %q", name)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.New(err)
	}

	return res, nil
}

func parseRebuildRequest(value string) (builder.RebuildRequest, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return builder.RebuildRequest{}, errors.Errorf("rebuild-config needs a target")
	}

	req := builder.RebuildRequest{Target: workspace.ParseBuildConfig(fields[0]), Count: 1}

	if len(fields) > 1 {
		var err error

		if req.Count, err = strconv.Atoi(fields[1]); err != nil {
			return builder.RebuildRequest{}, errors.Errorf("invalid rebuild count %q: %w", fields[1], err)
		}
	}

	return req, nil
}

// CommandFailedError is returned when a shell command exits with an error.
type CommandFailedError struct {
	Err     error
	Command string
	Dir     string
}

func (err CommandFailedError) Error() string {
	return fmt.Sprintf("command %q in %s failed: %v", err.Command, err.Dir, err.Err)
}

func (err CommandFailedError) Unwrap() error {
	return err.Err
}
