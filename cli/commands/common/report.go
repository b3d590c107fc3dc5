package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/urfave/cli/v2"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/scheduler"
	"gopkg.in/yaml.v3"
)

var severityColors = map[scheduler.Severity]string{
	scheduler.SeverityOK:        "green",
	scheduler.SeverityWarning:   "yellow",
	scheduler.SeverityError:     "red",
	scheduler.SeverityCancelled: "magenta",
}

var stateColors = map[scheduler.ConfigState]string{
	scheduler.ConfigSucceeded: "green",
	scheduler.ConfigFailed:    "red",
	scheduler.ConfigSkipped:   "yellow",
}

// Reporter prints build summaries.
type Reporter struct {
	writer io.Writer
	colors bool
}

// NewReporter returns a reporter that colors its output when w is a terminal.
func NewReporter(w io.Writer, disableColors bool) *Reporter {
	colors := false

	if f, ok := w.(*os.File); ok && !disableColors {
		colors = isatty.IsTerminal(f.Fd())
	}

	return &Reporter{writer: w, colors: colors}
}

func (reporter *Reporter) colorize(str, style string) string {
	if !reporter.colors {
		return str
	}

	return ansi.Color(str, style)
}

// Status prints one line per built config followed by the warnings and the overall severity.
func (reporter *Reporter) Status(status *scheduler.Status) {
	w := reporter.writer

	for _, res := range status.Results() {
		line := fmt.Sprintf("%-40s %-9s builds=%d pass=%d", res.Config, res.State, res.Builds, res.Pass)
		fmt.Fprintln(w, reporter.colorize(line, stateColors[res.State]))

		for _, err := range res.Errors {
			fmt.Fprintf(w, "    error: %v\n", err)
		}

		for _, warning := range res.Warnings {
			fmt.Fprintf(w, "    warning: %s\n", warning)
		}
	}

	for _, warning := range status.Warnings() {
		fmt.Fprintf(w, "warning: %v\n", warning)
	}

	severity := status.Severity()
	summary := fmt.Sprintf("%s build %s: %s (%d passes)", status.Trigger, status.State(), severity, status.Passes())

	fmt.Fprintln(w, reporter.colorize(summary, severityColors[severity]))
}

// Report formats understood by Order.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type orderReport struct {
	Order  []string   `json:"order" yaml:"order"`
	Cycles [][]string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
}

// Order prints the configs and the cycles between them, one per line in the text format.
func (reporter *Reporter) Order(format string, configs []string, knots [][]string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
	case FormatJSON:
		enc := json.NewEncoder(reporter.writer)
		enc.SetIndent("", "  ")

		return errors.New(enc.Encode(orderReport{Order: configs, Cycles: knots}))
	case FormatYAML:
		enc := yaml.NewEncoder(reporter.writer)
		defer enc.Close() //nolint:errcheck

		return errors.New(enc.Encode(orderReport{Order: configs, Cycles: knots}))
	default:
		return errors.Errorf("invalid format %q, supported formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}

	for i, cfg := range configs {
		fmt.Fprintf(reporter.writer, "%3d  %s\n", i+1, cfg)
	}

	for _, knot := range knots {
		fmt.Fprintln(reporter.writer, reporter.colorize("cycle: "+strings.Join(knot, " <-> "), "yellow"))
	}

	return nil
}

// ExitError turns a non-zero exit code of status into an error carrying it.
func ExitError(status *scheduler.Status) error {
	switch code := status.ExitCode(); code {
	case 0:
		return nil
	case scheduler.SeverityCancelled.ExitCode():
		return cli.Exit(status.Trigger.String()+" build cancelled", code)
	default:
		return cli.Exit(status.Trigger.String()+" build failed", code)
	}
}
