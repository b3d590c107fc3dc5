// Package helpers runs the weave CLI in-process for integration tests.
package helpers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weavebuild/weave/cli"
	"github.com/weavebuild/weave/options"
)

// CopyEnvironment copies a fixture directory into a fresh temp dir and returns the copy.
func CopyEnvironment(t *testing.T, environmentPath string) string {
	t.Helper()

	tmpDir := filepath.Join(t.TempDir(), filepath.Base(environmentPath))

	t.Logf("Copying %s to %s", environmentPath, tmpDir)

	require.NoError(t, os.CopyFS(tmpDir, os.DirFS(environmentPath)))

	return tmpDir
}

// RunWeaveCommandWithContext runs a command line such as "weave build --full" with the given
// streams.
func RunWeaveCommandWithContext(t *testing.T, ctx context.Context, command string, stdin io.Reader, writer, errwriter io.Writer) error {
	t.Helper()

	args := strings.Fields(command)

	if !strings.Contains(command, "--log-level") {
		args = append(args[:1], append([]string{"--log-level", "debug"}, args[1:]...)...)
	}

	t.Log(args)

	opts := options.NewWeaveOptionsWithWriters(writer, errwriter)
	opts.Reader = stdin

	return cli.NewApp(opts).RunContext(ctx, args)
}

func RunWeaveCommand(t *testing.T, command string, writer, errwriter io.Writer) error {
	t.Helper()

	return RunWeaveCommandWithContext(t, context.Background(), command, strings.NewReader(""), writer, errwriter)
}

func RunWeaveCommandWithOutput(t *testing.T, command string) (string, string, error) {
	t.Helper()

	return RunWeaveCommandWithInput(t, command, "")
}

// RunWeaveCommandWithInput feeds input to the command's stdin.
func RunWeaveCommandWithInput(t *testing.T, command, input string) (string, string, error) {
	t.Helper()

	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}

	err := RunWeaveCommandWithContext(t, context.Background(), command, strings.NewReader(input), &stdout, &stderr)
	LogBufferContentsLineByLine(t, stdout, "stdout")
	LogBufferContentsLineByLine(t, stderr, "stderr")

	return stdout.String(), stderr.String(), err
}

func RunWeave(t *testing.T, command string) string {
	t.Helper()

	stdout, stderr, err := RunWeaveCommandWithOutput(t, command)
	if err != nil {
		t.Fatalf("Failed to run weave command '%s' due to error: %v\n\nStdout: %s\n\nStderr: %s", command, err, stdout, stderr)
	}

	return stdout
}

func LogBufferContentsLineByLine(t *testing.T, out bytes.Buffer, label string) {
	t.Helper()
	t.Logf("[%s] Full contents of %s:", t.Name(), label)

	for line := range strings.SplitSeq(out.String(), "\n") {
		t.Logf("[%s] %s", t.Name(), line)
	}
}
