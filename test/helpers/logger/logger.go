// Package logger provides a logger for tests.
package logger

import (
	"io"

	"github.com/weavebuild/weave/pkg/log"
)

// CreateLogger returns a debug level logger that discards its output.
func CreateLogger() log.Logger {
	formatter := log.NewTextFormatter()
	formatter.DisableColors = true

	return log.New(
		log.WithLevel(log.DebugLevel),
		log.WithOutput(io.Discard),
		log.WithFormatter(formatter),
	)
}
