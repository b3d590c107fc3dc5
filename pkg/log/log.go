// Package log provides a leveled logger with structured logging support.
package log

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

var std = New()

// Default returns a text logger at info level writing to stderr.
func Default() Logger {
	return std
}

// IsTerminal reports whether the writer is an interactive terminal, used to decide on colors.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
