//go:build !windows

// Package signal stops builds on interrupt signals.
package signal

import (
	"os"
	"syscall"
)

// InterruptSignal is sent to child processes of a cancelled build.
const InterruptSignal = syscall.SIGINT

// InterruptSignals contains a list of signals that are treated as interrupts.
var InterruptSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}
