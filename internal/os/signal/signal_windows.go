//go:build windows

package signal

import (
	"os"
)

// InterruptSignal is an interrupt signal.
var InterruptSignal os.Signal = os.Interrupt

// InterruptSignals contains a list of signals that are treated as interrupts.
var InterruptSignals = []os.Signal{os.Interrupt}
