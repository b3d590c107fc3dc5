package signal

import (
	"context"
	"os"
	"os/signal"
)

// ContextCanceledCause is the cancel cause of a context stopped by a signal.
type ContextCanceledCause struct {
	Signal os.Signal
}

// NewContextCanceledCause returns a new `ContextCanceledCause` instance.
func NewContextCanceledCause(sig os.Signal) *ContextCanceledCause {
	return &ContextCanceledCause{Signal: sig}
}

func (ContextCanceledCause) Error() string {
	return context.Canceled.Error()
}

func (ContextCanceledCause) Unwrap() error {
	return context.Canceled
}

// NotifyContext returns a context cancelled with a ContextCanceledCause when one of the
// interrupt signals arrives. onSignal, when set, is called with the signal first.
func NotifyContext(parent context.Context, onSignal func(sig os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, InterruptSignals...)

	go func() {
		select {
		case <-ctx.Done():
		case sig := <-signals:
			if onSignal != nil {
				onSignal(sig)
			}

			cancel(NewContextCanceledCause(sig))
		}
	}()

	return ctx, func() {
		signal.Stop(signals)
		cancel(context.Canceled)
	}
}
