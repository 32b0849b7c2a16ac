package runtime

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Shutdown runs steps in order, each under its own timeout, and joins their
// errors. A slow step does not eat the budget of the next one.
func Shutdown(timeout time.Duration, steps ...func(context.Context) error) error {
	var errs []error
	for _, step := range steps {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		errs = append(errs, step(ctx))
		cancel()
	}
	return errors.Join(errs...)
}
