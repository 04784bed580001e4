package interrupter

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/oklog/run"
)

var ErrInterrupted = errors.New("got interrupt signal")

// Interrupter stops the app on SIGINT or SIGTERM.
type Interrupter struct{}

func (i Interrupter) Run(ctx context.Context) error {
	execute, _ := run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM)

	err := execute()

	var sig run.SignalError
	if errors.As(err, &sig) {
		return fmt.Errorf("%w: %s", ErrInterrupted, sig.Signal)
	}
	return fmt.Errorf("interrupter: %w", err)
}
