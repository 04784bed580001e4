package ebus

import (
	"context"
	"fmt"
)

type Listener func(ctx context.Context, event interface{}) error

func Typed[T any](fn func(ctx context.Context, typed T) error) Listener {
	return func(ctx context.Context, event interface{}) error {
		typed, ok := event.(T)
		if !ok {
			return fmt.Errorf("invalid event type %T", event)
		}
		return fn(ctx, typed)
	}
}

// Chan forwards events of type T to out. Emit blocks until the receiver
// takes the event or ctx is done.
func Chan[T any](out chan<- T) Listener {
	return Typed(func(ctx context.Context, typed T) error {
		select {
		case out <- typed:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Latest keeps only the newest undelivered event in out, which must have
// a buffer of at least one. Emit never blocks.
func Latest[T any](out chan T) Listener {
	return Typed(func(ctx context.Context, typed T) error {
		for {
			select {
			case out <- typed:
				return nil
			default:
			}
			select {
			case <-out:
			default:
			}
		}
	})
}
