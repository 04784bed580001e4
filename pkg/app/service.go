package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

type Service interface {
	Run(ctx context.Context) error
}

var errStopped = errors.New("stopped by another service")

func actor(ctx context.Context, service Service, log zerolog.Logger) (func() error, func(err error)) {
	ctx, cancel := context.WithCancelCause(ctx)

	return func() error {
			log.Debug().Msg("service started")
			err := service.Run(ctx)
			if cause := context.Cause(ctx); cause != nil && errors.Is(err, context.Canceled) {
				log.Debug().AnErr("cause", cause).Msg("service stopped")
				return err
			}
			log.Info().Err(err).Msg("service exited")
			return err
		}, func(err error) {
			cancel(errors.Join(errStopped, err))
		}
}
