package app

import (
	"context"
	"fmt"

	"github.com/oklog/run"
	"github.com/rs/zerolog"
)

type App struct {
	services []Service
	runner   *run.Group
	log      zerolog.Logger
}

func NewApp(log zerolog.Logger) *App {
	return &App{
		services: make([]Service, 0),
		runner:   &run.Group{},
		log:      log,
	}
}

func (a *App) WithService(s Service) *App {
	a.services = append(a.services, s)
	return a
}

// Run starts every service and returns the error of the first one to
// stop, after the rest have been interrupted.
func (a *App) Run(ctx context.Context) error {
	for _, service := range a.services {
		a.runner.Add(actor(ctx, service, a.log.With().Str("service", fmt.Sprintf("%T", service)).Logger()))
	}

	return a.runner.Run()
}
