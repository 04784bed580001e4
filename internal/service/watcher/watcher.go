package watcher

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
)

type Getter func(ctx context.Context, now time.Time) (any, error)

type watch struct {
	frame  time.Duration
	getter Getter
}

// Watcher drives periodic recomputation: every frame it calls the getter
// with the current time and emits the result on the bus.
type Watcher struct {
	eBus *ebus.EBus
	subs []watch
	mx   sync.Mutex
	now  func() time.Time
	log  zerolog.Logger
}

func NewWatcher(eBus *ebus.EBus, log zerolog.Logger) *Watcher {
	return &Watcher{
		eBus: eBus,
		now:  time.Now,
		log:  log.With().Str("service", "watcher").Logger(),
	}
}

func (w *Watcher) EmitEvery(frame time.Duration, getter Getter) *Watcher {
	w.mx.Lock()
	defer w.mx.Unlock()

	w.subs = append(w.subs, watch{frame: frame, getter: getter})
	return w
}

func (w *Watcher) Run(ctx context.Context) error {
	w.mx.Lock()
	subs := append([]watch(nil), w.subs...)
	w.mx.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error)

	for _, sub := range subs {
		go func(sub watch) {
			ticker := time.NewTicker(sub.frame)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					ins, err := sub.getter(ctx, w.now())
					if err != nil {
						select {
						case errs <- err:
						case <-ctx.Done():
						}
						return
					}
					if err := w.eBus.Emit(ctx, ins); err != nil {
						w.log.Debug().Err(err).Str("event", reflect.TypeOf(ins).Name()).Msg("emit failed")
					}
				}
			}
		}(sub)
	}

	select {
	case err := <-errs:
		return fmt.Errorf("watcher: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogAny returns a listener logging every event it receives.
func LogAny[T any](log zerolog.Logger) func(ctx context.Context, event T) error {
	return func(ctx context.Context, event T) error {
		log.Info().Str("event", reflect.TypeOf(event).Name()).Interface("payload", event).Msg("event")
		return nil
	}
}
