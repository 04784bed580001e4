package tracker

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/metrics"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
)

// Tracker holds the current balance snapshot of every account and
// extrapolates streaming balances on demand.
type Tracker struct {
	mx sync.RWMutex

	snapshots map[string]entity.Snapshot
	offset    int64
	// static accounts replaced since the last Balances call
	pending map[string]struct{}

	restorer  Restorer
	restored  chan struct{}
	saveEvery time.Duration

	eBus    *ebus.EBus
	metrics *metrics.Metrics
	log     zerolog.Logger
}

type Restorer interface {
	LastState(context.Context) (entity.State, error)
	Store(context.Context, entity.State) error
}

func NewTracker(rest Restorer, eBus *ebus.EBus, m *metrics.Metrics, log zerolog.Logger) *Tracker {
	return &Tracker{
		snapshots: make(map[string]entity.Snapshot),
		pending:   make(map[string]struct{}),
		restorer:  rest,
		restored:  make(chan struct{}),
		saveEvery: 5 * time.Second,
		eBus:      eBus,
		metrics:   m,
		log:       log.With().Str("service", "tracker").Logger(),
	}
}

func (t *Tracker) SaveEvery(d time.Duration) *Tracker {
	t.saveEvery = d
	return t
}

// HandleSnapshot replaces the account's snapshot unless the incoming one
// was already restored or is older than the current one.
func (t *Tracker) HandleSnapshot(ctx context.Context, in event.SnapshotReceived) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.restored:
	}

	key := in.AccountKey.String()

	t.mx.Lock()
	current, ok := t.snapshots[key]
	stale := in.Offset > 0 && in.Offset <= t.offset
	stale = stale || ok && in.UpdatedAt < current.UpdatedAt
	if !stale {
		t.replace(key, in.Snapshot)
		if in.Offset > t.offset {
			t.offset = in.Offset
		}
	}
	t.mx.Unlock()

	if stale {
		t.metrics.SnapshotsSkipped.Inc()
		if !t.eBus.Has(event.SnapshotSkipped{}) {
			return nil
		}
		if err := t.eBus.Emit(ctx, event.SnapshotSkipped{Key: in.AccountKey, Offset: in.Offset}); err != nil {
			return fmt.Errorf("ebus emit: %w", err)
		}
		return nil
	}

	t.metrics.SnapshotsReceived.WithLabelValues("balance").Inc()
	return nil
}

// replace must be called with mx held.
func (t *Tracker) replace(key string, s entity.Snapshot) {
	t.snapshots[key] = s
	if s.Streaming() {
		delete(t.pending, key)
	} else {
		t.pending[key] = struct{}{}
	}
}

// Balance returns the extrapolated balance of key at atMillis.
func (t *Tracker) Balance(key entity.AccountKey, atMillis int64) (*big.Int, bool) {
	t.mx.RLock()
	s, ok := t.snapshots[key.String()]
	t.mx.RUnlock()

	if !ok {
		return nil, false
	}
	return flowmath.Extrapolate(s, atMillis), true
}

func (t *Tracker) Snapshot(key entity.AccountKey) (entity.Snapshot, bool) {
	t.mx.RLock()
	defer t.mx.RUnlock()

	s, ok := t.snapshots[key.String()]
	return s, ok
}

// Balances extrapolates every streaming account at atMillis. An account
// with a zero flow rate is included once after its snapshot was replaced
// and left out afterwards: its balance only changes with a new snapshot.
func (t *Tracker) Balances(atMillis int64) event.BalancesUpdated {
	t.mx.Lock()
	defer t.mx.Unlock()

	out := event.BalancesUpdated{
		At:       atMillis,
		Balances: make(map[string]*big.Int),
	}
	streaming := 0
	for key, s := range t.snapshots {
		if !s.Streaming() {
			continue
		}
		streaming++
		out.Balances[key] = flowmath.Extrapolate(s, atMillis)
	}
	for key := range t.pending {
		out.Balances[key] = flowmath.Extrapolate(t.snapshots[key], atMillis)
		delete(t.pending, key)
	}

	t.metrics.TrackedAccounts.Set(float64(len(t.snapshots)))
	t.metrics.StreamingAccounts.Set(float64(streaming))

	return out
}

func (t *Tracker) Run(ctx context.Context) error {
	state, err := t.restorer.LastState(ctx)
	if err != nil {
		return fmt.Errorf("restorer state: %w", err)
	}

	t.Restore(state)
	t.log.Info().Int64("offset", state.Offset).Int("snapshots", len(state.Snapshots)).Msg("state restored")
	if t.eBus.Has(event.StateRestored{}) {
		err = t.eBus.Emit(ctx, event.StateRestored{Offset: state.Offset, Snapshots: len(state.Snapshots)})
		if err != nil {
			return fmt.Errorf("ebus emit: %w", err)
		}
	}

	stateTicker := time.NewTicker(t.saveEvery)
	defer stateTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stateTicker.C:
			if err := t.save(ctx); err != nil {
				return err
			}
		}
	}
}

func (t *Tracker) save(ctx context.Context) error {
	currentState := t.State()

	err := t.restorer.Store(ctx, currentState)
	t.metrics.StateSaves.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("restorer store: %w", err)
	}

	if !t.eBus.Has(event.StateSaved{}) {
		return nil
	}
	err = t.eBus.Emit(ctx, event.StateSaved{Offset: currentState.Offset})
	if err != nil {
		return fmt.Errorf("ebus emit: %w", err)
	}
	return nil
}

func (t *Tracker) State() entity.State {
	t.mx.RLock()
	defer t.mx.RUnlock()

	state := entity.State{
		Snapshots: make(map[string]entity.Snapshot, len(t.snapshots)),
		Offset:    t.offset,
	}
	for key, s := range t.snapshots {
		state.Snapshots[key] = s
	}

	return state
}

// Restore loads a persisted state and releases snapshot handlers waiting
// for it. It must be called once.
func (t *Tracker) Restore(state entity.State) {
	defer close(t.restored)

	t.mx.Lock()
	defer t.mx.Unlock()

	for key, s := range state.Snapshots {
		if current, ok := t.snapshots[key]; ok && current.UpdatedAt > s.UpdatedAt {
			continue
		}
		t.replace(key, s)
	}
	if state.Offset > t.offset {
		t.offset = state.Offset
	}
}
