package tracker

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/metrics"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/utils"
)

type memStore struct {
	state  entity.State
	stored chan entity.State
}

func (m *memStore) LastState(context.Context) (entity.State, error) { return m.state, nil }

func (m *memStore) Store(_ context.Context, s entity.State) error {
	select {
	case m.stored <- s:
	default:
	}
	return nil
}

var alice = entity.AccountKey{Account: "alice", Token: "ETHx"}

func received(balance, flowRate, updatedAt, offset int64) event.SnapshotReceived {
	return event.SnapshotReceived{
		Snapshot: entity.Snapshot{
			AccountKey: alice,
			Balance:    big.NewInt(balance),
			UpdatedAt:  updatedAt,
			FlowRate:   big.NewInt(flowRate),
		},
		Offset: offset,
	}
}

func newTracker(bus *ebus.EBus) *Tracker {
	return NewTracker(&memStore{}, bus, metrics.Nop(), zerolog.Nop())
}

func TestTracker_ReplacesWholesale(t *testing.T) {
	tr := newTracker(ebus.New())
	tr.Restore(entity.State{})
	ctx := context.Background()

	require.NoError(t, tr.HandleSnapshot(ctx, received(100, 5, 10, 1)))
	bal, ok := tr.Balance(alice, 20_000)
	require.True(t, ok)
	assert.Equal(t, "150", bal.String())

	require.NoError(t, tr.HandleSnapshot(ctx, received(7, 0, 30, 2)))
	bal, _ = tr.Balance(alice, 99_000)
	assert.Equal(t, "7", bal.String())

	_, ok = tr.Balance(entity.AccountKey{Account: "bob"}, 0)
	assert.False(t, ok)
}

func TestTracker_SkipsStale(t *testing.T) {
	skipped := make(chan event.SnapshotSkipped, 2)
	bus := ebus.New().Subscribe(event.SnapshotSkipped{}, ebus.Chan(skipped))
	tr := newTracker(bus)
	tr.Restore(entity.State{Offset: 5})
	ctx := context.Background()

	// already restored
	require.NoError(t, tr.HandleSnapshot(ctx, received(1, 1, 10, 5)))
	assert.Equal(t, int64(5), (<-skipped).Offset)

	require.NoError(t, tr.HandleSnapshot(ctx, received(100, 1, 50, 6)))
	// older read arriving late
	require.NoError(t, tr.HandleSnapshot(ctx, received(1, 1, 40, 7)))
	assert.Equal(t, int64(7), (<-skipped).Offset)

	s, ok := tr.Snapshot(alice)
	require.True(t, ok)
	assert.Equal(t, "100", s.Balance.String())
	assert.Equal(t, int64(6), tr.State().Offset)
}

func TestTracker_WaitsForRestore(t *testing.T) {
	tr := newTracker(ebus.New())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tr.HandleSnapshot(ctx, received(1, 1, 1, 1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTracker_Balances(t *testing.T) {
	tr := newTracker(ebus.New())
	tr.Restore(entity.State{Snapshots: map[string]entity.Snapshot{
		"alice:ETHx": received(100, -1, 0, 0).Snapshot,
		"bob:ETHx": {
			AccountKey: entity.AccountKey{Account: "bob", Token: "ETHx"},
			Balance:    big.NewInt(3),
			FlowRate:   new(big.Int),
		},
	}})

	out := tr.Balances(200_000)
	assert.Equal(t, int64(200_000), out.At)
	assert.Equal(t, map[string]string{"alice:ETHx": "-100", "bob:ETHx": "3"}, utils.BigStrings(out.Balances))

	// bob does not stream, so he is only published again after a new snapshot
	out = tr.Balances(201_000)
	assert.Equal(t, map[string]string{"alice:ETHx": "-101"}, utils.BigStrings(out.Balances))

	ctx := context.Background()
	require.NoError(t, tr.HandleSnapshot(ctx, event.SnapshotReceived{Snapshot: entity.Snapshot{
		AccountKey: entity.AccountKey{Account: "bob", Token: "ETHx"},
		Balance:    big.NewInt(500),
		UpdatedAt:  10,
		FlowRate:   new(big.Int),
	}}))
	out = tr.Balances(202_000)
	assert.Equal(t, map[string]string{"alice:ETHx": "-102", "bob:ETHx": "500"}, utils.BigStrings(out.Balances))
	assert.Equal(t, map[string]string{"alice:ETHx": "-102"}, utils.BigStrings(tr.Balances(202_000).Balances))
}

func TestTracker_Run(t *testing.T) {
	store := &memStore{
		state: entity.State{
			Snapshots: map[string]entity.Snapshot{"alice:ETHx": received(100, 1, 0, 0).Snapshot},
			Offset:    3,
		},
		stored: make(chan entity.State, 1),
	}
	saved := make(chan event.StateSaved, 1)
	restored := make(chan event.StateRestored, 1)
	bus := ebus.New().
		Subscribe(event.StateSaved{}, ebus.Latest(saved)).
		Subscribe(event.StateRestored{}, ebus.Chan(restored))

	tr := NewTracker(store, bus, metrics.Nop(), zerolog.Nop()).SaveEvery(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	assert.Equal(t, event.StateRestored{Offset: 3, Snapshots: 1}, <-restored)
	state := <-store.stored
	assert.Equal(t, int64(3), state.Offset)
	assert.Contains(t, state.Snapshots, "alice:ETHx")
	assert.Equal(t, int64(3), (<-saved).Offset)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestTracker_SkipEmitError(t *testing.T) {
	boom := errors.New("listener down")
	bus := ebus.New().Subscribe(event.SnapshotSkipped{}, func(context.Context, interface{}) error { return boom })
	tr := newTracker(bus)
	tr.Restore(entity.State{Offset: 5})

	// offset at or below the restored one is skipped
	assert.ErrorIs(t, tr.HandleSnapshot(context.Background(), received(1, 1, 1, 5)), boom)

	// without listeners a skip is only counted
	tr = newTracker(ebus.New())
	tr.Restore(entity.State{Offset: 5})
	assert.NoError(t, tr.HandleSnapshot(context.Background(), received(1, 1, 1, 5)))
}
