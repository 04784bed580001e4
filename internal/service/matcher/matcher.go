package matcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/metrics"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
)

var ErrUnknownPool = errors.New("pool not found")

// Matcher keeps the latest atomic snapshot of each matching pool and
// estimates the matching impact of contribution changes against it.
type Matcher struct {
	mx    sync.RWMutex
	pools map[string]entity.PoolSnapshot

	eBus    *ebus.EBus
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewMatcher(eBus *ebus.EBus, m *metrics.Metrics, log zerolog.Logger) *Matcher {
	return &Matcher{
		pools:   make(map[string]entity.PoolSnapshot),
		eBus:    eBus,
		metrics: m,
		log:     log.With().Str("service", "matcher").Logger(),
	}
}

// HandlePool replaces the pool's snapshot unless it is from an older block.
func (m *Matcher) HandlePool(ctx context.Context, in event.PoolReceived) error {
	id := in.Pool.ID

	m.mx.Lock()
	defer m.mx.Unlock()

	if current, ok := m.pools[id]; ok && in.Block < current.Block {
		m.log.Debug().Str("pool", id).Uint64("block", in.Block).Uint64("current", current.Block).Msg("stale pool snapshot")
		return nil
	}

	m.pools[id] = in.PoolSnapshot
	m.metrics.SnapshotsReceived.WithLabelValues("pool").Inc()
	m.metrics.PoolBlock.WithLabelValues(id).Set(float64(in.Block))

	return nil
}

func (m *Matcher) Pool(id string) (entity.PoolSnapshot, bool) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	p, ok := m.pools[id]
	return p, ok
}

// Estimate computes the impact of change on grantee within the pool's
// current snapshot. When change.PreviousFlowRate is nil the sender's
// outflow from the same snapshot is used.
func (m *Matcher) Estimate(poolID, granteeID string, change entity.ContributionChange) (flowmath.Impact, uint64, error) {
	snap, ok := m.Pool(poolID)
	if !ok {
		m.metrics.ImpactEstimates.WithLabelValues("error").Inc()
		return flowmath.Impact{}, 0, fmt.Errorf("pool %s: %w", poolID, ErrUnknownPool)
	}

	if change.PreviousFlowRate == nil {
		change.PreviousFlowRate = snap.Outflow(change.MemberID, granteeID)
	}

	impact, err := flowmath.ImpactForMember(snap.Pool.Adjusted(), granteeID, change)
	m.metrics.ImpactEstimates.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return flowmath.Impact{}, snap.Block, err
	}

	return impact, snap.Block, nil
}

func (m *Matcher) HandleContribution(ctx context.Context, in event.ContributionRequested) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}

	impact, block, err := m.Estimate(in.PoolID, in.GranteeID, in.Change)
	if err != nil {
		m.log.Warn().Err(err).Str("request", in.ID.String()).Msg("impact estimate failed")
		return m.eBus.Emit(ctx, event.ImpactFailed{RequestID: in.ID, Err: err.Error()})
	}

	m.log.Debug().
		Str("request", in.ID.String()).
		Str("pool", in.PoolID).
		Uint64("block", block).
		Stringer("netImpact", impact.NetImpact).
		Msg("impact estimated")

	return m.eBus.Emit(ctx, event.ImpactEstimated{
		RequestID: in.ID,
		PoolID:    in.PoolID,
		GranteeID: in.GranteeID,
		Block:     block,
		Impact:    impact,
	})
}
