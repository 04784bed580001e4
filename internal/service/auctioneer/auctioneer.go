package auctioneer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/metrics"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ringbuf"
)

// Tick is one sampled fair-launch price.
type Tick struct {
	At    int64    `json:"at"`
	Price *big.Int `json:"price"`
}

// Auctioneer keeps the auction parameters read from the contracts and
// prices them against the clock.
type Auctioneer struct {
	mx sync.RWMutex

	fairLaunch *entity.FairLaunchAuction
	reclaims   map[string]entity.ReclaimAuction
	history    *ringbuf.Ring[Tick]

	eBus    *ebus.EBus
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewAuctioneer(history int, eBus *ebus.EBus, m *metrics.Metrics, log zerolog.Logger) *Auctioneer {
	if history < 1 {
		history = 1
	}
	return &Auctioneer{
		reclaims: make(map[string]entity.ReclaimAuction),
		history:  ringbuf.New[Tick](history),
		eBus:     eBus,
		metrics:  m,
		log:      log.With().Str("service", "auctioneer").Logger(),
	}
}

// HandleAuction stores valid parameters. Invalid ones are reported and
// dropped; the previous parameters stay in effect. Each variant of the
// update is handled on its own.
func (a *Auctioneer) HandleAuction(ctx context.Context, in event.AuctionReceived) error {
	var errs []error

	if fl := in.FairLaunch; fl != nil {
		if err := flowmath.ValidateFairLaunch(*fl); err != nil {
			errs = append(errs, a.reject(ctx, "fair_launch", err))
		} else {
			a.mx.Lock()
			p := *fl
			a.fairLaunch = &p
			a.mx.Unlock()
			a.metrics.SnapshotsReceived.WithLabelValues("fair_launch").Inc()
		}
	}

	if rc := in.Reclaim; rc != nil {
		if err := flowmath.ValidateReclaim(*rc); err != nil {
			errs = append(errs, a.reject(ctx, "reclaim", err))
		} else {
			a.mx.Lock()
			a.reclaims[rc.ParcelID] = *rc
			a.mx.Unlock()
			a.metrics.SnapshotsReceived.WithLabelValues("reclaim").Inc()
		}
	}

	return errors.Join(errs...)
}

func (a *Auctioneer) reject(ctx context.Context, variant string, err error) error {
	a.metrics.AuctionsRejected.WithLabelValues(variant).Inc()
	a.log.Warn().Err(err).Str("variant", variant).Msg("auction params rejected")
	if a.eBus.Has(event.AuctionRejected{}) {
		return a.eBus.Emit(ctx, event.AuctionRejected{Reason: err.Error()})
	}
	return nil
}

// Prices returns the required bid of every known auction at t (unix
// seconds) and records the fair-launch price in the history.
func (a *Auctioneer) Prices(t int64) event.PricesUpdated {
	a.mx.Lock()
	defer a.mx.Unlock()

	out := event.PricesUpdated{
		At:      t,
		Reclaim: make(map[string]*big.Int, len(a.reclaims)),
	}
	if a.fairLaunch != nil {
		out.FairLaunch = flowmath.FairLaunchPrice(*a.fairLaunch, t)
		a.history.PushFront(Tick{At: t, Price: out.FairLaunch})
	}
	for id, p := range a.reclaims {
		out.Reclaim[id] = flowmath.ReclaimPrice(p, t)
	}

	return out
}

func (a *Auctioneer) FairLaunchPrice(t int64) (*big.Int, error) {
	a.mx.RLock()
	defer a.mx.RUnlock()

	if a.fairLaunch == nil {
		return nil, fmt.Errorf("fair launch: %w", ErrUnknownAuction)
	}
	return flowmath.FairLaunchPrice(*a.fairLaunch, t), nil
}

func (a *Auctioneer) ReclaimPrice(parcelID string, t int64) (*big.Int, error) {
	a.mx.RLock()
	defer a.mx.RUnlock()

	p, ok := a.reclaims[parcelID]
	if !ok {
		return nil, fmt.Errorf("parcel %s: %w", parcelID, ErrUnknownAuction)
	}
	return flowmath.ReclaimPrice(p, t), nil
}

// History returns up to n recorded fair-launch prices, newest first.
func (a *Auctioneer) History(n int) []Tick {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.history.Last(n)
}
