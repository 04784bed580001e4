package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/service/auctioneer"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
)

const (
	TopicAuction = "auction"
	TopicImpact  = "impact"
	parcelPrefix = "parcel:"
)

type Balances interface {
	Balance(key entity.AccountKey, atMillis int64) (*big.Int, bool)
}

type Prices interface {
	FairLaunchPrice(t int64) (*big.Int, error)
	ReclaimPrice(parcelID string, t int64) (*big.Int, error)
	History(n int) []auctioneer.Tick
}

type Estimator interface {
	Estimate(poolID, granteeID string, change entity.ContributionChange) (flowmath.Impact, uint64, error)
}

type Deps struct {
	Balances  Balances
	Prices    Prices
	Estimator Estimator
	Metrics   http.Handler
	// Bus receives impact requests sent over the websocket.
	Bus     *ebus.EBus
	OnConns func(int)
}

type Server struct {
	web      *http.Server
	keeper   *keeper
	state    *state
	deps     Deps
	decimals int32
	now      func() time.Time
	log      zerolog.Logger
}

func New(addr string, decimals int32, deps Deps, log zerolog.Logger) *Server {
	if deps.OnConns == nil {
		deps.OnConns = func(int) {}
	}
	serv := &Server{
		web: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
		},
		keeper:   nil,
		state:    newState(),
		deps:     deps,
		decimals: decimals,
		now:      time.Now,
		log:      log.With().Str("service", "web").Logger(),
	}
	serv.keeper = newKeeper(deps.OnConns, serv.request)
	serv.web.Handler = serv.router()
	return serv
}

func (s *Server) Run(ctx context.Context) error {
	closed := make(chan error, 1)

	go func() {
		closed <- s.web.ListenAndServe()
	}()
	s.log.Info().Str("addr", s.web.Addr).Msg("listening")

	select {
	case err := <-closed:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.web.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

func (s *Server) UpdateBalances(ctx context.Context, update event.BalancesUpdated) error {
	s.state.update(update.At, update.Balances)

	s.keeper.walkSubs(func(c *client, topic string) error {
		balance, ok := update.Balances[topic]
		if !ok {
			return nil
		}
		return s.send(c, Balance{
			Key:     topic,
			At:      update.At,
			Balance: newAmount(balance, s.decimals),
			Deficit: balance.Sign() < 0,
		})
	})
	return nil
}

func (s *Server) UpdatePrices(ctx context.Context, update event.PricesUpdated) error {
	s.keeper.walkSubs(func(c *client, topic string) error {
		switch {
		case topic == TopicAuction && update.FairLaunch != nil:
			return s.send(c, Price{Auction: topic, At: update.At, Price: newAmount(update.FairLaunch, s.decimals)})
		case strings.HasPrefix(topic, parcelPrefix):
			price, ok := update.Reclaim[strings.TrimPrefix(topic, parcelPrefix)]
			if !ok {
				return nil
			}
			return s.send(c, Price{Auction: topic, At: update.At, Price: newAmount(price, s.decimals)})
		}
		return nil
	})
	return nil
}

func (s *Server) PublishImpact(ctx context.Context, estimated event.ImpactEstimated) error {
	out := newImpact(estimated.PoolID, estimated.GranteeID, estimated.Block, estimated.Impact, s.decimals)
	out.RequestID = estimated.RequestID.String()

	s.keeper.walkSubs(func(c *client, topic string) error {
		if topic != TopicImpact {
			return nil
		}
		return s.send(c, out)
	})
	return nil
}

func (s *Server) PublishImpactFailed(ctx context.Context, failed event.ImpactFailed) error {
	out := ImpactError{RequestID: failed.RequestID.String(), Error: failed.Err}

	s.keeper.walkSubs(func(c *client, topic string) error {
		if topic != TopicImpact {
			return nil
		}
		return s.send(c, out)
	})
	return nil
}

func (s *Server) send(c *client, payload any) error {
	js, err := json.Marshal(NewMessage(payload))
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return c.write(js)
}

// request turns a websocket impact request into a ContributionRequested
// event; the estimate is pushed to impact subscribers.
func (s *Server) request(data []byte) {
	req := ImpactRequest{}
	if err := json.Unmarshal(data, &req); err != nil {
		s.log.Debug().Err(err).Msg("bad websocket request")
		return
	}
	change, err := req.change()
	if err != nil || s.deps.Bus == nil {
		s.log.Debug().Err(err).Msg("websocket request dropped")
		return
	}

	id, err := uuid.Parse(req.RequestID)
	if err != nil {
		id = uuid.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	err = s.deps.Bus.Emit(ctx, event.ContributionRequested{
		ID:        id,
		PoolID:    req.PoolID,
		GranteeID: req.GranteeID,
		Change:    change,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("impact request")
	}
}

func (req ImpactRequest) change() (entity.ContributionChange, error) {
	change := entity.ContributionChange{MemberID: req.MemberID}

	var ok bool
	if change.NewFlowRate, ok = new(big.Int).SetString(req.NewFlowRate, 10); !ok {
		return change, fmt.Errorf("%w: newFlowRate %q", errBadRequest, req.NewFlowRate)
	}
	if req.PreviousFlowRate != "" {
		if change.PreviousFlowRate, ok = new(big.Int).SetString(req.PreviousFlowRate, 10); !ok {
			return change, fmt.Errorf("%w: previousFlowRate %q", errBadRequest, req.PreviousFlowRate)
		}
	}
	return change, nil
}

func (s *Server) estimate(req ImpactRequest) (Impact, error) {
	change, err := req.change()
	if err != nil {
		return Impact{}, err
	}

	impact, block, err := s.deps.Estimator.Estimate(req.PoolID, req.GranteeID, change)
	if err != nil {
		return Impact{}, err
	}
	return newImpact(req.PoolID, req.GranteeID, block, impact, s.decimals), nil
}

var errBadRequest = errors.New("bad request")
