package simulator

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
)

type Store interface {
	StoreBalance(ctx context.Context, snapshot entity.Snapshot) error
	StorePool(ctx context.Context, pool entity.PoolSnapshot) error
	StoreAuction(ctx context.Context, update entity.AuctionUpdate) error
}

// Simulator stands in for the indexer in development: it publishes fresh
// balance and pool reads every frame and the auction parameters once.
type Simulator struct {
	accounts []string
	token    string
	repo     Store
	frame    time.Duration
	rnd      *rand.Rand
	block    uint64
	now      func() time.Time
}

func NewSimulator(repo Store, token string, accounts ...string) *Simulator {
	return &Simulator{
		accounts: accounts,
		token:    token,
		repo:     repo,
		frame:    10 * time.Second,
		rnd:      rand.New(rand.NewSource(1)),
		now:      time.Now,
	}
}

func (s *Simulator) Every(frame time.Duration) *Simulator {
	s.frame = frame
	return s
}

func (s *Simulator) Run(ctx context.Context) error {
	if err := s.publishAuctions(ctx); err != nil {
		return err
	}
	if err := s.publishReads(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.publishReads(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Simulator) publishAuctions(ctx context.Context) error {
	now := s.now().Unix()
	startingBid := decimal.RequireFromString("10").Shift(18).BigInt()
	endingBid := decimal.RequireFromString("0.1").Shift(18).BigInt()

	err := s.repo.StoreAuction(ctx, entity.AuctionUpdate{FairLaunch: &entity.FairLaunchAuction{
		Start:       now - 3600,
		End:         now + 7*24*3600,
		StartingBid: startingBid,
		EndingBid:   endingBid,
	}})
	if err != nil {
		return fmt.Errorf("store fair launch: %w", err)
	}

	for i := range s.accounts {
		err := s.repo.StoreAuction(ctx, entity.AuctionUpdate{Reclaim: &entity.ReclaimAuction{
			ParcelID:     fmt.Sprintf("0x%x", i+1),
			ForSalePrice: new(big.Int).Div(startingBid, big.NewInt(int64(i+2))),
			AuctionStart: now,
			Length:       14 * 24 * 3600,
		}})
		if err != nil {
			return fmt.Errorf("store reclaim: %w", err)
		}
	}
	return nil
}

func (s *Simulator) publishReads(ctx context.Context) error {
	now := s.now().Unix()
	s.block++

	pool := entity.PoolState{
		ID:                 "matching",
		TotalUnits:         new(big.Int),
		TotalFlowRate:      decimal.RequireFromString("1000").Shift(18).BigInt(),
		AdjustmentFlowRate: big.NewInt(s.rnd.Int63n(1_000)),
		Members:            make(map[string]entity.MemberState),
	}
	outflows := make([]entity.Outflow, 0, len(s.accounts))

	for _, account := range s.accounts {
		perMonth := decimal.NewFromInt(s.rnd.Int63n(200) - 50).Shift(18).BigInt()
		snapshot := entity.Snapshot{
			AccountKey: entity.AccountKey{Account: account, Token: s.token},
			Balance:    decimal.NewFromInt(s.rnd.Int63n(1_000)).Shift(18).BigInt(),
			UpdatedAt:  now,
			FlowRate:   flowmath.FromPerInterval(perMonth, flowmath.Month),
		}
		if err := s.repo.StoreBalance(ctx, snapshot); err != nil {
			return fmt.Errorf("store balance %s: %w", account, err)
		}

		units := big.NewInt(1 + s.rnd.Int63n(2_000_000))
		pool.TotalUnits.Add(pool.TotalUnits, units)
		pool.Members[account] = entity.MemberState{Units: units, UpdatedAt: now}
		outflows = append(outflows, entity.Outflow{Sender: account, MemberID: account, FlowRate: new(big.Int)})
	}

	effective := pool.EffectiveFlowRate()
	for id, m := range pool.Members {
		m.FlowRate = new(big.Int).Quo(new(big.Int).Mul(m.Units, effective), pool.TotalUnits)
		m.TotalAmountClaimed = new(big.Int)
		pool.Members[id] = m
	}

	if len(s.accounts) == 0 {
		return nil
	}
	if err := s.repo.StorePool(ctx, entity.PoolSnapshot{Pool: pool, Outflows: outflows, Block: s.block}); err != nil {
		return fmt.Errorf("store pool: %w", err)
	}
	return nil
}
