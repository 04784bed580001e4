// Package flowmath mirrors the streaming-payment and distribution-pool
// arithmetic of the on-chain contracts. Everything here is a pure function
// of immutable inputs and uses truncating integer division only.
package flowmath

import (
	"math/big"
	"time"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

var thousand = big.NewInt(1000)

// Extrapolate returns the balance of s at atMillis (unix milliseconds).
// Negative results are returned as is: they mean the account is in deficit.
func Extrapolate(s entity.Snapshot, atMillis int64) *big.Int {
	balance := new(big.Int)
	if s.Balance != nil {
		balance.Set(s.Balance)
	}
	if !s.Streaming() {
		return balance
	}

	elapsed := big.NewInt(atMillis - s.UpdatedAt*1000)
	delta := elapsed.Mul(elapsed, s.FlowRate)
	delta.Quo(delta, thousand)

	return balance.Add(balance, delta)
}

func ExtrapolateAt(s entity.Snapshot, at time.Time) *big.Int {
	return Extrapolate(s, at.UnixMilli())
}

// BalanceAtSecond is the balance the contract reports for a block with the
// given timestamp.
func BalanceAtSecond(s entity.Snapshot, unixSeconds int64) *big.Int {
	return Extrapolate(s, unixSeconds*1000)
}

// Deficit reports whether the balance of s is below zero at atMillis.
func Deficit(s entity.Snapshot, atMillis int64) bool {
	return Extrapolate(s, atMillis).Sign() < 0
}

// DepletionTime returns the first whole second at which the balance of an
// outflowing account is no longer positive. ok is false when the balance
// never runs out.
func DepletionTime(s entity.Snapshot) (unixSeconds int64, ok bool) {
	if !s.Streaming() || s.FlowRate.Sign() > 0 {
		return 0, false
	}

	balance := new(big.Int)
	if s.Balance != nil {
		balance.Set(s.Balance)
	}
	if balance.Sign() <= 0 {
		return s.UpdatedAt, true
	}

	// ceil(balance / -flowRate)
	outflow := new(big.Int).Neg(s.FlowRate)
	secs, rem := new(big.Int).QuoRem(balance, outflow, new(big.Int))
	if rem.Sign() != 0 {
		secs.Add(secs, big.NewInt(1))
	}
	if !secs.IsInt64() {
		return 0, false
	}

	return s.UpdatedAt + secs.Int64(), true
}
