package flowmath

import (
	"fmt"
	"math/big"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/isqrt"
)

var (
	// unitsScale is applied to member units before the square root.
	unitsScale = big.NewInt(100_000)
	// flowRateScale is the fixed-point divisor for flow rates.
	flowRateScale = big.NewInt(1_000_000)
)

// Impact is the effect of one contribution change on a grantee's share of
// the matching pool.
type Impact struct {
	// PriorUnits is the grantee's units with this contributor's previous
	// weight removed.
	PriorUnits         *big.Int `json:"priorUnits"`
	NewGranteeUnits    *big.Int `json:"newGranteeUnits"`
	NewGranteeFlowRate *big.Int `json:"newGranteeFlowRate"`
	NetImpact          *big.Int `json:"netImpact"`
}

// ComputeImpact estimates how a contributor changing their stream to
// grantee from change.PreviousFlowRate to change.NewFlowRate moves the
// grantee's matching flow rate.
//
// pool.TotalFlowRate must already exclude the adjustment flow rate, and
// pool and grantee must come from the same read.
func ComputeImpact(pool entity.PoolState, grantee entity.MemberState, change entity.ContributionChange) (Impact, error) {
	units := orZero(grantee.Units)
	flowRate := orZero(grantee.FlowRate)
	prev := orZero(change.PreviousFlowRate)
	next := orZero(change.NewFlowRate)

	if prev.Sign() < 0 || next.Sign() < 0 {
		return Impact{}, fmt.Errorf("member %s: %w", change.MemberID, ErrNegativeFlowRate)
	}
	if units.Sign() < 0 {
		return Impact{}, fmt.Errorf("member %s: %w", change.MemberID, ErrNegativeUnits)
	}

	if next.Sign() == 0 || prev.Cmp(next) == 0 {
		return Impact{
			PriorUnits:         new(big.Int).Set(units),
			NewGranteeUnits:    units,
			NewGranteeFlowRate: flowRate,
			NetImpact:          new(big.Int),
		}, nil
	}

	weight := isqrt.Sqrt(new(big.Int).Mul(units, unitsScale))
	weight.Sub(weight, isqrt.Sqrt(new(big.Int).Quo(prev, flowRateScale)))
	prior := squareDown(weight)

	weight.Add(weight, isqrt.Sqrt(new(big.Int).Quo(next, flowRateScale)))
	newUnits := squareDown(weight)

	poolUnits := new(big.Int).Sub(newUnits, units)
	poolUnits.Add(poolUnits, orZero(pool.TotalUnits))
	if poolUnits.Sign() == 0 {
		return Impact{}, fmt.Errorf("pool %s: %w", pool.ID, ErrZeroPoolUnits)
	}

	newFlowRate := new(big.Int).Mul(newUnits, orZero(pool.TotalFlowRate))
	newFlowRate.Quo(newFlowRate, poolUnits)

	return Impact{
		PriorUnits:         prior,
		NewGranteeUnits:    newUnits,
		NewGranteeFlowRate: newFlowRate,
		NetImpact:          new(big.Int).Sub(newFlowRate, flowRate),
	}, nil
}

// ImpactForMember looks the grantee up in pool.Members and computes the
// impact of change on it.
func ImpactForMember(pool entity.PoolState, granteeID string, change entity.ContributionChange) (Impact, error) {
	grantee, ok := pool.Members[granteeID]
	if !ok {
		return Impact{}, fmt.Errorf("pool %s member %s: %w", pool.ID, granteeID, ErrUnknownMember)
	}
	return ComputeImpact(pool, grantee, change)
}

// squareDown returns w*w / unitsScale.
func squareDown(w *big.Int) *big.Int {
	sq := new(big.Int).Mul(w, w)
	return sq.Quo(sq, unitsScale)
}
