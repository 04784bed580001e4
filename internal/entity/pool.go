package entity

import "math/big"

// PoolState is a single read of a distribution pool. Matching math expects
// TotalFlowRate to exclude AdjustmentFlowRate, see EffectiveFlowRate.
type PoolState struct {
	ID                 string                 `json:"id"`
	TotalUnits         *big.Int               `json:"totalUnits"`
	TotalFlowRate      *big.Int               `json:"totalFlowRate"`
	AdjustmentFlowRate *big.Int               `json:"adjustmentFlowRate"`
	Members            map[string]MemberState `json:"members"`
}

// EffectiveFlowRate returns TotalFlowRate minus the adjustment stream.
func (p PoolState) EffectiveFlowRate() *big.Int {
	rate := new(big.Int)
	if p.TotalFlowRate != nil {
		rate.Set(p.TotalFlowRate)
	}
	if p.AdjustmentFlowRate != nil {
		rate.Sub(rate, p.AdjustmentFlowRate)
	}
	return rate
}

// Adjusted returns a copy of the pool with the adjustment stream subtracted
// from TotalFlowRate and zeroed.
func (p PoolState) Adjusted() PoolState {
	p.TotalFlowRate = p.EffectiveFlowRate()
	p.AdjustmentFlowRate = new(big.Int)
	return p
}

type MemberState struct {
	Units              *big.Int `json:"units"`
	FlowRate           *big.Int `json:"flowRate"`
	TotalAmountClaimed *big.Int `json:"totalAmountClaimed"`
	UpdatedAt          int64    `json:"updatedAtTimestamp"`
}

// ContributionChange is a contributor moving their stream to a grantee
// from PreviousFlowRate to NewFlowRate.
type ContributionChange struct {
	MemberID         string   `json:"memberId"`
	PreviousFlowRate *big.Int `json:"previousFlowRate"`
	NewFlowRate      *big.Int `json:"newFlowRate"`
}

// PoolSnapshot is a pool read and the subscriber's outflow taken from the
// same block, so that estimates never straddle two heights.
type PoolSnapshot struct {
	Pool     PoolState `json:"pool"`
	Outflows []Outflow `json:"outflows"`
	Block    uint64    `json:"block"`
}

// Outflow is a contributor's current stream towards a pool member.
type Outflow struct {
	Sender   string   `json:"sender"`
	MemberID string   `json:"memberId"`
	FlowRate *big.Int `json:"flowRate"`
}

// Outflow returns the sender's current flow rate to the member, or zero.
func (s PoolSnapshot) Outflow(sender, memberID string) *big.Int {
	for _, o := range s.Outflows {
		if o.Sender == sender && o.MemberID == memberID && o.FlowRate != nil {
			return new(big.Int).Set(o.FlowRate)
		}
	}
	return new(big.Int)
}
