package entity

import (
	"fmt"
	"math/big"
)

// AccountKey identifies a streamed balance: one account holding one token.
type AccountKey struct {
	Account string `json:"account"`
	Token   string `json:"token"`
}

func (k AccountKey) String() string {
	return fmt.Sprintf("%s:%s", k.Account, k.Token)
}

// Snapshot is a balance read at UpdatedAt together with the net flow rate
// in effect since then. It is replaced wholesale by the next read.
type Snapshot struct {
	AccountKey
	Balance   *big.Int `json:"balance"`
	UpdatedAt int64    `json:"updatedAtTimestamp"` // unix seconds
	FlowRate  *big.Int `json:"flowRate"`           // units per second, signed
}

func (s Snapshot) Streaming() bool {
	return s.FlowRate != nil && s.FlowRate.Sign() != 0
}
