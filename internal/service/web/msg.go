package web

import (
	"math/big"
	"reflect"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
)

type msg struct {
	mType int
	data  []byte
	err   error
}

type BaseMessage struct {
	Name    string
	Payload interface{}
}

func NewMessage(payload interface{}) BaseMessage {
	return BaseMessage{
		Name:    reflect.TypeOf(payload).Name(),
		Payload: payload,
	}
}

// Amount is an integer in smallest units together with its token-unit
// rendering. Value is a string so JavaScript clients keep full precision.
type Amount struct {
	Value     string `json:"value"`
	Formatted string `json:"formatted"`
}

func newAmount(x *big.Int, decimals int32) Amount {
	if x == nil {
		return Amount{}
	}
	return Amount{Value: x.String(), Formatted: flowmath.FormatUnits(x, decimals)}
}

type Balance struct {
	Key     string `json:"key"`
	At      int64  `json:"at"`
	Balance Amount `json:"balance"`
	Deficit bool   `json:"deficit"`
}

type Price struct {
	Auction string `json:"auction"`
	At      int64  `json:"at"`
	Price   Amount `json:"price"`
}

type PriceHistory struct {
	Price
	History []Price `json:"history"`
}

type Impact struct {
	RequestID       string `json:"requestId,omitempty"`
	PoolID          string `json:"poolId"`
	GranteeID       string `json:"granteeId"`
	Block           uint64 `json:"block"`
	NewGranteeUnits string `json:"newGranteeUnits"`
	NetImpact       Amount `json:"netImpact"`
	NetImpactMonth  Amount `json:"netImpactPerMonth"`
}

func newImpact(poolID, granteeID string, block uint64, impact flowmath.Impact, decimals int32) Impact {
	return Impact{
		PoolID:          poolID,
		GranteeID:       granteeID,
		Block:           block,
		NewGranteeUnits: impact.NewGranteeUnits.String(),
		NetImpact:       newAmount(impact.NetImpact, decimals),
		NetImpactMonth:  newAmount(flowmath.PerInterval(impact.NetImpact, flowmath.Month), decimals),
	}
}

type ImpactError struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

// ImpactRequest is the body of POST /impact. Flow rates are decimal
// integer strings in smallest units per second; an empty previous flow
// rate means the sender's current outflow in the pool snapshot. Over the
// websocket, RequestID is echoed in the reply.
type ImpactRequest struct {
	RequestID        string `json:"requestId,omitempty"`
	PoolID           string `json:"poolId"`
	GranteeID        string `json:"granteeId"`
	MemberID         string `json:"memberId"`
	PreviousFlowRate string `json:"previousFlowRate"`
	NewFlowRate      string `json:"newFlowRate"`
}
