package event

import (
	"math/big"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

type AuctionReceived struct {
	entity.AuctionUpdate

	Offset int64
}

type AuctionRejected struct {
	Reason string
}

// PricesUpdated carries the required bid of every known auction at At.
type PricesUpdated struct {
	At         int64 // unix seconds
	FairLaunch *big.Int
	Reclaim    map[string]*big.Int // parcel id -> price
}
