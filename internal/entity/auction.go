package entity

import "math/big"

// FairLaunchAuction holds the parameters of the global fair-launch auction.
type FairLaunchAuction struct {
	Start       int64    `json:"start"`
	End         int64    `json:"end"`
	StartingBid *big.Int `json:"startingBid"`
	EndingBid   *big.Int `json:"endingBid"`
}

// ReclaimAuction holds the parameters of a parcel's foreclosure auction.
type ReclaimAuction struct {
	ParcelID     string   `json:"parcelId"`
	ForSalePrice *big.Int `json:"forSalePrice"`
	AuctionStart int64    `json:"auctionStart"`
	Length       int64    `json:"length"` // seconds
}

// AuctionUpdate carries either auction variant as read from the contracts.
type AuctionUpdate struct {
	FairLaunch *FairLaunchAuction `json:"fairLaunch,omitempty"`
	Reclaim    *ReclaimAuction    `json:"reclaim,omitempty"`
}
