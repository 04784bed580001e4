package flowmath

import (
	"fmt"
	"math/big"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

// FairLaunchPrice returns the required bid of the fair-launch auction at t
// (unix seconds). The deployed auction answers EndingBid for every instant
// before End and only applies the decay formula from End on; that behavior
// is reproduced exactly, including results at or below zero after End.
func FairLaunchPrice(p entity.FairLaunchAuction, t int64) *big.Int {
	endingBid := orZero(p.EndingBid)
	if t < p.End || p.End <= p.Start {
		return endingBid
	}

	startingBid := orZero(p.StartingBid)
	decay := big.NewInt(t - p.Start)
	decay.Mul(decay, startingBid)
	decay.Quo(decay, big.NewInt(p.End-p.Start))

	return startingBid.Sub(startingBid, decay)
}

// ReclaimPrice returns the price to reclaim a foreclosed parcel at t. It
// decays linearly from ForSalePrice at AuctionStart to zero at
// AuctionStart+Length and stays at zero afterwards.
func ReclaimPrice(p entity.ReclaimAuction, t int64) *big.Int {
	if p.Length <= 0 || t > p.AuctionStart+p.Length {
		return new(big.Int)
	}

	price := orZero(p.ForSalePrice)
	if t <= p.AuctionStart {
		return price
	}

	decay := big.NewInt(t - p.AuctionStart)
	decay.Mul(decay, price)
	decay.Quo(decay, big.NewInt(p.Length))

	return price.Sub(price, decay)
}

func ValidateFairLaunch(p entity.FairLaunchAuction) error {
	if p.End <= p.Start {
		return fmt.Errorf("fair launch [%d, %d]: %w", p.Start, p.End, ErrInvalidWindow)
	}
	start, end := orZero(p.StartingBid), orZero(p.EndingBid)
	if start.Sign() < 0 || end.Sign() < 0 {
		return fmt.Errorf("fair launch: %w", ErrNegativeBid)
	}
	if end.Cmp(start) > 0 {
		return fmt.Errorf("fair launch %s > %s: %w", end, start, ErrInvalidBidRange)
	}
	return nil
}

func ValidateReclaim(p entity.ReclaimAuction) error {
	if p.Length <= 0 {
		return fmt.Errorf("reclaim %s length %d: %w", p.ParcelID, p.Length, ErrInvalidLength)
	}
	if orZero(p.ForSalePrice).Sign() < 0 {
		return fmt.Errorf("reclaim %s: %w", p.ParcelID, ErrNegativeBid)
	}
	return nil
}

func orZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
