package flowmath

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Month is the 30.4166-day month used to express flow rates per month.
const Month = 2_628_000 * time.Second

// PerInterval converts a per-second flow rate to the amount streamed over
// interval. Sub-second parts of interval are ignored.
func PerInterval(flowRate *big.Int, interval time.Duration) *big.Int {
	secs := big.NewInt(int64(interval / time.Second))
	return secs.Mul(secs, orZero(flowRate))
}

// FromPerInterval converts an amount per interval back to a per-second flow
// rate, truncating toward zero like the contracts do.
func FromPerInterval(amount *big.Int, interval time.Duration) *big.Int {
	secs := int64(interval / time.Second)
	if secs <= 0 {
		return new(big.Int)
	}
	rate := orZero(amount)
	return rate.Quo(rate, big.NewInt(secs))
}

// FormatUnits renders x smallest units as a decimal token amount.
func FormatUnits(x *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(orZero(x), -decimals).String()
}

// ParseUnits parses a decimal token amount into smallest units, dropping
// digits beyond decimals.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}
