// Package isqrt implements the integer square root used by the distribution
// pool contracts. Results must match the on-chain implementation bit for bit,
// so math/big.Int.Sqrt is not used even though it agrees for every input.
package isqrt

import (
	"errors"
	"math/big"
)

var ErrNegative = errors.New("isqrt: negative input")

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Sqrt returns floor(sqrt(s)) using Newton's method seeded with s/2.
// It panics with ErrNegative if s < 0.
func Sqrt(s *big.Int) *big.Int {
	if s.Sign() < 0 {
		panic(ErrNegative)
	}
	if s.Cmp(one) <= 0 {
		return new(big.Int).Set(s)
	}

	x0 := new(big.Int).Quo(s, two)
	x1 := next(s, x0)
	for x1.Cmp(x0) < 0 {
		x0 = x1
		x1 = next(s, x0)
	}

	return x0
}

// next is one Newton step: (x + s/x) / 2.
func next(s, x *big.Int) *big.Int {
	n := new(big.Int).Quo(s, x)
	n.Add(n, x)
	return n.Quo(n, two)
}

func Sqrt64(s uint64) uint64 {
	if s <= 1 {
		return s
	}

	x0 := s / 2
	x1 := (x0 + s/x0) / 2
	for x1 < x0 {
		x0 = x1
		x1 = (x0 + s/x0) / 2
	}

	return x0
}
