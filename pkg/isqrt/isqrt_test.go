package isqrt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSqrt_Small(t *testing.T) {
	cases := map[int64]int64{
		0:   0,
		1:   1,
		2:   1,
		3:   1,
		4:   2,
		8:   2,
		9:   3,
		15:  3,
		16:  4,
		99:  9,
		100: 10,
	}

	for in, want := range cases {
		assert.Equal(t, big.NewInt(want).String(), Sqrt(big.NewInt(in)).String(), "sqrt(%d)", in)
		assert.Equal(t, uint64(want), Sqrt64(uint64(in)), "sqrt64(%d)", in)
	}
}

func TestSqrt_DoesNotAliasInput(t *testing.T) {
	in := big.NewInt(1)
	out := Sqrt(in)
	out.SetInt64(7)
	assert.Equal(t, "1", in.String())
}

func TestSqrt_Negative(t *testing.T) {
	assert.PanicsWithValue(t, ErrNegative, func() {
		Sqrt(big.NewInt(-4))
	})
}

func TestSqrt_MaxUint256(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	assert.Equal(t, want, Sqrt(max))
}

func TestSqrt_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.IntRange(0, 256).Draw(t, "bits")
		words := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "bytes")

		n := new(big.Int).SetBytes(words)
		n.Rsh(n, uint(256-bits))

		r := Sqrt(n)
		lo := new(big.Int).Mul(r, r)
		r1 := new(big.Int).Add(r, big.NewInt(1))
		hi := new(big.Int).Mul(r1, r1)

		if lo.Cmp(n) > 0 || hi.Cmp(n) <= 0 {
			t.Fatalf("sqrt(%s) = %s out of bounds", n, r)
		}
		if r.Cmp(new(big.Int).Sqrt(n)) != 0 {
			t.Fatalf("sqrt(%s) = %s, math/big says %s", n, r, new(big.Int).Sqrt(n))
		}
	})
}

func TestSqrt64_MatchesBig(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64().Draw(t, "n")
		if got, want := Sqrt64(n), Sqrt(new(big.Int).SetUint64(n)).Uint64(); got != want {
			t.Fatalf("sqrt64(%d) = %d, want %d", n, got, want)
		}
	})
}
