package flowmath

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

func snapshot(balance, flowRate int64, updatedAt int64) entity.Snapshot {
	return entity.Snapshot{
		AccountKey: entity.AccountKey{Account: "0xabc", Token: "ETHx"},
		Balance:    big.NewInt(balance),
		UpdatedAt:  updatedAt,
		FlowRate:   big.NewInt(flowRate),
	}
}

func TestExtrapolate(t *testing.T) {
	s := snapshot(1_000, 10, 1_700_000_000)

	assert.Equal(t, "1000", Extrapolate(s, 1_700_000_000_000).String())
	assert.Equal(t, "1010", Extrapolate(s, 1_700_000_001_000).String())
	assert.Equal(t, "1015", Extrapolate(s, 1_700_000_001_500).String())
	assert.Equal(t, "1600", BalanceAtSecond(s, 1_700_000_060).String())
	assert.Equal(t, "1600", ExtrapolateAt(s, time.Unix(1_700_000_060, 0)).String())
}

func TestExtrapolate_Deficit(t *testing.T) {
	s := snapshot(100, -3, 1_000)

	assert.Equal(t, "-200", BalanceAtSecond(s, 1_100).String())
	assert.True(t, Deficit(s, 1_100_000))
	assert.False(t, Deficit(s, 1_010_000))

	at, ok := DepletionTime(s)
	assert.True(t, ok)
	assert.Equal(t, int64(1_034), at)
	assert.True(t, BalanceAtSecond(s, at).Sign() <= 0)
	assert.True(t, BalanceAtSecond(s, at-1).Sign() > 0)
}

func TestExtrapolate_Truncation(t *testing.T) {
	// -7 * 0.5s truncates toward zero
	s := snapshot(0, -7, 10)
	assert.Equal(t, "-3", Extrapolate(s, 10_500).String())
}

func TestExtrapolate_NotStreaming(t *testing.T) {
	s := snapshot(42, 0, 10)
	assert.Equal(t, "42", Extrapolate(s, 99_999_000).String())

	_, ok := DepletionTime(s)
	assert.False(t, ok)

	s.FlowRate = nil
	assert.Equal(t, "42", Extrapolate(s, 99_999_000).String())
}

func TestExtrapolate_DoesNotMutate(t *testing.T) {
	s := snapshot(5, 1, 0)
	out := Extrapolate(s, 0)
	out.SetInt64(99)
	assert.Equal(t, "5", s.Balance.String())
}

func genSnapshot(t *rapid.T) entity.Snapshot {
	return snapshot(
		rapid.Int64Range(-1e15, 1e15).Draw(t, "balance"),
		rapid.Int64Range(-1e12, 1e12).Draw(t, "flowRate"),
		rapid.Int64Range(0, 4e9).Draw(t, "updatedAt"),
	)
}

func TestExtrapolate_Identity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genSnapshot(t)
		if got := Extrapolate(s, s.UpdatedAt*1000); got.Cmp(s.Balance) != 0 {
			t.Fatalf("extrapolate at updatedAt = %s, want %s", got, s.Balance)
		}
	})
}

func TestExtrapolate_Linear(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genSnapshot(t)
		t1 := rapid.Int64Range(0, 4e9).Draw(t, "t1")
		t2 := rapid.Int64Range(0, 4e9).Draw(t, "t2")

		diff := new(big.Int).Sub(BalanceAtSecond(s, t2), BalanceAtSecond(s, t1))
		want := new(big.Int).Mul(s.FlowRate, big.NewInt(t2-t1))
		if diff.Cmp(want) != 0 {
			t.Fatalf("drift: %s != %s", diff, want)
		}
	})
}
