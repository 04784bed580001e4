package event

import (
	"math/big"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

type SnapshotReceived struct {
	entity.Snapshot

	Offset int64
}

type SnapshotSkipped struct {
	Key    entity.AccountKey
	Offset int64
}

// BalancesUpdated carries extrapolated balances of streaming accounts,
// keyed by AccountKey.String().
type BalancesUpdated struct {
	At       int64 // unix millis
	Balances map[string]*big.Int
}
