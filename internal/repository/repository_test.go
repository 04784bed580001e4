package repository

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

func testSnapshot() entity.Snapshot {
	return entity.Snapshot{
		AccountKey: entity.AccountKey{Account: "0xabc", Token: "ETHx"},
		Balance:    big.NewInt(1_000),
		UpdatedAt:  1_700_000_000,
		FlowRate:   big.NewInt(-3),
	}
}

func TestState_EncodeDecode(t *testing.T) {
	s := testSnapshot()
	msgs, err := encodeState("state", entity.State{
		Snapshots: map[string]entity.Snapshot{s.AccountKey.String(): s},
		Offset:    41,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, sarama.StringEncoder("0xabc:ETHx"), msgs[0].Key)

	value, err := msgs[0].Value.Encode()
	require.NoError(t, err)

	state := entity.State{Snapshots: map[string]entity.Snapshot{}}
	require.NoError(t, decodeRecord(&state, value))
	require.NoError(t, decodeRecord(&state, nil))

	assert.Equal(t, int64(41), state.Offset)
	assert.Equal(t, s, state.Snapshots["0xabc:ETHx"])
}

func TestSnapshot_StoreBalance(t *testing.T) {
	prod := mocks.NewSyncProducer(t, nil)
	defer prod.Close()

	s := testSnapshot()
	prod.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		got := entity.Snapshot{}
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		assert.Equal(t, s, got)
		return nil
	})

	repo := NewSnapshot(prod, Topics{Balances: "balances"})
	assert.NoError(t, repo.StoreBalance(context.Background(), s))
}

func TestSnapshot_StoreAuctionFails(t *testing.T) {
	prod := mocks.NewSyncProducer(t, nil)
	defer prod.Close()

	prod.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	repo := NewSnapshot(prod, Topics{Auctions: "auctions"})
	err := repo.StoreAuction(context.Background(), entity.AuctionUpdate{
		Reclaim: &entity.ReclaimAuction{ParcelID: "0x1", ForSalePrice: big.NewInt(1), Length: 1},
	})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}
