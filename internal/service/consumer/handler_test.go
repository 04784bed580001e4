package consumer

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
)

var topics = Topics{Balances: "balances", Pools: "pools", Auctions: "auctions"}

func TestHandler_DispatchesByTopic(t *testing.T) {
	snapshots := make(chan event.SnapshotReceived, 1)
	pools := make(chan event.PoolReceived, 1)
	auctions := make(chan event.AuctionReceived, 1)
	bus := ebus.New().
		Subscribe(event.SnapshotReceived{}, ebus.Chan(snapshots)).
		Subscribe(event.PoolReceived{}, ebus.Chan(pools)).
		Subscribe(event.AuctionReceived{}, ebus.Chan(auctions))

	h := newHandler(topics, bus)
	ctx := context.Background()

	require.NoError(t, h.handle(ctx, &sarama.ConsumerMessage{
		Topic:  "balances",
		Offset: 4,
		Value:  []byte(`{"account":"0xabc","token":"ETHx","balance":123456789012345678901234,"updatedAtTimestamp":1700000000,"flowRate":-385802469135802}`),
	}))
	s := <-snapshots
	assert.Equal(t, int64(4), s.Offset)
	assert.Equal(t, "0xabc:ETHx", s.AccountKey.String())
	assert.Equal(t, "123456789012345678901234", s.Balance.String())
	assert.Equal(t, "-385802469135802", s.FlowRate.String())

	require.NoError(t, h.handle(ctx, &sarama.ConsumerMessage{
		Topic: "pools",
		Value: []byte(`{"block":77,"pool":{"id":"qf","totalUnits":5,"totalFlowRate":10,"adjustmentFlowRate":1,"members":{"g":{"units":1,"flowRate":2}}},"outflows":[]}`),
	}))
	p := <-pools
	assert.Equal(t, uint64(77), p.Block)
	assert.Equal(t, "9", p.Pool.EffectiveFlowRate().String())
	assert.Equal(t, "1", p.Pool.Members["g"].Units.String())

	require.NoError(t, h.handle(ctx, &sarama.ConsumerMessage{
		Topic: "auctions",
		Value: []byte(`{"reclaim":{"parcelId":"0x1","forSalePrice":100,"auctionStart":5,"length":10}}`),
	}))
	a := <-auctions
	require.NotNil(t, a.Reclaim)
	assert.Nil(t, a.FairLaunch)
	assert.Equal(t, int64(10), a.Reclaim.Length)
}

func TestHandler_Errors(t *testing.T) {
	h := newHandler(topics, ebus.New())
	ctx := context.Background()

	err := h.handle(ctx, &sarama.ConsumerMessage{Topic: "other"})
	assert.ErrorContains(t, err, "unexpected topic")

	err = h.handle(ctx, &sarama.ConsumerMessage{Topic: "balances", Value: []byte(`{"balance":"12"}`)})
	assert.ErrorContains(t, err, "unmarshal snapshot")

	err = h.handle(ctx, &sarama.ConsumerMessage{Topic: "pools", Value: []byte(`{}`)})
	assert.ErrorIs(t, err, ebus.ErrNoListeners)
}

func TestHandler_Topics(t *testing.T) {
	assert.ElementsMatch(t, []string{"balances", "pools", "auctions"}, newHandler(topics, ebus.New()).topics())
}
