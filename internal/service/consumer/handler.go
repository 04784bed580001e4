package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
)

var _ sarama.ConsumerGroupHandler = Handler{}

type decoder func(msg *sarama.ConsumerMessage) (any, error)

type Handler struct {
	commits  chan int64
	balances string
	decoders map[string]decoder
	eBus     *ebus.EBus
}

func newHandler(topics Topics, eBus *ebus.EBus) Handler {
	return Handler{
		commits:  make(chan int64),
		balances: topics.Balances,
		decoders: map[string]decoder{
			topics.Balances: decodeBalance,
			topics.Pools:    decodePool,
			topics.Auctions: decodeAuction,
		},
		eBus: eBus,
	}
}

func (h Handler) Setup(session sarama.ConsumerGroupSession) error {
	return nil
}

func (h Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	return nil
}

func (h Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			errs := make(chan error, 1)
			go func() {
				errs <- h.handle(session.Context(), msg)
			}()
			select {
			case err := <-errs:
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("claim handle: %w", err)
				}
			case <-session.Context().Done():
				return nil
			}

			if msg.Topic != h.balances {
				session.MarkMessage(msg, "")
			}

		case <-session.Context().Done():
			return nil

		case offset := <-h.commits:
			// single partition
			session.MarkOffset(h.balances, 0, offset+1, "")
		}
	}
}

func (h Handler) commit(ctx context.Context, offset int64) error {
	select {
	case h.commits <- offset:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h Handler) topics() []string {
	topics := make([]string, 0, len(h.decoders))
	for topic := range h.decoders {
		topics = append(topics, topic)
	}
	return topics
}

func (h Handler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	decode, ok := h.decoders[msg.Topic]
	if !ok {
		return fmt.Errorf("unexpected topic %s", msg.Topic)
	}

	ev, err := decode(msg)
	if err != nil {
		return err
	}

	return h.eBus.Emit(ctx, ev)
}

func decodeBalance(msg *sarama.ConsumerMessage) (any, error) {
	s := entity.Snapshot{}
	if err := json.Unmarshal(msg.Value, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return event.SnapshotReceived{Snapshot: s, Offset: msg.Offset}, nil
}

func decodePool(msg *sarama.ConsumerMessage) (any, error) {
	p := entity.PoolSnapshot{}
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pool: %w", err)
	}
	return event.PoolReceived{PoolSnapshot: p, Offset: msg.Offset}, nil
}

func decodeAuction(msg *sarama.ConsumerMessage) (any, error) {
	a := entity.AuctionUpdate{}
	if err := json.Unmarshal(msg.Value, &a); err != nil {
		return nil, fmt.Errorf("unmarshal auction: %w", err)
	}
	return event.AuctionReceived{AuctionUpdate: a, Offset: msg.Offset}, nil
}
