package consumer

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/event"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/ebus"
)

type Topics struct {
	Balances string
	Pools    string
	Auctions string
}

type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       Handler
	log           zerolog.Logger
}

func NewConsumer(client sarama.Client, topics Topics, group string, eBus *ebus.EBus, log zerolog.Logger) (*Consumer, error) {
	cons, err := sarama.NewConsumerGroupFromClient(group, client)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &Consumer{
		consumerGroup: cons,
		handler:       newHandler(topics, eBus),
		log:           log.With().Str("service", "consumer").Logger(),
	}, nil
}

func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.consumerGroup.Close()

	errs := make(chan error, 1)

	go func() {
		for {
			if err := c.consumerGroup.Consume(ctx, c.handler.topics(), c.handler); err != nil {
				errs <- err
				return
			}

			if ctx.Err() != nil {
				errs <- ctx.Err()
				return
			}
			c.log.Debug().Msg("consumer group rebalanced")
		}
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("consumer error: %w", err)
	case err := <-c.consumerGroup.Errors():
		return fmt.Errorf("consumerGroup error: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("consumer: %w", ctx.Err())
	}
}

// Commit marks balance messages up to the saved offset as consumed. Pool
// and auction messages are marked as soon as they are handled.
func (c *Consumer) Commit(ctx context.Context, saved event.StateSaved) error {
	return c.handler.commit(ctx, saved.Offset)
}
