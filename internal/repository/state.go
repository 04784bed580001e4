package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

// State keeps the tracker's snapshots in a compacted topic, one message per
// account key.
type State struct {
	kafkaClient sarama.Client
	producer    sarama.SyncProducer
	topic       string
}

type stateRecord struct {
	Snapshot entity.Snapshot
	Offset   int64
}

func NewState(kafkaClient sarama.Client, prod sarama.SyncProducer, topic string) *State {
	return &State{
		kafkaClient: kafkaClient,
		producer:    prod,
		topic:       topic,
	}
}

func (r *State) LastState(ctx context.Context) (entity.State, error) {
	// single partition
	state := entity.State{
		Snapshots: make(map[string]entity.Snapshot),
	}

	next, err := r.kafkaClient.GetOffset(r.topic, 0, sarama.OffsetNewest)
	if err != nil {
		return state, fmt.Errorf("get offset: %w", err)
	}
	if next <= 0 {
		return state, nil
	}

	cons, err := sarama.NewConsumerFromClient(r.kafkaClient)
	if err != nil {
		return state, fmt.Errorf("new consumer: %w", err)
	}
	defer cons.Close()

	cp, err := cons.ConsumePartition(r.topic, 0, sarama.OffsetOldest)
	if err != nil {
		return state, fmt.Errorf("consume partition: %w", err)
	}
	defer cp.Close()

	last := next - 1
	for {
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case msg := <-cp.Messages():
			if err := decodeRecord(&state, msg.Value); err != nil {
				return state, err
			}
			if msg.Offset >= last {
				return state, nil
			}
		}
	}
}

func (r *State) Store(ctx context.Context, state entity.State) error {
	msgs, err := encodeState(r.topic, state)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	return r.producer.SendMessages(msgs)
}

func encodeState(topic string, state entity.State) ([]*sarama.ProducerMessage, error) {
	msgs := make([]*sarama.ProducerMessage, 0, len(state.Snapshots))
	for key, snapshot := range state.Snapshots {
		payload, err := json.Marshal(stateRecord{Snapshot: snapshot, Offset: state.Offset})
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}

		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(key),
			Value: sarama.ByteEncoder(payload),
		})
	}
	return msgs, nil
}

func decodeRecord(state *entity.State, value []byte) error {
	if value == nil {
		// tombstone
		return nil
	}

	rec := stateRecord{}
	if err := json.Unmarshal(value, &rec); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	state.Snapshots[rec.Snapshot.AccountKey.String()] = rec.Snapshot
	if rec.Offset > state.Offset {
		state.Offset = rec.Offset
	}
	return nil
}
