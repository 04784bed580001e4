package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
)

type Topics struct {
	Balances string
	Pools    string
	Auctions string
}

// Snapshot publishes indexer reads onto the ingest topics.
type Snapshot struct {
	producer sarama.SyncProducer
	topics   Topics
}

func NewSnapshot(producer sarama.SyncProducer, topics Topics) *Snapshot {
	return &Snapshot{producer: producer, topics: topics}
}

func (s *Snapshot) StoreBalance(ctx context.Context, snapshot entity.Snapshot) error {
	return s.send(s.topics.Balances, snapshot.AccountKey.String(), snapshot)
}

func (s *Snapshot) StorePool(ctx context.Context, pool entity.PoolSnapshot) error {
	return s.send(s.topics.Pools, pool.Pool.ID, pool)
}

func (s *Snapshot) StoreAuction(ctx context.Context, update entity.AuctionUpdate) error {
	key := "fair-launch"
	if update.Reclaim != nil {
		key = update.Reclaim.ParcelID
	}
	return s.send(s.topics.Auctions, key, update)
}

func (s *Snapshot) send(topic, key string, payload any) error {
	js, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json marshal %s: %w", topic, err)
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(js),
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}

	return nil
}
