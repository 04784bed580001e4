package config

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

type Config struct {
	Kafka    Kafka
	Web      Web
	Frames   Frames
	Log      Log
	Simulate bool `env:"SIMULATE" envDefault:"false"`
}

// Build reads the configuration from the environment.
func Build() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

type Kafka struct {
	Brokers       []string `env:"KAFKA_BROKERS" envDefault:"127.0.0.1:9092" envSeparator:","`
	Group         string   `env:"KAFKA_GROUP" envDefault:"cadastre"`
	BalancesTopic string   `env:"KAFKA_BALANCES_TOPIC" envDefault:"balances"`
	PoolsTopic    string   `env:"KAFKA_POOLS_TOPIC" envDefault:"pools"`
	AuctionsTopic string   `env:"KAFKA_AUCTIONS_TOPIC" envDefault:"auctions"`
	StateTopic    string   `env:"KAFKA_STATE_TOPIC" envDefault:"tracker-state"`
}

func (k Kafka) SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = k.Group
	cfg.Producer.Return.Successes = true
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return cfg
}

type Web struct {
	Addr     string `env:"WEB_ADDR" envDefault:"127.0.0.1:4242"`
	Decimals int32  `env:"TOKEN_DECIMALS" envDefault:"18"`
}

// Frames are the recompute cadences of the published values.
type Frames struct {
	Balance time.Duration `env:"BALANCE_FRAME" envDefault:"250ms"`
	Price   time.Duration `env:"PRICE_FRAME" envDefault:"1s"`
	State   time.Duration `env:"STATE_FRAME" envDefault:"5s"`
	History int           `env:"PRICE_HISTORY" envDefault:"120"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

func (l Log) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
