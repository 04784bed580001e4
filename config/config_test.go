package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Defaults(t *testing.T) {
	cfg, err := Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"127.0.0.1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "balances", cfg.Kafka.BalancesTopic)
	assert.Equal(t, "127.0.0.1:4242", cfg.Web.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Frames.Balance)
	assert.False(t, cfg.Simulate)
}

func TestBuild_Env(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("BALANCE_FRAME", "100ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SIMULATE", "true")

	cfg, err := Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, 100*time.Millisecond, cfg.Frames.Balance)
	assert.Equal(t, zerolog.DebugLevel, cfg.Log.ZerologLevel())
	assert.True(t, cfg.Simulate)

	t.Setenv("BALANCE_FRAME", "soon")
	_, err = Build()
	assert.Error(t, err)
}

func TestLog_UnknownLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, Log{Level: "loud"}.ZerologLevel())
}
