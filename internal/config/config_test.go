package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"KAFKA_BROKERS", "CONSUMER_TOPICS", "OUTBOX_BATCH_SIZE", "ACTIVITY_TIMEZONE", "DLQ_BASE_DELAY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, []string{"activity_events"}, cfg.ConsumerTopics)
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.Equal(t, time.Minute, cfg.DLQBaseDelay)
	require.Equal(t, time.UTC, cfg.ActivityTimezone)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " broker-1:9092 , ,broker-2:9092")
	t.Setenv("OUTBOX_BATCH_SIZE", "100")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("ACTIVITY_TIMEZONE", "Europe/Lisbon")

	cfg := Load()
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 100, cfg.OutboxBatchSize)
	require.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	require.Equal(t, "Europe/Lisbon", cfg.ActivityTimezone.String())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("OUTBOX_BATCH_SIZE", "many")
	t.Setenv("DLQ_POLL_INTERVAL", "soon")
	t.Setenv("ACTIVITY_TIMEZONE", "Mars/Olympus_Mons")

	cfg := Load()
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.Equal(t, 30*time.Second, cfg.DLQPollInterval)
	require.Equal(t, time.UTC, cfg.ActivityTimezone)
}
