package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestKafkaProducerReusesWriterPerTopic(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"}, WithBatchTimeout(10*time.Millisecond))

	first, err := p.writer("achievement_events")
	require.NoError(t, err)
	again, err := p.writer("achievement_events")
	require.NoError(t, err)
	other, err := p.writer("personal_record_events")
	require.NoError(t, err)

	require.Same(t, first, again)
	require.NotSame(t, first, other)
	require.Equal(t, 10*time.Millisecond, first.BatchTimeout)
	require.IsType(t, &kafka.Hash{}, first.Balancer)
}

func TestKafkaProducerRejectsWritesAfterClose(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"})
	_, err := p.writer("achievement_events")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.Empty(t, p.writers)

	err = p.WriteMessages(context.Background(), "achievement_events", kafka.Message{Value: []byte("x")})
	require.ErrorContains(t, err, "producer closed")
}
