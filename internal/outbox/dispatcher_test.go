package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

var outboxColumns = []string{"event_id", "aggregate_type", "aggregate_id", "event_type", "topic", "schema_subject", "partition_key", "payload"}

func achievementRow(rows *pgxmock.Rows, id int64, eventType string) *pgxmock.Rows {
	return rows.AddRow(id, "achievement", "ach-1", eventType, "achievement_events", "achievement_events-value", "user-1",
		json.RawMessage(`{"achievement_id":"ach-1","user_id":"user-1"}`))
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT event_id, aggregate_type`).WithArgs(5).
		WillReturnRows(achievementRow(pgxmock.NewRows(outboxColumns), 11, EventAchievementAwarded))
	mock.ExpectExec(`UPDATE outbox SET claimed_at`).WithArgs([]int64{11}).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE outbox SET published_at`).WithArgs([]int64{11}).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	dispatcher := NewDispatcher(mock, producer, registry, 10*time.Millisecond, 5)

	before := testutil.ToFloat64(deliveredCounter)
	require.NoError(t, dispatcher.processBatch(ctx))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, producer.writes, 1)
	write := producer.writes[0]
	require.Equal(t, "achievement_events", write.topic)
	require.Len(t, write.messages, 1)

	msg := write.messages[0]
	require.Equal(t, "user-1", string(msg.Key))
	require.Equal(t, byte(0), msg.Value[0])
	require.Equal(t, uint32(42), binary.BigEndian.Uint32(msg.Value[1:5]))
	require.JSONEq(t, `{"achievement_id":"ach-1","user_id":"user-1"}`, string(msg.Value[5:]))
	require.Equal(t, []kafka.Header{
		{Key: "event_type", Value: []byte(EventAchievementAwarded)},
		{Key: "schema_subject", Value: []byte("achievement_events-value")},
	}, msg.Headers)

	require.InDelta(t, before+1, testutil.ToFloat64(deliveredCounter), 0.0001)
}

func TestProcessBatchWithoutPendingEvents(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT event_id, aggregate_type`).WithArgs(5).WillReturnRows(pgxmock.NewRows(outboxColumns))
	mock.ExpectRollback()

	producer := &stubProducer{}
	dispatcher := NewDispatcher(mock, producer, &stubRegistry{}, 10*time.Millisecond, 5)

	require.NoError(t, dispatcher.processBatch(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Empty(t, producer.writes)
}

func TestProcessBatchRoutesFailuresToDLQ(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT event_id, aggregate_type`).WithArgs(5).
		WillReturnRows(achievementRow(pgxmock.NewRows(outboxColumns), 12, EventAchievementAwarded))
	mock.ExpectExec(`UPDATE outbox SET claimed_at`).WithArgs([]int64{12}).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO outbox_dlq`).
		WithArgs(int64(12), EventAchievementAwarded, "achievement_events", pgxmock.AnyArg(), "kafka write failed (topic=achievement_events)",
			"achievement", "ach-1", "achievement_events-value", "user-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE outbox SET published_at`).WithArgs([]int64{12}).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	producer := &stubProducer{err: errors.New("kafka write failed")}
	dispatcher := NewDispatcher(mock, producer, &stubRegistry{id: 7}, 10*time.Millisecond, 5)

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("achievement_events"))

	require.NoError(t, dispatcher.processBatch(ctx))
	require.NoError(t, mock.ExpectationsWereMet())

	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("achievement_events")), 0.0001)
}

func TestProcessBatchUnknownSchemaSkipsRegistry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT event_id, aggregate_type`).WithArgs(5).
		WillReturnRows(achievementRow(pgxmock.NewRows(outboxColumns), 13, "achievement.unknown"))
	mock.ExpectExec(`UPDATE outbox SET claimed_at`).WithArgs([]int64{13}).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO outbox_dlq`).
		WithArgs(int64(13), "achievement.unknown", "achievement_events", pgxmock.AnyArg(),
			"no schema metadata for event_type=achievement.unknown (topic=achievement_events)",
			"achievement", "ach-1", "achievement_events-value", "user-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE outbox SET published_at`).WithArgs([]int64{13}).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	producer := &stubProducer{}
	registry := &stubRegistry{id: 99}
	dispatcher := NewDispatcher(mock, producer, registry, 10*time.Millisecond, 5)

	require.NoError(t, dispatcher.processBatch(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)
}

func TestSchemaIDsAreCached(t *testing.T) {
	registry := &stubRegistry{id: 21}
	dispatcher := NewDispatcher(nil, &stubProducer{}, registry, time.Second, 1)

	for i := 0; i < 3; i++ {
		id, err := dispatcher.schemaID(context.Background(), "achievement_events-value", achievementAwardedSchema)
		require.NoError(t, err)
		require.Equal(t, 21, id)
	}
	require.Len(t, registry.calls, 1)
}

func TestEncodeWireFormat(t *testing.T) {
	frame := encodeWireFormat(258, []byte(`{}`))
	require.Equal(t, []byte{0, 0, 0, 1, 2, '{', '}'}, frame)
}

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []schemaCall
}

type schemaCall struct {
	subject string
	schema  string
}

func (s *stubRegistry) EnsureSchema(_ context.Context, subject string, schema string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, schemaCall{subject: subject, schema: schema})
	if s.err != nil {
		return 0, s.err
	}
	if s.id == 0 {
		s.id = 1
	}
	return s.id, nil
}
