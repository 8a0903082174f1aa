package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/wellbeing/pkg/events"
)

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

func quietDispatcher(producer messageWriter, registry schemaRegistrar) *Dispatcher {
	return NewDispatcher(nil, producer, registry, 10*time.Millisecond, 5, WithLogger(log.New(io.Discard, "", 0)))
}

func scoreMessage(t *testing.T, id int64, userID string) Message {
	t.Helper()
	payload, err := json.Marshal(events.WellbeingScoreUpdated{EventID: "e", UserID: userID, Overall: 59, UpdatedAt: time.Now().UTC()})
	require.NoError(t, err)
	return Message{
		EventID:       id,
		UserID:        userID,
		AggregateType: "wellbeing_score",
		AggregateID:   userID,
		EventType:     events.TypeScoreUpdated,
		Topic:         "wellbeing.score_updated",
		SchemaSubject: "wellbeing.score_updated-value",
		PartitionKey:  userID,
		Payload:       payload,
	}
}

func TestWireFormatRoundTrip(t *testing.T) {
	frame := encodeWireFormat(42, []byte(`{"a":1}`))
	require.Equal(t, byte(0), frame[0])

	id, payload, err := DecodeWireFormat(frame)
	require.NoError(t, err)
	require.Equal(t, 42, id)
	require.JSONEq(t, `{"a":1}`, string(payload))

	_, _, err = DecodeWireFormat([]byte(`{"a":1}`))
	require.ErrorIs(t, err, ErrNotFramed)
}

func TestDeliverGroupsByTopicAndCachesSchemaIDs(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 21}
	d := quietDispatcher(producer, registry)

	daily := scoreMessage(t, 3, "alice")
	daily.EventType = events.TypeDailyScored
	daily.Topic = "wellbeing.daily_scored"
	daily.SchemaSubject = "wellbeing.daily_scored-value"

	msgs := []Message{scoreMessage(t, 1, "alice"), scoreMessage(t, 2, "bob"), daily}
	require.NoError(t, d.deliver(context.Background(), msgs))
	require.NoError(t, d.deliver(context.Background(), msgs[:1]))

	require.Len(t, producer.writes, 3)
	require.Equal(t, "wellbeing.score_updated", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.Equal(t, "wellbeing.daily_scored", producer.writes[1].topic)
	require.Len(t, registry.calls, 2, "one registry lookup per subject")

	first := producer.writes[0].messages[0]
	require.Equal(t, []byte("alice"), first.Key)
	id, _, err := DecodeWireFormat(first.Value)
	require.NoError(t, err)
	require.Equal(t, 21, id)
	require.Equal(t, "event_type", first.Headers[0].Key)
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{}
	d := quietDispatcher(producer, registry)

	msg := scoreMessage(t, 1, "alice")
	msg.EventType = "wellbeing.unknown"
	err := d.deliver(context.Background(), []Message{msg})
	require.ErrorContains(t, err, "no schema metadata for event_type=wellbeing.unknown")
	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)
}

func TestDeliverPropagatesFailures(t *testing.T) {
	d := quietDispatcher(&stubProducer{}, &stubRegistry{err: errors.New("registry down")})
	require.ErrorContains(t, d.deliver(context.Background(), []Message{scoreMessage(t, 1, "alice")}), "registry down")

	d = quietDispatcher(&stubProducer{err: errors.New("kafka write failed")}, &stubRegistry{})
	require.ErrorContains(t, d.deliver(context.Background(), []Message{scoreMessage(t, 1, "alice")}), "kafka write failed")
}

func TestBackoffDelayIsCapped(t *testing.T) {
	m := &DLQManager{baseDelay: time.Minute}
	require.Equal(t, time.Minute, m.backoffDelay(1))
	require.Equal(t, 4*time.Minute, m.backoffDelay(3))
	require.Equal(t, time.Hour, m.backoffDelay(10))
	require.Equal(t, time.Hour, m.backoffDelay(64))
}
