//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"example.com/wellbeing/internal/persistence/memory"
	"example.com/wellbeing/internal/sensing"
	"example.com/wellbeing/internal/tracker"
	"example.com/wellbeing/pkg/events"
)

func TestKafkaSensorBatchFeedsSession(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.Run(ctx, "confluentinc/confluent-local:7.5.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	broker := brokers[0]

	topic := "sensor.batches"

	conn, err := kafka.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))

	tr := tracker.New(memory.NewStore(), nil, tracker.WithLogger(log.New(io.Discard, "", 0)))
	handler := NewSampleHandler(tr, log.New(io.Discard, "", 0))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{broker},
		GroupID:     "wellbeing-integration",
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	consumerCtx, stop := context.WithCancel(ctx)
	defer stop()

	proc := NewProcessor(reader, handler, WithLogger(log.New(io.Discard, "", 0)))
	go func() {
		_ = proc.Run(consumerCtx)
	}()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	now := time.Now().UTC()
	batch := events.SensorBatch{BatchID: "int-1", UserID: "user-int", SentAt: now}
	for i := 0; i < 30; i++ {
		z := 1.15
		if i%2 == 1 {
			z = 0.85
		}
		batch.Samples = append(batch.Samples, events.SensorSample{Stream: sensing.StreamAccelerometer, Timestamp: now, Z: z})
	}
	batch.Samples = append(batch.Samples, events.SensorSample{Stream: sensing.StreamLocation, Timestamp: now, Speed: 1.0, Accuracy: 10})

	payload, err := json.Marshal(batch)
	require.NoError(t, err)
	require.NoError(t, writer.WriteMessages(context.Background(), kafka.Message{
		Key:     []byte(batch.UserID),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(DefaultEventType)}},
	}))

	var session *tracker.Session
	require.Eventually(t, func() bool {
		s, err := tr.Get("user-int")
		if err != nil {
			return false
		}
		session = s
		return true
	}, 60*time.Second, 500*time.Millisecond)

	require.Eventually(t, func() bool {
		return session.Tick(time.Now()).Activity == "walking"
	}, 10*time.Second, 100*time.Millisecond)
}
