package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"example.com/wellbeing/internal/sensing"
	"example.com/wellbeing/internal/tracker"
	"example.com/wellbeing/pkg/events"
)

// ErrMalformedBatch marks payloads that can never be processed and should be skipped.
var ErrMalformedBatch = errors.New("malformed sensor batch")

// SessionSink is the part of the tracker the sample handler drives.
type SessionSink interface {
	Start(ctx context.Context, userID string) (*tracker.Session, error)
	Ingest(userID string, samples []sensing.Sample) (tracker.IngestResult, error)
}

// SampleHandler decodes SensorBatch payloads and buffers their samples in the
// user's session, opening one when the user has none yet.
type SampleHandler struct {
	sink   SessionSink
	logger *log.Logger
}

// NewSampleHandler constructs a SampleHandler.
func NewSampleHandler(sink SessionSink, logger *log.Logger) *SampleHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile)
	}
	return &SampleHandler{sink: sink, logger: logger}
}

// Handle implements Handler.
func (h *SampleHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != DefaultEventType {
		recordSkipped(msg)
		return nil
	}

	var batch events.SensorBatch
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}
	userID := batch.UserID
	if userID == "" {
		userID = msg.UserID
	}
	if userID == "" {
		return fmt.Errorf("%w: missing user id", ErrMalformedBatch)
	}

	if _, err := h.sink.Start(ctx, userID); err != nil {
		return err
	}

	samples := make([]sensing.Sample, 0, len(batch.Samples))
	for _, s := range batch.Samples {
		samples = append(samples, sensing.Sample{
			Stream:    s.Stream,
			Timestamp: s.Timestamp,
			X:         s.X,
			Y:         s.Y,
			Z:         s.Z,
			Speed:     s.Speed,
			Accuracy:  s.Accuracy,
			Level:     s.Level,
		})
	}

	res, err := h.sink.Ingest(userID, samples)
	if err != nil {
		return err
	}
	recordSamples(res)
	if res.Rejected > 0 {
		h.logger.Printf("rejected %d of %d samples (user=%s, batch=%s)", res.Rejected, len(samples), userID, batch.BatchID)
	}
	return nil
}
