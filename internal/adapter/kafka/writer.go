package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/school-map-service/internal/config"
	"github.com/couchcryptid/school-map-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes geocoded schools to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Write publishes a batch of geocoded schools in one WriteMessages call.
// Messages are keyed by school so all years of a school land on one partition.
func (w *Writer) Write(ctx context.Context, schools []domain.GeocodedSchool) error {
	if len(schools) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(schools))
	for i := range schools {
		msg, err := serializeToMessage(schools[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish geocoded schools: %w", err)
	}
	w.logger.Debug("published geocoded schools", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(s domain.GeocodedSchool) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize geocoded school: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "school_type", Value: []byte(s.Type)},
			{Key: "year", Value: []byte(s.Year)},
			{Key: "run_id", Value: []byte(s.RunID)},
			{Key: "geocoded_at", Value: []byte(s.GeocodedAt.Format(time.RFC3339))},
		},
	}, nil
}
