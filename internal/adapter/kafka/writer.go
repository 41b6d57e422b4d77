package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes records to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the record topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Publish serializes the records and writes them in a single WriteMessages
// call. Records with the same key land on the same partition.
func (w *Writer) Publish(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i, r := range records {
		msg, err := serializeToMessage(r)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("published records", "sink", "kafka", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message.
func serializeToMessage(r domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s record: %w", r.RecordType(), err)
	}
	headers := []kafkago.Header{
		{Key: "record_type", Value: []byte(r.RecordType())},
	}
	switch rec := r.(type) {
	case domain.BuoyRecord:
		headers = append(headers, kafkago.Header{Key: "station", Value: []byte(rec.Buoy)})
	case domain.ForecastRecord:
		headers = append(headers, kafkago.Header{Key: "model", Value: []byte(rec.Model)})
	}
	headers = append(headers, kafkago.Header{Key: "fetched_at", Value: []byte(r.FetchedAt().Format(time.RFC3339))})

	return kafkago.Message{
		Key:     []byte(r.Key()),
		Value:   data,
		Headers: headers,
	}, nil
}
