package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	goredis "github.com/go-redis/redis/v8"
)

// streamClient is the subset of the Redis client the sink uses.
type streamClient interface {
	XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd
	Close() error
}

// StreamSink appends records to a Redis stream.
// It implements pipeline.Sink.
type StreamSink struct {
	client streamClient
	stream string
	logger *slog.Logger
}

// NewStreamSink connects to addr and publishes to stream.
func NewStreamSink(addr, password string, db int, stream string, logger *slog.Logger) *StreamSink {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &StreamSink{client: client, stream: stream, logger: logger}
}

func (s *StreamSink) Name() string { return "redis" }

// Publish adds one stream entry per record.
func (s *StreamSink) Publish(ctx context.Context, records []domain.Record) error {
	for _, r := range records {
		values, err := streamValues(r)
		if err != nil {
			return err
		}
		id, err := s.client.XAdd(ctx, &goredis.XAddArgs{
			Stream: s.stream,
			Values: values,
		}).Result()
		if err != nil {
			return fmt.Errorf("xadd %s %s: %w", s.stream, r.Key(), err)
		}
		s.logger.Debug("published record", "sink", "redis", "stream", s.stream, "id", id, "key", r.Key())
	}
	return nil
}

func (s *StreamSink) Close() error {
	return s.client.Close()
}

// streamValues builds the fields of a stream entry. The record body is the
// JSON document under "data".
func streamValues(r domain.Record) (map[string]interface{}, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("serialize %s record: %w", r.RecordType(), err)
	}
	return map[string]interface{}{
		"type":       r.RecordType(),
		"key":        r.Key(),
		"fetched_at": r.FetchedAt().Format(time.RFC3339),
		"data":       string(data),
	}, nil
}
