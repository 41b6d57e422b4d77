package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
)

// Sink writes records to a destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, records []domain.Record) error
}

// MultiSink publishes to every sink in order. A failing sink does not stop
// the others; the returned error joins every failure.
type MultiSink struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMultiSink creates a fan-out over sinks.
func NewMultiSink(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger, metrics: metrics}
}

func (m *MultiSink) Name() string { return "multi" }

func (m *MultiSink) Publish(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	var errs []error
	for _, s := range m.sinks {
		err := s.Publish(ctx, records)
		m.count(s.Name(), records, err)
		if err != nil {
			m.logger.Error("sink publish failed", "sink", s.Name(), "records", len(records), "error", err)
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) count(sink string, records []domain.Record, err error) {
	outcome := observability.Outcome(err)
	for _, r := range records {
		m.metrics.RecordsPublished.WithLabelValues(sink, r.RecordType(), outcome).Inc()
	}
}
