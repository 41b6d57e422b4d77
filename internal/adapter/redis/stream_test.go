package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	added []*goredis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(_ context.Context, a *goredis.XAddArgs) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	f.added = append(f.added, a)
	return goredis.NewStringResult("1760618400000-0", nil)
}

func (f *fakeStream) Close() error { return nil }

func testSink(client streamClient) *StreamSink {
	return &StreamSink{client: client, stream: "surf_records", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func sampleRecord() domain.ForecastRecord {
	return domain.ForecastRecord{
		Fetched: time.Date(2026, 10, 16, 12, 40, 0, 0, time.UTC),
		Spot:    "block-island",
		Model:   domain.ModelName,
		Hours:   []domain.ForecastHour{},
	}
}

func TestStreamValues(t *testing.T) {
	values, err := streamValues(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, "forecast", values["type"])
	assert.Equal(t, "block-island", values["key"])
	assert.Equal(t, "2026-10-16T12:40:00Z", values["fetched_at"])
	assert.Contains(t, values["data"], `"spot":"block-island"`)
}

func TestStreamSink_Publish(t *testing.T) {
	fake := &fakeStream{}
	s := testSink(fake)

	err := s.Publish(context.Background(), []domain.Record{
		sampleRecord(),
		domain.BuoyRecord{Buoy: "44097", Spectral: []domain.SpectralBin{}},
	})
	require.NoError(t, err)

	require.Len(t, fake.added, 2)
	assert.Equal(t, "surf_records", fake.added[0].Stream)
	assert.Equal(t, "buoy", fake.added[1].Values.(map[string]interface{})["type"])
}

func TestStreamSink_PublishError(t *testing.T) {
	s := testSink(&fakeStream{err: errors.New("connection refused")})

	err := s.Publish(context.Background(), []domain.Record{sampleRecord()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd surf_records block-island")
}
