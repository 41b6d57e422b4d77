package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage_Buoy(t *testing.T) {
	fetched := time.Date(2026, 10, 16, 12, 40, 0, 0, time.UTC)
	rec := domain.BuoyRecord{
		Fetched:  fetched,
		Buoy:     "44097",
		Spectral: []domain.SpectralBin{},
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("44097"), msg.Key)
	assert.Contains(t, string(msg.Value), `"buoy":"44097"`)
	assert.Contains(t, string(msg.Value), `"stdmet":null`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "record_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("buoy"), msg.Headers[0].Value)
	assert.Equal(t, "station", msg.Headers[1].Key)
	assert.Equal(t, []byte("44097"), msg.Headers[1].Value)
	assert.Equal(t, "fetched_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(fetched.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeToMessage_Forecast(t *testing.T) {
	rec := domain.ForecastRecord{
		Fetched: time.Date(2026, 10, 16, 12, 40, 0, 0, time.UTC),
		Spot:    "block-island",
		Model:   domain.ModelName,
		Run:     "gfswave.global.0p16_12z",
		Hours:   []domain.ForecastHour{},
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("block-island"), msg.Key)
	assert.Contains(t, string(msg.Value), `"model":"GFS-Wave"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "model", msg.Headers[1].Key)
	assert.Equal(t, []byte("GFS-Wave"), msg.Headers[1].Value)
}

func TestWriter_PublishEmpty(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "surf-records", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.NoError(t, w.Publish(context.Background(), nil))
	assert.Equal(t, "kafka", w.Name())
}
