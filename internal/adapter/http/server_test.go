package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/surf-data-etl/internal/adapter/http"
	"github.com/couchcryptid/surf-data-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	err    error
	status pipeline.Status
}

func (m *mockRunner) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockRunner) Status() pipeline.Status { return m.status }

func newTestServer(r *mockRunner) *httpadapter.Server {
	return httpadapter.NewServer(":0", r, r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockRunner{err: fmt.Errorf("no successful cycle yet")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	last := time.Date(2026, 10, 16, 12, 40, 0, 0, time.UTC)
	srv := newTestServer(&mockRunner{status: pipeline.Status{
		Cycles:      3,
		LastCycle:   &last,
		LastSuccess: &last,
		ForecastRun: "20261016/gfswave.global.0p16_06z",
		Spots:       []string{"block-island"},
	}})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3.0, body["cycles"])
	assert.Equal(t, "2026-10-16T12:40:00Z", body["last_success"])
	assert.Equal(t, "20261016/gfswave.global.0p16_06z", body["forecast_run"])
	assert.NotContains(t, body, "last_error")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
