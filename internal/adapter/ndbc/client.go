package ndbc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/observability"
)

// UserAgent is sent with every upstream request.
const UserAgent = "SurfCheck/1.0"

// maxBodyBytes bounds a single feed download.
const maxBodyBytes = 16 << 20

// ErrNotFound is returned when NDBC has no such feed for the station.
var ErrNotFound = errors.New("ndbc feed not found")

// Feed sources, also used as metric labels.
const (
	SourceStdmet       = "stdmet"
	SourceDensity      = "data_spec"
	SourceDirection    = "swdir"
	SourceStationTable = "station_table"
)

// Client downloads NDBC realtime2 text feeds and the station table.
type Client struct {
	baseURL         string
	stationTableURL string
	httpClient      *http.Client
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// NewClient creates an NDBC client. Every request is bounded by timeout.
func NewClient(baseURL, stationTableURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:         baseURL,
		stationTableURL: stationTableURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchStdmet downloads the standard meteorological feed (<id>.txt).
func (c *Client) FetchStdmet(ctx context.Context, buoy string) (string, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%s.txt", c.baseURL, buoy), SourceStdmet)
}

// FetchSpectralDensity downloads the spectral wave density feed (<id>.data_spec).
func (c *Client) FetchSpectralDensity(ctx context.Context, buoy string) (string, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%s.data_spec", c.baseURL, buoy), SourceDensity)
}

// FetchSpectralDirection downloads the spectral mean direction feed (<id>.swdir).
func (c *Client) FetchSpectralDirection(ctx context.Context, buoy string) (string, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/%s.swdir", c.baseURL, buoy), SourceDirection)
}

// FetchStationTable downloads the pipe-delimited NDBC station table.
func (c *Client) FetchStationTable(ctx context.Context) (string, error) {
	return c.fetch(ctx, c.stationTableURL, SourceStationTable)
}

func (c *Client) fetch(ctx context.Context, url, source string) (string, error) {
	start := time.Now()
	body, err := c.doRequest(ctx, url, source)
	c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	c.metrics.FetchRequests.WithLabelValues(source, observability.Outcome(err)).Inc()
	if err != nil {
		return "", err
	}
	c.logger.Debug("ndbc feed fetched", "source", source, "url", url, "bytes", len(body))
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, url, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s %s: %w", source, url, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ndbc error: %s status %d: %s", source, resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s body: %w", source, err)
	}
	// Invalid UTF-8 is replaced rather than rejected.
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
