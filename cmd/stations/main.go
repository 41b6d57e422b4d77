// Command stations downloads the NDBC station table and writes the stations
// with buoy-type hulls, which are the ones likely to report waves, to
// <DATA_DIR>/stations.json.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/surf-data-etl/internal/adapter/file"
	"github.com/couchcryptid/surf-data-etl/internal/adapter/ndbc"
	"github.com/couchcryptid/surf-data-etl/internal/config"
	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ndbc.NewClient(cfg.NDBCBaseURL, cfg.NDBCStationTableURL, cfg.HTTPTimeout,
		observability.NewMetrics(), logger)

	logger.Info("fetching station table", "url", cfg.NDBCStationTableURL)
	text, err := client.FetchStationTable(ctx)
	if err != nil {
		logger.Error("fetch station table failed", "error", err)
		os.Exit(1)
	}

	stations := domain.ParseStationTable(text)
	if stations == nil {
		stations = []domain.Station{}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir failed", "error", err)
		os.Exit(1)
	}
	out := filepath.Join(cfg.DataDir, "stations.json")
	if err := file.WriteJSON(out, stations); err != nil {
		logger.Error("write stations failed", "error", err)
		os.Exit(1)
	}
	logger.Info("wrote buoy stations", "count", len(stations), "path", out)
}
