package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
)

// ForecastPipeline locates the newest model run and extracts per-spot
// forecasts from it.
type ForecastPipeline struct {
	opener    domain.DatasetOpener
	variables []string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewForecastPipeline returns domain.ErrCapabilityUnavailable when there is
// no dataset opener, so a misconfigured forecast path fails before any fetch.
func NewForecastPipeline(opener domain.DatasetOpener, variables []string, logger *slog.Logger, metrics *observability.Metrics) (*ForecastPipeline, error) {
	if opener == nil {
		return nil, domain.ErrCapabilityUnavailable
	}
	if len(variables) == 0 {
		variables = domain.DefaultForecastVariables
	}
	return &ForecastPipeline{
		opener:    opener,
		variables: variables,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Locate finds the most recent run that opens, relative to now.
func (p *ForecastPipeline) Locate(ctx context.Context, now time.Time) (domain.ForecastRun, error) {
	p.logger.Info("locating forecast run", "model", domain.ModelName)

	run, err := domain.LocateRun(ctx, now, p.opener, p.logger)
	p.metrics.ForecastRunAttempts.Add(float64(run.Attempts))
	if err != nil {
		p.metrics.ForecastRunFailures.Inc()
		p.logger.Error("no forecast run available", "attempts", run.Attempts, "error", err)
		return domain.ForecastRun{}, err
	}
	p.logger.Info("using forecast run", "run", run.String(), "attempts", run.Attempts)
	return run, nil
}

// Extract reads the forecast at spot from a located run.
func (p *ForecastPipeline) Extract(ctx context.Context, run domain.ForecastRun, spot domain.Spot) (domain.ForecastRecord, error) {
	hours, point, err := domain.ExtractHours(ctx, run.Dataset, spot.Lat, spot.Lon, p.variables)
	if err != nil {
		return domain.ForecastRecord{}, fmt.Errorf("extract forecast for %s: %w", spot.Name, err)
	}
	p.metrics.ForecastHours.WithLabelValues(spot.Name).Set(float64(len(hours)))
	p.logger.Info("extracted forecast", "spot", spot.Name, "hours", len(hours),
		"grid_lat", point.Lat, "grid_lon", point.Lon, "grid_distance_km", point.DistanceKm)

	return domain.NewForecastRecord(spot, run.RunCandidate, point, hours), nil
}
