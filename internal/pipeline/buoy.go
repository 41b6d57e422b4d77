package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
)

// ObservationFetcher retrieves the raw NDBC text feeds of a buoy.
type ObservationFetcher interface {
	FetchStdmet(ctx context.Context, buoy string) (string, error)
	FetchSpectralDensity(ctx context.Context, buoy string) (string, error)
	FetchSpectralDirection(ctx context.Context, buoy string) (string, error)
}

// BuoyPipeline produces the buoy record of a spot: the latest observation
// and the merged wave spectrum.
type BuoyPipeline struct {
	fetcher ObservationFetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewBuoyPipeline(fetcher ObservationFetcher, logger *slog.Logger, metrics *observability.Metrics) *BuoyPipeline {
	return &BuoyPipeline{fetcher: fetcher, logger: logger, metrics: metrics}
}

// Run fetches and decodes the feeds of spot.Buoy. Failing to fetch the
// standard meteorological feed is an error. A spectral feed failure only
// leaves the spectrum empty.
func (p *BuoyPipeline) Run(ctx context.Context, spot domain.Spot) (domain.BuoyRecord, error) {
	log := p.logger.With("buoy", spot.Buoy, "spot", spot.Name)
	log.Info("fetching buoy")

	stdmet, err := p.fetcher.FetchStdmet(ctx, spot.Buoy)
	if err != nil {
		return domain.BuoyRecord{}, fmt.Errorf("fetch stdmet for buoy %s: %w", spot.Buoy, err)
	}
	reading := domain.ParseStdmet(stdmet)
	if reading == nil {
		p.metrics.ObservationMissing.WithLabelValues(spot.Buoy).Inc()
		log.Warn("no observation row in stdmet feed")
	}

	spectral, err := p.spectrum(ctx, spot.Buoy)
	if err != nil {
		log.Warn("spectral fetch failed", "error", err)
	} else {
		log.Info("merged spectrum", "bins", len(spectral))
	}
	p.metrics.SpectralBins.WithLabelValues(spot.Buoy).Set(float64(len(spectral)))

	return domain.NewBuoyRecord(spot, reading, spectral), nil
}

func (p *BuoyPipeline) spectrum(ctx context.Context, buoy string) ([]domain.SpectralBin, error) {
	density, err := p.fetcher.FetchSpectralDensity(ctx, buoy)
	if err != nil {
		return nil, err
	}
	direction, err := p.fetcher.FetchSpectralDirection(ctx, buoy)
	if err != nil {
		return nil, err
	}
	return domain.MergeSpectrum(density, direction), nil
}
