package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// StationTableFetcher retrieves the NDBC station table.
type StationTableFetcher interface {
	FetchStationTable(ctx context.Context) (string, error)
}

// Status summarizes the cycles run so far.
type Status struct {
	Cycles      int64      `json:"cycles"`
	LastCycle   *time.Time `json:"last_cycle"`
	LastSuccess *time.Time `json:"last_success"`
	LastError   string     `json:"last_error,omitempty"`
	ForecastRun string     `json:"forecast_run,omitempty"`
	Spots       []string   `json:"spots"`
}

// Runner drives cycles: the buoy path for every spot, then the forecast path
// against a single located run, then publication of every record.
type Runner struct {
	spots    []domain.Spot
	buoy     *BuoyPipeline
	forecast *ForecastPipeline // nil in buoy-only mode
	stations StationTableFetcher
	sink     Sink
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu       sync.Mutex
	resolved bool
	status   Status
}

// NewRunner creates a Runner. Pass a nil forecast pipeline for buoy-only
// cycles. The station table is consulted only for spots without a buoy.
func NewRunner(spots []domain.Spot, buoy *BuoyPipeline, forecast *ForecastPipeline, stations StationTableFetcher, sink Sink, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		spots:    spots,
		buoy:     buoy,
		forecast: forecast,
		stations: stations,
		sink:     sink,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
	}
}

// WithClock replaces the clock driving run location and the interval ticker.
func (r *Runner) WithClock(c clockwork.Clock) *Runner {
	r.clock = c
	return r
}

// CheckReadiness returns nil once a cycle has completed without errors.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no successful cycle yet")
	}
	return nil
}

// Status returns a snapshot of the cycle history.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status
	s.Spots = make([]string, len(r.spots))
	for i, spot := range r.spots {
		s.Spots[i] = spot.Name
	}
	return s
}

// Run executes a cycle immediately and then every interval until the context
// is cancelled. Failed cycles are logged and retried on the next tick.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	r.logger.Info("pipeline started", "interval", interval.String(), "spots", len(r.spots))

	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce executes one cycle. Every spot is attempted even when an earlier
// one fails; the returned error joins all failures.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := r.clock.Now()
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	var (
		errs    []error
		records []domain.Record
		runName string
	)

	spots, err := r.resolveSpots(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	for _, spot := range spots {
		if spot.Buoy == "" {
			continue
		}
		rec, err := r.buoy.Run(ctx, spot)
		if err != nil {
			r.logger.Error("buoy path failed", "spot", spot.Name, "buoy", spot.Buoy, "error", err)
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}

	if r.forecast != nil {
		run, err := r.forecast.Locate(ctx, r.clock.Now())
		if err != nil {
			errs = append(errs, fmt.Errorf("locate forecast run: %w", err))
		} else {
			runName = run.String()
			for _, spot := range spots {
				rec, err := r.forecast.Extract(ctx, run, spot)
				if err != nil {
					r.logger.Error("forecast path failed", "spot", spot.Name, "error", err)
					errs = append(errs, err)
					continue
				}
				records = append(records, rec)
			}
		}
	}

	if err := r.sink.Publish(ctx, records); err != nil {
		errs = append(errs, fmt.Errorf("publish: %w", err))
	}

	err = errors.Join(errs...)
	r.finishCycle(start, runName, len(records), err)
	return err
}

func (r *Runner) finishCycle(start time.Time, runName string, records int, err error) {
	end := r.clock.Now()
	r.metrics.CycleDuration.Observe(end.Sub(start).Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Cycles++
	r.status.LastCycle = &end
	if runName != "" {
		r.status.ForecastRun = runName
	}

	if err != nil {
		r.metrics.CycleFailures.Inc()
		r.status.LastError = err.Error()
		r.logger.Warn("cycle finished with errors", "records", records, "duration", end.Sub(start).String())
		return
	}
	r.metrics.LastSuccess.Set(float64(end.Unix()))
	r.status.LastSuccess = &end
	r.status.LastError = ""
	r.ready.Store(true)
	r.logger.Info("cycle complete", "records", records, "duration", end.Sub(start).String())
}

// resolveSpots fills in the buoy of spots that name none with the nearest
// buoy station. Resolution happens once; a failed lookup is retried on the
// next cycle and leaves those spots without a buoy record.
func (r *Runner) resolveSpots(ctx context.Context) ([]domain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return r.spots, nil
	}

	var missing int
	for _, s := range r.spots {
		if s.Buoy == "" {
			missing++
		}
	}
	if missing == 0 {
		r.resolved = true
		return r.spots, nil
	}
	if r.stations == nil {
		return r.spots, errors.New("spots without a buoy need a station table source")
	}

	text, err := r.stations.FetchStationTable(ctx)
	if err != nil {
		return r.spots, fmt.Errorf("fetch station table: %w", err)
	}
	stations := domain.ParseStationTable(text)

	spots := make([]domain.Spot, len(r.spots))
	copy(spots, r.spots)
	for i, s := range spots {
		if s.Buoy != "" {
			continue
		}
		station, km, ok := domain.NearestStation(stations, s.Lat, s.Lon)
		if !ok {
			return r.spots, errors.New("station table lists no buoy stations")
		}
		spots[i].Buoy = station.ID
		r.logger.Info("resolved nearest buoy", "spot", s.Name, "buoy", station.ID,
			"station", station.Name, "distance_km", fmt.Sprintf("%.1f", km))
	}
	r.spots = spots
	r.resolved = true
	return spots, nil
}
