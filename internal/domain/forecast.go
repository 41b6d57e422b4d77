package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ModelName identifies the wave model the forecast records come from.
const ModelName = "GFS-Wave"

// PrimaryWaveHeightVariable is the combined significant wave height in the
// GFS-Wave datasets. It is subject to WaveHeightCeiling like buoy readings.
const PrimaryWaveHeightVariable = "htsgwsfc"

// DefaultForecastVariables are the per-hour variables extracted by default:
// combined sea, wind waves, the two primary swell partitions and surface wind.
var DefaultForecastVariables = []string{
	"htsgwsfc", "perpwsfc", "dirpwsfc",
	"wvhgtsfc", "wvpersfc", "wvdirsfc",
	"swell_1", "swper_1", "swdir_1",
	"swell_2", "swper_2", "swdir_2",
	"wndspdsfc", "wnddirsfc",
}

// runCycles are the issuance cycles probed for each day, latest first.
var runCycles = []string{"12", "06", "00"}

// runLookbackDays is how many days (today included) are searched for a run.
const runLookbackDays = 3

var (
	// ErrNoForecastRun is returned when no candidate model run could be opened.
	ErrNoForecastRun = errors.New("no forecast run available")

	// ErrCapabilityUnavailable is returned when the forecast path has no way to
	// open remote datasets.
	ErrCapabilityUnavailable = errors.New("remote dataset access unavailable")
)

// RunCandidate identifies a model run by issuance date and cycle hour.
type RunCandidate struct {
	Date  time.Time
	Cycle string
}

// DateString renders the issuance date as YYYYMMDD.
func (c RunCandidate) DateString() string {
	return c.Date.Format("20060102")
}

// Identifier is the dataset name of the run, e.g. "gfswave.global.0p16_12z".
func (c RunCandidate) Identifier() string {
	return fmt.Sprintf("gfswave.global.0p16_%sz", c.Cycle)
}

func (c RunCandidate) String() string {
	return c.DateString() + "/" + c.Identifier()
}

// RunCandidates lists the runs to probe relative to now, most recent first:
// today's 12z, 06z and 00z cycles, then yesterday's, then the day before.
func RunCandidates(now time.Time) []RunCandidate {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	candidates := make([]RunCandidate, 0, runLookbackDays*len(runCycles))
	for offset := range runLookbackDays {
		date := day.AddDate(0, 0, -offset)
		for _, cycle := range runCycles {
			candidates = append(candidates, RunCandidate{Date: date, Cycle: cycle})
		}
	}
	return candidates
}

// DatasetOpener opens the remote gridded dataset of a model run.
type DatasetOpener interface {
	Open(ctx context.Context, run RunCandidate) (GridDataset, error)
}

// ForecastRun is a located model run with its open dataset.
type ForecastRun struct {
	RunCandidate
	Dataset  GridDataset
	Attempts int
}

// LocateRun probes RunCandidates(now) in order and returns the first run whose
// dataset opens. When none opens the error wraps ErrNoForecastRun.
func LocateRun(ctx context.Context, now time.Time, opener DatasetOpener, logger *slog.Logger) (ForecastRun, error) {
	if opener == nil {
		return ForecastRun{}, ErrCapabilityUnavailable
	}

	open := func(ctx context.Context, c RunCandidate) (GridDataset, error) {
		logger.Debug("trying forecast run", "run", c.String())
		ds, err := opener.Open(ctx, c)
		if err != nil {
			logger.Debug("forecast run unavailable", "run", c.String(), "error", err)
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		return ds, nil
	}

	ds, c, attempts, err := FirstSuccess(ctx, RunCandidates(now), open)
	if err != nil {
		if ctx.Err() != nil {
			return ForecastRun{}, err
		}
		return ForecastRun{Attempts: attempts}, fmt.Errorf("%w: %w", ErrNoForecastRun, err)
	}
	return ForecastRun{RunCandidate: c, Dataset: ds, Attempts: attempts}, nil
}
