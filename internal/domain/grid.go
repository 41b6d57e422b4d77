package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/umahmood/haversine"
)

// GridDataset is a queryable time x latitude x longitude model dataset.
type GridDataset interface {
	Times() []time.Time
	Latitudes() []float64
	Longitudes() []float64
	HasVariable(name string) bool
	// Series returns the values of a variable at one grid cell for every
	// timestep. Missing values are NaN.
	Series(ctx context.Context, name string, latIndex, lonIndex int) ([]float64, error)
}

// ErrEmptyGrid is returned when a dataset has no latitude or longitude axis.
var ErrEmptyGrid = errors.New("dataset grid has no cells")

// GridPoint is the model cell resolved for a target coordinate.
type GridPoint struct {
	LatIndex   int
	LonIndex   int
	Lat        float64
	Lon        float64
	DistanceKm float64
}

// ForecastHour is one forecast timestep at a grid point. Values holds only
// the requested variables present in the dataset; nil marks a missing value.
type ForecastHour struct {
	Time   time.Time
	Values map[string]*float64
}

// MarshalJSON flattens the hour into {"time": ..., "<variable>": value, ...}.
func (h ForecastHour) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Values)+1)
	for name, v := range h.Values {
		out[name] = v
	}
	out["time"] = h.Time.UTC().Format(time.RFC3339)
	return json.Marshal(out)
}

// NormalizeLongitude converts a -180..180 longitude into the 0..360
// convention of the model grid.
func NormalizeLongitude(lon float64) float64 {
	if lon < 0 {
		return lon + 360
	}
	return lon
}

// NearestIndex returns the index of the axis value closest to target, the
// first one on ties, or -1 for an empty axis. The search does not wrap, so a
// longitude just below 360 resolves to the last column rather than 0.
func NearestIndex(axis []float64, target float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, v := range axis {
		if d := math.Abs(v - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// ResolveGridPoint selects the grid cell nearest to (lat, lon). lon may use
// either convention.
func ResolveGridPoint(ds GridDataset, lat, lon float64) (GridPoint, error) {
	lats, lons := ds.Latitudes(), ds.Longitudes()
	gridLon := NormalizeLongitude(lon)

	i := NearestIndex(lats, lat)
	j := NearestIndex(lons, gridLon)
	if i < 0 || j < 0 {
		return GridPoint{}, ErrEmptyGrid
	}

	p := GridPoint{LatIndex: i, LonIndex: j, Lat: lats[i], Lon: lons[j]}
	_, km := haversine.Distance(
		haversine.Coord{Lat: lat, Lon: gridLon},
		haversine.Coord{Lat: p.Lat, Lon: p.Lon},
	)
	p.DistanceKm = round(km, 2)
	return p, nil
}

// ExtractHours reads the requested variables at the grid cell nearest to
// (lat, lon) for every timestep of the dataset. Variables missing from the
// dataset are left out of every hour. Values are rounded to two decimals and
// the primary wave height is capped at WaveHeightCeiling.
func ExtractHours(ctx context.Context, ds GridDataset, lat, lon float64, variables []string) ([]ForecastHour, GridPoint, error) {
	point, err := ResolveGridPoint(ds, lat, lon)
	if err != nil {
		return nil, GridPoint{}, err
	}

	times := ds.Times()
	series := make(map[string][]float64, len(variables))
	for _, name := range variables {
		if !ds.HasVariable(name) {
			continue
		}
		values, err := ds.Series(ctx, name, point.LatIndex, point.LonIndex)
		if err != nil {
			return nil, point, fmt.Errorf("read %s: %w", name, err)
		}
		series[name] = values
	}

	hours := make([]ForecastHour, 0, len(times))
	for t, ts := range times {
		h := ForecastHour{Time: ts, Values: make(map[string]*float64, len(series))}
		for name, values := range series {
			var v *float64
			if t < len(values) {
				v = forecastValue(values[t])
			}
			if name == PrimaryWaveHeightVariable {
				v = CapWaveHeight(v)
			}
			h.Values[name] = v
		}
		hours = append(hours, h)
	}
	return hours, point, nil
}

func forecastValue(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := round(v, 2)
	return &r
}
