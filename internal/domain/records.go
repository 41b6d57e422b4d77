package domain

import "time"

// Record types published to sinks.
const (
	RecordTypeBuoy     = "buoy"
	RecordTypeForecast = "forecast"
)

// Spot is a surf location: the buoy observed for it and the coordinate the
// forecast is extracted at.
type Spot struct {
	Name string
	Buoy string
	Lat  float64
	Lon  float64
}

// Record is a normalized output of one pipeline path.
type Record interface {
	RecordType() string
	// Key identifies the record's subject: the buoy ID or the spot name.
	Key() string
	SpotName() string
	FetchedAt() time.Time
}

// BuoyRecord is the output of the buoy path: the latest observation, which
// may be missing, and the directional spectrum, which may be empty.
type BuoyRecord struct {
	Fetched  time.Time     `json:"fetched"`
	Spot     string        `json:"spot,omitempty"`
	Buoy     string        `json:"buoy"`
	Stdmet   *Reading      `json:"stdmet"`
	Spectral []SpectralBin `json:"spectral"`
}

// NewBuoyRecord stamps a buoy record with the current time.
func NewBuoyRecord(spot Spot, reading *Reading, spectral []SpectralBin) BuoyRecord {
	if spectral == nil {
		spectral = []SpectralBin{}
	}
	return BuoyRecord{
		Fetched:  clock.Now().UTC(),
		Spot:     spot.Name,
		Buoy:     spot.Buoy,
		Stdmet:   reading,
		Spectral: spectral,
	}
}

func (r BuoyRecord) RecordType() string { return RecordTypeBuoy }
func (r BuoyRecord) Key() string { return r.Buoy }
func (r BuoyRecord) SpotName() string { return r.Spot }
func (r BuoyRecord) FetchedAt() time.Time { return r.Fetched }

// ForecastRecord is the output of the forecast path for one spot.
type ForecastRecord struct {
	Fetched        time.Time      `json:"fetched"`
	Spot           string         `json:"spot,omitempty"`
	Model          string         `json:"model"`
	Run            string         `json:"run"`
	RunDate        string         `json:"run_date"`
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	GridLat        float64        `json:"grid_lat"`
	GridLon        float64        `json:"grid_lon"`
	GridDistanceKm float64        `json:"grid_distance_km"`
	Hours          []ForecastHour `json:"hours"`
}

// NewForecastRecord stamps a forecast record with the current time.
func NewForecastRecord(spot Spot, run RunCandidate, point GridPoint, hours []ForecastHour) ForecastRecord {
	if hours == nil {
		hours = []ForecastHour{}
	}
	return ForecastRecord{
		Fetched:        clock.Now().UTC(),
		Spot:           spot.Name,
		Model:          ModelName,
		Run:            run.Identifier(),
		RunDate:        run.DateString(),
		Lat:            spot.Lat,
		Lon:            spot.Lon,
		GridLat:        point.Lat,
		GridLon:        point.Lon,
		GridDistanceKm: point.DistanceKm,
		Hours:          hours,
	}
}

func (r ForecastRecord) RecordType() string { return RecordTypeForecast }
func (r ForecastRecord) Key() string { return r.Spot }
func (r ForecastRecord) SpotName() string { return r.Spot }
func (r ForecastRecord) FetchedAt() time.Time { return r.Fetched }
