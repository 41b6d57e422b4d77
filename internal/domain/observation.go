package domain

import (
	"fmt"
	"strings"
)

// Column positions in the NDBC standard meteorological (.txt) feed:
//
//	#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
const (
	colYear = iota
	colMonth
	colDay
	colHour
	colMinute
	colWindDir
	colWindSpeed
	colGust
	colWaveHeight
	colDominantPeriod
	colAvgPeriod
	colMeanDirection
	colPressure
	colAirTemp
	colWaterTemp
)

// minStdmetFields is the number of columns required up to and including PRES.
const minStdmetFields = 13

// Reading is a single buoy observation. Every measurement is optional; nil
// marks a missing or implausible value.
type Reading struct {
	Time           string   `json:"time"`
	WaveHeight     *float64 `json:"waveHeight_m"`
	DominantPeriod *float64 `json:"dominantPeriod_s"`
	AvgPeriod      *float64 `json:"avgPeriod_s"`
	MeanDirection  *float64 `json:"meanDirection_deg"`
	WaterTemp      *float64 `json:"waterTemp_C"`
	WindSpeed      *float64 `json:"windSpeed_mps"`
	WindDirection  *float64 `json:"windDir_deg"`
	Pressure       *float64 `json:"pressure_hPa"`
	Gust           *float64 `json:"gust_mps"`
	AirTemp        *float64 `json:"airTemp_C"`
}

// ParseStdmet decodes the latest observation from a standard meteorological
// feed: a header line, a units line, then data rows newest first. It returns
// nil when the feed is too short or the data row is truncated.
func ParseStdmet(text string) *Reading {
	lines := splitLines(text)
	if len(lines) < 3 {
		return nil
	}
	row := strings.Fields(lines[2])
	if len(row) < minStdmetFields {
		return nil
	}

	r := &Reading{
		Time:           rowTimestamp(row),
		WaveHeight:     ParseWaveHeight(row[colWaveHeight]),
		DominantPeriod: ParseValue(row[colDominantPeriod]),
		AvgPeriod:      ParseValue(row[colAvgPeriod]),
		MeanDirection:  ParseValue(row[colMeanDirection]),
		WindSpeed:      ParseValue(row[colWindSpeed]),
		WindDirection:  ParseValue(row[colWindDir]),
		Pressure:       ParseValue(row[colPressure]),
		Gust:           ParseValue(row[colGust]),
	}
	if len(row) > colAirTemp {
		r.AirTemp = ParseValue(row[colAirTemp])
	}
	if len(row) > colWaterTemp {
		r.WaterTemp = ParseValue(row[colWaterTemp])
	}
	return r
}

// rowTimestamp composes "YYYY-MM-DDThh:mmZ" from the first five columns.
func rowTimestamp(row []string) string {
	return fmt.Sprintf("%s-%s-%sT%s:%sZ", row[colYear], row[colMonth], row[colDay], row[colHour], row[colMinute])
}

// splitLines trims surrounding whitespace and splits on LF or CRLF.
func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
