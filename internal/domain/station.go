package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/umahmood/haversine"
)

// Station is an NDBC station that is likely to report wave data.
type Station struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Station table columns (pipe-delimited):
//
//	STATION_ID | OWNER | TTYPE | HULL | NAME | PAYLOAD | LOCATION | TIMEZONE | FORECAST | NOTE
const (
	stationColID       = 0
	stationColType     = 2
	stationColName     = 4
	stationColLocation = 6
	stationMinColumns  = 7
)

// buoyTypes are the station types (lowercased) known to carry wave sensors.
var buoyTypes = map[string]bool{
	"3-meter discus buoy":                    true,
	"buoy":                                   true,
	"atlas buoy":                             true,
	"dart ii":                                true,
	"dart 4g":                                true,
	"6-meter nomad":                          true,
	"discus buoy":                            true,
	"6-meter foam buoy":                      true,
	"self-contained ocean observing payload": true,
	"ocean racing buoy":                      true,
	"wave rider":                             true,
	"waverider":                              true,
	"datawell":                               true,
	"3-meter foam buoy":                      true,
	"ocean buoy":                             true,
}

// locationRe parses "41.003 N 71.600 W".
var locationRe = regexp.MustCompile(`^([\d.]+)\s*([NS])\s+([\d.]+)\s*([EW])`)

// ParseStationTable decodes the NDBC station table, keeping buoy-type
// stations with a usable location.
func ParseStationTable(text string) []Station {
	var stations []Station
	for _, line := range splitLines(text) {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < stationMinColumns {
			continue
		}

		ttype := strings.TrimSpace(parts[stationColType])
		if !isBuoyType(ttype) {
			continue
		}

		loc, _, _ := strings.Cut(strings.TrimSpace(parts[stationColLocation]), "(")
		lat, lon, ok := parseLocation(strings.TrimSpace(loc))
		if !ok || (lat == 0 && lon == 0) {
			continue
		}

		id := strings.TrimSpace(parts[stationColID])
		name := strings.TrimSpace(parts[stationColName])
		if name == "" {
			name = id
		}
		stations = append(stations, Station{
			ID:   id,
			Name: name,
			Type: ttype,
			Lat:  round(lat, 3),
			Lon:  round(lon, 3),
		})
	}
	return stations
}

func isBuoyType(ttype string) bool {
	t := strings.ToLower(ttype)
	if t == "" {
		return false
	}
	if buoyTypes[t] {
		return true
	}
	return strings.Contains(t, "buoy") || strings.Contains(t, "dart") || strings.Contains(t, "rider")
}

func parseLocation(s string) (float64, float64, bool) {
	m := locationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(m[1], 64)
	lon, errLon := strconv.ParseFloat(m[3], 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	if m[2] == "S" {
		lat = -lat
	}
	if m[4] == "W" {
		lon = -lon
	}
	return lat, lon, true
}

// NearestStation returns the station closest to (lat, lon) by great-circle
// distance, and that distance in kilometers.
func NearestStation(stations []Station, lat, lon float64) (Station, float64, bool) {
	target := haversine.Coord{Lat: lat, Lon: lon}
	best, bestKm := -1, math.Inf(1)
	for i, s := range stations {
		_, km := haversine.Distance(target, haversine.Coord{Lat: s.Lat, Lon: s.Lon})
		if km < bestKm {
			best, bestKm = i, km
		}
	}
	if best < 0 {
		return Station{}, 0, false
	}
	return stations[best], bestKm, true
}
