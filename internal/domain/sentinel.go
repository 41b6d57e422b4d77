package domain

import (
	"math"
	"strconv"
	"strings"
)

// WaveHeightCeiling is the largest significant wave height (meters) accepted
// for the monitored region. Larger values are treated as instrument or model
// errors and dropped, not clamped.
const WaveHeightCeiling = 8.0

// baseSentinels are the NDBC "missing data" placeholders for the 2, 3 and 4
// character wide columns. Matching is exact: "99.0" and "99.00" both parse to 99.
var baseSentinels = []float64{99, 999, 9999}

// waveHeightSentinel is the missing-data marker used by the WVHT column.
const waveHeightSentinel = 9.9

// ParseValue converts a raw NDBC field into a value, returning nil when the
// field is not numeric or equals one of the base sentinels or extra.
func ParseValue(raw string, extra ...float64) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if isSentinel(v, baseSentinels) || isSentinel(v, extra) {
		return nil
	}
	return &v
}

// ParseWaveHeight is ParseValue for wave heights: 9.9 is an additional
// sentinel and anything above WaveHeightCeiling is dropped.
func ParseWaveHeight(raw string) *float64 {
	return CapWaveHeight(ParseValue(raw, waveHeightSentinel))
}

// CapWaveHeight drops a wave height above WaveHeightCeiling.
func CapWaveHeight(v *float64) *float64 {
	if v != nil && *v > WaveHeightCeiling {
		return nil
	}
	return v
}

func isSentinel(v float64, set []float64) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// round rounds v to the given number of decimal places, half away from zero.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
