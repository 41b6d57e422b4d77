package opendap

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// declRe matches a DDS array declaration, e.g.
	// "Float32 htsgwsfc[time = 81][lat = 1051][lon = 2160];".
	declRe = regexp.MustCompile(`^\s*(?:Float32|Float64|Int16|UInt16|Int32|UInt32|Byte)\s+([A-Za-z_][\w.]*)((?:\[[^\]]*\])+)\s*;`)
	dimRe  = regexp.MustCompile(`\[\s*(\w+)\s*=\s*(\d+)\s*\]`)

	// asciiHeaderRe matches the first line of an ASCII array block, e.g.
	// "htsgwsfc, [81][1][1]".
	asciiHeaderRe = regexp.MustCompile(`^([A-Za-z_][\w.]*),\s*((?:\[\d+\])+)\s*$`)
	asciiIndexRe  = regexp.MustCompile(`^(?:\[\d+\])+,\s*`)

	// attrBlockRe opens a DAS attribute container; missingRe reads a fill value.
	attrBlockRe = regexp.MustCompile(`^\s*([A-Za-z_][\w.]*)\s*\{\s*$`)
	missingRe   = regexp.MustCompile(`^\s*\w+\s+(?:missing_value|_FillValue)\s+([^;\s]+)\s*;`)

	errorBodyRe = regexp.MustCompile(`(?is)^\s*error\s*\{`)
	errorMsgRe  = regexp.MustCompile(`(?is)message\s*=\s*"([^"]*)"`)
)

var errNoDataset = errors.New("response is not a dataset description")

// gradsEpoch is 0001-01-01 in the GrADS "days since 1-1-1" time axis. GrADS
// counts from the Julian calendar, two days behind the proleptic Gregorian
// calendar of Go at that date.
var gradsEpoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

const gradsCalendarOffsetDays = 2

type ddsStructure struct {
	variables map[string]bool
}

// parseDDS finds the time x lat x lon variables of a dataset description.
func parseDDS(dds string) (ddsStructure, error) {
	if !strings.Contains(dds, "Dataset {") {
		return ddsStructure{}, errNoDataset
	}
	s := ddsStructure{variables: make(map[string]bool)}
	for _, line := range strings.Split(dds, "\n") {
		m := declRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dims := dimRe.FindAllStringSubmatch(m[2], -1)
		if len(dims) == 3 && dims[0][1] == "time" && dims[1][1] == "lat" && dims[2][1] == "lon" {
			s.variables[m[1]] = true
		}
	}
	return s, nil
}

// parseMissingValues maps each variable to its missing_value or _FillValue.
func parseMissingValues(das string) map[string]float64 {
	out := make(map[string]float64)
	var stack []string
	for _, line := range strings.Split(das, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case attrBlockRe.MatchString(line):
			stack = append(stack, attrBlockRe.FindStringSubmatch(line)[1])
		case trimmed == "}":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case len(stack) > 0:
			m := missingRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			name := stack[len(stack)-1]
			if _, seen := out[name]; !seen {
				out[name] = v
			}
		}
	}
	return out
}

// parseASCII reads every array block of an ASCII response. The first block
// of a given name wins, so a requested variable is not shadowed by the map
// vectors the server appends after it.
func parseASCII(body string) (map[string][]float64, error) {
	out := make(map[string][]float64)
	var (
		name   string
		values []float64
		inside bool
	)
	flush := func() {
		if inside {
			if _, seen := out[name]; !seen {
				out[name] = values
			}
		}
		inside, name, values = false, "", nil
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := asciiHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			inside, name = true, m[1]
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if !inside {
			continue
		}
		for _, tok := range strings.Split(asciiIndexRe.ReplaceAllString(line, ""), ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s value %q: %w", name, tok, err)
			}
			values = append(values, v)
		}
	}
	flush()

	if len(out) == 0 {
		return nil, errors.New("no arrays in response")
	}
	return out, nil
}

// decodeTime converts a GrADS "days since 1-1-1" value to UTC.
func decodeTime(days float64) time.Time {
	whole := math.Floor(days)
	frac := days - whole
	t := gradsEpoch.AddDate(0, 0, int(whole)-gradsCalendarOffsetDays)
	return t.Add(time.Duration(frac * 24 * float64(time.Hour))).Round(time.Minute)
}

// maskMissing replaces fill values with NaN in place.
func maskMissing(values []float64, fill float64) {
	tolerance := math.Abs(fill) * 1e-6
	for i, v := range values {
		if math.Abs(v-fill) <= tolerance {
			values[i] = math.NaN()
		}
	}
}

func isErrorBody(body string) bool {
	return errorBodyRe.MatchString(body)
}

func errorMessage(body string) string {
	if m := errorMsgRe.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return "unknown error"
}
