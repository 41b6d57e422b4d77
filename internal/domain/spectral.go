package domain

import (
	"regexp"
	"strings"
)

// timestampColumns is the number of leading YY MM DD hh mm columns in the
// spectral feeds.
const timestampColumns = 5

// minSpectralFields is the shortest acceptable spectral data row: the
// timestamp plus at least two frequency bins.
const minSpectralFields = 7

// annotationRe matches the parenthesized per-bin annotation that follows each
// frequency in the spectral header.
var annotationRe = regexp.MustCompile(`\([^)]*\)`)

// SpectralBin is one frequency component of a directional wave spectrum.
type SpectralBin struct {
	Frequency float64  `json:"freq"`
	Period    *float64 `json:"period_s"`
	Energy    float64  `json:"energy"`
	Direction float64  `json:"direction_deg"`
}

// MergeSpectrum combines the latest spectral density row (.data_spec) and
// mean wave direction row (.swdir) into an ordered directional spectrum.
//
// Frequencies come from the density feed's units line. The three series are
// aligned by position and the spectrum ends at the first index where any of
// them runs out or holds a missing value; later bins are not recovered.
// The result is never nil.
func MergeSpectrum(densityText, directionText string) []SpectralBin {
	bins := []SpectralBin{}

	density := splitLines(densityText)
	direction := splitLines(directionText)
	if len(density) < 3 || len(direction) < 3 {
		return bins
	}

	densityRow := strings.Fields(density[2])
	directionRow := strings.Fields(direction[2])
	if len(densityRow) < minSpectralFields || len(directionRow) < minSpectralFields {
		return bins
	}

	freqs := headerFrequencies(density[1])
	energies := rowValues(densityRow)
	directions := rowValues(directionRow)

	n := min(len(freqs), len(energies), len(directions))
	for i := range n {
		if freqs[i] == nil || energies[i] == nil || directions[i] == nil {
			break
		}
		bins = append(bins, newSpectralBin(*freqs[i], *energies[i], *directions[i]))
	}
	return bins
}

// headerFrequencies extracts the frequency bins from a spectral header line.
// A missing or unparseable frequency stays in place as nil so later bins keep
// their positions.
func headerFrequencies(line string) []*float64 {
	line = strings.ReplaceAll(line, "#", " ")
	tokens := strings.Fields(annotationRe.ReplaceAllString(line, " "))
	if len(tokens) <= timestampColumns {
		return nil
	}
	freqs := make([]*float64, 0, len(tokens)-timestampColumns)
	for _, tok := range tokens[timestampColumns:] {
		freqs = append(freqs, ParseValue(tok))
	}
	return freqs
}

// rowValues parses the per-bin values of a data row, keeping missing
// values in place so positions stay aligned with the header.
func rowValues(row []string) []*float64 {
	values := make([]*float64, 0, len(row)-timestampColumns)
	for _, tok := range row[timestampColumns:] {
		values = append(values, ParseValue(tok))
	}
	return values
}

func newSpectralBin(freq, energy, direction float64) SpectralBin {
	bin := SpectralBin{
		Frequency: round(freq, 4),
		Energy:    round(energy, 2),
		Direction: round(direction, 1),
	}
	if freq > 0 {
		period := round(1/freq, 1)
		bin.Period = &period
	}
	return bin
}
