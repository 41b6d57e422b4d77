package domain

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	specHeader = "#YY  MM DD hh mm Sep_Freq  < spec_1 (freq_1) spec_2 (freq_2) ... >"
	swdirHead  = "#YY  MM DD hh mm alpha1_1 (freq_1) alpha1_2 (freq_2) ... >"
)

func spectralText(header, units, row string) string {
	return strings.Join([]string{header, units, row}, "\n")
}

func TestMergeSpectrum(t *testing.T) {
	density := spectralText(specHeader,
		"#yr  mo dy hr mn 0.0325(f1) 0.0375(f2)",
		"2026 10 16 12 00 1.2 0.8")
	direction := spectralText(swdirHead,
		"#yr  mo dy hr mn 0.0325(f1) 0.0375(f2)",
		"2026 10 16 12 00 70.0 80.0")

	got := MergeSpectrum(density, direction)

	want := []SpectralBin{
		{Frequency: 0.0325, Period: ptr(30.8), Energy: 1.2, Direction: 70.0},
		{Frequency: 0.0375, Period: ptr(26.7), Energy: 0.8, Direction: 80.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spectrum mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeSpectrum_Rounding(t *testing.T) {
	density := spectralText(specHeader,
		"#yr mo dy hr mn 0.03251(a) 0.1(b)",
		"2026 10 16 12 00 1.23456 0.004")
	direction := spectralText(swdirHead,
		"#yr mo dy hr mn 0.03251(a) 0.1(b)",
		"2026 10 16 12 00 123.456 359.96")

	got := MergeSpectrum(density, direction)
	require.Len(t, got, 2)

	assert.InDelta(t, 0.0325, got[0].Frequency, 1e-12)
	assert.InDelta(t, 1.23, got[0].Energy, 1e-12)
	assert.InDelta(t, 123.5, got[0].Direction, 1e-12)
	require.NotNil(t, got[0].Period)
	assert.InDelta(t, 30.8, *got[0].Period, 1e-12)

	assert.InDelta(t, 0.0, got[1].Energy, 1e-12)
	assert.InDelta(t, 360.0, got[1].Direction, 1e-12)
	require.NotNil(t, got[1].Period)
	assert.InDelta(t, 10.0, *got[1].Period, 1e-12)
}

func TestMergeSpectrum_StopsAtFirstGap(t *testing.T) {
	units := "#yr mo dy hr mn 0.03(a) 0.04(b) 0.05(c) 0.06(d)"

	t.Run("missing density", func(t *testing.T) {
		density := spectralText(specHeader, units, "2026 10 16 12 00 1.0 999.0 0.5 0.4")
		direction := spectralText(swdirHead, units, "2026 10 16 12 00 70 80 90 100")

		got := MergeSpectrum(density, direction)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.03, got[0].Frequency, 1e-12)
	})

	t.Run("missing direction", func(t *testing.T) {
		density := spectralText(specHeader, units, "2026 10 16 12 00 1.0 0.9 0.5 0.4")
		direction := spectralText(swdirHead, units, "2026 10 16 12 00 70 80 MM 100")

		got := MergeSpectrum(density, direction)
		assert.Len(t, got, 2)
	})

	t.Run("gap in first bin", func(t *testing.T) {
		density := spectralText(specHeader, units, "2026 10 16 12 00 99.0 0.9 0.5 0.4")
		direction := spectralText(swdirHead, units, "2026 10 16 12 00 70 80 90 100")

		got := MergeSpectrum(density, direction)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestMergeSpectrum_LengthBoundedByShortestSeries(t *testing.T) {
	tests := []struct {
		name      string
		units     string
		density   string
		direction string
		expected  int
	}{
		{"fewer frequencies", "#yr mo dy hr mn 0.03(a) 0.04(b)", "2026 10 16 12 00 1 2 3", "2026 10 16 12 00 1 2 3", 2},
		{"fewer densities", "#yr mo dy hr mn 0.03(a) 0.04(b) 0.05(c)", "2026 10 16 12 00 1 2", "2026 10 16 12 00 1 2 3", 2},
		{"fewer directions", "#yr mo dy hr mn 0.03(a) 0.04(b) 0.05(c) 0.06(d)", "2026 10 16 12 00 1 2 3 4", "2026 10 16 12 00 1 2 3", 3},
		{"all equal", "#yr mo dy hr mn 0.03(a) 0.04(b) 0.05(c)", "2026 10 16 12 00 1 2 3", "2026 10 16 12 00 1 2 3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeSpectrum(
				spectralText(specHeader, tt.units, tt.density),
				spectralText(swdirHead, tt.units, tt.direction),
			)
			assert.Len(t, got, tt.expected)
		})
	}
}

func TestMergeSpectrum_ZeroFrequencyHasNoPeriod(t *testing.T) {
	units := "#yr mo dy hr mn 0.0(a) 0.05(b)"
	got := MergeSpectrum(
		spectralText(specHeader, units, "2026 10 16 12 00 1.0 2.0"),
		spectralText(swdirHead, units, "2026 10 16 12 00 10 20"),
	)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Period)
	require.NotNil(t, got[1].Period)
	assert.InDelta(t, 20.0, *got[1].Period, 1e-12)
}

func TestMergeSpectrum_DegradedInputs(t *testing.T) {
	units := "#yr mo dy hr mn 0.03(a) 0.04(b)"
	valid := spectralText(specHeader, units, "2026 10 16 12 00 1.0 2.0")

	tests := []struct {
		name      string
		density   string
		direction string
	}{
		{"empty density", "", valid},
		{"empty direction", valid, ""},
		{"density missing data row", specHeader + "\n" + units, valid},
		{"direction missing data row", valid, swdirHead + "\n" + units},
		{"short density row", spectralText(specHeader, units, "2026 10 16 12 00 1.0"), valid},
		{"short direction row", valid, spectralText(swdirHead, units, "2026 10 16 12 00 1.0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeSpectrum(tt.density, tt.direction)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestHeaderFrequencies(t *testing.T) {
	got := headerFrequencies("#yr  mo dy hr mn 0.0325(f1) 0.0375(f2) 0.0425 (f3)")
	assert.Equal(t, []*float64{ptr(0.0325), ptr(0.0375), ptr(0.0425)}, got)

	got = headerFrequencies("#yr  mo dy hr mn 0.03(a) MM(b) 0.05(c)")
	assert.Equal(t, []*float64{ptr(0.03), nil, ptr(0.05)}, got)

	assert.Empty(t, headerFrequencies("#yr mo dy hr mn"))
}

func TestMergeSpectrum_MissingHeaderFrequencyEndsSpectrum(t *testing.T) {
	density := spectralText(specHeader,
		"#yr  mo dy hr mn 0.03(a) MM(b) 0.05(c)",
		"2026 10 16 12 00 1.0 2.0 3.0")
	direction := spectralText(swdirHead,
		"#yr  mo dy hr mn 0.03(a) MM(b) 0.05(c)",
		"2026 10 16 12 00 10 20 30")

	got := MergeSpectrum(density, direction)

	want := []SpectralBin{
		{Frequency: 0.03, Period: ptr(33.3), Energy: 1.0, Direction: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spectrum mismatch (-want +got):\n%s", diff)
	}
}
