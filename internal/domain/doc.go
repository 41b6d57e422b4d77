// Package domain normalizes NOAA buoy observations and GFS-Wave model output
// into records for the surf conditions viewer.
//
// # Data Sources
//
// Buoy data comes from the NDBC realtime2 text feeds
// (https://www.ndbc.noaa.gov/data/realtime2/):
//
//	<id>.txt        standard meteorological data
//	<id>.data_spec  spectral wave density
//	<id>.swdir      spectral mean wave direction
//
// Each feed has a header line, a units line and whitespace-delimited data rows,
// newest first. Only the newest row (line index 2) is used.
//
// Forecasts come from the NOMADS GrADS Data Server, one dataset per GFS-Wave
// run: /dods/wave/gfswave/<YYYYMMDD>/gfswave.global.0p16_<cc>z.
//
// # NDBC Data Conventions
//
// Missing values:
//
//	99, 999 and 9999 mark missing data depending on column width. Comparison
//	is exact after numeric parsing, so "99.0" and "99.00" are both missing.
//	The wave height column also uses 9.9. "MM" and other non-numeric tokens
//	are missing too.
//
// Plausibility:
//
//	Wave heights above 8.0 m are treated as errors for the monitored region
//	and dropped (nil), never clamped. The same ceiling applies to the model's
//	significant wave height (htsgwsfc).
//
// Spectra:
//
//	Frequencies come from the density feed's units line, written as
//	"0.0325(...)": parentheses and their annotations are ignored. Density and
//	direction rows are aligned with those frequencies by position, and the
//	spectrum stops at the first bin with a missing value in either row.
//
// # Forecast Runs
//
// GFS-Wave runs are probed newest first: today's 12z, 06z, 00z, then the two
// previous days, and the first dataset that opens is used. Longitudes are
// converted to the grid's 0-360 convention and the nearest cell is used for
// every timestep.
package domain
