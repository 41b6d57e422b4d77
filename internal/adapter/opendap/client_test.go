package opendap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runPath = "/dods/wave/gfswave/20261016/gfswave.global.0p16_12z"

const testDDS = `Dataset {
    Float64 time[time = 2];
    Float64 lat[lat = 3];
    Float64 lon[lon = 3];
    Float32 htsgwsfc[time = 2][lat = 3][lon = 3];
    Float32 perpwsfc[time = 2][lat = 3][lon = 3];
} gfswave/20261016/gfswave.global.0p16_12z;
`

const testDAS = `Attributes {
    time {
        String grads_dim "t";
        String units "days since 1-1-1 00:00:0.0";
    }
    htsgwsfc {
        Float32 _FillValue 9.999E20;
        Float32 missing_value 9.999E20;
        String long_name "significant height of combined wind waves and swell [m] ";
    }
    perpwsfc {
        Float32 missing_value 9.999E20;
    }
}
`

const testAxes = `time, [2]
739906.0, 739906.125
lat, [3]
40.9, 41.0, 41.1
lon, [3]
288.3, 288.4, 288.5
`

const testSeries = `htsgwsfc, [2][1][1]
[0][0], 1.25
[1][0], 9.999E20

time, [2]
739906.0, 739906.125
lat, [1]
41.0
lon, [1]
288.4
`

type gdsServer struct {
	queries []string
}

func (g *gdsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("User-Agent") != "SurfCheck/1.0" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	query, _ := url.QueryUnescape(r.URL.RawQuery)
	switch r.URL.Path {
	case runPath + ".dds":
		_, _ = io.WriteString(w, testDDS)
	case runPath + ".das":
		_, _ = io.WriteString(w, testDAS)
	case runPath + ".ascii":
		g.queries = append(g.queries, query)
		if query == "time,lat,lon" {
			_, _ = io.WriteString(w, testAxes)
			return
		}
		_, _ = io.WriteString(w, testSeries)
	default:
		_, _ = io.WriteString(w, "Error {\n    code = 0;\n    message = \"GrADS Data Server: invalid dataset\";\n};\n")
	}
}

func testOpener(baseURL string) *Opener {
	return NewOpener(baseURL+"/dods/wave/gfswave", 5*time.Second,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testRun = domain.RunCandidate{
	Date:  time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
	Cycle: "12",
}

func TestOpener_Open(t *testing.T) {
	gds := &gdsServer{}
	srv := httptest.NewServer(gds)
	defer srv.Close()

	ds, err := testOpener(srv.URL).Open(context.Background(), testRun)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC),
	}, ds.Times())
	assert.Equal(t, []float64{40.9, 41.0, 41.1}, ds.Latitudes())
	assert.Equal(t, []float64{288.3, 288.4, 288.5}, ds.Longitudes())
	assert.True(t, ds.HasVariable("htsgwsfc"))
	assert.True(t, ds.HasVariable("perpwsfc"))
	assert.False(t, ds.HasVariable("lat"), "coordinate vectors are not grid variables")
	assert.False(t, ds.HasVariable("wvhgtsfc"))
}

func TestDataset_Series(t *testing.T) {
	gds := &gdsServer{}
	srv := httptest.NewServer(gds)
	defer srv.Close()

	ds, err := testOpener(srv.URL).Open(context.Background(), testRun)
	require.NoError(t, err)

	values, err := ds.Series(context.Background(), "htsgwsfc", 1, 1)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.InDelta(t, 1.25, values[0], 1e-9)
	assert.True(t, math.IsNaN(values[1]), "fill value should read as NaN")

	assert.Equal(t, []string{"time,lat,lon", "htsgwsfc[0:1][1][1]"}, gds.queries)
}

func TestDataset_SeriesUnknownVariable(t *testing.T) {
	srv := httptest.NewServer(&gdsServer{})
	defer srv.Close()

	ds, err := testOpener(srv.URL).Open(context.Background(), testRun)
	require.NoError(t, err)

	_, err = ds.Series(context.Background(), "wvhgtsfc", 0, 0)
	require.Error(t, err)
}

func TestOpener_MissingRunIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(&gdsServer{})
	defer srv.Close()

	o := testOpener(srv.URL)
	run := domain.RunCandidate{Date: testRun.Date, Cycle: "18"}
	_, err := o.Open(context.Background(), run)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatasetUnavailable))
	assert.Contains(t, err.Error(), "invalid dataset")
	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.FetchRequests.WithLabelValues(Source, "error")))
}

func TestOpener_NotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := testOpener(srv.URL).Open(context.Background(), testRun)
	assert.True(t, errors.Is(err, ErrDatasetUnavailable))
}

func TestOpener_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	}))
	defer srv.Close()

	_, err := testOpener(srv.URL).Open(context.Background(), testRun)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDatasetUnavailable))
	assert.Contains(t, err.Error(), "status 502")
}

func TestOpener_LocateRunFallsBack(t *testing.T) {
	srv := httptest.NewServer(&gdsServer{})
	defer srv.Close()

	now := time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC)
	run, err := domain.LocateRun(context.Background(), now, testOpener(srv.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, "20261016/gfswave.global.0p16_12z", run.String())
	assert.Equal(t, 4, run.Attempts)
}

func TestDatasetURL(t *testing.T) {
	o := NewOpener("https://nomads.ncep.noaa.gov/dods/wave/gfswave", time.Second, nil, nil)
	assert.Equal(t,
		"https://nomads.ncep.noaa.gov/dods/wave/gfswave/20261016/gfswave.global.0p16_12z",
		o.DatasetURL(testRun))
}

func TestParseASCII_FirstBlockWins(t *testing.T) {
	arrays, err := parseASCII(testSeries)
	require.NoError(t, err)
	assert.Equal(t, []float64{41.0}, arrays["lat"])
	assert.Len(t, arrays["htsgwsfc"], 2)
}

func TestParseASCII_Errors(t *testing.T) {
	_, err := parseASCII("nothing to see\n")
	require.Error(t, err)

	_, err = parseASCII("htsgwsfc, [1][1][1]\n[0][0], abc\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "htsgwsfc")
}

func TestParseDDS_RejectsNonDataset(t *testing.T) {
	_, err := parseDDS("<html>Service unavailable</html>")
	assert.Error(t, err)
}

func TestParseMissingValues(t *testing.T) {
	missing := parseMissingValues(testDAS)
	assert.Equal(t, map[string]float64{"htsgwsfc": 9.999e20, "perpwsfc": 9.999e20}, missing)
}

func TestDecodeTime(t *testing.T) {
	tests := []struct {
		days float64
		want time.Time
	}{
		{739906, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
		{739906.5, time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)},
		{739907.041666667, time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decodeTime(tt.days), "days=%v", tt.days)
	}
}

func TestIsErrorBody(t *testing.T) {
	assert.True(t, isErrorBody("Error {\n code = 0;\n};"))
	assert.False(t, isErrorBody(strings.TrimSpace(testAxes)))
}
