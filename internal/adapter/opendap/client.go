package opendap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
)

// Source is the metric label for dataset server requests.
const Source = "opendap"

const maxBodyBytes = 32 << 20

// ErrDatasetUnavailable is returned when the server has no such dataset.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

// constraintEscaper percent-encodes the hyperslab brackets of a constraint
// expression.
var constraintEscaper = strings.NewReplacer("[", "%5B", "]", "%5D")

// Opener opens GFS-Wave run datasets on a GrADS Data Server.
// It implements domain.DatasetOpener.
type Opener struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewOpener creates an Opener for baseURL, e.g.
// https://nomads.ncep.noaa.gov/dods/wave/gfswave.
func NewOpener(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Opener {
	return &Opener{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// DatasetURL is the OPeNDAP endpoint of a run.
func (o *Opener) DatasetURL(run domain.RunCandidate) string {
	return fmt.Sprintf("%s/%s/%s", o.baseURL, run.DateString(), run.Identifier())
}

// Open reads the structure, attributes and coordinate axes of a run dataset.
func (o *Opener) Open(ctx context.Context, run domain.RunCandidate) (domain.GridDataset, error) {
	url := o.DatasetURL(run)

	dds, err := o.get(ctx, url+".dds")
	if err != nil {
		return nil, err
	}
	structure, err := parseDDS(dds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	das, err := o.get(ctx, url+".das")
	if err != nil {
		return nil, err
	}

	axes, err := o.ascii(ctx, url, "time,lat,lon")
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		url:       url,
		opener:    o,
		variables: structure.variables,
		missing:   parseMissingValues(das),
		lats:      axes["lat"],
		lons:      axes["lon"],
	}
	for _, days := range axes["time"] {
		ds.times = append(ds.times, decodeTime(days))
	}
	if len(ds.times) == 0 || len(ds.lats) == 0 || len(ds.lons) == 0 {
		return nil, fmt.Errorf("%s: incomplete coordinate axes", url)
	}

	o.logger.Debug("dataset opened", "url", url,
		"times", len(ds.times), "lats", len(ds.lats), "lons", len(ds.lons), "variables", len(ds.variables))
	return ds, nil
}

// ascii requests the ASCII rendering of a constraint expression.
func (o *Opener) ascii(ctx context.Context, url, constraint string) (map[string][]float64, error) {
	body, err := o.get(ctx, url+".ascii?"+constraintEscaper.Replace(constraint))
	if err != nil {
		return nil, err
	}
	arrays, err := parseASCII(body)
	if err != nil {
		return nil, fmt.Errorf("%s?%s: %w", url, constraint, err)
	}
	return arrays, nil
}

func (o *Opener) get(ctx context.Context, url string) (string, error) {
	start := time.Now()
	body, err := o.doRequest(ctx, url)
	o.metrics.FetchDuration.WithLabelValues(Source).Observe(time.Since(start).Seconds())
	o.metrics.FetchRequests.WithLabelValues(Source, observability.Outcome(err)).Inc()
	return body, err
}

func (o *Opener) doRequest(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "SurfCheck/1.0")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("opendap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", url, ErrDatasetUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("opendap error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	body := string(data)
	// GDS reports a missing dataset as a 200 with a DODS error object.
	if isErrorBody(body) {
		return "", fmt.Errorf("%s: %w: %s", url, ErrDatasetUnavailable, errorMessage(body))
	}
	return body, nil
}

// Dataset is an opened run. It implements domain.GridDataset.
type Dataset struct {
	url       string
	opener    *Opener
	times     []time.Time
	lats      []float64
	lons      []float64
	variables map[string]bool
	missing   map[string]float64
}

func (d *Dataset) Times() []time.Time { return d.times }

func (d *Dataset) Latitudes() []float64 { return d.lats }

func (d *Dataset) Longitudes() []float64 { return d.lons }

func (d *Dataset) HasVariable(name string) bool { return d.variables[name] }

// URL is the dataset endpoint.
func (d *Dataset) URL() string { return d.url }

// Series reads one variable at one grid cell over the whole time axis.
// Fill values are returned as NaN.
func (d *Dataset) Series(ctx context.Context, name string, latIndex, lonIndex int) ([]float64, error) {
	if !d.HasVariable(name) {
		return nil, fmt.Errorf("variable %q not in dataset", name)
	}
	constraint := fmt.Sprintf("%s[0:%d][%d][%d]", name, len(d.times)-1, latIndex, lonIndex)
	arrays, err := d.opener.ascii(ctx, d.url, constraint)
	if err != nil {
		return nil, err
	}
	values, ok := arrays[name]
	if !ok {
		return nil, fmt.Errorf("variable %q missing from response", name)
	}
	if fill, ok := d.missing[name]; ok {
		maskMissing(values, fill)
	}
	return values, nil
}
