package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "surf_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the surf pipeline.
type Metrics struct {
	// Upstream fetches.
	FetchRequests *prometheus.CounterVec   // labels: source={stdmet,data_spec,swdir,station_table,opendap}, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: source

	// Buoy path.
	ObservationMissing *prometheus.CounterVec // labels: buoy
	SpectralBins       *prometheus.GaugeVec   // labels: buoy

	// Forecast path.
	ForecastRunAttempts prometheus.Counter
	ForecastRunFailures prometheus.Counter
	ForecastHours       *prometheus.GaugeVec   // labels: spot
	OpenDAPCache        *prometheus.CounterVec // labels: result={hit,miss}

	// Output.
	RecordsPublished *prometheus.CounterVec // labels: sink, record_type, outcome={success,error}

	// Cycles.
	CycleDuration   prometheus.Histogram
	CycleFailures   prometheus.Counter
	LastSuccess     prometheus.Gauge
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		ObservationMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observation_missing_total",
			Help:      "Standard meteorological feeds that yielded no reading.",
		}, []string{"buoy"}),
		SpectralBins: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spectral_bins",
			Help:      "Number of bins in the latest merged spectrum.",
		}, []string{"buoy"}),
		ForecastRunAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_run_attempts_total",
			Help:      "Model run candidates probed while locating a forecast run.",
		}),
		ForecastRunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_run_failures_total",
			Help:      "Forecast cycles where no candidate run could be opened.",
		}),
		ForecastHours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_hours",
			Help:      "Number of forecast hours in the latest record.",
		}, []string{"spot"}),
		OpenDAPCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opendap_cache_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		RecordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Records written to sinks by sink, record type and outcome.",
		}, []string{"sink", "record_type", "outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete buoy and forecast cycle.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		CycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_failures_total",
			Help:      "Cycles that finished with at least one fatal error.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully successful cycle.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a cycle is in progress, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchDuration,
		m.ObservationMissing,
		m.SpectralBins,
		m.ForecastRunAttempts,
		m.ForecastRunFailures,
		m.ForecastHours,
		m.OpenDAPCache,
		m.RecordsPublished,
		m.CycleDuration,
		m.CycleFailures,
		m.LastSuccess,
		m.PipelineRunning,
	}
}

// Outcome maps an error to the "outcome" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
