// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	SimulationsTotal    *prometheus.CounterVec
	SimulationDuration  prometheus.Histogram
	SimulationWindow    prometheus.Histogram
	InsufficientHistory prometheus.Counter

	// Ingestion metrics
	ObservationsIngested *prometheus.CounterVec
	IngestionErrors      *prometheus.CounterVec
	LastIngestedDate     *prometheus.GaugeVec
	TickerReconnects     prometheus.Counter
	SpotPrice            *prometheus.GaugeVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dca_lab"
	}

	return &Metrics{
		SimulationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		SimulationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Simulation execution duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		SimulationWindow: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "effective_window_days",
			Help:      "Effective window size of completed simulations",
			Buckets:   []float64{7, 30, 60, 90, 120, 180, 270, 365},
		}),
		InsufficientHistory: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "insufficient_history_total",
			Help:      "Total number of simulations that ran with fewer rows than requested",
		}),

		ObservationsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_stored_total",
			Help:      "Total number of daily observations stored by symbol",
		}, []string{"symbol"}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by stage",
		}, []string{"stage"}),
		LastIngestedDate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "last_observation_date_seconds",
			Help:      "Unix timestamp of the latest stored observation date by symbol",
		}, []string{"symbol"}),
		TickerReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ticker_reconnects_total",
			Help:      "Total number of live ticker reconnect attempts",
		}),
		SpotPrice: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "spot_price",
			Help:      "Latest spot price seen on the live ticker by symbol",
		}, []string{"symbol"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and code",
		}, []string{"route", "code"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSimulation records a completed or failed simulation run.
func RecordSimulation(status string, durationSeconds float64) {
	DefaultMetrics.SimulationsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.SimulationDuration.Observe(durationSeconds)
}

// RecordSimulationWindow records the effective window of a completed run.
func RecordSimulationWindow(effectiveDays, requestedDays int) {
	DefaultMetrics.SimulationWindow.Observe(float64(effectiveDays))
	if effectiveDays < requestedDays {
		DefaultMetrics.InsufficientHistory.Inc()
	}
}

// RecordObservationsStored increments the stored observation counter.
func RecordObservationsStored(symbol string, count int) {
	DefaultMetrics.ObservationsIngested.WithLabelValues(symbol).Add(float64(count))
}

// RecordIngestionError records an ingestion error by stage.
func RecordIngestionError(stage string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(stage).Inc()
}

// UpdateLastIngestedDate updates the latest stored observation date gauge.
func UpdateLastIngestedDate(symbol string, unixSeconds int64) {
	DefaultMetrics.LastIngestedDate.WithLabelValues(symbol).Set(float64(unixSeconds))
}

// RecordTickerReconnect increments the ticker reconnect counter.
func RecordTickerReconnect() {
	DefaultMetrics.TickerReconnects.Inc()
}

// UpdateSpotPrice updates the latest spot price gauge.
func UpdateSpotPrice(symbol string, price float64) {
	DefaultMetrics.SpotPrice.WithLabelValues(symbol).Set(price)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest records an HTTP request by route and status code.
func RecordHTTPRequest(route, code string, seconds float64) {
	DefaultMetrics.RequestsTotal.WithLabelValues(route, code).Inc()
	DefaultMetrics.RequestDuration.WithLabelValues(route).Observe(seconds)
}
