// Package metrics provides Prometheus metrics collection for the prediction
// service. It defines and manages the counters, gauges, and histograms that
// are exposed via the /metrics endpoint when monitoring is enabled.
//
// The package includes metrics for prediction outcomes, scoring latency,
// model availability, HTTP traffic, and decision journaling.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the prediction service.
// The engine, loader, journal, and HTTP layer record through the sink
// methods below rather than touching collectors directly.
type Metrics struct {
	// Prediction metrics
	PredictRequests  *prometheus.CounterVec // Prediction requests by outcome (success/error)
	Predictions      *prometheus.CounterVec // Returned class labels by value (0/1)
	PredictFailures  *prometheus.CounterVec // Rejected predictions by failure kind
	PredictDuration  prometheus.Histogram   // End-to-end scoring latency in seconds
	PredictInFlight  prometheus.Gauge       // Predictions currently being scored
	PredictionScores prometheus.Histogram   // Distribution of positive-class probabilities

	// Model metrics
	ModelLoaded prometheus.Gauge // 1 when a usable model is loaded, 0 otherwise
	ModelAge    prometheus.Gauge // Age of the model artifact in seconds at load

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // HTTP requests by method, route, and status
	HTTPDuration *prometheus.HistogramVec // HTTP request duration by method and route

	// System metrics
	JournalErrors prometheus.Counter // Decision journal writes that failed
}

// New creates and registers all Prometheus metrics using the default registry.
// This is the standard way to create metrics for production use.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows for isolated metric collection in tests without affecting
// the global Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predict_requests_total",
			Help: "Total number of prediction requests by outcome",
		}, []string{"outcome"}),
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions returned by class label",
		}, []string{"label"}),
		PredictFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predict_failures_total",
			Help: "Total number of failed predictions by failure kind",
		}, []string{"kind"}),
		PredictDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predict_duration_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		PredictInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "predict_in_flight",
			Help: "Number of predictions currently being scored",
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_probability",
			Help:    "Distribution of positive-class probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "Whether a usable model artifact is loaded (1) or not (0)",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the model artifact in seconds at load time",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		JournalErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "journal_errors_total",
			Help: "Total number of decision journal writes that failed",
		}),
	}
}

// RequestsInc counts one finished prediction request. Outcome is "success"
// or "error".
func (m *Metrics) RequestsInc(outcome string) {
	m.PredictRequests.WithLabelValues(outcome).Inc()
}

// PredictionsInc counts one returned class label.
func (m *Metrics) PredictionsInc(label int) {
	m.Predictions.WithLabelValues(strconv.Itoa(label)).Inc()
}

// FailuresInc counts one rejected prediction by failure kind.
func (m *Metrics) FailuresInc(kind string) {
	m.PredictFailures.WithLabelValues(kind).Inc()
}

// LatencyObserve records one end-to-end scoring duration.
func (m *Metrics) LatencyObserve(seconds float64) {
	m.PredictDuration.Observe(seconds)
}

// ProbabilityObserve records one positive-class probability.
func (m *Metrics) ProbabilityObserve(probability float64) {
	m.PredictionScores.Observe(probability)
}

func (m *Metrics) InFlightInc() {
	m.PredictInFlight.Inc()
}

func (m *Metrics) InFlightDec() {
	m.PredictInFlight.Dec()
}

// ModelLoadedSet records whether the process holds a usable model.
func (m *Metrics) ModelLoadedSet(loaded bool) {
	if loaded {
		m.ModelLoaded.Set(1)
		return
	}
	m.ModelLoaded.Set(0)
}

// ModelAgeSet records the artifact age observed at load.
func (m *Metrics) ModelAgeSet(seconds float64) {
	m.ModelAge.Set(seconds)
}

// JournalErrorsInc counts one failed decision journal write.
func (m *Metrics) JournalErrorsInc() {
	m.JournalErrors.Inc()
}

// HTTPRequestObserve records one served HTTP request.
func (m *Metrics) HTTPRequestObserve(method, path string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(seconds)
}
