package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"cardiopredict/internal/model"
	"cardiopredict/internal/risk"
)

// The engine and loader accept these interfaces; breaking either is a
// compile error here instead of a runtime surprise.
var (
	_ risk.MetricsInterface  = (*Metrics)(nil)
	_ model.MetricsInterface = (*Metrics)(nil)
)

func TestIsolatedRegistries(t *testing.T) {
	// Two instances must not collide; each registers into its own registry.
	m1 := NewWithRegistry(prometheus.NewRegistry())
	m2 := NewWithRegistry(prometheus.NewRegistry())

	m1.RequestsInc("success")
	if got := testutil.ToFloat64(m2.PredictRequests.WithLabelValues("success")); got != 0 {
		t.Errorf("registries leaked: m2 counter = %v", got)
	}
}

func TestPredictionSinks(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RequestsInc("success")
	m.RequestsInc("success")
	m.RequestsInc("error")
	m.PredictionsInc(0)
	m.PredictionsInc(1)
	m.PredictionsInc(1)
	m.FailuresInc("unavailable")

	if got := testutil.ToFloat64(m.PredictRequests.WithLabelValues("success")); got != 2 {
		t.Errorf("success requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PredictRequests.WithLabelValues("error")); got != 1 {
		t.Errorf("error requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Predictions.WithLabelValues("1")); got != 2 {
		t.Errorf("label 1 predictions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Predictions.WithLabelValues("0")); got != 1 {
		t.Errorf("label 0 predictions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PredictFailures.WithLabelValues("unavailable")); got != 1 {
		t.Errorf("unavailable failures = %v, want 1", got)
	}
}

func TestInFlightGauge(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.InFlightInc()
	m.InFlightInc()
	if got := testutil.ToFloat64(m.PredictInFlight); got != 2 {
		t.Errorf("in flight = %v, want 2", got)
	}

	m.InFlightDec()
	m.InFlightDec()
	if got := testutil.ToFloat64(m.PredictInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestModelGauges(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ModelLoadedSet(true)
	if got := testutil.ToFloat64(m.ModelLoaded); got != 1 {
		t.Errorf("model_loaded = %v, want 1", got)
	}

	m.ModelLoadedSet(false)
	if got := testutil.ToFloat64(m.ModelLoaded); got != 0 {
		t.Errorf("model_loaded = %v, want 0", got)
	}

	m.ModelAgeSet(3600)
	if got := testutil.ToFloat64(m.ModelAge); got != 3600 {
		t.Errorf("model_age_seconds = %v, want 3600", got)
	}
}

func TestHistogramObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.LatencyObserve(0.012)
	m.LatencyObserve(0.048)
	m.ProbabilityObserve(0.55)

	if got := histogramSampleCount(t, reg, "predict_duration_seconds"); got != 2 {
		t.Errorf("duration samples = %d, want 2", got)
	}
	if got := histogramSampleCount(t, reg, "prediction_probability"); got != 1 {
		t.Errorf("probability samples = %d, want 1", got)
	}
}

func TestHTTPRequestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestObserve("POST", "/predict", 200, 0.018)
	m.HTTPRequestObserve("POST", "/predict", 200, 0.022)
	m.HTTPRequestObserve("GET", "/", 200, 0.001)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/predict", "200")); got != 2 {
		t.Errorf("POST /predict 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/", "200")); got != 1 {
		t.Errorf("GET / 200 = %v, want 1", got)
	}
}

func TestJournalErrors(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.JournalErrorsInc()
	if got := testutil.ToFloat64(m.JournalErrors); got != 1 {
		t.Errorf("journal_errors_total = %v, want 1", got)
	}
}

func histogramSampleCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			return metric.GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
