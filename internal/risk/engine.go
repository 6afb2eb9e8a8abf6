// Package risk turns feature vectors into risk decisions by driving the
// loaded model handle and classifying everything that can go wrong along the
// way into the service's failure taxonomy.
package risk

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"cardiopredict/internal/model"
)

// Request outcome classes recorded by the metrics sink.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// highRiskThreshold is fixed. Exactly 0.5 stays LOW.
const highRiskThreshold = 0.5

// Tier is the binarized risk level derived from the positive-class
// probability.
type Tier string

const (
	TierLow  Tier = "LOW"
	TierHigh Tier = "HIGH"
)

// TierFor maps a probability to a tier with a strict greater-than at the
// threshold.
func TierFor(probability float64) Tier {
	if probability > highRiskThreshold {
		return TierHigh
	}
	return TierLow
}

// Decision is the outcome of one inference.
type Decision struct {
	Label       int
	Probability float64
	Tier        Tier
}

// MetricsInterface defines the sink methods the engine records into.
type MetricsInterface interface {
	RequestsInc(outcome string)
	PredictionsInc(label int)
	FailuresInc(kind string)
	LatencyObserve(seconds float64)
	ProbabilityObserve(probability float64)
	InFlightInc()
	InFlightDec()
}

// Engine applies availability rules, a bounded timeout around the model
// call, the probability fallback, and the risk threshold.
type Engine struct {
	state   *model.State
	metrics MetricsInterface
	timeout time.Duration
}

// New builds an engine over the injected availability state. metrics may be
// nil for callers that do not record, such as the preflight CLI.
func New(state *model.State, metrics MetricsInterface, timeout time.Duration) *Engine {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Engine{state: state, metrics: metrics, timeout: timeout}
}

// Decide runs one inference. The in-flight gauge is decremented and latency
// observed on every exit path, including classified failures.
func (e *Engine) Decide(ctx context.Context, features []float64) (Decision, error) {
	start := time.Now()
	e.metrics.InFlightInc()
	defer func() {
		e.metrics.InFlightDec()
		e.metrics.LatencyObserve(time.Since(start).Seconds())
	}()

	snap := e.state.Snapshot()
	if snap.Availability != model.Loaded {
		err := Unavailable("%s", snap.FailureReason())
		e.reject(err)
		return Decision{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	label, err := snap.Handle.Predict(ctx, features)
	if err != nil {
		cerr := e.classify(err, "model predict failed")
		e.reject(cerr)
		return Decision{}, cerr
	}
	if label != 0 && label != 1 {
		cerr := Prediction(nil, "model returned label %d, expected 0 or 1", label)
		e.reject(cerr)
		return Decision{}, cerr
	}

	// Without calibrated probabilities the label itself stands in, so the
	// response shape stays uniform at degraded fidelity.
	probability := float64(label)
	if snap.Proba != nil {
		probs, err := snap.Proba.PredictProba(ctx, features)
		if err != nil {
			cerr := e.classify(err, "model predict_proba failed")
			e.reject(cerr)
			return Decision{}, cerr
		}
		probability = probs[1]
		if math.IsNaN(probability) || probability < 0 || probability > 1 {
			cerr := Prediction(nil, "model returned probability %f outside [0,1]", probability)
			e.reject(cerr)
			return Decision{}, cerr
		}
	}

	decision := Decision{
		Label:       label,
		Probability: probability,
		Tier:        TierFor(probability),
	}

	e.metrics.RequestsInc(OutcomeSuccess)
	e.metrics.PredictionsInc(label)
	e.metrics.ProbabilityObserve(probability)

	log.Debug().
		Int("label", decision.Label).
		Float64("probability", decision.Probability).
		Str("tier", string(decision.Tier)).
		Msg("decision served")

	return decision, nil
}

// Timeout is the bound applied around each model call.
func (e *Engine) Timeout() time.Duration { return e.timeout }

func (e *Engine) classify(err error, msg string) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable("prediction timed out after %v", e.timeout)
	}
	return Prediction(err, "%s", msg)
}

func (e *Engine) reject(err *Error) {
	e.metrics.RequestsInc(OutcomeError)
	e.metrics.FailuresInc(string(err.Kind))

	switch err.Kind {
	case KindUnavailable:
		log.Warn().Str("reason", err.Msg).Msg("prediction unavailable")
	default:
		log.Error().Err(err).Str("kind", string(err.Kind)).Msg("prediction rejected")
	}
}

type nopMetrics struct{}

func (nopMetrics) RequestsInc(string)         {}
func (nopMetrics) PredictionsInc(int)         {}
func (nopMetrics) FailuresInc(string)         {}
func (nopMetrics) LatencyObserve(float64)     {}
func (nopMetrics) ProbabilityObserve(float64) {}
func (nopMetrics) InFlightInc()               {}
func (nopMetrics) InFlightDec()               {}
