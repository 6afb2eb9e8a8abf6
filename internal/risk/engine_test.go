package risk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardiopredict/internal/model"
)

type stubHandle struct {
	label int
	err   error
	delay time.Duration
}

func (s *stubHandle) Predict(ctx context.Context, features []float64) (int, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return 0, s.err
	}
	return s.label, nil
}

type stubProbaHandle struct {
	stubHandle
	probs [2]float64
	perr  error
}

func (s *stubProbaHandle) PredictProba(ctx context.Context, features []float64) ([2]float64, error) {
	if s.perr != nil {
		return [2]float64{}, s.perr
	}
	return s.probs, nil
}

func loadedState(h model.Handle, probaCapable bool) *model.State {
	st := model.NewState()
	st.MarkLoaded(h, model.ArtifactInfo{Path: "stub", Format: "stub", ProbaCapable: probaCapable})
	return st
}

var testVector = []float64{45, 1, 0, 120, 200, 0, 0, 150, 0, 0.0, 1, 0, 3}

func TestDecideWithProbabilities(t *testing.T) {
	tests := []struct {
		name            string
		label           int
		probs           [2]float64
		wantLabel       int
		wantProbability float64
		wantTier        Tier
	}{
		{
			name:            "positive label high probability",
			label:           1,
			probs:           [2]float64{0.3, 0.7},
			wantLabel:       1,
			wantProbability: 0.7,
			wantTier:        TierHigh,
		},
		{
			name:            "negative label low probability",
			label:           0,
			probs:           [2]float64{0.9, 0.1},
			wantLabel:       0,
			wantProbability: 0.1,
			wantTier:        TierLow,
		},
		{
			name:            "boundary probability is low risk",
			label:           1,
			probs:           [2]float64{0.5, 0.5},
			wantLabel:       1,
			wantProbability: 0.5,
			wantTier:        TierLow,
		},
		{
			name:            "just above boundary is high risk",
			label:           1,
			probs:           [2]float64{0.4999, 0.5001},
			wantLabel:       1,
			wantProbability: 0.5001,
			wantTier:        TierHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &stubProbaHandle{stubHandle: stubHandle{label: tt.label}, probs: tt.probs}
			mock := &MockMetrics{}
			engine := New(loadedState(h, true), mock, time.Second)

			decision, err := engine.Decide(context.Background(), testVector)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLabel, decision.Label)
			assert.Equal(t, tt.wantProbability, decision.Probability)
			assert.Equal(t, tt.wantTier, decision.Tier)

			assert.Equal(t, 1, mock.Requests(OutcomeSuccess))
			assert.Equal(t, 1, mock.Predictions(tt.wantLabel))
		})
	}
}

func TestDecideFallbackWithoutProbabilities(t *testing.T) {
	tests := []struct {
		name            string
		label           int
		wantProbability float64
		wantTier        Tier
	}{
		{name: "label one becomes certainty", label: 1, wantProbability: 1.0, wantTier: TierHigh},
		{name: "label zero becomes certainty", label: 0, wantProbability: 0.0, wantTier: TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The handle implements PredictProba but the artifact did not
			// declare the capability, so the fallback must apply.
			h := &stubProbaHandle{stubHandle: stubHandle{label: tt.label}, probs: [2]float64{0.5, 0.5}}
			engine := New(loadedState(h, false), &MockMetrics{}, time.Second)

			decision, err := engine.Decide(context.Background(), testVector)
			require.NoError(t, err)
			assert.Equal(t, tt.wantProbability, decision.Probability)
			assert.Equal(t, tt.wantTier, decision.Tier)
		})
	}
}

func TestDecideNotLoaded(t *testing.T) {
	mock := &MockMetrics{}
	engine := New(model.NewState(), mock, time.Second)

	_, err := engine.Decide(context.Background(), testVector)
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, 1, mock.Requests(OutcomeError))
	assert.Equal(t, 1, mock.Failures(string(KindUnavailable)))
}

func TestDecideLoadFailedCarriesReason(t *testing.T) {
	st := model.NewState()
	st.MarkFailed("not found: /opt/models/heart.json")
	engine := New(st, &MockMetrics{}, time.Second)

	// Every request on a failed state degrades the same way.
	for run := 0; run < 3; run++ {
		_, err := engine.Decide(context.Background(), testVector)
		assert.Equal(t, KindUnavailable, KindOf(err))

		var rerr *Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "not found: /opt/models/heart.json", rerr.Msg)
	}
}

func TestDecidePredictError(t *testing.T) {
	h := &stubHandle{err: fmt.Errorf("shape mismatch")}
	mock := &MockMetrics{}
	engine := New(loadedState(h, false), mock, time.Second)

	_, err := engine.Decide(context.Background(), testVector)
	require.Error(t, err)
	assert.Equal(t, KindPrediction, KindOf(err))
	assert.Equal(t, 1, mock.Failures(string(KindPrediction)))
}

func TestDecideTimeoutMapsToUnavailable(t *testing.T) {
	h := &stubHandle{label: 1, delay: 200 * time.Millisecond}
	engine := New(loadedState(h, false), &MockMetrics{}, 20*time.Millisecond)

	_, err := engine.Decide(context.Background(), testVector)
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestDecideRejectsBadLabel(t *testing.T) {
	h := &stubHandle{label: 2}
	engine := New(loadedState(h, false), &MockMetrics{}, time.Second)

	_, err := engine.Decide(context.Background(), testVector)
	require.Error(t, err)
	assert.Equal(t, KindPrediction, KindOf(err))
}

func TestDecideRejectsBadProbability(t *testing.T) {
	h := &stubProbaHandle{stubHandle: stubHandle{label: 1}, probs: [2]float64{-0.2, 1.2}}
	engine := New(loadedState(h, true), &MockMetrics{}, time.Second)

	_, err := engine.Decide(context.Background(), testVector)
	require.Error(t, err)
	assert.Equal(t, KindPrediction, KindOf(err))
}

func TestInFlightReturnsToBaseline(t *testing.T) {
	tests := []struct {
		name   string
		handle model.Handle
	}{
		{name: "success path", handle: &stubProbaHandle{stubHandle: stubHandle{label: 1}, probs: [2]float64{0.2, 0.8}}},
		{name: "predict error path", handle: &stubHandle{err: fmt.Errorf("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockMetrics{}
			engine := New(loadedState(tt.handle, true), mock, time.Second)

			_, _ = engine.Decide(context.Background(), testVector)

			assert.Equal(t, 0, mock.InFlight())
			assert.Equal(t, 1, mock.MaxInFlight())
			assert.Equal(t, 1, mock.LatencyCount())
		})
	}
}

func TestInFlightBaselineOnUnloadedState(t *testing.T) {
	mock := &MockMetrics{}
	engine := New(model.NewState(), mock, time.Second)

	_, _ = engine.Decide(context.Background(), testVector)

	assert.Equal(t, 0, mock.InFlight())
}

func TestDecideProbaError(t *testing.T) {
	h := &stubProbaHandle{stubHandle: stubHandle{label: 1}, perr: fmt.Errorf("proba blew up")}
	engine := New(loadedState(h, true), &MockMetrics{}, time.Second)

	_, err := engine.Decide(context.Background(), testVector)
	require.Error(t, err)
	assert.Equal(t, KindPrediction, KindOf(err))
}

func TestConcurrentDecides(t *testing.T) {
	h := &stubProbaHandle{stubHandle: stubHandle{label: 1}, probs: [2]float64{0.25, 0.75}}
	mock := &MockMetrics{}
	engine := New(loadedState(h, true), mock, time.Second)

	const workers = 8
	const perWorker = 25

	done := make(chan bool, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for j := 0; j < perWorker; j++ {
				_, err := engine.Decide(context.Background(), testVector)
				assert.NoError(t, err)
			}
			done <- true
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	assert.Equal(t, workers*perWorker, mock.Requests(OutcomeSuccess)) // 8 workers x 25 each
	assert.Equal(t, 0, mock.InFlight())
}
