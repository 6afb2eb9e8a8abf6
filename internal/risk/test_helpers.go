package risk

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu            sync.Mutex
	requests      map[string]int
	predictions   map[int]int
	failures      map[string]int
	latencySum    float64
	latencyCount  int
	probabilities []float64
	inFlight      int
	maxInFlight   int
}

func (m *MockMetrics) RequestsInc(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requests == nil {
		m.requests = make(map[string]int)
	}
	m.requests[outcome]++
}

func (m *MockMetrics) PredictionsInc(label int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.predictions == nil {
		m.predictions = make(map[int]int)
	}
	m.predictions[label]++
}

func (m *MockMetrics) FailuresInc(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[kind]++
}

func (m *MockMetrics) LatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
	m.latencyCount++
}

func (m *MockMetrics) ProbabilityObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probabilities = append(m.probabilities, v)
}

func (m *MockMetrics) InFlightInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
}

func (m *MockMetrics) InFlightDec() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

// Requests returns the recorded count for an outcome class.
func (m *MockMetrics) Requests(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[outcome]
}

// Predictions returns the recorded count for a label.
func (m *MockMetrics) Predictions(label int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[label]
}

// Failures returns the recorded count for a failure kind.
func (m *MockMetrics) Failures(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[kind]
}

// InFlight returns the current gauge value.
func (m *MockMetrics) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// MaxInFlight returns the highest gauge value observed.
func (m *MockMetrics) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// LatencyCount returns how many latencies were observed.
func (m *MockMetrics) LatencyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latencyCount
}

// Probabilities returns a copy of the observed probability values.
func (m *MockMetrics) Probabilities() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.probabilities))
	copy(out, m.probabilities)
	return out
}
