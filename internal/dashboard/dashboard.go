// Package dashboard provides real-time serving oversight for the prediction
// service. It aggregates per-request decision events and exposes them through
// a web page, a JSON API, and WebSocket streaming for live updates.
//
// The dashboard runs on its own port, separate from the prediction API, so
// operators can watch traffic without touching the serving surface.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"cardiopredict/internal/journal"
	"cardiopredict/internal/model"
	"cardiopredict/internal/risk"
)

// Event is one served prediction, published by the HTTP layer after each
// request finishes.
type Event struct {
	Outcome     string  // "success" or "error"
	Label       int     // Returned class label on success
	Probability float64 // Positive-class probability on success
	Risk        string  // "HIGH" or "LOW" on success
	LatencyMS   float64 // End-to-end request latency in milliseconds
	Kind        string  // Failure kind on error
}

// Stats is the aggregate view streamed to dashboard clients.
type Stats struct {
	Timestamp time.Time `json:"timestamp"`

	// Model status
	ModelStatus       string  `json:"modelStatus"`
	ModelFormat       string  `json:"modelFormat,omitempty"`
	ModelVersion      string  `json:"modelVersion,omitempty"`
	ModelAgeSeconds   float64 `json:"modelAgeSeconds"`
	ProbabilitiesOn   bool    `json:"probabilitiesEnabled"`
	UnavailableReason string  `json:"unavailableReason,omitempty"`

	// Serving counters
	TotalRequests int64   `json:"totalRequests"`
	SuccessCount  int64   `json:"successCount"`
	ErrorCount    int64   `json:"errorCount"`
	ErrorRate     float64 `json:"errorRate"`

	// Risk distribution
	HighRiskCount  int64   `json:"highRiskCount"`
	LowRiskCount   int64   `json:"lowRiskCount"`
	HighRiskRate   float64 `json:"highRiskRate"`
	AvgProbability float64 `json:"avgProbability"`

	// Latency
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	MaxLatencyMs float64 `json:"maxLatencyMs"`

	JournaledDecisions int     `json:"journaledDecisions"`
	UptimeSeconds      float64 `json:"uptimeSeconds"`
	LastDecisionAt     string  `json:"lastDecisionAt,omitempty"`
}

// Dashboard aggregates decision events and serves them on a dedicated port.
type Dashboard struct {
	state   *model.State
	journal *journal.Store // nil when journaling is disabled
	server  *http.Server

	upgrader         websocket.Upgrader
	clients          map[*websocket.Conn]bool
	clientsMu        sync.RWMutex
	broadcastChannel chan Stats
	stopChannel      chan struct{}
	isRunning        bool
	mu               sync.RWMutex

	// Aggregates fed by Publish
	aggMu          sync.Mutex
	started        time.Time
	totalRequests  int64
	successCount   int64
	errorCount     int64
	highCount      int64
	lowCount       int64
	probabilitySum float64
	latencySum     float64
	latencyMax     float64
	lastDecision   time.Time
}

// New creates a dashboard bound to the given port. The journal store may be
// nil; the recent-decisions API then serves an empty list.
func New(state *model.State, store *journal.Store, port int) *Dashboard {
	d := &Dashboard{
		state:            state,
		journal:          store,
		upgrader:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:          make(map[*websocket.Conn]bool),
		broadcastChannel: make(chan Stats, 100),
		stopChannel:      make(chan struct{}),
		started:          time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", d.handleDashboard).Methods("GET")
	r.HandleFunc("/api/stats", d.handleStatsAPI).Methods("GET")
	r.HandleFunc("/api/recent", d.handleRecentAPI).Methods("GET")
	r.HandleFunc("/ws", d.handleWebSocket).Methods("GET")

	d.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return d
}

// Publish records one served prediction. It is called on the request path
// and must stay cheap.
func (d *Dashboard) Publish(event Event) {
	d.aggMu.Lock()
	defer d.aggMu.Unlock()

	d.totalRequests++
	if event.Outcome == risk.OutcomeSuccess {
		d.successCount++
		if event.Risk == string(risk.TierHigh) {
			d.highCount++
		} else {
			d.lowCount++
		}
		d.probabilitySum += event.Probability
	} else {
		d.errorCount++
	}
	d.latencySum += event.LatencyMS
	if event.LatencyMS > d.latencyMax {
		d.latencyMax = event.LatencyMS
	}
	d.lastDecision = time.Now()
}

// Start starts the dashboard server and its background collectors.
func (d *Dashboard) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	go d.statsCollector()
	go d.clientBroadcaster()

	go func() {
		log.Info().
			Str("address", d.server.Addr).
			Msg("starting dashboard server")

		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("dashboard server failed")
		}
	}()

	d.isRunning = true
	return nil
}

// Stop shuts the dashboard down, closing every WebSocket client first.
func (d *Dashboard) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isRunning {
		return nil
	}

	close(d.stopChannel)

	d.clientsMu.Lock()
	for client := range d.clients {
		client.Close()
	}
	d.clients = make(map[*websocket.Conn]bool)
	d.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown dashboard server")
		return err
	}

	d.isRunning = false
	log.Info().Msg("dashboard stopped")
	return nil
}

// statsCollector snapshots the aggregates every second and queues them for
// broadcast. A full queue drops the tick rather than blocking.
func (d *Dashboard) statsCollector() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := d.CurrentStats()
			select {
			case d.broadcastChannel <- stats:
			default:
			}
		case <-d.stopChannel:
			return
		}
	}
}

// clientBroadcaster fans queued stats out to all connected clients.
func (d *Dashboard) clientBroadcaster() {
	for {
		select {
		case stats := <-d.broadcastChannel:
			d.broadcastToClients(stats)
		case <-d.stopChannel:
			return
		}
	}
}

// CurrentStats snapshots the aggregate view. It backs both the JSON API and
// the WebSocket stream.
func (d *Dashboard) CurrentStats() Stats {
	snap := d.state.Snapshot()

	stats := Stats{
		Timestamp:       time.Now(),
		ModelStatus:     snap.Availability.String(),
		ProbabilitiesOn: snap.Proba != nil,
	}
	if snap.Availability == model.Loaded {
		stats.ModelFormat = snap.Info.Format
		stats.ModelVersion = snap.Info.Version
		stats.ModelAgeSeconds = snap.Info.Age().Seconds()
	} else {
		stats.UnavailableReason = snap.FailureReason()
	}

	d.aggMu.Lock()
	stats.TotalRequests = d.totalRequests
	stats.SuccessCount = d.successCount
	stats.ErrorCount = d.errorCount
	stats.HighRiskCount = d.highCount
	stats.LowRiskCount = d.lowCount
	if d.totalRequests > 0 {
		stats.ErrorRate = float64(d.errorCount) / float64(d.totalRequests)
		stats.AvgLatencyMs = d.latencySum / float64(d.totalRequests)
	}
	if d.successCount > 0 {
		stats.HighRiskRate = float64(d.highCount) / float64(d.successCount)
		stats.AvgProbability = d.probabilitySum / float64(d.successCount)
	}
	stats.MaxLatencyMs = d.latencyMax
	stats.UptimeSeconds = time.Since(d.started).Seconds()
	if !d.lastDecision.IsZero() {
		stats.LastDecisionAt = d.lastDecision.Format(time.RFC3339)
	}
	d.aggMu.Unlock()

	if d.journal != nil {
		if count, err := d.journal.Count(); err == nil {
			stats.JournaledDecisions = count
		}
	}

	return stats
}

func (d *Dashboard) broadcastToClients(stats Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal stats for broadcast")
		return
	}

	// Full lock: failed clients are removed during iteration.
	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()

	for client := range d.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(d.clients, client)
		}
	}
}

// handleStatsAPI serves the current aggregate view as JSON.
func (d *Dashboard) handleStatsAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d.CurrentStats())
}

// handleRecentAPI serves the most recent journaled decisions, newest first.
func (d *Dashboard) handleRecentAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if d.journal == nil {
		w.Write([]byte("[]"))
		return
	}

	entries, err := d.journal.Recent(20)
	if err != nil {
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	json.NewEncoder(w).Encode(entries)
}

// handleWebSocket registers a client for streamed stats updates.
func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	// Send the initial snapshot before registering so this write cannot
	// overlap a broadcast to the same connection.
	if data, err := json.Marshal(d.CurrentStats()); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	d.clientsMu.Lock()
	d.clients[conn] = true
	d.clientsMu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	d.clientsMu.Lock()
	delete(d.clients, conn)
	d.clientsMu.Unlock()
}

// handleDashboard serves the dashboard HTML page.
func (d *Dashboard) handleDashboard(w http.ResponseWriter, r *http.Request) {
	t, err := template.New("dashboard").Parse(dashboardPage)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	t.Execute(w, nil)
}
