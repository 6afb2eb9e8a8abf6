package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cardiopredict/internal/cfg"
	"cardiopredict/internal/dashboard"
	"cardiopredict/internal/journal"
	"cardiopredict/internal/metrics"
	"cardiopredict/internal/model"
	"cardiopredict/internal/risk"
	"cardiopredict/internal/server"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional and absence is not an error
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components
	m := metrics.New()
	state := loadModel(ctx, c, m)

	store := initializeJournal(c)
	if store != nil {
		defer store.Close()
	}

	dash := startDashboard(c, state, store)
	if dash != nil {
		defer stopDashboard(dash)
	}

	engine := risk.New(state, m, c.PredictTimeout)
	srv := server.New(&c, state, engine, m, store, dash)

	go waitForShutdown(ctx, cancel)

	log.Info().
		Str("addr", c.Addr()).
		Str("model", c.ResolveModelPath()).
		Str("status", state.Snapshot().Availability.String()).
		Bool("monitoring", c.Monitoring).
		Msg("serving predictions")

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

// setupLogging applies the configured level to the global logger
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// loadModel resolves and loads the configured artifact exactly once. A failed
// load keeps the process up with predictions degraded to unavailable.
func loadModel(ctx context.Context, c cfg.Settings, m *metrics.Metrics) *model.State {
	cacheDir := ""
	if c.DataPath != "" {
		cacheDir = filepath.Join(c.DataPath, "artifacts")
	}
	loader := model.NewLoader(cacheDir, c.FetchTimeout, m)
	return loader.Load(ctx, c.ResolveModelPath())
}

// initializeJournal opens decision persistence if DATA_PATH is configured
func initializeJournal(c cfg.Settings) *journal.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := journal.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("journal initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// startDashboard brings up the monitoring dashboard when enabled
func startDashboard(c cfg.Settings, state *model.State, store *journal.Store) *dashboard.Dashboard {
	if !c.Monitoring {
		return nil
	}
	dash := dashboard.New(state, store, c.DashboardPort)
	if err := dash.Start(); err != nil {
		log.Warn().Err(err).Msg("dashboard failed to start, continuing without it")
		return nil
	}
	log.Info().Int("port", c.DashboardPort).Msg("dashboard started")
	return dash
}

func stopDashboard(dash *dashboard.Dashboard) {
	if err := dash.Stop(); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown failed")
	}
}

// waitForShutdown waits for shutdown signals and cancels the root context
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()
}
