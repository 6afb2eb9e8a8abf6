// Package server exposes the prediction HTTP API. It binds the patient
// record schema, the decision engine, and the optional monitoring surfaces
// (Prometheus endpoint, decision journal, dashboard events) behind a gin
// router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"cardiopredict/internal/cfg"
	"cardiopredict/internal/dashboard"
	"cardiopredict/internal/journal"
	"cardiopredict/internal/metrics"
	"cardiopredict/internal/model"
	"cardiopredict/internal/risk"
)

// Server routes prediction traffic. The journal and dashboard are optional;
// a nil value disables that surface without changing the API behavior.
type Server struct {
	settings *cfg.Settings
	state    *model.State
	engine   *risk.Engine
	metrics  *metrics.Metrics
	journal  *journal.Store
	dash     *dashboard.Dashboard
}

func New(settings *cfg.Settings, state *model.State, engine *risk.Engine, m *metrics.Metrics, store *journal.Store, dash *dashboard.Dashboard) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		settings: settings,
		state:    state,
		engine:   engine,
		metrics:  m,
		journal:  store,
		dash:     dash,
	}
}

// Router builds the gin engine with all routes wired. The /metrics endpoint
// exists only when monitoring is enabled.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.observe())

	router.GET("/", s.handleHealth)
	router.POST("/predict", s.handlePredict)
	if s.settings.Monitoring {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return router
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.settings.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Bool("monitoring", s.settings.Monitoring).
			Bool("model_ready", s.state.Ready()).
			Msg("starting prediction server")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("prediction server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("prediction server stopped")
	return nil
}

// observe records request-level metrics and a debug log line per request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.HTTPRequestObserve(c.Request.Method, path, c.Writer.Status(), elapsed.Seconds())
		}
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", elapsed).
			Msg("request served")
	}
}
