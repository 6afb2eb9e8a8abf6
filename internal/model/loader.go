package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// MetricsInterface covers the gauges the loader maintains. See the metrics
// package for the production implementation.
type MetricsInterface interface {
	ModelLoadedSet(loaded bool)
	ModelAgeSet(seconds float64)
}

// Loader resolves an artifact location into a State. Load never returns an
// error: any failure is captured in the state so the caller can start
// serving regardless and report unavailability per request.
type Loader struct {
	cacheDir     string
	fetchTimeout time.Duration
	metrics      MetricsInterface
}

func NewLoader(cacheDir string, fetchTimeout time.Duration, metrics MetricsInterface) *Loader {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "cardiopredict")
	}
	return &Loader{cacheDir: cacheDir, fetchTimeout: fetchTimeout, metrics: metrics}
}

// Load resolves location (local path or http(s) URL), validates the artifact
// and returns a State that is either Loaded or LoadFailed.
func (l *Loader) Load(ctx context.Context, location string) *State {
	state := NewState()

	path := location
	if isRemoteURL(location) {
		fetched, err := newFetcher(l.cacheDir, l.fetchTimeout).Fetch(ctx, location)
		if err != nil {
			l.fail(state, fmt.Sprintf("artifact fetch failed: %v", err))
			return state
		}
		log.Info().Str("url", location).Str("path", fetched).Msg("artifact downloaded")
		path = fetched
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			l.fail(state, fmt.Sprintf("not found: %s", path))
		} else {
			l.fail(state, fmt.Sprintf("stat %s: %v", path, err))
		}
		return state
	}

	var (
		handle Handle
		info   ArtifactInfo
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		handle, info, err = loadForest(path)
	case ".onnx":
		handle, info, err = loadBridge(ctx, path)
	default:
		err = fmt.Errorf("unsupported artifact format %q", filepath.Ext(path))
	}
	if err != nil {
		l.fail(state, err.Error())
		return state
	}

	state.MarkLoaded(handle, info)
	if l.metrics != nil {
		l.metrics.ModelLoadedSet(true)
		if !info.ModTime.IsZero() {
			l.metrics.ModelAgeSet(time.Since(info.ModTime).Seconds())
		}
	}
	log.Info().
		Str("path", path).
		Str("format", info.Format).
		Str("version", info.Version).
		Bool("probabilities", info.ProbaCapable).
		Msg("model loaded")
	return state
}

func (l *Loader) fail(state *State, reason string) {
	state.MarkFailed(reason)
	if l.metrics != nil {
		l.metrics.ModelLoadedSet(false)
	}
	log.Error().Str("reason", reason).Msg("model load failed, predictions will be rejected as unavailable")
}

func isRemoteURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
