// Package model loads serialized classifier artifacts and tracks whether a
// usable scored model exists for the lifetime of the process.
//
// Loading happens once at startup and never aborts the process: a missing or
// corrupt artifact leaves the service up with prediction degraded to
// unavailable. There is no background reload; replacing the artifact requires
// a restart.
package model

import (
	"context"
	"sync"
	"time"
)

// Handle is the capability every scored model provides: map an ordered
// feature vector to a class label.
type Handle interface {
	Predict(ctx context.Context, features []float64) (int, error)
}

// ProbaHandle is the optional calibrated-probability capability. Index 0 is
// the negative class, index 1 the positive class.
type ProbaHandle interface {
	Handle
	PredictProba(ctx context.Context, features []float64) ([2]float64, error)
}

// Availability is the load outcome for the process lifetime.
type Availability int

const (
	NotLoaded Availability = iota
	Loaded
	LoadFailed
)

func (a Availability) String() string {
	switch a {
	case Loaded:
		return "LOADED"
	case LoadFailed:
		return "LOAD_FAILED"
	default:
		return "NOT_LOADED"
	}
}

// ArtifactInfo describes a successfully loaded artifact.
type ArtifactInfo struct {
	Path         string
	Format       string
	Schema       string
	Version      string
	TrainedAt    time.Time
	ModTime      time.Time
	ProbaCapable bool
}

// Age returns how old the artifact file is.
func (i ArtifactInfo) Age() time.Duration {
	if i.ModTime.IsZero() {
		return 0
	}
	return time.Since(i.ModTime)
}

// State holds the process-wide model availability. It is written once by the
// loader before serving starts and read on every request; handlers receive it
// by injection rather than through a package global.
type State struct {
	mu           sync.RWMutex
	availability Availability
	handle       Handle
	proba        ProbaHandle
	reason       string
	info         ArtifactInfo
}

// Snapshot is a consistent read of the state. Proba is non-nil only when the
// loaded handle declared calibrated-probability capability at load time.
type Snapshot struct {
	Availability Availability
	Handle       Handle
	Proba        ProbaHandle
	Reason       string
	Info         ArtifactInfo
}

func NewState() *State {
	return &State{availability: NotLoaded}
}

// MarkLoaded records a usable handle. The probability capability is fixed
// here, once: a handle that implements ProbaHandle is still served without
// probabilities when the artifact does not declare them.
func (s *State) MarkLoaded(handle Handle, info ArtifactInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availability = Loaded
	s.handle = handle
	s.info = info
	s.reason = ""
	s.proba = nil
	if info.ProbaCapable {
		if ph, ok := handle.(ProbaHandle); ok {
			s.proba = ph
		}
	}
}

// MarkFailed records a load failure with the reason operators will see on
// every degraded request.
func (s *State) MarkFailed(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availability = LoadFailed
	s.handle = nil
	s.proba = nil
	s.reason = reason
	s.info = ArtifactInfo{}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Availability: s.availability,
		Handle:       s.handle,
		Proba:        s.proba,
		Reason:       s.reason,
		Info:         s.info,
	}
}

// Ready reports whether prediction requests can be served.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availability == Loaded
}

// FailureReason is the human-readable explanation for a state that cannot
// serve predictions.
func (s Snapshot) FailureReason() string {
	if s.Availability == Loaded {
		return ""
	}
	if s.Reason != "" {
		return s.Reason
	}
	return "model not loaded"
}
