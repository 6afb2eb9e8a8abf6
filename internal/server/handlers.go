package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"cardiopredict/internal/dashboard"
	"cardiopredict/internal/journal"
	"cardiopredict/internal/patient"
	"cardiopredict/internal/risk"
)

// handleHealth reports service liveness. It answers 200 regardless of model
// availability so orchestrators keep the process alive while predictions
// are degraded.
func (s *Server) handleHealth(c *gin.Context) {
	status := "unavailable"
	if s.state.Ready() {
		status = "ready"
	}

	resp := gin.H{
		"message": "heart disease risk API",
		"model":   status,
	}
	if s.settings.Monitoring {
		resp["metrics"] = "/metrics"
	}
	c.JSON(http.StatusOK, resp)
}

// handlePredict scores one patient record.
func (s *Server) handlePredict(c *gin.Context) {
	started := time.Now()

	var rec patient.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		s.rejectValidation(c, started, bindDetails(err))
		return
	}
	if err := rec.Validate(); err != nil {
		s.rejectValidation(c, started, err.Error())
		return
	}
	features, err := rec.Vector()
	if err != nil {
		s.rejectValidation(c, started, err.Error())
		return
	}

	decision, err := s.engine.Decide(c.Request.Context(), features)
	elapsed := time.Since(started)
	if err != nil {
		kind := risk.KindOf(err)
		status, title := statusFor(kind)
		c.JSON(status, gin.H{
			"error":   title,
			"details": err.Error(),
		})
		s.finish(features, risk.Decision{}, elapsed, string(kind), err.Error())
		return
	}

	resp := gin.H{
		"prediction":  decision.Label,
		"probability": decision.Probability,
		"risk":        decision.Tier,
	}
	if s.settings.Monitoring {
		resp["confidence"] = math.Round(decision.Probability*10000) / 10000
		resp["response_time"] = fmt.Sprintf("%.3fs", elapsed.Seconds())
	}
	c.JSON(http.StatusOK, resp)

	s.finish(features, decision, elapsed, "", "")
}

// rejectValidation answers a request that never reached the engine.
func (s *Server) rejectValidation(c *gin.Context, started time.Time, details string) {
	elapsed := time.Since(started)
	if s.metrics != nil {
		s.metrics.RequestsInc(risk.OutcomeError)
		s.metrics.FailuresInc(string(risk.KindValidation))
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": details,
	})
	s.finish(nil, risk.Decision{}, elapsed, string(risk.KindValidation), details)
}

// finish publishes the request outcome to the dashboard and the journal.
// Both are best-effort: a journal failure is counted and logged, never
// surfaced to the client.
func (s *Server) finish(features []float64, decision risk.Decision, elapsed time.Duration, kind, errMsg string) {
	outcome := risk.OutcomeSuccess
	if errMsg != "" {
		outcome = risk.OutcomeError
	}

	if s.dash != nil {
		s.dash.Publish(dashboard.Event{
			Outcome:     outcome,
			Label:       decision.Label,
			Probability: decision.Probability,
			Risk:        string(decision.Tier),
			LatencyMS:   float64(elapsed.Microseconds()) / 1000.0,
			Kind:        kind,
		})
	}

	if s.journal != nil {
		entry := journal.Entry{
			Timestamp:   time.Now(),
			Features:    features,
			Label:       decision.Label,
			Probability: decision.Probability,
			Risk:        string(decision.Tier),
			LatencyMS:   float64(elapsed.Microseconds()) / 1000.0,
			Outcome:     outcome,
			Error:       errMsg,
		}
		if err := s.journal.Append(entry); err != nil {
			if s.metrics != nil {
				s.metrics.JournalErrorsInc()
			}
			log.Warn().Err(err).Msg("journal append failed")
		}
	}
}

// statusFor maps an engine failure kind to the HTTP surface.
func statusFor(kind risk.Kind) (int, string) {
	switch kind {
	case risk.KindUnavailable:
		return http.StatusServiceUnavailable, "service unavailable"
	case risk.KindPrediction:
		return http.StatusBadRequest, "prediction failed"
	case risk.KindValidation:
		return http.StatusBadRequest, "validation failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// bindDetails turns gin binding errors into the field-level messages the
// API contract promises.
func bindDetails(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		// Field names are single words, so the JSON key is the lowercase
		// Go field name.
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "oneof":
			return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
		case "gt":
			return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		case "gte":
			return fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "lte":
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		default:
			return field + " is invalid"
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field + " must be a number"
	}

	return err.Error()
}
