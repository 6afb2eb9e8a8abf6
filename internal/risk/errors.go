package risk

import (
	"errors"
	"fmt"
)

// Kind classifies a serving failure so callers can map it to a response
// without string matching.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindUnavailable Kind = "unavailable"
	KindPrediction  Kind = "prediction"
)

// Error is a classified failure from the decision path.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports input that fails schema or domain checks.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Unavailable reports that no usable model exists for this request.
func Unavailable(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Msg: fmt.Sprintf(format, args...)}
}

// Prediction reports a model that accepted the call but rejected the input
// numerically. cause may be nil.
func Prediction(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrediction, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the failure kind from err. Unclassified errors return "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
