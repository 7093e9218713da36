package fields

import (
	"errors"
	"fmt"
)

// Reason classifies why a document produced no record.
type Reason string

const (
	ReasonInsufficientText  Reason = "INSUFFICIENT_TEXT"
	ReasonMalformedResponse Reason = "MALFORMED_RESPONSE"
	ReasonServiceError      Reason = "SERVICE_ERROR"
)

// ExtractionFailure is the only error type Normalize returns.
type ExtractionFailure struct {
	Reason Reason
	Detail string
	Err    error
}

func (e *ExtractionFailure) Error() string {
	msg := string(e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// Is matches any ExtractionFailure with the same Reason, so the sentinels below
// work with errors.Is.
func (e *ExtractionFailure) Is(target error) bool {
	t, ok := target.(*ExtractionFailure)
	return ok && t.Reason == e.Reason
}

var (
	ErrInsufficientText  = &ExtractionFailure{Reason: ReasonInsufficientText}
	ErrMalformedResponse = &ExtractionFailure{Reason: ReasonMalformedResponse}
	ErrServiceError      = &ExtractionFailure{Reason: ReasonServiceError}
)

// ReasonOf returns the failure reason carried by err, or "" when there is none.
func ReasonOf(err error) Reason {
	var f *ExtractionFailure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}

func fail(reason Reason, detail string, err error) *ExtractionFailure {
	return &ExtractionFailure{Reason: reason, Detail: detail, Err: err}
}
