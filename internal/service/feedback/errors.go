package feedback

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures for the caller's retry decision.
type Kind int

const (
	// KindValidation - bad input; never retryable without fixing the input.
	// No external call was attempted.
	KindValidation Kind = iota
	// KindSynthesis - the scoring backend failed or returned a
	// schema-nonconforming payload. Retryable with the same feedbackId.
	KindSynthesis
	// KindPersistence - the document store write failed. Retryable with the
	// same feedbackId.
	KindPersistence
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindSynthesis:
		return "SYNTHESIS"
	case KindPersistence:
		return "PERSISTENCE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}

// Error is a typed pipeline failure.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("feedback %s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func validationErr(err error) *Error  { return &Error{Kind: KindValidation, err: err} }
func synthesisErr(err error) *Error   { return &Error{Kind: KindSynthesis, err: err} }
func persistenceErr(err error) *Error { return &Error{Kind: KindPersistence, err: err} }

// KindOf returns the failure kind and true when err is a pipeline error.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Input validation errors.
var (
	ErrEmptyTranscript    = errors.New("transcript is empty")
	ErrMissingInterviewID = errors.New("interview id is missing")
	ErrMissingUserID      = errors.New("user id is missing")
)
