package parser

import (
	"errors"
	"fmt"
)

// User-facing status strings. Every parse outcome is reduced to one of these.
const (
	MsgEmptyInput = "Please enter appointment details"
	MsgNoRecords  = "No valid appointments found. Please check the format and try again."
	MsgFailure    = "Failed to parse appointment details. Please check the format and try again."
)

var (
	// ErrEmptyInput is returned when the input is blank or whitespace-only.
	ErrEmptyInput = errors.New("parser: empty input")
	// ErrNoRecords is returned when no date anchor produced an appointment.
	ErrNoRecords = errors.New("parser: no appointments found")
)

// FailureError wraps anything that went wrong while building records, such
// as an unknown month name or a recovered panic.
type FailureError struct {
	Err error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("parser: unexpected failure: %v", e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// StatusMessage converts a Parse error into the message shown to the user.
// A nil error yields an empty string.
func StatusMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrEmptyInput):
		return MsgEmptyInput
	case errors.Is(err, ErrNoRecords):
		return MsgNoRecords
	default:
		return MsgFailure
	}
}
