package countdown

import (
	"errors"
	"fmt"
)

// TransitionErrorCode categorizes rejected transitions.
type TransitionErrorCode string

const (
	// ErrCodeZeroDuration indicates a start with nothing left to count down.
	ErrCodeZeroDuration TransitionErrorCode = "ZERO_DURATION"

	// ErrCodeAlreadyRunning indicates a start while the countdown is running.
	ErrCodeAlreadyRunning TransitionErrorCode = "ALREADY_RUNNING"

	// ErrCodeExpired indicates a start after expiry without new input or reset.
	ErrCodeExpired TransitionErrorCode = "EXPIRED"

	// ErrCodeInputLocked indicates an input edit while the countdown is running.
	ErrCodeInputLocked TransitionErrorCode = "INPUT_LOCKED"
)

// TransitionError reports a transition the state machine refused.
// The State is left exactly as it was before the call.
type TransitionError struct {
	Code    TransitionErrorCode
	From    Status
	Message string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s (status=%s)", e.Code, e.Message, e.From)
}

func newTransitionError(code TransitionErrorCode, from Status, message string) *TransitionError {
	return &TransitionError{Code: code, From: from, Message: message}
}

// IsZeroDuration returns true if err rejects a start with no time to count.
// Uses errors.As to handle wrapped errors.
func IsZeroDuration(err error) bool {
	return hasCode(err, ErrCodeZeroDuration)
}

// IsInputLocked returns true if err rejects an input edit during a run.
func IsInputLocked(err error) bool {
	return hasCode(err, ErrCodeInputLocked)
}

func hasCode(err error, code TransitionErrorCode) bool {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}
