package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNoActiveSession   = errors.New("no active session")
	ErrPipelineBusy      = errors.New("pipeline is not idle")
	ErrNotCapturing      = errors.New("pipeline is not capturing")
	ErrSessionClosed     = errors.New("window session is closed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrToolLoopExhausted = errors.New("tool loop exhausted")
	ErrReactorBusy       = errors.New("task reactor is running")

	ErrCapture         = errors.New("capture failed")
	ErrStorage         = errors.New("storage failed")
	ErrStorageConflict = errors.New("entity already exists")
	ErrAnalysis        = errors.New("analysis failed")
	ErrHandler         = errors.New("event handler failed")

	ErrModelAuth       = errors.New("model authentication failed")
	ErrModelFormat     = errors.New("model response invalid")
	ErrModelConnection = errors.New("model unreachable")
)

// HandlerError reports a failed or panicking event subscriber.
type HandlerError struct {
	Topic      string
	Subscriber int
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d for %s: %v", e.Subscriber, e.Topic, e.Err)
}

func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandler, e.Err}
}
