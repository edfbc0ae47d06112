package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline contract violations.
var (
	// ErrStateContract marks a programming-contract violation: an illegal
	// transition or an artifact attached while the item is in the wrong
	// state. Never retried and never reported as a business outcome.
	ErrStateContract = errors.New("state contract violation")

	// ErrTopicRequired is returned when a request carries no topic.
	ErrTopicRequired = errors.New("topic is required")
)

// StageError is the internal failure representation for a pipeline run.
// It carries the state at which the run stopped and whether the failure is
// worth retrying automatically at a higher level.
type StageError struct {
	// State is the lifecycle state at which the failure occurred.
	State DocState

	// Retriable indicates whether a retry of the whole run may succeed.
	Retriable bool

	err error
}

// NewStageError wraps an error as a stage failure at the given state.
func NewStageError(state DocState, err error, retriable bool) *StageError {
	return &StageError{State: state, Retriable: retriable, err: err}
}

// Stagef creates a non-retriable stage failure from a format string.
func Stagef(state DocState, format string, args ...any) *StageError {
	return &StageError{State: state, err: fmt.Errorf(format, args...)}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage failed at %s: %v", e.State, e.err)
}

func (e *StageError) Unwrap() error {
	return e.err
}

// Message returns the underlying failure message without the state prefix.
func (e *StageError) Message() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// AsStageError extracts a StageError from an error chain.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// RejectionError is raised when an approval decision-maker rejects a
// checkpoint. It carries the approver identity and the stated reason.
type RejectionError struct {
	Actor  string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("approval rejected by %s: %s", e.Actor, e.Reason)
}
