// Package errors provides error types and utilities for the jobpool library.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrQueueFull          = errors.New("worker queue is full")
	ErrNoWorkersAvailable = errors.New("no running workers available")
	ErrShuttingDown       = errors.New("pool is shutting down")
	ErrNotStarted         = errors.New("pool has not been started")
	ErrAlreadyStarted     = errors.New("pool already started")
	ErrCancelled          = errors.New("job cancelled")
	ErrNilJob             = errors.New("job function cannot be nil")
	ErrStopTimeout        = errors.New("worker did not stop before deadline")
	ErrAlreadyInitialized = errors.New("default pool already initialized")
	ErrNotInitialized     = errors.New("default pool not initialized")
)

// SubmissionError represents a job that was rejected at submit time.
// Rejected jobs never enter the system and none of their callbacks are
// ever invoked.
type SubmissionError struct {
	Mode string // execution mode of the rejected job
	Err  error  // underlying reason
}

func (e *SubmissionError) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("submit %s job: %v", e.Mode, e.Err)
	}
	return fmt.Sprintf("submit job: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ExecutionError represents a failure inside a job body. It is the
// value delivered to onError on the drain side; raw panics and errors
// never cross goroutine boundaries directly.
type ExecutionError struct {
	JobID string // envelope identity
	Mode  string // execution mode
	Err   error  // underlying error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("job %s (%s): %v", e.JobID, e.Mode, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewSubmissionError creates a new submission error
func NewSubmissionError(mode string, err error) error {
	return &SubmissionError{Mode: mode, Err: err}
}

// NewExecutionError creates a new execution error
func NewExecutionError(jobID, mode string, err error) error {
	return &ExecutionError{JobID: jobID, Mode: mode, Err: err}
}

// IsRetryable checks if a submission failure may succeed on a later
// attempt (queue pressure rather than terminal pool state).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrQueueFull)
}

// IsCancelled checks if an error represents a cancelled job.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
