package services

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionNotFound is returned when no submission row matches the id.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrBatchNotFound is returned when no batch row matches the id.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrInvalidTransition is returned when a state change is attempted on a
	// submission that is not in the required status.
	ErrInvalidTransition = errors.New("invalid submission state transition")

	// ErrCapacityRaceLost is returned when a concurrent accept filled the
	// batch between allocation and the conditional write. Callers retry
	// allocation.
	ErrCapacityRaceLost = errors.New("batch filled by a concurrent accept")

	// ErrCycleAlreadyRunning is returned when another process holds the
	// release cycle advisory lock.
	ErrCycleAlreadyRunning = errors.New("release cycle already running")

	// ErrBatchNotClosed is returned when a batch delete is attempted while
	// members are still live.
	ErrBatchNotClosed = errors.New("batch has members that are not closed or denied")
)

// ValidationError marks malformed input rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ExternalServiceError wraps a publisher or notifier failure. It never
// corrupts local state; callers log it and either retry later (publish) or
// flag for follow-up (close).
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
