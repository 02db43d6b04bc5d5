package sched

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTaskParameters is returned when a task cannot be constructed.
	ErrInvalidTaskParameters = errors.New("invalid task parameters")
	// ErrSchedulerClosed is returned by Submit once Shutdown has begun.
	ErrSchedulerClosed = errors.New("scheduler closed")
	// ErrDuplicateTask is returned when the same task is submitted twice.
	ErrDuplicateTask = errors.New("task already submitted")
	// ErrExecutionFailure marks every error recorded on a FAILED task.
	ErrExecutionFailure = errors.New("execution failure")

	errShutdownTimeout = errors.New("interrupted by shutdown timeout")
)

// ExecutionError records why a task ended in FAILED. It is stored on the
// task and never returned to the submitter.
type ExecutionError struct {
	TaskID TaskID
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task %d: %v: %v", e.TaskID, ErrExecutionFailure, e.Err)
}

// Unwrap lets errors.Is match both ErrExecutionFailure and the cause.
func (e *ExecutionError) Unwrap() []error {
	return []error{ErrExecutionFailure, e.Err}
}
