package scheduler

import "errors"

var (
	// ErrDispatcherNotRunning is returned when submitting to a stopped dispatcher
	ErrDispatcherNotRunning = errors.New("sync dispatcher is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("sync job queue is full")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

var errPanicked = errors.New("sync job panicked")
