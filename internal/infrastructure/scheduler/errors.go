package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned for a nil task or a non-positive interval
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrAlreadyRunning is returned when registering on a started scheduler
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrDuplicateTask is returned when a task name is registered twice
	ErrDuplicateTask = errors.New("task already registered")
)
