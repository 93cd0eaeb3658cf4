package commands

import "time"

// ExecutionResult is the outcome of one top-level line.
type ExecutionResult struct {
	Status   int
	Err      error
	Duration time.Duration
}

// Success reports whether the line ran without error and exited zero.
func (r ExecutionResult) Success() bool {
	return r.Err == nil && r.Status == 0
}

// ExitCode is the status recorded in history, errors always count as
// failures.
func (r ExecutionResult) ExitCode() int {
	if r.Err != nil && r.Status == 0 {
		return 1
	}
	return r.Status
}

// DurationMs is the duration rounded down to whole milliseconds.
func (r ExecutionResult) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Recorder receives one record per top-level line.
type Recorder interface {
	AddWithDetails(command string, exitCode int, durationMs int64) error
}

// Track times fn.
func Track(fn func() (int, error)) ExecutionResult {
	start := time.Now()
	status, err := fn()
	return ExecutionResult{
		Status:   status,
		Err:      err,
		Duration: time.Since(start),
	}
}
