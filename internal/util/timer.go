package util

import "time"

// Stopwatch measures the wall time of a single operation.
type Stopwatch struct {
	start time.Time
}

// StartStopwatch returns a stopwatch running from now.
func StartStopwatch() Stopwatch {
	return Stopwatch{start: time.Now()}
}

// Elapsed returns the time since the stopwatch started, or zero for an
// unstarted stopwatch.
func (s Stopwatch) Elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}
