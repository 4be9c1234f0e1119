package utils

import "time"

// Stopwatch measures the wall-clock time of one operation.
type Stopwatch struct {
	start   time.Time
	elapsed time.Duration
	stopped bool
}

// StartStopwatch returns a running Stopwatch.
func StartStopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Stop freezes the measurement and returns it. Later calls return the
// first measurement.
func (s *Stopwatch) Stop() time.Duration {
	if !s.stopped {
		s.elapsed = time.Since(s.start)
		s.stopped = true
	}
	return s.elapsed
}

// Elapsed returns the frozen duration once stopped, else the running time.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.stopped {
		return s.elapsed
	}
	return time.Since(s.start)
}
