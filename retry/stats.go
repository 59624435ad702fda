package retry

import "go.uber.org/atomic"

// Stats is a snapshot of a retryer's aggregate counters across runs.
type Stats struct {
	// Runs is the number of orchestration runs started.
	Runs int64
	// Attempts is the number of operation invocations across all runs.
	Attempts int64
	// Successes is the number of runs that terminated with a value.
	Successes int64
	// Exhausted is the number of runs that terminated with an ExhaustedError.
	Exhausted int64
}

// counters is the live, concurrency-safe backing for Stats. A retryer may be
// shared across goroutines, so the counters must not race even though each
// individual run is strictly sequential.
type counters struct {
	runs      atomic.Int64
	attempts  atomic.Int64
	successes atomic.Int64
	exhausted atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Runs:      c.runs.Load(),
		Attempts:  c.attempts.Load(),
		Successes: c.successes.Load(),
		Exhausted: c.exhausted.Load(),
	}
}
