package retry

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of a single invocation of the retried operation.
// Exactly one of Value and Err is meaningful: Err non-nil means the invocation
// failed and Value holds the zero value.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Raised reports whether the invocation failed.
func (o Outcome[T]) Raised() bool {
	return o.Err != nil
}

// State is the mutable execution record of one orchestration run. A retryer
// creates a fresh State per run, mutates it across attempts, and returns it
// from RunState once the run reaches a terminal outcome. It is owned by a
// single run and is not safe for concurrent mutation.
type State[T any] struct {
	// ID uniquely identifies the run, for log and trace correlation.
	ID string

	// StartTime is when the run started. EndTime is set exactly once, when
	// the run produces its first terminal outcome, after hooks have run.
	StartTime time.Time
	EndTime   time.Time

	// Attempts counts strategy applications, not raw invocations: the
	// initial invocation and any attempt rejected by the eligibility filter
	// consume no strategy application.
	Attempts int

	// Value and Err hold the last captured outcome. They are cleared before
	// every new invocation so stale results never leak across attempts.
	Value T
	Err   error

	// strategy is the strategy currently governing retries; nil means the
	// next one must be pulled from the chain. At most one strategy is active
	// at a time.
	strategy Strategy[T]
	chain    []Strategy[T]
}

func newState[T any](chain []Strategy[T], now time.Time) *State[T] {
	// The chain slice is copied so that a retryer can be reused without its
	// configured slice being consumed; the strategies themselves keep their
	// state across runs, as they are owned by the caller.
	return &State[T]{
		ID:        uuid.NewString(),
		StartTime: now,
		chain:     append([]Strategy[T](nil), chain...),
	}
}

// Raised reports whether the last invocation failed.
func (s *State[T]) Raised() bool {
	return s.Err != nil
}

// Outcome returns the last captured outcome.
func (s *State[T]) Outcome() Outcome[T] {
	return Outcome[T]{Value: s.Value, Err: s.Err}
}

// clear wipes the transient outcome fields before a new invocation.
func (s *State[T]) clear() {
	var zero T

	s.Value = zero
	s.Err = nil
}
