package retry

import (
	"errors"
	"fmt"
)

// ErrStrategyExhausted is returned by Strategy.Apply when the strategy is
// applied after its own stop predicate is already true. The retryers never let
// it escape: it is either absorbed into a chain advance or converted to an
// ExhaustedError.
var ErrStrategyExhausted = errors.New("retry strategy exhausted")

// ErrExhausted matches any ExhaustedError via errors.Is.
var ErrExhausted = errors.New("retries exhausted")

// ErrNilOperation is returned when a retryer is handed a nil operation.
// This is a usage error and is never retried.
var ErrNilOperation = errors.New("retry: nil operation")

// ExhaustedError is the terminal failure of a run: either the strategy chain
// was fully consumed without the operation succeeding, or the captured failure
// was not eligible for retry. LastErr carries the last captured failure as the
// cause, or nil if the run never failed.
type ExhaustedError struct {
	// Attempts is the number of strategy applications performed by the run.
	Attempts int
	// LastErr is the last failure captured from the operation, if any.
	LastErr error
}

func (e *ExhaustedError) Error() string {
	if e.LastErr == nil {
		return fmt.Sprintf("retries exhausted after %d strategy applications", e.Attempts)
	}

	return fmt.Sprintf("retries exhausted after %d strategy applications: %v", e.Attempts, e.LastErr)
}

// Unwrap returns the last captured failure, supporting errors.Is and errors.As
// against the operation's own error kinds.
func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// Is reports whether target is the ErrExhausted sentinel, so callers can write
// errors.Is(err, retry.ErrExhausted) without caring about the struct type.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

var _ error = (*ExhaustedError)(nil)

// strategyExhausted wraps the last captured failure (when there is one) into
// the ErrStrategyExhausted misuse error.
func strategyExhausted(cause error) error {
	if cause == nil {
		return ErrStrategyExhausted
	}

	return fmt.Errorf("%w (last failure: %w)", ErrStrategyExhausted, cause)
}
