package retry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExhaustedError_Message(t *testing.T) {
	t.Parallel()

	err := &ExhaustedError{Attempts: 3, LastErr: errAttemptFailed}
	assert.Equal(t, "retries exhausted after 3 strategy applications: attempt failed", err.Error())

	bare := &ExhaustedError{Attempts: 0}
	assert.Equal(t, "retries exhausted after 0 strategy applications", bare.Error())
}

func TestExhaustedError_Unwrap(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("fetching config: %w", errAttemptFailed)
	err := error(&ExhaustedError{Attempts: 1, LastErr: wrapped})

	require.ErrorIs(t, err, errAttemptFailed, "the cause chain stays reachable")
	require.ErrorIs(t, err, ErrExhausted)

	var exhausted *ExhaustedError

	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)
}

func TestExhaustedError_SentinelOnly(t *testing.T) {
	t.Parallel()

	err := error(&ExhaustedError{Attempts: 2, LastErr: errAttemptFailed})

	require.NotErrorIs(t, err, ErrStrategyExhausted)
	require.NotErrorIs(t, ErrExhausted, err, "matching is one-directional")
}

func TestStrategyExhausted_Wrapping(t *testing.T) {
	t.Parallel()

	err := strategyExhausted(errAttemptFailed)
	require.ErrorIs(t, err, ErrStrategyExhausted)
	require.ErrorIs(t, err, errAttemptFailed)

	err = strategyExhausted(nil)
	require.ErrorIs(t, err, ErrStrategyExhausted)
	assert.Equal(t, ErrStrategyExhausted, err, "no cause means the bare sentinel")
}

func TestErrorKindsAreDistinct(t *testing.T) {
	t.Parallel()

	require.NotErrorIs(t, ErrNilOperation, ErrExhausted)
	require.NotErrorIs(t, ErrStrategyExhausted, ErrExhausted)

	var exhausted *ExhaustedError

	require.False(t, errors.As(ErrNilOperation, &exhausted))
}
