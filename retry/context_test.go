package retry

import (
	"context"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestContextRetryer_Success(t *testing.T) {
	t.Parallel()

	calls := 0

	r := NewContextRetryer[string](
		WithStrategies[string](NewNoopStrategy[string](3)),
		WithLogger[string](slogt.New(t)),
	)

	out, err := r.Run(t.Context(), func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errPermanent
		}

		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
}

func TestContextRetryer_CancelDuringDelay(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	calls := 0

	r := NewContextRetryer[int](
		WithStrategies[int](NewSleepStrategy[int](time.Minute, 3)),
		WithLogger[int](slogt.New(t)),
	)

	state, err := r.RunState(ctx, func(context.Context) (int, error) {
		calls++

		return 0, errPermanent
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, ErrExhausted, "cancellation is not an exhaustion")
	assert.Equal(t, 1, calls, "cancellation during the pacing delay stops further attempts")
	assert.False(t, state.EndTime.IsZero())
}

func TestContextRetryer_CancelledBeforeRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	r := NewContextRetryer[int](
		WithStrategies[int](NewNoopStrategy[int](3)),
		WithLogger[int](slogt.New(t)),
	)

	_, err := r.Run(ctx, func(ctx context.Context) (int, error) {
		return 0, ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrExhausted)
}

func TestContextRetryer_OperationCancelErrorIsRetried(t *testing.T) {
	t.Parallel()

	calls := 0

	r := NewContextRetryer[int](
		WithStrategies[int](NewNoopStrategy[int](2)),
		WithLogger[int](slogt.New(t)),
	)

	// The operation reports a deadline error of its own while the run's
	// context is still live. That is an ordinary failure, not a cancellation
	// of the run.
	_, err := r.Run(t.Context(), func(context.Context) (int, error) {
		calls++

		return 0, context.DeadlineExceeded
	})

	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, calls)
}

func TestContextRetryer_NilOperation(t *testing.T) {
	t.Parallel()

	r := NewContextRetryer[int]()

	_, err := r.Run(t.Context(), nil)
	require.ErrorIs(t, err, ErrNilOperation)
}

func TestContextRetryer_Async(t *testing.T) {
	t.Parallel()

	calls := 0

	r := NewContextRetryer[int](
		WithStrategies[int](NewNoopStrategy[int](3)),
		WithLogger[int](slogt.New(t)),
	)

	ch := r.Async(t.Context(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errPermanent
		}

		return 42, nil
	})

	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, 42, res.Value)
	require.NotNil(t, res.State)
	assert.Equal(t, 2, res.State.Attempts)

	_, ok = <-ch
	assert.False(t, ok, "channel closes after the single terminal result")
}

func TestContextRetryer_AsyncExhausted(t *testing.T) {
	t.Parallel()

	r := NewContextRetryer[int](
		WithStrategies[int](NewNoopStrategy[int](1)),
		WithLogger[int](slogt.New(t)),
	)

	res := <-r.Async(t.Context(), func(context.Context) (int, error) {
		return 0, errPermanent
	})

	require.ErrorIs(t, res.Err, ErrExhausted)
	require.ErrorIs(t, res.Err, errPermanent)
}

func TestContextRetryer_WithTracer(t *testing.T) {
	t.Parallel()

	tracer := noop.NewTracerProvider().Tracer("test")
	calls := 0

	r := NewContextRetryer[int](
		WithStrategies[int](NewNoopStrategy[int](2)),
		WithTracer[int](tracer),
		WithLogger[int](slogt.New(t)),
	)

	out, err := r.Run(t.Context(), func(context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errPermanent
		}

		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, out)

	// The failure path must record on the span without disturbing the error.
	_, err = r.Run(t.Context(), func(context.Context) (int, error) {
		return 0, errPermanent
	})
	require.ErrorIs(t, err, ErrExhausted)
}
