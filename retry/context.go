package retry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ContextFunc is a cancellation-aware operation to retry.
type ContextFunc[T any] func(ctx context.Context) (T, error)

// Result is the terminal outcome of an asynchronous run.
type Result[T any] struct {
	Value T
	Err   error
	State *State[T]
}

// ContextRetryer retries a context-aware operation. The operation invocation
// and every pacing delay observe ctx: cancelling it aborts the run and the
// context's error is returned untouched, never wrapped in an ExhaustedError
// and never retried.
type ContextRetryer[T any] struct {
	core[T]
}

// NewContextRetryer creates a cancellation-aware retryer.
//
// Example:
//
//	r := retry.NewContextRetryer[[]byte](
//	    retry.WithStrategies(retry.NewExponentialBackoffStrategy[[]byte](4, 50*time.Millisecond)),
//	)
//	body, err := r.Run(ctx, fetchPage)
func NewContextRetryer[T any](opts ...Option[T]) *ContextRetryer[T] {
	return &ContextRetryer[T]{core: newCore(opts)}
}

// Run invokes fn until it succeeds, the strategy chain gives up, or ctx is
// cancelled.
func (r *ContextRetryer[T]) Run(ctx context.Context, fn ContextFunc[T]) (T, error) {
	state, err := r.RunState(ctx, fn)

	return state.Value, err
}

// RunState is Run, but returns the final execution record for inspection of
// attempt counts, timestamps, and the last outcome.
func (r *ContextRetryer[T]) RunState(ctx context.Context, fn ContextFunc[T]) (*State[T], error) {
	if fn == nil {
		return newState(r.strategies, r.clock.Now()), ErrNilOperation
	}

	if r.tracer == nil {
		return r.run(ctx, fn)
	}

	ctx, span := r.tracer.Start(ctx, "retry.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("retryer.name", r.name)))
	defer span.End()

	state, err := r.run(ctx, fn)

	span.SetAttributes(attribute.Int("retry.attempts", state.Attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return state, err
}

// Async runs fn in its own goroutine and delivers the terminal Result on the
// returned channel, which is closed after the single send. Attempts within
// the run remain strictly sequential.
func (r *ContextRetryer[T]) Async(ctx context.Context, fn ContextFunc[T]) <-chan Result[T] {
	out := make(chan Result[T], 1)

	go func() {
		defer close(out)

		state, err := r.RunState(ctx, fn)
		out <- Result[T]{Value: state.Value, Err: err, State: state}
	}()

	return out
}
