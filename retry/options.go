package retry

import (
	"log/slog"

	"github.com/coder/quartz"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Retryer or ContextRetryer.
type Option[T any] func(*core[T])

// WithStrategies sets the retry strategy chain, consumed front-first in the
// order given: each strategy governs retries until it is exhausted, then the
// next one engages. With no strategies configured, the first eligible failure
// exhausts the run.
func WithStrategies[T any](strategies ...Strategy[T]) Option[T] {
	return func(c *core[T]) {
		c.strategies = strategies
	}
}

// WithRetryOn restricts retries to failures matching one of the given errors
// (via errors.Is). Any other failure immediately terminates the run with an
// ExhaustedError, without consulting a strategy. Without this option, every
// failure is eligible.
func WithRetryOn[T any](errs ...error) Option[T] {
	return func(c *core[T]) {
		c.retryOn = errs
	}
}

// WithBeforeHooks registers hooks run, in order, before every invocation of
// the operation, including retried ones.
func WithBeforeHooks[T any](hooks ...BeforeHook) Option[T] {
	return func(c *core[T]) {
		c.beforeHooks = hooks
	}
}

// WithAfterHooks registers hooks run, in order, after every invocation with
// the captured failure if there is one, else the returned value.
func WithAfterHooks[T any](hooks ...AfterHook[T]) Option[T] {
	return func(c *core[T]) {
		c.afterHooks = hooks
	}
}

// WithOnErrorHook registers a hook invoked with the captured failure after
// each failing invocation, before the after-hooks run.
func WithOnErrorHook[T any](hook OnErrorHook) Option[T] {
	return func(c *core[T]) {
		c.onError = hook
	}
}

// WithName labels the retryer in logs and metrics.
func WithName[T any](name string) Option[T] {
	return func(c *core[T]) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the retryer's logger. Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *core[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithoutLogging silences the retryer's own logging. Strategies keep their
// individually configured loggers.
func WithoutLogging[T any]() Option[T] {
	return func(c *core[T]) {
		c.logger = slog.New(slog.DiscardHandler)
	}
}

// WithClock sets the clock used for run timestamps. Defaults to the real
// clock; tests inject a *quartz.Mock.
func WithClock[T any](clock quartz.Clock) Option[T] {
	return func(c *core[T]) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTracer enables an OpenTelemetry span per run on a ContextRetryer, with
// one event per invocation. A nil tracer disables tracing; the blocking
// Retryer never records spans.
func WithTracer[T any](tracer trace.Tracer) Option[T] {
	return func(c *core[T]) {
		c.tracer = tracer
	}
}
