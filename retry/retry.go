package retry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coder/quartz"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Func is a blocking operation to retry.
type Func[T any] func() (T, error)

// BeforeHook runs before every invocation of the operation.
type BeforeHook func()

// AfterHook runs after every invocation with the attempt's outcome.
type AfterHook[T any] func(Outcome[T])

// OnErrorHook runs after every failing invocation with the captured failure.
type OnErrorHook func(error)

// decision is the outcome of one chain evaluation. An explicit value instead
// of error control flow: exhaustion is an expected, frequent result.
type decision int

const (
	// decisionContinue means a strategy applied its side effect and the run
	// should attempt again.
	decisionContinue decision = iota
	// decisionStop means a strategy was satisfied (the outcome matched its
	// expectation) and the run should terminate successfully.
	decisionStop
	// decisionExhausted means the chain has no further retries to offer.
	decisionExhausted
)

// Run outcome labels shared by logs and metrics.
const (
	outcomeSuccess   = "success"
	outcomeExhausted = "exhausted"
	outcomeCanceled  = "canceled"
)

const defaultName = "default"

// core is the orchestration state machine shared by Retryer and
// ContextRetryer. The two variants differ only in how the operation is
// invoked and whether pacing delays are cancellation points.
type core[T any] struct {
	name        string
	strategies  []Strategy[T]
	retryOn     []error
	beforeHooks []BeforeHook
	afterHooks  []AfterHook[T]
	onError     OnErrorHook
	logger      *slog.Logger
	clock       quartz.Clock
	tracer      trace.Tracer
	stats       counters
}

func newCore[T any](opts []Option[T]) core[T] {
	c := core[T]{
		name:   defaultName,
		logger: slog.Default(),
		clock:  quartz.NewReal(),
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// Stats returns the retryer's aggregate counters across all runs.
func (c *core[T]) Stats() Stats {
	return c.stats.snapshot()
}

// retryable applies the eligibility filter: an empty filter allows every
// failure kind.
func (c *core[T]) retryable(err error) bool {
	if len(c.retryOn) == 0 {
		return true
	}

	for _, target := range c.retryOn {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// run drives the attempt/evaluate loop until the operation succeeds, a
// strategy is satisfied, the chain is exhausted, or the failure is not
// eligible for retry. It always returns the final execution record.
func (c *core[T]) run(ctx context.Context, fn func(ctx context.Context) (T, error)) (*State[T], error) {
	state := newState(c.strategies, c.clock.Now())
	span := trace.SpanFromContext(ctx)

	c.logger.Debug("starting retry run", "retryer", c.name, "run_id", state.ID)
	c.stats.runs.Inc()

	invocations := 0

	for {
		state.clear()

		for _, hook := range c.beforeHooks {
			hook()
		}

		invocations++
		span.AddEvent("retry.invoke", trace.WithAttributes(attribute.Int("invocation", invocations)))
		attemptsTotal.WithLabelValues(c.name).Inc()
		c.stats.attempts.Inc()

		value, err := fn(ctx)
		if err != nil {
			state.Err = err

			if c.onError != nil {
				c.onError(err)
			}
		} else {
			state.Value = value
		}

		for _, hook := range c.afterHooks {
			hook(state.Outcome())
		}

		if !state.Raised() {
			c.finish(state, outcomeSuccess)

			return state, nil
		}

		// A cancellation of the enclosing context is never converted into
		// a retry; it propagates untouched.
		if ctx.Err() != nil && errors.Is(state.Err, ctx.Err()) {
			c.finish(state, outcomeCanceled)

			return state, state.Err
		}

		if !c.retryable(state.Err) {
			c.logger.Warn("failure not eligible for retry",
				"retryer", c.name, "run_id", state.ID, "error", state.Err)
			c.finish(state, outcomeExhausted)

			return state, &ExhaustedError{Attempts: state.Attempts, LastErr: state.Err}
		}

		dec, err := c.evalChain(ctx, state)

		switch {
		case err != nil:
			// Only a pacing delay aborted by cancellation reaches here.
			c.finish(state, outcomeCanceled)

			return state, err
		case dec == decisionExhausted:
			c.logger.Warn("retry strategies exhausted",
				"retryer", c.name, "run_id", state.ID, "attempts", state.Attempts, "error", state.Err)
			c.finish(state, outcomeExhausted)

			return state, &ExhaustedError{Attempts: state.Attempts, LastErr: state.Err}
		case dec == decisionStop:
			c.finish(state, outcomeSuccess)

			return state, nil
		}
	}
}

// evalChain composes the strategy chain: strategy i+1 only governs retries
// after strategy i is fully exhausted.
func (c *core[T]) evalChain(ctx context.Context, state *State[T]) (decision, error) {
	for {
		if state.strategy == nil {
			if len(state.chain) == 0 {
				return decisionExhausted, nil
			}

			state.strategy = state.chain[0]
			state.chain = state.chain[1:]
		}

		// A strategy already stopped at evaluation time (e.g. configured
		// with a zero limit) is an internal exhaustion signal: advance the
		// chain without spending an attempt or a delay on it.
		if state.strategy.ShouldStop() {
			state.strategy = nil

			if len(state.chain) == 0 {
				return decisionExhausted, nil
			}

			continue
		}

		name := state.strategy.Name()
		c.logger.Info("executing retry strategy",
			"retryer", c.name, "run_id", state.ID, "strategy", name, "attempts", state.Attempts)

		cont, err := state.strategy.Apply(ctx, state.Outcome())
		if err != nil {
			if errors.Is(err, ErrStrategyExhausted) {
				// Defensive: ShouldStop was checked above, but a custom
				// strategy may signal exhaustion from Apply directly.
				state.strategy = nil

				if len(state.chain) == 0 {
					return decisionExhausted, nil
				}

				continue
			}

			return decisionExhausted, err
		}

		state.Attempts++
		applicationsTotal.WithLabelValues(c.name, name).Inc()

		// Proactive clear: once the stop predicate just became true, the
		// next cycle pulls the following strategy instead of spending an
		// attempt on a dead one.
		if state.strategy.ShouldStop() {
			state.strategy = nil
		}

		if !cont {
			return decisionStop, nil
		}

		return decisionContinue, nil
	}
}

// finish records the terminal outcome: the end timestamp is set exactly once,
// after hooks have run, right before the run returns.
func (c *core[T]) finish(state *State[T], outcome string) {
	state.EndTime = c.clock.Now()

	runsTotal.WithLabelValues(c.name, outcome).Inc()
	runDuration.WithLabelValues(c.name, outcome).Observe(state.EndTime.Sub(state.StartTime).Seconds())

	switch outcome {
	case outcomeSuccess:
		c.stats.successes.Inc()
	case outcomeExhausted:
		c.stats.exhausted.Inc()
	}

	c.logger.Debug("retry run finished",
		"retryer", c.name, "run_id", state.ID, "outcome", outcome, "attempts", state.Attempts)
}

// Retryer retries a blocking operation. The calling goroutine is occupied for
// the whole run, pacing delays included. Independent runs are fully isolated
// and a Retryer may be shared, but the strategy instances it holds are
// stateful and carry their counters across runs.
type Retryer[T any] struct {
	core[T]
}

// NewRetryer creates a blocking retryer.
//
// Example:
//
//	r := retry.NewRetryer[int](
//	    retry.WithStrategies(retry.NewNoopStrategy[int](3)),
//	)
//	n, err := r.Run(readCounter)
func NewRetryer[T any](opts ...Option[T]) *Retryer[T] {
	return &Retryer[T]{core: newCore(opts)}
}

// Run invokes fn until it succeeds or the strategy chain gives up, returning
// the operation's value or an ExhaustedError wrapping the last failure.
func (r *Retryer[T]) Run(fn Func[T]) (T, error) {
	state, err := r.RunState(fn)

	return state.Value, err
}

// RunState is Run, but returns the final execution record for inspection of
// attempt counts, timestamps, and the last outcome.
func (r *Retryer[T]) RunState(fn Func[T]) (*State[T], error) {
	if fn == nil {
		return newState(r.strategies, r.clock.Now()), ErrNilOperation
	}

	return r.run(context.Background(), func(context.Context) (T, error) {
		return fn()
	})
}
