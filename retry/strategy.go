package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/coder/quartz"
)

// Strategy is a stateful retry policy. A strategy is created once by the
// caller, handed to a retryer, and mutated in place across attempts; it is
// never reset mid-run. Once exhausted it is dropped by the chain, but the
// caller may still inspect its final counters through Attempts.
//
// Strategies are owned by a single run at a time and are not safe for
// concurrent use.
type Strategy[T any] interface {
	// ShouldStop reports whether the strategy's stop predicate is true, i.e.
	// it has no further retries to offer.
	ShouldStop() bool

	// Apply evaluates the strategy against the latest outcome. It returns
	// ErrStrategyExhausted when invoked while ShouldStop is already true.
	// Otherwise it increments its attempt counter as the first effect, then
	// performs any side effect (pacing delay), and reports whether retries
	// should continue. A pacing delay aborted by ctx returns the context's
	// error unchanged.
	Apply(ctx context.Context, outcome Outcome[T]) (bool, error)

	// Attempts returns the number of applications taken so far.
	Attempts() int

	// Name identifies the strategy in logs and metrics.
	Name() string
}

// StrategyOption configures a strategy at construction time.
type StrategyOption func(*baseStrategy)

// WithStrategyClock sets the clock used for pacing delays. Defaults to the
// real clock; tests inject a *quartz.Mock.
func WithStrategyClock(clock quartz.Clock) StrategyOption {
	return func(b *baseStrategy) {
		b.clock = clock
	}
}

// WithStrategyLogger sets the logger used by the strategy. Defaults to
// slog.Default().
func WithStrategyLogger(logger *slog.Logger) StrategyOption {
	return func(b *baseStrategy) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMaxAttempts overrides the strategy's attempt limit. Chiefly useful for
// NewStopWhenValueStrategy, which is otherwise unbounded and never exhausts
// by count.
func WithMaxAttempts(attempts int) StrategyOption {
	return func(b *baseStrategy) {
		b.limit = attempts
	}
}

// WithJitter sets the jitter source added to every exponential backoff delay.
// It only has an effect on NewExponentialBackoffStrategy. Defaults to a
// uniform random duration in [0s, 1s).
func WithJitter(jitter func() time.Duration) StrategyOption {
	return func(b *baseStrategy) {
		if jitter != nil {
			b.jitter = jitter
		}
	}
}

const unbounded = -1

// baseStrategy carries the counting, logging, and pacing plumbing shared by
// all built-in strategies.
type baseStrategy struct {
	name   string
	limit  int // unbounded means no count-based stop
	taken  int
	logger *slog.Logger
	clock  quartz.Clock
	jitter func() time.Duration
}

func newBase(name string, limit int, opts []StrategyOption) baseStrategy {
	b := baseStrategy{
		name:   name,
		limit:  limit,
		logger: slog.Default(),
		clock:  quartz.NewReal(),
		jitter: func() time.Duration {
			return time.Duration(rand.Float64() * float64(time.Second)) //nolint:gosec // jitter needs no crypto randomness
		},
	}

	for _, opt := range opts {
		opt(&b)
	}

	return b
}

func (b *baseStrategy) ShouldStop() bool {
	return b.limit != unbounded && b.taken >= b.limit
}

func (b *baseStrategy) Attempts() int {
	return b.taken
}

func (b *baseStrategy) Name() string {
	return b.name
}

// guard enforces the Apply contract: applying an already-stopped strategy
// fails with ErrStrategyExhausted, carrying the last failure as context.
func (b *baseStrategy) guard(o error) error {
	if b.ShouldStop() {
		return strategyExhausted(o)
	}

	return nil
}

// sleep pauses for d on the strategy's clock. In a context-aware run the
// delay is a cancellation point; the context's error is returned unchanged.
func (b *baseStrategy) sleep(ctx context.Context, d time.Duration) error {
	timer := b.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoopStrategy retries without pacing until its attempt limit is reached.
type NoopStrategy[T any] struct {
	baseStrategy
}

// NewNoopStrategy creates a strategy that allows attempts retries with no
// delay between them.
func NewNoopStrategy[T any](attempts int, opts ...StrategyOption) *NoopStrategy[T] {
	return &NoopStrategy[T]{baseStrategy: newBase("noop", attempts, opts)}
}

func (s *NoopStrategy[T]) Apply(_ context.Context, outcome Outcome[T]) (bool, error) {
	if err := s.guard(outcome.Err); err != nil {
		return false, err
	}

	s.taken++
	s.logger.Info("applying noop strategy", "attempt", s.taken, "max_attempts", s.limit)

	return true, nil
}

// StopAfterAttemptStrategy counts identically to NoopStrategy. It exists as a
// terminal guard at the end of a chain rather than a pacing device.
type StopAfterAttemptStrategy[T any] struct {
	baseStrategy
}

// NewStopAfterAttemptStrategy creates a strategy that allows exactly attempts
// retries and nothing more.
func NewStopAfterAttemptStrategy[T any](attempts int, opts ...StrategyOption) *StopAfterAttemptStrategy[T] {
	return &StopAfterAttemptStrategy[T]{baseStrategy: newBase("stop_after_attempt", attempts, opts)}
}

func (s *StopAfterAttemptStrategy[T]) Apply(_ context.Context, outcome Outcome[T]) (bool, error) {
	if err := s.guard(outcome.Err); err != nil {
		return false, err
	}

	s.taken++
	s.logger.Info("applying stop-after-attempt strategy", "attempt", s.taken, "max_attempts", s.limit)

	return true, nil
}

// SleepStrategy pauses for a fixed duration before each retry until its
// attempt limit is reached.
type SleepStrategy[T any] struct {
	baseStrategy

	seconds time.Duration
}

// NewSleepStrategy creates a strategy that sleeps for d before each of its
// attempts retries.
func NewSleepStrategy[T any](d time.Duration, attempts int, opts ...StrategyOption) *SleepStrategy[T] {
	return &SleepStrategy[T]{
		baseStrategy: newBase("sleep", attempts, opts),
		seconds:      d,
	}
}

func (s *SleepStrategy[T]) Apply(ctx context.Context, outcome Outcome[T]) (bool, error) {
	if err := s.guard(outcome.Err); err != nil {
		return false, err
	}

	s.taken++
	s.logger.Info("applying sleep strategy",
		"attempt", s.taken, "max_attempts", s.limit, "sleep", s.seconds)

	if err := s.sleep(ctx, s.seconds); err != nil {
		return false, err
	}

	return true, nil
}

// ExponentialBackoffStrategy pauses for base_delay * 2^k plus jitter before
// retry k (1-indexed). Delays are non-cumulative: each is computed from the
// attempt index alone. The jitter keeps concurrent retriers from
// synchronizing into a thundering herd.
type ExponentialBackoffStrategy[T any] struct {
	baseStrategy

	baseDelay time.Duration
}

// NewExponentialBackoffStrategy creates a strategy that allows maxAttempts
// retries with exponentially growing jittered delays starting from baseDelay.
func NewExponentialBackoffStrategy[T any](
	maxAttempts int, baseDelay time.Duration, opts ...StrategyOption,
) *ExponentialBackoffStrategy[T] {
	return &ExponentialBackoffStrategy[T]{
		baseStrategy: newBase("exponential_backoff", maxAttempts, opts),
		baseDelay:    baseDelay,
	}
}

// delay computes the pause before retry attempt (1-indexed).
func (s *ExponentialBackoffStrategy[T]) delay(attempt int) time.Duration {
	return time.Duration(float64(s.baseDelay)*math.Pow(2, float64(attempt))) + s.jitter()
}

func (s *ExponentialBackoffStrategy[T]) Apply(ctx context.Context, outcome Outcome[T]) (bool, error) {
	if err := s.guard(outcome.Err); err != nil {
		return false, err
	}

	s.taken++
	d := s.delay(s.taken)

	s.logger.Info("applying exponential backoff strategy",
		"attempt", s.taken, "max_attempts", s.limit, "sleep", d)

	if err := s.sleep(ctx, d); err != nil {
		return false, err
	}

	return true, nil
}

// StopWhenValueStrategy retries until the operation's outcome equals an
// expected value. It does not exhaust by count unless bounded with
// WithMaxAttempts, in which case reaching the bound exhausts it with failure
// like any counted strategy.
type StopWhenValueStrategy[T comparable] struct {
	baseStrategy

	expected T
}

// NewStopWhenValueStrategy creates a strategy that keeps retrying until the
// last outcome equals expected.
func NewStopWhenValueStrategy[T comparable](expected T, opts ...StrategyOption) *StopWhenValueStrategy[T] {
	return &StopWhenValueStrategy[T]{
		baseStrategy: newBase("stop_when_value", unbounded, opts),
		expected:     expected,
	}
}

func (s *StopWhenValueStrategy[T]) Apply(_ context.Context, outcome Outcome[T]) (bool, error) {
	if err := s.guard(outcome.Err); err != nil {
		return false, err
	}

	s.taken++
	s.logger.Info("applying stop-when-value strategy", "attempt", s.taken, "expected", s.expected)

	return outcome.Value != s.expected, nil
}
