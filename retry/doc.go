// Package retry re-invokes failing operations according to an ordered chain of
// stateful strategies until the operation succeeds, the chain is exhausted, or
// the failure is not eligible for retry.
//
// A strategy is a small policy object with its own attempt counter and stop
// predicate. Strategies are handed to a retryer in caller order and consumed
// front-first: each one governs retries until it is exhausted, then control
// passes to the next. A chain [A(2), B(4)] against a permanently failing
// operation therefore invokes the operation exactly 1+2+4 times.
//
// Two retryer variants share the same orchestration loop. Retryer blocks the
// calling goroutine for the whole run, pacing delays included. ContextRetryer
// threads a context.Context through the operation and every pacing delay, so
// cancelling the context aborts the run mid-delay or mid-invocation; the
// cancellation error is returned as-is and is never retried.
//
// Basic usage:
//
//	r := retry.NewRetryer[string](
//	    retry.WithStrategies(retry.NewSleepStrategy[string](time.Second, 3)),
//	)
//	out, err := r.Run(fetchToken)
//
// With an eligibility filter and hooks:
//
//	r := retry.NewContextRetryer[int](
//	    retry.WithStrategies(retry.NewExponentialBackoffStrategy[int](5, 100*time.Millisecond)),
//	    retry.WithRetryOn[int](io.ErrUnexpectedEOF),
//	    retry.WithOnErrorHook[int](func(err error) { log.Println("attempt failed:", err) }),
//	)
//	n, err := r.Run(ctx, countRows)
//
// The final execution record of a run (attempt counts, timestamps, last
// outcome) is available through RunState instead of Run.
package retry
