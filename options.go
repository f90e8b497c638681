package bloc

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Option configures the transition pipeline of a Bloc. Every transition the
// handler emits flows through the pipeline before the terminal stage applies
// it, so options can retry, reshape, rate-limit, or drop transitions without
// touching the event handler itself. The default pipeline is the bare
// terminal stage: transitions pass through unchanged.
//
// Instance configuration (clock, sync mode, debug, metrics, etc.) is handled
// via chainable methods on the Bloc before calling Start().
type Option[E, S any] func(pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]]

// applyID names the terminal pipeline stage that commits transitions.
const applyID = "apply"

// buildPipeline wraps the terminal apply stage with pipeline options.
func buildPipeline[E, S any](terminal pipz.Chainable[*Transition[E, S]], opts []Option[E, S]) pipz.Chainable[*Transition[E, S]] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// -----------------------------------------------------------------------------
// Pipeline Options - Wrapping (With*)
// -----------------------------------------------------------------------------
// These options wrap the entire pipeline, providing protection at the
// boundary. Use for resilience patterns that should apply to every
// transition.

// WithRetry wraps the pipeline with retry logic.
// Failed transitions are retried immediately up to maxAttempts times.
// For exponential backoff between retries, use WithBackoff instead.
func WithRetry[E, S any](maxAttempts int) Option[E, S] {
	return func(p pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithBackoff wraps the pipeline with exponential backoff retry logic.
// Failed transitions are retried with increasing delays: baseDelay,
// 2*baseDelay, 4*baseDelay, and so on.
func WithBackoff[E, S any](maxAttempts int, baseDelay time.Duration) Option[E, S] {
	return func(p pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
		return pipz.NewBackoff("backoff", p, maxAttempts, baseDelay)
	}
}

// WithTimeout wraps the pipeline with a deadline. If applying a transition
// takes longer than d, the transition fails and is routed to the error path.
func WithTimeout[E, S any](d time.Duration) Option[E, S] {
	return func(p pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithCircuitBreaker wraps the pipeline with circuit breaker protection.
// After 'failures' consecutive failures, the circuit opens and rejects
// further transitions until 'recovery' time has passed.
func WithCircuitBreaker[E, S any](failures int, recovery time.Duration) Option[E, S] {
	return func(p pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
		return pipz.NewCircuitBreaker("circuit-breaker", p, failures, recovery)
	}
}

// WithFallback wraps the pipeline with fallback processors.
// If the primary pipeline fails, each fallback is tried in order until one
// succeeds.
func WithFallback[E, S any](fallbacks ...pipz.Chainable[*Transition[E, S]]) Option[E, S] {
	return func(p pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
		all := append([]pipz.Chainable[*Transition[E, S]]{p}, fallbacks...)
		return pipz.NewFallback("fallback", all...)
	}
}

// WithErrorHandler adds error observation to the pipeline.
// Errors are passed to the handler for logging, metrics, or alerting, but
// the error still propagates to the container's error path afterwards. Use
// this for observability, not recovery.
func WithErrorHandler[E, S any](handler pipz.Chainable[*pipz.Error[*Transition[E, S]]]) Option[E, S] {
	return func(p pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
		return pipz.NewHandle("error-handler", p, handler)
	}
}

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with the terminal apply stage last.
//
// Use the Use* functions to create processors for common patterns, or
// provide custom pipz.Chainable implementations directly.
//
// Example:
//
//	bloc.New[CounterEvent, int](0, handler,
//	    bloc.WithMiddleware(
//	        bloc.UseEffect[CounterEvent, int]("audit", auditFn),
//	        bloc.UseTransform[CounterEvent, int]("clamp", clampFn),
//	    ),
//	    bloc.WithRetry[CounterEvent, int](3),
//	)
func WithMiddleware[E, S any](processors ...pipz.Chainable[*Transition[E, S]]) Option[E, S] {
	return func(p pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
		all := make([]pipz.Chainable[*Transition[E, S]], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// -----------------------------------------------------------------------------
// Middleware Processors - Adapters (Use*)
// -----------------------------------------------------------------------------
// These create processors for use inside WithMiddleware. They transform or
// observe transitions as they flow towards the terminal apply stage.

// UseTransform creates a processor that rewrites a transition.
// Cannot fail. Use for pure reshaping that always succeeds, such as
// clamping or normalizing the candidate next state.
func UseTransform[E, S any](name string, fn func(context.Context, *Transition[E, S]) *Transition[E, S]) pipz.Chainable[*Transition[E, S]] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can rewrite a transition and fail.
// Use for enrichment or validation that may produce errors.
func UseApply[E, S any](name string, fn func(context.Context, *Transition[E, S]) (*Transition[E, S], error)) pipz.Chainable[*Transition[E, S]] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that performs a side effect.
// The transition passes through unchanged. Use for logging, metrics, or
// notifications that should not affect the state update.
func UseEffect[E, S any](name string, fn func(context.Context, *Transition[E, S]) error) pipz.Chainable[*Transition[E, S]] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseMutate creates a processor that conditionally rewrites a transition.
// The transformer is only applied when the condition returns true.
func UseMutate[E, S any](name string, transformer func(context.Context, *Transition[E, S]) *Transition[E, S], condition func(context.Context, *Transition[E, S]) bool) pipz.Chainable[*Transition[E, S]] {
	return pipz.Mutate(pipz.Name(name), transformer, condition)
}

// UseFilter wraps a processor with a condition. Transitions failing the
// condition skip the wrapped processor and pass through unchanged. Wrapping
// the terminal stage this way drops non-matching transitions entirely.
func UseFilter[E, S any](name string, condition func(context.Context, *Transition[E, S]) bool, processor pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
	return pipz.NewFilter(pipz.Name(name), condition, processor)
}

// UseTimeout wraps a processor with a deadline.
func UseTimeout[E, S any](d time.Duration, processor pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
	return pipz.NewTimeout("timeout", processor, d)
}

// UseRetry wraps a processor with retry logic.
func UseRetry[E, S any](maxAttempts int, processor pipz.Chainable[*Transition[E, S]]) pipz.Chainable[*Transition[E, S]] {
	return pipz.NewRetry("retry", processor, maxAttempts)
}
