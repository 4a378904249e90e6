// Package throttle rate-limits wrapped functions so scrapers stay
// polite. It is cache-unaware and composes freely with the other
// combinators.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Func is the shape of a wrappable function.
type Func func(args ...any) (any, error)

// Throttle admits at most one call per interval, with a burst
// allowance.
type Throttle struct {
	limiter *rate.Limiter
}

// New builds a throttle allowing one call per interval with the given
// burst. An interval of 0 admits everything; burst is clamped to at
// least 1.
func New(interval time.Duration, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, burst)}
}

// Wrap returns fn gated by the throttle: each invocation blocks until a
// token is available.
func (t *Throttle) Wrap(fn Func) Func {
	return t.WrapContext(context.Background(), fn)
}

// WrapContext is Wrap with a caller-supplied context; a canceled
// context aborts the wait and returns its error without calling fn.
func (t *Throttle) WrapContext(ctx context.Context, fn Func) Func {
	return func(args ...any) (any, error) {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return fn(args...)
	}
}
