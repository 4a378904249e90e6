// Package retry re-invokes a function until its result passes a
// validator, with optional delay, jitter and exponential backoff
// between attempts. It is cache-unaware: compose it around or inside a
// cache wrapper as needed.
package retry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scrapekit/scrapekit/jitter"
)

// Func is the shape of a wrappable function.
type Func func(args ...any) (any, error)

// MaxTriesExhaustedError is returned when every attempt produced an
// invalid result.
type MaxTriesExhaustedError struct {
	Call  string
	Tries int
}

func (e *MaxTriesExhaustedError) Error() string {
	return fmt.Sprintf("%s failed validation %d times", e.Call, e.Tries)
}

// Config controls retry behavior.
type Config struct {
	// Validator judges a result; invalid results are retried. Nil
	// accepts everything.
	Validator func(result any) bool

	// MaxTries is the number of attempts before giving up. Minimum 1.
	MaxTries int

	// Delay is the base wait after an invalid result.
	Delay time.Duration

	// JitterFactor spreads the wait, 0 through 1.
	JitterFactor float64

	// Backoff lengthens the wait exponentially at each failure.
	Backoff bool

	// BackoffBase is the exponent base, at least 1.
	BackoffBase float64

	// RandomExponent picks each step's backoff exponent at random up to
	// the step-wise maximum, for maximally spread retries.
	RandomExponent bool
}

// Retryer wraps functions with a validated-retry loop.
type Retryer struct {
	cfg Config

	sleep func(time.Duration)
}

// New validates cfg and returns a Retryer. Settings that cannot take
// effect are normalized away: without a delay there is nothing to
// jitter or back off, and a backoff base of 1 leaves nothing to
// randomize.
func New(cfg Config) (*Retryer, error) {
	if cfg.MaxTries < 1 {
		return nil, fmt.Errorf("retry: MaxTries must be at least 1, got %d", cfg.MaxTries)
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("retry: Delay must not be negative, got %v", cfg.Delay)
	}
	if cfg.JitterFactor < 0 || cfg.JitterFactor > 1 {
		return nil, fmt.Errorf("retry: JitterFactor must be within [0, 1], got %v", cfg.JitterFactor)
	}
	if cfg.Backoff && cfg.BackoffBase < 1 {
		return nil, fmt.Errorf("retry: BackoffBase must be at least 1, got %v", cfg.BackoffBase)
	}

	if cfg.Validator == nil {
		cfg.Validator = func(any) bool { return true }
	}
	if cfg.Delay == 0 {
		cfg.JitterFactor = 0
		cfg.Backoff = false
	}
	if !cfg.Backoff {
		cfg.BackoffBase = 1
	}
	if cfg.BackoffBase == 1 {
		cfg.RandomExponent = false
	}

	return &Retryer{cfg: cfg, sleep: time.Sleep}, nil
}

// Wrap returns fn augmented with the retry loop under the identity
// name. Errors from fn propagate immediately without retry: the
// validator judges values, not failures. When MaxTries attempts all
// produce invalid results, the last result is discarded and a
// *MaxTriesExhaustedError is returned.
func (r *Retryer) Wrap(name string, fn Func) Func {
	return func(args ...any) (any, error) {
		failcount := 0
		for remaining := r.cfg.MaxTries; remaining > 0; remaining-- {
			result, err := fn(args...)
			if err != nil {
				return nil, err
			}
			if r.cfg.Validator(result) {
				return result, nil
			}
			failcount++
			if r.cfg.Delay > 0 && remaining > 1 {
				wait := r.waitTime(failcount)
				log.Debug("invalid result, retrying", "call", name, "failures", failcount, "wait", wait)
				r.sleep(wait)
			}
		}
		return nil, &MaxTriesExhaustedError{Call: name, Tries: failcount}
	}
}

// waitTime computes the delay before the next attempt:
// BackoffBase^exponent * Delay, jittered.
func (r *Retryer) waitTime(failcount int) time.Duration {
	exp := failcount - 1
	if r.cfg.RandomExponent {
		exp = rand.Intn(failcount)
	}

	wait := float64(r.cfg.Delay)
	for i := 0; i < exp; i++ {
		wait *= r.cfg.BackoffBase
	}
	wait = jitter.Jittered(wait, r.cfg.JitterFactor)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
