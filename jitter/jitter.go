// Package jitter perturbs numeric values with gaussian noise, for
// scraping workloads that should not look perfectly periodic. The noise
// is cropped, not clipped: samples outside the allowed range are
// redrawn, so the perturbed value always stays within a factor of the
// original.
package jitter

import "math/rand"

// sigmaCount normalizes the spread so that factor 1 keeps the jitter
// within +/- the base value. Tune the factor, not this.
const sigmaCount = 4

// Amount samples a jitter offset for val. The distribution has mean 0
// and standard deviation |val|*factor/4; samples at or beyond 4 sigma
// are redrawn, so |Amount| < |val|*factor always holds. A factor of 0
// or less, or a zero val, yields 0.
func Amount(val, factor float64) float64 {
	if factor <= 0 || val == 0 {
		return 0
	}

	std := abs(val) * factor / sigmaCount
	amount := rand.NormFloat64() * std
	for abs(amount) >= std*sigmaCount {
		amount = rand.NormFloat64() * std
	}
	return amount
}

// Jittered returns val plus a jitter offset.
func Jittered(val, factor float64) float64 {
	return val + Amount(val, factor)
}

// Func is the shape of a wrappable function.
type Func func(args ...any) (any, error)

// Wrap returns fn with its numeric result jittered by factor.
// Non-numeric results and errors pass through untouched.
func Wrap(fn Func, factor float64) Func {
	return func(args ...any) (any, error) {
		result, err := fn(args...)
		if err != nil {
			return nil, err
		}
		if f, ok := toFloat(result); ok {
			return Jittered(f, factor), nil
		}
		return result, nil
	}
}

// WrapArgs returns fn with its numeric positional arguments jittered.
// The n-th factor applies to the n-th argument; extra factors are
// ignored, arguments beyond the factor list pass through, and negative
// factors skip their argument. Non-numeric arguments are never touched.
func WrapArgs(fn Func, factors ...float64) Func {
	return func(args ...any) (any, error) {
		jittered := make([]any, len(args))
		copy(jittered, args)
		for i, factor := range factors {
			if i >= len(args) || factor < 0 {
				continue
			}
			if f, ok := toFloat(args[i]); ok {
				jittered[i] = Jittered(f, factor)
			}
		}
		return fn(jittered...)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
