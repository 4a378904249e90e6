package jitter

import (
	"testing"
)

func TestAmount_Bounds(t *testing.T) {
	for i := 0; i < 10000; i++ {
		a := Amount(10, 1)
		if a <= -10 || a >= 10 {
			t.Fatalf("jitter out of bounds: %v", a)
		}
	}
	for i := 0; i < 10000; i++ {
		a := Amount(-10, 0.5)
		if a <= -5 || a >= 5 {
			t.Fatalf("jitter out of bounds for negative base: %v", a)
		}
	}
}

func TestAmount_Zeroes(t *testing.T) {
	if a := Amount(0, 1); a != 0 {
		t.Errorf("zero value must not jitter, got %v", a)
	}
	if a := Amount(10, 0); a != 0 {
		t.Errorf("zero factor must not jitter, got %v", a)
	}
	if a := Amount(10, -1); a != 0 {
		t.Errorf("negative factor must not jitter, got %v", a)
	}
}

func TestJittered_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := Jittered(10, 1)
		if v <= 0 || v >= 20 {
			t.Fatalf("jittered value out of range: %v", v)
		}
	}
}

func TestWrap_JittersNumericResult(t *testing.T) {
	fn := Wrap(func(args ...any) (any, error) {
		return 100.0, nil
	}, 0.5)

	for i := 0; i < 100; i++ {
		result, err := fn()
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		v, ok := result.(float64)
		if !ok {
			t.Fatalf("result type changed: %T", result)
		}
		if v <= 50 || v >= 150 {
			t.Fatalf("jittered result out of range: %v", v)
		}
	}
}

func TestWrap_PassesNonNumericThrough(t *testing.T) {
	fn := Wrap(func(args ...any) (any, error) {
		return "not a number", nil
	}, 1)

	result, err := fn()
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if result != "not a number" {
		t.Errorf("non-numeric result altered: %v", result)
	}
}

func TestWrapArgs(t *testing.T) {
	var got []any
	fn := WrapArgs(func(args ...any) (any, error) {
		got = args
		return nil, nil
	}, 1, -1, 1)

	if _, err := fn(10, 10, "label", 10); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("argument count changed: %d", len(got))
	}

	// First argument jittered within (0, 20).
	if v, ok := got[0].(float64); !ok || v <= 0 || v >= 20 {
		t.Errorf("first argument not jittered correctly: %v", got[0])
	}
	// Negative factor skips.
	if got[1] != 10 {
		t.Errorf("negative factor should skip: %v", got[1])
	}
	// Non-numeric untouched even with a factor.
	if got[2] != "label" {
		t.Errorf("non-numeric argument altered: %v", got[2])
	}
	// Beyond the factor list untouched.
	if got[3] != 10 {
		t.Errorf("argument beyond factors altered: %v", got[3])
	}
}
