package cache

import (
	"errors"
	"testing"
	"time"
)

func TestBuildKey_Deterministic(t *testing.T) {
	args := []any{5, "url", 3.14, []any{1, 2}}
	kwargs := Kwargs{"page": 2, "deep": map[string]any{"a": 1}}

	first, err := BuildKey("fetch", args, kwargs)
	if err != nil {
		t.Fatalf("BuildKey failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := BuildKey("fetch", args, kwargs)
		if err != nil {
			t.Fatalf("BuildKey failed on repeat: %v", err)
		}
		if again != first {
			t.Fatalf("key changed between calls: %q vs %q", again, first)
		}
	}
}

func TestBuildKey_CanonicalForm(t *testing.T) {
	// The textual form is the cross-process contract: keywords sorted by
	// name, map keys sorted, strings quoted.
	key, err := BuildKey("f", []any{5, "x"}, Kwargs{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("BuildKey failed: %v", err)
	}
	want := Key(`f(5, "x", a=1, b=2)`)
	if key != want {
		t.Errorf("key mismatch: got %q, want %q", key, want)
	}

	key, err = BuildKey("g", []any{map[string]any{"zeta": 1, "alpha": []any{true, nil}}}, nil)
	if err != nil {
		t.Fatalf("BuildKey failed: %v", err)
	}
	want = Key(`g({"alpha": [true, nil], "zeta": 1})`)
	if key != want {
		t.Errorf("key mismatch: got %q, want %q", key, want)
	}
}

func TestBuildKey_DistinctCalls(t *testing.T) {
	keys := map[Key]string{}
	calls := []struct {
		name   string
		args   []any
		kwargs Kwargs
	}{
		{"f", []any{1}, nil},
		{"f", []any{2}, nil},
		{"f", []any{"1"}, nil},
		{"g", []any{1}, nil},
		{"f", nil, Kwargs{"x": 1}},
		{"f", []any{1}, Kwargs{"x": 1}},
	}
	for _, call := range calls {
		key, err := BuildKey(call.name, call.args, call.kwargs)
		if err != nil {
			t.Fatalf("BuildKey(%s) failed: %v", call.name, err)
		}
		if prev, dup := keys[key]; dup {
			t.Errorf("key collision between %s and %q: %q", call.name, prev, key)
		}
		keys[key] = call.name
	}
}

func TestBuildKey_ValueBased(t *testing.T) {
	n := 7
	direct, err := BuildKey("f", []any{7}, nil)
	if err != nil {
		t.Fatalf("BuildKey failed: %v", err)
	}
	viaPointer, err := BuildKey("f", []any{&n}, nil)
	if err != nil {
		t.Fatalf("BuildKey failed: %v", err)
	}
	if direct != viaPointer {
		t.Errorf("pointer argument should encode by value: %q vs %q", viaPointer, direct)
	}

	// Same instant in different zones encodes identically.
	utc := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("X", 2*3600))
	a, err := BuildKey("f", []any{utc}, nil)
	if err != nil {
		t.Fatalf("BuildKey failed: %v", err)
	}
	b, err := BuildKey("f", []any{offset}, nil)
	if err != nil {
		t.Fatalf("BuildKey failed: %v", err)
	}
	if a != b {
		t.Errorf("time arguments should encode by instant: %q vs %q", a, b)
	}
}

func TestBuildKey_Unhashable(t *testing.T) {
	_, err := BuildKey("f", []any{1, func() {}}, nil)
	var uh *UnhashableArgumentError
	if !errors.As(err, &uh) {
		t.Fatalf("expected UnhashableArgumentError, got %v", err)
	}
	if uh.Position != 1 {
		t.Errorf("wrong position: got %d, want 1", uh.Position)
	}

	_, err = BuildKey("f", nil, Kwargs{"ch": make(chan int)})
	if !errors.As(err, &uh) {
		t.Fatalf("expected UnhashableArgumentError, got %v", err)
	}
	if uh.Keyword != "ch" {
		t.Errorf("wrong keyword: got %q, want %q", uh.Keyword, "ch")
	}

	// Maps with non-string keys have no stable textual order.
	if _, err = BuildKey("f", []any{map[int]string{1: "a"}}, nil); !errors.As(err, &uh) {
		t.Errorf("expected UnhashableArgumentError for int-keyed map, got %v", err)
	}
}
