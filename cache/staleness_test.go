package cache

import (
	"errors"
	"testing"
	"time"
)

func TestParseStaleness(t *testing.T) {
	tests := []struct {
		spec string
		want time.Duration
	}{
		{"2 hours", 2 * time.Hour},
		{"1 hour", time.Hour},
		{"1 HOUR", time.Hour},
		{"30 seconds", 30 * time.Second},
		{"1 second", time.Second},
		{"15 minutes", 15 * time.Minute},
		{"2.5 minutes", 150 * time.Second},
		{"3 days", 72 * time.Hour},
		{"1 week", 7 * 24 * time.Hour},
		{"90", 90 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"  10 minutes ", 10 * time.Minute},
		{"0", 0},
	}

	for _, tt := range tests {
		s, err := ParseStaleness(tt.spec)
		if err != nil {
			t.Errorf("ParseStaleness(%q) failed: %v", tt.spec, err)
			continue
		}
		if s.Unbounded() {
			t.Errorf("ParseStaleness(%q) unexpectedly unbounded", tt.spec)
			continue
		}
		if s.Duration() != tt.want {
			t.Errorf("ParseStaleness(%q) = %v, want %v", tt.spec, s.Duration(), tt.want)
		}
	}
}

func TestParseStaleness_Unbounded(t *testing.T) {
	for _, spec := range []string{"never", "NEVER", "infinite", " Infinite "} {
		s, err := ParseStaleness(spec)
		if err != nil {
			t.Errorf("ParseStaleness(%q) failed: %v", spec, err)
			continue
		}
		if !s.Unbounded() {
			t.Errorf("ParseStaleness(%q) should be unbounded", spec)
		}
	}
}

func TestParseStaleness_Invalid(t *testing.T) {
	specs := []string{
		"banana",
		"-1 hour",
		"-5",
		"",
		"1 fortnight",
		"1 month",
		"hours",
		"1 hour 30 minutes",
	}
	for _, spec := range specs {
		_, err := ParseStaleness(spec)
		var invalid *InvalidStalenessSpecError
		if !errors.As(err, &invalid) {
			t.Errorf("ParseStaleness(%q): expected InvalidStalenessSpecError, got %v", spec, err)
		}
	}
}

func TestStaleness_ExpiredBoundary(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := time.Hour
	s, err := ParseStaleness("1 hour")
	if err != nil {
		t.Fatalf("ParseStaleness failed: %v", err)
	}

	if s.Expired(t0, t0.Add(d)) {
		t.Error("entry exactly at the maximum age should still be fresh")
	}
	if !s.Expired(t0, t0.Add(d+time.Nanosecond)) {
		t.Error("entry just past the maximum age should be stale")
	}
	if s.Expired(t0, t0) {
		t.Error("brand new entry should be fresh")
	}
}

func TestStaleness_NeverExpires(t *testing.T) {
	t0 := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if Forever.Expired(t0, t0.AddDate(100, 0, 0)) {
		t.Error("unbounded staleness must never expire")
	}
}
