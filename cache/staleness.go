package cache

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Staleness is the maximum age before a stored entry is considered
// expired. The zero value expires everything older than the instant it
// was created; Forever never expires anything.
type Staleness struct {
	d     time.Duration
	never bool
}

// Forever is the unbounded staleness sentinel: entries never expire.
var Forever = Staleness{never: true}

var stalenessRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)(?:\s*(second|minute|hour|day|week)s?)?$`)

var stalenessUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// ParseStaleness parses a reachback expression into a Staleness.
//
// Accepted forms, case-insensitive:
//
//	"never", "infinite"   entries never expire
//	"90", "2.5"           bare numbers are seconds
//	"2 hours", "1 day"    magnitude plus unit word, singular or plural
//
// Units run from seconds through weeks. Negative magnitudes and
// anything else fail with *InvalidStalenessSpecError.
func ParseStaleness(spec string) (Staleness, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	switch s {
	case "":
		return Staleness{}, &InvalidStalenessSpecError{Spec: spec, Reason: "empty"}
	case "never", "infinite":
		return Forever, nil
	}

	m := stalenessRe.FindStringSubmatch(s)
	if m == nil {
		return Staleness{}, &InvalidStalenessSpecError{Spec: spec, Reason: "want a number with an optional unit word (seconds through weeks)"}
	}

	mag, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Staleness{}, &InvalidStalenessSpecError{Spec: spec, Reason: "magnitude out of range"}
	}
	if mag < 0 {
		return Staleness{}, &InvalidStalenessSpecError{Spec: spec, Reason: "magnitude must not be negative"}
	}

	unit := time.Second
	if m[2] != "" {
		unit = stalenessUnits[m[2]]
	}
	return Staleness{d: time.Duration(mag * float64(unit))}, nil
}

// Expired reports whether an entry created at createdAt has outlived
// the staleness window at now. The boundary is exclusive: an entry
// exactly at the maximum age is still fresh. Unbounded staleness never
// expires regardless of age.
func (s Staleness) Expired(createdAt, now time.Time) bool {
	if s.never {
		return false
	}
	return now.Sub(createdAt) > s.d
}

// Unbounded reports whether s is the never-expires sentinel.
func (s Staleness) Unbounded() bool { return s.never }

// Duration returns the staleness window. It is meaningless when s is
// unbounded.
func (s Staleness) Duration() time.Duration { return s.d }

func (s Staleness) String() string {
	if s.never {
		return "never"
	}
	return s.d.String()
}
