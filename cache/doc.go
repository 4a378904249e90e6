// Package cache persists function results on disk so that repeated calls
// with the same arguments can skip the underlying work. It derives a
// deterministic key from a call signature, judges freshness against a
// human-readable staleness spec, and stores either the latest result or
// a full history of timestamped results per key.
package cache
