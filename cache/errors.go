package cache

import "fmt"

// UnhashableArgumentError indicates that an argument value has no
// deterministic canonical encoding and cannot take part in a cache key.
type UnhashableArgumentError struct {
	// Position is the zero-based positional index of the offending
	// argument, or -1 when the argument was passed by keyword.
	Position int

	// Keyword is the keyword name of the offending argument, empty for
	// positional arguments.
	Keyword string

	// Type is the Go type of the offending value.
	Type string
}

func (e *UnhashableArgumentError) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("unhashable argument %s: values of type %s have no canonical encoding", e.Keyword, e.Type)
	}
	return fmt.Sprintf("unhashable argument at position %d: values of type %s have no canonical encoding", e.Position, e.Type)
}

// InvalidStalenessSpecError indicates a reachback expression that could
// not be parsed into a staleness duration.
type InvalidStalenessSpecError struct {
	Spec   string
	Reason string
}

func (e *InvalidStalenessSpecError) Error() string {
	return fmt.Sprintf("invalid staleness spec %q: %s", e.Spec, e.Reason)
}

// SerializationError indicates a payload outside the supported value
// space: numbers, strings, bools, sequences and string-keyed mappings,
// nested arbitrarily.
type SerializationError struct {
	Type  string
	Cause error
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot serialize payload: %v", e.Cause)
	}
	return fmt.Sprintf("cannot serialize payload of type %s", e.Type)
}

// Unwrap returns the underlying error, if any.
func (e *SerializationError) Unwrap() error { return e.Cause }

// StorageIOError indicates a filesystem failure while reading or writing
// cache entries.
type StorageIOError struct {
	Op   string // operation that failed: "mkdir", "read", "write", "rename", ...
	Path string
	Err  error
}

func (e *StorageIOError) Error() string {
	return fmt.Sprintf("cache storage %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *StorageIOError) Unwrap() error { return e.Err }
