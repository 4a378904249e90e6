// Package pathutil builds sanitized, optionally timestamped filesystem
// paths from arbitrary name parts, so scraped artifacts can be written
// under names derived from untrusted input.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultTimeFormat names files down to the second.
const DefaultTimeFormat = "2006-01-02_150405"

// Mode selects which characters Untaint treats as unwanted.
type Mode int

const (
	// File mode rejects path separators along with control characters.
	File Mode = iota
	// Dir mode keeps the platform's path separator usable.
	Dir
)

var (
	fileUnwanted = regexp.MustCompile(`[~/\n\r\x00\\]+`)
	dirUnwanted  = dirUnwantedRe()
)

func dirUnwantedRe() *regexp.Regexp {
	if os.PathSeparator == '/' {
		return regexp.MustCompile("[~\n\r\x00\\\\]+")
	}
	return regexp.MustCompile("[~/\n\r\x00]+")
}

// Untaint collapses every run of unwanted characters in name to
// replaceWith. The replacement string is itself sanitized in File mode
// first, so it cannot reintroduce what it replaces.
func Untaint(mode Mode, name, replaceWith string) string {
	if replaceWith != "" {
		replaceWith = fileUnwanted.ReplaceAllString(replaceWith, "")
	}
	if mode == Dir {
		return dirUnwanted.ReplaceAllString(name, replaceWith)
	}
	return fileUnwanted.ReplaceAllString(name, replaceWith)
}

// Options controls path construction.
type Options struct {
	// Extension is appended to the filename, dot-prefixed unless it
	// already starts with one.
	Extension string

	// Dir is the directory part of the path, sanitized in Dir mode.
	Dir string

	// Timestamp appends the current time as the final name segment.
	Timestamp bool

	// TimeFormat overrides DefaultTimeFormat.
	TimeFormat string

	// CreateDir creates the directory part if it does not exist.
	CreateDir bool

	// NoSanitize passes every part through untouched.
	NoSanitize bool

	// ReplaceWith substitutes for each run of unwanted characters
	// instead of deleting them.
	ReplaceWith string
}

// New pieces together a sanitized path: the string forms of parts
// joined on "_", an optional timestamp segment, an optional extension,
// beneath an optional directory. It fails when sanitization leaves
// nothing to name the file with.
func New(parts []string, opts Options) (string, error) {
	untaint := func(mode Mode, s string) string {
		if opts.NoSanitize {
			return s
		}
		return Untaint(mode, s, opts.ReplaceWith)
	}

	dir := untaint(Dir, opts.Dir)
	if opts.CreateDir && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	ext := untaint(File, opts.Extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	segments := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	if opts.Timestamp {
		format := opts.TimeFormat
		if format == "" {
			format = DefaultTimeFormat
		}
		segments = append(segments, time.Now().Format(format))
	}

	name := untaint(File, strings.Join(segments, "_")) + ext
	if name == "" && dir == "" {
		return "", errors.New("nothing left to build a path from")
	}
	return filepath.Join(dir, name), nil
}
