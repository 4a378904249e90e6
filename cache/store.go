package cache

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	entryExt  = ".cache"
	tmpSuffix = ".tmp"

	// latestName is the fixed filename in single-latest mode; replacing
	// it atomically supersedes the previous entry.
	latestName = "latest"
)

// zstdMagic is the zstandard frame header. Entry files are sniffed for
// it on read so compressed and plain files can share a directory.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func init() {
	// Payload values travel as interfaces inside gob streams, so every
	// concrete type in the supported value space must be registered.
	gob.Register(false)
	gob.Register(int(0))
	gob.Register(int8(0))
	gob.Register(int16(0))
	gob.Register(int32(0))
	gob.Register(int64(0))
	gob.Register(uint(0))
	gob.Register(uint8(0))
	gob.Register(uint16(0))
	gob.Register(uint32(0))
	gob.Register(uint64(0))
	gob.Register(float32(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register([]any(nil))
	gob.Register(map[string]any(nil))
}

// Entry is one stored result: the key it was computed for, when it was
// created, the payload itself, and a discriminator unique among the
// entries for its key.
type Entry struct {
	Key           Key
	CreatedAt     time.Time
	Payload       any
	Discriminator string
	Size          int64 // bytes on disk
}

// storedEntry is the on-disk representation.
type storedEntry struct {
	Key       string
	CreatedAt time.Time
	Payload   any
}

// Store persists serialized results beneath a root directory, one
// subdirectory per hashed key. In single-latest mode a key holds at
// most one entry; in historical (hoard) mode entries accumulate and are
// never deleted by the store itself.
type Store struct {
	root     string
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder

	now func() time.Time
}

// NewStore opens a store rooted at dir, creating it if absent. With
// compression enabled, entry files are zstd-framed on disk; reads
// always handle both framings.
func NewStore(dir string, compression bool) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageIOError{Op: "mkdir", Path: dir, Err: err}
	}

	s := &Store{
		root:     dir,
		compress: compression,
		now:      time.Now,
	}

	var err error
	if s.decoder, err = zstd.NewReader(nil); err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	if compression {
		if s.encoder, err = zstd.NewWriter(nil); err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	return s, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// ReadLatest returns the most recently created entry for key, or nil if
// none exists. In historical mode the greatest creation time wins, with
// the discriminator as tie-break.
func (s *Store) ReadLatest(key Key) (*Entry, error) {
	entries, err := s.ReadAll(key)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[len(entries)-1], nil
}

// ReadAll returns every entry stored for key in ascending creation-time
// order. The slice is empty when the key has never been written.
// Leftover temporary files from interrupted writes are ignored, as are
// files that fail to decode.
func (s *Store) ReadAll(key Key) ([]*Entry, error) {
	dir := s.keyDir(key)
	entries, err := s.readDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.Key = key
	}
	return entries, nil
}

// Write persists payload for key. In single-latest mode (hoard false)
// the new entry atomically replaces any previous one; in historical
// mode it is appended under a fresh discriminator and prior entries are
// untouched. Payloads outside the supported value space fail with
// *SerializationError before anything touches disk; filesystem failures
// fail with *StorageIOError.
func (s *Store) Write(key Key, payload any, hoard bool) (*Entry, error) {
	canon, err := canonicalizePayload(reflect.ValueOf(payload))
	if err != nil {
		return nil, err
	}

	dir := s.keyDir(key)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return nil, &StorageIOError{Op: "mkdir", Path: dir, Err: mkErr}
	}

	createdAt := s.now()
	disc := latestName
	if hoard {
		disc = discriminator(createdAt)
	}

	var buf bytes.Buffer
	if encErr := gob.NewEncoder(&buf).Encode(storedEntry{
		Key:       string(key),
		CreatedAt: createdAt,
		Payload:   canon,
	}); encErr != nil {
		return nil, &SerializationError{Type: fmt.Sprintf("%T", payload), Cause: encErr}
	}

	data := buf.Bytes()
	if s.compress {
		data = s.encoder.EncodeAll(data, nil)
	}

	path := filepath.Join(dir, disc+entryExt)
	if wErr := writeFileAtomic(path, data); wErr != nil {
		return nil, wErr
	}

	return &Entry{
		Key:           key,
		CreatedAt:     createdAt,
		Payload:       canon,
		Discriminator: disc,
		Size:          int64(len(data)),
	}, nil
}

// Inventory returns every stored entry grouped by hashed key directory,
// each group in ascending creation-time order. The raw keys are
// recovered from the entries themselves.
func (s *Store) Inventory() (map[string][]*Entry, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageIOError{Op: "list", Path: s.root, Err: err}
	}

	inv := make(map[string][]*Entry)
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		entries, err := s.readDir(filepath.Join(s.root, d.Name()))
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			inv[d.Name()] = entries
		}
	}
	return inv, nil
}

// PurgeOlderThan removes every entry created before cutoff and returns
// the number removed. Retention is the caller's policy; the store never
// removes historical entries on its own.
func (s *Store) PurgeOlderThan(cutoff time.Time) (int, error) {
	inv, err := s.Inventory()
	if err != nil {
		return 0, err
	}

	removed := 0
	for hashed, entries := range inv {
		dir := filepath.Join(s.root, hashed)
		for _, e := range entries {
			if !e.CreatedAt.Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Discriminator+entryExt)
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				return removed, &StorageIOError{Op: "remove", Path: path, Err: rmErr}
			}
			removed++
		}
		// Drop the key directory once emptied. Best-effort: a concurrent
		// writer may legitimately repopulate it first.
		_ = os.Remove(dir)
	}
	return removed, nil
}

func (s *Store) keyDir(key Key) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.root, hex.EncodeToString(sum[:16]))
}

func (s *Store) readDir(dir string) ([]*Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageIOError{Op: "list", Path: dir, Err: err}
	}

	entries := make([]*Entry, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || strings.HasSuffix(name, tmpSuffix) || !strings.HasSuffix(name, entryExt) {
			continue
		}
		e, err := s.readEntry(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if e == nil {
			continue // undecodable remnant, treat as absent
		}
		e.Discriminator = strings.TrimSuffix(name, entryExt)
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Discriminator < entries[j].Discriminator
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// readEntry decodes one entry file. A file that cannot be decoded is
// reported as nil rather than an error: an interrupted or foreign write
// must read as absent, never as a corrupt hit.
func (s *Store) readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageIOError{Op: "read", Path: path, Err: err}
	}
	size := int64(len(data))

	if bytes.HasPrefix(data, zstdMagic) {
		if data, err = s.decoder.DecodeAll(data, nil); err != nil {
			return nil, nil
		}
	}

	var se storedEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&se); err != nil {
		return nil, nil
	}

	return &Entry{
		Key:       Key(se.Key),
		CreatedAt: se.CreatedAt,
		Payload:   se.Payload,
		Size:      size,
	}, nil
}

// discriminator builds a unique name for a historical entry: a
// nanosecond timestamp, zero-padded so names sort chronologically, plus
// a random suffix against collisions under rapid successive writes.
func discriminator(t time.Time) string {
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("%020d-%s", t.UnixNano(), hex.EncodeToString(suffix[:]))
}

// writeFileAtomic writes to a temporary sibling and renames it into
// place, so a concurrent reader never observes a partial entry. The
// temporary name is unique per writer: concurrent writers racing on the
// same destination each publish their own complete file and the last
// rename wins.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)

	f, err := os.CreateTemp(dir, base+"-*"+tmpSuffix)
	if err != nil {
		return &StorageIOError{Op: "write", Path: path, Err: err}
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmp)
		return &StorageIOError{Op: "write", Path: tmp, Err: werr}
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &StorageIOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// canonicalizePayload validates v against the supported value space and
// rebuilds containers in canonical form: sequences as []any, mappings
// as map[string]any. Scalars keep their concrete type so numbers
// round-trip exactly.
func canonicalizePayload(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return scalarValue(v), nil

	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := canonicalizePayload(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, &SerializationError{Type: v.Type().String()}
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			elem, err := canonicalizePayload(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = elem
		}
		return out, nil

	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return canonicalizePayload(v.Elem())

	default:
		return nil, &SerializationError{Type: v.Type().String()}
	}
}

var scalarTypes = map[reflect.Kind]reflect.Type{
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
	reflect.String:  reflect.TypeOf(""),
}

// scalarValue strips named scalar types down to their predefined base
// type so the gob registrations above cover them.
func scalarValue(v reflect.Value) any {
	base := scalarTypes[v.Kind()]
	if v.Type() == base {
		return v.Interface()
	}
	return v.Convert(base).Interface()
}
