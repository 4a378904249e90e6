package cache

import (
	"time"

	"github.com/charmbracelet/log"
)

// Func is the shape of a wrappable function: positional arguments in,
// one result or an error out. A trailing Kwargs argument is treated as
// keyword arguments.
type Func func(args ...any) (any, error)

// KeyFunc customizes key derivation for a wrapped function. name is the
// identity the function was wrapped under.
type KeyFunc func(name string, args []any, kwargs Kwargs) (Key, error)

// Config describes one cache instance. Multiple independently
// configured caches coexist safely as long as their directories differ.
type Config struct {
	// Dir is the root directory for persisted entries, created on
	// demand. Defaults to "cache".
	Dir string

	// Reachback is the staleness spec consumed by ParseStaleness.
	// Empty means "never": stored entries stay fresh indefinitely.
	Reachback string

	// Hoard selects historical storage: every result is retained under
	// its own timestamped entry instead of replacing the previous one.
	Hoard bool

	// Compression stores entries zstd-compressed.
	Compression bool

	// KeyFunc overrides BuildKey for key derivation when set.
	KeyFunc KeyFunc
}

// Cache wraps functions so their results are persisted to disk and
// reused until they go stale.
type Cache struct {
	store     *Store
	staleness Staleness
	hoard     bool
	keyFunc   KeyFunc

	now func() time.Time
}

// New builds a cache from cfg. The reachback spec is parsed once, up
// front, so a bad spec fails here rather than on first call.
func New(cfg Config) (*Cache, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "cache"
	}

	staleness := Forever
	if cfg.Reachback != "" {
		var err error
		if staleness, err = ParseStaleness(cfg.Reachback); err != nil {
			return nil, err
		}
	}

	store, err := NewStore(dir, cfg.Compression)
	if err != nil {
		return nil, err
	}

	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = BuildKey
	}

	return &Cache{
		store:     store,
		staleness: staleness,
		hoard:     cfg.Hoard,
		keyFunc:   keyFunc,
		now:       time.Now,
	}, nil
}

// Store exposes the underlying entry store, for inventory tooling and
// direct reads.
func (c *Cache) Store() *Store { return c.store }

// Wrap returns fn augmented with caching under the identity name. Per
// invocation the wrapped function runs at most once: on a fresh hit it
// is skipped entirely, on a miss or stale hit it runs and a successful
// non-nil result is persisted. Errors from fn propagate unchanged with
// nothing written; the cache never retries.
func (c *Cache) Wrap(name string, fn Func) Func {
	return func(args ...any) (any, error) {
		pos, kwargs := splitKwargs(args)

		key, err := c.keyFunc(name, pos, kwargs)
		if err != nil {
			return nil, err
		}

		latest, err := c.store.ReadLatest(key)
		if err != nil {
			return nil, err
		}
		if latest != nil && !c.staleness.Expired(latest.CreatedAt, c.now()) {
			log.Debug("cache hit", "call", key, "age", c.now().Sub(latest.CreatedAt))
			return latest.Payload, nil
		}

		result, err := fn(args...)
		if err != nil {
			return nil, err
		}
		if result == nil {
			log.Debug("result was nil, not caching", "call", key)
			return nil, nil
		}

		entry, err := c.store.Write(key, result, c.hoard)
		if err != nil {
			return nil, err
		}
		log.Debug("cached result", "call", key, "entry", entry.Discriminator)
		// Hand back the stored payload, not the raw result, so misses
		// and later hits yield the same canonical shape.
		return entry.Payload, nil
	}
}

// splitKwargs peels a trailing Kwargs argument off the positional list.
func splitKwargs(args []any) ([]any, Kwargs) {
	if n := len(args); n > 0 {
		if kw, ok := args[n-1].(Kwargs); ok {
			return args[:n-1], kw
		}
	}
	return args, nil
}
