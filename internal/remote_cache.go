package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of local paths the cache remembers.
const DefaultCacheSize = 256

var errCacheClosed = errors.New("cache closed")

// CachedRef is a cache entry as listed by Entries
type CachedRef struct {
	Path     string          `json:"path" yaml:"path"`
	Ref      RemoteObjectRef `json:"ref" yaml:"ref"`
	StoredAt time.Time       `json:"stored_at" yaml:"stored_at"`
}

// RefStore is an optional durable backing for RemoteObjectCache
type RefStore interface {
	LoadRef(path string) (RemoteObjectRef, bool, error)
	SaveRef(path string, ref RemoteObjectRef, storedAt time.Time) error
	ListRefs() ([]CachedRef, error)
	DeleteAll() error
}

type cacheEntry struct {
	ref      RemoteObjectRef
	storedAt time.Time
}

// RemoteObjectCache maps local paths to the remote objects uploaded for them.
// Every operation holds one lock over the whole cache.
type RemoteObjectCache struct {
	mu     sync.Mutex
	items  *lru.Cache[string, cacheEntry]
	store  RefStore
	now    func() time.Time
	closed bool
}

// CacheOption configures a RemoteObjectCache
type CacheOption func(*RemoteObjectCache)

// WithRefStore makes the cache write through to, and read through from, store.
func WithRefStore(store RefStore) CacheOption {
	return func(c *RemoteObjectCache) {
		c.store = store
	}
}

// WithCacheClock overrides the clock used for expiry checks
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *RemoteObjectCache) {
		c.now = now
	}
}

// NewRemoteObjectCache creates an empty cache holding up to size paths.
// A non-positive size uses DefaultCacheSize.
func NewRemoteObjectCache(size int, opts ...CacheOption) (*RemoteObjectCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	items, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	c := &RemoteObjectCache{items: items, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lookup returns the unexpired reference for path. Expired entries are
// reported as absent. A non-nil error means the cache could not be consulted;
// callers should treat it as a miss.
func (c *RemoteObjectCache) Lookup(path string) (ref RemoteObjectRef, ok bool, err error) {
	key := cacheKey(path)
	err = c.withLock("lookup", func() error {
		now := c.now()
		if entry, hit := c.items.Get(key); hit {
			if entry.ref.ExpiredAt(now) {
				LogInfo("Cache expired for %s", path)
				return nil
			}
			ref, ok = entry.ref, true
			return nil
		}
		if c.store == nil {
			return nil
		}
		stored, found, err := c.store.LoadRef(key)
		if err != nil {
			return err
		}
		if !found || stored.ExpiredAt(now) {
			return nil
		}
		c.items.Add(key, cacheEntry{ref: stored, storedAt: now})
		ref, ok = stored, true
		return nil
	})
	if err != nil {
		return RemoteObjectRef{}, false, err
	}
	return ref, ok, nil
}

// Insert replaces any prior entry for path
func (c *RemoteObjectCache) Insert(path string, ref RemoteObjectRef) error {
	key := cacheKey(path)
	return c.withLock("insert", func() error {
		now := c.now()
		c.items.Add(key, cacheEntry{ref: ref, storedAt: now})
		if c.store != nil {
			return c.store.SaveRef(key, ref, now)
		}
		return nil
	})
}

// Entries lists the in-memory entries, oldest first
func (c *RemoteObjectCache) Entries() []CachedRef {
	var out []CachedRef
	_ = c.withLock("list", func() error {
		for _, key := range c.items.Keys() {
			if entry, ok := c.items.Peek(key); ok {
				out = append(out, CachedRef{Path: key, Ref: entry.ref, StoredAt: entry.storedAt})
			}
		}
		return nil
	})
	return out
}

// Purge drops every entry, including those in the durable store
func (c *RemoteObjectCache) Purge() error {
	return c.withLock("purge", func() error {
		c.items.Purge()
		if c.store != nil {
			return c.store.DeleteAll()
		}
		return nil
	})
}

// Close makes every later operation report the cache as unavailable
func (c *RemoteObjectCache) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// withLock runs fn under the cache lock. A panic inside the critical section
// is recovered and reported as CacheUnavailableError so the caller can carry on.
func (c *RemoteObjectCache) withLock(op string, fn func() error) (err error) {
	if c == nil {
		return &CacheUnavailableError{Op: op, Err: errors.New("no cache configured")}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = &CacheUnavailableError{Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if c.closed {
		return &CacheUnavailableError{Op: op, Err: errCacheClosed}
	}
	if err := fn(); err != nil {
		return &CacheUnavailableError{Op: op, Err: err}
	}
	return nil
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
