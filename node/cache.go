package node

import (
	"sync"
	"time"
)

// cacheEntry stores the engine output for one input. Failed parses are
// cached too, so a bad statement is not re-sent to the engine.
type cacheEntry struct {
	tree      []byte
	stderr    string
	err       error
	expiresAt time.Time // zero means no expiry
}

// Cache stores engine parse output keyed by input text.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached output for sql. ok is false if the entry
	// doesn't exist or is expired.
	Get(sql string) (tree []byte, stderr string, err error, ok bool)

	// Set stores the engine output for sql.
	Set(sql string, tree []byte, stderr string, err error)
}

// CacheImpl is the default in-memory cache with optional TTL.
// It grows unbounded within its TTL window.
type CacheImpl struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration // 0 means no expiry
	now   func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*CacheImpl)

// WithTTL sets the time-to-live for cache entries. A TTL of 0 (default)
// means entries never expire within the cache's lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CacheImpl) {
		c.ttl = ttl
	}
}

// NewCache creates a new parse cache.
func NewCache(opts ...CacheOption) *CacheImpl {
	c := &CacheImpl{
		items: make(map[string]cacheEntry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves cached engine output.
func (c *CacheImpl) Get(sql string) ([]byte, string, error, bool) {
	c.mu.RLock()
	entry, ok := c.items[sql]
	c.mu.RUnlock()

	if !ok {
		return nil, "", nil, false
	}

	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, sql)
		c.mu.Unlock()
		return nil, "", nil, false
	}

	return entry.tree, entry.stderr, entry.err, true
}

// Set stores engine output. The tree is copied so later writes by the
// engine's caller cannot change the cached bytes.
func (c *CacheImpl) Set(sql string, tree []byte, stderr string, err error) {
	entry := cacheEntry{
		tree:   append([]byte(nil), tree...),
		stderr: stderr,
		err:    err,
	}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[sql] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
func (c *CacheImpl) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache.
func (c *CacheImpl) Clear() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Ensure CacheImpl implements Cache.
var _ Cache = (*CacheImpl)(nil)
