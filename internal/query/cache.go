// Package query is the client-side query cache. Reads go through Fetch,
// which serves fresh entries and retries failed fetches a fixed number of
// times. Writes never patch entries; they invalidate key prefixes so the
// next read refetches authoritative state.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Well-known key roots
const (
	Projects      = "projects"
	ProjectDetail = "project-detail"
	Tasks         = "tasks"
	TaskDetail    = "task-detail"
	UserProfile   = "user-profile"
	Users         = "users"
)

// Key identifies a cached query. The first element is the root; the rest
// are parameters (ids, filter structs), each compared by its JSON encoding.
type Key []any

// keySep cannot occur in JSON output: encoding/json escapes control bytes
const keySep = "\x1f"

func encodePart(part any) string {
	data, err := json.Marshal(part)
	if err != nil {
		return fmt.Sprintf("%T:%#v", part, part)
	}
	return string(data)
}

// String renders the key for map lookups and logs
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, part := range k {
		parts[i] = encodePart(part)
	}
	return strings.Join(parts, keySep)
}

// HasPrefix reports whether k starts with prefix
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if encodePart(k[i]) != encodePart(prefix[i]) {
			return false
		}
	}
	return true
}

type entry struct {
	key       Key
	value     any
	fetchedAt time.Time
	stale     bool
}

// Options configures a Cache
type Options struct {
	// Retry is how many times a failed fetch is retried
	Retry int
	// StaleTime is how long an entry stays fresh; 0 keeps it fresh until invalidated
	StaleTime time.Duration
	// RetryDelay is the pause between attempts
	RetryDelay time.Duration
}

// Cache holds fetched query results
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	opts    Options
	now     func() time.Time
}

// NewCache creates an empty cache
func NewCache(opts Options) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		opts:    opts,
		now:     time.Now,
	}
}

// Fetcher loads the value for a key
type Fetcher func(ctx context.Context) (any, error)

// Fetch returns the cached value for key if it is fresh, otherwise calls
// fetch (retrying on failure) and caches the result. A failed fetch leaves
// any previous entry untouched.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.Retry; attempt++ {
		if attempt > 0 && c.opts.RetryDelay > 0 {
			select {
			case <-time.After(c.opts.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		v, err := fetch(ctx)
		if err == nil {
			c.Set(key, v)
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// Get returns the cached value for key regardless of freshness
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key as fresh
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = &entry{key: key, value: value, fetchedAt: c.now()}
}

// IsStale reports whether key is missing or needs a refetch
func (c *Cache) IsStale(key Key) bool {
	_, ok := c.fresh(key)
	return !ok
}

// Invalidate marks every entry under prefix stale and returns how many
// entries it touched
func (c *Cache) Invalidate(prefix ...any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(Key(prefix)) {
			e.stale = true
			n++
		}
	}
	return n
}

// Clear drops every entry, e.g. on logout
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *Cache) fresh(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || e.stale {
		return nil, false
	}
	if c.opts.StaleTime > 0 && c.now().Sub(e.fetchedAt) > c.opts.StaleTime {
		return nil, false
	}
	return e.value, true
}

// FetchAs is Fetch with a typed result
func FetchAs[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cached value for %s has type %T", key, v)
	}
	return t, nil
}
