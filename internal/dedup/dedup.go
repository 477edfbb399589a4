package dedup

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultMaxEntries caps the cache; oldest entries are evicted first
	DefaultMaxEntries = 1000
	// DefaultTTL is how long a hash stays valid before Sweep removes it
	DefaultTTL = 24 * time.Hour
)

// Hash builds a content fingerprint from an article's title and summary.
// Whitespace runs collapse to single spaces and the text is lowercased
// before hashing, so cosmetic feed differences map to the same digest.
func Hash(title, summary string) string {
	content := strings.ToLower(title + " " + summary)
	content = strings.Join(strings.Fields(content), " ")
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

// Cache tracks content hashes seen during collection. It is not
// safe for concurrent use; collectors run sequentially and callers
// that need parallelism must serialize access themselves.
type Cache struct {
	entries    map[string]time.Time
	order      []string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewCache creates a cache with the default capacity and TTL
func NewCache() *Cache {
	return NewCacheWithLimits(DefaultMaxEntries, DefaultTTL)
}

// NewCacheWithLimits creates a cache with explicit capacity and TTL
func NewCacheWithLimits(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]time.Time),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// SetClock overrides the time source (used in tests)
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Seen reports whether a hash is already in the cache
func (c *Cache) Seen(hash string) bool {
	_, ok := c.entries[hash]
	return ok
}

// Add records a hash. Re-adding an existing hash is a no-op, so the
// cache never grows from duplicates. When the capacity is exceeded the
// oldest entries by insertion order are evicted until the cache is
// back at capacity.
func (c *Cache) Add(hash string) {
	if _, ok := c.entries[hash]; ok {
		return
	}

	c.entries[hash] = c.now()
	c.order = append(c.order, hash)

	for len(c.entries) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Sweep removes entries older than the TTL and returns how many were
// dropped. Collectors call this at the start of a run; there is no
// background goroutine.
func (c *Cache) Sweep() int {
	cutoff := c.now().Add(-c.ttl)

	var removed int
	kept := c.order[:0]
	for _, hash := range c.order {
		seen, ok := c.entries[hash]
		if !ok {
			continue
		}
		if seen.Before(cutoff) {
			delete(c.entries, hash)
			removed++
			continue
		}
		kept = append(kept, hash)
	}
	c.order = kept

	return removed
}

// Clear drops all entries
func (c *Cache) Clear() {
	c.entries = make(map[string]time.Time)
	c.order = nil
}

// Len returns the number of tracked hashes
func (c *Cache) Len() int {
	return len(c.entries)
}
