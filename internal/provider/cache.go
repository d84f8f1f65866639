package provider

import (
	"sync"
	"time"

	"github.com/iD01t/CryptoPulse/internal/models"
)

// DefaultCacheTTL is the freshness window for cached readings.
const DefaultCacheTTL = 30 * time.Second

// ReadCache holds the most recent validated reading to avoid redundant
// network calls when polls race or run faster than vendor limits allow.
// It is not a source of truth for history.
type ReadCache struct {
	mu      sync.Mutex
	reading models.Reading
	setAt   time.Time
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time
}

// NewReadCache returns a cache with the given freshness window.
// A non-positive ttl falls back to the default.
func NewReadCache(ttl time.Duration) *ReadCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ReadCache{ttl: ttl, now: time.Now}
}

// SetClock replaces the cache's time source. Intended for tests.
func (c *ReadCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached reading if it is still within the TTL.
func (c *ReadCache) Get() (models.Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.setAt.IsZero() || c.now().Sub(c.setAt) >= c.ttl {
		c.misses++
		return models.Reading{}, false
	}
	c.hits++
	return c.reading, true
}

// Peek returns the last stored reading regardless of freshness. Used by
// normalization to backfill optional fields, never as a cycle result.
func (c *ReadCache) Peek() (models.Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading, !c.setAt.IsZero()
}

// Put stores a reading, replacing any previous one.
func (c *ReadCache) Put(r models.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reading = r
	c.setAt = c.now()
}

// Stats reports hit and miss counts since construction.
func (c *ReadCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
