// Package cache provides an in-memory response cache with per-entry TTL.
// Entries are evicted lazily on read; an optional background sweep bounds
// memory held by keys that are written but rarely read again.
//
// The cache is safe for concurrent use and is suitable for single-instance
// deployments only: contents are lost on process restart.
package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultTTL is used when Set is called with a non-positive TTL.
	DefaultTTL = 5 * time.Minute

	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = time.Minute
)

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Cache is a concurrency-safe key/value store with absolute per-entry expiry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
	logger        *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache with the default sweep interval.
func New(logger *slog.Logger) *Cache {
	return NewWithInterval(DefaultSweepInterval, logger)
}

// NewWithInterval creates a cache with a custom background sweep interval.
// A non-positive interval falls back to the default.
func NewWithInterval(sweepInterval time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	c := &Cache{
		entries:       make(map[string]entry),
		sweepInterval: sweepInterval,
		stopSweep:     make(chan struct{}),
		logger:        logger,
	}

	go c.sweepLoop()

	return c
}

// Get returns the live value for key, or (nil, false) when the key is absent
// or expired. An expired entry is removed on detection and never returned.
func (c *Cache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if e.expired(now) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have replaced
		// the entry with a fresh one since the read.
		if cur, still := c.entries[key]; still && cur.expired(now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key for the given TTL, replacing any existing entry.
// Non-positive TTLs fall back to DefaultTTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key from the cache. Deleting an absent key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop gracefully stops the background sweep. Safe to call multiple times.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopSweep)
	})
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopSweep:
			return
		}
	}
}

// sweep removes all expired entries. Get already evicts lazily; the sweep
// only bounds memory for keys that stop being read.
func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	remaining := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.logger.Debug("cache sweep completed",
			"removed", removed,
			"remaining", remaining)
	}
}

// Stats holds cache counters for monitoring.
type Stats struct {
	Entries int   // current number of stored entries
	Hits    int64 // total Get calls that returned a live value
	Misses  int64 // total Get calls that found nothing usable
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
