package security

import (
	"container/list"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrRateLimitExceeded is returned by RateLimiter.Check when the caller has
// exhausted its budget for the current window.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// EndpointClass is a coarse category used to apply different ceilings to
// different operation types. Classifying a route into a class is a static
// decision made by the HTTP layer, not by the limiter.
type EndpointClass string

const (
	ClassGeneral EndpointClass = "general"
	ClassAuth    EndpointClass = "auth"
	ClassCreate  EndpointClass = "create"
)

// ClassLimit is the ceiling for one endpoint class within the shared window.
type ClassLimit struct {
	// MaxRequests is the number of requests admitted per window.
	MaxRequests int
}

// DefaultClassLimits are the per-class ceilings applied when a RateLimiter
// is constructed without explicit configuration.
var DefaultClassLimits = map[EndpointClass]ClassLimit{
	ClassGeneral: {MaxRequests: 100},
	ClassAuth:    {MaxRequests: 10},
	ClassCreate:  {MaxRequests: 5},
}

const (
	// DefaultWindow is the fixed rate-limit window size.
	DefaultWindow = time.Minute

	// DefaultMaxEntries bounds the number of (client, class) pairs tracked
	// simultaneously; least recently used pairs are evicted beyond it.
	DefaultMaxEntries = 10000

	// DefaultRateLimitCleanupInterval is how often idle counters are swept.
	DefaultRateLimitCleanupInterval = 5 * time.Minute
)

// rateKey identifies one counter: a client identifier within one class.
type rateKey struct {
	clientID string
	class    EndpointClass
}

// rateRecord is a fixed-window counter. The count only moves forward within
// a window; it resets when the window has fully elapsed.
type rateRecord struct {
	key         rateKey
	count       int
	windowStart time.Time
	lastAccess  time.Time
}

// Decision describes the outcome of a Check call for response headers.
type Decision struct {
	// Remaining is the number of requests still admitted in this window.
	Remaining int

	// Reset is when the current window rolls over.
	Reset time.Time
}

// RateLimiter applies per-client fixed-window rate limits with independent
// ceilings per endpoint class. Windows are fixed, not sliding: the counter
// resets entirely once the window has elapsed, which admits brief bursts at
// window boundaries in exchange for a much simpler shared-state model.
type RateLimiter struct {
	mu      sync.RWMutex
	records map[rateKey]*list.Element // key -> list element
	lruList *list.List                // LRU list of *rateRecord

	limits     map[EndpointClass]ClassLimit
	window     time.Duration
	maxEntries int

	logger          *slog.Logger
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	// Statistics
	totalAllowed   int64
	totalBlocked   int64
	totalEvictions int64
	totalCleanups  int64
}

// NewRateLimiter creates a rate limiter with the default class ceilings,
// window, and entry bound.
func NewRateLimiter(logger *slog.Logger) *RateLimiter {
	return NewRateLimiterWithConfig(nil, DefaultWindow, DefaultMaxEntries, logger)
}

// NewRateLimiterWithConfig creates a rate limiter with custom class limits,
// window size, and maximum tracked entries. Nil or empty limits fall back to
// DefaultClassLimits; classes missing from limits use the general ceiling.
// Set maxEntries to 0 for unlimited (not recommended for production).
func NewRateLimiterWithConfig(limits map[EndpointClass]ClassLimit, window time.Duration, maxEntries int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if len(limits) == 0 {
		limits = DefaultClassLimits
	}
	if window <= 0 {
		window = DefaultWindow
		logger.Warn("Invalid rate limit window, using default", "window", window)
	}
	if maxEntries < 0 {
		maxEntries = DefaultMaxEntries
		logger.Warn("Invalid maxEntries, using default", "maxEntries", maxEntries)
	}

	rl := &RateLimiter{
		records:         make(map[rateKey]*list.Element),
		lruList:         list.New(),
		limits:          limits,
		window:          window,
		maxEntries:      maxEntries,
		logger:          logger,
		cleanupInterval: DefaultRateLimitCleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	// Start background cleanup goroutine
	go rl.cleanupLoop()

	return rl
}

// limitFor resolves the ceiling for a class, defaulting unknown classes to
// the general tier so misclassified routes fail toward the loosest ceiling
// rather than an unbounded one.
func (rl *RateLimiter) limitFor(class EndpointClass) ClassLimit {
	if limit, ok := rl.limits[class]; ok {
		return limit
	}
	if limit, ok := rl.limits[ClassGeneral]; ok {
		return limit
	}
	return DefaultClassLimits[ClassGeneral]
}

// Check increments and evaluates the counter for (clientID, class).
// The increment happens before the ceiling comparison and is never rolled
// back: a rejected request still consumed budget. The counter saturates at
// ceiling+1 so a flooding client cannot grow it without bound; within a
// window the count never decreases.
func (rl *RateLimiter) Check(clientID string, class EndpointClass) (Decision, error) {
	now := time.Now()
	limit := rl.limitFor(class)
	key := rateKey{clientID: clientID, class: class}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	var rec *rateRecord
	if elem, exists := rl.records[key]; exists {
		rl.lruList.MoveToFront(elem)
		rec = elem.Value.(*rateRecord)
		rec.lastAccess = now

		if now.Sub(rec.windowStart) > rl.window {
			rec.count = 0
			rec.windowStart = now
		}
	} else {
		if rl.maxEntries > 0 && len(rl.records) >= rl.maxEntries {
			rl.evictLRU()
		}

		rec = &rateRecord{key: key, windowStart: now, lastAccess: now}
		rl.records[key] = rl.lruList.PushFront(rec)
	}

	// Saturating increment: once past the ceiling there is nothing to learn
	// from a bigger number, and capping keeps a flooded counter bounded.
	if rec.count <= limit.MaxRequests {
		rec.count++
	}

	decision := Decision{
		Remaining: max(limit.MaxRequests-rec.count, 0),
		Reset:     rec.windowStart.Add(rl.window),
	}

	if rec.count > limit.MaxRequests {
		rl.totalBlocked++
		rl.logger.Warn("rate limit exceeded",
			"client_id", clientID,
			"class", string(class),
			"max_requests", limit.MaxRequests,
			"window", rl.window,
			"total_blocked", rl.totalBlocked)
		return decision, fmt.Errorf("%w: class %s", ErrRateLimitExceeded, class)
	}

	rl.totalAllowed++
	return decision, nil
}

// evictLRU removes the least recently used counter.
// Must be called with the mutex held.
func (rl *RateLimiter) evictLRU() {
	elem := rl.lruList.Back()
	if elem == nil {
		return
	}

	rec := elem.Value.(*rateRecord)
	delete(rl.records, rec.key)
	rl.lruList.Remove(elem)
	rl.totalEvictions++

	rl.logger.Debug("rate limiter LRU eviction",
		"client_id", rec.key.clientID,
		"class", string(rec.key.class),
		"total_evictions", rl.totalEvictions,
		"current_entries", len(rl.records))
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// Cleanup removes counters that have been idle for more than two windows;
// anything older cannot influence a ceiling decision anymore.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	maxIdleTime := rl.window * 2
	removed := 0

	var next *list.Element
	for elem := rl.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		rec := elem.Value.(*rateRecord)

		if now.Sub(rec.lastAccess) > maxIdleTime {
			delete(rl.records, rec.key)
			rl.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		rl.totalCleanups++
		rl.logger.Debug("rate limiter cleanup completed",
			"removed", removed,
			"remaining", len(rl.records),
			"total_cleanups", rl.totalCleanups)
	}
}

// Stop gracefully stops the cleanup goroutine. Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// RateLimiterStats holds limiter counters for monitoring and alerting.
type RateLimiterStats struct {
	CurrentEntries int     // current number of tracked (client, class) pairs
	MaxEntries     int     // maximum allowed entries (0 = unlimited)
	TotalAllowed   int64   // total requests admitted
	TotalBlocked   int64   // total requests rejected
	TotalEvictions int64   // total LRU evictions
	TotalCleanups  int64   // total cleanup passes that removed entries
	MemoryPressure float64 // percentage of max capacity used (0-100)
}

// GetStats returns a snapshot of limiter statistics.
func (rl *RateLimiter) GetStats() RateLimiterStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	stats := RateLimiterStats{
		CurrentEntries: len(rl.records),
		MaxEntries:     rl.maxEntries,
		TotalAllowed:   rl.totalAllowed,
		TotalBlocked:   rl.totalBlocked,
		TotalEvictions: rl.totalEvictions,
		TotalCleanups:  rl.totalCleanups,
	}

	if rl.maxEntries > 0 {
		stats.MemoryPressure = float64(stats.CurrentEntries) / float64(stats.MaxEntries) * 100.0
	}

	return stats
}
