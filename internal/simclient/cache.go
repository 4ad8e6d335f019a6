package simclient

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"wealth-planner/internal/model"
)

// CacheEntry is one memoized simulation response.
type CacheEntry struct {
	Result    *model.SimulationResult
	ExpiresAt time.Time
}

// ResponseCache memoizes simulation results by request body, so dragging a
// point back to where it was does not run the simulation again.
//
// Results are Monte Carlo output: a cached entry is one sample, not the
// answer. Keep it off when comparing runs.
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// NewResponseCache creates a cache and starts its cleanup loop. Call Close
// to stop it.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &ResponseCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get returns a cached result if present and not expired.
func (c *ResponseCache) Get(key string) (*model.SimulationResult, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Result, true
}

func (c *ResponseCache) Set(key string, result *model.SimulationResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = &CacheEntry{Result: result, ExpiresAt: c.now().Add(c.ttl)}
}

// Len counts stored entries, expired ones included until cleanup runs.
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*CacheEntry)
}

// Close stops the cleanup loop.
func (c *ResponseCache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
}

func (c *ResponseCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *ResponseCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// CacheKey hashes an encoded request body.
func CacheKey(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
