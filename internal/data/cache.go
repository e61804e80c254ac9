package data

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// CacheEntry is one cached replay response.
type CacheEntry struct {
	Value     any
	ExpiresAt time.Time
}

// ResultCache keeps replay responses in memory. Replays are deterministic, so
// an identical request always maps to an identical response; the TTL only
// bounds memory.
type ResultCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
}

var globalCache *ResultCache
var cacheOnce sync.Once

// GetCache returns the process-wide cache if ENABLE_RESULT_CACHE=true, else nil.
// A nil *ResultCache is valid and never hits.
func GetCache() *ResultCache {
	if os.Getenv("ENABLE_RESULT_CACHE") != "true" {
		return nil
	}

	cacheOnce.Do(func() {
		ttl := 1 * time.Hour
		if ttlStr := os.Getenv("RESULT_CACHE_TTL"); ttlStr != "" {
			if parsed, err := time.ParseDuration(ttlStr); err == nil {
				ttl = parsed
			}
		}
		globalCache = NewResultCache(ttl)
		go globalCache.cleanup(5 * time.Minute)
	})

	return globalCache
}

func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
	}
}

// Get retrieves a cached value if available and not expired
func (c *ResultCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value in the cache
func (c *ResultCache) Set(key string, value any) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache
func (c *ResultCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// Len counts entries, expired or not.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// evictExpired removes entries past their TTL.
func (c *ResultCache) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

func (c *ResultCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for now := range ticker.C {
		c.evictExpired(now)
	}
}

// GenerateCacheKey hashes the JSON encoding of a request. Struct fields marshal
// in declaration order and map keys sorted, so equal requests give equal keys.
func GenerateCacheKey(req any) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(raw)
	return hex.EncodeToString(hash[:]), nil
}
