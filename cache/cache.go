// Package cache is a small in-memory cache for acquisition responses, so
// repeated pulls of the same financial page within a caller-chosen freshness
// window skip the fetch/render machinery entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/finsight-hq/finsight/models"
)

// entry holds a cached response with its creation timestamp.
type entry struct {
	response  *models.AcquireResponse
	createdAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache with the given maximum number of entries.
// A background goroutine runs every 5 minutes to evict entries older than
// an hour, the longest freshness window the API accepts.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the URL and content format. Facts are
// derived from the same content, so they never vary within a key.
func Key(url, contentFormat string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(contentFormat))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached response if it exists and is younger than maxAge.
// maxAge is in seconds; maxAge <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAgeSec int) (*models.AcquireResponse, bool) {
	if maxAgeSec <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Since(e.createdAt) > time.Duration(maxAgeSec)*time.Second {
		return nil, false
	}

	return e.response, true
}

// Set stores a response. Failed acquisitions are not cached; staleness
// should never pin a transient failure.
func (c *Cache) Set(key string, resp *models.AcquireResponse) {
	if resp == nil || !resp.Success {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		response:  resp,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
