/*
cache.go - TTL cache for evaluation results

PURPOSE:
  Repeated checks of the same pending request are common while a user edits
  a form. When rules.EnableCaching is on, identical (leave fingerprint,
  rules version) pairs are served from here until the entry expires.

CONSISTENCY:
  Only eventual invalidation is required. Entries embed the rules version,
  so a rule update (which bumps the version) orphans every old entry even
  before its TTL runs out; SetRules drops orphans via clear(). Expired
  entries are deleted on lookup and swept on every insert, so the map stays
  bounded by the working set of live fingerprints.
*/
package conflict

import (
	"fmt"
	"sync"
	"time"
)

type cacheKey string

func cacheKeyFor(leave Leave, rulesVersion int) cacheKey {
	return cacheKey(fmt.Sprintf("%s|%s|%s|%s|v%d",
		leave.UserID, leave.StartDate, leave.EndDate, leave.ID, rulesVersion))
}

type cacheEntry struct {
	result    CheckResult
	expiresAt time.Time
}

type resultCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[cacheKey]cacheEntry)}
}

func (c *resultCache) get(key cacheKey) (CheckResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return CheckResult{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent put may have
		// refreshed the entry in the meantime.
		if current, still := c.entries[key]; still && time.Now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return CheckResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key cacheKey, result CheckResult, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{result: result, expiresAt: now.Add(ttl)}
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
