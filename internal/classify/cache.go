package classify

import (
	"sort"
	"sync"
	"time"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

const (
	resultCacheTTL     = 5 * time.Minute
	resultCacheMaxSize = 1000
	resultCacheEvict   = 500
)

// resultCache memoizes pipeline output per normalized query. Entries expire
// after a short TTL; when the cache passes its cap the oldest half is
// evicted in one sweep.
type resultCache struct {
	entries map[string]resultCacheEntry
	mu      sync.RWMutex
}

type resultCacheEntry struct {
	storedAt time.Time
	results  []model.ClassificationResult
}

func newResultCache() *resultCache {
	return &resultCache{
		entries: make(map[string]resultCacheEntry),
	}
}

func (c *resultCache) get(key string) ([]model.ClassificationResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Since(entry.storedAt) > resultCacheTTL {
		return nil, false
	}
	return entry.results, true
}

func (c *resultCache) put(key string, results []model.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = resultCacheEntry{
		storedAt: time.Now(),
		results:  results,
	}

	if len(c.entries) <= resultCacheMaxSize {
		return
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, entry := range c.entries {
		all = append(all, aged{key: k, storedAt: entry.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })

	for i := 0; i < resultCacheEvict && i < len(all); i++ {
		delete(c.entries, all[i].key)
	}
}
