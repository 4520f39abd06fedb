package llm

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// suggestionCache memoizes provider answers per description so a burst of
// identical queries costs one upstream call. Entries expire after the TTL;
// when the cache passes its cap the oldest half is evicted in one sweep.
type suggestionCache struct {
	entries map[string]cachedSuggestion
	ttl     time.Duration
	maxSize int
	mu      sync.RWMutex
}

type cachedSuggestion struct {
	storedAt   time.Time
	suggestion Suggestion
	provider   string
}

func newSuggestionCache(ttl time.Duration, maxSize int) *suggestionCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 500
	}
	return &suggestionCache{
		entries: make(map[string]cachedSuggestion),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func cacheKey(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

func (c *suggestionCache) get(description string) (Suggestion, string, time.Duration, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(description)]
	c.mu.RUnlock()

	if !ok {
		return Suggestion{}, "", 0, false
	}

	age := time.Since(entry.storedAt)
	if age > c.ttl {
		return Suggestion{}, "", 0, false
	}
	return entry.suggestion, entry.provider, age, true
}

func (c *suggestionCache) put(description string, suggestion Suggestion, provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(description)] = cachedSuggestion{
		storedAt:   time.Now(),
		suggestion: suggestion,
		provider:   provider,
	}

	if len(c.entries) <= c.maxSize {
		return
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for key, entry := range c.entries {
		all = append(all, aged{key: key, storedAt: entry.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })

	for i := 0; i < len(all)/2; i++ {
		delete(c.entries, all[i].key)
	}
}
