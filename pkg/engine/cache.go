package engine

import (
	"sync"
	"time"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// cacheEntry holds a cached result with its absolute expiry. A zero expiry
// means the entry never expires.
type cacheEntry struct {
	result    *models.AnalysisResult
	expiresAt time.Time
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Size        int     `json:"size"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
	HitRate     float64 `json:"hit_rate"`
}

// resultCache is a capacity-bound TTL cache keyed by fingerprint. When full
// it evicts the oldest-inserted entry, not the least recently used one;
// overwriting a key keeps its original insertion position.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	capacity int
	now      func() time.Time

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
}

func newResultCache(capacity int, now func() time.Time) *resultCache {
	if capacity < 1 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	return &resultCache{
		entries:  make(map[string]*cacheEntry),
		capacity: capacity,
		now:      now,
	}
}

// Get returns the cached result for key, deleting it first when expired.
// The stored pointer is returned as-is.
func (c *resultCache) Get(key string) (*models.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if entry.expired(c.now()) {
		delete(c.entries, key)
		c.expirations++
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.result, true
}

// Put stores a result under key with expiry now+ttl. A non-positive ttl
// stores the entry without expiry. At capacity the oldest-inserted live
// entry is evicted first.
func (c *resultCache) Put(key string, result *models.AnalysisResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &cacheEntry{result: result, expiresAt: expiresAt}
		return
	}

	c.evictOldestLocked(c.capacity - 1)
	c.entries[key] = &cacheEntry{result: result, expiresAt: expiresAt}
	c.order = append(c.order, key)
}

// evictOldestLocked pops insertion-order heads until at most limit live
// entries remain. Stale heads left behind by lazy expiry are skipped without
// counting as evictions.
func (c *resultCache) evictOldestLocked(limit int) {
	for len(c.entries) > limit && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, live := c.entries[oldest]; live {
			delete(c.entries, oldest)
			c.evictions++
		}
	}
}

// Sweep removes every expired entry and compacts the insertion queue.
// Returns the number of entries removed.
func (c *resultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.expirations += uint64(removed)

	if len(c.order) > len(c.entries) {
		live := make([]string, 0, len(c.entries))
		for _, key := range c.order {
			if _, ok := c.entries[key]; ok {
				live = append(live, key)
			}
		}
		c.order = live
	}
	return removed
}

// setCapacity resizes the cache, evicting oldest-inserted entries when the
// new capacity is below the current size. Values below 1 are ignored.
func (c *resultCache) setCapacity(capacity int) {
	if capacity < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = capacity
	c.evictOldestLocked(capacity)
}

// Flush drops all entries and zeroes the counters.
func (c *resultCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = nil
	c.hits, c.misses, c.evictions, c.expirations = 0, 0, 0, 0
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *resultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:        len(c.entries),
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	if lookups := c.hits + c.misses; lookups > 0 {
		stats.HitRate = float64(c.hits) / float64(lookups)
	}
	return stats
}
