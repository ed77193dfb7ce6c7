package knackpy

import (
	"sort"
	"sync"
)

// cacheEntry is the most recent raw batch fetched for one container, together
// with the parameters used to obtain it.
type cacheEntry struct {
	records     []RawRecord
	filters     *Filters
	recordLimit int
}

// recordCache holds at most one entry per container key (object key or view
// key; the two spaces are disjoint). Entries are replaced whole on refresh and
// never expire. The cache is not parameterized by query shape: a container has
// one "current" view of its data regardless of the filters that produced it.
//
// The mutex makes individual operations safe to call from multiple goroutines,
// though the client as a whole is designed for a single logical owner.
type recordCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newRecordCache() *recordCache {
	return &recordCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached entry for key, if any.
func (rc *recordCache) Get(key string) (cacheEntry, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	entry, ok := rc.entries[key]
	return entry, ok
}

// Put stores entry under key, replacing any prior entry whole.
func (rc *recordCache) Put(key string, entry cacheEntry) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[key] = entry
}

// Invalidate drops the entry for key, if any.
func (rc *recordCache) Invalidate(key string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.entries, key)
}

// Keys returns the cached container keys, sorted for determinism.
func (rc *recordCache) Keys() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	keys := make([]string, 0, len(rc.entries))
	for key := range rc.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached containers.
func (rc *recordCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}
