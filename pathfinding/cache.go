package pathfinding

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"riserroute/graph"
)

// CacheKey identifies one search: endpoints plus hashes of its overlay and domain filter.
type CacheKey struct {
	From, To    graph.NodeID
	BlockedHash uint64
	DomainHash  uint64
}

type cacheEntry struct {
	path  Path
	found bool
}

// Cache stores search results, including misses, for reuse across connectors and zones.
type Cache struct {
	mu        sync.RWMutex
	entries   map[CacheKey]cacheEntry
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewCache creates a cache holding at most maxSize results; 0 means unbounded.
func NewCache(maxSize int) *Cache {
	return &Cache{
		entries: make(map[CacheKey]cacheEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a result if present.
func (c *Cache) Get(key CacheKey) (Path, bool, bool) {
	c.mu.RLock()
	e, hit := c.entries[key]
	c.mu.RUnlock()

	if hit {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	return clonePath(e.path), e.found, hit
}

// Put stores a result.
func (c *Cache) Put(key CacheKey, p Path, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		// Any entry will do; results are pure functions of the key.
		for k := range c.entries {
			delete(c.entries, k)
			atomic.AddInt64(&c.evictions, 1)
			break
		}
	}
	c.entries[key] = cacheEntry{path: clonePath(p), found: found}
}

// Clear removes all entries and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey]cacheEntry)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.evictions, 0)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses, evictions, size int) {
	c.mu.RLock()
	size = len(c.entries)
	c.mu.RUnlock()

	hits = int(atomic.LoadInt64(&c.hits))
	misses = int(atomic.LoadInt64(&c.misses))
	evictions = int(atomic.LoadInt64(&c.evictions))
	return hits, misses, evictions, size
}

func (c *Cache) String() string {
	hits, misses, evictions, size := c.Stats()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return fmt.Sprintf("PathCache[size=%d/%d, hits=%d, misses=%d, hitRate=%.1f%%, evictions=%d]",
		size, c.maxSize, hits, misses, hitRate, evictions)
}

func clonePath(p Path) Path {
	p.Nodes = append([]graph.NodeID(nil), p.Nodes...)
	return p
}

// CachedFinder wraps a Finder with a result cache. One CachedFinder serves one graph.
type CachedFinder struct {
	finder Finder
	cache  *Cache
}

// NewCachedFinder creates a cached finder.
func NewCachedFinder(finder Finder, cacheSize int) *CachedFinder {
	return &CachedFinder{finder: finder, cache: NewCache(cacheSize)}
}

// FindPath returns a cached result when the same search has run before.
func (cf *CachedFinder) FindPath(g *graph.MultiDomainGraph, src, dst graph.NodeID, opts Options) (Path, bool) {
	key := KeyFor(src, dst, opts)
	if p, found, hit := cf.cache.Get(key); hit {
		return p, found
	}
	p, found := cf.finder.FindPath(g, src, dst, opts)
	cf.cache.Put(key, p, found)
	return p, found
}

// CacheStats returns the cache statistics line.
func (cf *CachedFinder) CacheStats() string {
	return cf.cache.String()
}

// KeyFor builds the cache key of a search.
func KeyFor(src, dst graph.NodeID, opts Options) CacheKey {
	return CacheKey{
		From:        src,
		To:          dst,
		BlockedHash: hashBlocked(opts.Blocked),
		DomainHash:  hashDomains(opts.Domains),
	}
}

func hashBlocked(blocked map[graph.NodeID]bool) uint64 {
	ids := make([]int, 0, len(blocked))
	for id, on := range blocked {
		if on {
			ids = append(ids, int(id))
		}
	}
	if len(ids) == 0 {
		return 0
	}
	sort.Ints(ids)
	h := fnv.New64a()
	for _, id := range ids {
		h.Write([]byte(strconv.Itoa(id)))
		h.Write([]byte{','})
	}
	return h.Sum64()
}

func hashDomains(domains map[string]bool) uint64 {
	if domains == nil {
		return 0
	}
	names := make([]string, 0, len(domains))
	for d, on := range domains {
		if on {
			names = append(names, d)
		}
	}
	sort.Strings(names)
	h := fnv.New64a()
	h.Write([]byte{'#'})
	for _, n := range names {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
