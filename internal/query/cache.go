package query

import (
	"strings"
	"time"

	"github.com/srwlli/coderef/pkg/coderef"
)

// keySeparator joins operation and arguments into a canonical cache key.
// NUL never appears in kinds, paths, or metadata values.
const keySeparator = "\x00"

// cacheKey builds the canonical key for one (operation, arguments) pair.
func cacheKey(op string, args []string) string {
	return op + keySeparator + strings.Join(args, keySeparator)
}

// cached runs one cacheable query: serve a live entry on hit, otherwise
// compute, store, and let the LRU evict the least recently used entry once
// at capacity. TTL expiry is handled inside the cache itself.
func (e *Engine) cached(op string, args []string, fetch func() []*coderef.IndexRecord) *Result {
	start := time.Now()
	e.totalQueries++

	if !e.enabled {
		return newResult(fetch(), start, false)
	}

	key := cacheKey(op, args)
	if recs, ok := e.cache.Get(key); ok {
		e.cacheHits++
		return newResult(recs, start, true)
	}
	e.cacheMisses++

	recs := fetch()
	e.cache.Add(key, recs)
	return newResult(recs, start, false)
}

// Stats summarizes query-engine activity.
type Stats struct {
	TotalQueries int     `json:"total_queries"`
	CacheHits    int     `json:"cache_hits"`
	CacheMisses  int     `json:"cache_misses"`
	CacheSize    int     `json:"cache_size"`
	HitRate      float64 `json:"hit_rate"`
}

// GetStats returns current counters. HitRate is hits over consulted
// lookups; queries made while caching was disabled count toward neither.
func (e *Engine) GetStats() Stats {
	var hitRate float64
	if consulted := e.cacheHits + e.cacheMisses; consulted > 0 {
		hitRate = float64(e.cacheHits) / float64(consulted)
	}
	return Stats{
		TotalQueries: e.totalQueries,
		CacheHits:    e.cacheHits,
		CacheMisses:  e.cacheMisses,
		CacheSize:    e.cache.Len(),
		HitRate:      hitRate,
	}
}

// ClearCache drops all cached results; counters are kept.
func (e *Engine) ClearCache() {
	e.cache.Purge()
}

// EnableCache turns result caching on.
func (e *Engine) EnableCache() {
	e.enabled = true
}

// DisableCache turns result caching off and drops existing entries, so a
// re-enable never serves results cached under an earlier configuration.
func (e *Engine) DisableCache() {
	e.enabled = false
	e.cache.Purge()
}

// CachingEnabled reports whether results are currently being cached.
func (e *Engine) CachingEnabled() bool {
	return e.enabled
}
