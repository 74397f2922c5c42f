package index

import "cmp"

// cachedResult is one entry of the prefix result cache (component D): the
// top-min(NumCacheResults, total_matches(prefix)) entries for a normalized
// prefix, kept in score-comparator order (invariant D1).
type cachedResult[K cmp.Ordered, V any] struct {
	prefix  string
	results []Entry[K, V]
}

// prefixCache is the coherent short-prefix result cache. All methods assume
// the caller already holds the façade's lock in the appropriate mode —
// prefixCache itself has no synchronization of its own, matching how the
// teacher's MemoryCache is the only lock owner for its map (here that role
// is instead played by the shared Index-level RWMutex, per spec §5's
// single-coarse-lock variant).
type prefixCache[K cmp.Ordered, V any] struct {
	maxPrefixLen int
	numResults   int
	entries      map[string]*cachedResult[K, V]
}

func newPrefixCache[K cmp.Ordered, V any](maxPrefixLen, numResults int) *prefixCache[K, V] {
	return &prefixCache[K, V]{
		maxPrefixLen: maxPrefixLen,
		numResults:   numResults,
		entries:      make(map[string]*cachedResult[K, V]),
	}
}

func (c *prefixCache[K, V]) cacheable(normalizedQuery string) bool {
	return c.maxPrefixLen > 0 && len(normalizedQuery) <= c.maxPrefixLen
}

func (c *prefixCache[K, V]) get(prefix string) ([]Entry[K, V], bool) {
	cr, ok := c.entries[prefix]
	if !ok {
		return nil, false
	}
	return cr.results, true
}

func (c *prefixCache[K, V]) put(prefix string, results []Entry[K, V]) {
	c.entries[prefix] = &cachedResult[K, V]{prefix: prefix, results: results}
}

func (c *prefixCache[K, V]) clear() {
	c.entries = make(map[string]*cachedResult[K, V])
}

// evict removes the cache entry for prefix, if any, and reports whether it
// removed something.
func (c *prefixCache[K, V]) evict(prefix string) bool {
	if _, ok := c.entries[prefix]; !ok {
		return false
	}
	delete(c.entries, prefix)
	return true
}

// invalidateForIncrease implements spec §4.D's "invalidation on score
// increase": for every affected prefix p of a fragment of rec, evict p's
// cache entry if rec could now join or displace something in it. Must be
// called with rec already holding its new score, under the write lock so
// no reader sees that score before the eviction.
func (c *prefixCache[K, V]) invalidateForIncrease(rec *entryRecord[K, V]) {
	c.forEachAffectedPrefix(rec, func(p string, cr *cachedResult[K, V]) {
		if len(cr.results) < c.numResults {
			c.evict(p)
			return
		}
		worst := cr.results[len(cr.results)-1]
		if worst.Score <= rec.score {
			c.evict(p)
		}
	})
}

// invalidateForDecrease implements spec §4.D's "invalidation on score
// decrease" (including full removal): evict any affected prefix's cache
// entry if it currently contains rec. Must be called with rec still holding
// its pre-change score.
func (c *prefixCache[K, V]) invalidateForDecrease(rec *entryRecord[K, V]) {
	c.forEachAffectedPrefix(rec, func(p string, cr *cachedResult[K, V]) {
		for _, e := range cr.results {
			if e.Key == rec.key {
				c.evict(p)
				return
			}
		}
	})
}

// forEachAffectedPrefix visits every (prefix, cachedResult) pair for
// prefixes of length 1..maxPrefixLen derived from rec's fragments that
// currently have a cache entry.
func (c *prefixCache[K, V]) forEachAffectedPrefix(rec *entryRecord[K, V], visit func(p string, cr *cachedResult[K, V])) {
	seen := make(map[string]struct{})
	for _, f := range rec.fragments {
		limit := c.maxPrefixLen
		if len(f) < limit {
			limit = len(f)
		}
		for n := 1; n <= limit; n++ {
			p := f[:n]
			if _, done := seen[p]; done {
				continue
			}
			seen[p] = struct{}{}
			if cr, ok := c.entries[p]; ok {
				visit(p, cr)
			}
		}
	}
}
