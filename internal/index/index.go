// Package index implements the in-memory autocomplete index: a
// fragment-ordered store, score-ranked top-K truncation, and a coherent
// short-prefix result cache, coordinated behind a single façade type.
package index

import (
	"cmp"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"autocompleted/internal/index/indexerrors"
)

const (
	// DefaultMaxCachePrefixLen is the longest normalized query length the
	// prefix cache will serve from/install into.
	DefaultMaxCachePrefixLen = 2
	// DefaultNumCacheResults is how many ranked results a cache entry holds.
	DefaultNumCacheResults = 20
)

// Index is the public façade coordinating the Normalizer/Fragmenter (A),
// Entry Store (B), Fragment Index (C) and Prefix Result Cache (D).
//
// Concurrency: per spec §5, this implementation uses a single coarse
// sync.RWMutex guarding B, C and D jointly — the reference-implementation
// variant the spec explicitly sanctions ("semantically sufficient"). Read
// operations (Get/Contains/Entries, the cache-hit path of Autocomplete, and
// queries too long to be cached) take RLock; every mutating operation and
// the cache-miss path of Autocomplete take the full Lock.
type Index[K cmp.Ordered, V any] struct {
	mu sync.RWMutex

	fragmenter Fragmenter[K, V]
	entries    map[K]*entryRecord[K, V]
	fragments  *fragmentIndex[K, V]
	cache      *prefixCache[K, V]

	logger    *zap.Logger
	publisher Publisher[K, V]
	recorder  Recorder
}

// Option configures an Index at construction time.
type Option[K cmp.Ordered, V any] func(*Index[K, V])

// WithFragmenter overrides the default suffix-phrase fragmenter.
func WithFragmenter[K cmp.Ordered, V any](f Fragmenter[K, V]) Option[K, V] {
	return func(ix *Index[K, V]) { ix.fragmenter = f }
}

// WithNameFunc keeps the default fragmentation rule but customizes how a
// display name is extracted from a Value.
func WithNameFunc[K cmp.Ordered, V any](nameOf NameFunc[V]) Option[K, V] {
	return func(ix *Index[K, V]) { ix.fragmenter = NewDefaultFragmenter[K, V](nameOf) }
}

// WithLogger attaches a zap logger, used to warn about change events the
// Publisher failed to deliver. Never required for correctness.
func WithLogger[K cmp.Ordered, V any](logger *zap.Logger) Option[K, V] {
	return func(ix *Index[K, V]) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// WithPublisher attaches a change-notification sink, invoked after each
// mutation becomes visible (never while the façade's lock is held).
func WithPublisher[K cmp.Ordered, V any](p Publisher[K, V]) Option[K, V] {
	return func(ix *Index[K, V]) {
		if p != nil {
			ix.publisher = p
		}
	}
}

// WithRecorder attaches a metrics sink.
func WithRecorder[K cmp.Ordered, V any](r Recorder) Option[K, V] {
	return func(ix *Index[K, V]) {
		if r != nil {
			ix.recorder = r
		}
	}
}

// WithCacheConfig sets the initial cache tuning parameters (defaults:
// DefaultMaxCachePrefixLen, DefaultNumCacheResults).
func WithCacheConfig[K cmp.Ordered, V any](maxPrefixLen, numResults int) Option[K, V] {
	return func(ix *Index[K, V]) {
		ix.cache = newPrefixCache[K, V](maxPrefixLen, numResults)
	}
}

// New constructs an empty Index with the default fragmenter and cache
// tuning, as overridden by opts.
func New[K cmp.Ordered, V any](opts ...Option[K, V]) *Index[K, V] {
	ix := &Index[K, V]{
		fragmenter: NewDefaultFragmenter[K, V](nil),
		entries:    make(map[K]*entryRecord[K, V]),
		fragments:  newFragmentIndex[K, V](),
		cache:      newPrefixCache[K, V](DefaultMaxCachePrefixLen, DefaultNumCacheResults),
		logger:     zap.NewNop(),
		publisher:  noopPublisher[K, V]{},
		recorder:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add inserts entry with score 0 if key is not already present; a duplicate
// key is a silent no-op (spec §4.B, §9 "source quirk" (a)).
func (ix *Index[K, V]) Add(key K, value V) {
	ix.AddScored(key, value, 0)
}

// AddScored inserts entry with the given initial score if key is not
// already present; a duplicate key is a silent no-op.
func (ix *Index[K, V]) AddScored(key K, value V, score float64) {
	ix.mu.Lock()
	if _, exists := ix.entries[key]; exists {
		ix.mu.Unlock()
		return
	}

	fragments := ix.fragmenter.FragmentsOf(Entry[K, V]{Key: key, Value: value, Score: score})
	rec := newEntryRecord[K, V](key, value, score, fragments)
	ix.entries[key] = rec
	ix.fragments.insertAll(rec)
	// A brand-new entry can only ever join a cached result (never displace
	// from below), so it is handled like a score increase from -infinity.
	ix.cache.invalidateForIncrease(rec)
	ix.recorder.SetEntryCount(len(ix.entries))
	ix.mu.Unlock()

	ix.notify(Event[K, V]{Kind: EventEntryAdded, Key: key, NewScore: score})
}

// Remove deletes the entry for key, if present; an unknown key is a silent
// no-op (spec §4.B, §9 "source quirk" (b)).
func (ix *Index[K, V]) Remove(key K) {
	ix.mu.Lock()
	rec, exists := ix.entries[key]
	if !exists {
		ix.mu.Unlock()
		return
	}

	ix.cache.invalidateForDecrease(rec)
	ix.fragments.removeAll(rec)
	delete(ix.entries, key)
	ix.recorder.SetEntryCount(len(ix.entries))
	ix.mu.Unlock()

	ix.notify(Event[K, V]{Kind: EventEntryRemoved, Key: key, OldScore: rec.score})
}

// Contains reports whether key has an entry.
func (ix *Index[K, V]) Contains(key K) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.entries[key]
	return ok
}

// Get returns a snapshot of the entry for key, if present.
func (ix *Index[K, V]) Get(key K) (Entry[K, V], bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.entries[key]
	if !ok {
		return Entry[K, V]{}, false
	}
	return rec.snapshot(), true
}

// Entries returns a defensive-copy snapshot of every entry, independent of
// subsequent mutations.
func (ix *Index[K, V]) Entries() []Entry[K, V] {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Entry[K, V], 0, len(ix.entries))
	for _, rec := range ix.entries {
		out = append(out, rec.snapshot())
	}
	return out
}

// Clear atomically empties the entry store, fragment index and cache.
func (ix *Index[K, V]) Clear() {
	ix.mu.Lock()
	ix.entries = make(map[K]*entryRecord[K, V])
	ix.fragments = newFragmentIndex[K, V]()
	ix.cache.clear()
	ix.recorder.SetEntryCount(0)
	ix.recorder.SetCacheSize(0)
	ix.mu.Unlock()

	var zero K
	ix.notify(Event[K, V]{Kind: EventCleared, Key: zero})
}

// SetScore updates the score for key, invalidating affected cache entries
// before the change becomes visible. Returns indexerrors.CodeUnknownKey if
// key has no entry.
func (ix *Index[K, V]) SetScore(key K, score float64) error {
	ix.mu.Lock()
	old, newScore, err := ix.setScoreLocked(key, func(float64) float64 { return score })
	ix.mu.Unlock()
	if err != nil {
		return err
	}

	ix.notify(Event[K, V]{Kind: EventScoreChanged, Key: key, OldScore: old, NewScore: newScore})
	return nil
}

// Increment is equivalent to SetScore(key, Get(key).Score + 1), but computes
// the new score from the current one inside the same critical section, so
// two concurrent Increment calls on the same key can never both observe the
// pre-increment score (spec §5 linearizability).
func (ix *Index[K, V]) Increment(key K) error {
	return ix.bump(key, 1)
}

// Decrement is equivalent to SetScore(key, Get(key).Score - 1), with the
// same single-critical-section guarantee as Increment.
func (ix *Index[K, V]) Decrement(key K) error {
	return ix.bump(key, -1)
}

func (ix *Index[K, V]) bump(key K, delta float64) error {
	ix.mu.Lock()
	old, newScore, err := ix.setScoreLocked(key, func(current float64) float64 { return current + delta })
	ix.mu.Unlock()
	if err != nil {
		return err
	}

	ix.notify(Event[K, V]{Kind: EventScoreChanged, Key: key, OldScore: old, NewScore: newScore})
	return nil
}

// setScoreLocked reads key's current score and replaces it with compute(current)
// as one atomic step; callers must already hold ix.mu for writing. It returns
// the old and new scores so the caller can notify after releasing the lock.
func (ix *Index[K, V]) setScoreLocked(key K, compute func(current float64) float64) (old, newScore float64, err error) {
	rec, exists := ix.entries[key]
	if !exists {
		return 0, 0, indexerrors.UnknownKey(keyString(key))
	}

	old = rec.score
	newScore = compute(old)
	if newScore < old {
		ix.cache.invalidateForDecrease(rec)
	}
	// Score is not part of the fragment index's tree order (spec §9's
	// recommended design), so changing it in place never requires
	// removing and re-inserting the entry's fragment records.
	rec.score = newScore
	if newScore > old {
		// Checked against the new score, which may now outrank the worst
		// entry of a full cached result; readers are still locked out.
		ix.cache.invalidateForIncrease(rec)
	}
	return old, newScore, nil
}

// Autocomplete returns the top maxResults entries whose fragments start
// with the normalized form of query, ordered by the score comparator. An
// empty normalized query or a non-positive maxResults yields an empty
// result (spec §7 EmptyQuery, spec §8 boundary behaviors).
func (ix *Index[K, V]) Autocomplete(query string, maxResults int) []Entry[K, V] {
	start := time.Now()
	defer func() { ix.recorder.ObserveQueryDuration(time.Since(start)) }()

	q := ix.fragmenter.Normalize(query)
	if q == "" || maxResults <= 0 {
		ix.recorder.RecordQuery(false)
		return nil
	}

	ix.mu.RLock()
	cacheable := ix.cache.cacheable(q)
	if cacheable {
		if cached, ok := ix.cache.get(q); ok {
			ix.mu.RUnlock()
			ix.recorder.RecordQuery(true)
			return truncateEntries(cached, maxResults)
		}
	}

	var results []Entry[K, V]
	if !cacheable {
		results = ix.scanTopK(q, maxResults)
	}
	ix.mu.RUnlock()

	ix.recorder.RecordQuery(false)
	if cacheable {
		ix.mu.Lock()
		// Scan and install under the same write lock, so no mutation can
		// land between them. Config may have changed since the probe
		// above, so re-validate len(q) before installing.
		results = ix.scanTopK(q, max(maxResults, ix.cache.numResults))
		if ix.cache.cacheable(q) {
			ix.cache.put(q, results)
			ix.recorder.SetCacheSize(len(ix.cache.entries))
		}
		ix.mu.Unlock()
	}
	return truncateEntries(results, maxResults)
}

// scanTopK walks the fragment index's [prefix, succ(prefix)) range and
// selects the top n entries by the score comparator, skipping duplicate
// fragments of the same entity (spec §4.D top-K selection algorithm).
// Callers must hold at least a read lock.
func (ix *Index[K, V]) scanTopK(prefix string, n int) []Entry[K, V] {
	rs := newRankedSet[K, V](n)
	ix.fragments.ascendPrefix(prefix, func(rec *entryRecord[K, V]) bool {
		rs.offer(rec)
		return true
	})
	return rs.snapshot()
}

// MaxCachePrefixLen returns the current cache prefix length limit.
func (ix *Index[K, V]) MaxCachePrefixLen() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.cache.maxPrefixLen
}

// SetMaxCachePrefixLen changes the cache prefix length limit, clearing the
// cache atomically. Returns indexerrors.CodeInvalidConfig for n < 0.
func (ix *Index[K, V]) SetMaxCachePrefixLen(n int) error {
	if n < 0 {
		return indexerrors.InvalidConfig("max cache prefix length must be >= 0")
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.cache.maxPrefixLen = n
	ix.cache.clear()
	ix.recorder.SetCacheSize(0)
	return nil
}

// NumCacheResults returns the current cache result-set size.
func (ix *Index[K, V]) NumCacheResults() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.cache.numResults
}

// SetNumCacheResults changes the cache result-set size, clearing the cache
// atomically. Returns indexerrors.CodeInvalidConfig for n < 1.
func (ix *Index[K, V]) SetNumCacheResults(n int) error {
	if n < 1 {
		return indexerrors.InvalidConfig("num cache results must be >= 1")
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.cache.numResults = n
	ix.cache.clear()
	ix.recorder.SetCacheSize(0)
	return nil
}

// notify publishes an event after a mutation has become visible; publish
// errors are logged, never surfaced to the caller (spec §7: "no logging, no
// retries, no partial effects" governs the façade's own operations, not a
// best-effort side channel layered on top of them).
func (ix *Index[K, V]) notify(event Event[K, V]) {
	if err := ix.publisher.Publish(context.Background(), event); err != nil {
		ix.logger.Warn("failed to publish index event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

func keyString[K cmp.Ordered](key K) string {
	return fmt.Sprint(key)
}
