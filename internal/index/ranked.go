package index

import "cmp"

// rankedSet is a bounded ordered collection of entryRecords kept sorted by
// the score comparator (score descending, key ascending), used for the
// top-K selection of every range scan (spec §4.D); its snapshot is what a
// cachedResult (component D) stores.
type rankedSet[K cmp.Ordered, V any] struct {
	limit   int
	records []*entryRecord[K, V]
	index   map[K]int // key -> position in records, for O(1) containment checks
}

func newRankedSet[K cmp.Ordered, V any](limit int) *rankedSet[K, V] {
	return &rankedSet[K, V]{
		limit: limit,
		index: make(map[K]int, limit),
	}
}

func (rs *rankedSet[K, V]) contains(key K) bool {
	_, ok := rs.index[key]
	return ok
}

func (rs *rankedSet[K, V]) worst() *entryRecord[K, V] {
	if len(rs.records) == 0 {
		return nil
	}
	return rs.records[len(rs.records)-1]
}

// offer considers rec for inclusion: skips duplicates of an already-present
// key (a different fragment of the same entity must not produce a second
// result), otherwise inserts in sorted position, evicting the current worst
// once the set is at its limit and rec outranks it.
func (rs *rankedSet[K, V]) offer(rec *entryRecord[K, V]) {
	if rs.contains(rec.key) {
		return
	}
	if len(rs.records) >= rs.limit {
		if rs.limit == 0 || !scoreLess(rec, rs.worst()) {
			return
		}
		evicted := rs.records[len(rs.records)-1]
		rs.records = rs.records[:len(rs.records)-1]
		delete(rs.index, evicted.key)
	}

	pos := 0
	for pos < len(rs.records) && scoreLess(rs.records[pos], rec) {
		pos++
	}
	rs.records = append(rs.records, nil)
	copy(rs.records[pos+1:], rs.records[pos:])
	rs.records[pos] = rec
	rs.reindexFrom(pos)
}

func (rs *rankedSet[K, V]) reindexFrom(start int) {
	for i := start; i < len(rs.records); i++ {
		rs.index[rs.records[i].key] = i
	}
}

func (rs *rankedSet[K, V]) snapshot() []Entry[K, V] {
	out := make([]Entry[K, V], len(rs.records))
	for i, rec := range rs.records {
		out[i] = rec.snapshot()
	}
	return out
}

// truncateEntries returns the first n entries of an already score-ordered
// slice, per spec §9(c)'s behaviorally-equivalent prefix-truncation option.
func truncateEntries[K cmp.Ordered, V any](entries []Entry[K, V], n int) []Entry[K, V] {
	if n < 0 {
		n = 0
	}
	if n >= len(entries) {
		out := make([]Entry[K, V], len(entries))
		copy(out, entries)
		return out
	}
	out := make([]Entry[K, V], n)
	copy(out, entries[:n])
	return out
}
