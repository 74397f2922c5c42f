package index

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// city is the Value type used throughout these tests; the default
// fragmenter extracts its Name field via a NameFunc.
type city struct {
	Name string
}

func newCityIndex() *Index[int, city] {
	return New[int, city](
		WithNameFunc[int, city](func(c city) string { return c.Name }),
		WithCacheConfig[int, city](0, DefaultNumCacheResults),
	)
}

func seedCities(t *testing.T, ix *Index[int, city]) {
	t.Helper()
	seed := map[int]string{
		1: "Chicago",
		2: "Minneapolis",
		3: "Boston",
		4: "Cincinatti",
		5: "Cleveland",
		6: "Charleston",
		7: "St. Paul",
	}
	for key := 1; key <= 7; key++ {
		ix.Add(key, city{Name: seed[key]})
	}
}

func keysOf(entries []Entry[int, city]) []int {
	keys := make([]int, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// S1
func TestScenario_S1_NoMatch(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	assert.Empty(t, ix.Autocomplete("z", 2))
}

// S2
func TestScenario_S2_TieBreakByKey(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	got := ix.Autocomplete("C", 2)
	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 6}, keysOf(got))
}

// S3
func TestScenario_S3_TwoLetterPrefix(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	got := ix.Autocomplete("CH", 2)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []int{1, 6}, keysOf(got))
}

// S4
func TestScenario_S4_ThreeLetterPrefix(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	got := ix.Autocomplete("CHI", 2)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Key)
}

// S5
func TestScenario_S5_IncrementReordersResults(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)

	require.NoError(t, ix.Increment(5))
	got := ix.Autocomplete("C", 2)
	require.Len(t, got, 2)
	assert.Equal(t, []int{5, 1}, keysOf(got))
}

// S6
func TestScenario_S6_CacheCoherenceUnderScoreDecrease(t *testing.T) {
	ix := New[int, city](
		WithNameFunc[int, city](func(c city) string { return c.Name }),
		WithCacheConfig[int, city](2, DefaultNumCacheResults),
	)
	seedCities(t, ix)

	require.NoError(t, ix.Increment(5))
	got := ix.Autocomplete("C", 2)
	require.Len(t, got, 2)
	assert.Equal(t, []int{5, 1}, keysOf(got))

	require.NoError(t, ix.Decrement(5))
	require.NoError(t, ix.Decrement(5))
	got = ix.Autocomplete("C", 2)
	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 6}, keysOf(got))
}

func TestBoundary_EmptyQueryReturnsEmpty(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	assert.Empty(t, ix.Autocomplete("", 5))
	assert.Empty(t, ix.Autocomplete("   ", 5))
}

func TestBoundary_MaxResultsZero(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	assert.Empty(t, ix.Autocomplete("c", 0))
}

func TestBoundary_QueryLongerThanAnyFragment(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	assert.Empty(t, ix.Autocomplete("chicagochicagochicago", 5))
}

func TestBoundary_MaxCachePrefixLenZeroDisablesCaching(t *testing.T) {
	ix := New[int, city](
		WithNameFunc[int, city](func(c city) string { return c.Name }),
		WithCacheConfig[int, city](0, DefaultNumCacheResults),
	)
	seedCities(t, ix)
	_ = ix.Autocomplete("c", 2)
	assert.Empty(t, ix.cache.entries, "cache must stay empty when MaxCachePrefixLen == 0")
}

func TestSetScore_UnknownKey(t *testing.T) {
	ix := newCityIndex()
	err := ix.SetScore(999, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_KEY")
}

func TestIncrementDecrement_UnknownKey(t *testing.T) {
	ix := newCityIndex()
	require.Error(t, ix.Increment(999))
	require.Error(t, ix.Decrement(999))
}

// TestIncrement_ConcurrentCallsLoseNoUpdates guards the bump race: two
// goroutines incrementing the same key must never both read the
// pre-increment score, or one increment is lost.
func TestIncrement_ConcurrentCallsLoseNoUpdates(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.NoError(t, ix.Increment(1))
		}()
	}
	wg.Wait()

	entry, ok := ix.Get(1)
	require.True(t, ok)
	assert.Equal(t, float64(n), entry.Score)
}

func TestSilentDuplicateAdd_FirstWins(t *testing.T) {
	ix := newCityIndex()
	ix.Add(1, city{Name: "Chicago"})
	ix.Add(1, city{Name: "Not Chicago"})

	got, ok := ix.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Chicago", got.Value.Name)
}

func TestSilentRemoveUnknownKey_NoPanic(t *testing.T) {
	ix := newCityIndex()
	assert.NotPanics(t, func() { ix.Remove(999) })
}

func TestClear_EmptiesEverything(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)
	_ = ix.Autocomplete("c", 2)

	ix.Clear()

	assert.Empty(t, ix.Entries())
	assert.Empty(t, ix.Autocomplete("c", 2))
	assert.False(t, ix.Contains(1))
}

func TestEntries_IsDefensiveSnapshot(t *testing.T) {
	ix := newCityIndex()
	seedCities(t, ix)

	snap := ix.Entries()
	require.Len(t, snap, 7)

	ix.Add(8, city{Name: "Denver"})
	assert.Len(t, snap, 7, "previously taken snapshot must not observe later mutations")
}

func TestSetMaxCachePrefixLen_Invalid(t *testing.T) {
	ix := newCityIndex()
	err := ix.SetMaxCachePrefixLen(-1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CONFIG")
}

func TestSetNumCacheResults_Invalid(t *testing.T) {
	ix := newCityIndex()
	err := ix.SetNumCacheResults(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CONFIG")
}

func TestSetCacheParams_ClearsCache(t *testing.T) {
	ix := New[int, city](
		WithNameFunc[int, city](func(c city) string { return c.Name }),
		WithCacheConfig[int, city](2, DefaultNumCacheResults),
	)
	seedCities(t, ix)
	_ = ix.Autocomplete("c", 2)
	assert.NotEmpty(t, ix.cache.entries)

	require.NoError(t, ix.SetNumCacheResults(5))
	assert.Empty(t, ix.cache.entries)
}

// TestUniqueness_NoDuplicateKeysAcrossFragments covers invariant 2: an
// entity with multiple matching fragments of the same query prefix must
// appear once.
func TestUniqueness_NoDuplicateKeysAcrossFragments(t *testing.T) {
	ix := newCityIndex()
	ix.Add(1, city{Name: "Saint Paul Saint"}) // pathological: repeated word

	got := ix.Autocomplete("saint", 10)
	seen := map[int]int{}
	for _, e := range got {
		seen[e.Key]++
	}
	for key, count := range seen {
		assert.Equal(t, 1, count, "key %d appeared %d times", key, count)
	}
}

// TestCacheCoherence_MatchesUncachedAcrossRandomHistory covers invariant 4:
// results with caching enabled must equal results with caching disabled, at
// every point along a randomized history of mutations and queries.
func TestCacheCoherence_MatchesUncachedAcrossRandomHistory(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cached := New[int, city](WithNameFunc[int, city](func(c city) string { return c.Name }))
	uncached := New[int, city](
		WithNameFunc[int, city](func(c city) string { return c.Name }),
		WithCacheConfig[int, city](0, DefaultNumCacheResults),
	)

	names := []string{"Chicago", "Minneapolis", "Boston", "Cincinatti", "Cleveland", "Charleston", "St Paul", "Denver", "Dayton", "Detroit"}
	prefixes := []string{"c", "ch", "d", "b", "m", "s", "x"}

	for i := 0; i < 500; i++ {
		key := rng.Intn(20)
		switch rng.Intn(5) {
		case 0:
			name := names[rng.Intn(len(names))]
			cached.Add(key, city{Name: name})
			uncached.Add(key, city{Name: name})
		case 1:
			cached.Remove(key)
			uncached.Remove(key)
		case 2:
			score := float64(rng.Intn(10) - 5)
			_ = cached.SetScore(key, score)
			_ = uncached.SetScore(key, score)
		case 3:
			_ = cached.Increment(key)
			_ = uncached.Increment(key)
		default:
			q := prefixes[rng.Intn(len(prefixes))]
			k := rng.Intn(5) + 1
			got1 := cached.Autocomplete(q, k)
			got2 := uncached.Autocomplete(q, k)
			require.Equal(t, keysOf(got2), keysOf(got1), "query %q k=%d iteration %d", q, k, i)
		}
	}
}

// TestMirrorInvariant_FragmentIndexReflectsEntryStore covers invariant 1.
func TestMirrorInvariant_FragmentIndexReflectsEntryStore(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ix := newCityIndex()
	names := []string{"Chicago", "Minneapolis", "Boston", "Cincinatti", "Cleveland"}

	for i := 0; i < 200; i++ {
		key := rng.Intn(10)
		if rng.Intn(2) == 0 {
			ix.Add(key, city{Name: names[rng.Intn(len(names))]})
		} else {
			ix.Remove(key)
		}
	}

	storeKeys := map[int]struct{}{}
	for _, e := range ix.Entries() {
		storeKeys[e.Key] = struct{}{}
	}

	fragKeys := map[int]struct{}{}
	ix.fragments.ascendAll(func(rec *entryRecord[int, city]) bool {
		fragKeys[rec.key] = struct{}{}
		return true
	})

	for k := range fragKeys {
		_, ok := storeKeys[k]
		assert.True(t, ok, "fragment index references key %d absent from entry store", k)
	}
}

// TestRanking_TopKMatchesBruteForce covers invariant 3 against a brute-force
// reference implementation over the same data.
func TestRanking_TopKMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	ix := newCityIndex()

	type seedEntry struct {
		key   int
		name  string
		score float64
	}
	var seeds []seedEntry
	names := []string{"Chicago", "Charleston", "Cleveland", "Cincinatti", "Columbus", "Cary", "Cedar Rapids"}
	for i, name := range names {
		score := float64(rng.Intn(5))
		seeds = append(seeds, seedEntry{key: i, name: name, score: score})
		ix.AddScored(i, city{Name: name}, score)
	}

	bruteForce := func(prefix string, k int) []int {
		norm := Normalize(prefix)
		var matches []seedEntry
		for _, s := range seeds {
			for _, frag := range suffixPhrases(Normalize(s.name)) {
				if len(frag) >= len(norm) && frag[:len(norm)] == norm {
					matches = append(matches, s)
					break
				}
			}
		}
		// sort by score desc, key asc
		for i := 0; i < len(matches); i++ {
			for j := i + 1; j < len(matches); j++ {
				a, b := matches[i], matches[j]
				less := a.score > b.score || (a.score == b.score && a.key < b.key)
				if !less {
					matches[i], matches[j] = matches[j], matches[i]
				}
			}
		}
		if k > len(matches) {
			k = len(matches)
		}
		out := make([]int, k)
		for i := 0; i < k; i++ {
			out[i] = matches[i].key
		}
		return out
	}

	for _, prefix := range []string{"c", "ca", "col", "z"} {
		for _, k := range []int{1, 3, 10} {
			want := bruteForce(prefix, k)
			got := keysOf(ix.Autocomplete(prefix, k))
			assert.Equal(t, want, got, "prefix=%q k=%d", prefix, k)
		}
	}
}

func ExampleIndex_Autocomplete() {
	ix := New[int, city](WithNameFunc[int, city](func(c city) string { return c.Name }))
	ix.Add(1, city{Name: "Barack Hussein Obama"})

	for _, e := range ix.Autocomplete("obama", 5) {
		fmt.Println(e.Value.Name)
	}
	// Output: Barack Hussein Obama
}
