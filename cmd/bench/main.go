// Command bench drives the autocomplete index concurrently through
// internal/concurrency's worker pool, reporting throughput for a mixed
// write/query workload. Useful for sizing Cache.MaxPrefixLen/NumResults
// against a realistic entry count before deploying autocompleted.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"autocompleted/internal/concurrency"
	"autocompleted/internal/index"
)

func main() {
	entries := flag.Int("entries", 50000, "number of entries to seed")
	workers := flag.Int("workers", 8, "worker pool size")
	queries := flag.Int("queries", 200000, "number of autocomplete queries to run")
	prefixLen := flag.Int("max-cache-prefix-len", 2, "cache prefix length")
	flag.Parse()

	ix := index.New[string, string](
		index.WithNameFunc[string, string](func(v string) string { return v }),
		index.WithCacheConfig[string, string](*prefixLen, 10),
	)

	rng := rand.New(rand.NewSource(1))
	words := randomWords(rng, *entries)

	pool := concurrency.NewPool(context.Background(), *workers, *workers*4)
	defer pool.Stop()

	scores := make([]float64, len(words))
	for i := range scores {
		scores[i] = rng.Float64() * 100
	}

	seedStart := time.Now()
	ids := make([]string, len(words))
	for i := range words {
		ids[i] = fmt.Sprintf("%d", i)
	}
	collector := concurrency.RunBatch(context.Background(), pool, ids, func(ctx context.Context, id string) error {
		idx := mustAtoi(id)
		ix.AddScored(id, words[idx], scores[idx])
		return nil
	})
	if collector.HasErrors() {
		fmt.Printf("seed errors: %v\n", collector.ToError())
	}
	fmt.Printf("seeded %d entries in %s\n", *entries, time.Since(seedStart))

	queryPrefixes := make([]string, *queries)
	for i := range queryPrefixes {
		queryPrefixes[i] = words[rng.Intn(len(words))][:1]
	}

	var hits, misses int64
	queryStart := time.Now()
	queryIDs := make([]string, *queries)
	for i := range queryIDs {
		queryIDs[i] = fmt.Sprintf("%d", i)
	}
	concurrency.RunBatch(context.Background(), pool, queryIDs, func(ctx context.Context, id string) error {
		idx := mustAtoi(id)
		results := ix.Autocomplete(queryPrefixes[idx], 10)
		if len(results) > 0 {
			atomic.AddInt64(&hits, 1)
		} else {
			atomic.AddInt64(&misses, 1)
		}
		return nil
	})
	elapsed := time.Since(queryStart)

	fmt.Printf("ran %d queries in %s (%.0f qps), hits=%d misses=%d\n",
		*queries, elapsed, float64(*queries)/elapsed.Seconds(), hits, misses)
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(err)
	}
	return n
}

func randomWords(rng *rand.Rand, n int) []string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	words := make([]string, n)
	for i := range words {
		length := 4 + rng.Intn(8)
		buf := make([]byte, length)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		words[i] = string(buf)
	}
	return words
}
