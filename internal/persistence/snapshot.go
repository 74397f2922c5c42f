// Package persistence snapshots and restores the autocomplete index's
// entries, decoupling the in-memory index (spec §3) from process lifetime.
package persistence

import (
	"context"

	"autocompleted/internal/index"
)

// Record is the durable form of one index entry.
type Record struct {
	Key   string  `json:"key" dynamodbav:"Key"`
	Value string  `json:"value" dynamodbav:"Value"`
	Score float64 `json:"score" dynamodbav:"Score"`
}

// Snapshotter persists and restores the full entry set of a string-keyed,
// string-valued autocomplete index. Implementations must tolerate an empty
// or absent snapshot on first boot (Load returns a nil slice, no error).
type Snapshotter interface {
	Save(ctx context.Context, entries []index.Entry[string, string]) error
	Load(ctx context.Context) ([]index.Entry[string, string], error)
}

// Restore loads a snapshot (if any) and replays it into ix via AddScored,
// preserving each entry's score.
func Restore(ctx context.Context, s Snapshotter, ix *index.Index[string, string]) error {
	entries, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		ix.AddScored(e.Key, e.Value, e.Score)
	}
	return nil
}

// Snapshot captures ix's current entries and saves them via s.
func Snapshot(ctx context.Context, s Snapshotter, ix *index.Index[string, string]) error {
	return s.Save(ctx, ix.Entries())
}
