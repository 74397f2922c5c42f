package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"autocompleted/internal/index"
)

// FileSnapshotter persists entries to a single JSON file on disk, in the
// teacher's in-memory-store style (an internal mutex guarding every access,
// even though the OS file itself serializes writers).
type FileSnapshotter struct {
	mu   sync.Mutex
	path string
}

// NewFileSnapshotter builds a Snapshotter backed by the file at path.
func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{path: path}
}

// Save atomically overwrites the snapshot file: write to a temp file in the
// same directory, then rename, so a crash mid-write never corrupts the
// previous snapshot.
func (f *FileSnapshotter) Save(ctx context.Context, entries []index.Entry[string, string]) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{Key: e.Key, Value: e.Value, Score: e.Score}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("persistence: create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: write temp snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: close temp snapshot file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("persistence: rename snapshot file: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing file is not an error: it means
// there is nothing to restore yet.
func (f *FileSnapshotter) Load(ctx context.Context) ([]index.Entry[string, string], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persistence: read snapshot file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal snapshot: %w", err)
	}

	entries := make([]index.Entry[string, string], len(records))
	for i, r := range records {
		entries[i] = index.Entry[string, string]{Key: r.Key, Value: r.Value, Score: r.Score}
	}
	return entries, nil
}
