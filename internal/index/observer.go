package index

import (
	"cmp"
	"context"
	"time"
)

// EventKind identifies the kind of mutation a Publisher is told about.
type EventKind string

const (
	EventEntryAdded   EventKind = "entry_added"
	EventEntryRemoved EventKind = "entry_removed"
	EventScoreChanged EventKind = "score_changed"
	EventCleared      EventKind = "cleared"
)

// Event describes one mutation of the index, handed to a Publisher after
// the mutation has become visible (never from inside the façade's lock).
type Event[K cmp.Ordered, V any] struct {
	Kind     EventKind
	Key      K
	OldScore float64
	NewScore float64
}

// Publisher is the index's optional change-notification sink. The core
// package never implements one itself — internal/events provides an
// EventBridge-backed implementation — so Index stays dependency-free of any
// particular messaging transport.
type Publisher[K cmp.Ordered, V any] interface {
	Publish(ctx context.Context, event Event[K, V]) error
}

// Recorder is the index's optional metrics sink. internal/metrics provides
// a Prometheus-backed implementation; Index itself never imports a metrics
// library.
type Recorder interface {
	RecordQuery(cacheHit bool)
	SetCacheSize(n int)
	SetEntryCount(n int)
	ObserveQueryDuration(d time.Duration)
}

type noopPublisher[K cmp.Ordered, V any] struct{}

func (noopPublisher[K, V]) Publish(context.Context, Event[K, V]) error { return nil }

type noopRecorder struct{}

func (noopRecorder) RecordQuery(bool)              {}
func (noopRecorder) SetCacheSize(int)              {}
func (noopRecorder) SetEntryCount(int)             {}
func (noopRecorder) ObserveQueryDuration(time.Duration) {}
