package index

import (
	"cmp"
	"fmt"
	"strings"
)

// Fragmenter is the index's extension point (spec §6). Implementations
// receive an Entry and must return normalized fragments; the default
// implementation below applies the suffix-phrase rule of spec §4.A to a
// caller-supplied display name.
type Fragmenter[K cmp.Ordered, V any] interface {
	// Normalize canonicalizes a raw query or name string.
	Normalize(s string) string

	// FragmentsOf returns the fragments a newly-inserted entry should be
	// reachable under. Each returned fragment must already be the output
	// of Normalize.
	FragmentsOf(entry Entry[K, V]) []string
}

// NameFunc extracts the display name from a value, used by the default
// fragmenter to turn a Value into fragmentable text. When nil, the default
// fragmenter falls back to fmt.Sprintf("%v", value).
type NameFunc[V any] func(value V) string

type defaultFragmenter[K cmp.Ordered, V any] struct {
	nameOf NameFunc[V]
}

// NewDefaultFragmenter builds the spec §4.A fragmenter: normalize the
// entity's display name, then emit its suffix phrases split on spaces.
func NewDefaultFragmenter[K cmp.Ordered, V any](nameOf NameFunc[V]) Fragmenter[K, V] {
	return &defaultFragmenter[K, V]{nameOf: nameOf}
}

func (f *defaultFragmenter[K, V]) Normalize(s string) string {
	return Normalize(s)
}

func (f *defaultFragmenter[K, V]) FragmentsOf(entry Entry[K, V]) []string {
	name := nameOfValue(f.nameOf, entry.Value)
	normalized := f.Normalize(name)
	if normalized == "" {
		return nil
	}
	return suffixPhrases(normalized)
}

func nameOfValue[V any](nameOf NameFunc[V], value V) string {
	if nameOf != nil {
		return nameOf(value)
	}
	if s, ok := any(value).(string); ok {
		return s
	}
	if stringer, ok := any(value).(interface{ String() string }); ok {
		return stringer.String()
	}
	return fmt.Sprintf("%v", value)
}

// suffixPhrases splits a normalized name on spaces and returns each suffix
// phrase once, in order from the full name down to the last single word:
// "w1 w2 w3" -> ["w1 w2 w3", "w2 w3", "w3"].
func suffixPhrases(normalized string) []string {
	words := strings.Split(normalized, " ")
	phrases := make([]string, 0, len(words))
	for i := range words {
		phrases = append(phrases, strings.Join(words[i:], " "))
	}
	return phrases
}
