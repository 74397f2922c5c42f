package concurrency

import (
	"fmt"
	"strings"
	"sync"
)

// ErrorCollector safely accumulates per-task errors from a Pool run,
// adapted from the teacher's ErrorCollector (its stop-on-first-error and
// ErrorGroup variants are dropped: RunBatch always drains the whole batch).
type ErrorCollector struct {
	mu         sync.Mutex
	errors     map[string]error
	errorOrder []string
	maxErrors  int
}

// NewErrorCollector builds a collector that retains up to maxErrors
// distinct failures.
func NewErrorCollector(maxErrors int) *ErrorCollector {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollector{
		errors:    make(map[string]error),
		maxErrors: maxErrors,
	}
}

// Add records err under id. A nil err is a no-op.
func (ec *ErrorCollector) Add(id string, err error) {
	if err == nil {
		return
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if len(ec.errors) >= ec.maxErrors {
		return
	}
	if _, exists := ec.errors[id]; !exists {
		ec.errors[id] = err
		ec.errorOrder = append(ec.errorOrder, id)
	}
}

// HasErrors reports whether any error has been collected.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.errors) > 0
}

// Count returns the number of distinct failed IDs collected.
func (ec *ErrorCollector) Count() int {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.errors)
}

// Errors returns a copy of the id-to-error map.
func (ec *ErrorCollector) Errors() map[string]error {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make(map[string]error, len(ec.errors))
	for k, v := range ec.errors {
		out[k] = v
	}
	return out
}

// ToError collapses the collected errors into a single error, or nil if
// none were recorded.
func (ec *ErrorCollector) ToError() error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if len(ec.errors) == 0 {
		return nil
	}
	if len(ec.errors) == 1 {
		return ec.errors[ec.errorOrder[0]]
	}

	const maxDisplay = 5
	var lines []string
	for i, id := range ec.errorOrder {
		if i >= maxDisplay {
			lines = append(lines, fmt.Sprintf("... and %d more", len(ec.errors)-maxDisplay))
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %v", id, ec.errors[id]))
	}
	return fmt.Errorf("%d errors occurred:\n%s", len(ec.errors), strings.Join(lines, "\n"))
}
