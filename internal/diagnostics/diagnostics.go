// Package diagnostics collects per-unit failures (a corrupt chunk, an
// unreadable region, a malformed heightmap) from a bulk query without
// aborting it: a query returns partial results plus this list, never a
// silent total failure.
package diagnostics

import (
	"strings"
	"sync"
)

// List is a concurrency-safe, append-only collection of per-unit errors.
type List struct {
	mu      sync.Mutex
	entries []error
}

// Add records err. Nil errors are ignored so callers can pass a possibly-nil
// error straight through without a branch.
func (l *List) Add(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	l.entries = append(l.entries, err)
	l.mu.Unlock()
}

// AddAll records every non-nil error in errs.
func (l *List) AddAll(errs []error) {
	for _, err := range errs {
		l.Add(err)
	}
}

// Empty reports whether no failures were recorded.
func (l *List) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries) == 0
}

// Errors returns a snapshot of the recorded failures, in the order they
// were added.
func (l *List) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]error, len(l.entries))
	copy(out, l.entries)
	return out
}

// Error joins every recorded failure's message with "; ", so a List can
// itself be logged or returned as a single error when a caller needs one.
func (l *List) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := make([]string, len(l.entries))
	for i, e := range l.entries {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "; ")
}
