// Package errors defines the typed error taxonomy for fff-core: the
// kinds that are surfaced to callers (InitFailure, LockFailure,
// MatcherFailure) versus the kinds that are logged and swallowed
// (WatcherNoise).
package errors

import (
	"fmt"
	"time"
)

// InitError reports that the watcher, VCS provider, or initial scan
// could not start. Surfaced to the caller of Init.
type InitError struct {
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewInitError(op string, err error) *InitError {
	return &InitError{Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s failed: %v", e.Operation, e.Underlying)
}

func (e *InitError) Unwrap() error { return e.Underlying }

// LockError reports that acquiring the index lock failed (poisoned or
// contended past policy). A search that hits this behaves as an empty
// result rather than propagating the error to the caller.
type LockError struct {
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewLockError(op string, err error) *LockError {
	return &LockError{Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock acquisition failed during %s: %v", e.Operation, e.Underlying)
}

func (e *LockError) Unwrap() error { return e.Underlying }

// MatcherError reports that the underlying fuzzy matcher raised a
// structural error. Treated as zero matches for the affected batch.
type MatcherError struct {
	Query      string
	Underlying error
	Timestamp  time.Time
}

func NewMatcherError(query string, err error) *MatcherError {
	return &MatcherError{Query: query, Underlying: err, Timestamp: time.Now()}
}

func (e *MatcherError) Error() string {
	return fmt.Sprintf("matcher failed for query %q: %v", e.Query, e.Underlying)
}

func (e *MatcherError) Unwrap() error { return e.Underlying }

// WatcherNoiseError represents a background-path failure (VCS refresh
// failure, per-event misclassification, a path that no longer exists):
// logged at warning level and never propagated.
type WatcherNoiseError struct {
	Operation  string
	Path       string
	Underlying error
	Timestamp  time.Time
}

func NewWatcherNoiseError(op, path string, err error) *WatcherNoiseError {
	return &WatcherNoiseError{Operation: op, Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *WatcherNoiseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("watcher noise during %s for %s: %v", e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("watcher noise during %s: %v", e.Operation, e.Underlying)
}

func (e *WatcherNoiseError) Unwrap() error { return e.Underlying }
