// Package lock provides cross-process keyed mutual exclusion. Workers that
// ingest documents for the same business key must serialize, no matter which
// process they run in, so the lock key is a plain string derived from the
// entity kind and business key.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Keyed serializes critical sections by key across workers
type Keyed interface {
	// WithLock acquires the named lock, runs fn, and releases the lock.
	// Acquisition blocks until the lock is free, the context is done, or
	// the backend's acquire timeout elapses. A timeout is returned as a
	// *TimeoutError so callers can requeue the work instead of failing
	// the document.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// TimeoutError indicates the lock could not be acquired in time. The
// operation was never started and is safe to retry.
type TimeoutError struct {
	Key     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for lock %q", e.Timeout, e.Key)
}

// IsTimeout reports whether err is a lock acquisition timeout
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
