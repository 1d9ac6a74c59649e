package lock

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Postgres is a keyed lock backed by session-level advisory locks. The lock
// and its release must happen on the same database connection, so the whole
// critical section runs inside gorm's Connection callback, which pins one
// connection from the pool.
type Postgres struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewPostgres creates a Postgres advisory keyed lock. The timeout is applied
// through lock_timeout on the pinned session; zero disables it.
func NewPostgres(db *gorm.DB, timeout time.Duration) *Postgres {
	return &Postgres{db: db, timeout: timeout}
}

// WithLock implements Keyed
func (p *Postgres) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return p.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if p.timeout > 0 {
			ms := p.timeout.Milliseconds()
			if err := conn.Exec(fmt.Sprintf("SET lock_timeout = %d", ms)).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
			// lock_timeout is session-level and the session outlives this
			// call: the pool hands the connection to unrelated queries
			// next, which must not inherit it.
			defer func() {
				_ = conn.Exec("SET lock_timeout = DEFAULT").Error
			}()
		}

		if err := conn.Exec("SELECT pg_advisory_lock(hashtext(?))", key).Error; err != nil {
			if isLockNotAvailable(err) {
				return &TimeoutError{Key: key, Timeout: p.timeout}
			}
			return fmt.Errorf("failed to acquire advisory lock %q: %w", key, err)
		}
		defer func() {
			_ = conn.Exec("SELECT pg_advisory_unlock(hashtext(?))", key).Error
		}()

		return fn(ctx)
	})
}

// isLockNotAvailable matches SQLSTATE 55P03, which Postgres raises when
// lock_timeout expires while waiting on the advisory lock
func isLockNotAvailable(err error) bool {
	type sqlState interface {
		SQLState() string
	}
	for err != nil {
		if s, ok := err.(sqlState); ok {
			return s.SQLState() == "55P03"
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

var _ Keyed = (*Postgres)(nil)
