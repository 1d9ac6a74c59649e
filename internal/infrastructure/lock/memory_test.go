package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWithLock(t *testing.T) {
	t.Run("runs the function and returns its error", func(t *testing.T) {
		m := NewMemory(time.Second)
		wantErr := errors.New("boom")

		ran := false
		err := m.WithLock(context.Background(), "k", func(ctx context.Context) error {
			ran = true
			return wantErr
		})

		assert.True(t, ran)
		assert.Equal(t, wantErr, err)
	})

	t.Run("serializes sections on the same key", func(t *testing.T) {
		m := NewMemory(5 * time.Second)

		var mu sync.Mutex
		active := 0
		maxActive := 0

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := m.WithLock(context.Background(), "same", func(ctx context.Context) error {
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()

					time.Sleep(2 * time.Millisecond)

					mu.Lock()
					active--
					mu.Unlock()
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxActive)
	})

	t.Run("different keys do not block each other", func(t *testing.T) {
		m := NewMemory(time.Second)

		release := make(chan struct{})
		holding := make(chan struct{})
		go func() {
			_ = m.WithLock(context.Background(), "a", func(ctx context.Context) error {
				close(holding)
				<-release
				return nil
			})
		}()
		<-holding
		defer close(release)

		done := make(chan error, 1)
		go func() {
			done <- m.WithLock(context.Background(), "b", func(ctx context.Context) error {
				return nil
			})
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("lock on different key should not block")
		}
	})

	t.Run("contended acquire times out with a retryable error", func(t *testing.T) {
		m := NewMemory(20 * time.Millisecond)

		release := make(chan struct{})
		holding := make(chan struct{})
		go func() {
			_ = m.WithLock(context.Background(), "busy", func(ctx context.Context) error {
				close(holding)
				<-release
				return nil
			})
		}()
		<-holding
		defer close(release)

		err := m.WithLock(context.Background(), "busy", func(ctx context.Context) error {
			t.Error("section should not run after timeout")
			return nil
		})

		require.Error(t, err)
		assert.True(t, IsTimeout(err))

		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "busy", te.Key)
	})

	t.Run("canceled context aborts the wait", func(t *testing.T) {
		m := NewMemory(0)

		release := make(chan struct{})
		holding := make(chan struct{})
		go func() {
			_ = m.WithLock(context.Background(), "held", func(ctx context.Context) error {
				close(holding)
				<-release
				return nil
			})
		}()
		<-holding
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err := m.WithLock(ctx, "held", func(ctx context.Context) error {
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, IsTimeout(err))
	})

	t.Run("entries are cleaned up when uncontended", func(t *testing.T) {
		m := NewMemory(time.Second)

		for i := 0; i < 5; i++ {
			err := m.WithLock(context.Background(), fmt.Sprintf("key-%d", i), func(ctx context.Context) error {
				return nil
			})
			require.NoError(t, err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		assert.Empty(t, m.locks)
	})
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(&TimeoutError{Key: "k", Timeout: time.Second}))
	assert.True(t, IsTimeout(fmt.Errorf("wrapped: %w", &TimeoutError{Key: "k"})))
	assert.False(t, IsTimeout(errors.New("other")))
	assert.False(t, IsTimeout(nil))
}
