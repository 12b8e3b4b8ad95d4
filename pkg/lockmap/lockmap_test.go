package lockmap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutualExclusionPerUser(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guard, err := r.Acquire(ctx, "user-1")
			require.NoError(t, err)
			defer guard.Release()

			// unsynchronized read-modify-write; the lock is the only guard
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestDifferentUsersProceedInParallel(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	guardA, err := r.Acquire(ctx, "user-a")
	require.NoError(t, err)
	defer guardA.Release()

	// holding user-a must not block user-b
	done := make(chan struct{})
	go func() {
		guardB, err := r.Acquire(ctx, "user-b")
		require.NoError(t, err)
		guardB.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquisition for a different user blocked")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	guard, err := r.Acquire(ctx, "user-1")
	require.NoError(t, err)

	guard.Release()
	guard.Release() // must not panic or over-release

	again, err := r.Acquire(ctx, "user-1")
	require.NoError(t, err)
	again.Release()

	// a second acquire after double-release must still block while held
	held, err := r.Acquire(ctx, "user-1")
	require.NoError(t, err)

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = r.Acquire(shortCtx, "user-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	held.Release()
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	r := NewRegistry()

	guard, err := r.Acquire(context.Background(), "user-1")
	require.NoError(t, err)
	defer guard.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Acquire(ctx, "user-1")
	assert.ErrorIs(t, err, context.Canceled)
}
