package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantLocks_LockUnlock(t *testing.T) {
	locks := NewTenantLocks()
	ctx := context.Background()

	require.NoError(t, locks.Lock(ctx, 1))
	require.NoError(t, locks.Lock(ctx, 2), "tenants do not share locks")

	assert.True(t, locks.isLocked(1))

	locks.Unlock(1)
	assert.False(t, locks.isLocked(1))
	assert.True(t, locks.isLocked(2))

	require.NoError(t, locks.Lock(ctx, 1), "a released lock can be taken again")
	locks.Unlock(1)
	locks.Unlock(2)
	assert.Panics(t, func() { locks.Unlock(2) })
}

func TestTenantLocks_WaitersAreServedInOrder(t *testing.T) {
	locks := NewTenantLocks()
	ctx := context.Background()
	require.NoError(t, locks.Lock(ctx, 1))

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, locks.Lock(ctx, 1))
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			locks.Unlock(1)
		}(i)
		// Let each goroutine enqueue before starting the next.
		require.Eventually(t, func() bool {
			locks.mu.Lock()
			defer locks.mu.Unlock()
			return len(locks.locks[1].waiting) == i+1
		}, time.Second, time.Millisecond)
	}

	locks.Unlock(1)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2}, order)
	assert.False(t, locks.isLocked(1))
}

func TestTenantLocks_ContextCancel(t *testing.T) {
	locks := NewTenantLocks()
	require.NoError(t, locks.Lock(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := locks.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	locks.Unlock(1)
	assert.False(t, locks.isLocked(1), "a cancelled waiter must not keep the lock")
}
