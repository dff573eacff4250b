package store

import (
	"context"
	"fmt"
	"sync"
)

// TenantLocks is a set of exclusive locks keyed by tenant id. Waiters are
// served in arrival order.
type TenantLocks struct {
	mu    sync.Mutex
	locks map[int64]*lockState
}

type lockState struct {
	waiting []chan struct{}
}

// NewTenantLocks creates an empty lock set.
func NewTenantLocks() *TenantLocks {
	return &TenantLocks{locks: map[int64]*lockState{}}
}

// Lock blocks until the tenant's lock is held or ctx is done.
func (l *TenantLocks) Lock(ctx context.Context, tenantID int64) error {
	l.mu.Lock()
	state := l.locks[tenantID]
	if state == nil {
		l.locks[tenantID] = &lockState{}
		l.mu.Unlock()
		return nil
	}

	wake := make(chan struct{}, 1)
	state.waiting = append(state.waiting, wake)
	l.mu.Unlock()

	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, w := range state.waiting {
			if w == wake {
				state.waiting = append(state.waiting[:i], state.waiting[i+1:]...)
				return ctx.Err()
			}
		}
		// Ownership was handed over while ctx fired; pass it on.
		l.handOver(tenantID, state)
		return ctx.Err()
	}
}

// Unlock releases the lock, handing it to the next waiter if there is one.
func (l *TenantLocks) Unlock(tenantID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.locks[tenantID]
	if state == nil {
		panic(fmt.Sprintf("unlocking unlocked tenant %d", tenantID))
	}
	l.handOver(tenantID, state)
}

// isLocked reports whether the tenant's lock is held.
func (l *TenantLocks) isLocked(tenantID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks[tenantID] != nil
}

// handOver must be called with mu held.
func (l *TenantLocks) handOver(tenantID int64, state *lockState) {
	if len(state.waiting) == 0 {
		delete(l.locks, tenantID)
		return
	}
	next := state.waiting[0]
	state.waiting = state.waiting[1:]
	next <- struct{}{}
}
