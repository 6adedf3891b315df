// Package lock hands out one exclusive lock per showing.
package lock

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ShowingLock guards every seat of one showing.
type ShowingLock struct {
	sem *semaphore.Weighted
}

// Lock blocks until the lock is free or ctx is done.
func (l *ShowingLock) Lock(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("lock.ShowingLock.Lock: %w", err)
	}
	return nil
}

func (l *ShowingLock) TryLock() bool {
	return l.sem.TryAcquire(1)
}

func (l *ShowingLock) Unlock() {
	l.sem.Release(1)
}

// Registry creates locks lazily and keeps them for the life of the process.
type Registry struct {
	locks sync.Map // int64 -> *ShowingLock
}

func NewRegistry() *Registry {
	return &Registry{}
}

// For returns the lock of showingID. Concurrent first calls for the same id
// observe the same instance.
func (r *Registry) For(showingID int64) *ShowingLock {
	if l, ok := r.locks.Load(showingID); ok {
		return l.(*ShowingLock)
	}

	l, _ := r.locks.LoadOrStore(showingID, &ShowingLock{sem: semaphore.NewWeighted(1)})
	return l.(*ShowingLock)
}
