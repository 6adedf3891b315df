package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReturnsSameLock(t *testing.T) {
	r := NewRegistry()

	assert.Same(t, r.For(7), r.For(7))
	assert.NotSame(t, r.For(7), r.For(8))
}

func TestRegistryConcurrentFirstAccess(t *testing.T) {
	r := NewRegistry()

	const n = 64
	got := make([]*ShowingLock, n)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got[i] = r.For(42)
		}()
	}
	close(start)
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, got[0], got[i])
	}
}

func TestShowingLockExclusive(t *testing.T) {
	l := NewRegistry().For(1)

	require.NoError(t, l.Lock(context.Background()))
	assert.False(t, l.TryLock())

	l.Unlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestShowingLockHonoursContext(t *testing.T) {
	l := NewRegistry().For(1)
	require.NoError(t, l.Lock(context.Background()))
	defer l.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
