package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/kirinyoku/showseat/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRunsHooksAfterCommit(t *testing.T) {
	u := NewUoW(memory.MustNewStore())

	var calls []string
	err := u.Do(context.Background(), func(ctx context.Context, inv repository.Inventory, after func(AfterCommit)) error {
		after(func(context.Context) { calls = append(calls, "first") })
		after(func(context.Context) { calls = append(calls, "second") })
		calls = append(calls, "body")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"body", "first", "second"}, calls)
}

func TestDoDropsHooksOnRollback(t *testing.T) {
	u := NewUoW(memory.MustNewStore())
	boom := errors.New("boom")

	ran := false
	err := u.Do(context.Background(), func(ctx context.Context, inv repository.Inventory, after func(AfterCommit)) error {
		after(func(context.Context) { ran = true })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
}

func TestDoHooksIgnoreCallerCancellation(t *testing.T) {
	u := NewUoW(memory.MustNewStore())
	ctx, cancel := context.WithCancel(context.Background())

	var hookErr error
	err := u.Do(ctx, func(ctx context.Context, inv repository.Inventory, after func(AfterCommit)) error {
		after(func(ctx context.Context) { hookErr = ctx.Err() })
		cancel()
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, hookErr)
}
