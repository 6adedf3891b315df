package uow

import (
	"context"

	"github.com/kirinyoku/showseat/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// UoW runs inventory work in one store transaction and defers side effects
// such as cache invalidation and event publishing until it has committed.
type UoW struct {
	store repository.Store
}

func NewUoW(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks in registration order with a context
// that outlives ctx's cancellation. Hooks of a rolled back transaction are
// dropped.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, inv repository.Inventory, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.store.RunTx(ctx, func(ctx context.Context, inv repository.Inventory) error {
		hooks = hooks[:0]
		return fn(ctx, inv, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, h := range hooks {
		h(hookCtx)
	}

	return nil
}
