package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showseat/internal/repository"
)

var _ repository.Inventory = (*InventoryRepo)(nil)

// InventoryRepo implements repository.Inventory on PostgreSQL. A repo bound
// to a transaction with With runs every query on it; otherwise queries go to
// the pool.
type InventoryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func NewInventoryRepo(pool *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{pool: pool}
}

func (r *InventoryRepo) With(db DB) *InventoryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InventoryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// LockShowing takes a transaction-scoped advisory lock keyed by the showing
// id. Outside a transaction the lock is released as soon as it is taken.
func (r *InventoryRepo) LockShowing(ctx context.Context, showingID int64) error {
	const op = "postgresrepo.InventoryRepo.LockShowing"

	if _, err := r.handle().Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, showingID); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
