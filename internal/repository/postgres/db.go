package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showseat/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool   *pgxpool.Pool
	txOpts pgx.TxOptions
}

// NewStore returns a store whose transactions run at READ COMMITTED. Writers
// of one showing are serialized by InventoryRepo.LockShowing, so a stricter
// level would only add serialization failures.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		txOpts: pgx.TxOptions{
			IsoLevel:   pgx.ReadCommitted,
			AccessMode: pgx.ReadWrite,
		},
	}
}

func (s *Store) Reader() repository.Inventory {
	return s.Inventory()
}

func (s *Store) Inventory() *InventoryRepo {
	return NewInventoryRepo(s.pool)
}

func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, inv repository.Inventory) error,
) error {
	return s.RunTxWithOptions(ctx, nil, fn)
}

func (s *Store) RunTxWithOptions(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, inv repository.Inventory) error,
) error {
	txOpts := s.txOpts
	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, s.Inventory().With(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", translateDBErr(err))
	}

	return nil
}
