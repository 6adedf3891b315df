// Package memory is an in-process Inventory store on go-memdb. Write
// transactions are serialized by memdb, so RunTx gives the same isolation
// as a single-writer database.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/kirinyoku/showseat/internal/repository"
)

type Store struct {
	db  *memdb.MemDB
	now func() time.Time

	showingSeq     atomic.Int64
	reservationSeq atomic.Int64
	seatSeq        atomic.Int64
}

type Option func(*Store)

// WithClock overrides the source of reservation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) (*Store, error) {
	const op = "memory.NewStore"

	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s := &Store{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}

	return s, nil
}

// MustNewStore is NewStore for callers that cannot handle a schema error.
func MustNewStore(opts ...Option) *Store {
	s, err := NewStore(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) Reader() repository.Inventory {
	return &Inventory{store: s}
}

func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, inv repository.Inventory) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(ctx, &Inventory{store: s, txn: txn}); err != nil {
		return err
	}

	txn.Commit()
	return nil
}
