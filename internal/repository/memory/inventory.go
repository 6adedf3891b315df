package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/shopspring/decimal"
)

var _ repository.Inventory = (*Inventory)(nil)

// Inventory implements repository.Inventory. With a nil txn every read uses a
// fresh snapshot and every write commits on its own.
type Inventory struct {
	store *Store
	txn   *memdb.Txn
}

func (i *Inventory) read() *memdb.Txn {
	if i.txn != nil {
		return i.txn
	}
	return i.store.db.Txn(false)
}

func (i *Inventory) write(fn func(txn *memdb.Txn) error) error {
	if i.txn != nil {
		return fn(i.txn)
	}

	txn := i.store.db.Txn(true)
	defer txn.Abort()

	if err := fn(txn); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

// LockShowing is a no-op: the enclosing write transaction already excludes
// every other writer.
func (i *Inventory) LockShowing(ctx context.Context, showingID int64) error {
	return ctx.Err()
}

func (i *Inventory) CreateShowing(ctx context.Context, sh domain.Showing) (int64, error) {
	const op = "memory.Inventory.CreateShowing"

	sh.ID = i.store.showingSeq.Add(1)
	err := i.write(func(txn *memdb.Txn) error {
		return txn.Insert(tableShowings, &sh)
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return sh.ID, nil
}

func (i *Inventory) GetShowing(ctx context.Context, id int64) (*domain.Showing, error) {
	const op = "memory.Inventory.GetShowing"

	raw, err := i.read().First(tableShowings, indexID, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	sh := *raw.(*domain.Showing)
	return &sh, nil
}

func (i *Inventory) ListShowings(ctx context.Context, f repository.ShowingFilter) ([]domain.Showing, error) {
	const op = "memory.Inventory.ListShowings"

	var (
		it  memdb.ResultIterator
		err error
	)
	if f.Title != "" {
		it, err = i.read().Get(tableShowings, indexTitle, f.Title)
	} else {
		it, err = i.read().Get(tableShowings, indexID)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var all []domain.Showing
	for raw := it.Next(); raw != nil; raw = it.Next() {
		sh := raw.(*domain.Showing)
		if !f.From.IsZero() && sh.StartsAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !sh.StartsAt.Before(f.To) {
			continue
		}
		all = append(all, *sh)
	}

	slices.SortFunc(all, func(a, b domain.Showing) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if f.Offset >= len(all) {
		return nil, nil
	}
	all = all[max(f.Offset, 0):]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}

	return all, nil
}

// ListTitles walks the title index, which go-memdb keeps sorted.
func (i *Inventory) ListTitles(ctx context.Context) ([]string, error) {
	const op = "memory.Inventory.ListTitles"

	it, err := i.read().Get(tableShowings, indexTitle)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var titles []string
	for raw := it.Next(); raw != nil; raw = it.Next() {
		title := raw.(*domain.Showing).Title
		if n := len(titles); n == 0 || titles[n-1] != title {
			titles = append(titles, title)
		}
	}

	return titles, nil
}

func (i *Inventory) CreateReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	const op = "memory.Inventory.CreateReservation"

	now := i.store.now()
	r.ID = i.store.reservationSeq.Add(1)
	r.CreatedAt = now
	r.UpdatedAt = now

	err := i.write(func(txn *memdb.Txn) error {
		sh, err := txn.First(tableShowings, indexID, r.ShowingID)
		if err != nil {
			return err
		}
		if sh == nil {
			return repository.ErrNotFound
		}
		return txn.Insert(tableReservations, &r)
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return r.ID, nil
}

func (i *Inventory) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	const op = "memory.Inventory.GetReservation"

	raw, err := i.read().First(tableReservations, indexID, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	r := *raw.(*domain.Reservation)
	return &r, nil
}

func (i *Inventory) UpdateReservation(
	ctx context.Context,
	id int64,
	status domain.ReservationStatus,
	total decimal.Decimal,
) error {
	const op = "memory.Inventory.UpdateReservation"

	err := i.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableReservations, indexID, id)
		if err != nil {
			return err
		}
		if raw == nil {
			return repository.ErrNotFound
		}

		// Stored objects are shared with open snapshots; update a copy.
		r := *raw.(*domain.Reservation)
		r.Status = status
		r.Total = total
		r.UpdatedAt = i.store.now()

		return txn.Insert(tableReservations, &r)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
