package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/repository"
)

func (i *Inventory) SeatTaken(ctx context.Context, showingID int64, seat domain.Seat) (bool, error) {
	const op = "memory.Inventory.SeatTaken"

	txn := i.read()

	raw, err := txn.First(tableSeats, indexSlot, showingID, seat.Row, seat.Col)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}
	if raw == nil {
		return false, nil
	}

	booked, err := isBooked(txn, raw.(*domain.ReservedSeat).ReservationID)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}

	return booked, nil
}

func (i *Inventory) OccupiedSeats(ctx context.Context, showingID int64) ([]domain.Seat, error) {
	const op = "memory.Inventory.OccupiedSeats"

	booked, err := bookedSeats(i.read(), showingID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	out := make([]domain.Seat, 0, len(booked))
	for _, s := range booked {
		out = append(out, s.Seat())
	}

	return out, nil
}

func (i *Inventory) AddReservedSeats(ctx context.Context, seats []domain.ReservedSeat) error {
	const op = "memory.Inventory.AddReservedSeats"

	err := i.write(func(txn *memdb.Txn) error {
		for _, s := range seats {
			existing, err := txn.First(tableSeats, indexSlot, s.ShowingID, s.Row, s.Col)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: showing %d seat (%d,%d)", repository.ErrConflict, s.ShowingID, s.Row, s.Col)
			}

			s.ID = i.store.seatSeq.Add(1)
			if err := txn.Insert(tableSeats, &s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (i *Inventory) ListReservedSeats(ctx context.Context, reservationID int64) ([]domain.ReservedSeat, error) {
	const op = "memory.Inventory.ListReservedSeats"

	it, err := i.read().Get(tableSeats, indexReservation, reservationID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return collectSeats(it), nil
}

func (i *Inventory) DeleteReservedSeats(
	ctx context.Context,
	reservationID int64,
	seats []domain.Seat,
) (int64, error) {
	const op = "memory.Inventory.DeleteReservedSeats"

	var deleted int64
	err := i.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableReservations, indexID, reservationID)
		if err != nil {
			return err
		}
		if raw == nil {
			return nil
		}
		showingID := raw.(*domain.Reservation).ShowingID

		for _, s := range seats {
			obj, err := txn.First(tableSeats, indexSlot, showingID, s.Row, s.Col)
			if err != nil {
				return err
			}
			if obj == nil || obj.(*domain.ReservedSeat).ReservationID != reservationID {
				continue
			}
			if err := txn.Delete(tableSeats, obj); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return deleted, nil
}

func (i *Inventory) BookedSeats(ctx context.Context, showingID int64) ([]domain.ReservedSeat, error) {
	const op = "memory.Inventory.BookedSeats"

	out, err := bookedSeats(i.read(), showingID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func bookedSeats(txn *memdb.Txn, showingID int64) ([]domain.ReservedSeat, error) {
	it, err := txn.Get(tableSeats, indexShowing, showingID)
	if err != nil {
		return nil, err
	}

	status := make(map[int64]bool)
	var out []domain.ReservedSeat
	for _, s := range collectSeats(it) {
		booked, seen := status[s.ReservationID]
		if !seen {
			if booked, err = isBooked(txn, s.ReservationID); err != nil {
				return nil, err
			}
			status[s.ReservationID] = booked
		}
		if booked {
			out = append(out, s)
		}
	}

	return out, nil
}

func isBooked(txn *memdb.Txn, reservationID int64) (bool, error) {
	raw, err := txn.First(tableReservations, indexID, reservationID)
	if err != nil || raw == nil {
		return false, err
	}
	return raw.(*domain.Reservation).Status == domain.StatusBooked, nil
}

// collectSeats drains it into a slice ordered by row, then column.
func collectSeats(it memdb.ResultIterator) []domain.ReservedSeat {
	var out []domain.ReservedSeat
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*domain.ReservedSeat))
	}

	slices.SortFunc(out, func(a, b domain.ReservedSeat) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Col, b.Col)
	})

	return out
}
