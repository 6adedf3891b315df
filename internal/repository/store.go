package repository

import (
	"context"
	"time"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/shopspring/decimal"
)

// SeatReader is the read surface needed to decide seat availability. Only
// seats attached to BOOKED reservations count as taken.
type SeatReader interface {
	SeatTaken(ctx context.Context, showingID int64, seat domain.Seat) (bool, error)
	OccupiedSeats(ctx context.Context, showingID int64) ([]domain.Seat, error)
}

// ShowingFilter narrows ListShowings to starts in [From, To). Zero fields do
// not filter; a zero Limit returns every match. Results are ordered by start
// time, then id.
type ShowingFilter struct {
	Title  string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Inventory is the full read/write surface of the inventory store. Obtained
// from Store.Reader it runs each call on its own; inside Store.RunTx every
// call belongs to the same transaction.
type Inventory interface {
	SeatReader

	CreateShowing(ctx context.Context, sh domain.Showing) (int64, error)
	GetShowing(ctx context.Context, id int64) (*domain.Showing, error)
	ListShowings(ctx context.Context, f ShowingFilter) ([]domain.Showing, error)
	// ListTitles returns the distinct titles that have at least one showing,
	// sorted.
	ListTitles(ctx context.Context) ([]string, error)

	// LockShowing takes the write intent on a showing for the rest of the
	// transaction. It serializes writers of one showing across processes.
	LockShowing(ctx context.Context, showingID int64) error

	CreateReservation(ctx context.Context, r domain.Reservation) (int64, error)
	GetReservation(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdateReservation(ctx context.Context, id int64, status domain.ReservationStatus, total decimal.Decimal) error

	// AddReservedSeats fails with ErrConflict when a (showing, row, col) pair
	// is already reserved.
	AddReservedSeats(ctx context.Context, seats []domain.ReservedSeat) error
	ListReservedSeats(ctx context.Context, reservationID int64) ([]domain.ReservedSeat, error)
	DeleteReservedSeats(ctx context.Context, reservationID int64, seats []domain.Seat) (int64, error)

	// BookedSeats lists the reserved seats of a showing whose reservation is
	// BOOKED, with their snapshotted prices.
	BookedSeats(ctx context.Context, showingID int64) ([]domain.ReservedSeat, error)
}

type Store interface {
	Reader() Inventory
	RunTx(ctx context.Context, fn func(ctx context.Context, inv Inventory) error) error
}
