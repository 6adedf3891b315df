package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/showseat/internal/domain"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrSeatUnavailable    = errors.New("seat unavailable")
	ErrNotFound           = errors.New("reservation not found")
	ErrInvalidState       = errors.New("reservation is not booked")
	ErrInvariantViolation = errors.New("reservation invariant violated")
	ErrStoreFailure       = errors.New("store failure")
	ErrRateLimited        = errors.New("rate limited")
)

type InvalidRequestError struct {
	Reason string
}

func (e InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

func (e InvalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

// SeatUnavailableError names the seats that blocked a booking. When the
// store rejects the insert itself the exact seat is unknown and Seats holds
// the whole request.
type SeatUnavailableError struct {
	Seats []domain.Seat
}

func (e SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat unavailable: %s", formatSeats(e.Seats))
}

func (e SeatUnavailableError) Unwrap() error {
	return ErrSeatUnavailable
}

type SeatNotInReservationError struct {
	ReservationID int64
	Seat          domain.Seat
}

func (e SeatNotInReservationError) Error() string {
	return fmt.Sprintf("seat %s is not part of reservation %d", formatSeat(e.Seat), e.ReservationID)
}

func (e SeatNotInReservationError) Unwrap() error {
	return ErrInvalidRequest
}

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

func formatSeat(s domain.Seat) string {
	return fmt.Sprintf("(row %d, col %d)", s.Row, s.Col)
}

func formatSeats(seats []domain.Seat) string {
	if len(seats) == 1 {
		return formatSeat(seats[0])
	}

	out := "["
	for i, s := range seats {
		if i > 0 {
			out += " "
		}
		out += formatSeat(s)
	}
	return out + "]"
}
