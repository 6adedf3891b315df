package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking or a cancellation commits.
// Amount is the reservation total for a confirmation and the refund for a
// cancellation.
type BookingEvent struct {
	Type          string            `json:"type"`
	ReservationID int64             `json:"reservation_id"`
	ShowingID     int64             `json:"showing_id"`
	Seats         []Seat            `json:"seats"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        ReservationStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
