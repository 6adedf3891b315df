package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	StatusBooked    ReservationStatus = "BOOKED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

type Tier string

const (
	TierStandard Tier = "Standard"
	TierPremium  Tier = "Premium"
)

// Seat addresses one cell of a showing's grid. Row and Col are 0-based.
type Seat struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Showing struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Screen    string          `json:"screen"`
	Rows      int             `json:"rows"`
	Cols      int             `json:"cols"`
	BasePrice decimal.Decimal `json:"base_price"`
	StartsAt  time.Time       `json:"starts_at"`
}

// Contains reports whether s lies inside the showing's grid.
func (sh Showing) Contains(s Seat) bool {
	return s.Row >= 0 && s.Row < sh.Rows && s.Col >= 0 && s.Col < sh.Cols
}

type Reservation struct {
	ID            int64             `json:"id"`
	ShowingID     int64             `json:"showing_id"`
	HolderName    string            `json:"holder_name"`
	HolderContact string            `json:"holder_contact"`
	Status        ReservationStatus `json:"status"`
	Total         decimal.Decimal   `json:"total"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type ReservedSeat struct {
	ID            int64           `json:"id"`
	ReservationID int64           `json:"reservation_id"`
	ShowingID     int64           `json:"showing_id"`
	Row           int             `json:"row"`
	Col           int             `json:"col"`
	Price         decimal.Decimal `json:"price"`
}

func (rs ReservedSeat) Seat() Seat {
	return Seat{Row: rs.Row, Col: rs.Col}
}

// PricedSeat is a seat confirmed by a booking, with the price it was sold at.
type PricedSeat struct {
	Seat
	Tier  Tier            `json:"tier"`
	Price decimal.Decimal `json:"price"`
}

type ReservationWithSeats struct {
	Reservation Reservation    `json:"reservation"`
	Seats       []ReservedSeat `json:"seats"`
}

// SeatMap is the occupancy grid of a showing; Available[r][c] is true when the
// seat is free. RowTiers[r] is the price tier of row r.
type SeatMap struct {
	ShowingID int64    `json:"showing_id"`
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	Available [][]bool `json:"available"`
	RowTiers  []Tier   `json:"row_tiers"`
}

type TierStats struct {
	Tier    Tier            `json:"tier"`
	Seats   int64           `json:"seats"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ShowingReport struct {
	ShowingID   int64           `json:"showing_id"`
	Title       string          `json:"title"`
	StartsAt    time.Time       `json:"starts_at"`
	Capacity    int64           `json:"capacity"`
	BookedSeats int64           `json:"booked_seats"`
	Occupancy   float64         `json:"occupancy_percent"`
	Revenue     decimal.Decimal `json:"revenue"`
	Tiers       []TierStats     `json:"tiers"`
}

// DayReport totals the showings of one title on one UTC calendar day.
type DayReport struct {
	Title       string          `json:"title"`
	Day         time.Time       `json:"day"`
	Capacity    int64           `json:"capacity"`
	BookedSeats int64           `json:"booked_seats"`
	Revenue     decimal.Decimal `json:"revenue"`
	Showings    []ShowingReport `json:"showings"`
}

// CalendarDay truncates t to midnight UTC of its calendar day.
func CalendarDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
