package httpgin

import (
	"time"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/pricing"
	"github.com/kirinyoku/showseat/internal/seatlabel"
	"github.com/kirinyoku/showseat/internal/service/booking"
	"github.com/shopspring/decimal"
)

type BookSeatsRequest struct {
	HolderName    string   `json:"holder_name" binding:"required"`
	HolderContact string   `json:"holder_contact"`
	Seats         []string `json:"seats" binding:"required,min=1,dive,required"`
}

type CancelSeatsRequest struct {
	Seats []string `json:"seats" binding:"required,min=1,dive,required"`
}

type CreateShowingRequest struct {
	Title     string          `json:"title" binding:"required"`
	Screen    string          `json:"screen"`
	Rows      int             `json:"rows" binding:"required,gt=0"`
	Cols      int             `json:"cols" binding:"required,gt=0"`
	BasePrice decimal.Decimal `json:"base_price"`
	StartsAt  string          `json:"starts_at" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SeatPrice struct {
	Label string      `json:"label"`
	Tier  domain.Tier `json:"tier,omitempty"`
	Price string      `json:"price"`
}

type BookingResponse struct {
	ReservationID int64       `json:"reservation_id"`
	BookingRef    string      `json:"booking_ref"`
	Total         string      `json:"total"`
	Seats         []SeatPrice `json:"seats"`
}

type CancelResponse struct {
	ReservationID int64                    `json:"reservation_id"`
	Refund        string                   `json:"refund"`
	Status        domain.ReservationStatus `json:"status"`
	Total         string                   `json:"total"`
}

type ReservationResponse struct {
	ReservationID int64                    `json:"reservation_id"`
	BookingRef    string                   `json:"booking_ref"`
	ShowingID     int64                    `json:"showing_id"`
	HolderName    string                   `json:"holder_name"`
	HolderContact string                   `json:"holder_contact"`
	Status        domain.ReservationStatus `json:"status"`
	Total         string                   `json:"total"`
	Seats         []SeatPrice              `json:"seats"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type SeatCell struct {
	Label     string      `json:"label"`
	Tier      domain.Tier `json:"tier"`
	Available bool        `json:"available"`
}

type SeatMapResponse struct {
	ShowingID int64        `json:"showing_id"`
	Rows      int          `json:"rows"`
	Cols      int          `json:"cols"`
	Free      int          `json:"free"`
	Seats     [][]SeatCell `json:"seats"`
}

type SeatAvailabilityResponse struct {
	ShowingID int64  `json:"showing_id"`
	Label     string `json:"label"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Available bool   `json:"available"`
}

type CreateShowingResponse struct {
	ShowingID int64 `json:"showing_id"`
}

// TitleDaysResponse lists days as YYYY-MM-DD in UTC.
type TitleDaysResponse struct {
	Title string   `json:"title"`
	Days  []string `json:"days"`
}

func newBookingResponse(b *booking.Booking) BookingResponse {
	seats := make([]SeatPrice, 0, len(b.Seats))
	for _, s := range b.Seats {
		seats = append(seats, SeatPrice{
			Label: seatlabel.Format(s.Seat),
			Tier:  s.Tier,
			Price: s.Price.StringFixed(2),
		})
	}

	return BookingResponse{
		ReservationID: b.ReservationID,
		BookingRef:    seatlabel.FormatBookingRef(b.ReservationID),
		Total:         b.Total.StringFixed(2),
		Seats:         seats,
	}
}

func newReservationResponse(r *domain.ReservationWithSeats, policy *pricing.Policy) ReservationResponse {
	seats := make([]SeatPrice, 0, len(r.Seats))
	for _, s := range r.Seats {
		seats = append(seats, SeatPrice{
			Label: seatlabel.Format(s.Seat()),
			Tier:  policy.TierForRow(s.Row),
			Price: s.Price.StringFixed(2),
		})
	}

	res := r.Reservation
	return ReservationResponse{
		ReservationID: res.ID,
		BookingRef:    seatlabel.FormatBookingRef(res.ID),
		ShowingID:     res.ShowingID,
		HolderName:    res.HolderName,
		HolderContact: res.HolderContact,
		Status:        res.Status,
		Total:         res.Total.StringFixed(2),
		Seats:         seats,
		CreatedAt:     res.CreatedAt,
		UpdatedAt:     res.UpdatedAt,
	}
}

func newSeatMapResponse(sm *domain.SeatMap) SeatMapResponse {
	out := SeatMapResponse{
		ShowingID: sm.ShowingID,
		Rows:      sm.Rows,
		Cols:      sm.Cols,
		Seats:     make([][]SeatCell, sm.Rows),
	}

	for r := range sm.Rows {
		out.Seats[r] = make([]SeatCell, sm.Cols)
		for c := range sm.Cols {
			free := sm.Available[r][c]
			if free {
				out.Free++
			}

			var tier domain.Tier
			if r < len(sm.RowTiers) {
				tier = sm.RowTiers[r]
			}

			out.Seats[r][c] = SeatCell{
				Label:     seatlabel.Format(domain.Seat{Row: r, Col: c}),
				Tier:      tier,
				Available: free,
			}
		}
	}

	return out
}

func newTitleDaysResponse(title string, days []time.Time) TitleDaysResponse {
	out := TitleDaysResponse{Title: title, Days: make([]string, 0, len(days))}
	for _, d := range days {
		out.Days = append(out.Days, d.Format(time.DateOnly))
	}
	return out
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
