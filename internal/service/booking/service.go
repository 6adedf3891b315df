// Package booking grants and reverses seat reservations. Every write for a
// showing runs under that showing's lock and inside one store transaction,
// so a seat is never sold twice.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/lock"
	"github.com/kirinyoku/showseat/internal/pricing"
	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/kirinyoku/showseat/internal/seatmap"
	"github.com/kirinyoku/showseat/internal/uow"
	"github.com/shopspring/decimal"
)

type SeatMapInvalidator interface {
	InvalidateShowing(ctx context.Context, showingID int64) error
}

type ChangePublisher interface {
	PublishShowingChanged(ctx context.Context, showingID int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.BookingEvent) error
}

// Hooks are the optional side effects of a committed change. Nil fields are
// skipped.
type Hooks struct {
	Cache   SeatMapInvalidator
	PubSub  ChangePublisher
	Limiter RateLimiter
	Events  EventPublisher
}

type BookRequest struct {
	ShowingID     int64
	HolderName    string
	HolderContact string
	Seats         []domain.Seat
	Rows          int
	Cols          int

	// RateKey identifies the caller for rate limiting; empty disables it.
	RateKey string
}

type Booking struct {
	ReservationID int64               `json:"reservation_id"`
	Total         decimal.Decimal     `json:"total"`
	Seats         []domain.PricedSeat `json:"seats"`
}

type Service struct {
	store     repository.Store
	uow       *uow.UoW
	pricing   *pricing.Policy
	locks     *lock.Registry
	projector *seatmap.Projector
	hooks     Hooks
	log       *slog.Logger
	now       func() time.Time
}

func New(
	store repository.Store,
	policy *pricing.Policy,
	locks *lock.Registry,
	hooks Hooks,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store:     store,
		uow:       uow.NewUoW(store),
		pricing:   policy,
		locks:     locks,
		projector: seatmap.New(),
		hooks:     hooks,
		log:       log,
		now:       time.Now,
	}
}

// BookSeats reserves every seat in req or none of them.
//
// Returns:
//   - *Booking: the new reservation id, its total and the price of each seat.
//   - error: booking.ErrInvalidRequest for malformed input, before any lock.
//   - error: booking.ErrRateLimited when the caller is over its budget.
//   - error: booking.SeatUnavailableError when any seat is already taken.
//   - error: booking.ErrStoreFailure when the store fails; nothing is kept.
func (s *Service) BookSeats(ctx context.Context, req BookRequest) (*Booking, error) {
	const op = "service.booking.BookSeats"

	if err := validateBooking(req); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.hooks.Limiter != nil && req.RateKey != "" {
		ok, _, retry, err := s.hooks.Limiter.Allow(ctx, req.RateKey)
		if err != nil {
			s.log.WarnContext(ctx, "rate limiter unavailable", slog.String("op", op), slog.Any("err", err))
		} else if !ok {
			return nil, fmt.Errorf("%s:%w", op, RateLimitedError{RetryAfter: retry})
		}
	}

	// Advisory pre-check; the authoritative one runs under the lock.
	if seat, taken, err := s.projector.FirstTaken(ctx, s.store.Reader(), req.ShowingID, req.Seats); err != nil {
		return nil, fmt.Errorf("%s:%w", op, storeFailure(err))
	} else if taken {
		return nil, fmt.Errorf("%s:%w", op, SeatUnavailableError{Seats: []domain.Seat{seat}})
	}

	priced, total := s.pricing.Quote(req.Seats)

	var reservationID int64

	err := s.commitLocked(ctx, req.ShowingID, func(
		ctx context.Context,
		inv repository.Inventory,
	) (domain.BookingEvent, error) {
		if err := inv.LockShowing(ctx, req.ShowingID); err != nil {
			return domain.BookingEvent{}, storeFailure(err)
		}

		seat, taken, err := s.projector.FirstTaken(ctx, inv, req.ShowingID, req.Seats)
		if err != nil {
			return domain.BookingEvent{}, storeFailure(err)
		}
		if taken {
			return domain.BookingEvent{}, SeatUnavailableError{Seats: []domain.Seat{seat}}
		}

		id, err := inv.CreateReservation(ctx, domain.Reservation{
			ShowingID:     req.ShowingID,
			HolderName:    req.HolderName,
			HolderContact: req.HolderContact,
			Status:        domain.StatusBooked,
			Total:         total,
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.BookingEvent{}, fmt.Errorf("%w: showing %d", ErrNotFound, req.ShowingID)
			}
			return domain.BookingEvent{}, storeFailure(err)
		}

		rows := make([]domain.ReservedSeat, 0, len(priced))
		for _, p := range priced {
			rows = append(rows, domain.ReservedSeat{
				ReservationID: id,
				ShowingID:     req.ShowingID,
				Row:           p.Row,
				Col:           p.Col,
				Price:         p.Price,
			})
		}

		if err := inv.AddReservedSeats(ctx, rows); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.BookingEvent{}, SeatUnavailableError{Seats: req.Seats}
			}
			return domain.BookingEvent{}, storeFailure(err)
		}

		reservationID = id

		return domain.BookingEvent{
			Type:          domain.EventBookingConfirmed,
			ReservationID: id,
			ShowingID:     req.ShowingID,
			Seats:         req.Seats,
			Amount:        total,
			Status:        domain.StatusBooked,
			OccurredAt:    s.now(),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.log.InfoContext(ctx, "seats booked",
		slog.Int64("reservation_id", reservationID),
		slog.Int64("showing_id", req.ShowingID),
		slog.Int("seats", len(req.Seats)),
		slog.String("total", total.StringFixed(2)),
	)

	return &Booking{
		ReservationID: reservationID,
		Total:         total,
		Seats:         priced,
	}, nil
}

// CancelSeats removes seats from a booked reservation and returns the refund,
// the sum of the prices the seats were sold at. Removing the last seat
// cancels the reservation.
//
// Returns:
//   - decimal.Decimal: the refund.
//   - error: booking.ErrInvalidRequest for an empty or repeated seat list.
//   - error: booking.ErrNotFound when the reservation does not exist.
//   - error: booking.ErrInvalidState when it is already cancelled.
//   - error: booking.SeatNotInReservationError when a seat is not part of
//     the reservation; nothing is changed.
//   - error: booking.ErrInvariantViolation when the stored total disagrees
//     with the stored seat prices.
func (s *Service) CancelSeats(
	ctx context.Context,
	reservationID int64,
	seats []domain.Seat,
) (decimal.Decimal, error) {
	const op = "service.booking.CancelSeats"

	if err := validateCancellation(seats); err != nil {
		return decimal.Zero, fmt.Errorf("%s:%w", op, err)
	}

	res, err := s.store.Reader().GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%s:%w", op, ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("%s:%w", op, storeFailure(err))
	}

	showingID := res.ShowingID

	var (
		refund decimal.Decimal
		status domain.ReservationStatus
	)

	err = s.commitLocked(ctx, showingID, func(
		ctx context.Context,
		inv repository.Inventory,
	) (domain.BookingEvent, error) {
		if err := inv.LockShowing(ctx, showingID); err != nil {
			return domain.BookingEvent{}, storeFailure(err)
		}

		cur, err := inv.GetReservation(ctx, reservationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.BookingEvent{}, ErrNotFound
			}
			return domain.BookingEvent{}, storeFailure(err)
		}

		if cur.Status != domain.StatusBooked {
			return domain.BookingEvent{}, fmt.Errorf("%w: reservation %d is %s", ErrInvalidState, reservationID, cur.Status)
		}

		attached, err := inv.ListReservedSeats(ctx, reservationID)
		if err != nil {
			return domain.BookingEvent{}, storeFailure(err)
		}

		bySeat := make(map[domain.Seat]domain.ReservedSeat, len(attached))
		sum := decimal.Zero
		for _, rs := range attached {
			bySeat[rs.Seat()] = rs
			sum = sum.Add(rs.Price)
		}

		if !cur.Total.Equal(sum) {
			return domain.BookingEvent{}, fmt.Errorf("%w: reservation %d total %s, seats sum to %s",
				ErrInvariantViolation, reservationID, cur.Total.StringFixed(2), sum.StringFixed(2))
		}

		refund = decimal.Zero
		for _, seat := range seats {
			rs, ok := bySeat[seat]
			if !ok {
				return domain.BookingEvent{}, SeatNotInReservationError{ReservationID: reservationID, Seat: seat}
			}
			refund = refund.Add(rs.Price)
			delete(bySeat, seat)
		}

		deleted, err := inv.DeleteReservedSeats(ctx, reservationID, seats)
		if err != nil {
			return domain.BookingEvent{}, storeFailure(err)
		}
		if deleted != int64(len(seats)) {
			return domain.BookingEvent{}, fmt.Errorf("%w: removed %d of %d seats", ErrInvariantViolation, deleted, len(seats))
		}

		newTotal := cur.Total.Sub(refund)
		status = domain.StatusBooked
		if len(bySeat) == 0 {
			status = domain.StatusCancelled
			newTotal = decimal.Zero
		} else if newTotal.IsNegative() {
			return domain.BookingEvent{}, fmt.Errorf("%w: reservation %d total would be %s",
				ErrInvariantViolation, reservationID, newTotal.StringFixed(2))
		}

		if err := inv.UpdateReservation(ctx, reservationID, status, newTotal); err != nil {
			return domain.BookingEvent{}, storeFailure(err)
		}

		return domain.BookingEvent{
			Type:          domain.EventBookingCancelled,
			ReservationID: reservationID,
			ShowingID:     showingID,
			Seats:         seats,
			Amount:        refund,
			Status:        status,
			OccurredAt:    s.now(),
		}, nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s:%w", op, err)
	}

	s.log.InfoContext(ctx, "seats cancelled",
		slog.Int64("reservation_id", reservationID),
		slog.Int("seats", len(seats)),
		slog.String("refund", refund.StringFixed(2)),
		slog.String("status", string(status)),
	)

	return refund, nil
}

// ReservationSeats lists the seats still attached to a reservation, ordered
// by row, then column.
func (s *Service) ReservationSeats(ctx context.Context, reservationID int64) ([]domain.Seat, error) {
	const op = "service.booking.ReservationSeats"

	inv := s.store.Reader()

	if _, err := inv.GetReservation(ctx, reservationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, storeFailure(err))
	}

	attached, err := inv.ListReservedSeats(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, storeFailure(err))
	}

	out := make([]domain.Seat, 0, len(attached))
	for _, rs := range attached {
		out = append(out, rs.Seat())
	}

	return out, nil
}

// IsSeatAvailable is an advisory read; the answer may be stale by the time
// the caller acts on it.
func (s *Service) IsSeatAvailable(ctx context.Context, showingID int64, seat domain.Seat) (bool, error) {
	const op = "service.booking.IsSeatAvailable"

	ok, err := s.projector.IsSeatAvailable(ctx, s.store.Reader(), showingID, seat)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, storeFailure(err))
	}

	return ok, nil
}

func (s *Service) Occupancy(ctx context.Context, showingID int64, rows, cols int) ([][]bool, error) {
	const op = "service.booking.Occupancy"

	grid, err := s.projector.Occupancy(ctx, s.store.Reader(), showingID, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, storeFailure(err))
	}

	return grid, nil
}

// commitLocked runs fn in one transaction while holding the showing's lock.
// The lock is released as soon as the transaction ends; the event fn returns
// is announced afterwards, detached from the caller's cancellation.
func (s *Service) commitLocked(
	ctx context.Context,
	showingID int64,
	fn func(ctx context.Context, inv repository.Inventory) (domain.BookingEvent, error),
) error {
	var committed *domain.BookingEvent

	err := s.inShowingTx(ctx, showingID, func(
		ctx context.Context,
		inv repository.Inventory,
		after func(uow.AfterCommit),
	) error {
		ev, err := fn(ctx, inv)
		if err != nil {
			return err
		}
		after(func(context.Context) { committed = &ev })
		return nil
	})
	if err != nil {
		return err
	}

	if committed != nil {
		s.afterChange(context.WithoutCancel(ctx), *committed)
	}

	return nil
}

func (s *Service) inShowingTx(
	ctx context.Context,
	showingID int64,
	fn func(ctx context.Context, inv repository.Inventory, after func(uow.AfterCommit)) error,
) error {
	l := s.locks.For(showingID)
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer l.Unlock()

	return s.uow.Do(ctx, fn)
}

func (s *Service) afterChange(ctx context.Context, ev domain.BookingEvent) {
	if s.hooks.Cache != nil {
		if err := s.hooks.Cache.InvalidateShowing(ctx, ev.ShowingID); err != nil {
			s.log.WarnContext(ctx, "seat map invalidation failed",
				slog.Int64("showing_id", ev.ShowingID), slog.Any("err", err))
		}
	}

	if s.hooks.PubSub != nil {
		if err := s.hooks.PubSub.PublishShowingChanged(ctx, ev.ShowingID); err != nil {
			s.log.WarnContext(ctx, "showing change publish failed",
				slog.Int64("showing_id", ev.ShowingID), slog.Any("err", err))
		}
	}

	if s.hooks.Events != nil {
		if err := s.hooks.Events.Publish(ctx, ev); err != nil {
			s.log.WarnContext(ctx, "booking event publish failed",
				slog.String("type", ev.Type),
				slog.Int64("reservation_id", ev.ReservationID),
				slog.Any("err", err))
		}
	}
}

func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}

func validateBooking(req BookRequest) error {
	switch {
	case req.Rows < 1 || req.Cols < 1:
		return InvalidRequestError{Reason: fmt.Sprintf("grid %dx%d", req.Rows, req.Cols)}
	case req.HolderName == "":
		return InvalidRequestError{Reason: "holder name is required"}
	case len(req.Seats) == 0:
		return InvalidRequestError{Reason: "no seats requested"}
	}

	seen := make(map[domain.Seat]struct{}, len(req.Seats))
	for _, seat := range req.Seats {
		if seat.Row < 0 || seat.Row >= req.Rows || seat.Col < 0 || seat.Col >= req.Cols {
			return InvalidRequestError{Reason: fmt.Sprintf("seat %s outside %dx%d grid", formatSeat(seat), req.Rows, req.Cols)}
		}
		if _, dup := seen[seat]; dup {
			return InvalidRequestError{Reason: fmt.Sprintf("seat %s requested twice", formatSeat(seat))}
		}
		seen[seat] = struct{}{}
	}

	return nil
}

func validateCancellation(seats []domain.Seat) error {
	if len(seats) == 0 {
		return InvalidRequestError{Reason: "no seats to cancel"}
	}

	seen := make(map[domain.Seat]struct{}, len(seats))
	for _, seat := range seats {
		if seat.Row < 0 || seat.Col < 0 {
			return InvalidRequestError{Reason: fmt.Sprintf("seat %s has a negative index", formatSeat(seat))}
		}
		if _, dup := seen[seat]; dup {
			return InvalidRequestError{Reason: fmt.Sprintf("seat %s listed twice", formatSeat(seat))}
		}
		seen[seat] = struct{}{}
	}

	return nil
}
