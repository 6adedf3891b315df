// Package query serves the read side: seat maps, reservations and showing
// reports. Reads see committed data only and take no locks.
package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/pricing"
	redisx "github.com/kirinyoku/showseat/internal/redis"
	"github.com/kirinyoku/showseat/internal/repository"
	redisrepo "github.com/kirinyoku/showseat/internal/repository/redis"
	"github.com/kirinyoku/showseat/internal/seatmap"
	"github.com/shopspring/decimal"
)

type Config struct {
	SeatMapTTL time.Duration
	ReportTTL  time.Duration
}

type Service struct {
	store     repository.Store
	cache     *redisrepo.Cache
	pricing   *pricing.Policy
	projector *seatmap.Projector
	cfg       Config
}

// New builds the read service. cache may be nil.
func New(store repository.Store, cache *redisrepo.Cache, policy *pricing.Policy, cfg Config) *Service {
	if cfg.SeatMapTTL <= 0 {
		cfg.SeatMapTTL = 30 * time.Second
	}

	if cfg.ReportTTL <= 0 {
		cfg.ReportTTL = 60 * time.Second
	}

	return &Service{
		store:     store,
		cache:     cache,
		pricing:   policy,
		projector: seatmap.New(),
		cfg:       cfg,
	}
}

// SeatMap returns the occupancy grid of a showing.
//
// Returns:
//   - *domain.SeatMap: availability per seat and the tier of every row.
//   - error: query.ErrShowingNotFound if the showing does not exist.
func (s *Service) SeatMap(ctx context.Context, showingID int64) (*domain.SeatMap, error) {
	const op = "service.query.SeatMap"

	sm, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyShowingSeatMap(showingID),
		s.cfg.SeatMapTTL,
		func(ctx context.Context) (domain.SeatMap, error) {
			inv := s.store.Reader()

			sh, err := s.showing(ctx, inv, showingID)
			if err != nil {
				return domain.SeatMap{}, err
			}

			grid, err := s.projector.Occupancy(ctx, inv, showingID, sh.Rows, sh.Cols)
			if err != nil {
				return domain.SeatMap{}, err
			}

			tiers := make([]domain.Tier, sh.Rows)
			for r := range tiers {
				tiers[r] = s.pricing.TierForRow(r)
			}

			return domain.SeatMap{
				ShowingID: showingID,
				Rows:      sh.Rows,
				Cols:      sh.Cols,
				Available: grid,
				RowTiers:  tiers,
			}, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sm, nil
}

// Reservation returns a reservation with the seats still attached to it.
func (s *Service) Reservation(ctx context.Context, id int64) (*domain.ReservationWithSeats, error) {
	const op = "service.query.Reservation"

	inv := s.store.Reader()

	res, err := inv.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrReservationNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seats, err := inv.ListReservedSeats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if seats == nil {
		seats = []domain.ReservedSeat{}
	}

	return &domain.ReservationWithSeats{Reservation: *res, Seats: seats}, nil
}

// Report summarizes sales of a showing: booked seats, occupancy and revenue,
// overall and per price tier. Revenue sums the prices seats were sold at.
func (s *Service) Report(ctx context.Context, showingID int64) (*domain.ShowingReport, error) {
	const op = "service.query.Report"

	rep, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyShowingReport(showingID),
		s.cfg.ReportTTL,
		func(ctx context.Context) (domain.ShowingReport, error) {
			inv := s.store.Reader()

			sh, err := s.showing(ctx, inv, showingID)
			if err != nil {
				return domain.ShowingReport{}, err
			}

			booked, err := inv.BookedSeats(ctx, showingID)
			if err != nil {
				return domain.ShowingReport{}, err
			}

			return buildReport(sh, booked, s.pricing), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rep, nil
}

// DayReport reports every showing of title on the UTC calendar day of day,
// in start order, with totals across them. It is not cached.
//
// Returns:
//   - error: query.ErrNoShowings if the title does not play that day.
func (s *Service) DayReport(ctx context.Context, title string, day time.Time) (*domain.DayReport, error) {
	const op = "service.query.DayReport"

	inv := s.store.Reader()
	from := domain.CalendarDay(day)

	showings, err := inv.ListShowings(ctx, repository.ShowingFilter{
		Title: title,
		From:  from,
		To:    from.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(showings) == 0 {
		return nil, fmt.Errorf("%s: %w: %q on %s", op, ErrNoShowings, title, from.Format(time.DateOnly))
	}

	out := &domain.DayReport{
		Title:    title,
		Day:      from,
		Revenue:  decimal.Zero,
		Showings: make([]domain.ShowingReport, 0, len(showings)),
	}

	for i := range showings {
		booked, err := inv.BookedSeats(ctx, showings[i].ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		rep := buildReport(&showings[i], booked, s.pricing)
		out.Capacity += rep.Capacity
		out.BookedSeats += rep.BookedSeats
		out.Revenue = out.Revenue.Add(rep.Revenue)
		out.Showings = append(out.Showings, rep)
	}

	return out, nil
}

func (s *Service) showing(ctx context.Context, inv repository.Inventory, id int64) (*domain.Showing, error) {
	sh, err := inv.GetShowing(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShowingNotFound
		}
		return nil, err
	}
	return sh, nil
}

func buildReport(sh *domain.Showing, booked []domain.ReservedSeat, policy *pricing.Policy) domain.ShowingReport {
	capacity := int64(sh.Rows) * int64(sh.Cols)

	tiers := []domain.TierStats{
		{Tier: domain.TierStandard, Revenue: decimal.Zero},
		{Tier: domain.TierPremium, Revenue: decimal.Zero},
	}

	revenue := decimal.Zero
	for _, rs := range booked {
		revenue = revenue.Add(rs.Price)

		i := 0
		if policy.TierForRow(rs.Row) == domain.TierPremium {
			i = 1
		}
		tiers[i].Seats++
		tiers[i].Revenue = tiers[i].Revenue.Add(rs.Price)
	}

	var occupancy float64
	if capacity > 0 {
		occupancy = math.Round(float64(len(booked))*10000/float64(capacity)) / 100
	}

	return domain.ShowingReport{
		ShowingID:   sh.ID,
		Title:       sh.Title,
		StartsAt:    sh.StartsAt,
		Capacity:    capacity,
		BookedSeats: int64(len(booked)),
		Occupancy:   occupancy,
		Revenue:     revenue,
		Tiers:       tiers,
	}
}
