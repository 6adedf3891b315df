// Package repotest holds the behaviour every repository.Store driver must
// share, as a testify suite the drivers run against their own store.
package repotest

import (
	"context"
	"errors"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InventorySuite struct {
	suite.Suite

	// NewStore returns an empty store; it is called before every test.
	NewStore func() repository.Store

	store repository.Store
	ctx   context.Context
}

func (s *InventorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *InventorySuite) showing(title string) int64 {
	return s.showingAt(title, time.Date(2030, 1, 1, 18, 0, 0, 0, time.UTC))
}

func (s *InventorySuite) showingAt(title string, at time.Time) int64 {
	id, err := s.store.Reader().CreateShowing(s.ctx, domain.Showing{
		Title:     title,
		Screen:    title,
		Rows:      7,
		Cols:      7,
		BasePrice: decimal.NewFromInt(150),
		StartsAt:  at,
	})
	s.Require().NoError(err)
	return id
}

func (s *InventorySuite) book(showingID int64, seats ...domain.Seat) int64 {
	var id int64
	err := s.store.RunTx(s.ctx, func(ctx context.Context, inv repository.Inventory) error {
		var err error
		id, err = inv.CreateReservation(ctx, domain.Reservation{
			ShowingID:  showingID,
			HolderName: "Ann",
			Status:     domain.StatusBooked,
			Total:      decimal.NewFromInt(int64(100 * len(seats))),
		})
		if err != nil {
			return err
		}

		rows := make([]domain.ReservedSeat, 0, len(seats))
		for _, st := range seats {
			rows = append(rows, domain.ReservedSeat{
				ReservationID: id,
				ShowingID:     showingID,
				Row:           st.Row,
				Col:           st.Col,
				Price:         decimal.NewFromInt(100),
			})
		}
		return inv.AddReservedSeats(ctx, rows)
	})
	s.Require().NoError(err)
	return id
}

func (s *InventorySuite) TestShowingRoundTrip() {
	id := s.showing("Coolie")

	got, err := s.store.Reader().GetShowing(s.ctx, id)
	s.Require().NoError(err)

	s.Equal("Coolie", got.Title)
	s.Equal(7, got.Rows)
	s.Equal(7, got.Cols)
	s.True(decimal.NewFromInt(150).Equal(got.BasePrice))
	s.True(got.StartsAt.Equal(time.Date(2030, 1, 1, 18, 0, 0, 0, time.UTC)))

	_, err = s.store.Reader().GetShowing(s.ctx, id+1000)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *InventorySuite) TestListShowingsPages() {
	first := s.showing("A")
	second := s.showing("B")
	third := s.showing("C")

	page, err := s.store.Reader().ListShowings(s.ctx, repository.ShowingFilter{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(first, page[0].ID)
	s.Equal(second, page[1].ID)

	page, err = s.store.Reader().ListShowings(s.ctx, repository.ShowingFilter{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(third, page[0].ID)
}

func (s *InventorySuite) TestListShowingsFiltersByTitleAndWindow() {
	day := time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC)

	late := s.showingAt("Coolie", day.Add(18*time.Hour))
	early := s.showingAt("Coolie", day.Add(10*time.Hour))
	s.showingAt("Coolie", day.Add(24*time.Hour))
	s.showingAt("Thug Life", day.Add(14*time.Hour))

	got, err := s.store.Reader().ListShowings(s.ctx, repository.ShowingFilter{
		Title: "Coolie",
		From:  day,
		To:    day.Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(early, got[0].ID)
	s.Equal(late, got[1].ID)

	all, err := s.store.Reader().ListShowings(s.ctx, repository.ShowingFilter{Title: "Coolie"})
	s.Require().NoError(err)
	s.Len(all, 3)

	none, err := s.store.Reader().ListShowings(s.ctx, repository.ShowingFilter{Title: "Missing"})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *InventorySuite) TestListTitlesIsDistinctAndSorted() {
	titles, err := s.store.Reader().ListTitles(s.ctx)
	s.Require().NoError(err)
	s.Empty(titles)

	s.showing("Thug Life")
	s.showing("Coolie")
	s.showing("Thug Life")
	s.showing("Love Marriage")

	titles, err = s.store.Reader().ListTitles(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Coolie", "Love Marriage", "Thug Life"}, titles)
}

func (s *InventorySuite) TestBookedSeatsAreTaken() {
	sh := s.showing("Coolie")
	s.book(sh, domain.Seat{Row: 3, Col: 3}, domain.Seat{Row: 0, Col: 0})

	inv := s.store.Reader()

	taken, err := inv.SeatTaken(s.ctx, sh, domain.Seat{Row: 3, Col: 3})
	s.Require().NoError(err)
	s.True(taken)

	taken, err = inv.SeatTaken(s.ctx, sh, domain.Seat{Row: 1, Col: 1})
	s.Require().NoError(err)
	s.False(taken)

	occupied, err := inv.OccupiedSeats(s.ctx, sh)
	s.Require().NoError(err)
	if diff := cmp.Diff([]domain.Seat{{Row: 0, Col: 0}, {Row: 3, Col: 3}}, occupied); diff != "" {
		s.Failf("occupied seats mismatch", "(-want +got):\n%s", diff)
	}
}

func (s *InventorySuite) TestDuplicateSeatConflicts() {
	sh := s.showing("Coolie")
	s.book(sh, domain.Seat{Row: 2, Col: 2})

	err := s.store.RunTx(s.ctx, func(ctx context.Context, inv repository.Inventory) error {
		id, err := inv.CreateReservation(ctx, domain.Reservation{
			ShowingID:  sh,
			HolderName: "Bob",
			Status:     domain.StatusBooked,
			Total:      decimal.NewFromInt(100),
		})
		if err != nil {
			return err
		}
		return inv.AddReservedSeats(ctx, []domain.ReservedSeat{{
			ReservationID: id, ShowingID: sh, Row: 2, Col: 2, Price: decimal.NewFromInt(100),
		}})
	})
	s.ErrorIs(err, repository.ErrConflict)

	// the failed transaction left nothing behind
	booked, err := s.store.Reader().BookedSeats(s.ctx, sh)
	s.Require().NoError(err)
	s.Len(booked, 1)
}

func (s *InventorySuite) TestSameSeatOnOtherShowingIsIndependent() {
	a := s.showing("A")
	b := s.showing("B")

	s.book(a, domain.Seat{Row: 0, Col: 0})
	s.book(b, domain.Seat{Row: 0, Col: 0})

	occupied, err := s.store.Reader().OccupiedSeats(s.ctx, b)
	s.Require().NoError(err)
	s.Len(occupied, 1)
}

func (s *InventorySuite) TestRollbackDiscardsWrites() {
	sh := s.showing("Coolie")
	boom := errors.New("boom")

	err := s.store.RunTx(s.ctx, func(ctx context.Context, inv repository.Inventory) error {
		id, err := inv.CreateReservation(ctx, domain.Reservation{
			ShowingID: sh, HolderName: "Ann", Status: domain.StatusBooked, Total: decimal.NewFromInt(100),
		})
		if err != nil {
			return err
		}
		if err := inv.AddReservedSeats(ctx, []domain.ReservedSeat{{
			ReservationID: id, ShowingID: sh, Row: 1, Col: 1, Price: decimal.NewFromInt(100),
		}}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	taken, err := s.store.Reader().SeatTaken(s.ctx, sh, domain.Seat{Row: 1, Col: 1})
	s.Require().NoError(err)
	s.False(taken)
}

func (s *InventorySuite) TestDeleteAndUpdateReservation() {
	sh := s.showing("Coolie")
	id := s.book(sh, domain.Seat{Row: 0, Col: 0}, domain.Seat{Row: 0, Col: 1})

	err := s.store.RunTx(s.ctx, func(ctx context.Context, inv repository.Inventory) error {
		if err := inv.LockShowing(ctx, sh); err != nil {
			return err
		}
		n, err := inv.DeleteReservedSeats(ctx, id, []domain.Seat{{Row: 0, Col: 0}, {Row: 5, Col: 5}})
		if err != nil {
			return err
		}
		s.Equal(int64(1), n)
		return inv.UpdateReservation(ctx, id, domain.StatusBooked, decimal.NewFromInt(100))
	})
	s.Require().NoError(err)

	seats, err := s.store.Reader().ListReservedSeats(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(seats, 1)
	s.Equal(domain.Seat{Row: 0, Col: 1}, seats[0].Seat())

	err = s.store.Reader().UpdateReservation(s.ctx, id, domain.StatusCancelled, decimal.Zero)
	s.Require().NoError(err)

	res, err := s.store.Reader().GetReservation(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.StatusCancelled, res.Status)
	s.True(res.Total.IsZero())

	// seats of a cancelled reservation no longer count
	booked, err := s.store.Reader().BookedSeats(s.ctx, sh)
	s.Require().NoError(err)
	s.Empty(booked)

	err = s.store.Reader().UpdateReservation(s.ctx, id+1000, domain.StatusCancelled, decimal.Zero)
	s.ErrorIs(err, repository.ErrNotFound)
}
