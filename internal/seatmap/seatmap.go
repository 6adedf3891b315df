// Package seatmap derives seat availability from committed reservations.
package seatmap

import (
	"context"
	"fmt"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/repository"
)

// Projector answers availability questions against whichever reader it is
// handed: a snapshot reader gives an advisory answer, a transactional one an
// authoritative answer.
type Projector struct{}

func New() *Projector {
	return &Projector{}
}

// Occupancy returns a rows x cols grid, true where the seat is free. Occupied
// seats outside the grid are ignored.
func (p *Projector) Occupancy(
	ctx context.Context,
	r repository.SeatReader,
	showingID int64,
	rows, cols int,
) ([][]bool, error) {
	const op = "seatmap.Projector.Occupancy"

	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%s: invalid grid %dx%d", op, rows, cols)
	}

	occupied, err := r.OccupiedSeats(ctx, showingID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	grid := make([][]bool, rows)
	for i := range grid {
		grid[i] = make([]bool, cols)
		for j := range grid[i] {
			grid[i][j] = true
		}
	}

	for _, s := range occupied {
		if s.Row >= 0 && s.Row < rows && s.Col >= 0 && s.Col < cols {
			grid[s.Row][s.Col] = false
		}
	}

	return grid, nil
}

func (p *Projector) IsSeatAvailable(
	ctx context.Context,
	r repository.SeatReader,
	showingID int64,
	seat domain.Seat,
) (bool, error) {
	const op = "seatmap.Projector.IsSeatAvailable"

	taken, err := r.SeatTaken(ctx, showingID, seat)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}

	return !taken, nil
}

// FirstTaken returns the first seat of seats that is already occupied.
func (p *Projector) FirstTaken(
	ctx context.Context,
	r repository.SeatReader,
	showingID int64,
	seats []domain.Seat,
) (domain.Seat, bool, error) {
	for _, s := range seats {
		ok, err := p.IsSeatAvailable(ctx, r, showingID, s)
		if err != nil {
			return domain.Seat{}, false, err
		}
		if !ok {
			return s, true, nil
		}
	}
	return domain.Seat{}, false, nil
}
