package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/showseat/internal/domain"
)

func (r *InventoryRepo) SeatTaken(ctx context.Context, showingID int64, seat domain.Seat) (bool, error) {
	const op = "postgresrepo.InventoryRepo.SeatTaken"

	var taken bool
	if err := r.handle().QueryRow(ctx,
		`SELECT EXISTS (
           SELECT 1
           FROM reserved_seats rs
           JOIN reservations r ON r.id = rs.reservation_id
           WHERE rs.showing_id = $1
             AND rs.row_idx = $2
             AND rs.col_idx = $3
             AND r.status = 'BOOKED'
         )`,
		showingID, seat.Row, seat.Col,
	).Scan(&taken); err != nil {
		return false, wrapDBErr(op, err)
	}

	return taken, nil
}

func (r *InventoryRepo) OccupiedSeats(ctx context.Context, showingID int64) ([]domain.Seat, error) {
	const op = "postgresrepo.InventoryRepo.OccupiedSeats"

	rows, err := r.handle().Query(ctx,
		`SELECT rs.row_idx, rs.col_idx
       	 FROM reserved_seats rs
       	 JOIN reservations r ON r.id = rs.reservation_id
     	 WHERE rs.showing_id = $1 AND r.status = 'BOOKED'
     	 ORDER BY rs.row_idx, rs.col_idx`,
		showingID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var out []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.Row, &s.Col); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, s)
	}

	return out, wrapDBErr(op, rows.Err())
}

// AddReservedSeats inserts all seats in one batch. A seat already held by
// any reservation of the showing surfaces as repository.ErrConflict.
func (r *InventoryRepo) AddReservedSeats(ctx context.Context, seats []domain.ReservedSeat) error {
	const op = "postgresrepo.InventoryRepo.AddReservedSeats"

	if len(seats) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range seats {
		batch.Queue(
			`INSERT INTO reserved_seats(reservation_id, showing_id, row_idx, col_idx, price)
         	 VALUES ($1, $2, $3, $4, $5)`,
			s.ReservationID, s.ShowingID, s.Row, s.Col, s.Price,
		)
	}
	if err := r.handle().SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *InventoryRepo) ListReservedSeats(ctx context.Context, reservationID int64) ([]domain.ReservedSeat, error) {
	const op = "postgresrepo.InventoryRepo.ListReservedSeats"

	rows, err := r.handle().Query(ctx,
		`SELECT id, reservation_id, showing_id, row_idx, col_idx, price
       	 FROM reserved_seats
     	 WHERE reservation_id = $1
     	 ORDER BY row_idx, col_idx`,
		reservationID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := collectReservedSeats(rows)
	return out, wrapDBErr(op, err)
}

func (r *InventoryRepo) DeleteReservedSeats(
	ctx context.Context,
	reservationID int64,
	seats []domain.Seat,
) (int64, error) {
	const op = "postgresrepo.InventoryRepo.DeleteReservedSeats"

	if len(seats) == 0 {
		return 0, nil
	}

	rowIdx := make([]int32, len(seats))
	colIdx := make([]int32, len(seats))
	for i, s := range seats {
		rowIdx[i] = int32(s.Row)
		colIdx[i] = int32(s.Col)
	}

	tag, err := r.handle().Exec(ctx,
		`DELETE FROM reserved_seats
      	 WHERE reservation_id = $1
        	AND (row_idx, col_idx) IN (
              SELECT * FROM unnest($2::int[], $3::int[])
            )`,
		reservationID, rowIdx, colIdx,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *InventoryRepo) BookedSeats(ctx context.Context, showingID int64) ([]domain.ReservedSeat, error) {
	const op = "postgresrepo.InventoryRepo.BookedSeats"

	rows, err := r.handle().Query(ctx,
		`SELECT rs.id, rs.reservation_id, rs.showing_id, rs.row_idx, rs.col_idx, rs.price
       	 FROM reserved_seats rs
       	 JOIN reservations r ON r.id = rs.reservation_id
     	 WHERE rs.showing_id = $1 AND r.status = 'BOOKED'
     	 ORDER BY rs.row_idx, rs.col_idx`,
		showingID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := collectReservedSeats(rows)
	return out, wrapDBErr(op, err)
}

func collectReservedSeats(rows pgx.Rows) ([]domain.ReservedSeat, error) {
	defer rows.Close()

	var out []domain.ReservedSeat
	for rows.Next() {
		var s domain.ReservedSeat
		if err := rows.Scan(&s.ID, &s.ReservationID, &s.ShowingID, &s.Row, &s.Col, &s.Price); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
