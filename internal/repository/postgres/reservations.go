package postgresrepo

import (
	"context"
	"fmt"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/shopspring/decimal"
)

func (r *InventoryRepo) CreateReservation(ctx context.Context, res domain.Reservation) (int64, error) {
	const op = "postgresrepo.InventoryRepo.CreateReservation"

	var id int64
	if err := r.handle().QueryRow(ctx,
		`INSERT INTO reservations(showing_id, holder_name, holder_contact, status, total)
       	 VALUES ($1, $2, $3, $4, $5)
     	 RETURNING id`,
		res.ShowingID, res.HolderName, res.HolderContact, string(res.Status), res.Total,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *InventoryRepo) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	const op = "postgresrepo.InventoryRepo.GetReservation"

	var (
		res    domain.Reservation
		status string
	)
	err := r.handle().QueryRow(ctx,
		`SELECT id, showing_id, holder_name, holder_contact, status, total, created_at, updated_at
       	 FROM reservations WHERE id = $1`,
		id,
	).Scan(&res.ID, &res.ShowingID, &res.HolderName, &res.HolderContact, &status,
		&res.Total, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	res.Status = domain.ReservationStatus(status)

	return &res, nil
}

func (r *InventoryRepo) UpdateReservation(
	ctx context.Context,
	id int64,
	status domain.ReservationStatus,
	total decimal.Decimal,
) error {
	const op = "postgresrepo.InventoryRepo.UpdateReservation"

	tag, err := r.handle().Exec(ctx,
		`UPDATE reservations
        	SET status = $2, total = $3, updated_at = now()
      	 WHERE id = $1`,
		id, string(status), total,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
