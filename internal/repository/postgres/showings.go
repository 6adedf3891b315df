package postgresrepo

import (
	"context"
	"strconv"
	"strings"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/repository"
)

// CreateShowing stores sh and, when needed, the screen it plays on. Screens
// are shared by name and dimensions.
func (r *InventoryRepo) CreateShowing(ctx context.Context, sh domain.Showing) (int64, error) {
	const op = "postgresrepo.InventoryRepo.CreateShowing"

	db := r.handle()

	var screenID int64
	if err := db.QueryRow(ctx,
		`INSERT INTO screens(name, rows_count, cols_count)
       	 VALUES ($1, $2, $3)
     	 ON CONFLICT (name, rows_count, cols_count) DO UPDATE SET name = EXCLUDED.name
     	 RETURNING id`,
		sh.Screen, sh.Rows, sh.Cols,
	).Scan(&screenID); err != nil {
		return 0, wrapDBErr(op, err)
	}

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO showings(screen_id, title, base_price, starts_at)
       	 VALUES ($1, $2, $3, $4)
     	 RETURNING id`,
		screenID, sh.Title, sh.BasePrice, sh.StartsAt,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *InventoryRepo) GetShowing(ctx context.Context, id int64) (*domain.Showing, error) {
	const op = "postgresrepo.InventoryRepo.GetShowing"

	var sh domain.Showing
	err := r.handle().QueryRow(ctx,
		`SELECT sh.id, sh.title, sc.name, sc.rows_count, sc.cols_count, sh.base_price, sh.starts_at
       	 FROM showings sh
       	 JOIN screens sc ON sc.id = sh.screen_id
     	 WHERE sh.id = $1`,
		id,
	).Scan(&sh.ID, &sh.Title, &sh.Screen, &sh.Rows, &sh.Cols, &sh.BasePrice, &sh.StartsAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &sh, nil
}

func (r *InventoryRepo) ListShowings(ctx context.Context, f repository.ShowingFilter) ([]domain.Showing, error) {
	const op = "postgresrepo.InventoryRepo.ListShowings"

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Title != "" {
		where = append(where, "sh.title = "+arg(f.Title))
	}
	if !f.From.IsZero() {
		where = append(where, "sh.starts_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "sh.starts_at < "+arg(f.To))
	}

	q := `SELECT sh.id, sh.title, sc.name, sc.rows_count, sc.cols_count, sh.base_price, sh.starts_at
       	 FROM showings sh
       	 JOIN screens sc ON sc.id = sh.screen_id`
	if len(where) > 0 {
		q += "\n     	 WHERE " + strings.Join(where, " AND ")
	}
	q += "\n     	 ORDER BY sh.starts_at, sh.id"
	if f.Limit > 0 {
		q += "\n     	 LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.handle().Query(ctx, q, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var out []domain.Showing
	for rows.Next() {
		var sh domain.Showing
		if err := rows.Scan(&sh.ID, &sh.Title, &sh.Screen, &sh.Rows, &sh.Cols, &sh.BasePrice, &sh.StartsAt); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, sh)
	}

	return out, wrapDBErr(op, rows.Err())
}

func (r *InventoryRepo) ListTitles(ctx context.Context) ([]string, error) {
	const op = "postgresrepo.InventoryRepo.ListTitles"

	rows, err := r.handle().Query(ctx, `SELECT DISTINCT title FROM showings ORDER BY title`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, title)
	}

	return out, wrapDBErr(op, rows.Err())
}
