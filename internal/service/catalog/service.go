// Package catalog manages showings: creation, lookup and the sample
// schedule used by demos.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/kirinyoku/showseat/internal/seatlabel"
	"github.com/kirinyoku/showseat/internal/uow"
	"github.com/shopspring/decimal"
)

const (
	defaultPage = 50
	maxPage     = 500
)

type NewShowing struct {
	Title     string
	Screen    string
	Rows      int
	Cols      int
	BasePrice decimal.Decimal
	StartsAt  time.Time
}

type Service struct {
	store repository.Store
	uow   *uow.UoW
	log   *slog.Logger
}

func New(store repository.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
		log:   log,
	}
}

// GetShowing returns a showing by id.
//
// Returns:
//   - error: catalog.ErrShowingNotFound if the showing does not exist.
func (s *Service) GetShowing(ctx context.Context, id int64) (*domain.Showing, error) {
	const op = "service.catalog.GetShowing"

	sh, err := s.store.Reader().GetShowing(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrShowingNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sh, nil
}

// Filter narrows ListShowings. Day, when set, selects the showings starting
// on that UTC calendar day.
type Filter struct {
	Title  string
	Day    time.Time
	Limit  int
	Offset int
}

// ListShowings pages through showings ordered by start time.
func (s *Service) ListShowings(ctx context.Context, f Filter) ([]domain.Showing, error) {
	const op = "service.catalog.ListShowings"

	limit, offset := f.Limit, f.Offset
	if limit <= 0 {
		limit = defaultPage
	}

	if limit > maxPage {
		limit = maxPage
	}

	if offset < 0 {
		offset = 0
	}

	rf := repository.ShowingFilter{
		Title:  strings.TrimSpace(f.Title),
		Limit:  limit,
		Offset: offset,
	}
	if !f.Day.IsZero() {
		rf.From = domain.CalendarDay(f.Day)
		rf.To = rf.From.AddDate(0, 0, 1)
	}

	showings, err := s.store.Reader().ListShowings(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return showings, nil
}

// ListTitles returns every title with at least one showing, sorted.
func (s *Service) ListTitles(ctx context.Context) ([]string, error) {
	const op = "service.catalog.ListTitles"

	titles, err := s.store.Reader().ListTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if titles == nil {
		titles = []string{}
	}

	return titles, nil
}

// ListDays returns the UTC calendar days on which title plays, in order.
//
// Returns:
//   - error: catalog.ErrTitleNotFound if the title has no showings.
func (s *Service) ListDays(ctx context.Context, title string) ([]time.Time, error) {
	const op = "service.catalog.ListDays"

	showings, err := s.store.Reader().ListShowings(ctx, repository.ShowingFilter{
		Title: strings.TrimSpace(title),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(showings) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrTitleNotFound)
	}

	var days []time.Time
	for _, sh := range showings {
		d := domain.CalendarDay(sh.StartsAt)
		if n := len(days); n == 0 || !days[n-1].Equal(d) {
			days = append(days, d)
		}
	}

	return days, nil
}

// CreateShowing validates and stores a showing.
//
// Returns:
//   - int64: the id of the new showing.
//   - error: catalog.ErrInvalidShowing when a field is out of range.
func (s *Service) CreateShowing(ctx context.Context, in NewShowing) (int64, error) {
	const op = "service.catalog.CreateShowing"

	sh, err := in.validate()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	err = s.uow.Do(ctx, func(ctx context.Context, inv repository.Inventory, after func(uow.AfterCommit)) error {
		var err error
		id, err = inv.CreateShowing(ctx, sh)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "showing created",
		slog.Int64("showing_id", id),
		slog.String("title", sh.Title),
		slog.Time("starts_at", sh.StartsAt),
	)

	return id, nil
}

var sampleTitles = []string{"Coolie", "Thug Life", "Love Marriage"}

var sampleTimes = []time.Duration{10 * time.Hour, 14 * time.Hour, 18 * time.Hour}

// SeedSample creates a week of showings starting on the day of now: every
// sample title at 10:00, 14:00 and 18:00 on a 7x7 screen. It does nothing
// when the catalog already has showings and reports how many it created.
func (s *Service) SeedSample(ctx context.Context, now time.Time) (int, error) {
	const op = "service.catalog.SeedSample"

	existing, err := s.store.Reader().ListShowings(ctx, repository.ShowingFilter{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var created int
	err = s.uow.Do(ctx, func(ctx context.Context, inv repository.Inventory, after func(uow.AfterCommit)) error {
		for d := range 7 {
			date := day.AddDate(0, 0, d)
			for i, title := range sampleTitles {
				price := decimal.NewFromInt(250)
				if i == 0 {
					price = decimal.NewFromInt(150)
				}

				for _, at := range sampleTimes {
					if _, err := inv.CreateShowing(ctx, domain.Showing{
						Title:     title,
						Screen:    title,
						Rows:      7,
						Cols:      7,
						BasePrice: price,
						StartsAt:  date.Add(at),
					}); err != nil {
						return fmt.Errorf("%s: %w", op, err)
					}
					created++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "sample schedule seeded", slog.Int("showings", created))

	return created, nil
}

func (in NewShowing) validate() (domain.Showing, error) {
	title := strings.TrimSpace(in.Title)
	screen := strings.TrimSpace(in.Screen)
	if screen == "" {
		screen = title
	}

	switch {
	case title == "":
		return domain.Showing{}, fmt.Errorf("%w: title is required", ErrInvalidShowing)
	case in.Rows < 1 || in.Rows > seatlabel.MaxRows:
		return domain.Showing{}, fmt.Errorf("%w: rows must be between 1 and %d", ErrInvalidShowing, seatlabel.MaxRows)
	case in.Cols < 1:
		return domain.Showing{}, fmt.Errorf("%w: cols must be at least 1", ErrInvalidShowing)
	case in.BasePrice.IsNegative():
		return domain.Showing{}, fmt.Errorf("%w: base price is negative", ErrInvalidShowing)
	case in.StartsAt.IsZero():
		return domain.Showing{}, fmt.Errorf("%w: start time is required", ErrInvalidShowing)
	}

	return domain.Showing{
		Title:     title,
		Screen:    screen,
		Rows:      in.Rows,
		Cols:      in.Cols,
		BasePrice: in.BasePrice,
		StartsAt:  in.StartsAt,
	}, nil
}
