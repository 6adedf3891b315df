package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kirinyoku/showseat/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *Service {
	return New(memory.MustNewStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateAndGetShowing(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	starts := time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)

	id, err := svc.CreateShowing(ctx, NewShowing{
		Title:     " Coolie ",
		Rows:      7,
		Cols:      9,
		BasePrice: decimal.NewFromInt(150),
		StartsAt:  starts,
	})
	require.NoError(t, err)

	sh, err := svc.GetShowing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Coolie", sh.Title)
	assert.Equal(t, "Coolie", sh.Screen)
	assert.Equal(t, 7, sh.Rows)
	assert.Equal(t, 9, sh.Cols)
	assert.True(t, starts.Equal(sh.StartsAt))

	_, err = svc.GetShowing(ctx, id+1)
	assert.ErrorIs(t, err, ErrShowingNotFound)
}

func TestCreateShowingValidation(t *testing.T) {
	valid := NewShowing{
		Title:     "Coolie",
		Rows:      7,
		Cols:      7,
		BasePrice: decimal.NewFromInt(150),
		StartsAt:  time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		mut  func(n *NewShowing)
	}{
		{name: "no title", mut: func(n *NewShowing) { n.Title = "  " }},
		{name: "no rows", mut: func(n *NewShowing) { n.Rows = 0 }},
		{name: "too many rows", mut: func(n *NewShowing) { n.Rows = 27 }},
		{name: "no cols", mut: func(n *NewShowing) { n.Cols = 0 }},
		{name: "negative price", mut: func(n *NewShowing) { n.BasePrice = decimal.NewFromInt(-1) }},
		{name: "no start", mut: func(n *NewShowing) { n.StartsAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mut(&in)

			_, err := newService().CreateShowing(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidShowing)
		})
	}
}

func TestSeedSample(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	now := time.Date(2030, 3, 10, 15, 30, 0, 0, time.UTC)

	n, err := svc.SeedSample(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 63, n)

	all, err := svc.ListShowings(ctx, Filter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 63)

	first := all[0]
	assert.True(t, time.Date(2030, 3, 10, 10, 0, 0, 0, time.UTC).Equal(first.StartsAt))
	assert.Equal(t, 7, first.Rows)
	assert.Equal(t, 7, first.Cols)

	last := all[len(all)-1]
	assert.True(t, time.Date(2030, 3, 16, 18, 0, 0, 0, time.UTC).Equal(last.StartsAt))

	for _, sh := range all {
		want := decimal.NewFromInt(250)
		if sh.Title == "Coolie" {
			want = decimal.NewFromInt(150)
		}
		assert.True(t, want.Equal(sh.BasePrice), "%s base price %s", sh.Title, sh.BasePrice)
	}

	n, err = svc.SeedSample(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice must not duplicate the schedule")
}

func TestListShowingsClampsPage(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.SeedSample(ctx, time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	page, err := svc.ListShowings(ctx, Filter{Offset: 60})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	page, err = svc.ListShowings(ctx, Filter{Limit: 10, Offset: -5})
	require.NoError(t, err)
	assert.Len(t, page, 10)
}

func TestBrowseTitlesDaysAndShowings(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	titles, err := svc.ListTitles(ctx)
	require.NoError(t, err)
	assert.Empty(t, titles)

	_, err = svc.SeedSample(ctx, time.Date(2030, 3, 10, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	titles, err = svc.ListTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Coolie", "Love Marriage", "Thug Life"}, titles)

	days, err := svc.ListDays(ctx, "Thug Life")
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.True(t, time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC).Equal(days[0]))
	assert.True(t, time.Date(2030, 3, 16, 0, 0, 0, 0, time.UTC).Equal(days[6]))

	_, err = svc.ListDays(ctx, "Missing")
	assert.ErrorIs(t, err, ErrTitleNotFound)

	// Any instant of the day selects it.
	shows, err := svc.ListShowings(ctx, Filter{
		Title: "Thug Life",
		Day:   time.Date(2030, 3, 12, 23, 59, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, shows, 3)
	for i, hour := range []int{10, 14, 18} {
		assert.Equal(t, "Thug Life", shows[i].Title)
		assert.True(t, time.Date(2030, 3, 12, hour, 0, 0, 0, time.UTC).Equal(shows[i].StartsAt))
	}

	shows, err = svc.ListShowings(ctx, Filter{Day: time.Date(2030, 3, 17, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Empty(t, shows)
}
