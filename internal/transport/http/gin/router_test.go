package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/showseat/internal/domain"
	"github.com/kirinyoku/showseat/internal/pricing"
	redisx "github.com/kirinyoku/showseat/internal/redis"
	"github.com/kirinyoku/showseat/internal/repository/memory"
	"github.com/kirinyoku/showseat/internal/service"
	"github.com/kirinyoku/showseat/internal/service/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyAll struct {
	retry time.Duration
}

func (d denyAll) Allow(context.Context, string) (bool, int64, time.Duration, error) {
	return false, 1, d.retry, nil
}

func newTestRouter(t *testing.T, hooks booking.Hooks) *gin.Engine {
	t.Helper()
	return newRouterWith(t, hooks, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newRouterWith(t *testing.T, hooks booking.Hooks, idem IdempotencyStore, logger *slog.Logger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svcs := service.NewServices(
		memory.MustNewStore(),
		pricing.MustNew(pricing.DefaultConfig()),
		nil,
		hooks,
		service.Config{},
		logger,
	)

	return NewRouter(svcs, idem, logger)
}

func do(t *testing.T, r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createTestShowing(t *testing.T, r http.Handler) int64 {
	t.Helper()
	return createShowingAt(t, r, "Coolie", "2030-01-01T18:00:00Z")
}

func createShowingAt(t *testing.T, r http.Handler, title, startsAt string) int64 {
	t.Helper()

	w := do(t, r, http.MethodPost, "/admin/showings", CreateShowingRequest{
		Title:    title,
		Rows:     7,
		Cols:     7,
		StartsAt: startsAt,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[CreateShowingResponse](t, w).ShowingID
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})

	w := do(t, r, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestBookAndCancelOverHTTP(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})
	sh := createTestShowing(t, r)
	base := "/showings/" + itoa(sh)

	w := do(t, r, http.MethodPost, base+"/reservations", BookSeatsRequest{
		HolderName: "Ann",
		Seats:      []string{"A1", "d4"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	booked := decode[BookingResponse](t, w)
	assert.Equal(t, "250.00", booked.Total)
	assert.Equal(t, "B"+itoa(booked.ReservationID), booked.BookingRef)
	require.Len(t, booked.Seats, 2)
	assert.Equal(t, SeatPrice{Label: "A1", Tier: domain.TierStandard, Price: "100.00"}, booked.Seats[0])
	assert.Equal(t, SeatPrice{Label: "D4", Tier: domain.TierPremium, Price: "150.00"}, booked.Seats[1])

	// the same seat again
	w = do(t, r, http.MethodPost, base+"/reservations", BookSeatsRequest{
		HolderName: "Bob",
		Seats:      []string{"D4"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "D4")

	w = do(t, r, http.MethodGet, base+"/seats/D4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[SeatAvailabilityResponse](t, w).Available)

	w = do(t, r, http.MethodGet, base+"/seatmap", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sm := decode[SeatMapResponse](t, w)
	assert.Equal(t, 47, sm.Free)
	assert.False(t, sm.Seats[3][3].Available)
	assert.Equal(t, domain.TierPremium, sm.Seats[3][3].Tier)

	resPath := "/reservations/" + booked.BookingRef

	w = do(t, r, http.MethodPost, resPath+"/cancel", CancelSeatsRequest{Seats: []string{"A1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, CancelResponse{
		ReservationID: booked.ReservationID,
		Refund:        "100.00",
		Status:        domain.StatusBooked,
		Total:         "150.00",
	}, decode[CancelResponse](t, w))

	w = do(t, r, http.MethodPost, resPath+"/cancel", CancelSeatsRequest{Seats: []string{"D4"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, CancelResponse{
		ReservationID: booked.ReservationID,
		Refund:        "150.00",
		Status:        domain.StatusCancelled,
		Total:         "0.00",
	}, decode[CancelResponse](t, w))

	w = do(t, r, http.MethodPost, resPath+"/cancel", CancelSeatsRequest{Seats: []string{"D4"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, resPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[ReservationResponse](t, w)
	assert.Equal(t, domain.StatusCancelled, res.Status)
	assert.Empty(t, res.Seats)

	w = do(t, r, http.MethodGet, base+"/seats/D4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[SeatAvailabilityResponse](t, w).Available)
}

func TestErrorStatuses(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})
	sh := createTestShowing(t, r)
	base := "/showings/" + itoa(sh)

	w := do(t, r, http.MethodPost, base+"/reservations", BookSeatsRequest{HolderName: "Ann", Seats: []string{"B2"}})
	require.Equal(t, http.StatusCreated, w.Code)
	ref := decode[BookingResponse](t, w).BookingRef

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "row outside grid", method: http.MethodPost, path: base + "/reservations",
			body: BookSeatsRequest{HolderName: "Ann", Seats: []string{"H1"}}, want: http.StatusBadRequest},
		{name: "column outside grid", method: http.MethodPost, path: base + "/reservations",
			body: BookSeatsRequest{HolderName: "Ann", Seats: []string{"A8"}}, want: http.StatusBadRequest},
		{name: "duplicate seat", method: http.MethodPost, path: base + "/reservations",
			body: BookSeatsRequest{HolderName: "Ann", Seats: []string{"C3", "c3"}}, want: http.StatusBadRequest},
		{name: "missing holder", method: http.MethodPost, path: base + "/reservations",
			body: BookSeatsRequest{Seats: []string{"A1"}}, want: http.StatusBadRequest},
		{name: "no seats", method: http.MethodPost, path: base + "/reservations",
			body: BookSeatsRequest{HolderName: "Ann", Seats: []string{}}, want: http.StatusBadRequest},
		{name: "unknown showing", method: http.MethodPost, path: "/showings/999/reservations",
			body: BookSeatsRequest{HolderName: "Ann", Seats: []string{"A1"}}, want: http.StatusNotFound},
		{name: "bad showing id", method: http.MethodGet, path: "/showings/abc", want: http.StatusBadRequest},
		{name: "unknown seatmap", method: http.MethodGet, path: "/showings/999/seatmap", want: http.StatusNotFound},
		{name: "bad seat label", method: http.MethodGet, path: base + "/seats/ZZ", want: http.StatusBadRequest},
		{name: "unknown reservation", method: http.MethodGet, path: "/reservations/B999", want: http.StatusNotFound},
		{name: "bad booking ref", method: http.MethodGet, path: "/reservations/Bx", want: http.StatusBadRequest},
		{name: "cancel foreign seat", method: http.MethodPost, path: "/reservations/" + ref + "/cancel",
			body: CancelSeatsRequest{Seats: []string{"A1"}}, want: http.StatusBadRequest},
		{name: "cancel unknown reservation", method: http.MethodPost, path: "/reservations/B999/cancel",
			body: CancelSeatsRequest{Seats: []string{"A1"}}, want: http.StatusNotFound},
		{name: "create without title", method: http.MethodPost, path: "/admin/showings",
			body: CreateShowingRequest{Rows: 7, Cols: 7, StartsAt: "2030-01-01T18:00:00Z"}, want: http.StatusBadRequest},
		{name: "create too many rows", method: http.MethodPost, path: "/admin/showings",
			body: CreateShowingRequest{Title: "X", Rows: 27, Cols: 7, StartsAt: "2030-01-01T18:00:00Z"}, want: http.StatusBadRequest},
		{name: "create bad start", method: http.MethodPost, path: "/admin/showings",
			body: CreateShowingRequest{Title: "X", Rows: 7, Cols: 7, StartsAt: "tomorrow"}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestShowingETag(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})
	sh := createTestShowing(t, r)

	w := do(t, r, http.MethodGet, "/showings/"+itoa(sh), nil)
	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, "Coolie", decode[domain.Showing](t, w).Title)

	w = do(t, r, http.MethodGet, "/showings/"+itoa(sh), nil, "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestListShowings(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})

	w := do(t, r, http.MethodGet, "/showings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	createTestShowing(t, r)
	createTestShowing(t, r)

	w = do(t, r, http.MethodGet, "/showings?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Showing](t, w), 1)
}

func TestReportOverHTTP(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})
	sh := createTestShowing(t, r)
	base := "/showings/" + itoa(sh)

	w := do(t, r, http.MethodPost, base+"/reservations", BookSeatsRequest{HolderName: "Ann", Seats: []string{"A1", "D4"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)

	rep := decode[domain.ShowingReport](t, w)
	assert.Equal(t, int64(49), rep.Capacity)
	assert.Equal(t, int64(2), rep.BookedSeats)
	assert.Equal(t, "250", rep.Revenue.String())
}

func TestRateLimitedBookingReturns429(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{Limiter: denyAll{retry: 1500 * time.Millisecond}})
	sh := createTestShowing(t, r)

	w := do(t, r, http.MethodPost, "/showings/"+itoa(sh)+"/reservations", BookSeatsRequest{
		HolderName: "Ann",
		Seats:      []string{"A1"},
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestETagMatches(t *testing.T) {
	tag := etagFor([]byte(`{"id":1}`), true)

	assert.True(t, etagMatches(tag, tag))
	assert.True(t, etagMatches(`"x", `+strings.TrimPrefix(tag, "W/"), tag))
	assert.True(t, etagMatches("*", tag))
	assert.False(t, etagMatches("", tag))
	assert.False(t, etagMatches(`"x"`, tag))
}

func TestRequestIDIsEchoedWhenWellFormed(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})

	id := "3f2c1f8e-6a55-4b59-9d1c-0b1f7c2f4a10"
	w := do(t, r, http.MethodGet, "/healthz", nil, "X-Request-ID", id)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))

	w = do(t, r, http.MethodGet, "/healthz", nil, "X-Request-ID", "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", w.Header().Get("X-Request-ID"))
}

func TestBrowseOverHTTP(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})

	w := do(t, r, http.MethodGet, "/titles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	morning := createShowingAt(t, r, "Coolie", "2030-01-01T10:00:00Z")
	createShowingAt(t, r, "Coolie", "2030-01-01T18:00:00Z")
	createShowingAt(t, r, "Coolie", "2030-01-02T10:00:00Z")
	createShowingAt(t, r, "Thug Life", "2030-01-01T14:00:00Z")

	w = do(t, r, http.MethodGet, "/titles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Coolie", "Thug Life"}, decode[[]string](t, w))

	w = do(t, r, http.MethodGet, "/titles/Coolie/days", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, TitleDaysResponse{
		Title: "Coolie",
		Days:  []string{"2030-01-01", "2030-01-02"},
	}, decode[TitleDaysResponse](t, w))

	w = do(t, r, http.MethodGet, "/titles/Thug%20Life/days", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2030-01-01"}, decode[TitleDaysResponse](t, w).Days)

	w = do(t, r, http.MethodGet, "/showings?title=Coolie&day=2030-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	shows := decode[[]domain.Showing](t, w)
	require.Len(t, shows, 2)
	assert.Equal(t, morning, shows[0].ID)

	w = do(t, r, http.MethodGet, "/showings?day=2030-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Showing](t, w), 3)

	w = do(t, r, http.MethodPost, "/showings/"+itoa(morning)+"/reservations", BookSeatsRequest{
		HolderName: "Ann",
		Seats:      []string{"A1"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodGet, "/titles/Coolie/days/2030-01-01/report", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rep := decode[domain.DayReport](t, w)
	assert.Equal(t, "Coolie", rep.Title)
	assert.Equal(t, int64(98), rep.Capacity)
	assert.Equal(t, int64(1), rep.BookedSeats)
	assert.Equal(t, "100", rep.Revenue.String())
	require.Len(t, rep.Showings, 2)
	assert.Equal(t, morning, rep.Showings[0].ShowingID)
}

func TestBrowseErrors(t *testing.T) {
	r := newTestRouter(t, booking.Hooks{})
	createShowingAt(t, r, "Coolie", "2030-01-01T10:00:00Z")

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "days of unknown title", path: "/titles/Missing/days", want: http.StatusNotFound},
		{name: "report of empty day", path: "/titles/Coolie/days/2030-01-05/report", want: http.StatusNotFound},
		{name: "report with bad day", path: "/titles/Coolie/days/01-01-2030/report", want: http.StatusBadRequest},
		{name: "listing with bad day", path: "/showings?day=tomorrow", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

// memIdem is an in-process IdempotencyStore with the lock and result
// prefixes of the Redis one.
type memIdem struct {
	mu   sync.Mutex
	vals map[string]string
	n    int

	// phantomHolds makes that many AcquireLock calls report the key as held
	// although nothing is stored, as when the holder released in between.
	phantomHolds int
	resultErr    error
}

func newMemIdem() *memIdem {
	return &memIdem{vals: map[string]string{}}
}

func (m *memIdem) AcquireLock(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phantomHolds > 0 {
		m.phantomHolds--
		return "", nil
	}
	if _, ok := m.vals[key]; ok {
		return "", nil
	}
	m.n++
	token := "LOCK:" + strconv.Itoa(m.n)
	m.vals[key] = token
	return token, nil
}

func (m *memIdem) GetResult(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resultErr != nil {
		return "", false, m.resultErr
	}
	v, ok := m.vals[key]
	if !ok || !strings.HasPrefix(v, "RES:") {
		return "", false, nil
	}
	return strings.TrimPrefix(v, "RES:"), true, nil
}

func (m *memIdem) IsLocked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.HasPrefix(m.vals[key], "LOCK:"), nil
}

func (m *memIdem) SaveResult(_ context.Context, key string, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = "RES:" + payload
	return nil
}

func (m *memIdem) Release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals[key] == token {
		delete(m.vals, key)
	}
	return nil
}

func (m *memIdem) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vals[key]
	return ok
}

func TestIdempotentBookingReplaysResponse(t *testing.T) {
	idem := newMemIdem()
	r := newRouterWith(t, booking.Hooks{}, idem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sh := createTestShowing(t, r)
	path := "/showings/" + itoa(sh) + "/reservations"
	body := BookSeatsRequest{HolderName: "Ann", Seats: []string{"A1"}}

	first := do(t, r, http.MethodPost, path, body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, "k1", first.Header().Get("Idempotency-Key"))

	again := do(t, r, http.MethodPost, path, body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, again.Code, again.Body.String())
	assert.JSONEq(t, first.Body.String(), again.Body.String())

	w := do(t, r, http.MethodGet, "/showings/"+itoa(sh)+"/seatmap", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 48, decode[SeatMapResponse](t, w).Free)

	// A failed booking gives its key back.
	w = do(t, r, http.MethodPost, path, body, "Idempotency-Key", "k2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, idem.has(redisx.KeyIdemBooking(sh, "k2")))
}

func TestIdempotencyKeyHeldByAnotherRequest(t *testing.T) {
	idem := newMemIdem()
	r := newRouterWith(t, booking.Hooks{}, idem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sh := createTestShowing(t, r)

	idem.vals[redisx.KeyIdemBooking(sh, "k1")] = "LOCK:other"

	w := do(t, r, http.MethodPost, "/showings/"+itoa(sh)+"/reservations",
		BookSeatsRequest{HolderName: "Ann", Seats: []string{"A1"}}, "Idempotency-Key", "k1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "idempotency key in progress", decode[ErrorResponse](t, w).Error)
}

func TestIdempotencyKeyReleasedDuringClaimIsRetaken(t *testing.T) {
	idem := newMemIdem()
	idem.phantomHolds = 1
	r := newRouterWith(t, booking.Hooks{}, idem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sh := createTestShowing(t, r)

	w := do(t, r, http.MethodPost, "/showings/"+itoa(sh)+"/reservations",
		BookSeatsRequest{HolderName: "Ann", Seats: []string{"A1"}}, "Idempotency-Key", "k1")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, idem.has(redisx.KeyIdemBooking(sh, "k1")))
}

func TestIdempotencyLookupFailureIsLogged(t *testing.T) {
	idem := newMemIdem()
	idem.resultErr = errors.New("redis timeout")

	var logs bytes.Buffer
	r := newRouterWith(t, booking.Hooks{}, idem, slog.New(slog.NewTextHandler(&logs, nil)))
	sh := createTestShowing(t, r)

	w := do(t, r, http.MethodPost, "/showings/"+itoa(sh)+"/reservations",
		BookSeatsRequest{HolderName: "Ann", Seats: []string{"A1"}}, "Idempotency-Key", "k1")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, logs.String(), `level=WARN msg="idempotency result lookup failed"`)
	assert.Contains(t, logs.String(), "redis timeout")
}
