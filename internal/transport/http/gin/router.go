package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/showseat/internal/domain"
	redisx "github.com/kirinyoku/showseat/internal/redis"
	"github.com/kirinyoku/showseat/internal/seatlabel"
	"github.com/kirinyoku/showseat/internal/service"
	"github.com/kirinyoku/showseat/internal/service/booking"
	"github.com/kirinyoku/showseat/internal/service/catalog"
	"github.com/kirinyoku/showseat/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const idemLockTTL = 60 * time.Second

// IdempotencyStore keeps booking responses by Idempotency-Key. A nil store
// disables idempotency keys.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (string, error)
	GetResult(ctx context.Context, key string) (string, bool, error)
	IsLocked(ctx context.Context, key string) (bool, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	Release(ctx context.Context, key, token string) error
}

func NewRouter(
	svcs *service.Services,
	idem IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/titles", handleListTitles(svcs))
	r.GET("/titles/:title/days", handleListDays(svcs))
	r.GET("/titles/:title/days/:day/report", handleGetDayReport(svcs))

	r.GET("/showings", handleListShowings(svcs))
	r.GET("/showings/:id", handleGetShowing(svcs))
	r.GET("/showings/:id/seatmap", handleGetSeatMap(svcs))
	r.GET("/showings/:id/seats/:label", handleGetSeat(svcs))
	r.GET("/showings/:id/report", handleGetReport(svcs))

	r.POST("/showings/:id/reservations", handleBookSeats(svcs, idem, logger))

	r.GET("/reservations/:id", handleGetReservation(svcs))
	r.POST("/reservations/:id/cancel", handleCancelSeats(svcs))

	// Admin-API
	admin := r.Group("/admin")
	{
		admin.POST("/showings", handleCreateShowing(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List titles with showings
// @Success  200  {array}  string
// @Router   /titles [get]
func handleListTitles(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		titles, err := svcs.Catalog.ListTitles(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, titles, "public, max-age=60", true)
	}
}

// @Summary  Days a title plays on (UTC)
// @Param    title  path  string  true  "Title"
// @Success  200  {object}  TitleDaysResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /titles/{title}/days [get]
func handleListDays(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		title := c.Param("title")
		days, err := svcs.Catalog.ListDays(c.Request.Context(), title)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, newTitleDaysResponse(title, days), "public, max-age=60", true)
	}
}

// @Summary  Sales report of a title for one day
// @Param    title  path  string  true  "Title"
// @Param    day    path  string  true  "Day, YYYY-MM-DD (UTC)"
// @Success  200  {object}  domain.DayReport
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /titles/{title}/days/{day}/report [get]
func handleGetDayReport(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		day, err := parseDay(c.Param("day"))
		if err != nil {
			badRequest(c, "invalid day (YYYY-MM-DD)")
			return
		}
		rep, err := svcs.Query.DayReport(c.Request.Context(), c.Param("title"), day)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// @Summary  List showings
// @Param    title  query  string  false  "only this title"
// @Param    day    query  string  false  "only this day, YYYY-MM-DD (UTC)"
// @Param    limit  query  int     false  "page size"
// @Param    offset query  int     false  "offset"
// @Success  200  {array}  domain.Showing
// @Failure  400  {object}  ErrorResponse
// @Router   /showings [get]
func handleListShowings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := catalog.Filter{
			Title:  c.Query("title"),
			Limit:  parseIntDefault(c.Query("limit"), 50),
			Offset: parseIntDefault(c.Query("offset"), 0),
		}
		if raw := c.Query("day"); raw != "" {
			day, err := parseDay(raw)
			if err != nil {
				badRequest(c, "invalid day (YYYY-MM-DD)")
				return
			}
			f.Day = day
		}

		showings, err := svcs.Catalog.ListShowings(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}
		if showings == nil {
			showings = []domain.Showing{}
		}
		writeJSONWithCache(c, http.StatusOK, showings, "public, max-age=60", true)
	}
}

// @Summary  Get showing
// @Param    id  path  int  true  "Showing ID"
// @Success  200  {object}  domain.Showing
// @Failure  404  {object}  ErrorResponse
// @Router   /showings/{id} [get]
func handleGetShowing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showingID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		sh, err := svcs.Catalog.GetShowing(c.Request.Context(), showingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// showings are immutable
		writeJSONWithCache(c, http.StatusOK, sh, "public, max-age=300", true)
	}
}

// @Summary  Seat map of a showing
// @Param    id  path  int  true  "Showing ID"
// @Success  200  {object}  SeatMapResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /showings/{id}/seatmap [get]
func handleGetSeatMap(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showingID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		sm, err := svcs.Query.SeatMap(c.Request.Context(), showingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, newSeatMapResponse(sm), "no-cache", true)
	}
}

// @Summary  Availability of one seat
// @Param    id     path  int     true  "Showing ID"
// @Param    label  path  string  true  "Seat label, e.g. D4"
// @Success  200  {object}  SeatAvailabilityResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /showings/{id}/seats/{label} [get]
func handleGetSeat(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showingID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		sh, err := svcs.Catalog.GetShowing(c.Request.Context(), showingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		seat, err := seatlabel.Parse(c.Param("label"), sh.Rows, sh.Cols)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		free, err := svcs.Booking.IsSeatAvailable(c.Request.Context(), showingID, seat)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SeatAvailabilityResponse{
			ShowingID: showingID,
			Label:     seatlabel.Format(seat),
			Row:       seat.Row,
			Col:       seat.Col,
			Available: free,
		})
	}
}

// @Summary  Sales report of a showing
// @Param    id  path  int  true  "Showing ID"
// @Success  200  {object}  domain.ShowingReport
// @Failure  404  {object}  ErrorResponse
// @Router   /showings/{id}/report [get]
func handleGetReport(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showingID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		rep, err := svcs.Query.Report(c.Request.Context(), showingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// @Summary  Book seats (idempotent)
// @Param    id  path  int  true  "Showing ID"
// @Param    req body  BookSeatsRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "seat unavailable / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /showings/{id}/reservations [post]
func handleBookSeats(
	svcs *service.Services,
	idem IdempotencyStore,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		showingID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req BookSeatsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		sh, err := svcs.Catalog.GetShowing(c.Request.Context(), showingID)
		if err != nil {
			respondErr(c, err)
			return
		}

		seats, err := seatlabel.ParseAll(req.Seats, sh.Rows, sh.Cols)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey, idemToken string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisx.KeyIdemBooking(showingID, idemKey)

			var replay string
			replay, idemToken, err = claimIdempotencyKey(c.Request.Context(), idem, idemStorageKey, logger)
			if err != nil {
				respondErr(c, err)
				return
			}
			if replay != "" {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(replay),
				)
				return
			}
			if idemToken == "" {
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		b, err := svcs.Booking.BookSeats(c.Request.Context(), booking.BookRequest{
			ShowingID:     showingID,
			HolderName:    strings.TrimSpace(req.HolderName),
			HolderContact: strings.TrimSpace(req.HolderContact),
			Seats:         seats,
			Rows:          sh.Rows,
			Cols:          sh.Cols,
			RateKey:       "ip:" + c.ClientIP(),
		})
		if err != nil {
			if idemToken != "" {
				if rerr := idem.Release(c.Request.Context(), idemStorageKey, idemToken); rerr != nil {
					logger.WarnContext(c.Request.Context(), "idempotency key release failed",
						slog.String("key", idemStorageKey), slog.Any("err", rerr))
				}
			}
			respondErr(c, err)
			return
		}

		resp := newBookingResponse(b)

		if idemToken != "" {
			payload, _ := json.Marshal(resp)
			if err := idem.SaveResult(c.Request.Context(), idemStorageKey, string(payload)); err != nil {
				logger.WarnContext(c.Request.Context(), "idempotency result save failed",
					slog.String("key", idemStorageKey), slog.Any("err", err))
			}
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// claimIdempotencyKey returns either a stored response to replay or the lock
// token the request runs under. Both empty means another request holds the
// key. A key released by a failed request between our lookup and claim is
// claimed again.
func claimIdempotencyKey(
	ctx context.Context,
	idem IdempotencyStore,
	key string,
	logger *slog.Logger,
) (replay, token string, err error) {
	const op = "httpgin.claimIdempotencyKey"

	lookup := func() (string, bool) {
		payload, ok, err := idem.GetResult(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "idempotency result lookup failed",
				slog.String("op", op), slog.String("key", key), slog.Any("err", err))
		}
		return payload, ok
	}

	if payload, ok := lookup(); ok {
		return payload, "", nil
	}

	for range 2 {
		token, err = idem.AcquireLock(ctx, key, idemLockTTL)
		if err != nil || token != "" {
			return "", token, err
		}

		if payload, ok := lookup(); ok {
			return payload, "", nil
		}

		locked, err := idem.IsLocked(ctx, key)
		if err != nil {
			return "", "", err
		}
		if locked {
			return "", "", nil
		}
	}

	return "", "", nil
}

// @Summary  Get reservation with seats
// @Param    id  path  string  true  "Reservation ID or booking reference (B17)"
// @Success  200 {object} ReservationResponse
// @Failure  404 {object} ErrorResponse
// @Router   /reservations/{id} [get]
func handleGetReservation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := seatlabel.ParseBookingRef(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svcs.Query.Reservation(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, newReservationResponse(res, svcs.Pricing))
	}
}

// @Summary  Cancel seats of a reservation
// @Param    id  path  string  true  "Reservation ID or booking reference (B17)"
// @Param    req body  CancelSeatsRequest true "payload"
// @Success  200 {object} CancelResponse
// @Failure  400 {object} ErrorResponse "invalid or foreign seats"
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already cancelled"
// @Router   /reservations/{id}/cancel [post]
func handleCancelSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := seatlabel.ParseBookingRef(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		var req CancelSeatsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		// Labels outside the showing's grid cannot belong to the
		// reservation and are rejected by the cancellation itself.
		seats, err := seatlabel.ParseAll(req.Seats, seatlabel.MaxRows, math.MaxInt32)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		refund, err := svcs.Booking.CancelSeats(c.Request.Context(), id, seats)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := CancelResponse{ReservationID: id, Refund: refund.StringFixed(2)}
		if res, err := svcs.Query.Reservation(c.Request.Context(), id); err == nil {
			resp.Status = res.Reservation.Status
			resp.Total = res.Reservation.Total.StringFixed(2)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Create showing
// @Param    req body  CreateShowingRequest true "payload"
// @Success  201 {object} CreateShowingResponse
// @Failure  400 {object} ErrorResponse
// @Router   /admin/showings [post]
func handleCreateShowing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateShowingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		id, err := svcs.Catalog.CreateShowing(c.Request.Context(), catalog.NewShowing{
			Title:     req.Title,
			Screen:    req.Screen,
			Rows:      req.Rows,
			Cols:      req.Cols,
			BasePrice: req.BasePrice,
			StartsAt:  starts,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateShowingResponse{ShowingID: id})
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	_ = c.Error(err)

	var rle booking.RateLimitedError

	switch {
	// booking service
	case errors.As(err, &rle):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rle.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	case errors.Is(err, booking.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: clientMessage(err)})
	case errors.Is(err, booking.ErrSeatUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: clientMessage(err)})
	case errors.Is(err, booking.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "reservation is not booked"})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, booking.ErrInvariantViolation):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "reservation is inconsistent"})
	// catalog service
	case errors.Is(err, catalog.ErrShowingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "showing not found"})
	case errors.Is(err, catalog.ErrTitleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "title not found"})
	case errors.Is(err, catalog.ErrInvalidShowing):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: clientMessage(err)})
	// query service
	case errors.Is(err, query.ErrShowingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "showing not found"})
	case errors.Is(err, query.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "reservation not found"})
	case errors.Is(err, query.ErrNoShowings):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no showings on that day"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// clientMessage renders domain errors with ticket labels instead of grid
// indices and drops the operation prefix added by wrapping.
func clientMessage(err error) string {
	var (
		sue booking.SeatUnavailableError
		snr booking.SeatNotInReservationError
		ire booking.InvalidRequestError
	)

	switch {
	case errors.As(err, &sue):
		labels := make([]string, 0, len(sue.Seats))
		for _, s := range sue.Seats {
			labels = append(labels, seatlabel.Format(s))
		}
		return "seat unavailable: " + strings.Join(labels, ", ")
	case errors.As(err, &snr):
		return "seat " + seatlabel.Format(snr.Seat) + " is not part of reservation " +
			seatlabel.FormatBookingRef(snr.ReservationID)
	case errors.As(err, &ire):
		return ire.Reason
	}

	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 && !strings.Contains(msg[:i], " ") {
		return strings.TrimSpace(msg[i+1:])
	}
	return msg
}
