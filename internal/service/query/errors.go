package query

import "errors"

var (
	ErrShowingNotFound     = errors.New("showing not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNoShowings          = errors.New("no showings")
)
