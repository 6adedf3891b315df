// Package seatlabel converts between 0-based grid coordinates and the labels
// printed on tickets: row letters starting at A, column numbers starting at 1.
package seatlabel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirinyoku/showseat/internal/domain"
)

// MaxRows is the number of rows a single letter can address.
const MaxRows = 26

var (
	ErrBadFormat  = errors.New("invalid seat format")
	ErrBadRow     = errors.New("invalid row")
	ErrBadColumn  = errors.New("invalid column")
	ErrBadBooking = errors.New("invalid booking reference")
)

func RowLetter(row int) string {
	return string(rune('A' + row))
}

func Format(s domain.Seat) string {
	return fmt.Sprintf("%s%d", RowLetter(s.Row), s.Col+1)
}

// Parse reads a label such as "d4" into a seat of a rows x cols grid.
func Parse(label string, rows, cols int) (domain.Seat, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) < 2 {
		return domain.Seat{}, fmt.Errorf("%w: %q", ErrBadFormat, label)
	}

	r := label[0]
	if r < 'A' || int(r-'A') >= rows || int(r-'A') >= MaxRows {
		return domain.Seat{}, fmt.Errorf("%w: %c", ErrBadRow, r)
	}

	n, err := strconv.Atoi(label[1:])
	if err != nil || n < 1 || n > cols {
		return domain.Seat{}, fmt.Errorf("%w: %s", ErrBadColumn, label[1:])
	}

	return domain.Seat{Row: int(r - 'A'), Col: n - 1}, nil
}

// ParseList reads a comma separated list of labels.
func ParseList(list string, rows, cols int) ([]domain.Seat, error) {
	var out []domain.Seat
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := Parse(part, rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func ParseAll(labels []string, rows, cols int) ([]domain.Seat, error) {
	out := make([]domain.Seat, 0, len(labels))
	for _, l := range labels {
		s, err := Parse(l, rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func FormatBookingRef(reservationID int64) string {
	return "B" + strconv.FormatInt(reservationID, 10)
}

// ParseBookingRef accepts "B17" as well as a bare "17".
func ParseBookingRef(ref string) (int64, error) {
	ref = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(ref)), "B")
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadBooking, ref)
	}
	return id, nil
}
