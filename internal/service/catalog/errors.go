package catalog

import "errors"

var (
	ErrShowingNotFound = errors.New("showing not found")
	ErrInvalidShowing  = errors.New("invalid showing")
	ErrTitleNotFound   = errors.New("title not found")
)
