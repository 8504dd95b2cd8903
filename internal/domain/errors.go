package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidUnit      = errors.New("invalid time unit")
)
