package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnresolvedPosition = errors.New("position could not be resolved")
	ErrInvalidEdge        = errors.New("invalid task edge")
	ErrNoRowStore         = errors.New("no row store configured")
)
