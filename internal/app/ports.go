package app

import (
	"context"

	"github.com/hylla/gantt/internal/domain"
)

// RowSource represents a readable row collection used by this package.
type RowSource interface {
	ReadRows(context.Context) ([]domain.RowData, error)
}

// RowStore represents a row collection that can also be written back.
type RowStore interface {
	RowSource
	WriteRows(context.Context, []domain.RowData) error
}
