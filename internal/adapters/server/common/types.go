// Package common defines transport-neutral contracts shared by the HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/gantt"
)

// ErrInvalidRequest and related errors describe adapter-visible failure classes.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNotFound            = errors.New("not found")
	ErrOutOfRange          = errors.New("out of chart range")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrMutationUnavailable = errors.New("mutation service unavailable")
)

// dayLayout is the date-only form accepted wherever a request carries a date.
const dayLayout = "2006-01-02"

// PositionRequest resolves the date found at one horizontal position.
type PositionRequest struct {
	X             float64 `json:"x"`
	Magnet        bool    `json:"magnet"`
	Precision     bool    `json:"precision"`
	DisableExpand bool    `json:"disable_expand"`
}

// DateResult is the date found at one horizontal position.
type DateResult struct {
	X    float64   `json:"x"`
	Date time.Time `json:"date"`
}

// DateRequest resolves the horizontal position of one date.
type DateRequest struct {
	Date          time.Time `json:"date"`
	DisableExpand bool      `json:"disable_expand"`
}

// PositionResult is the horizontal position of one date.
type PositionResult struct {
	Date     time.Time `json:"date"`
	Position float64   `json:"position"`
}

// RowsRequest carries rows for load and remove operations.
type RowsRequest struct {
	Rows []domain.RowData `json:"rows"`
}

// TimeFramesRequest registers calendar frames.
type TimeFramesRequest struct {
	TimeFrames []calendar.TimeFrame `json:"time_frames,omitempty"`
	DateFrames []calendar.DateFrame `json:"date_frames,omitempty"`
}

// ClearTimeFramesRequest selects which registries to clear. Leaving both
// flags unset clears both.
type ClearTimeFramesRequest struct {
	TimeFrames bool `json:"time_frames"`
	DateFrames bool `json:"date_frames"`
}

// EditTaskRequest moves one task, or one of its edges, to a position.
type EditTaskRequest struct {
	TaskID    string  `json:"task_id"`
	Edge      string  `json:"edge"`
	X         float64 `json:"x"`
	Magnet    bool    `json:"magnet"`
	Precision bool    `json:"precision"`
}

// ChartReader exposes read-only chart geometry and position lookups.
type ChartReader interface {
	Chart(context.Context) (gantt.Snapshot, error)
	Data(context.Context) ([]domain.RowData, error)
	DateByPosition(context.Context, PositionRequest) (DateResult, error)
	PositionByDate(context.Context, DateRequest) (PositionResult, error)
}

// DataService mutates the bound row collection.
type DataService interface {
	LoadData(context.Context, RowsRequest) ([]domain.RowData, error)
	RemoveData(context.Context, RowsRequest) ([]domain.RowData, error)
	ClearData(context.Context) error
}

// TimeFrameService manages calendar registrations.
type TimeFrameService interface {
	RegisterTimeFrames(context.Context, TimeFramesRequest) error
	ClearTimeFrames(context.Context, ClearTimeFramesRequest) error
}

// TaskEditor applies positional task edits.
type TaskEditor interface {
	EditTask(context.Context, EditTaskRequest) (gantt.TaskView, error)
}

// ChartService is the full surface implemented by AppServiceAdapter.
type ChartService interface {
	ChartReader
	DataService
	TimeFrameService
	TaskEditor
}

// ParseDate accepts an RFC3339 instant or a UTC day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required: %w", ErrInvalidRequest)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dayLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, ErrInvalidRequest)
	}
	return t, nil
}
