package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/gantt"
)

// AppServiceAdapter maps transport contracts onto app.Service chart APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// configured reports an unavailable service as a typed error.
func (a *AppServiceAdapter) configured() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	return nil
}

// Chart returns the current chart geometry.
func (a *AppServiceAdapter) Chart(ctx context.Context) (gantt.Snapshot, error) {
	if err := a.configured(); err != nil {
		return gantt.Snapshot{}, err
	}
	snap, err := a.service.Snapshot(ctx)
	if err != nil {
		return gantt.Snapshot{}, mapAppError("chart", err)
	}
	return snap, nil
}

// Data returns the bound row collection.
func (a *AppServiceAdapter) Data(ctx context.Context) ([]domain.RowData, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	rows, err := a.service.Data(ctx)
	if err != nil {
		return nil, mapAppError("get data", err)
	}
	return rows, nil
}

// LoadData upserts rows and returns the resulting collection.
func (a *AppServiceAdapter) LoadData(ctx context.Context, in RowsRequest) ([]domain.RowData, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	if len(in.Rows) == 0 {
		return nil, fmt.Errorf("load data: rows are required: %w", ErrInvalidRequest)
	}
	if err := a.service.LoadData(ctx, in.Rows); err != nil {
		return nil, mapAppError("load data", err)
	}
	return a.Data(ctx)
}

// RemoveData removes rows, or the listed tasks of a row, and returns the resulting collection.
func (a *AppServiceAdapter) RemoveData(ctx context.Context, in RowsRequest) ([]domain.RowData, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	if len(in.Rows) == 0 {
		return nil, fmt.Errorf("remove data: rows are required: %w", ErrInvalidRequest)
	}
	for _, row := range in.Rows {
		if strings.TrimSpace(row.ID) == "" {
			return nil, fmt.Errorf("remove data: row id is required: %w", ErrInvalidRequest)
		}
	}
	if err := a.service.RemoveData(ctx, in.Rows); err != nil {
		return nil, mapAppError("remove data", err)
	}
	return a.Data(ctx)
}

// ClearData unbinds the row collection.
func (a *AppServiceAdapter) ClearData(ctx context.Context) error {
	if err := a.configured(); err != nil {
		return err
	}
	return mapAppError("clear data", a.service.ClearData(ctx))
}

// DateByPosition resolves the date at one position.
func (a *AppServiceAdapter) DateByPosition(ctx context.Context, in PositionRequest) (DateResult, error) {
	if err := a.configured(); err != nil {
		return DateResult{}, err
	}
	date, err := a.service.DateByPosition(ctx, app.PositionQuery{
		X:             in.X,
		Magnet:        in.Magnet,
		Precision:     in.Precision,
		DisableExpand: in.DisableExpand,
	})
	if err != nil {
		return DateResult{}, mapAppError("date by position", err)
	}
	return DateResult{X: in.X, Date: date}, nil
}

// PositionByDate resolves the position of one date.
func (a *AppServiceAdapter) PositionByDate(ctx context.Context, in DateRequest) (PositionResult, error) {
	if err := a.configured(); err != nil {
		return PositionResult{}, err
	}
	if in.Date.IsZero() {
		return PositionResult{}, fmt.Errorf("position by date: date is required: %w", ErrInvalidRequest)
	}
	pos, err := a.service.PositionByDate(ctx, in.Date, in.DisableExpand)
	if err != nil {
		return PositionResult{}, mapAppError("position by date", err)
	}
	return PositionResult{Date: in.Date, Position: pos}, nil
}

// RegisterTimeFrames registers time and date frames.
func (a *AppServiceAdapter) RegisterTimeFrames(ctx context.Context, in TimeFramesRequest) error {
	if err := a.configured(); err != nil {
		return err
	}
	if len(in.TimeFrames) == 0 && len(in.DateFrames) == 0 {
		return fmt.Errorf("register time frames: time_frames or date_frames is required: %w", ErrInvalidRequest)
	}
	err := a.service.RegisterTimeFrames(ctx, app.TimeFramesInput{
		TimeFrames: in.TimeFrames,
		DateFrames: in.DateFrames,
	})
	return mapAppError("register time frames", err)
}

// ClearTimeFrames clears the selected calendar registries.
func (a *AppServiceAdapter) ClearTimeFrames(ctx context.Context, in ClearTimeFramesRequest) error {
	if err := a.configured(); err != nil {
		return err
	}
	if !in.TimeFrames && !in.DateFrames {
		in.TimeFrames, in.DateFrames = true, true
	}
	return mapAppError("clear time frames", a.service.ClearTimeFrames(ctx, in.TimeFrames, in.DateFrames))
}

// EditTask moves one task, or one of its edges, to a position.
func (a *AppServiceAdapter) EditTask(ctx context.Context, in EditTaskRequest) (gantt.TaskView, error) {
	if err := a.configured(); err != nil {
		return gantt.TaskView{}, err
	}
	taskID := strings.TrimSpace(in.TaskID)
	if taskID == "" {
		return gantt.TaskView{}, fmt.Errorf("edit task: task_id is required: %w", ErrInvalidRequest)
	}
	view, err := a.service.EditTask(ctx, app.EditTaskInput{
		TaskID:    taskID,
		Edge:      app.TaskEdge(strings.ToLower(strings.TrimSpace(in.Edge))),
		X:         in.X,
		Magnet:    in.Magnet,
		Precision: in.Precision,
	})
	if err != nil {
		return gantt.TaskView{}, mapAppError("edit task", err)
	}
	return view, nil
}

// mapAppError maps app and domain errors into adapter error classes.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrUnresolvedPosition):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrOutOfRange, err))
	case errors.Is(err, app.ErrInvalidEdge),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrDuplicateID),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidUnit),
		errors.Is(err, calendar.ErrInvalidTimeFrame),
		errors.Is(err, calendar.ErrInvalidDateFrame),
		errors.Is(err, gantt.ErrInvalidOptions):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
