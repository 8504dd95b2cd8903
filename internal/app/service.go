package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/gantt"
)

// TaskEdge selects which part of a task a positional edit drives.
type TaskEdge string

// TaskEdgeMove and related constants define task edit modes.
const (
	TaskEdgeMove TaskEdge = "move"
	TaskEdgeFrom TaskEdge = "from"
	TaskEdgeTo   TaskEdge = "to"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Options  gantt.Options
	Width    float64
	Location *time.Location
	Logger   *log.Logger
	// AutoSave writes the bound data to the row store after every data mutation.
	AutoSave bool
	OnAPI    func(*gantt.API)
}

// IDGenerator returns unique identifiers for rows and tasks loaded without one.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service serializes access to one chart for hosts with concurrent callers.
type Service struct {
	mu       sync.Mutex
	chart    *gantt.Gantt
	store    RowStore
	clock    Clock
	logger   *log.Logger
	autoSave bool
}

// NewService constructs a new value for this package. store may be nil.
func NewService(store RowStore, idGen IDGenerator, clock Clock, cfg ServiceConfig) (*Service, error) {
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	opts := []gantt.Option{
		gantt.WithOptions(cfg.Options),
		gantt.WithClock(gantt.Clock(clock)),
		gantt.WithLogger(logger),
		gantt.WithAPIHandler(cfg.OnAPI),
	}
	if idGen != nil {
		opts = append(opts, gantt.WithIDGenerator(gantt.IDGenerator(idGen)))
	}
	if cfg.Location != nil {
		opts = append(opts, gantt.WithLocation(cfg.Location))
	}
	chart, err := gantt.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}
	if cfg.Width > 0 {
		chart.SetWidth(cfg.Width)
	}
	chart.Initialized()
	chart.Measured(cfg.Options.SideWidth)
	return &Service{
		chart:    chart,
		store:    store,
		clock:    clock,
		logger:   logger,
		autoSave: cfg.AutoSave && store != nil,
	}, nil
}

// lock acquires the service mutex unless ctx is already done.
func (s *Service) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	return nil
}

// Snapshot returns the computed chart geometry.
func (s *Service) Snapshot(ctx context.Context) (gantt.Snapshot, error) {
	if err := s.lock(ctx); err != nil {
		return gantt.Snapshot{}, err
	}
	defer s.mu.Unlock()
	return s.chart.Snapshot(), nil
}

// Options returns the current chart options.
func (s *Service) Options(ctx context.Context) (gantt.Options, error) {
	if err := s.lock(ctx); err != nil {
		return gantt.Options{}, err
	}
	defer s.mu.Unlock()
	return s.chart.Options(), nil
}

// UpdateOptions applies fn to a copy of the options and commits it when valid.
func (s *Service) UpdateOptions(ctx context.Context, fn func(*gantt.Options)) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return s.chart.UpdateOptions(fn)
}

// Resize records a new element width.
func (s *Service) Resize(ctx context.Context, width float64) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.chart.SetWidth(width)
	return nil
}

// Data returns the bound row collection.
func (s *Service) Data(ctx context.Context) ([]domain.RowData, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	out := s.chart.Data()
	if out == nil {
		out = []domain.RowData{}
	}
	return out, nil
}

// ReplaceData binds rows as the new collection.
func (s *Service) ReplaceData(ctx context.Context, rows []domain.RowData) error {
	return s.mutateData(ctx, func() error {
		return s.chart.SetData(rows)
	})
}

// LoadData upserts rows into the bound collection.
func (s *Service) LoadData(ctx context.Context, rows []domain.RowData) error {
	return s.mutateData(ctx, func() error {
		return s.chart.Load(rows...)
	})
}

// RemoveData removes rows, or the listed tasks of a row.
func (s *Service) RemoveData(ctx context.Context, rows []domain.RowData) error {
	return s.mutateData(ctx, func() error {
		return s.chart.Remove(rows...)
	})
}

// ClearData unbinds the collection.
func (s *Service) ClearData(ctx context.Context) error {
	return s.mutateData(ctx, func() error {
		s.chart.Clear()
		return nil
	})
}

// Reload replaces the bound collection with the row store contents.
func (s *Service) Reload(ctx context.Context) error {
	if s.store == nil {
		return ErrNoRowStore
	}
	return s.LoadFrom(ctx, s.store)
}

// LoadFrom replaces the bound collection with the rows read from src.
func (s *Service) LoadFrom(ctx context.Context, src RowSource) error {
	rows, err := src.ReadRows(ctx)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if err := s.chart.SetData(rows); err != nil {
		return err
	}
	s.logger.Debug("data loaded", "rows", len(rows))
	return nil
}

// Save writes the bound collection to the row store.
func (s *Service) Save(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Service) mutateData(ctx context.Context, fn func() error) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	if s.autoSave {
		return s.saveLocked(ctx)
	}
	return nil
}

func (s *Service) saveLocked(ctx context.Context) error {
	if s.store == nil {
		return ErrNoRowStore
	}
	rows := s.chart.Data()
	if rows == nil {
		rows = []domain.RowData{}
	}
	if err := s.store.WriteRows(ctx, rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// PositionQuery holds input values for position lookups.
type PositionQuery struct {
	X             float64
	Magnet        bool
	Precision     bool
	DisableExpand bool
}

// DateByPosition resolves the date at a position.
func (s *Service) DateByPosition(ctx context.Context, q PositionQuery) (time.Time, error) {
	if err := s.lock(ctx); err != nil {
		return time.Time{}, err
	}
	defer s.mu.Unlock()
	restore := s.withPrecision(q.Precision)
	defer restore()
	date, ok := s.chart.DateForPosition(q.X, q.Magnet, q.DisableExpand)
	if !ok {
		return time.Time{}, fmt.Errorf("x=%g: %w", q.X, ErrUnresolvedPosition)
	}
	return date, nil
}

// PositionByDate resolves the position of a date.
func (s *Service) PositionByDate(ctx context.Context, date time.Time, disableExpand bool) (float64, error) {
	if err := s.lock(ctx); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	pos, ok := s.chart.PositionForDate(date, disableExpand)
	if !ok {
		return 0, fmt.Errorf("date %s: %w", date.Format(time.RFC3339), ErrUnresolvedPosition)
	}
	return pos, nil
}

func (s *Service) withPrecision(active bool) func() {
	prev := s.chart.ModifierActive()
	s.chart.SetModifierActive(active)
	return func() {
		s.chart.SetModifierActive(prev)
	}
}

// EditTaskInput holds input values for positional task edits.
type EditTaskInput struct {
	TaskID    string
	Edge      TaskEdge
	X         float64
	Magnet    bool
	Precision bool
}

// EditTask moves a task or one of its edges to a position.
func (s *Service) EditTask(ctx context.Context, in EditTaskInput) (gantt.TaskView, error) {
	if err := s.lock(ctx); err != nil {
		return gantt.TaskView{}, err
	}
	defer s.mu.Unlock()
	task, err := s.task(in.TaskID)
	if err != nil {
		return gantt.TaskView{}, err
	}
	restore := s.withPrecision(in.Precision)
	defer restore()
	if err := applyEdit(task, in.Edge, in.X, in.Magnet); err != nil {
		return gantt.TaskView{}, err
	}
	return s.afterTaskEdit(ctx, task)
}

// NudgeTaskInput holds input values for column-relative task edits.
type NudgeTaskInput struct {
	TaskID    string
	Edge      TaskEdge
	Steps     int
	Precision bool
}

// NudgeTask shifts a task or one of its edges by whole columns, or by
// quarter columns when Precision is set. Edits snap with the active magnet.
func (s *Service) NudgeTask(ctx context.Context, in NudgeTaskInput) (gantt.TaskView, error) {
	if err := s.lock(ctx); err != nil {
		return gantt.TaskView{}, err
	}
	defer s.mu.Unlock()
	task, err := s.task(in.TaskID)
	if err != nil {
		return gantt.TaskView{}, err
	}
	anchor := task.Model.From
	if in.Edge == TaskEdgeTo && !task.Model.To.IsZero() {
		anchor = task.Model.To
	}
	x, ok := s.chart.PositionForDate(anchor, false)
	if !ok {
		return gantt.TaskView{}, fmt.Errorf("task %q: %w", in.TaskID, ErrUnresolvedPosition)
	}
	col, ok := s.chart.ColumnsManager().ColumnByPosition(x, false)
	if !ok {
		return gantt.TaskView{}, fmt.Errorf("task %q: %w", in.TaskID, ErrUnresolvedPosition)
	}
	step := col.Width
	if in.Precision {
		step /= 4
	}
	restore := s.withPrecision(in.Precision)
	defer restore()
	if err := applyEdit(task, in.Edge, x+float64(in.Steps)*step, true); err != nil {
		return gantt.TaskView{}, err
	}
	return s.afterTaskEdit(ctx, task)
}

func (s *Service) task(id string) (*gantt.Task, error) {
	id = strings.TrimSpace(id)
	task, ok := s.chart.Task(id)
	if !ok {
		return nil, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return task, nil
}

func applyEdit(task *gantt.Task, edge TaskEdge, x float64, magnet bool) error {
	var ok bool
	switch edge {
	case TaskEdgeMove, "":
		ok = task.MoveTo(x, magnet)
	case TaskEdgeFrom:
		ok = task.SetFrom(x, magnet)
	case TaskEdgeTo:
		ok = task.SetTo(x, magnet)
	default:
		return fmt.Errorf("%q: %w", edge, ErrInvalidEdge)
	}
	if !ok {
		return fmt.Errorf("task %q at x=%g: %w", task.ID(), x, ErrUnresolvedPosition)
	}
	return nil
}

func (s *Service) afterTaskEdit(ctx context.Context, task *gantt.Task) (gantt.TaskView, error) {
	if s.autoSave {
		if err := s.saveLocked(ctx); err != nil {
			return gantt.TaskView{}, err
		}
	}
	return task.View(), nil
}

// TimeFramesInput holds input values for calendar registration.
type TimeFramesInput struct {
	TimeFrames []calendar.TimeFrame `json:"time_frames,omitempty"`
	DateFrames []calendar.DateFrame `json:"date_frames,omitempty"`
}

// RegisterTimeFrames registers time and date frames on the chart calendar.
func (s *Service) RegisterTimeFrames(ctx context.Context, in TimeFramesInput) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	api := s.chart.API().Timeframes
	if len(in.TimeFrames) > 0 {
		if err := api.RegisterTimeFrames(in.TimeFrames); err != nil {
			return err
		}
	}
	if len(in.DateFrames) > 0 {
		if err := api.RegisterDateFrames(in.DateFrames); err != nil {
			return err
		}
	}
	return nil
}

// ClearTimeFrames clears registered time frames, date frames, or both.
func (s *Service) ClearTimeFrames(ctx context.Context, timeFrames, dateFrames bool) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	api := s.chart.API().Timeframes
	if timeFrames {
		api.ClearTimeframes()
	}
	if dateFrames {
		api.ClearDateFrames()
	}
	return nil
}
