// Package gantt is the headless chart engine: it lays out columns over a date
// range, maps positions to dates and keeps task geometry in sync with the data.
package gantt

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
)

// State is a chart lifecycle state.
type State int

// StateConstructing and related constants define the lifecycle in order.
const (
	StateConstructing State = iota
	StateConfigured
	StateWatching
	StateRendered
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateConfigured:
		return "configured"
	case StateWatching:
		return "watching"
	case StateRendered:
		return "rendered"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Clock returns the current time.
type Clock func() time.Time

// IDGenerator returns unique identifiers for rows and tasks loaded without one.
type IDGenerator func() string

// Option configures a chart under construction.
type Option func(*Gantt)

// WithOptions replaces the default options.
func WithOptions(opts Options) Option {
	return func(g *Gantt) {
		g.initial = opts.Clone()
	}
}

// WithData binds an initial data collection.
func WithData(rows []domain.RowData) Option {
	return func(g *Gantt) {
		g.initialData = domain.CloneRows(rows)
		g.hasInitialData = true
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(g *Gantt) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock sets the clock used for the current date.
func WithClock(clock Clock) Option {
	return func(g *Gantt) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithIDGenerator sets the id generator for rows and tasks without ids.
func WithIDGenerator(newID IDGenerator) Option {
	return func(g *Gantt) {
		if newID != nil {
			g.newID = newID
		}
	}
}

// WithAPIHandler registers the host callback receiving the API during construction.
func WithAPIHandler(fn func(*API)) Option {
	return func(g *Gantt) {
		g.apiHandler = fn
	}
}

// WithLocation sets the location used for column boundaries. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(g *Gantt) {
		if loc != nil {
			g.location = loc
		}
	}
}

// Gantt is the chart controller. It is not safe for concurrent use.
type Gantt struct {
	logger     *log.Logger
	clock      Clock
	newID      IDGenerator
	location   *time.Location
	apiHandler func(*API)

	initial        Options
	initialData    []domain.RowData
	hasInitialData bool

	state    State
	store    *Store
	calendar *calendar.Calendar
	api      *API
	columns  *ColumnsManager
	rows     *RowsManager

	data    []domain.RowData
	hasData bool

	width          float64
	modifierActive bool
	columnMagnet   domain.Magnet
	shiftMagnet    domain.Magnet
	expandFrom     time.Time
	expandTo       time.Time
	dirty          bool
	readyRaised    bool
}

// New constructs a chart: options are validated, the calendar and API are
// wired, watchers installed, the host callback invoked and initial data applied.
func New(opts ...Option) (*Gantt, error) {
	g := &Gantt{
		logger:   log.Default(),
		clock:    time.Now,
		newID:    uuid.NewString,
		location: time.UTC,
		initial:  DefaultOptions(),
		state:    StateConstructing,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if err := g.initial.Validate(); err != nil {
		return nil, err
	}

	g.store = NewStore(g.initial)
	g.api = newAPI(g)
	g.calendar = calendar.New()
	if err := g.calendar.RegisterTimeFrames(g.initial.TimeFrames); err != nil {
		return nil, err
	}
	if err := g.calendar.RegisterDateFrames(g.initial.DateFrames); err != nil {
		return nil, err
	}
	g.columns = newColumnsManager(g)
	g.rows = newRowsManager(g)
	g.columnMagnet, _ = domain.ParseMagnet(g.initial.ColumnMagnet)
	g.shiftMagnet = precisionMagnet(g.initial)
	g.state = StateConfigured

	g.installWatchers()
	g.state = StateWatching

	if g.apiHandler != nil {
		g.apiHandler(g.api)
	}

	if g.hasInitialData {
		if err := g.SetData(g.initialData); err != nil {
			return nil, err
		}
	}
	g.initialData = nil
	g.invalidate()
	g.flush()
	return g, nil
}

func (g *Gantt) installWatchers() {
	g.store.Watch("frames", func(o Options) any {
		return []any{o.TimeFrames, o.DateFrames}
	}, func(next, prev Options) {
		if !equalValues(next.TimeFrames, prev.TimeFrames) {
			g.calendar.ClearTimeFrames()
			if err := g.calendar.RegisterTimeFrames(next.TimeFrames); err != nil {
				g.logger.Error("register time frames", "err", err)
			}
		}
		if !equalValues(next.DateFrames, prev.DateFrames) {
			g.calendar.ClearDateFrames()
			if err := g.calendar.RegisterDateFrames(next.DateFrames); err != nil {
				g.logger.Error("register date frames", "err", err)
			}
		}
		g.invalidate()
	})
	g.store.Watch("column_magnet", func(o Options) any {
		return o.ColumnMagnet
	}, func(next, _ Options) {
		g.columnMagnet, _ = domain.ParseMagnet(next.ColumnMagnet)
	})
	g.store.Watch("shift_column_magnet", func(o Options) any {
		return []any{o.ShiftColumnMagnet, o.ViewScale}
	}, func(next, _ Options) {
		g.shiftMagnet = precisionMagnet(next)
	})
	g.store.Watch("layout", func(o Options) any {
		return []any{
			o.ViewScale, o.FromDate, o.ToDate, o.ColumnWidth, o.TaskOutOfRange,
			o.TimeFramesWorkingMode, o.TimeFramesNonWorkingMode, o.ShowSide, o.SideWidth,
		}
	}, func(Options, Options) {
		g.invalidate()
	})
}

// precisionMagnet parses the shift magnet, defaulting to a quarter of the view scale.
func precisionMagnet(opts Options) domain.Magnet {
	if m, ok := domain.ParseMagnet(opts.ShiftColumnMagnet); ok {
		return m
	}
	return domain.Magnet{Value: 0.25, Unit: string(opts.ViewScale)}
}

// API returns the typed API.
func (g *Gantt) API() *API {
	return g.api
}

// State returns the lifecycle state.
func (g *Gantt) State() State {
	return g.state
}

// Options returns a copy of the current options.
func (g *Gantt) Options() Options {
	return g.store.Get()
}

// UpdateOptions applies fn to a copy of the options, validates the result and
// commits it, running the watchers whose values changed.
func (g *Gantt) UpdateOptions(fn func(*Options)) error {
	next := g.store.Get()
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	fired := g.store.Set(next)
	if len(fired) > 0 {
		g.logger.Debug("options changed", "watchers", fired)
	}
	g.flush()
	return nil
}

// Columns returns the visible columns.
func (g *Gantt) Columns() []*Column {
	return g.columns.Columns()
}

// ColumnsManager returns the columns manager.
func (g *Gantt) ColumnsManager() *ColumnsManager {
	return g.columns
}

// RowsManager returns the rows manager.
func (g *Gantt) RowsManager() *RowsManager {
	return g.rows
}

// Calendar returns the frame registry.
func (g *Gantt) Calendar() *calendar.Calendar {
	return g.calendar
}

// Width returns the total width of the visible columns.
func (g *Gantt) Width() float64 {
	return g.columns.Width()
}

// ElementWidth returns the width last reported by SetWidth.
func (g *Gantt) ElementWidth() float64 {
	return g.width
}

// SetWidth records the element width reported by the presentation layer.
func (g *Gantt) SetWidth(width float64) {
	if width < 0 {
		width = 0
	}
	if width == g.width {
		return
	}
	g.width = width
	if g.store.current.ColumnWidth <= 0 {
		g.invalidate()
		g.flush()
	}
}

// SetModifierActive selects the precision magnet while active.
func (g *Gantt) SetModifierActive(active bool) {
	g.modifierActive = active
}

// ModifierActive reports whether the precision magnet is selected.
func (g *Gantt) ModifierActive() bool {
	return g.modifierActive
}

// ActiveMagnet returns the magnet applied to snapped lookups.
func (g *Gantt) ActiveMagnet() domain.Magnet {
	if g.modifierActive {
		return g.shiftMagnet
	}
	return g.columnMagnet
}

// Initialized marks the chart rendered, generates columns and raises core.ready once.
func (g *Gantt) Initialized() {
	if g.state < StateRendered {
		g.state = StateRendered
	}
	g.invalidate()
	g.flush()
	if !g.readyRaised {
		g.readyRaised = true
		g.state = StateReady
		g.api.Core.Ready.raise(g.api)
	}
}

// Measured records the side width once the presentation layer has laid it out
// and raises core.rendered.
func (g *Gantt) Measured(sideWidth float64) {
	if sideWidth < 0 {
		sideWidth = 0
	}
	next := g.store.Get()
	next.SideWidth = sideWidth
	g.store.Set(next)
	g.flush()
	g.api.Core.Rendered.raise(g.api)
}

// DateForPosition resolves the date at position x, snapping with the active
// magnet when magnet is set.
func (g *Gantt) DateForPosition(x float64, magnet, disableExpand bool) (time.Time, bool) {
	col, ok := g.columns.ColumnByPosition(x, disableExpand)
	if !ok {
		return time.Time{}, false
	}
	var m domain.Magnet
	if magnet {
		m = g.ActiveMagnet()
	}
	return col.DateForPosition(x-col.Left, m), true
}

// PositionForDate resolves the position of date. The zero time is absent.
func (g *Gantt) PositionForDate(date time.Time, disableExpand bool) (float64, bool) {
	if date.IsZero() {
		return 0, false
	}
	date = date.In(g.location)
	col, ok := g.columns.ColumnByDate(date, disableExpand)
	if !ok {
		return 0, false
	}
	return col.PositionForDate(date), true
}

// Row returns the row with id.
func (g *Gantt) Row(id string) (*Row, bool) {
	return g.rows.Row(id)
}

// Task returns the task with id.
func (g *Gantt) Task(id string) (*Task, bool) {
	return g.rows.Task(id)
}

// calendarChanged regenerates columns after a direct calendar registration.
func (g *Gantt) calendarChanged() {
	g.invalidate()
	g.flush()
}

// taskChanged writes a mutated task back to the bound data, applies the
// auto-expand policy and raises tasks.change.
func (g *Gantt) taskChanged(t *Task) {
	if ri := domain.IndexOfRow(g.data, t.row.ID); ri >= 0 {
		if ti := domain.IndexOfTask(g.data[ri].Tasks, t.Model.ID); ti >= 0 {
			g.data[ri].Tasks[ti] = t.Model
		}
	}
	policy := g.store.current.AutoExpand
	if start, end, ok := g.columns.Range(); ok {
		from, to := taskBounds(t.Model)
		if policy.allowsLeft() && from.Before(start) {
			g.expandFrom = from
			g.invalidate()
		}
		if policy.allowsRight() && to.After(end) {
			g.expandTo = to
			g.invalidate()
		}
	}
	if g.dirty {
		g.logger.Debug("range auto-expanded", "task", t.Model.ID, "policy", policy)
		g.flush()
	}
	g.api.Tasks.Change.raise(t)
}

func (g *Gantt) invalidate() {
	g.dirty = true
}

// flush regenerates columns and geometry when something invalidated them.
func (g *Gantt) flush() {
	if !g.dirty {
		return
	}
	g.dirty = false
	g.columns.Generate()
	g.rows.UpdateTasksPosAndSize()
}
