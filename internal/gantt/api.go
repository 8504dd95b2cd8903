package gantt

import (
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
)

// API is the typed surface handed to the host callback.
type API struct {
	Core       *CoreAPI
	Data       *DataAPI
	Timeframes *TimeframesAPI
	Directives *DirectivesAPI
	Tasks      *TasksAPI
}

// CoreAPI exposes position/date lookups and lifecycle events.
type CoreAPI struct {
	gantt    *Gantt
	Ready    Event[*API]
	Rendered Event[*API]
}

// GetDateByPosition resolves the date at position x.
func (c *CoreAPI) GetDateByPosition(x float64, magnet, disableExpand bool) (time.Time, bool) {
	return c.gantt.DateForPosition(x, magnet, disableExpand)
}

// GetPositionByDate resolves the position of date.
func (c *CoreAPI) GetPositionByDate(date time.Time, disableExpand bool) (float64, bool) {
	return c.gantt.PositionForDate(date, disableExpand)
}

// DataChange carries the bound collection before and after a diff.
type DataChange struct {
	New []domain.RowData
	Old []domain.RowData
}

// DataAPI exposes bulk data mutation and the data events.
// Loaded, Removed and Cleared are the data.load, data.remove and data.clear events.
type DataAPI struct {
	gantt   *Gantt
	Change  Event[DataChange]
	Loaded  Event[[]domain.RowData]
	Removed Event[[]domain.RowData]
	Cleared Event[struct{}]
}

// Load upserts rows by id.
func (d *DataAPI) Load(rows ...domain.RowData) error {
	return d.gantt.Load(rows...)
}

// Remove deletes rows, or only the listed tasks of a row when some are given.
func (d *DataAPI) Remove(rows ...domain.RowData) error {
	return d.gantt.Remove(rows...)
}

// Clear unbinds the data collection.
func (d *DataAPI) Clear() {
	d.gantt.Clear()
}

// Get returns a copy of the bound data collection.
func (d *DataAPI) Get() []domain.RowData {
	return d.gantt.Data()
}

// TimeframesAPI registers calendar rules directly, bypassing the options.
type TimeframesAPI struct {
	gantt *Gantt
}

// RegisterTimeFrames adds time frames and regenerates columns.
func (t *TimeframesAPI) RegisterTimeFrames(frames []calendar.TimeFrame) error {
	if err := t.gantt.calendar.RegisterTimeFrames(frames); err != nil {
		return err
	}
	t.gantt.calendarChanged()
	return nil
}

// ClearTimeframes removes every time frame.
func (t *TimeframesAPI) ClearTimeframes() {
	t.gantt.calendar.ClearTimeFrames()
	t.gantt.calendarChanged()
}

// RegisterDateFrames adds date frames and regenerates columns.
func (t *TimeframesAPI) RegisterDateFrames(frames []calendar.DateFrame) error {
	if err := t.gantt.calendar.RegisterDateFrames(frames); err != nil {
		return err
	}
	t.gantt.calendarChanged()
	return nil
}

// ClearDateFrames removes every date frame.
func (t *TimeframesAPI) ClearDateFrames() {
	t.gantt.calendar.ClearDateFrames()
	t.gantt.calendarChanged()
}

// RegisterTimeFrameMappings adds named mappings.
func (t *TimeframesAPI) RegisterTimeFrameMappings(mappings map[string]calendar.Mapping) {
	t.gantt.calendar.RegisterTimeFrameMappings(mappings)
	t.gantt.calendarChanged()
}

// ClearTimeFrameMappings removes the named mappings, or all of them.
func (t *TimeframesAPI) ClearTimeFrameMappings(names ...string) {
	t.gantt.calendar.ClearTimeFrameMappings(names...)
	t.gantt.calendarChanged()
}

// DirectiveKind names the element a directive event is about.
type DirectiveKind string

// DirectiveRow and DirectiveTask are the element kinds.
const (
	DirectiveRow  DirectiveKind = "row"
	DirectiveTask DirectiveKind = "task"
)

// DirectiveEvent describes a row or task element being created, linked or destroyed.
type DirectiveEvent struct {
	Kind  DirectiveKind
	ID    string
	RowID string
}

// DirectivesAPI exposes element lifecycle events.
type DirectivesAPI struct {
	PreLink  Event[DirectiveEvent]
	PostLink Event[DirectiveEvent]
	New      Event[DirectiveEvent]
	Destroy  Event[DirectiveEvent]
}

// TasksAPI exposes task mutation events.
type TasksAPI struct {
	Change Event[*Task]
}

// Method is one entry of the method-registration table.
type Method struct {
	Namespace string
	Name      string
	Func      any
}

// FullName returns "namespace.name".
func (m Method) FullName() string {
	return m.Namespace + "." + m.Name
}

func newAPI(g *Gantt) *API {
	return &API{
		Core:       &CoreAPI{gantt: g},
		Data:       &DataAPI{gantt: g},
		Timeframes: &TimeframesAPI{gantt: g},
		Directives: &DirectivesAPI{},
		Tasks:      &TasksAPI{},
	}
}

// Methods returns the registered methods in registration order.
func (a *API) Methods() []Method {
	return []Method{
		{Namespace: "core", Name: "getDateByPosition", Func: a.Core.GetDateByPosition},
		{Namespace: "core", Name: "getPositionByDate", Func: a.Core.GetPositionByDate},
		{Namespace: "data", Name: "load", Func: a.Data.Load},
		{Namespace: "data", Name: "remove", Func: a.Data.Remove},
		{Namespace: "data", Name: "clear", Func: a.Data.Clear},
		{Namespace: "data", Name: "get", Func: a.Data.Get},
		{Namespace: "timeframes", Name: "registerTimeFrames", Func: a.Timeframes.RegisterTimeFrames},
		{Namespace: "timeframes", Name: "clearTimeframes", Func: a.Timeframes.ClearTimeframes},
		{Namespace: "timeframes", Name: "registerDateFrames", Func: a.Timeframes.RegisterDateFrames},
		{Namespace: "timeframes", Name: "clearDateFrames", Func: a.Timeframes.ClearDateFrames},
		{Namespace: "timeframes", Name: "registerTimeFrameMappings", Func: a.Timeframes.RegisterTimeFrameMappings},
		{Namespace: "timeframes", Name: "clearTimeFrameMappings", Func: a.Timeframes.ClearTimeFrameMappings},
	}
}

// Method looks up a method by its full name.
func (a *API) Method(fullName string) (Method, bool) {
	for _, m := range a.Methods() {
		if m.FullName() == fullName {
			return m, true
		}
	}
	return Method{}, false
}
