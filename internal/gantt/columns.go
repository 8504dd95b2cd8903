package gantt

import (
	"math"
	"sort"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

// maxExtendedColumns caps the columns generated on demand per side.
const maxExtendedColumns = 4096

// maxColumns caps the visible columns of one generation.
const maxColumns = 100_000

// ColumnsManager generates the column grid and resolves columns by position or date.
type ColumnsManager struct {
	gantt     *Gantt
	columns   []*Column
	before    []*Column
	after     []*Column
	unitWidth float64
	width     float64
}

func newColumnsManager(g *Gantt) *ColumnsManager {
	return &ColumnsManager{gantt: g}
}

// Columns returns the visible columns in date order.
func (m *ColumnsManager) Columns() []*Column {
	return m.columns
}

// LastColumn returns the right-most visible column.
func (m *ColumnsManager) LastColumn() (*Column, bool) {
	if len(m.columns) == 0 {
		return nil, false
	}
	return m.columns[len(m.columns)-1], true
}

// Width returns the total width of the visible columns.
func (m *ColumnsManager) Width() float64 {
	return m.width
}

// Range returns the start of the first and the end of the last visible column.
func (m *ColumnsManager) Range() (time.Time, time.Time, bool) {
	if len(m.columns) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return m.columns[0].Date, m.columns[len(m.columns)-1].EndDate, true
}

// Generate rebuilds the visible columns and drops every extended column.
func (m *ColumnsManager) Generate() {
	m.columns = nil
	m.before = nil
	m.after = nil
	m.width = 0
	m.unitWidth = 0

	g := m.gantt
	opts := g.store.current
	from, to, ok := m.dateRange()
	if !ok {
		g.logger.Debug("columns cleared", "reason", "no date range")
		return
	}
	unit := opts.ViewScale
	start := domain.StartOf(from.In(g.location), unit)
	end := domain.EndOf(to.In(g.location), unit)
	if !end.After(start) {
		end = domain.Add(start, 1, unit)
	}
	for cursor := start; cursor.Before(end); {
		next := domain.Add(cursor, 1, unit)
		m.columns = append(m.columns, m.newColumn(cursor, next))
		if len(m.columns) >= maxColumns {
			g.logger.Warn("column generation capped", "max", maxColumns, "view_scale", unit)
			break
		}
		cursor = next
	}
	m.unitWidth = m.columnWidth()
	left := 0.0
	for _, col := range m.columns {
		col.layout(left, m.widthFor(col))
		left = col.Right()
	}
	m.width = left
	g.logger.Debug("columns generated", "count", len(m.columns), "from", start, "to", end, "width", m.width)
}

func (m *ColumnsManager) newColumn(start, end time.Time) *Column {
	opts := m.gantt.store.current
	return newColumn(start, end, m.gantt.calendar, opts.TimeFramesWorkingMode, opts.TimeFramesNonWorkingMode)
}

// dateRange resolves the range to cover from the options, the task bounds
// and any auto-expansion.
func (m *ColumnsManager) dateRange() (time.Time, time.Time, bool) {
	g := m.gantt
	opts := g.store.current
	from, to := opts.FromDate, opts.ToDate
	taskFrom, taskTo, hasTasks := g.rows.Bounds()
	if hasTasks {
		if from.IsZero() || (opts.TaskOutOfRange == OutOfRangeExpand && taskFrom.Before(from)) {
			from = taskFrom
		}
		if to.IsZero() || (opts.TaskOutOfRange == OutOfRangeExpand && taskTo.After(to)) {
			to = taskTo
		}
	}
	if !g.expandFrom.IsZero() && (from.IsZero() || g.expandFrom.Before(from)) {
		from = g.expandFrom
	}
	if !g.expandTo.IsZero() && (to.IsZero() || g.expandTo.After(to)) {
		to = g.expandTo
	}
	switch {
	case from.IsZero() && to.IsZero():
		return time.Time{}, time.Time{}, false
	case from.IsZero():
		from = to
	case to.IsZero():
		to = from
	}
	return from, to, true
}

// columnWidth returns the width of one non-cropped column.
func (m *ColumnsManager) columnWidth() float64 {
	opts := m.gantt.store.current
	if opts.ColumnWidth > 0 {
		return opts.ColumnWidth
	}
	available := m.gantt.width
	if opts.ShowSide {
		available -= opts.SideWidth
	}
	open := 0
	for _, col := range m.columns {
		if !col.Cropped() {
			open++
		}
	}
	if available <= 0 || open == 0 {
		return 0
	}
	return available / float64(open)
}

func (m *ColumnsManager) widthFor(col *Column) float64 {
	if col.Cropped() {
		return 0
	}
	return m.unitWidth
}

// ColumnByPosition returns the column covering x. Outside the visible range
// extended columns are generated unless disableExpand is set.
func (m *ColumnsManager) ColumnByPosition(x float64, disableExpand bool) (*Column, bool) {
	if len(m.columns) == 0 || math.IsNaN(x) {
		return nil, false
	}
	if x >= 0 && x <= m.width {
		idx := sort.Search(len(m.columns), func(i int) bool {
			return m.columns[i].Right() > x
		})
		if idx == len(m.columns) {
			idx = len(m.columns) - 1
		}
		return m.columns[idx], true
	}
	if disableExpand || m.unitWidth <= 0 {
		return nil, false
	}
	if x < 0 {
		for i := 0; i < maxExtendedColumns; i++ {
			col := m.extendBefore(i)
			if col == nil {
				return nil, false
			}
			if col.Left <= x {
				return col, true
			}
		}
		return nil, false
	}
	for i := 0; i < maxExtendedColumns; i++ {
		col := m.extendAfter(i)
		if col == nil {
			return nil, false
		}
		if col.Right() >= x {
			return col, true
		}
	}
	return nil, false
}

// ColumnByDate returns the column covering date. The end of the last column
// resolves to the last column.
func (m *ColumnsManager) ColumnByDate(date time.Time, disableExpand bool) (*Column, bool) {
	if len(m.columns) == 0 || date.IsZero() {
		return nil, false
	}
	first := m.columns[0]
	last := m.columns[len(m.columns)-1]
	if !date.Before(first.Date) && !date.After(last.EndDate) {
		idx := sort.Search(len(m.columns), func(i int) bool {
			return m.columns[i].EndDate.After(date)
		})
		if idx == len(m.columns) {
			idx = len(m.columns) - 1
		}
		return m.columns[idx], true
	}
	if disableExpand || m.unitWidth <= 0 {
		return nil, false
	}
	if date.Before(first.Date) {
		for i := 0; i < maxExtendedColumns; i++ {
			col := m.extendBefore(i)
			if col == nil {
				return nil, false
			}
			if !date.Before(col.Date) {
				return col, true
			}
		}
		return nil, false
	}
	for i := 0; i < maxExtendedColumns; i++ {
		col := m.extendAfter(i)
		if col == nil {
			return nil, false
		}
		if !date.After(col.EndDate) {
			return col, true
		}
	}
	return nil, false
}

// PositionBeyond extrapolates the position of a date lying past the
// generated columns at one column width per view-scale unit.
func (m *ColumnsManager) PositionBeyond(date time.Time) (float64, bool) {
	if len(m.columns) == 0 || date.IsZero() || m.unitWidth <= 0 {
		return 0, false
	}
	unit := m.gantt.store.current.ViewScale
	if date.Before(m.columns[0].Date) {
		edge := m.columns[0]
		if n := len(m.before); n > 0 {
			edge = m.before[n-1]
		}
		return edge.Left - m.unitWidth*domain.Diff(date, edge.Date, unit), true
	}
	edge := m.columns[len(m.columns)-1]
	if n := len(m.after); n > 0 {
		edge = m.after[n-1]
	}
	return edge.Right() + m.unitWidth*domain.Diff(edge.EndDate, date, unit), true
}

// extendBefore returns the i-th extended column left of the range, generating as needed.
func (m *ColumnsManager) extendBefore(i int) *Column {
	for len(m.before) <= i {
		next := m.columns[0]
		if n := len(m.before); n > 0 {
			next = m.before[n-1]
		}
		start := domain.Add(next.Date, -1, m.gantt.store.current.ViewScale)
		if !start.Before(next.Date) {
			return nil
		}
		col := m.newColumn(start, next.Date)
		col.Extended = true
		width := m.widthFor(col)
		col.layout(next.Left-width, width)
		m.before = append(m.before, col)
	}
	return m.before[i]
}

// extendAfter returns the i-th extended column right of the range, generating as needed.
func (m *ColumnsManager) extendAfter(i int) *Column {
	for len(m.after) <= i {
		prev := m.columns[len(m.columns)-1]
		if n := len(m.after); n > 0 {
			prev = m.after[n-1]
		}
		end := domain.Add(prev.EndDate, 1, m.gantt.store.current.ViewScale)
		if !end.After(prev.EndDate) {
			return nil
		}
		col := m.newColumn(prev.EndDate, end)
		col.Extended = true
		col.layout(prev.Right(), m.widthFor(col))
		m.after = append(m.after, col)
	}
	return m.after[i]
}
