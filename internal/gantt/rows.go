package gantt

import (
	"slices"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

// RowsManager holds rows in model order plus the sorted and visible indexes.
type RowsManager struct {
	gantt   *Gantt
	rows    []*Row
	byID    map[string]*Row
	sorted  []*Row
	visible []*Row
	filter  func(*Row) bool
	less    func(a, b *Row) int
}

func newRowsManager(g *Gantt) *RowsManager {
	return &RowsManager{gantt: g, byID: map[string]*Row{}}
}

// Rows returns the rows in model order.
func (m *RowsManager) Rows() []*Row {
	return slices.Clone(m.rows)
}

// SortedRows returns the rows in display order.
func (m *RowsManager) SortedRows() []*Row {
	return slices.Clone(m.sorted)
}

// VisibleRows returns the sorted rows accepted by the filter.
func (m *RowsManager) VisibleRows() []*Row {
	return slices.Clone(m.visible)
}

// Row returns the row with id.
func (m *RowsManager) Row(id string) (*Row, bool) {
	row, ok := m.byID[id]
	return row, ok
}

// Task returns the task with id from any row.
func (m *RowsManager) Task(id string) (*Task, bool) {
	for _, row := range m.rows {
		if task, ok := row.Task(id); ok {
			return task, true
		}
	}
	return nil, false
}

// SetFilter installs a row filter; nil shows every row.
func (m *RowsManager) SetFilter(filter func(*Row) bool) {
	m.filter = filter
	m.refreshIndexes()
}

// SetSort installs a display order; nil keeps model order.
func (m *RowsManager) SetSort(less func(a, b *Row) int) {
	m.less = less
	m.refreshIndexes()
}

// AddRow creates or updates the row for data. When modelOrderChanged is set
// an existing row is re-appended to the model order list.
func (m *RowsManager) AddRow(data domain.RowData, modelOrderChanged bool) *Row {
	if row, ok := m.byID[data.ID]; ok {
		row.sync(data)
		if modelOrderChanged {
			m.rows = append(m.rows, row)
		}
		return row
	}
	row := &Row{rows: m, ID: data.ID, Name: data.Name}
	m.byID[row.ID] = row
	m.rows = append(m.rows, row)
	m.created(DirectiveRow, row.ID, row.ID)
	row.sync(data)
	return row
}

// RemoveRow destroys the row with id and its tasks.
func (m *RowsManager) RemoveRow(id string) (*Row, bool) {
	row, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	row.removeAllTasks()
	delete(m.byID, id)
	m.rows = slices.DeleteFunc(m.rows, func(r *Row) bool { return r == row })
	m.raise(&m.gantt.api.Directives.Destroy, DirectiveRow, row.ID, row.ID)
	m.refreshIndexes()
	return row, true
}

// RemoveAll destroys every row.
func (m *RowsManager) RemoveAll() {
	for _, row := range m.rows {
		row.removeAllTasks()
		m.raise(&m.gantt.api.Directives.Destroy, DirectiveRow, row.ID, row.ID)
	}
	m.rows = nil
	m.byID = map[string]*Row{}
	m.sorted = nil
	m.visible = nil
}

// ResetNonModelLists clears the order-dependent lists before rows are re-added.
func (m *RowsManager) ResetNonModelLists() {
	m.rows = nil
	m.sorted = nil
	m.visible = nil
}

// UpdateTasksPosAndSize recomputes every task's geometry.
func (m *RowsManager) UpdateTasksPosAndSize() {
	for _, row := range m.rows {
		for _, task := range row.tasks {
			task.UpdatePosAndSize()
		}
	}
}

// Bounds returns the earliest start and latest end over every task.
func (m *RowsManager) Bounds() (time.Time, time.Time, bool) {
	var from, to time.Time
	for _, row := range m.rows {
		if row.From.IsZero() {
			continue
		}
		if from.IsZero() || row.From.Before(from) {
			from = row.From
		}
		if to.IsZero() || row.To.After(to) {
			to = row.To
		}
	}
	return from, to, !from.IsZero()
}

// refreshIndexes rebuilds the sorted and visible lists from the model order.
func (m *RowsManager) refreshIndexes() {
	m.sorted = slices.Clone(m.rows)
	if m.less != nil {
		slices.SortStableFunc(m.sorted, m.less)
	}
	m.visible = m.visible[:0]
	for _, row := range m.sorted {
		if m.filter == nil || m.filter(row) {
			m.visible = append(m.visible, row)
		}
	}
}

// created raises the creation and link events of a new element.
func (m *RowsManager) created(kind DirectiveKind, id, rowID string) {
	d := m.gantt.api.Directives
	m.raise(&d.New, kind, id, rowID)
	m.raise(&d.PreLink, kind, id, rowID)
	m.raise(&d.PostLink, kind, id, rowID)
}

func (m *RowsManager) raise(event *Event[DirectiveEvent], kind DirectiveKind, id, rowID string) {
	event.raise(DirectiveEvent{Kind: kind, ID: id, RowID: rowID})
}
