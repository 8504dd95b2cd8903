package gantt

import (
	"math"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

// Task is a task bar: its owning row, its model and the geometry derived from both.
type Task struct {
	row   *Row
	Model domain.TaskData

	// Left and Width are meaningless while Hidden is set.
	Left           float64
	Width          float64
	Hidden         bool
	ModelLeft      float64
	ModelWidth     float64
	TruncatedLeft  bool
	TruncatedRight bool

	// resolved is set while ModelLeft and ModelWidth derive from the model dates.
	resolved bool
}

func newTask(row *Row, model domain.TaskData) *Task {
	return &Task{row: row, Model: model, Hidden: true}
}

// Row returns the owning row.
func (t *Task) Row() *Row {
	return t.row
}

// ID returns the model id.
func (t *Task) ID() string {
	return t.Model.ID
}

// IsMilestone reports whether the task has no end date or a zero duration.
func (t *Task) IsMilestone() bool {
	return t.Model.IsMilestone()
}

// Geometry returns the clamped position and width, or false when hidden.
func (t *Task) Geometry() (left, width float64, ok bool) {
	if t.Hidden {
		return 0, 0, false
	}
	return t.Left, t.Width, true
}

func (t *Task) gantt() *Gantt {
	return t.row.rows.gantt
}

// UpdatePosAndSize recomputes the geometry from the model dates and the column layout.
func (t *Task) UpdatePosAndSize() {
	g := t.gantt()
	modelLeft, ok := t.modelPosition(t.Model.From)
	if !ok {
		t.unresolve()
		return
	}
	modelRight := modelLeft
	if !t.Model.To.IsZero() {
		if modelRight, ok = t.modelPosition(t.Model.To); !ok {
			t.unresolve()
			return
		}
	}
	t.ModelLeft = modelLeft
	t.ModelWidth = modelRight - modelLeft
	t.resolved = true

	maxModelLeft := 0.0
	if last, ok := g.columns.LastColumn(); ok {
		maxModelLeft = last.Right()
	}
	if t.ModelLeft+t.ModelWidth < 0 || t.ModelLeft > maxModelLeft {
		t.hide()
		return
	}

	chartWidth := g.Width()
	t.Hidden = false
	t.Left = math.Min(math.Max(t.ModelLeft, 0), chartWidth)
	switch {
	case t.ModelLeft < 0:
		t.TruncatedLeft = true
		if t.ModelWidth+t.ModelLeft > chartWidth {
			t.TruncatedRight = true
			t.Width = chartWidth
		} else {
			t.TruncatedRight = false
			t.Width = t.ModelWidth + t.ModelLeft
		}
	case t.ModelWidth+t.ModelLeft > chartWidth:
		t.TruncatedLeft = false
		t.TruncatedRight = true
		t.Width = chartWidth - t.ModelLeft
	default:
		t.TruncatedLeft = false
		t.TruncatedRight = false
		t.Width = t.ModelWidth
	}

	if t.Width < 0 {
		t.Left += t.Width
		t.Width = -t.Width
	}
}

// modelPosition resolves a model date for geometry. Dates past the extended
// columns are extrapolated so the clamping step still sees them.
func (t *Task) modelPosition(date time.Time) (float64, bool) {
	g := t.gantt()
	if x, ok := g.PositionForDate(date, false); ok {
		return x, true
	}
	if date.IsZero() {
		return 0, false
	}
	return g.columns.PositionBeyond(date.In(g.location))
}

// unresolve drops the model geometry of a task whose dates have no position.
func (t *Task) unresolve() {
	t.resolved = false
	t.ModelLeft = 0
	t.ModelWidth = 0
	t.hide()
}

func (t *Task) hide() {
	t.Hidden = true
	t.Left = 0
	t.Width = 0
	t.TruncatedLeft = false
	t.TruncatedRight = false
}

// SetFrom moves the start of the task to position x.
// It reports false and leaves the model untouched when x cannot be resolved.
func (t *Task) SetFrom(x float64, magnet bool) bool {
	date, ok := t.gantt().DateForPosition(x, magnet, false)
	if !ok {
		return false
	}
	t.Model.From = date
	t.changed()
	return true
}

// SetTo moves the end of the task to position x.
func (t *Task) SetTo(x float64, magnet bool) bool {
	date, ok := t.gantt().DateForPosition(x, magnet, false)
	if !ok {
		return false
	}
	t.Model.To = date
	t.changed()
	return true
}

// MoveTo moves the task so its left edge lands at x while keeping its duration.
// Moving right snaps the end date, moving left snaps the start date; the
// other edge is derived from the duration. It reports false while the task
// has no resolved model geometry.
func (t *Task) MoveTo(x float64, magnet bool) bool {
	if !t.resolved {
		return false
	}
	g := t.gantt()
	duration := t.Model.Duration()
	var from, to time.Time
	if x > t.ModelLeft {
		end, ok := g.DateForPosition(x+t.ModelWidth, magnet, false)
		if !ok {
			return false
		}
		to = end
		from = end.Add(-duration)
	} else {
		start, ok := g.DateForPosition(x, magnet, false)
		if !ok {
			return false
		}
		from = start
		to = start.Add(duration)
	}
	t.Model.From = from
	if !t.Model.To.IsZero() {
		t.Model.To = to
	}
	t.changed()
	return true
}

// Clone returns a task sharing the row with a copy of the model.
// Its geometry is computed by the next UpdatePosAndSize.
func (t *Task) Clone() *Task {
	return newTask(t.row, t.Model)
}

func (t *Task) changed() {
	t.row.SetFromToByTask(t)
	t.UpdatePosAndSize()
	t.gantt().taskChanged(t)
}
