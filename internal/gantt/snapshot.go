package gantt

import (
	"time"

	"github.com/hylla/gantt/internal/domain"
)

// Snapshot is the computed geometry of the chart, ready for a presentation layer.
type Snapshot struct {
	ViewScale   domain.Unit      `json:"view_scale"`
	Width       float64          `json:"width"`
	SideWidth   float64          `json:"side_width"`
	ShowSide    bool             `json:"show_side"`
	From        time.Time        `json:"from,omitzero"`
	To          time.Time        `json:"to,omitzero"`
	Columns     []ColumnView     `json:"columns"`
	Rows        []RowView        `json:"rows"`
	CurrentDate *CurrentDateView `json:"current_date,omitempty"`
}

// ColumnView is the geometry of one visible column.
type ColumnView struct {
	Date    time.Time   `json:"date"`
	EndDate time.Time   `json:"end_date"`
	Left    float64     `json:"left"`
	Width   float64     `json:"width"`
	Frames  []FrameView `json:"frames,omitempty"`
}

// FrameView is an exposed calendar frame positioned inside its column.
type FrameView struct {
	Name    string  `json:"name"`
	Left    float64 `json:"left"`
	Width   float64 `json:"width"`
	Working *bool   `json:"working,omitempty"`
	Color   string  `json:"color,omitempty"`
}

// RowView is one visible row and its task geometry.
type RowView struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	From  time.Time  `json:"from,omitzero"`
	To    time.Time  `json:"to,omitzero"`
	Tasks []TaskView `json:"tasks"`
}

// TaskView is the model and geometry of one task.
type TaskView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to,omitzero"`
	Color          string    `json:"color,omitempty"`
	Priority       int       `json:"priority,omitempty"`
	Content        string    `json:"content,omitempty"`
	Left           float64   `json:"left"`
	Width          float64   `json:"width"`
	Hidden         bool      `json:"hidden"`
	Milestone      bool      `json:"milestone"`
	TruncatedLeft  bool      `json:"truncated_left"`
	TruncatedRight bool      `json:"truncated_right"`
}

// CurrentDateView is the resolved current date marker.
type CurrentDateView struct {
	Mode     CurrentDateMode `json:"mode"`
	Date     time.Time       `json:"date"`
	Position float64         `json:"position"`
}

// Snapshot captures the current geometry of the visible rows and columns.
func (g *Gantt) Snapshot() Snapshot {
	opts := g.store.current
	snap := Snapshot{
		ViewScale: opts.ViewScale,
		Width:     g.Width(),
		SideWidth: opts.SideWidth,
		ShowSide:  opts.ShowSide,
		Columns:   make([]ColumnView, 0, len(g.columns.columns)),
		Rows:      make([]RowView, 0, len(g.rows.visible)),
	}
	snap.From, snap.To, _ = g.columns.Range()
	for _, col := range g.columns.columns {
		view := ColumnView{Date: col.Date, EndDate: col.EndDate, Left: col.Left, Width: col.Width}
		for _, frame := range col.Frames {
			left := col.PositionForDate(frame.Start)
			view.Frames = append(view.Frames, FrameView{
				Name:    frame.Name,
				Left:    left,
				Width:   col.PositionForDate(frame.End) - left,
				Working: frame.Working,
				Color:   frame.Color,
			})
		}
		snap.Columns = append(snap.Columns, view)
	}
	for _, row := range g.rows.visible {
		view := RowView{ID: row.ID, Name: row.Name, From: row.From, To: row.To, Tasks: make([]TaskView, 0, len(row.tasks))}
		for _, task := range row.tasks {
			view.Tasks = append(view.Tasks, task.View())
		}
		snap.Rows = append(snap.Rows, view)
	}
	if marker := g.CurrentDate(); marker.Visible {
		snap.CurrentDate = &CurrentDateView{Mode: marker.Mode, Date: marker.Date, Position: marker.Position}
	}
	return snap
}

// View returns the model and geometry of the task.
func (t *Task) View() TaskView {
	return TaskView{
		ID:             t.Model.ID,
		Name:           t.Model.Name,
		From:           t.Model.From,
		To:             t.Model.To,
		Color:          t.Model.Color,
		Priority:       t.Model.Priority,
		Content:        t.Model.Content,
		Left:           t.Left,
		Width:          t.Width,
		Hidden:         t.Hidden,
		Milestone:      t.IsMilestone(),
		TruncatedLeft:  t.TruncatedLeft,
		TruncatedRight: t.TruncatedRight,
	}
}
