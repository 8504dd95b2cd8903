package gantt

import (
	"slices"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

// Row owns the tasks of one model row and tracks their date bounds.
type Row struct {
	rows  *RowsManager
	ID    string
	Name  string
	From  time.Time
	To    time.Time
	tasks []*Task
}

// Tasks returns the row's tasks in model order.
func (r *Row) Tasks() []*Task {
	return slices.Clone(r.tasks)
}

// Task returns the task with id.
func (r *Row) Task(id string) (*Task, bool) {
	for _, task := range r.tasks {
		if task.Model.ID == id {
			return task, true
		}
	}
	return nil, false
}

// Model rebuilds the row record from the live tasks.
func (r *Row) Model() domain.RowData {
	out := domain.RowData{ID: r.ID, Name: r.Name}
	for _, task := range r.tasks {
		out.Tasks = append(out.Tasks, task.Model)
	}
	return out
}

// SetFromToByTask re-derives the row bounds after task changed its dates.
func (r *Row) SetFromToByTask(_ *Task) {
	r.updateFromTo()
}

func (r *Row) updateFromTo() {
	r.From = time.Time{}
	r.To = time.Time{}
	for _, task := range r.tasks {
		from, to := taskBounds(task.Model)
		if from.IsZero() {
			continue
		}
		if r.From.IsZero() || from.Before(r.From) {
			r.From = from
		}
		if r.To.IsZero() || to.After(r.To) {
			r.To = to
		}
	}
}

// taskBounds returns the earlier and the later task date, treating a missing
// end as the start.
func taskBounds(task domain.TaskData) (time.Time, time.Time) {
	if task.To.IsZero() {
		return task.From, task.From
	}
	if task.To.Before(task.From) {
		return task.To, task.From
	}
	return task.From, task.To
}

// sync updates the row from data: tasks missing from data are destroyed,
// the others are updated or created in data order.
func (r *Row) sync(data domain.RowData) {
	r.Name = data.Name
	keep := make(map[string]struct{}, len(data.Tasks))
	for _, task := range data.Tasks {
		keep[task.ID] = struct{}{}
	}
	for _, task := range r.tasks {
		if _, ok := keep[task.Model.ID]; !ok {
			r.rows.raise(&r.rows.gantt.api.Directives.Destroy, DirectiveTask, task.Model.ID, r.ID)
		}
	}
	next := make([]*Task, 0, len(data.Tasks))
	for _, model := range data.Tasks {
		if task, ok := r.Task(model.ID); ok {
			task.Model = model
			next = append(next, task)
			continue
		}
		task := newTask(r, model)
		next = append(next, task)
		r.rows.created(DirectiveTask, model.ID, r.ID)
	}
	r.tasks = next
	r.updateFromTo()
}

// removeAllTasks destroys every task of the row.
func (r *Row) removeAllTasks() {
	for _, task := range r.tasks {
		r.rows.raise(&r.rows.gantt.api.Directives.Destroy, DirectiveTask, task.Model.ID, r.ID)
	}
	r.tasks = nil
	r.updateFromTo()
}
