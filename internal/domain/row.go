package domain

import (
	"fmt"
	"strings"
)

// RowData is the model record of one chart row and the tasks it owns.
type RowData struct {
	ID    string     `json:"id" yaml:"id" toml:"id"`
	Name  string     `json:"name" yaml:"name" toml:"name"`
	Tasks []TaskData `json:"tasks,omitempty" yaml:"tasks,omitempty" toml:"tasks,omitempty"`
}

// Clone deep-copies the row including its task list.
func (r RowData) Clone() RowData {
	out := r
	if r.Tasks != nil {
		out.Tasks = append([]TaskData(nil), r.Tasks...)
	}
	return out
}

// CloneRows deep-copies a row collection. A nil input stays nil.
func CloneRows(rows []RowData) []RowData {
	if rows == nil {
		return nil
	}
	out := make([]RowData, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

// NormalizeRows validates a row collection, trims text fields and assigns
// generated ids to rows and tasks that have none. Ids must be unique per kind.
func NormalizeRows(rows []RowData, newID func() string) ([]RowData, error) {
	out := make([]RowData, 0, len(rows))
	seenRows := map[string]struct{}{}
	seenTasks := map[string]struct{}{}
	for idx, row := range rows {
		row = row.Clone()
		row.ID = strings.TrimSpace(row.ID)
		row.Name = strings.TrimSpace(row.Name)
		if row.ID == "" && newID != nil {
			row.ID = strings.TrimSpace(newID())
		}
		if row.ID == "" {
			return nil, fmt.Errorf("rows[%d]: %w", idx, ErrInvalidID)
		}
		if _, ok := seenRows[row.ID]; ok {
			return nil, fmt.Errorf("row %q: %w", row.ID, ErrDuplicateID)
		}
		seenRows[row.ID] = struct{}{}
		for tIdx, task := range row.Tasks {
			normalized, err := normalizeTask(task, newID)
			if err != nil {
				return nil, fmt.Errorf("row %q tasks[%d]: %w", row.ID, tIdx, err)
			}
			if _, ok := seenTasks[normalized.ID]; ok {
				return nil, fmt.Errorf("row %q task %q: %w", row.ID, normalized.ID, ErrDuplicateID)
			}
			seenTasks[normalized.ID] = struct{}{}
			row.Tasks[tIdx] = normalized
		}
		out = append(out, row)
	}
	return out, nil
}

// IndexOfRow returns the position of the row with id, or -1.
func IndexOfRow(rows []RowData, id string) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// IndexOfTask returns the position of the task with id, or -1.
func IndexOfTask(tasks []TaskData, id string) int {
	for i, task := range tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

// RemovedRowIDs lists ids present in oldRows but missing from newRows, in old order.
func RemovedRowIDs(newRows, oldRows []RowData) []string {
	present := make(map[string]struct{}, len(newRows))
	for _, row := range newRows {
		present[row.ID] = struct{}{}
	}
	var out []string
	for _, row := range oldRows {
		if _, ok := present[row.ID]; !ok {
			out = append(out, row.ID)
		}
	}
	return out
}
