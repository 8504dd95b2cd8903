package domain

import (
	"strings"
	"time"
)

// TaskData is the model record of one task bar.
type TaskData struct {
	ID       string    `json:"id" yaml:"id" toml:"id"`
	Name     string    `json:"name" yaml:"name" toml:"name"`
	From     time.Time `json:"from" yaml:"from" toml:"from"`
	To       time.Time `json:"to,omitzero" yaml:"to,omitempty" toml:"to"`
	Color    string    `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	Priority int       `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	Content  string    `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`
}

// IsMilestone reports whether the task has no end date or a zero duration.
func (t TaskData) IsMilestone() bool {
	return t.To.IsZero() || t.From.Equal(t.To)
}

// Duration returns To - From, or zero for milestones.
func (t TaskData) Duration() time.Duration {
	if t.To.IsZero() {
		return 0
	}
	return t.To.Sub(t.From)
}

// normalizeTask trims text fields and assigns a missing id. An end before the
// start is kept as is; positional edits produce such ranges and the geometry
// folds them into a positive width.
func normalizeTask(t TaskData, newID func() string) (TaskData, error) {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.Color = strings.TrimSpace(t.Color)
	t.Content = strings.TrimSpace(t.Content)
	if t.ID == "" && newID != nil {
		t.ID = strings.TrimSpace(newID())
	}
	if t.ID == "" {
		return TaskData{}, ErrInvalidID
	}
	return t, nil
}
