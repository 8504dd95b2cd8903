package gantt

import (
	"errors"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hylla/gantt/internal/domain"
)

// day returns midnight UTC of the given day in March 2024.
func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

// at returns the given day and hour in March 2024.
func at(d, h int) time.Time {
	return time.Date(2024, time.March, d, h, 0, 0, 0, time.UTC)
}

// sequenceIDs returns a deterministic id generator.
func sequenceIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

// newTestChart builds a chart covering March 1..10 with 24px day columns, so
// one pixel is one hour and the chart is 240px wide.
func newTestChart(t *testing.T, rows []domain.RowData, mutate func(*Options), extra ...Option) *Gantt {
	t.Helper()
	opts := DefaultOptions()
	opts.ColumnWidth = 24
	opts.FromDate = day(1)
	opts.ToDate = day(11)
	if mutate != nil {
		mutate(&opts)
	}
	all := []Option{
		WithOptions(opts),
		WithLogger(log.New(io.Discard)),
		WithClock(func() time.Time { return at(3, 12) }),
		WithIDGenerator(sequenceIDs()),
	}
	if rows != nil {
		all = append(all, WithData(rows))
	}
	all = append(all, extra...)
	g, err := New(all...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func mustTask(t *testing.T, g *Gantt, id string) *Task {
	t.Helper()
	task, ok := g.Task(id)
	if !ok {
		t.Fatalf("expected task %q", id)
	}
	return task
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.ViewScale != domain.UnitDay || opts.ColumnMagnet != "15 minutes" || opts.ShiftColumnMagnet != "" {
		t.Fatalf("unexpected scale/magnet defaults %#v", opts)
	}
	if !opts.ShowSide || !opts.AllowSideResizing {
		t.Fatal("expected side shown and resizable by default")
	}
	if opts.CurrentDate != CurrentDateLine || opts.AutoExpand != AutoExpandNone || opts.TaskOutOfRange != OutOfRangeTruncate {
		t.Fatalf("unexpected policy defaults %#v", opts)
	}
	if opts.MaxHeight != 0 || len(opts.TimeFrames) != 0 || len(opts.DateFrames) != 0 {
		t.Fatalf("unexpected height/frame defaults %#v", opts)
	}
	if opts.TimeFramesWorkingMode != FrameHidden || opts.TimeFramesNonWorkingMode != FrameVisible {
		t.Fatalf("unexpected frame mode defaults %#v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestNewBuildsColumns(t *testing.T) {
	g := newTestChart(t, nil, nil)
	if g.State() != StateWatching {
		t.Fatalf("expected watching state, got %s", g.State())
	}
	cols := g.Columns()
	if len(cols) != 10 {
		t.Fatalf("expected 10 day columns, got %d", len(cols))
	}
	if g.Width() != 240 {
		t.Fatalf("expected width 240, got %v", g.Width())
	}
	last, ok := g.ColumnsManager().LastColumn()
	if !ok || !last.Date.Equal(day(10)) || last.Left != 216 {
		t.Fatalf("unexpected last column %#v", last)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.ViewScale = "fortnight"
	if _, err := New(WithOptions(opts)); err == nil {
		t.Fatal("expected invalid view scale to fail")
	}
	opts = DefaultOptions()
	opts.FromDate = day(5)
	opts.ToDate = day(1)
	if _, err := New(WithOptions(opts)); err == nil {
		t.Fatal("expected inverted range to fail")
	}
}

func TestNewRejectsInvalidData(t *testing.T) {
	rows := []domain.RowData{
		{ID: "r1", Tasks: []domain.TaskData{{ID: "t1", From: day(2)}, {ID: "t1", From: day(3)}}},
	}
	if _, err := New(WithData(rows), WithLogger(log.New(io.Discard))); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestNewAssignsGeneratedIDs(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{Name: "row", Tasks: []domain.TaskData{{Name: "task", From: day(2), To: day(3)}}}}, nil)
	data := g.Data()
	if len(data) != 1 || data[0].ID != "gen-1" || data[0].Tasks[0].ID != "gen-2" {
		t.Fatalf("expected generated ids, got %#v", data)
	}
}
