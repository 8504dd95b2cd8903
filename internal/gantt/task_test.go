package gantt

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

func geometryRows() []domain.RowData {
	feb := func(d int) time.Time { return time.Date(2024, time.February, d, 0, 0, 0, 0, time.UTC) }
	return []domain.RowData{{
		ID:   "r1",
		Name: "Geometry",
		Tasks: []domain.TaskData{
			{ID: "inside", From: day(2), To: at(3, 12)},
			{ID: "left", From: feb(28), To: day(2)},
			{ID: "right", From: day(10), To: day(13)},
			{ID: "both", From: feb(28), To: day(13)},
			{ID: "before", From: feb(20), To: feb(21)},
			{ID: "after", From: day(15), To: day(16)},
			{ID: "milestone", From: day(5)},
		},
	}}
}

func TestUpdatePosAndSize(t *testing.T) {
	g := newTestChart(t, geometryRows(), nil)
	cases := []struct {
		id             string
		hidden         bool
		left, width    float64
		truncL, truncR bool
	}{
		{id: "inside", left: 24, width: 36},
		{id: "left", left: 0, width: 24, truncL: true},
		{id: "right", left: 216, width: 24, truncR: true},
		{id: "both", left: 0, width: 240, truncL: true, truncR: true},
		{id: "before", hidden: true},
		{id: "after", hidden: true},
		{id: "milestone", left: 96, width: 0},
	}
	for _, tc := range cases {
		task := mustTask(t, g, tc.id)
		left, width, ok := task.Geometry()
		if tc.hidden {
			if ok || !task.Hidden {
				t.Fatalf("%s: expected hidden task, got left=%v width=%v", tc.id, left, width)
			}
			continue
		}
		if !ok {
			t.Fatalf("%s: expected visible task", tc.id)
		}
		if left != tc.left || width != tc.width {
			t.Fatalf("%s: geometry = (%v, %v), want (%v, %v)", tc.id, left, width, tc.left, tc.width)
		}
		if task.TruncatedLeft != tc.truncL || task.TruncatedRight != tc.truncR {
			t.Fatalf("%s: truncation = (%v, %v), want (%v, %v)", tc.id, task.TruncatedLeft, task.TruncatedRight, tc.truncL, tc.truncR)
		}
	}
	left := mustTask(t, g, "left")
	if left.ModelLeft != -48 || left.ModelWidth != 72 {
		t.Fatalf("expected unclamped model geometry (-48, 72), got (%v, %v)", left.ModelLeft, left.ModelWidth)
	}
}

func TestGeometryInvariantsHoldForRandomTasks(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tasks := make([]domain.TaskData, 0, 200)
	for i := range 200 {
		from := day(1).Add(time.Duration(rng.IntN(40*24)-15*24) * time.Hour)
		to := from.Add(time.Duration(rng.IntN(20*24)) * time.Hour)
		tasks = append(tasks, domain.TaskData{ID: fmt.Sprintf("t%d", i), From: from, To: to})
	}
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: tasks}}, nil)
	width := g.Width()
	for _, task := range g.RowsManager().Rows()[0].Tasks() {
		outside := task.ModelLeft+task.ModelWidth < 0 || task.ModelLeft > width
		if outside != task.Hidden {
			t.Fatalf("task %s: outside=%v hidden=%v (model %v+%v)", task.ID(), outside, task.Hidden, task.ModelLeft, task.ModelWidth)
		}
		if task.Hidden {
			continue
		}
		if task.Width < 0 {
			t.Fatalf("task %s: negative width %v", task.ID(), task.Width)
		}
		inside := task.ModelLeft >= 0 && task.ModelLeft+task.ModelWidth <= width
		if inside && (task.TruncatedLeft || task.TruncatedRight) {
			t.Fatalf("task %s: inside the chart but truncated", task.ID())
		}
		if task.Left < 0 || task.Left+task.Width > width+1e-9 {
			t.Fatalf("task %s: geometry (%v, %v) escapes [0, %v]", task.ID(), task.Left, task.Width, width)
		}
	}
}

func TestSetToBeforeFromCorrectsNegativeWidth(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: day(5), To: day(6)}}}}, nil)
	task := mustTask(t, g, "t")
	if !task.SetTo(72, false) {
		t.Fatal("SetTo() unresolved")
	}
	if !task.Model.To.Equal(day(4)) {
		t.Fatalf("expected to date Mar 4, got %s", task.Model.To)
	}
	if task.ModelWidth != -24 {
		t.Fatalf("expected negative model width, got %v", task.ModelWidth)
	}
	if task.Left != 72 || task.Width != 24 {
		t.Fatalf("expected corrected geometry (72, 24), got (%v, %v)", task.Left, task.Width)
	}
}

func TestSetFromAndSetTo(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: day(5), To: day(6)}}}}, nil)
	task := mustTask(t, g, "t")
	var changed []*Task
	g.API().Tasks.Change.On(func(t *Task) { changed = append(changed, t) })

	if !task.SetFrom(29.3, true) {
		t.Fatal("SetFrom() unresolved")
	}
	if want := at(2, 5).Add(15 * time.Minute); !task.Model.From.Equal(want) {
		t.Fatalf("expected snapped from %s, got %s", want, task.Model.From)
	}
	if !task.Row().From.Equal(task.Model.From) {
		t.Fatalf("expected row bounds to follow the task, got %s", task.Row().From)
	}
	if !task.SetTo(200, false) {
		t.Fatal("SetTo() unresolved")
	}
	if want := at(9, 8); !task.Model.To.Equal(want) {
		t.Fatalf("expected to %s, got %s", want, task.Model.To)
	}
	if task.Left != 29.25 || task.Width != 200-29.25 {
		t.Fatalf("unexpected geometry (%v, %v)", task.Left, task.Width)
	}
	if len(changed) != 2 || changed[0] != task {
		t.Fatalf("expected 2 tasks.change events, got %d", len(changed))
	}
	if got := g.Data()[0].Tasks[0]; !got.From.Equal(task.Model.From) || !got.To.Equal(task.Model.To) {
		t.Fatalf("expected bound data to reflect the mutation, got %#v", got)
	}

	before := task.Model
	if task.SetFrom(-1e9, false) {
		t.Fatal("expected unresolvable SetFrom to report false")
	}
	if task.Model != before {
		t.Fatal("expected unresolvable SetFrom to leave the model untouched")
	}
}

func TestMoveToPreservesDuration(t *testing.T) {
	from := at(2, 3)
	to := at(4, 10)
	duration := to.Sub(from)
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: from, To: to}}}}, nil)
	task := mustTask(t, g, "t")

	if !task.MoveTo(100.3, true) {
		t.Fatal("MoveTo(right) unresolved")
	}
	if got := task.Model.To.Sub(task.Model.From); got != duration {
		t.Fatalf("right move changed duration to %s, want %s", got, duration)
	}
	if want := at(7, 11).Add(15 * time.Minute); !task.Model.To.Equal(want) {
		t.Fatalf("expected the end to drive a right move to %s, got %s", want, task.Model.To)
	}

	if !task.MoveTo(10.7, true) {
		t.Fatal("MoveTo(left) unresolved")
	}
	if got := task.Model.To.Sub(task.Model.From); got != duration {
		t.Fatalf("left move changed duration to %s, want %s", got, duration)
	}
	if want := at(1, 10).Add(45 * time.Minute); !task.Model.From.Equal(want) {
		t.Fatalf("expected the start to drive a left move to %s, got %s", want, task.Model.From)
	}

	for _, x := range []float64{-30, 0, 13.37, 120, 239, 500} {
		if !task.MoveTo(x, x > 100) {
			t.Fatalf("MoveTo(%v) unresolved", x)
		}
		if got := task.Model.To.Sub(task.Model.From); got != duration {
			t.Fatalf("MoveTo(%v) changed duration to %s", x, got)
		}
	}
}

func TestMoveToKeepsMilestoneOpenEnded(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "m", From: day(3)}}}}, nil)
	task := mustTask(t, g, "m")
	if !task.MoveTo(100, false) {
		t.Fatal("MoveTo() unresolved")
	}
	if !task.Model.From.Equal(at(5, 4)) || !task.Model.To.IsZero() {
		t.Fatalf("unexpected milestone model %#v", task.Model)
	}
	if !task.IsMilestone() {
		t.Fatal("expected task to stay a milestone")
	}
}

func TestIsMilestone(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{
		{ID: "open", From: day(2)},
		{ID: "zero", From: day(2), To: day(2)},
		{ID: "bar", From: day(2), To: at(2, 1)},
	}}}, nil)
	if !mustTask(t, g, "open").IsMilestone() || !mustTask(t, g, "zero").IsMilestone() {
		t.Fatal("expected open-ended and zero-length tasks to be milestones")
	}
	if mustTask(t, g, "bar").IsMilestone() {
		t.Fatal("expected a task with positive duration not to be a milestone")
	}
}

func TestCloneCopiesModel(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: day(2), To: day(3)}}}}, nil)
	task := mustTask(t, g, "t")
	clone := task.Clone()
	if clone.Row() != task.Row() {
		t.Fatal("expected clone to share the row")
	}
	clone.Model.From = day(1)
	clone.Model.Name = "changed"
	if !task.Model.From.Equal(day(2)) || task.Model.Name != "" {
		t.Fatalf("expected original untouched, got %#v", task.Model)
	}
	clone.UpdatePosAndSize()
	if clone.Left != 0 || clone.Width != 48 {
		t.Fatalf("unexpected clone geometry (%v, %v)", clone.Left, clone.Width)
	}
}

func TestAutoExpandGrowsRange(t *testing.T) {
	rows := []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: day(9), To: day(10)}}}}
	fixed := newTestChart(t, rows, nil)
	if !mustTask(t, fixed, "t").SetTo(260, false) {
		t.Fatal("SetTo() unresolved")
	}
	if got := len(fixed.Columns()); got != 10 {
		t.Fatalf("expected no expansion without policy, got %d columns", got)
	}

	g := newTestChart(t, rows, func(o *Options) { o.AutoExpand = AutoExpandRight })
	task := mustTask(t, g, "t")
	if !task.SetTo(260, false) {
		t.Fatal("SetTo() unresolved")
	}
	if got := len(g.Columns()); got != 11 {
		t.Fatalf("expected range to grow by one day, got %d columns", got)
	}
	if task.TruncatedRight {
		t.Fatal("expected the expanded range to fit the task")
	}
	if !task.SetFrom(-30, false) {
		t.Fatal("SetFrom() unresolved")
	}
	if got := len(g.Columns()); got != 11 {
		t.Fatalf("expected right-only policy to ignore the left side, got %d columns", got)
	}
}

func TestTaskOutOfRangeExpand(t *testing.T) {
	rows := []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC), To: day(2)}}}}
	g := newTestChart(t, rows, func(o *Options) { o.TaskOutOfRange = OutOfRangeExpand })
	cols := g.Columns()
	if len(cols) != 12 || !cols[0].Date.Equal(time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected range widened to Feb 28, got %d columns from %s", len(cols), cols[0].Date)
	}
	task := mustTask(t, g, "t")
	if task.TruncatedLeft || task.Left != 0 || task.Width != 72 {
		t.Fatalf("unexpected geometry (%v, %v, truncated=%v)", task.Left, task.Width, task.TruncatedLeft)
	}
}

func TestRangeFollowsTasksWithoutDates(t *testing.T) {
	rows := []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: at(3, 6), To: at(5, 18)}}}}
	g := newTestChart(t, rows, func(o *Options) {
		o.FromDate = time.Time{}
		o.ToDate = time.Time{}
	})
	cols := g.Columns()
	if len(cols) != 3 || !cols[0].Date.Equal(day(3)) || !cols[2].EndDate.Equal(day(6)) {
		t.Fatalf("expected Mar 3..5, got %d columns", len(cols))
	}
	g.Clear()
	if len(g.Columns()) != 0 {
		t.Fatal("expected no columns without data or range")
	}
}

func TestFarOutOfRangeTasksClampOntoChart(t *testing.T) {
	long := func(y int) time.Time { return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC) }
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{
		{ID: "from-past", From: long(2010), To: day(5)},
		{ID: "into-future", From: day(5), To: long(2040)},
		{ID: "spanning", From: long(2010), To: long(2040)},
		{ID: "long-ago", From: long(2010), To: long(2011)},
	}}}, nil)

	cases := []struct {
		id             string
		left, width    float64
		truncL, truncR bool
	}{
		{id: "from-past", left: 0, width: 96, truncL: true},
		{id: "into-future", left: 96, width: 144, truncR: true},
		{id: "spanning", left: 0, width: 240, truncL: true, truncR: true},
	}
	for _, tc := range cases {
		task := mustTask(t, g, tc.id)
		left, width, ok := task.Geometry()
		if !ok {
			t.Fatalf("%s: expected visible task", tc.id)
		}
		if left != tc.left || width != tc.width {
			t.Fatalf("%s: geometry = (%v, %v), want (%v, %v)", tc.id, left, width, tc.left, tc.width)
		}
		if task.TruncatedLeft != tc.truncL || task.TruncatedRight != tc.truncR {
			t.Fatalf("%s: truncation = (%v, %v), want (%v, %v)", tc.id, task.TruncatedLeft, task.TruncatedRight, tc.truncL, tc.truncR)
		}
	}
	if past := mustTask(t, g, "from-past"); past.ModelLeft >= -24*maxExtendedColumns {
		t.Fatalf("expected model left past the extended columns, got %v", past.ModelLeft)
	}
	if task := mustTask(t, g, "long-ago"); !task.Hidden {
		t.Fatalf("expected a task wholly before the chart to stay hidden, got (%v, %v)", task.Left, task.Width)
	}
}

func TestMoveToRequiresResolvedGeometry(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: day(2), To: day(3)}}}}, nil)
	task := mustTask(t, g, "t")
	if !task.resolved {
		t.Fatal("expected resolved geometry for a dated task")
	}

	task.Model.From = time.Time{}
	task.UpdatePosAndSize()
	if task.resolved || task.ModelLeft != 0 || task.ModelWidth != 0 {
		t.Fatalf("expected cleared model geometry, got (%v, %v)", task.ModelLeft, task.ModelWidth)
	}
	if task.MoveTo(48, false) {
		t.Fatal("expected MoveTo to refuse an unresolved task")
	}
	if !task.Model.To.Equal(day(3)) {
		t.Fatalf("expected the model untouched, got %#v", task.Model)
	}
}

func TestEditedEndBeforeStartReloads(t *testing.T) {
	g := newTestChart(t, []domain.RowData{{ID: "r", Tasks: []domain.TaskData{{ID: "t", From: day(2), To: day(3)}}}}, nil)
	if !mustTask(t, g, "t").SetFrom(120, false) {
		t.Fatal("SetFrom() unresolved")
	}
	if err := g.SetData(g.Data()); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	task := mustTask(t, g, "t")
	if !task.Model.From.Equal(day(6)) || !task.Model.To.Equal(day(3)) {
		t.Fatalf("expected the edited range to survive, got %s..%s", task.Model.From, task.Model.To)
	}
	if left, width, ok := task.Geometry(); !ok || left != 48 || width != 72 {
		t.Fatalf("expected folded geometry (48, 72), got (%v, %v, %v)", left, width, ok)
	}
	row := task.Row()
	if !row.From.Equal(day(3)) || !row.To.Equal(day(6)) {
		t.Fatalf("expected ordered row bounds, got %s..%s", row.From, row.To)
	}
}
