package gantt

import (
	"slices"
	"testing"

	"github.com/hylla/gantt/internal/domain"
)

func threeRows() []domain.RowData {
	return []domain.RowData{
		{ID: "r1", Name: "One", Tasks: []domain.TaskData{{ID: "t1", From: day(2), To: day(3)}}},
		{ID: "r2", Name: "Two", Tasks: []domain.TaskData{{ID: "t2", From: day(3), To: day(4)}, {ID: "t3", From: day(4), To: day(6)}}},
		{ID: "r3", Name: "Three"},
	}
}

type dataEvents struct {
	changes []DataChange
	loads   int
	removes [][]domain.RowData
	clears  int
}

func watchData(g *Gantt) *dataEvents {
	ev := &dataEvents{}
	api := g.API()
	api.Data.Change.On(func(c DataChange) { ev.changes = append(ev.changes, c) })
	api.Data.Loaded.On(func([]domain.RowData) { ev.loads++ })
	api.Data.Removed.On(func(rows []domain.RowData) { ev.removes = append(ev.removes, rows) })
	api.Data.Cleared.On(func(struct{}) { ev.clears++ })
	return ev
}

func rowIDs(rows []*Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out
}

func TestRemovingEveryRowRaisesSingleClear(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	ev := watchData(g)
	if err := g.SetData([]domain.RowData{}); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if ev.clears != 1 || len(ev.removes) != 0 {
		t.Fatalf("expected exactly one clear and no removes, got clears=%d removes=%d", ev.clears, len(ev.removes))
	}
	if len(g.RowsManager().Rows()) != 0 {
		t.Fatal("expected every row removed")
	}
	if ev.loads != 1 || len(ev.changes) != 1 || len(ev.changes[0].Old) != 3 {
		t.Fatalf("expected change/load after clear, got %#v", ev)
	}
}

func TestPartialRemovalRaisesRemove(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	ev := watchData(g)
	if err := g.SetData(threeRows()[:1]); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if ev.clears != 0 || len(ev.removes) != 1 {
		t.Fatalf("expected one remove event, got clears=%d removes=%d", ev.clears, len(ev.removes))
	}
	removed := ev.removes[0]
	if len(removed) != 2 || removed[0].ID != "r2" || removed[1].ID != "r3" {
		t.Fatalf("unexpected removed rows %#v", removed)
	}
	if _, ok := g.Task("t2"); ok {
		t.Fatal("expected tasks of removed rows to be gone")
	}
}

func TestEmptyPreviousCollectionDoesNotClear(t *testing.T) {
	g := newTestChart(t, []domain.RowData{}, nil)
	ev := watchData(g)
	if err := g.SetData(threeRows()); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if ev.clears != 0 || len(ev.removes) != 0 {
		t.Fatalf("expected no removal signals, got clears=%d removes=%d", ev.clears, len(ev.removes))
	}
}

func TestRowOrderChangeRebuildsIndexes(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	rows := threeRows()
	reordered := []domain.RowData{rows[2], rows[0], rows[1]}
	if err := g.SetData(reordered); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	want := []string{"r3", "r1", "r2"}
	if got := rowIDs(g.RowsManager().Rows()); !slices.Equal(got, want) {
		t.Fatalf("Rows() = %v, want %v", got, want)
	}
	if got := rowIDs(g.RowsManager().VisibleRows()); !slices.Equal(got, want) {
		t.Fatalf("VisibleRows() = %v, want %v", got, want)
	}
}

func TestRowsManagerFilterAndSort(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	rm := g.RowsManager()
	rm.SetSort(func(a, b *Row) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	if got := rowIDs(rm.SortedRows()); !slices.Equal(got, []string{"r1", "r3", "r2"}) {
		t.Fatalf("SortedRows() = %v", got)
	}
	rm.SetFilter(func(r *Row) bool { return len(r.Tasks()) > 0 })
	if got := rowIDs(rm.VisibleRows()); !slices.Equal(got, []string{"r1", "r2"}) {
		t.Fatalf("VisibleRows() = %v", got)
	}
	if got := rowIDs(rm.Rows()); !slices.Equal(got, []string{"r1", "r2", "r3"}) {
		t.Fatalf("expected model order untouched, got %v", got)
	}
}

func TestLoadUpsertsByID(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	ev := watchData(g)
	err := g.API().Data.Load(
		domain.RowData{ID: "r2", Name: "Two renamed", Tasks: []domain.TaskData{{ID: "t2", From: day(5), To: day(7)}}},
		domain.RowData{ID: "r4", Name: "Four"},
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	data := g.Data()
	if len(data) != 4 || data[1].Name != "Two renamed" || data[3].ID != "r4" {
		t.Fatalf("unexpected data after load %#v", data)
	}
	if _, ok := g.Task("t3"); ok {
		t.Fatal("expected replaced row to drop its missing task")
	}
	task := mustTask(t, g, "t2")
	if task.Left != 96 || task.Width != 48 {
		t.Fatalf("expected updated geometry (96, 48), got (%v, %v)", task.Left, task.Width)
	}
	if len(ev.removes) != 0 || ev.clears != 0 || ev.loads != 1 {
		t.Fatalf("unexpected events %#v", ev)
	}
}

func TestLoadRejectsDuplicateTaskAcrossRows(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	err := g.Load(domain.RowData{ID: "r4", Tasks: []domain.TaskData{{ID: "t1", From: day(2)}}})
	if err == nil {
		t.Fatal("expected duplicate task id to be rejected")
	}
	if len(g.Data()) != 3 {
		t.Fatal("expected rejected load to leave data untouched")
	}
}

func TestLoadWithoutBoundData(t *testing.T) {
	g := newTestChart(t, nil, nil)
	if g.Data() != nil {
		t.Fatal("expected no bound data")
	}
	if err := g.Load(domain.RowData{Name: "New", Tasks: []domain.TaskData{{From: day(2)}}}, domain.RowData{Name: "Other"}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	data := g.Data()
	if len(data) != 2 || data[0].ID == "" || data[1].ID == "" || data[0].ID == data[1].ID {
		t.Fatalf("expected two rows with distinct generated ids, got %#v", data)
	}
}

func TestRemoveRowsAndTasks(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	ev := watchData(g)
	if err := g.API().Data.Remove(domain.RowData{ID: "r2", Tasks: []domain.TaskData{{ID: "t3"}}}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := g.Task("t3"); ok {
		t.Fatal("expected task t3 removed")
	}
	if _, ok := g.Task("t2"); !ok {
		t.Fatal("expected task t2 kept")
	}
	if len(ev.removes) != 0 {
		t.Fatal("expected task-only removal not to raise data.remove")
	}
	if err := g.Remove(domain.RowData{ID: "r1"}, domain.RowData{ID: "missing"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(ev.removes) != 1 || len(ev.removes[0]) != 1 || ev.removes[0][0].ID != "r1" {
		t.Fatalf("expected r1 removal event, got %#v", ev.removes)
	}
	if got := len(g.Data()); got != 2 {
		t.Fatalf("expected 2 rows left, got %d", got)
	}
}

func TestClearUnbindsData(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	ev := watchData(g)
	g.API().Data.Clear()
	if g.API().Data.Get() != nil {
		t.Fatal("expected no bound data after clear")
	}
	if ev.clears != 1 || ev.loads != 0 || len(ev.changes) != 0 {
		t.Fatalf("expected only a clear event, got %#v", ev)
	}
	g.Clear()
	if ev.clears != 1 {
		t.Fatal("expected clearing unbound data to stay silent")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	g := newTestChart(t, threeRows(), nil)
	data := g.Data()
	data[0].Tasks[0].Name = "mutated"
	if g.Data()[0].Tasks[0].Name == "mutated" {
		t.Fatal("expected Data() to return a deep copy")
	}
}

func TestDirectiveEvents(t *testing.T) {
	var created, linked, destroyed []DirectiveEvent
	var preLinked int
	g := newTestChart(t, nil, nil, WithAPIHandler(func(api *API) {
		api.Directives.New.On(func(e DirectiveEvent) { created = append(created, e) })
		api.Directives.PreLink.On(func(DirectiveEvent) { preLinked++ })
		api.Directives.PostLink.On(func(e DirectiveEvent) { linked = append(linked, e) })
		api.Directives.Destroy.On(func(e DirectiveEvent) { destroyed = append(destroyed, e) })
	}))
	if err := g.SetData(threeRows()); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if len(created) != 6 || preLinked != 6 || len(linked) != 6 {
		t.Fatalf("expected 3 rows and 3 tasks created and linked, got %d/%d/%d", len(created), preLinked, len(linked))
	}
	if created[0] != (DirectiveEvent{Kind: DirectiveRow, ID: "r1", RowID: "r1"}) || created[1] != (DirectiveEvent{Kind: DirectiveTask, ID: "t1", RowID: "r1"}) {
		t.Fatalf("unexpected creation order %#v", created[:2])
	}
	if err := g.Remove(domain.RowData{ID: "r2"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(destroyed) != 3 || destroyed[2] != (DirectiveEvent{Kind: DirectiveRow, ID: "r2", RowID: "r2"}) {
		t.Fatalf("expected tasks then row destroyed, got %#v", destroyed)
	}
}

func TestEventOffStopsDelivery(t *testing.T) {
	var ev Event[int]
	var got []int
	off := ev.On(func(v int) { got = append(got, v) })
	ev.On(func(v int) { got = append(got, v*10) })
	ev.raise(1)
	off()
	off()
	ev.raise(2)
	if !slices.Equal(got, []int{1, 10, 20}) {
		t.Fatalf("unexpected deliveries %v", got)
	}
}
