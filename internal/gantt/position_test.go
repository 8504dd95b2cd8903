package gantt

import (
	"testing"
	"time"
)

func TestDateForPositionWithoutMagnet(t *testing.T) {
	g := newTestChart(t, nil, nil)
	got, ok := g.DateForPosition(29, false, true)
	if !ok {
		t.Fatal("expected position inside the chart to resolve")
	}
	if want := at(2, 5); !got.Equal(want) {
		t.Fatalf("DateForPosition(29) = %s, want %s", got, want)
	}
	got, ok = g.DateForPosition(240, false, true)
	if !ok || !got.Equal(day(11)) {
		t.Fatalf("DateForPosition(240) = %s, %v; want end of range", got, ok)
	}
}

func TestPositionDateRoundTrip(t *testing.T) {
	g := newTestChart(t, nil, nil)
	for x := 0.0; x <= 240; x += 7.5 {
		date, ok := g.DateForPosition(x, false, true)
		if !ok {
			t.Fatalf("DateForPosition(%v) unresolved", x)
		}
		pos, ok := g.PositionForDate(date, true)
		if !ok {
			t.Fatalf("PositionForDate(%s) unresolved", date)
		}
		col, _ := g.ColumnsManager().ColumnByPosition(x, true)
		if pos < col.Left || pos > col.Right() {
			t.Fatalf("round trip of %v landed at %v outside column [%v, %v]", x, pos, col.Left, col.Right())
		}
		if !approxEqual(pos, x) {
			t.Fatalf("round trip of %v = %v", x, pos)
		}
	}
}

func TestDateForPositionSnapsToColumnMagnet(t *testing.T) {
	g := newTestChart(t, nil, nil)
	got, _ := g.DateForPosition(29.3, true, true)
	if want := at(2, 5).Add(15 * time.Minute); !got.Equal(want) {
		t.Fatalf("DateForPosition(29.3, magnet) = %s, want %s", got, want)
	}
}

func TestPrecisionModifierSelectsShiftMagnet(t *testing.T) {
	g := newTestChart(t, nil, nil)
	g.SetModifierActive(true)
	got, _ := g.DateForPosition(29.3, true, true)
	if want := at(2, 6); !got.Equal(want) {
		t.Fatalf("expected quarter-day snap to %s, got %s", want, got)
	}
	if m := g.ActiveMagnet(); m.Value != 0.25 || m.Unit != "day" {
		t.Fatalf("expected default precision magnet, got %#v", m)
	}

	if err := g.UpdateOptions(func(o *Options) { o.ShiftColumnMagnet = "1 hours" }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	got, _ = g.DateForPosition(29.3, true, true)
	if want := at(2, 5); !got.Equal(want) {
		t.Fatalf("expected hour snap to %s, got %s", want, got)
	}

	g.SetModifierActive(false)
	if m := g.ActiveMagnet(); m.Value != 15 || m.Unit != "minutes" {
		t.Fatalf("expected column magnet once modifier released, got %#v", m)
	}
}

func TestColumnMagnetReparsedOnChange(t *testing.T) {
	g := newTestChart(t, nil, nil)
	if err := g.UpdateOptions(func(o *Options) { o.ColumnMagnet = "2 hours" }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	got, _ := g.DateForPosition(29.3, true, true)
	if want := at(2, 6); !got.Equal(want) {
		t.Fatalf("expected 2-hour snap to %s, got %s", want, got)
	}
	for _, raw := range []string{"", "15", "x minutes", "15 fortnights"} {
		if err := g.UpdateOptions(func(o *Options) { o.ColumnMagnet = raw }); err != nil {
			t.Fatalf("UpdateOptions(%q) error = %v", raw, err)
		}
		if g.ActiveMagnet().Enabled() {
			t.Fatalf("expected %q to disable the magnet", raw)
		}
		got, _ := g.DateForPosition(29.3, true, true)
		if want := at(2, 5).Add(18 * time.Minute); !got.Equal(want) {
			t.Fatalf("expected unsnapped %s, got %s", want, got)
		}
	}
}

func TestLookupsOutsideRange(t *testing.T) {
	g := newTestChart(t, nil, nil)
	if _, ok := g.DateForPosition(-5, false, true); ok {
		t.Fatal("expected negative position to be absent without expansion")
	}
	if _, ok := g.DateForPosition(300, false, true); ok {
		t.Fatal("expected position past the chart to be absent without expansion")
	}
	if _, ok := g.PositionForDate(day(20), true); ok {
		t.Fatal("expected date past the range to be absent without expansion")
	}

	got, ok := g.DateForPosition(-5, false, false)
	if want := time.Date(2024, time.February, 29, 19, 0, 0, 0, time.UTC); !ok || !got.Equal(want) {
		t.Fatalf("DateForPosition(-5) = %s, %v; want %s", got, ok, want)
	}
	got, ok = g.DateForPosition(250, false, false)
	if want := at(11, 10); !ok || !got.Equal(want) {
		t.Fatalf("DateForPosition(250) = %s, %v; want %s", got, ok, want)
	}
	pos, ok := g.PositionForDate(time.Date(2024, time.February, 28, 12, 0, 0, 0, time.UTC), false)
	if !ok || pos != -36 {
		t.Fatalf("PositionForDate(Feb 28 12:00) = %v, %v; want -36", pos, ok)
	}
	if _, ok := g.DateForPosition(-1e9, false, false); ok {
		t.Fatal("expected position beyond the extension cap to be absent")
	}
}

func TestPositionForDateRejectsZeroAndNormalizesLocation(t *testing.T) {
	g := newTestChart(t, nil, nil)
	if _, ok := g.PositionForDate(time.Time{}, false); ok {
		t.Fatal("expected zero time to be absent")
	}
	zone := time.FixedZone("UTC+2", 2*60*60)
	pos, ok := g.PositionForDate(time.Date(2024, time.March, 2, 7, 0, 0, 0, zone), true)
	if !ok || pos != 29 {
		t.Fatalf("PositionForDate(07:00+02:00) = %v, %v; want 29", pos, ok)
	}
}

func TestFitModeSharesElementWidth(t *testing.T) {
	g := newTestChart(t, nil, func(o *Options) { o.ColumnWidth = 0 })
	if g.Width() != 0 {
		t.Fatalf("expected zero width before measurement, got %v", g.Width())
	}
	g.Measured(40)
	g.SetWidth(280)
	if g.Width() != 240 {
		t.Fatalf("expected columns to share 240px beside the side panel, got %v", g.Width())
	}
	if cols := g.Columns(); cols[1].Left != 24 || cols[1].Width != 24 {
		t.Fatalf("unexpected fitted column %#v", cols[1])
	}
	if err := g.UpdateOptions(func(o *Options) { o.ShowSide = false }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	if g.Width() != 280 {
		t.Fatalf("expected hidden side to free its width, got %v", g.Width())
	}
}

func TestWeekViewStartsOnMonday(t *testing.T) {
	g := newTestChart(t, nil, func(o *Options) {
		o.ViewScale = "week"
		o.ToDate = day(14)
	})
	cols := g.Columns()
	if len(cols) != 3 {
		t.Fatalf("expected 3 week columns, got %d", len(cols))
	}
	if want := time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC); !cols[0].Date.Equal(want) {
		t.Fatalf("expected first week on %s, got %s", want, cols[0].Date)
	}
	if !cols[2].EndDate.Equal(day(18)) {
		t.Fatalf("expected last week to end on Mar 18, got %s", cols[2].EndDate)
	}
}

func TestViewScaleChangeRegeneratesColumns(t *testing.T) {
	g := newTestChart(t, nil, nil)
	if err := g.UpdateOptions(func(o *Options) { o.ViewScale = "hour" }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	if got := len(g.Columns()); got != 240 {
		t.Fatalf("expected 240 hour columns, got %d", got)
	}
	if err := g.UpdateOptions(func(o *Options) { o.ViewScale = "nope" }); err == nil {
		t.Fatal("expected invalid view scale to be rejected")
	}
	if g.Options().ViewScale != "hour" {
		t.Fatalf("expected rejected update to leave options untouched, got %q", g.Options().ViewScale)
	}
}
