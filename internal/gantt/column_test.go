package gantt

import (
	"testing"
	"time"

	"github.com/hylla/gantt/internal/calendar"
)

func boolPtr(v bool) *bool {
	return &v
}

// officeHours marks 06:00-18:00 as working and the rest of the day as non-working.
func officeHours() []calendar.TimeFrame {
	return []calendar.TimeFrame{
		{Name: "night", End: "06:00", Working: boolPtr(false), Default: true},
		{Name: "office", Start: "06:00", End: "18:00", Working: boolPtr(true), Default: true},
		{Name: "evening", Start: "18:00", Working: boolPtr(false), Default: true},
	}
}

func TestCroppedNonWorkingTimeIsRemovedFromMapping(t *testing.T) {
	g := newTestChart(t, nil, func(o *Options) {
		o.TimeFrames = officeHours()
		o.TimeFramesNonWorkingMode = FrameCropped
	})
	col := g.Columns()[0]
	if len(col.Frames) != 0 {
		t.Fatalf("expected hidden working and cropped non-working frames to stay unexposed, got %#v", col.Frames)
	}
	segs := col.Segments()
	if len(segs) != 3 || !segs[0].Cropped || segs[1].Cropped || !segs[2].Cropped {
		t.Fatalf("unexpected segments %#v", segs)
	}
	if segs[1].Width != 24 || segs[0].Width != 0 {
		t.Fatalf("expected open segment to take the whole column, got %#v", segs)
	}

	cases := []struct {
		x    float64
		want time.Time
	}{
		{x: 0, want: at(1, 6)},
		{x: 12, want: at(1, 12)},
		{x: 30, want: at(2, 9)},
	}
	for _, tc := range cases {
		got, ok := g.DateForPosition(tc.x, false, true)
		if !ok || !got.Equal(tc.want) {
			t.Fatalf("DateForPosition(%v) = %s, want %s", tc.x, got, tc.want)
		}
	}
	if pos, _ := g.PositionForDate(at(1, 3), true); pos != 0 {
		t.Fatalf("expected cropped night to collapse onto the column start, got %v", pos)
	}
	if pos, _ := g.PositionForDate(at(1, 20), true); pos != 24 {
		t.Fatalf("expected cropped evening to collapse onto the column end, got %v", pos)
	}
	if pos, _ := g.PositionForDate(at(1, 9), true); pos != 6 {
		t.Fatalf("expected 09:00 at 6px, got %v", pos)
	}
}

func TestVisibleFramesAreExposed(t *testing.T) {
	g := newTestChart(t, nil, func(o *Options) {
		o.TimeFrames = officeHours()
	})
	col := g.Columns()[0]
	if len(col.Frames) != 2 || col.Frames[0].Name != "night" || col.Frames[1].Name != "evening" {
		t.Fatalf("expected non-working frames exposed, got %#v", col.Frames)
	}
	if got, _ := g.DateForPosition(3, false, true); !got.Equal(at(1, 3)) {
		t.Fatalf("expected linear mapping without cropping, got %s", got)
	}

	if err := g.UpdateOptions(func(o *Options) { o.TimeFramesWorkingMode = FrameVisible }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	if got := len(g.Columns()[0].Frames); got != 3 {
		t.Fatalf("expected working frame exposed too, got %d frames", got)
	}
}

func TestFullyCroppedColumnsCollapse(t *testing.T) {
	g := newTestChart(t, nil, func(o *Options) {
		o.TimeFrames = []calendar.TimeFrame{{Name: "off", Working: boolPtr(false)}}
		o.DateFrames = []calendar.DateFrame{{Name: "weekend", Weekdays: []string{"saturday", "sunday"}, Targets: []string{"off"}}}
		o.TimeFramesNonWorkingMode = FrameCropped
	})
	cols := g.Columns()
	if !cols[1].Cropped() || cols[1].Width != 0 || cols[2].Width != 0 {
		t.Fatalf("expected the weekend of Mar 2-3 to collapse, got %#v %#v", cols[1], cols[2])
	}
	if cols[3].Left != 24 || g.Width() != 144 {
		t.Fatalf("expected Monday at 24px and two collapsed weekends, got %v and %v", cols[3].Left, g.Width())
	}
	got, ok := g.DateForPosition(24, false, true)
	if !ok || !got.Equal(day(4)) {
		t.Fatalf("expected position 24 to resolve to Monday, got %s", got)
	}
}

func TestFrameOptionChangeReregistersCalendar(t *testing.T) {
	g := newTestChart(t, nil, nil)
	if len(g.Columns()[0].Frames) != 0 {
		t.Fatal("expected no frames before registration")
	}
	if err := g.UpdateOptions(func(o *Options) { o.TimeFrames = officeHours() }); err != nil {
		t.Fatalf("UpdateOptions() error = %v", err)
	}
	if got := len(g.Columns()[0].Frames); got != 2 {
		t.Fatalf("expected frames after option change, got %d", got)
	}
	err := g.UpdateOptions(func(o *Options) {
		o.TimeFrames = []calendar.TimeFrame{{Name: "bad", Start: "9"}}
	})
	if err == nil {
		t.Fatal("expected invalid frame to be rejected")
	}
	if got := len(g.Columns()[0].Frames); got != 2 {
		t.Fatalf("expected rejected option to keep frames, got %d", got)
	}
}

func TestTimeframesAPIRegistersDirectly(t *testing.T) {
	g := newTestChart(t, nil, func(o *Options) { o.TimeFramesNonWorkingMode = FrameCropped })
	api := g.API().Timeframes
	if err := api.RegisterTimeFrames(officeHours()); err != nil {
		t.Fatalf("RegisterTimeFrames() error = %v", err)
	}
	if got, _ := g.DateForPosition(0, false, true); !got.Equal(at(1, 6)) {
		t.Fatalf("expected cropped mapping after registration, got %s", got)
	}
	err := api.RegisterDateFrames([]calendar.DateFrame{{Name: "friday", Weekdays: []string{"friday"}, Targets: []string{"evening"}}})
	if err != nil {
		t.Fatalf("RegisterDateFrames() error = %v", err)
	}
	if got, _ := g.DateForPosition(0, false, true); !got.Equal(at(1, 0)) {
		t.Fatalf("expected only the evening cropped on Friday Mar 1, got %s", got)
	}
	api.RegisterTimeFrameMappings(map[string]calendar.Mapping{
		"all-night": func(time.Time) []string { return []string{"night"} },
	})
	if got, _ := g.DateForPosition(0, false, true); !got.Equal(at(1, 6)) {
		t.Fatalf("expected mapping to take precedence, got %s", got)
	}
	api.ClearTimeFrameMappings()
	api.ClearDateFrames()
	api.ClearTimeframes()
	if got, _ := g.DateForPosition(3, false, true); !got.Equal(at(1, 3)) {
		t.Fatalf("expected linear mapping after clearing, got %s", got)
	}
	if err := api.RegisterTimeFrames([]calendar.TimeFrame{{Name: ""}}); err == nil {
		t.Fatal("expected invalid frame to be rejected")
	}
}

func TestBuildSegmentsMergesOverlaps(t *testing.T) {
	start := day(1)
	end := day(2)
	segs := buildSegments(start, end, []calendar.Frame{
		{Start: at(1, 4), End: at(1, 8)},
		{Start: at(1, 2), End: at(1, 5)},
		{Start: at(1, 8), End: at(1, 10)},
	})
	if len(segs) != 3 {
		t.Fatalf("expected open/cropped/open, got %#v", segs)
	}
	if !segs[1].Cropped || !segs[1].Start.Equal(at(1, 2)) || !segs[1].End.Equal(at(1, 10)) {
		t.Fatalf("expected merged crop 02:00-10:00, got %#v", segs[1])
	}
}
