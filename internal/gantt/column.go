package gantt

import (
	"math"
	"slices"
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
)

// Segment is a slice of a column's time span. Cropped segments take no width.
type Segment struct {
	Start   time.Time
	End     time.Time
	Left    float64
	Width   float64
	Cropped bool
}

// Column is one time bucket of the grid.
type Column struct {
	Date     time.Time
	EndDate  time.Time
	Left     float64
	Width    float64
	Extended bool
	// Frames lists the calendar frames exposed for rendering.
	Frames   []calendar.Frame
	segments []Segment
}

// Segments returns a copy of the column's segments.
func (c *Column) Segments() []Segment {
	return slices.Clone(c.segments)
}

// Cropped reports whether every segment of the column is cropped.
func (c *Column) Cropped() bool {
	for _, seg := range c.segments {
		if !seg.Cropped {
			return false
		}
	}
	return len(c.segments) > 0
}

// Right returns Left + Width.
func (c *Column) Right() float64 {
	return c.Left + c.Width
}

// ContainsDate reports whether date falls inside [Date, EndDate).
func (c *Column) ContainsDate(date time.Time) bool {
	return !date.Before(c.Date) && date.Before(c.EndDate)
}

// PositionForDate maps date to an absolute position clamped to the column.
func (c *Column) PositionForDate(date time.Time) float64 {
	if !date.After(c.Date) {
		return c.Left
	}
	if !date.Before(c.EndDate) {
		return c.Right()
	}
	for _, seg := range c.segments {
		if date.Before(seg.Start) {
			continue
		}
		if !date.Before(seg.End) {
			continue
		}
		if seg.Cropped {
			return seg.Left
		}
		elapsed := float64(date.Sub(seg.Start))
		return seg.Left + elapsed*seg.Width/float64(seg.End.Sub(seg.Start))
	}
	return c.Right()
}

// DateForPosition maps an offset from the column's left edge to a date.
// The offset is clamped to [0, Width]; a non-zero magnet snaps the result.
func (c *Column) DateForPosition(offset float64, magnet domain.Magnet) time.Time {
	offset = math.Min(math.Max(offset, 0), c.Width)
	date := c.dateAtOffset(offset)
	if magnet.Enabled() {
		date = magnet.Snap(c.Date, date)
	}
	return date
}

func (c *Column) dateAtOffset(offset float64) time.Time {
	pos := c.Left + offset
	for _, seg := range c.segments {
		if seg.Cropped || seg.Width <= 0 {
			continue
		}
		if pos > seg.Left+seg.Width {
			continue
		}
		span := float64(seg.End.Sub(seg.Start))
		within := math.Max(pos-seg.Left, 0)
		return seg.Start.Add(time.Duration(math.Round(span * within / seg.Width)))
	}
	if offset <= 0 {
		return c.Date
	}
	return c.EndDate
}

// layout assigns the column's position and distributes its width over the
// non-cropped segments in proportion to their duration.
func (c *Column) layout(left, width float64) {
	c.Left = left
	c.Width = width
	var open time.Duration
	for _, seg := range c.segments {
		if !seg.Cropped {
			open += seg.End.Sub(seg.Start)
		}
	}
	cursor := left
	for i := range c.segments {
		seg := &c.segments[i]
		seg.Left = cursor
		seg.Width = 0
		if !seg.Cropped && open > 0 {
			seg.Width = width * float64(seg.End.Sub(seg.Start)) / float64(open)
		}
		cursor += seg.Width
	}
}

// newColumn builds a column for [start, end) and resolves its calendar segments.
func newColumn(start, end time.Time, cal *calendar.Calendar, workingMode, nonWorkingMode FrameMode) *Column {
	col := &Column{Date: start, EndDate: end}
	var cropped []calendar.Frame
	for _, frame := range cal.Frames(start, end) {
		mode := FrameVisible
		switch {
		case frame.IsWorking():
			mode = workingMode
		case frame.IsNonWorking():
			mode = nonWorkingMode
		}
		switch mode {
		case FrameVisible:
			col.Frames = append(col.Frames, frame)
		case FrameCropped:
			cropped = append(cropped, frame)
		}
	}
	col.segments = buildSegments(start, end, cropped)
	return col
}

// buildSegments splits [start, end) into alternating open and cropped segments.
func buildSegments(start, end time.Time, cropped []calendar.Frame) []Segment {
	slices.SortFunc(cropped, func(a, b calendar.Frame) int {
		return a.Start.Compare(b.Start)
	})
	var out []Segment
	cursor := start
	for _, frame := range cropped {
		if frame.End.Before(cursor) || frame.End.Equal(cursor) {
			continue
		}
		from := frame.Start
		if from.Before(cursor) {
			from = cursor
		}
		if from.After(cursor) {
			out = append(out, Segment{Start: cursor, End: from})
		}
		if n := len(out); n > 0 && out[n-1].Cropped && out[n-1].End.Equal(from) {
			out[n-1].End = frame.End
		} else {
			out = append(out, Segment{Start: from, End: frame.End, Cropped: true})
		}
		cursor = frame.End
	}
	if cursor.Before(end) {
		out = append(out, Segment{Start: cursor, End: end})
	}
	return out
}
