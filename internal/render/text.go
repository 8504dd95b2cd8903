package render

import (
	"bufio"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hylla/gantt/internal/gantt"
)

// Glyphs used by the text renderer.
const (
	GlyphBar            = '='
	GlyphMilestone      = '*'
	GlyphTruncatedLeft  = '<'
	GlyphTruncatedRight = '>'
	GlyphCurrentDate    = '|'
	GlyphEmpty          = ' '
)

// TextOptions sizes the text rendering. Width is the chart area in characters.
type TextOptions struct {
	Width     int
	SideWidth int
}

// Span maps a chart interval onto character cells [start, end).
// Bars always take at least one cell.
func Span(left, width, scale float64) (int, int) {
	start := int(math.Floor(left*scale + 1e-9))
	end := int(math.Ceil((left+width)*scale - 1e-9))
	if end <= start {
		end = start + 1
	}
	return start, end
}

// RowCells renders the tasks of row into width cells.
func RowCells(row gantt.RowView, width int, scale float64) []rune {
	cells := []rune(strings.Repeat(string(GlyphEmpty), width))
	for _, task := range row.Tasks {
		if task.Hidden {
			continue
		}
		if task.Milestone {
			at := int(math.Floor(task.Left*scale + 1e-9))
			if at >= width {
				at = width - 1
			}
			if at >= 0 {
				cells[at] = GlyphMilestone
			}
			continue
		}
		start, end := Span(task.Left, task.Width, scale)
		for i := max(start, 0); i < min(end, width); i++ {
			cells[i] = GlyphBar
		}
		if task.TruncatedLeft && start >= 0 && start < width {
			cells[start] = GlyphTruncatedLeft
		}
		if task.TruncatedRight && end-1 >= 0 && end-1 < width {
			cells[end-1] = GlyphTruncatedRight
		}
	}
	return cells
}

// HeaderCells renders column labels at their starting cells, skipping labels that would overlap.
func HeaderCells(snap gantt.Snapshot, width int, scale float64) []rune {
	cells := []rune(strings.Repeat(string(GlyphEmpty), width))
	next := 0
	for _, col := range snap.Columns {
		if col.Width <= 0 {
			continue
		}
		at := int(math.Floor(col.Left*scale + 1e-9))
		if at < next || at >= width {
			continue
		}
		label := []rune(ColumnLabel(col.Date, snap.ViewScale))
		if at+len(label) > width {
			continue
		}
		copy(cells[at:], label)
		next = at + len(label) + 1
	}
	return cells
}

// Text writes snap as a plain-text chart.
func Text(w io.Writer, snap gantt.Snapshot, opts TextOptions) error {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.SideWidth < 0 || !snap.ShowSide {
		opts.SideWidth = 0
	}
	if opts.SideWidth == 0 && snap.ShowSide {
		for _, row := range snap.Rows {
			opts.SideWidth = max(opts.SideWidth, utf8.RuneCountInString(row.Name)+1)
		}
		opts.SideWidth = min(opts.SideWidth, 24)
	}
	scale := 0.0
	if snap.Width > 0 {
		scale = float64(opts.Width) / snap.Width
	}
	marker := -1
	if snap.CurrentDate != nil {
		marker = int(math.Floor(snap.CurrentDate.Position*scale + 1e-9))
		if marker == opts.Width {
			marker--
		}
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(pad("", opts.SideWidth))
	bw.WriteString(strings.TrimRight(string(HeaderCells(snap, opts.Width, scale)), " "))
	bw.WriteByte('\n')
	for _, row := range snap.Rows {
		cells := RowCells(row, opts.Width, scale)
		if marker >= 0 && marker < len(cells) && cells[marker] == GlyphEmpty {
			cells[marker] = GlyphCurrentDate
		}
		bw.WriteString(pad(row.Name, opts.SideWidth))
		bw.WriteString(strings.TrimRight(string(cells), " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// pad truncates or pads s to exactly n runes.
func pad(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) >= n {
		if n == 1 {
			return " "
		}
		return string(runes[:n-2]) + "~ "
	}
	return s + strings.Repeat(" ", n-len(runes))
}
