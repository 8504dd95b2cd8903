package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/hylla/gantt/internal/gantt"
)

// Style holds the SVG layout and colors.
type Style struct {
	RowHeight        int    `toml:"row_height"`
	HeaderHeight     int    `toml:"header_height"`
	SideWidth        int    `toml:"side_width"`
	FontFamily       string `toml:"font_family"`
	FontSize         int    `toml:"font_size"`
	Background       string `toml:"background"`
	GridColor        string `toml:"grid_color"`
	TextColor        string `toml:"text_color"`
	TaskColor        string `toml:"task_color"`
	FrameColor       string `toml:"frame_color"`
	WorkingColor     string `toml:"working_color"`
	CurrentDateColor string `toml:"current_date_color"`
}

// DefaultStyle returns the default SVG style.
func DefaultStyle() Style {
	return Style{
		RowHeight:        28,
		HeaderHeight:     32,
		SideWidth:        160,
		FontFamily:       "Arial, sans-serif",
		FontSize:         12,
		Background:       "#ffffff",
		GridColor:        "#e0e0e0",
		TextColor:        "#333333",
		TaskColor:        "#5b8def",
		FrameColor:       "#f2f2f2",
		WorkingColor:     "#eaf4ea",
		CurrentDateColor: "#e53935",
	}
}

// SVG writes snap as a standalone SVG document.
func SVG(w io.Writer, snap gantt.Snapshot, style Style) error {
	style = withDefaults(style)
	side := 0
	if snap.ShowSide {
		side = style.SideWidth
	}
	width := side + int(snap.Width+0.5)
	height := style.HeaderHeight + len(snap.Rows)*style.RowHeight
	bodyTop := style.HeaderHeight

	var svg strings.Builder
	fmt.Fprintf(&svg, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
.header-text { font-family: %s; font-size: %dpx; fill: %s; }
.row-text { font-family: %s; font-size: %dpx; fill: %s; }
.task-text { font-family: %s; font-size: %dpx; fill: #ffffff; }
</style>
</defs>
`, width, height, style.Background,
		style.FontFamily, style.FontSize, style.TextColor,
		style.FontFamily, style.FontSize, style.TextColor,
		style.FontFamily, style.FontSize-2)

	for _, col := range snap.Columns {
		x := float64(side) + col.Left
		for _, frame := range col.Frames {
			fill := frame.Color
			if fill == "" {
				fill = style.FrameColor
				if frame.Working != nil && *frame.Working {
					fill = style.WorkingColor
				}
			}
			fmt.Fprintf(&svg, `<rect class="gantt-frame" x="%s" y="%d" width="%s" height="%d" fill="%s"/>`+"\n",
				num(float64(side)+frame.Left), bodyTop, num(frame.Width), height-bodyTop, escape(fill))
		}
		fmt.Fprintf(&svg, `<line x1="%s" y1="0" x2="%s" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
			num(x), num(x), height, style.GridColor)
		if col.Width > 0 {
			fmt.Fprintf(&svg, `<text class="header-text" x="%s" y="%d">%s</text>`+"\n",
				num(x+3), style.HeaderHeight-10, escape(ColumnLabel(col.Date, snap.ViewScale)))
		}
	}
	fmt.Fprintf(&svg, `<line x1="0" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
		bodyTop, width, bodyTop, style.GridColor)

	for i, row := range snap.Rows {
		top := bodyTop + i*style.RowHeight
		mid := top + style.RowHeight/2
		if side > 0 {
			fmt.Fprintf(&svg, `<text class="row-text" x="6" y="%d" dominant-baseline="middle">%s</text>`+"\n",
				mid, escape(row.Name))
		}
		fmt.Fprintf(&svg, `<line x1="0" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
			top+style.RowHeight, width, top+style.RowHeight, style.GridColor)
		for _, task := range row.Tasks {
			drawTask(&svg, task, float64(side), top, style)
		}
	}

	if snap.CurrentDate != nil {
		x := float64(side) + snap.CurrentDate.Position
		fmt.Fprintf(&svg, `<line class="gantt-current-date" x1="%s" y1="%d" x2="%s" y2="%d" stroke="%s" stroke-width="2"/>`+"\n",
			num(x), bodyTop, num(x), height, style.CurrentDateColor)
	}
	svg.WriteString("</svg>\n")

	_, err := io.WriteString(w, svg.String())
	return err
}

// drawTask draws a bar, or a diamond for milestones. Hidden tasks are skipped.
func drawTask(svg *strings.Builder, task gantt.TaskView, offset float64, top int, style Style) {
	if task.Hidden {
		return
	}
	fill := task.Color
	if fill == "" {
		fill = style.TaskColor
	}
	pad := style.RowHeight / 5
	x := offset + task.Left
	if task.Milestone {
		size := float64(style.RowHeight-2*pad) / 2
		cy := float64(top + style.RowHeight/2)
		fmt.Fprintf(svg, `<polygon class="gantt-task-milestone" points="%s,%s %s,%s %s,%s %s,%s" fill="%s"><title>%s</title></polygon>`+"\n",
			num(x), num(cy-size),
			num(x+size), num(cy),
			num(x), num(cy+size),
			num(x-size), num(cy),
			escape(fill), escape(task.Name))
		return
	}
	classes := "gantt-task"
	if task.TruncatedLeft {
		classes += " gantt-task-truncated-left"
	}
	if task.TruncatedRight {
		classes += " gantt-task-truncated-right"
	}
	fmt.Fprintf(svg, `<rect class="%s" x="%s" y="%d" width="%s" height="%d" rx="3" fill="%s"><title>%s</title></rect>`+"\n",
		classes, num(x), top+pad, num(task.Width), style.RowHeight-2*pad, escape(fill), escape(task.Name))
	if task.Name != "" && task.Width > float64(len(task.Name)*style.FontSize)*0.6 {
		fmt.Fprintf(svg, `<text class="task-text" x="%s" y="%d" dominant-baseline="middle">%s</text>`+"\n",
			num(x+4), top+style.RowHeight/2, escape(task.Name))
	}
}

func withDefaults(style Style) Style {
	def := DefaultStyle()
	if style.RowHeight <= 0 {
		style.RowHeight = def.RowHeight
	}
	if style.HeaderHeight <= 0 {
		style.HeaderHeight = def.HeaderHeight
	}
	if style.SideWidth < 0 {
		style.SideWidth = def.SideWidth
	}
	if style.FontSize <= 0 {
		style.FontSize = def.FontSize
	}
	if style.FontFamily == "" {
		style.FontFamily = def.FontFamily
	}
	for _, pair := range []struct {
		dst *string
		def string
	}{
		{&style.Background, def.Background},
		{&style.GridColor, def.GridColor},
		{&style.TextColor, def.TextColor},
		{&style.TaskColor, def.TaskColor},
		{&style.FrameColor, def.FrameColor},
		{&style.WorkingColor, def.WorkingColor},
		{&style.CurrentDateColor, def.CurrentDateColor},
	} {
		if *pair.dst == "" {
			*pair.dst = pair.def
		}
	}
	return style
}

// num formats a coordinate without trailing zeros.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func escape(s string) string {
	return html.EscapeString(s)
}
