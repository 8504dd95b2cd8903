package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/gantt"
	"github.com/hylla/gantt/internal/render"
)

// Service represents service data used by this package.
type Service interface {
	Snapshot(context.Context) (gantt.Snapshot, error)
	Options(context.Context) (gantt.Options, error)
	UpdateOptions(context.Context, func(*gantt.Options)) error
	Resize(context.Context, float64) error
	NudgeTask(context.Context, app.NudgeTaskInput) (gantt.TaskView, error)
	Reload(context.Context) error
	Save(context.Context) error
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeTaskInfo
)

// defaultSideWidth is the row-name column width used until an option overrides it.
const defaultSideWidth = 18

// chromeLines counts the title, column header, status and help lines around the rows.
const chromeLines = 5

// zoomScales orders the view scales the zoom keys step through, finest first.
var zoomScales = []domain.Unit{
	domain.UnitHour,
	domain.UnitDay,
	domain.UnitWeek,
	domain.UnitMonth,
	domain.UnitQuarter,
	domain.UnitYear,
}

// taskRef locates one task inside the snapshot rows.
type taskRef struct {
	row  int
	task int
	id   string
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string
	title  string

	help help.Model
	keys keyMap
	mode inputMode

	snapshot   gantt.Snapshot
	tasks      []taskRef
	selected   int
	selectedID string
	scroll     int
	sideWidth  int

	markdown       *markdownRenderer
	writeClipboard func(string) error
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	snapshot gantt.Snapshot
	err      error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	status     string
	focusID    string
	err        error
	reloadView bool
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:            svc,
		status:         "loading...",
		title:          "gantt",
		help:           h,
		keys:           newKeyMap(),
		sideWidth:      defaultSideWidth,
		markdown:       &markdownRenderer{},
		writeClipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadSnapshot
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, m.resize(m.chartWidth())

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.applySnapshot(msg.snapshot)
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusID != "" {
			m.selectedID = msg.focusID
		}
		if msg.reloadView {
			return m, m.loadSnapshot
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode == modeTaskInfo {
			return m.handleTaskInfoKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// handleTaskInfoKey closes the info panel on esc, q or the info key.
func (m Model) handleTaskInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc", key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.taskInfo):
		m.mode = modeNone
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.copyTaskRange):
		return m.copySelectedTask()
	}
	return m, nil
}

// handleNormalModeKey handles chart navigation and task edits.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.reloadData
	case key.Matches(msg, m.keys.save):
		return m, m.saveData
	case key.Matches(msg, m.keys.selectDown):
		m.selectTask(m.selected + 1)
		return m, nil
	case key.Matches(msg, m.keys.selectUp):
		m.selectTask(m.selected - 1)
		return m, nil
	case key.Matches(msg, m.keys.scrollLeft):
		m.scroll = m.clampScroll(m.scroll - max(1, m.chartWidth()/4))
		return m, nil
	case key.Matches(msg, m.keys.scrollRight):
		m.scroll = m.clampScroll(m.scroll + max(1, m.chartWidth()/4))
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		return m.nudge(app.TaskEdgeMove, -1, false)
	case key.Matches(msg, m.keys.moveRight):
		return m.nudge(app.TaskEdgeMove, 1, false)
	case key.Matches(msg, m.keys.nudgeLeft):
		return m.nudge(app.TaskEdgeMove, -1, true)
	case key.Matches(msg, m.keys.nudgeRight):
		return m.nudge(app.TaskEdgeMove, 1, true)
	case key.Matches(msg, m.keys.fromLeft):
		return m.nudge(app.TaskEdgeFrom, -1, false)
	case key.Matches(msg, m.keys.fromRight):
		return m.nudge(app.TaskEdgeFrom, 1, false)
	case key.Matches(msg, m.keys.toLeft):
		return m.nudge(app.TaskEdgeTo, -1, false)
	case key.Matches(msg, m.keys.toRight):
		return m.nudge(app.TaskEdgeTo, 1, false)
	case key.Matches(msg, m.keys.zoomIn):
		return m, m.zoom(-1)
	case key.Matches(msg, m.keys.zoomOut):
		return m, m.zoom(1)
	case key.Matches(msg, m.keys.taskInfo):
		if _, ok := m.selectedTask(); !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.status = "task info"
		return m, nil
	case key.Matches(msg, m.keys.copyTaskRange):
		return m.copySelectedTask()
	}
	return m, nil
}

// loadSnapshot loads required data for the current operation.
func (m Model) loadSnapshot() tea.Msg {
	if m.svc == nil {
		return loadedMsg{err: errors.New("chart service is not configured")}
	}
	snap, err := m.svc.Snapshot(context.Background())
	return loadedMsg{snapshot: snap, err: err}
}

// resize records the chart area width and reloads the geometry.
func (m Model) resize(width int) tea.Cmd {
	return func() tea.Msg {
		if m.svc == nil {
			return loadedMsg{err: errors.New("chart service is not configured")}
		}
		if err := m.svc.Resize(context.Background(), float64(width)); err != nil {
			return loadedMsg{err: err}
		}
		return m.loadSnapshot()
	}
}

// reloadData rereads the row store.
func (m Model) reloadData() tea.Msg {
	if err := m.svc.Reload(context.Background()); err != nil {
		return actionMsg{err: err}
	}
	return actionMsg{status: "reloaded", reloadView: true}
}

// saveData writes the bound rows back to the row store.
func (m Model) saveData() tea.Msg {
	if err := m.svc.Save(context.Background()); err != nil {
		return actionMsg{err: err}
	}
	return actionMsg{status: "saved"}
}

// nudge shifts the selected task or one of its edges by steps columns.
func (m Model) nudge(edge app.TaskEdge, steps int, precision bool) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	id := task.ID
	return m, func() tea.Msg {
		view, err := m.svc.NudgeTask(context.Background(), app.NudgeTaskInput{
			TaskID:    id,
			Edge:      edge,
			Steps:     steps,
			Precision: precision,
		})
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{
			status:     fmt.Sprintf("%s %s", view.Name, formatRange(view)),
			focusID:    view.ID,
			reloadView: true,
		}
	}
}

// zoom steps the view scale by delta positions in zoomScales.
func (m Model) zoom(delta int) tea.Cmd {
	current := m.snapshot.ViewScale
	return func() tea.Msg {
		idx := 1
		for i, unit := range zoomScales {
			if unit == current {
				idx = i
				break
			}
		}
		next := clamp(idx+delta, 0, len(zoomScales)-1)
		if next == idx {
			return actionMsg{status: "scale: " + string(current)}
		}
		unit := zoomScales[next]
		if err := m.svc.UpdateOptions(context.Background(), func(o *gantt.Options) {
			o.ViewScale = unit
		}); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "scale: " + string(unit), reloadView: true}
	}
}

// copySelectedTask copies the selected task name and range to the clipboard.
func (m Model) copySelectedTask() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	text := task.Name + "\t" + task.From.Format(time.RFC3339)
	if !task.To.IsZero() {
		text += "\t" + task.To.Format(time.RFC3339)
	}
	if err := m.writeClipboard(text); err != nil {
		m.status = "clipboard unavailable: " + err.Error()
		return m, nil
	}
	m.status = "copied " + task.Name
	return m, nil
}

// applySnapshot stores snap and keeps the selection on the same task id.
func (m *Model) applySnapshot(snap gantt.Snapshot) {
	m.snapshot = snap
	m.tasks = nil
	for ri, row := range snap.Rows {
		for ti, task := range row.Tasks {
			m.tasks = append(m.tasks, taskRef{row: ri, task: ti, id: task.ID})
		}
	}
	idx := 0
	for i, ref := range m.tasks {
		if ref.id == m.selectedID {
			idx = i
			break
		}
	}
	m.selectTask(idx)
	m.scroll = m.clampScroll(m.scroll)
}

// selectTask moves the selection and scrolls it into view.
func (m *Model) selectTask(idx int) {
	if len(m.tasks) == 0 {
		m.selected = 0
		m.selectedID = ""
		return
	}
	m.selected = clamp(idx, 0, len(m.tasks)-1)
	m.selectedID = m.tasks[m.selected].id
	task, _ := m.selectedTask()
	if task.Hidden {
		return
	}
	visible := m.chartWidth()
	start, end := render.Span(task.Left, task.Width, 1)
	if start < m.scroll {
		m.scroll = start
	} else if visible > 0 && end > m.scroll+visible {
		m.scroll = end - visible
	}
	m.scroll = m.clampScroll(m.scroll)
}

// selectedTask returns the selected task view.
func (m Model) selectedTask() (gantt.TaskView, bool) {
	if m.selected < 0 || m.selected >= len(m.tasks) {
		return gantt.TaskView{}, false
	}
	ref := m.tasks[m.selected]
	return m.snapshot.Rows[ref.row].Tasks[ref.task], true
}

// chartWidth returns the number of cells available for columns.
func (m Model) chartWidth() int {
	return max(1, m.width-m.sideWidth)
}

// chartCells returns the number of cells the full chart spans.
func (m Model) chartCells() int {
	return int(math.Ceil(m.snapshot.Width - 1e-9))
}

// clampScroll bounds a horizontal offset to the chart span.
func (m Model) clampScroll(v int) int {
	return clamp(v, 0, max(0, m.chartCells()-m.chartWidth()))
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// render builds the full screen content.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress q to quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	headerStyle := lipgloss.NewStyle().Foreground(muted)
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	lines := []string{
		titleStyle.Render(m.title) + headerStyle.Render(" "+m.rangeSummary()),
		strings.Repeat(" ", m.sideWidth) + headerStyle.Render(m.headerLine()),
	}
	rowLines := m.rowLines(accent, muted)
	available := max(1, m.height-chromeLines)
	start := 0
	if ref, ok := m.selectedRef(); ok && ref.row >= available {
		start = ref.row - available + 1
	}
	end := min(len(rowLines), start+available)
	if len(rowLines) == 0 {
		rowLines = []string{headerStyle.Render("no rows loaded")}
		start, end = 0, 1
	}
	lines = append(lines, rowLines[start:end]...)
	content := fitLines(strings.Join(lines, "\n"), max(1, m.height-3))

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	footer := statusStyle.Render(m.status) + "\n" + lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	full := content + "\n" + footer

	if m.mode == modeTaskInfo {
		if task, ok := m.selectedTask(); ok {
			full = overlayOnContent(full, m.renderTaskInfo(task, accent, muted), m.width, lipgloss.Height(full))
		}
	}
	return full
}

// selectedRef returns the location of the selected task.
func (m Model) selectedRef() (taskRef, bool) {
	if m.selected < 0 || m.selected >= len(m.tasks) {
		return taskRef{}, false
	}
	return m.tasks[m.selected], true
}

// rangeSummary describes the visible scale and date range.
func (m Model) rangeSummary() string {
	snap := m.snapshot
	if snap.From.IsZero() {
		return string(snap.ViewScale)
	}
	return fmt.Sprintf("%s  %s → %s", snap.ViewScale, snap.From.Format("2006-01-02"), snap.To.Format("2006-01-02"))
}

// headerLine renders the column labels inside the scroll window.
func (m Model) headerLine() string {
	cells := render.HeaderCells(m.snapshot, max(m.chartCells(), 1), 1)
	return strings.TrimRight(string(window(cells, m.scroll, m.chartWidth())), " ")
}

// rowLines renders every row with per-task styling.
func (m Model) rowLines(accent, muted color.Color) []string {
	sideStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	markerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	selectedStyle := lipgloss.NewStyle().Bold(true).Reverse(true)
	visible := m.chartWidth()
	total := max(m.chartCells(), 1)

	marker := -1
	if cd := m.snapshot.CurrentDate; cd != nil {
		marker = min(int(math.Floor(cd.Position+1e-9)), total-1)
	}

	out := make([]string, 0, len(m.snapshot.Rows))
	for _, row := range m.snapshot.Rows {
		glyphs := render.RowCells(row, total, 1)
		owners := make([]int, total)
		for i := range owners {
			owners[i] = -1
		}
		for ti, task := range row.Tasks {
			single := render.RowCells(gantt.RowView{Tasks: []gantt.TaskView{task}}, total, 1)
			for i, r := range single {
				if r != render.GlyphEmpty {
					owners[i] = ti
				}
			}
		}
		if marker >= 0 && glyphs[marker] == render.GlyphEmpty {
			glyphs[marker] = render.GlyphCurrentDate
		}

		var b strings.Builder
		b.WriteString(sideStyle.Render(padRight(row.Name, m.sideWidth)))
		from := m.scroll
		to := min(total, m.scroll+visible)
		for i := from; i < to; {
			j := i + 1
			for j < to && owners[j] == owners[i] {
				j++
			}
			segment := string(glyphs[i:j])
			switch owner := owners[i]; {
			case owner < 0 && i <= marker && marker < j:
				b.WriteString(strings.ReplaceAll(segment, string(render.GlyphCurrentDate), markerStyle.Render(string(render.GlyphCurrentDate))))
			case owner < 0:
				b.WriteString(segment)
			default:
				task := row.Tasks[owner]
				style := lipgloss.NewStyle().Foreground(accent)
				if task.Color != "" {
					style = lipgloss.NewStyle().Foreground(lipgloss.Color(task.Color))
				}
				if task.ID == m.selectedID {
					style = selectedStyle
				}
				b.WriteString(style.Render(segment))
			}
			i = j
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return out
}

// renderTaskInfo renders the task info panel.
func (m Model) renderTaskInfo(task gantt.TaskView, accent, muted color.Color) string {
	width := clamp(m.width-12, 24, 72)
	mutedStyle := lipgloss.NewStyle().Foreground(muted)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(task.Name),
		mutedStyle.Render("id: " + task.ID),
		mutedStyle.Render("range: " + formatRange(task)),
	}
	if task.Milestone {
		lines = append(lines, mutedStyle.Render("milestone"))
	} else {
		lines = append(lines, mutedStyle.Render("duration: "+task.To.Sub(task.From).String()))
	}
	if task.Priority != 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("priority: %d", task.Priority)))
	}
	switch {
	case task.Hidden:
		lines = append(lines, mutedStyle.Render("outside the visible range"))
	case task.TruncatedLeft || task.TruncatedRight:
		lines = append(lines, mutedStyle.Render("truncated by the visible range"))
	}
	if content := m.markdown.render(task.Content, width-4); content != "" {
		lines = append(lines, "", content)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// formatRange formats a task range for compact display.
func formatRange(task gantt.TaskView) string {
	const layout = "2006-01-02 15:04"
	if task.To.IsZero() {
		return task.From.Format(layout)
	}
	return task.From.Format(layout) + " → " + task.To.Format(layout)
}

// window returns cells[offset:offset+width], padded with blanks.
func window(cells []rune, offset, width int) []rune {
	out := make([]rune, width)
	for i := range out {
		out[i] = render.GlyphEmpty
		if j := offset + i; j >= 0 && j < len(cells) {
			out[i] = cells[j]
		}
	}
	return out
}

// padRight truncates or pads s to exactly n cells.
func padRight(s string, n int) string {
	if n <= 0 {
		return ""
	}
	s = truncate(s, n-1)
	return s + strings.Repeat(" ", n-len([]rune(s)))
}

// clamp bounds v into [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or truncates content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
