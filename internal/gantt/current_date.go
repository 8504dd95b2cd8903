package gantt

import "time"

// CurrentDate is the resolved current date marker.
type CurrentDate struct {
	Mode     CurrentDateMode
	Date     time.Time
	Position float64
	Column   *Column
	Visible  bool
}

// CurrentDate resolves the marker for the configured mode and value.
// It is never resolved against extended columns.
func (g *Gantt) CurrentDate() CurrentDate {
	opts := g.store.current
	date := opts.CurrentDateValue
	if date.IsZero() {
		date = g.clock()
	}
	date = date.In(g.location)
	out := CurrentDate{Mode: opts.CurrentDate, Date: date}
	switch opts.CurrentDate {
	case CurrentDateLine:
		out.Position, out.Visible = g.PositionForDate(date, true)
	case CurrentDateColumn:
		if col, ok := g.columns.ColumnByDate(date, true); ok {
			out.Column = col
			out.Position = col.Left
			out.Visible = true
		}
	}
	return out
}
