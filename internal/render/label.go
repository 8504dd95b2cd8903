// Package render draws chart snapshots as SVG documents or plain text.
package render

import (
	"fmt"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

// ColumnLabel formats a column start for the header of the given view scale.
func ColumnLabel(date time.Time, unit domain.Unit) string {
	switch unit {
	case domain.UnitSecond:
		return date.Format("15:04:05")
	case domain.UnitMinute, domain.UnitHour:
		return date.Format("15:04")
	case domain.UnitWeek:
		_, week := date.ISOWeek()
		return fmt.Sprintf("W%02d", week)
	case domain.UnitMonth:
		return date.Format("Jan 2006")
	case domain.UnitQuarter:
		return fmt.Sprintf("Q%d %d", (int(date.Month())-1)/3+1, date.Year())
	case domain.UnitYear:
		return date.Format("2006")
	default:
		return date.Format("Jan 02")
	}
}
