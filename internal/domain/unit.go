package domain

import (
	"math"
	"strings"
	"time"
)

// Unit identifies a calendar unit used for view scales and magnet snapping.
type Unit string

// Supported units, finest first.
const (
	UnitSecond  Unit = "second"
	UnitMinute  Unit = "minute"
	UnitHour    Unit = "hour"
	UnitDay     Unit = "day"
	UnitWeek    Unit = "week"
	UnitMonth   Unit = "month"
	UnitQuarter Unit = "quarter"
	UnitYear    Unit = "year"
)

// unitAliases maps accepted spellings onto canonical units.
var unitAliases = map[string]Unit{
	"s": UnitSecond, "sec": UnitSecond, "secs": UnitSecond, "second": UnitSecond, "seconds": UnitSecond,
	"min": UnitMinute, "mins": UnitMinute, "minute": UnitMinute, "minutes": UnitMinute,
	"h": UnitHour, "hr": UnitHour, "hrs": UnitHour, "hour": UnitHour, "hours": UnitHour,
	"d": UnitDay, "day": UnitDay, "days": UnitDay,
	"w": UnitWeek, "week": UnitWeek, "weeks": UnitWeek,
	"month": UnitMonth, "months": UnitMonth,
	"q": UnitQuarter, "quarter": UnitQuarter, "quarters": UnitQuarter,
	"y": UnitYear, "year": UnitYear, "years": UnitYear,
}

// ParseUnit resolves singular, plural and short spellings of a unit.
func ParseUnit(raw string) (Unit, error) {
	unit, ok := unitAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", ErrInvalidUnit
	}
	return unit, nil
}

// Valid reports whether the unit is one of the supported constants.
func (u Unit) Valid() bool {
	switch u {
	case UnitSecond, UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth, UnitQuarter, UnitYear:
		return true
	default:
		return false
	}
}

// fixedDuration returns the exact length of sub-day units.
func (u Unit) fixedDuration() (time.Duration, bool) {
	switch u {
	case UnitSecond:
		return time.Second, true
	case UnitMinute:
		return time.Minute, true
	case UnitHour:
		return time.Hour, true
	default:
		return 0, false
	}
}

// StartOf floors t to the beginning of its unit in t's location. Weeks start on Monday.
func StartOf(t time.Time, unit Unit) time.Time {
	y, mo, d := t.Date()
	loc := t.Location()
	switch unit {
	case UnitSecond:
		return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
	case UnitMinute:
		return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, loc)
	case UnitHour:
		return time.Date(y, mo, d, t.Hour(), 0, 0, 0, loc)
	case UnitDay:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc)
	case UnitWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, mo, d-offset, 0, 0, 0, 0, loc)
	case UnitMonth:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	case UnitQuarter:
		first := time.Month((int(mo)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case UnitYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}

// EndOf returns the first instant after t's unit, or t itself when t already sits on a boundary.
func EndOf(t time.Time, unit Unit) time.Time {
	start := StartOf(t, unit)
	if start.Equal(t) {
		return t
	}
	return addWhole(start, 1, unit)
}

// Add moves t by a possibly fractional number of units. The fractional part is
// measured against the length of the unit it falls into.
func Add(t time.Time, value float64, unit Unit) time.Time {
	if d, ok := unit.fixedDuration(); ok {
		return t.Add(time.Duration(math.Round(value * float64(d))))
	}
	whole := math.Floor(value)
	frac := value - whole
	base := addWhole(t, int(whole), unit)
	if frac == 0 {
		return base
	}
	next := addWhole(t, int(whole)+1, unit)
	return base.Add(time.Duration(math.Round(frac * float64(next.Sub(base)))))
}

// Diff returns the fractional number of units from a to b.
func Diff(a, b time.Time, unit Unit) float64 {
	if d, ok := unit.fixedDuration(); ok {
		return float64(b.Sub(a)) / float64(d)
	}
	n := int(math.Floor(float64(b.Sub(a)) / float64(approxDuration(unit))))
	for addWhole(a, n, unit).After(b) {
		n--
	}
	for !addWhole(a, n+1, unit).After(b) {
		n++
	}
	lo := addWhole(a, n, unit)
	hi := addWhole(a, n+1, unit)
	return float64(n) + float64(b.Sub(lo))/float64(hi.Sub(lo))
}

// addWhole adds an integral number of units using calendar arithmetic.
func addWhole(t time.Time, n int, unit Unit) time.Time {
	switch unit {
	case UnitSecond:
		return t.Add(time.Duration(n) * time.Second)
	case UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, n)
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitMonth:
		return addMonths(t, n)
	case UnitQuarter:
		return addMonths(t, 3*n)
	case UnitYear:
		return addMonths(t, 12*n)
	default:
		return t
	}
}

// addMonths clamps the day of month instead of overflowing into the next month.
func addMonths(t time.Time, n int) time.Time {
	y, mo, d := t.Date()
	target := time.Date(y, mo+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// approxDuration seeds Diff for calendar units.
func approxDuration(unit Unit) time.Duration {
	switch unit {
	case UnitDay:
		return 24 * time.Hour
	case UnitWeek:
		return 7 * 24 * time.Hour
	case UnitMonth:
		return 30 * 24 * time.Hour
	case UnitQuarter:
		return 91 * 24 * time.Hour
	case UnitYear:
		return 365 * 24 * time.Hour
	default:
		return time.Hour
	}
}
