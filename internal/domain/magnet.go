package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Magnet is a snapping granularity parsed from strings such as "15 minutes".
// The zero value disables snapping.
type Magnet struct {
	Value float64
	Unit  string
}

// ParseMagnet splits raw on whitespace: the leading token is the value and the
// trailing token the unit. A single token, an empty string, a non-positive or
// non-numeric value and an unknown unit all disable snapping.
func ParseMagnet(raw string) (Magnet, bool) {
	fields := strings.Fields(raw)
	if len(fields) <= 1 {
		return Magnet{}, false
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return Magnet{}, false
	}
	unit := fields[len(fields)-1]
	if _, err := ParseUnit(unit); err != nil {
		return Magnet{}, false
	}
	return Magnet{Value: value, Unit: unit}, true
}

// Enabled reports whether the magnet snaps at all.
func (m Magnet) Enabled() bool {
	_, ok := m.unit()
	return ok && m.Value > 0
}

// String renders the magnet back into its configuration form.
func (m Magnet) String() string {
	if !m.Enabled() {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + " " + m.Unit
}

// Snap rounds the offset between origin and t to the nearest multiple of the magnet.
func (m Magnet) Snap(origin, t time.Time) time.Time {
	unit, ok := m.unit()
	if !ok || m.Value <= 0 {
		return t
	}
	steps := math.Round(Diff(origin, t, unit) / m.Value)
	return Add(origin, steps*m.Value, unit)
}

func (m Magnet) unit() (Unit, bool) {
	if m.Unit == "" {
		return "", false
	}
	unit, err := ParseUnit(m.Unit)
	if err != nil {
		return "", false
	}
	return unit, true
}
