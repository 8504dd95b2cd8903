// Package calendar resolves the working and non-working time frames that apply to a day.
package calendar

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFrame and related errors describe rejected frame registrations.
var (
	ErrInvalidTimeFrame = errors.New("invalid time frame")
	ErrInvalidDateFrame = errors.New("invalid date frame")
)

// dateLayout is the format accepted for date-frame days.
const dateLayout = "2006-01-02"

// TimeFrame is a named interval of a day, such as morning working hours.
// Empty Start means start of day, empty End means end of day.
type TimeFrame struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Start   string `json:"start,omitempty" yaml:"start,omitempty" toml:"start"`
	End     string `json:"end,omitempty" yaml:"end,omitempty" toml:"end"`
	Working *bool  `json:"working,omitempty" yaml:"working,omitempty" toml:"working"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty" toml:"default"`
	Color   string `json:"color,omitempty" yaml:"color,omitempty" toml:"color"`
}

// DateFrame selects days and names the time frames that apply on them.
type DateFrame struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Date     string   `json:"date,omitempty" yaml:"date,omitempty" toml:"date"`
	Start    string   `json:"start,omitempty" yaml:"start,omitempty" toml:"start"`
	End      string   `json:"end,omitempty" yaml:"end,omitempty" toml:"end"`
	Weekdays []string `json:"weekdays,omitempty" yaml:"weekdays,omitempty" toml:"weekdays"`
	Targets  []string `json:"targets" yaml:"targets" toml:"targets"`
	Default  bool     `json:"default,omitempty" yaml:"default,omitempty" toml:"default"`
}

// Mapping returns the time-frame names that apply on day.
type Mapping func(day time.Time) []string

// Frame is a time frame resolved onto absolute instants.
type Frame struct {
	Name    string
	Start   time.Time
	End     time.Time
	Working *bool
	Color   string
}

// IsWorking reports whether the frame is explicitly working time.
func (f Frame) IsWorking() bool {
	return f.Working != nil && *f.Working
}

// IsNonWorking reports whether the frame is explicitly non-working time.
func (f Frame) IsNonWorking() bool {
	return f.Working != nil && !*f.Working
}

type timeFrame struct {
	TimeFrame
	startMin int
	endMin   int
}

type dateFrame struct {
	DateFrame
	date     time.Time
	start    time.Time
	end      time.Time
	weekdays []time.Weekday
}

// Calendar is the registry of time frames, date frames and mappings.
type Calendar struct {
	timeFrames   map[string]timeFrame
	timeOrder    []string
	dateFrames   map[string]dateFrame
	dateOrder    []string
	mappings     map[string]Mapping
	mappingOrder []string
}

// New constructs an empty calendar.
func New() *Calendar {
	return &Calendar{
		timeFrames: map[string]timeFrame{},
		dateFrames: map[string]dateFrame{},
		mappings:   map[string]Mapping{},
	}
}

// RegisterTimeFrames adds or replaces time frames by name.
func (c *Calendar) RegisterTimeFrames(frames []TimeFrame) error {
	parsed := make([]timeFrame, 0, len(frames))
	for idx, frame := range frames {
		tf, err := parseTimeFrame(frame)
		if err != nil {
			return fmt.Errorf("time_frames[%d]: %w", idx, err)
		}
		parsed = append(parsed, tf)
	}
	for _, tf := range parsed {
		if _, ok := c.timeFrames[tf.Name]; !ok {
			c.timeOrder = append(c.timeOrder, tf.Name)
		}
		c.timeFrames[tf.Name] = tf
	}
	return nil
}

// ClearTimeFrames removes every registered time frame.
func (c *Calendar) ClearTimeFrames() {
	c.timeFrames = map[string]timeFrame{}
	c.timeOrder = nil
}

// RegisterDateFrames adds or replaces date frames by name.
func (c *Calendar) RegisterDateFrames(frames []DateFrame) error {
	parsed := make([]dateFrame, 0, len(frames))
	for idx, frame := range frames {
		df, err := parseDateFrame(frame)
		if err != nil {
			return fmt.Errorf("date_frames[%d]: %w", idx, err)
		}
		parsed = append(parsed, df)
	}
	for _, df := range parsed {
		if _, ok := c.dateFrames[df.Name]; !ok {
			c.dateOrder = append(c.dateOrder, df.Name)
		}
		c.dateFrames[df.Name] = df
	}
	return nil
}

// ClearDateFrames removes every registered date frame.
func (c *Calendar) ClearDateFrames() {
	c.dateFrames = map[string]dateFrame{}
	c.dateOrder = nil
}

// RegisterTimeFrameMappings adds or replaces mappings by name. Mappings run in name order.
func (c *Calendar) RegisterTimeFrameMappings(mappings map[string]Mapping) {
	for name, fn := range mappings {
		name = strings.TrimSpace(name)
		if name == "" || fn == nil {
			continue
		}
		if _, ok := c.mappings[name]; !ok {
			c.mappingOrder = append(c.mappingOrder, name)
		}
		c.mappings[name] = fn
	}
	slices.Sort(c.mappingOrder)
}

// ClearTimeFrameMappings removes the named mappings, or all of them when no name is given.
func (c *Calendar) ClearTimeFrameMappings(names ...string) {
	if len(names) == 0 {
		c.mappings = map[string]Mapping{}
		c.mappingOrder = nil
		return
	}
	for _, name := range names {
		delete(c.mappings, name)
	}
	c.mappingOrder = slices.DeleteFunc(c.mappingOrder, func(name string) bool {
		_, ok := c.mappings[name]
		return !ok
	})
}

// Empty reports whether no time frame is registered.
func (c *Calendar) Empty() bool {
	return len(c.timeFrames) == 0
}

// TimeFramesFor resolves the frames applying to the day containing day, sorted by start.
// The first mapping returning names wins, then matching date frames, then
// default date frames, then default time frames.
func (c *Calendar) TimeFramesFor(day time.Time) []Frame {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var names []string
	for _, name := range c.mappingOrder {
		if names = c.mappings[name](dayStart); len(names) > 0 {
			break
		}
	}

	if len(names) == 0 {
		matched := make([]dateFrame, 0, 2)
		for _, name := range c.dateOrder {
			df := c.dateFrames[name]
			if df.matches(dayStart) {
				matched = append(matched, df)
			}
		}
		if len(matched) == 0 {
			for _, name := range c.dateOrder {
				if df := c.dateFrames[name]; df.Default {
					matched = append(matched, df)
				}
			}
		}
		for _, df := range matched {
			names = append(names, df.Targets...)
		}
	}

	if len(names) == 0 {
		for _, name := range c.timeOrder {
			if c.timeFrames[name].Default {
				names = append(names, name)
			}
		}
	}

	seen := map[string]struct{}{}
	out := make([]Frame, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tf, ok := c.timeFrames[name]
		if !ok {
			continue
		}
		out = append(out, Frame{
			Name:    tf.Name,
			Start:   dayStart.Add(time.Duration(tf.startMin) * time.Minute),
			End:     dayStart.Add(time.Duration(tf.endMin) * time.Minute),
			Working: tf.Working,
			Color:   tf.Color,
		})
	}
	slices.SortStableFunc(out, func(a, b Frame) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// Frames resolves every frame overlapping [start, end), clipped to that range.
func (c *Calendar) Frames(start, end time.Time) []Frame {
	if !end.After(start) || c.Empty() {
		return nil
	}
	var out []Frame
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for day.Before(end) {
		for _, frame := range c.TimeFramesFor(day) {
			if frame.Start.Before(start) {
				frame.Start = start
			}
			if frame.End.After(end) {
				frame.End = end
			}
			if frame.End.After(frame.Start) {
				out = append(out, frame)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func (df dateFrame) matches(day time.Time) bool {
	y, m, d := day.Date()
	key := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !df.date.IsZero() {
		return key.Equal(df.date)
	}
	if !df.start.IsZero() && key.Before(df.start) {
		return false
	}
	if !df.end.IsZero() && key.After(df.end) {
		return false
	}
	if len(df.weekdays) > 0 && !slices.Contains(df.weekdays, day.Weekday()) {
		return false
	}
	return !df.start.IsZero() || !df.end.IsZero() || len(df.weekdays) > 0
}

func parseTimeFrame(frame TimeFrame) (timeFrame, error) {
	frame.Name = strings.TrimSpace(frame.Name)
	if frame.Name == "" {
		return timeFrame{}, fmt.Errorf("name is required: %w", ErrInvalidTimeFrame)
	}
	startMin := 0
	if strings.TrimSpace(frame.Start) != "" {
		v, err := parseClock(frame.Start)
		if err != nil {
			return timeFrame{}, fmt.Errorf("frame %q start: %w", frame.Name, err)
		}
		startMin = v
	}
	endMin := 24 * 60
	if strings.TrimSpace(frame.End) != "" {
		v, err := parseClock(frame.End)
		if err != nil {
			return timeFrame{}, fmt.Errorf("frame %q end: %w", frame.Name, err)
		}
		endMin = v
	}
	if endMin <= startMin {
		return timeFrame{}, fmt.Errorf("frame %q ends before it starts: %w", frame.Name, ErrInvalidTimeFrame)
	}
	return timeFrame{TimeFrame: frame, startMin: startMin, endMin: endMin}, nil
}

// parseClock parses "HH:MM" into minutes after midnight; "24:00" is allowed.
func parseClock(raw string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: %w", raw, ErrInvalidTimeFrame)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", raw, ErrInvalidTimeFrame)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", raw, ErrInvalidTimeFrame)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range: %w", raw, ErrInvalidTimeFrame)
	}
	return h*60 + m, nil
}

func parseDateFrame(frame DateFrame) (dateFrame, error) {
	frame.Name = strings.TrimSpace(frame.Name)
	if frame.Name == "" {
		return dateFrame{}, fmt.Errorf("name is required: %w", ErrInvalidDateFrame)
	}
	out := dateFrame{DateFrame: frame}
	var err error
	if out.date, err = parseDay(frame.Date); err != nil {
		return dateFrame{}, fmt.Errorf("frame %q date: %w", frame.Name, err)
	}
	if out.start, err = parseDay(frame.Start); err != nil {
		return dateFrame{}, fmt.Errorf("frame %q start: %w", frame.Name, err)
	}
	if out.end, err = parseDay(frame.End); err != nil {
		return dateFrame{}, fmt.Errorf("frame %q end: %w", frame.Name, err)
	}
	if !out.start.IsZero() && !out.end.IsZero() && out.end.Before(out.start) {
		return dateFrame{}, fmt.Errorf("frame %q ends before it starts: %w", frame.Name, ErrInvalidDateFrame)
	}
	for _, raw := range frame.Weekdays {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return dateFrame{}, fmt.Errorf("frame %q weekday %q: %w", frame.Name, raw, ErrInvalidDateFrame)
		}
		out.weekdays = append(out.weekdays, wd)
	}
	if len(frame.Targets) == 0 {
		return dateFrame{}, fmt.Errorf("frame %q needs at least one target: %w", frame.Name, ErrInvalidDateFrame)
	}
	return out, nil
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", raw, ErrInvalidDateFrame)
	}
	return t, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}
