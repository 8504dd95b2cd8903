package gantt

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
)

// ErrInvalidOptions is returned when chart options fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// CurrentDateMode selects how the current date marker is exposed.
type CurrentDateMode string

// CurrentDateLine and related constants define current date modes.
const (
	CurrentDateLine   CurrentDateMode = "line"
	CurrentDateColumn CurrentDateMode = "column"
	CurrentDateNone   CurrentDateMode = "none"
)

// AutoExpand selects which side of the range grows when a task leaves it.
type AutoExpand string

// AutoExpandNone and related constants define auto-expand policies.
const (
	AutoExpandNone  AutoExpand = "none"
	AutoExpandLeft  AutoExpand = "left"
	AutoExpandRight AutoExpand = "right"
	AutoExpandBoth  AutoExpand = "both"
)

func (a AutoExpand) allowsLeft() bool {
	return a == AutoExpandLeft || a == AutoExpandBoth
}

func (a AutoExpand) allowsRight() bool {
	return a == AutoExpandRight || a == AutoExpandBoth
}

// OutOfRange selects how tasks outside the configured range are handled.
type OutOfRange string

// OutOfRangeTruncate and related constants define out-of-range policies.
const (
	OutOfRangeTruncate OutOfRange = "truncate"
	OutOfRangeExpand   OutOfRange = "expand"
)

// FrameMode selects how a kind of time frame affects columns.
type FrameMode string

// FrameHidden and related constants define frame modes.
const (
	FrameHidden  FrameMode = "hidden"
	FrameVisible FrameMode = "visible"
	FrameCropped FrameMode = "cropped"
)

// Options holds the observable chart configuration.
type Options struct {
	ViewScale                domain.Unit
	ColumnMagnet             string
	ShiftColumnMagnet        string
	ShowSide                 bool
	AllowSideResizing        bool
	SideWidth                float64
	CurrentDate              CurrentDateMode
	CurrentDateValue         time.Time
	AutoExpand               AutoExpand
	TaskOutOfRange           OutOfRange
	MaxHeight                float64
	TimeFrames               []calendar.TimeFrame
	DateFrames               []calendar.DateFrame
	TimeFramesWorkingMode    FrameMode
	TimeFramesNonWorkingMode FrameMode
	FromDate                 time.Time
	ToDate                   time.Time
	ColumnWidth              float64
}

// DefaultOptions returns the documented option defaults.
// A zero CurrentDateValue means "now" according to the chart clock.
func DefaultOptions() Options {
	return Options{
		ViewScale:                domain.UnitDay,
		ColumnMagnet:             "15 minutes",
		ShowSide:                 true,
		AllowSideResizing:        true,
		CurrentDate:              CurrentDateLine,
		AutoExpand:               AutoExpandNone,
		TaskOutOfRange:           OutOfRangeTruncate,
		TimeFramesWorkingMode:    FrameHidden,
		TimeFramesNonWorkingMode: FrameVisible,
	}
}

// Clone deep-copies the frame lists.
func (o Options) Clone() Options {
	out := o
	out.TimeFrames = cloneTimeFrames(o.TimeFrames)
	out.DateFrames = cloneDateFrames(o.DateFrames)
	return out
}

// Validate checks enum values, ranges and frame definitions.
func (o Options) Validate() error {
	if !o.ViewScale.Valid() {
		return fmt.Errorf("view scale %q: %w", o.ViewScale, ErrInvalidOptions)
	}
	switch o.CurrentDate {
	case CurrentDateLine, CurrentDateColumn, CurrentDateNone:
	default:
		return fmt.Errorf("current date mode %q: %w", o.CurrentDate, ErrInvalidOptions)
	}
	switch o.AutoExpand {
	case AutoExpandNone, AutoExpandLeft, AutoExpandRight, AutoExpandBoth:
	default:
		return fmt.Errorf("auto expand %q: %w", o.AutoExpand, ErrInvalidOptions)
	}
	switch o.TaskOutOfRange {
	case OutOfRangeTruncate, OutOfRangeExpand:
	default:
		return fmt.Errorf("task out of range %q: %w", o.TaskOutOfRange, ErrInvalidOptions)
	}
	for _, mode := range []FrameMode{o.TimeFramesWorkingMode, o.TimeFramesNonWorkingMode} {
		switch mode {
		case FrameHidden, FrameVisible, FrameCropped:
		default:
			return fmt.Errorf("time frame mode %q: %w", mode, ErrInvalidOptions)
		}
	}
	if o.ColumnWidth < 0 || o.SideWidth < 0 || o.MaxHeight < 0 {
		return fmt.Errorf("column width, side width and max height must be >= 0: %w", ErrInvalidOptions)
	}
	if !o.FromDate.IsZero() && !o.ToDate.IsZero() && o.ToDate.Before(o.FromDate) {
		return fmt.Errorf("to date before from date: %w", domain.ErrInvalidDateRange)
	}
	scratch := calendar.New()
	if err := scratch.RegisterTimeFrames(o.TimeFrames); err != nil {
		return err
	}
	if err := scratch.RegisterDateFrames(o.DateFrames); err != nil {
		return err
	}
	return nil
}

func cloneTimeFrames(in []calendar.TimeFrame) []calendar.TimeFrame {
	if in == nil {
		return nil
	}
	out := make([]calendar.TimeFrame, len(in))
	for i, frame := range in {
		if frame.Working != nil {
			working := *frame.Working
			frame.Working = &working
		}
		out[i] = frame
	}
	return out
}

func cloneDateFrames(in []calendar.DateFrame) []calendar.DateFrame {
	if in == nil {
		return nil
	}
	out := make([]calendar.DateFrame, len(in))
	for i, frame := range in {
		frame.Weekdays = slices.Clone(frame.Weekdays)
		frame.Targets = slices.Clone(frame.Targets)
		out[i] = frame
	}
	return out
}
