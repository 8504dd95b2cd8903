package tui

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the heading shown above the chart.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// WithSideWidth sets the width of the row-name column in cells.
func WithSideWidth(width int) Option {
	return func(m *Model) {
		if width >= 0 {
			m.sideWidth = width
		}
	}
}

// WithClipboard replaces the clipboard writer used by the copy key.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}

// WithKeyConfig applies key overrides on top of the default bindings.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}
