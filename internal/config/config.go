package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/gantt"
	"github.com/hylla/gantt/internal/render"
)

// ErrInvalidConfig is returned when a loaded config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// dateLayout is the day format accepted for chart bounds and the current date.
const dateLayout = "2006-01-02"

type Config struct {
	Chart       ChartConfig          `toml:"chart"`
	Magnet      MagnetConfig         `toml:"magnet"`
	Side        SideConfig           `toml:"side"`
	CurrentDate CurrentDateConfig    `toml:"current_date"`
	FrameModes  FrameModesConfig     `toml:"frame_modes"`
	TimeFrames  []calendar.TimeFrame `toml:"time_frames"`
	DateFrames  []calendar.DateFrame `toml:"date_frames"`
	Data        DataConfig           `toml:"data"`
	Server      ServerConfig         `toml:"server"`
	Logging     LoggingConfig        `toml:"logging"`
	Style       render.Style         `toml:"style"`
	Keys        KeysConfig           `toml:"keys"`
}

type ChartConfig struct {
	ViewScale      string  `toml:"view_scale"`
	ColumnWidth    float64 `toml:"column_width"`
	Width          float64 `toml:"width"`
	From           string  `toml:"from"`
	To             string  `toml:"to"`
	AutoExpand     string  `toml:"auto_expand"`
	TaskOutOfRange string  `toml:"task_out_of_range"`
	MaxHeight      float64 `toml:"max_height"`
	Location       string  `toml:"location"`
}

type MagnetConfig struct {
	Column string `toml:"column"`
	Shift  string `toml:"shift"`
}

type SideConfig struct {
	Show          bool    `toml:"show"`
	AllowResizing bool    `toml:"allow_resizing"`
	Width         float64 `toml:"width"`
}

type CurrentDateConfig struct {
	Mode  string `toml:"mode"`
	Value string `toml:"value"`
}

type FrameModesConfig struct {
	Working    string `toml:"working"`
	NonWorking string `toml:"non_working"`
}

type DataConfig struct {
	Path     string `toml:"path"`
	AutoSave bool   `toml:"auto_save"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// KeysConfig overrides TUI key bindings. Blank values keep the defaults.
type KeysConfig struct {
	Reload        string `toml:"reload"`
	Save          string `toml:"save"`
	TaskInfo      string `toml:"task_info"`
	CopyTaskRange string `toml:"copy_task_range"`
	ZoomIn        string `toml:"zoom_in"`
	ZoomOut       string `toml:"zoom_out"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func Default(dataPath string) Config {
	opts := gantt.DefaultOptions()
	return Config{
		Chart: ChartConfig{
			ViewScale:      string(opts.ViewScale),
			AutoExpand:     string(opts.AutoExpand),
			TaskOutOfRange: string(opts.TaskOutOfRange),
			Location:       "UTC",
		},
		Magnet: MagnetConfig{
			Column: opts.ColumnMagnet,
		},
		Side: SideConfig{
			Show:          opts.ShowSide,
			AllowResizing: opts.AllowSideResizing,
			Width:         160,
		},
		CurrentDate: CurrentDateConfig{
			Mode: string(opts.CurrentDate),
		},
		FrameModes: FrameModesConfig{
			Working:    string(opts.TimeFramesWorkingMode),
			NonWorking: string(opts.TimeFramesNonWorkingMode),
		},
		Data: DataConfig{
			Path: dataPath,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".gantt/log",
			},
		},
		Style: render.DefaultStyle(),
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.ChartOptions(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Chart.Width < 0 {
		return fmt.Errorf("chart.width must be >= 0: %w", ErrInvalidConfig)
	}
	for _, endpoint := range []struct{ key, value string }{
		{"server.api_endpoint", c.Server.APIEndpoint},
		{"server.mcp_endpoint", c.Server.MCPEndpoint},
	} {
		if v := strings.TrimSpace(endpoint.value); v != "" && !strings.HasPrefix(v, "/") {
			return fmt.Errorf("%s must start with /: %q: %w", endpoint.key, v, ErrInvalidConfig)
		}
	}
	if _, err := charmLog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, ErrInvalidConfig)
	}
	if c.Style.RowHeight < 0 || c.Style.HeaderHeight < 0 || c.Style.SideWidth < 0 || c.Style.FontSize < 0 {
		return fmt.Errorf("style sizes must be >= 0: %w", ErrInvalidConfig)
	}
	return nil
}

// Location resolves chart.location; empty means UTC.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Chart.Location)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid chart.location %q: %w", name, ErrInvalidConfig)
	}
	return loc, nil
}

// ChartOptions maps the chart sections onto validated chart options.
func (c Config) ChartOptions() (gantt.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return gantt.Options{}, err
	}
	opts := gantt.DefaultOptions()
	unit, err := domain.ParseUnit(c.Chart.ViewScale)
	if err != nil {
		return gantt.Options{}, fmt.Errorf("invalid chart.view_scale %q: %w", c.Chart.ViewScale, ErrInvalidConfig)
	}
	opts.ViewScale = unit
	opts.ColumnWidth = c.Chart.ColumnWidth
	opts.MaxHeight = c.Chart.MaxHeight
	opts.AutoExpand = gantt.AutoExpand(strings.ToLower(strings.TrimSpace(c.Chart.AutoExpand)))
	opts.TaskOutOfRange = gantt.OutOfRange(strings.ToLower(strings.TrimSpace(c.Chart.TaskOutOfRange)))
	if opts.FromDate, err = parseDate("chart.from", c.Chart.From, loc); err != nil {
		return gantt.Options{}, err
	}
	if opts.ToDate, err = parseDate("chart.to", c.Chart.To, loc); err != nil {
		return gantt.Options{}, err
	}

	opts.ColumnMagnet = strings.TrimSpace(c.Magnet.Column)
	opts.ShiftColumnMagnet = strings.TrimSpace(c.Magnet.Shift)
	for key, raw := range map[string]string{"magnet.column": opts.ColumnMagnet, "magnet.shift": opts.ShiftColumnMagnet} {
		if raw == "" {
			continue
		}
		if _, ok := domain.ParseMagnet(raw); !ok {
			return gantt.Options{}, fmt.Errorf("invalid %s %q: %w", key, raw, ErrInvalidConfig)
		}
	}

	opts.ShowSide = c.Side.Show
	opts.AllowSideResizing = c.Side.AllowResizing
	opts.SideWidth = c.Side.Width

	opts.CurrentDate = gantt.CurrentDateMode(strings.ToLower(strings.TrimSpace(c.CurrentDate.Mode)))
	if opts.CurrentDateValue, err = parseDate("current_date.value", c.CurrentDate.Value, loc); err != nil {
		return gantt.Options{}, err
	}

	opts.TimeFramesWorkingMode = gantt.FrameMode(strings.ToLower(strings.TrimSpace(c.FrameModes.Working)))
	opts.TimeFramesNonWorkingMode = gantt.FrameMode(strings.ToLower(strings.TrimSpace(c.FrameModes.NonWorking)))
	opts.TimeFrames = c.TimeFrames
	opts.DateFrames = c.DateFrames
	opts = opts.Clone()

	if err := opts.Validate(); err != nil {
		return gantt.Options{}, fmt.Errorf("chart options: %w", err)
	}
	return opts, nil
}

// parseDate accepts an empty value, a day, or an RFC3339 instant.
func parseDate(key, raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", key, raw, ErrInvalidConfig)
	}
	return t.In(loc), nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
