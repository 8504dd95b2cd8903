package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/gantt"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/plan.yaml")
	if cfg.Data.Path != "/tmp/plan.yaml" {
		t.Fatalf("unexpected data path %q", cfg.Data.Path)
	}
	if cfg.Chart.ViewScale != "day" || cfg.Magnet.Column != "15 minutes" {
		t.Fatalf("unexpected chart defaults %#v %#v", cfg.Chart, cfg.Magnet)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	opts, err := cfg.ChartOptions()
	if err != nil {
		t.Fatalf("ChartOptions() error = %v", err)
	}
	if opts.CurrentDate != gantt.CurrentDateLine || !opts.ShowSide || opts.SideWidth != 160 {
		t.Fatalf("unexpected default options %#v", opts)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/plan.yaml")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Data.Path != defaults.Data.Path {
		t.Fatalf("expected default data path, got %q", cfg.Data.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[chart]
view_scale = "week"
column_width = 48.0
from = "2024-03-04"
to = "2024-04-01T00:00:00Z"
auto_expand = "both"

[magnet]
column = "1 day"
shift = "6 hours"

[side]
show = false

[current_date]
mode = "column"
value = "2024-03-12"

[frame_modes]
non_working = "cropped"

[[time_frames]]
name = "weekend"
working = false

[[date_frames]]
name = "weekends"
weekdays = ["saturday", "sunday"]
targets = ["weekend"]

[data]
path = "/custom/plan.csv"
auto_save = true

[server]
http_bind = "127.0.0.1:9090"

[logging]
level = "debug"

[style]
row_height = 20

[keys]
save = "S"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/plan.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Data.Path != "/custom/plan.csv" || !cfg.Data.AutoSave {
		t.Fatalf("unexpected data config %#v", cfg.Data)
	}
	if cfg.Server.HTTPBind != "127.0.0.1:9090" || cfg.Server.APIEndpoint != "/api/v1" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	if cfg.Keys.Save != "S" || cfg.Keys.Reload != "" {
		t.Fatalf("unexpected key overrides %#v", cfg.Keys)
	}
	if cfg.Style.RowHeight != 20 || cfg.Style.HeaderHeight != 32 {
		t.Fatalf("expected style override merged with defaults, got %#v", cfg.Style)
	}

	opts, err := cfg.ChartOptions()
	if err != nil {
		t.Fatalf("ChartOptions() error = %v", err)
	}
	if opts.ViewScale != domain.UnitWeek || opts.ColumnWidth != 48 || opts.AutoExpand != gantt.AutoExpandBoth {
		t.Fatalf("unexpected chart options %#v", opts)
	}
	if !opts.FromDate.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) || !opts.ToDate.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range %s..%s", opts.FromDate, opts.ToDate)
	}
	if opts.ShowSide || opts.ShiftColumnMagnet != "6 hours" {
		t.Fatalf("unexpected side/magnet options %#v", opts)
	}
	if opts.CurrentDate != gantt.CurrentDateColumn || !opts.CurrentDateValue.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected current date %q %s", opts.CurrentDate, opts.CurrentDateValue)
	}
	if opts.TimeFramesNonWorkingMode != gantt.FrameCropped || opts.TimeFramesWorkingMode != gantt.FrameHidden {
		t.Fatalf("unexpected frame modes %#v", opts)
	}
	if len(opts.TimeFrames) != 1 || opts.TimeFrames[0].Working == nil || *opts.TimeFrames[0].Working {
		t.Fatalf("expected non-working weekend frame, got %#v", opts.TimeFrames)
	}
	if len(opts.DateFrames) != 1 || len(opts.DateFrames[0].Weekdays) != 2 {
		t.Fatalf("unexpected date frames %#v", opts.DateFrames)
	}
}

func TestLocationResolution(t *testing.T) {
	cfg := Default("")
	cfg.Chart.Location = ""
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC for empty location, got %v %v", loc, err)
	}
	cfg.Chart.Location = "Not/AZone"
	if _, err := cfg.Location(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "view scale", mutate: func(c *Config) { c.Chart.ViewScale = "fortnight" }, want: ErrInvalidConfig},
		{name: "auto expand", mutate: func(c *Config) { c.Chart.AutoExpand = "up" }, want: gantt.ErrInvalidOptions},
		{name: "from date", mutate: func(c *Config) { c.Chart.From = "March" }, want: ErrInvalidConfig},
		{name: "inverted range", mutate: func(c *Config) {
			c.Chart.From = "2024-03-10"
			c.Chart.To = "2024-03-01"
		}, want: domain.ErrInvalidDateRange},
		{name: "magnet", mutate: func(c *Config) { c.Magnet.Column = "soon" }, want: ErrInvalidConfig},
		{name: "frame mode", mutate: func(c *Config) { c.FrameModes.Working = "faded" }, want: gantt.ErrInvalidOptions},
		{name: "time frame", mutate: func(c *Config) {
			c.TimeFrames = []calendar.TimeFrame{{Name: "late", Start: "23:00", End: "22:00"}}
		}, want: calendar.ErrInvalidTimeFrame},
		{name: "endpoint", mutate: func(c *Config) { c.Server.APIEndpoint = "api" }, want: ErrInvalidConfig},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, want: ErrInvalidConfig},
		{name: "width", mutate: func(c *Config) { c.Chart.Width = -1 }, want: ErrInvalidConfig},
		{name: "style", mutate: func(c *Config) { c.Style.RowHeight = -1 }, want: ErrInvalidConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default("/tmp/plan.yaml")
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[chart]\nview_scale = \"eon\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/tmp/plan.yaml")); err == nil {
		t.Fatal("expected error for invalid view scale")
	}

	if err := os.WriteFile(path, []byte("[chart\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/tmp/plan.yaml")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
