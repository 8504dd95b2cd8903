package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/gantt/internal/adapters/server"
	"github.com/hylla/gantt/internal/adapters/server/common"
	"github.com/hylla/gantt/internal/adapters/storage/datafile"
	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/config"
	"github.com/hylla/gantt/internal/platform"
	"github.com/hylla/gantt/internal/render"
	"github.com/hylla/gantt/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dataPath   string
	appName    string
	devMode    bool

	stdout io.Writer
	stderr io.Writer
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version), fang.WithoutManpage())
}

// newRootCommand builds the command tree. The bare command starts the TUI.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	opts.devMode = version == "dev"
	if envDev, ok := parseBoolEnv("GANTT_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	opts.appName = "gantt"
	if envApp := strings.TrimSpace(os.Getenv("GANTT_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:           "gantt",
		Short:         "Gantt charts for plain data files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dataPath, "data", "", "path to the chart data file (.yaml, .json, .toml, .csv)")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		tuiCmd(opts),
		renderCmd(opts),
		exportCmd(opts),
		importCmd(opts),
		serveCmd(opts),
		pathsCmd(opts),
	)
	return root
}

// tuiCmd builds the explicit tui command.
func tuiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit the chart in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

// renderCmd builds the render command.
func renderCmd(opts *rootOptions) *cobra.Command {
	var (
		format  string
		outPath string
		width   int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the chart as SVG or plain text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.Context(), "render", true)
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.flow("render", func() error {
				return runRender(cmd.Context(), rt, format, outPath, width)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (svg, text)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file path ('-' for stdout)")
	cmd.Flags().IntVarP(&width, "width", "w", 100, "text chart width in characters")
	return cmd
}

// exportCmd builds the export command.
func exportCmd(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the bound data and chart geometry as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.Context(), "export", true)
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.flow("export", func() error {
				return runExport(cmd.Context(), rt, outPath)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file path ('-' for stdout)")
	return cmd
}

// importCmd builds the import command.
func importCmd(opts *rootOptions) *cobra.Command {
	var (
		inPath   string
		snapshot bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the chart data with another data file or an exported snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			rt, err := opts.open(cmd.Context(), "import", true)
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.flow("import", func() error {
				return runImport(cmd.Context(), rt, inPath, snapshot)
			})
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "input file")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "read an export snapshot instead of a data file")
	return cmd
}

// serveCmd builds the serve command.
func serveCmd(opts *rootOptions) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(cmd.Context(), "serve", true)
			if err != nil {
				return err
			}
			defer rt.close()
			if strings.TrimSpace(bind) == "" {
				bind = rt.cfg.Server.HTTPBind
			}
			return rt.flow("serve", func() error {
				return server.Run(cmd.Context(), server.Config{
					HTTPBind:      bind,
					APIEndpoint:   rt.cfg.Server.APIEndpoint,
					MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
					ServerName:    opts.appName,
					ServerVersion: version,
				}, server.Dependencies{
					Chart:  common.NewAppServiceAdapter(rt.svc),
					Logger: rt.logger.Sink(),
				})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "http", "", "listen address (defaults to server.http_bind)")
	return cmd
}

// pathsCmd builds the paths command.
func pathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", opts.resolveConfigPath(paths))
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "data: %s\n", paths.DataPath)
			_, _ = fmt.Fprintf(out, "logs: %s\n", paths.LogDir)
			return nil
		},
	}
}

// runtime is the state shared by the commands that operate on a chart.
type runtime struct {
	cfg      config.Config
	logger   *runtimeLogger
	store    *datafile.File
	svc      *app.Service
	dataPath string
	stdout   io.Writer
}

// paths resolves platform paths for the selected app name and mode.
func (o *rootOptions) paths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// devLogDir keeps a configured dev log dir and falls back to the platform log dir.
func devLogDir(configured string, paths platform.Paths) string {
	if dir := strings.TrimSpace(configured); dir != "" {
		return dir
	}
	return paths.LogDir
}

// resolveConfigPath applies the flag, then GANTT_CONFIG, then the platform default.
func (o *rootOptions) resolveConfigPath(paths platform.Paths) string {
	if strings.TrimSpace(o.configPath) != "" {
		return o.configPath
	}
	if envPath := strings.TrimSpace(os.Getenv("GANTT_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// open loads config, configures logging, and binds the data file to a chart service.
func (o *rootOptions) open(ctx context.Context, command string, console bool) (*runtime, error) {
	paths, err := o.paths()
	if err != nil {
		return nil, err
	}
	configPath := o.resolveConfigPath(paths)

	dataPath := strings.TrimSpace(o.dataPath)
	dataOverridden := dataPath != ""
	if !dataOverridden {
		if envPath := strings.TrimSpace(os.Getenv("GANTT_DATA")); envPath != "" {
			dataPath = envPath
			dataOverridden = true
		} else {
			dataPath = paths.DataPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dataPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dataOverridden {
		cfg.Data.Path = dataPath
	}
	cfg.Logging.DevFile.Dir = devLogDir(cfg.Logging.DevFile.Dir, paths)

	logger, err := newRuntimeLogger(o.stderr, o.appName, o.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the chart is active.
	logger.SetConsoleEnabled(console)

	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "data_path", cfg.Data.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	rt.stdout = o.stdout
	return rt, nil
}

// newRuntime opens the data file and builds the chart service from cfg.
func newRuntime(ctx context.Context, cfg config.Config, logger *runtimeLogger) (*runtime, error) {
	store, err := datafile.Open(cfg.Data.Path)
	if err != nil {
		logger.Error("data file open failed", "data_path", cfg.Data.Path, "err", err)
		return nil, fmt.Errorf("open data file: %w", err)
	}
	opts, err := cfg.ChartOptions()
	if err != nil {
		return nil, fmt.Errorf("chart options: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	svc, err := app.NewService(store, uuid.NewString, time.Now, app.ServiceConfig{
		Options:  opts,
		Width:    cfg.Chart.Width,
		Location: loc,
		Logger:   logger.Sink(),
		AutoSave: cfg.Data.AutoSave,
	})
	if err != nil {
		return nil, fmt.Errorf("create chart service: %w", err)
	}
	if err := svc.Reload(ctx); err != nil {
		logger.Error("data file load failed", "data_path", store.Path(), "err", err)
		return nil, fmt.Errorf("load data file %q: %w", store.Path(), err)
	}
	logger.Info("data file loaded", "data_path", store.Path(), "format", store.Format(), "auto_save", cfg.Data.AutoSave)
	return &runtime{cfg: cfg, logger: logger, store: store, svc: svc, dataPath: store.Path()}, nil
}

// flow logs the start and outcome of one command.
func (r *runtime) flow(command string, fn func() error) error {
	r.logger.Info("command flow start", "command", command)
	if err := fn(); err != nil {
		r.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	r.logger.Info("command flow complete", "command", command)
	return nil
}

// close releases the runtime log sinks.
func (r *runtime) close() {
	if err := r.logger.Close(); err != nil && r.logger.shouldLogToSink(r.logger.consoleSink) {
		r.logger.Warn("close runtime log sink failed", "err", err)
	}
}

// runTUI starts the terminal chart.
func runTUI(ctx context.Context, opts *rootOptions) error {
	rt, err := opts.open(ctx, "tui", false)
	if err != nil {
		return err
	}
	defer rt.close()

	m := tui.NewModel(
		rt.svc,
		tui.WithTitle(filepath.Base(rt.dataPath)),
		tui.WithKeyConfig(tui.KeyConfig{
			Reload:        rt.cfg.Keys.Reload,
			Save:          rt.cfg.Keys.Save,
			TaskInfo:      rt.cfg.Keys.TaskInfo,
			CopyTaskRange: rt.cfg.Keys.CopyTaskRange,
			ZoomIn:        rt.cfg.Keys.ZoomIn,
			ZoomOut:       rt.cfg.Keys.ZoomOut,
		}),
	)
	return rt.flow("tui", func() error {
		rt.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// runRender writes the chart in format to outPath.
func runRender(ctx context.Context, rt *runtime, format, outPath string, width int) error {
	snap, err := rt.svc.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("chart snapshot: %w", err)
	}
	return writeOutput(outPath, rt.stdout, func(w io.Writer) error {
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "svg":
			return render.SVG(w, snap, rt.cfg.Style)
		case "text", "":
			return render.Text(w, snap, render.TextOptions{Width: width})
		default:
			return fmt.Errorf("unsupported render format %q (want svg or text)", format)
		}
	})
}

// runExport writes the export snapshot as indented JSON.
func runExport(ctx context.Context, rt *runtime, outPath string) error {
	snap, err := rt.svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')
	return writeOutput(outPath, rt.stdout, func(w io.Writer) error {
		_, err := w.Write(encoded)
		return err
	})
}

// runImport replaces the bound data and writes it to the configured data file.
func runImport(ctx context.Context, rt *runtime, inPath string, snapshot bool) error {
	if snapshot {
		content, err := os.ReadFile(inPath)
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		var snap app.Snapshot
		if err := json.Unmarshal(content, &snap); err != nil {
			return fmt.Errorf("decode snapshot json: %w", err)
		}
		if err := rt.svc.ImportSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("import snapshot: %w", err)
		}
	} else {
		src, err := datafile.Open(inPath)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		if err := rt.svc.LoadFrom(ctx, src); err != nil {
			return fmt.Errorf("import data: %w", err)
		}
	}
	if err := rt.svc.Save(ctx); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	rt.logger.Info("data file written", "data_path", rt.dataPath, "source", inPath)
	return nil
}

// writeOutput writes to stdout for "-" and to a created file otherwise.
func writeOutput(outPath string, stdout io.Writer, write func(io.Writer) error) error {
	if outPath == "-" || strings.TrimSpace(outPath) == "" {
		if err := write(stdout); err != nil {
			return fmt.Errorf("write to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	return f.Close()
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
