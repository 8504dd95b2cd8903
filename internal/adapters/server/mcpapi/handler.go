// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/gantt/internal/adapters/server/common"
	"github.com/hylla/gantt/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter with chart read tools and any
// mutation tools the chart service also implements.
func NewHandler(cfg Config, chart common.ChartReader) (*Handler, error) {
	if chart == nil {
		return nil, fmt.Errorf("chart service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerChartTools(mcpSrv, chart)
	if data, ok := chart.(common.DataService); ok {
		registerDataTools(mcpSrv, data)
	}
	if timeFrames, ok := chart.(common.TimeFrameService); ok {
		registerTimeFrameTools(mcpSrv, timeFrames)
	}
	if tasks, ok := chart.(common.TaskEditor); ok {
		registerTaskTools(mcpSrv, tasks)
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "gantt"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// rowsArgs is the argument shape shared by load and remove tools.
type rowsArgs struct {
	Rows []domain.RowData `json:"rows"`
}

// registerChartTools registers the read-only `gantt.*` tools.
func registerChartTools(srv *mcpserver.MCPServer, chart common.ChartReader) {
	srv.AddTool(
		mcp.NewTool(
			"gantt.chart",
			mcp.WithDescription("Return the computed chart geometry: columns, rows, task bars and the current date marker."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			snap, err := chart.Chart(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(snap)
			if err != nil {
				return nil, fmt.Errorf("encode chart result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.get_data",
			mcp.WithDescription("Return the bound row collection."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := chart.Data(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"rows": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode get_data result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.date_by_position",
			mcp.WithDescription("Resolve the date found at one horizontal chart position."),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Horizontal position in chart units")),
			mcp.WithBoolean("magnet", mcp.Description("Snap the date with the column magnet")),
			mcp.WithBoolean("precision", mcp.Description("Use the shift column magnet")),
			mcp.WithBoolean("disable_expand", mcp.Description("Do not auto-expand the chart range")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			x, err := req.RequireFloat("x")
			if err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			date, err := chart.DateByPosition(ctx, common.PositionRequest{
				X:             x,
				Magnet:        req.GetBool("magnet", false),
				Precision:     req.GetBool("precision", false),
				DisableExpand: req.GetBool("disable_expand", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(date)
			if err != nil {
				return nil, fmt.Errorf("encode date_by_position result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.position_by_date",
			mcp.WithDescription("Resolve the horizontal chart position of one date."),
			mcp.WithString("date", mcp.Required(), mcp.Description("RFC3339 instant or YYYY-MM-DD day")),
			mcp.WithBoolean("disable_expand", mcp.Description("Do not auto-expand the chart range")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			raw, err := req.RequireString("date")
			if err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			date, err := common.ParseDate(raw)
			if err != nil {
				return toolResultFromError(err), nil
			}
			pos, err := chart.PositionByDate(ctx, common.DateRequest{
				Date:          date,
				DisableExpand: req.GetBool("disable_expand", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(pos)
			if err != nil {
				return nil, fmt.Errorf("encode position_by_date result: %w", err)
			}
			return result, nil
		},
	)
}

// registerDataTools registers row collection mutation tools.
func registerDataTools(srv *mcpserver.MCPServer, data common.DataService) {
	rowsParam := mcp.WithArray(
		"rows",
		mcp.Required(),
		mcp.Description("Rows as {id, name, tasks: [{id, name, from, to, color, priority, content}]}"),
		mcp.Items(map[string]any{"type": "object"}),
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.load_data",
			mcp.WithDescription("Upsert rows and their tasks into the chart."),
			rowsParam,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args rowsArgs
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			rows, err := data.LoadData(ctx, common.RowsRequest{Rows: args.Rows})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"rows": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode load_data result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.remove_data",
			mcp.WithDescription("Remove rows by id. A row listing tasks removes only those tasks."),
			rowsParam,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args rowsArgs
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			rows, err := data.RemoveData(ctx, common.RowsRequest{Rows: args.Rows})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"rows": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode remove_data result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.clear_data",
			mcp.WithDescription("Unbind every row from the chart."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := data.ClearData(ctx); err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText("cleared"), nil
		},
	)
}

// registerTimeFrameTools registers calendar registration tools.
func registerTimeFrameTools(srv *mcpserver.MCPServer, timeFrames common.TimeFrameService) {
	srv.AddTool(
		mcp.NewTool(
			"gantt.register_timeframes",
			mcp.WithDescription("Register time frames ({name, start, end, working, default, color}) and date frames ({name, date, start, end, weekdays, targets, default})."),
			mcp.WithArray("time_frames", mcp.Description("Time frames"), mcp.Items(map[string]any{"type": "object"})),
			mcp.WithArray("date_frames", mcp.Description("Date frames"), mcp.Items(map[string]any{"type": "object"})),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.TimeFramesRequest
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if err := timeFrames.RegisterTimeFrames(ctx, args); err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText("registered"), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.clear_timeframes",
			mcp.WithDescription("Clear registered time frames and/or date frames. With no flag set both are cleared."),
			mcp.WithBoolean("time_frames", mcp.Description("Clear time frames")),
			mcp.WithBoolean("date_frames", mcp.Description("Clear date frames")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			err := timeFrames.ClearTimeFrames(ctx, common.ClearTimeFramesRequest{
				TimeFrames: req.GetBool("time_frames", false),
				DateFrames: req.GetBool("date_frames", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText("cleared"), nil
		},
	)
}

// registerTaskTools registers positional task edit tools.
func registerTaskTools(srv *mcpserver.MCPServer, tasks common.TaskEditor) {
	srv.AddTool(
		mcp.NewTool(
			"gantt.edit_task",
			mcp.WithDescription("Move a task, or drag one of its edges, to a horizontal position."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("edge", mcp.Description("move, from or to"), mcp.Enum("move", "from", "to")),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Target position in chart units")),
			mcp.WithBoolean("magnet", mcp.Description("Snap with the column magnet")),
			mcp.WithBoolean("precision", mcp.Description("Use the shift column magnet")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			x, err := req.RequireFloat("x")
			if err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			view, err := tasks.EditTask(ctx, common.EditTaskRequest{
				TaskID:    taskID,
				Edge:      req.GetString("edge", ""),
				X:         x,
				Magnet:    req.GetBool("magnet", false),
				Precision: req.GetBool("precision", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode edit_task result: %w", err)
			}
			return result, nil
		},
	)
}

// invalidRequestToolResult reports an argument binding failure.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrOutOfRange):
		return mcp.NewToolResultError("out_of_range: " + err.Error())
	case errors.Is(err, common.ErrMutationUnavailable):
		return mcp.NewToolResultError("not_implemented: " + err.Error())
	case errors.Is(err, common.ErrServiceUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
