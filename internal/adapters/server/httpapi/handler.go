// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/gantt/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	chart      common.ChartReader
	data       common.DataService
	timeFrames common.TimeFrameService
	tasks      common.TaskEditor
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter. Only chart is required; nil
// mutation services answer with not_implemented.
func NewHandler(chart common.ChartReader, data common.DataService, timeFrames common.TimeFrameService, tasks common.TaskEditor) *Handler {
	return &Handler{
		chart:      chart,
		data:       data,
		timeFrames: timeFrames,
		tasks:      tasks,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch path {
	case "chart":
		h.get(w, r, h.handleChart)
	case "data":
		h.get(w, r, h.handleData)
	case "data/load":
		h.post(w, r, h.handleLoadData)
	case "data/remove":
		h.post(w, r, h.handleRemoveData)
	case "data/clear":
		h.post(w, r, h.handleClearData)
	case "core/date":
		h.get(w, r, h.handleDateByPosition)
	case "core/position":
		h.get(w, r, h.handlePositionByDate)
	case "timeframes/register":
		h.post(w, r, h.handleRegisterTimeFrames)
	case "timeframes/clear":
		h.post(w, r, h.handleClearTimeFrames)
	default:
		taskID, ok := resolveTaskEditID(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		h.post(w, r, func(w http.ResponseWriter, r *http.Request) {
			h.handleEditTask(w, r, taskID)
		})
	}
}

// get enforces GET before delegating to next.
func (h *Handler) get(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if h.chart == nil {
		writeErrorFrom(w, fmt.Errorf("chart service is not configured: %w", common.ErrServiceUnavailable))
		return
	}
	next(w, r)
}

// post enforces POST before delegating to next.
func (h *Handler) post(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	next(w, r)
}

// handleChart serves GET `/chart`.
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.chart.Chart(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleData serves GET `/data`.
func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	rows, err := h.chart.Data(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.RowsRequest{Rows: rows})
}

// handleLoadData serves POST `/data/load`.
func (h *Handler) handleLoadData(w http.ResponseWriter, r *http.Request) {
	if h.data == nil {
		writeErrorFrom(w, fmt.Errorf("data service: %w", common.ErrMutationUnavailable))
		return
	}
	var req common.RowsRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	rows, err := h.data.LoadData(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.RowsRequest{Rows: rows})
}

// handleRemoveData serves POST `/data/remove`.
func (h *Handler) handleRemoveData(w http.ResponseWriter, r *http.Request) {
	if h.data == nil {
		writeErrorFrom(w, fmt.Errorf("data service: %w", common.ErrMutationUnavailable))
		return
	}
	var req common.RowsRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	rows, err := h.data.RemoveData(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.RowsRequest{Rows: rows})
}

// handleClearData serves POST `/data/clear`.
func (h *Handler) handleClearData(w http.ResponseWriter, r *http.Request) {
	if h.data == nil {
		writeErrorFrom(w, fmt.Errorf("data service: %w", common.ErrMutationUnavailable))
		return
	}
	if err := h.data.ClearData(r.Context()); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDateByPosition serves GET `/core/date`.
func (h *Handler) handleDateByPosition(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		req common.PositionRequest
		err error
	)
	if req.X, err = parseFloatParam(query.Get("x"), "x"); err != nil {
		writeErrorFrom(w, err)
		return
	}
	for name, target := range map[string]*bool{
		"magnet":         &req.Magnet,
		"precision":      &req.Precision,
		"disable_expand": &req.DisableExpand,
	} {
		if *target, err = parseBoolParam(query.Get(name), name); err != nil {
			writeErrorFrom(w, err)
			return
		}
	}
	result, err := h.chart.DateByPosition(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePositionByDate serves GET `/core/position`.
func (h *Handler) handlePositionByDate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		req common.DateRequest
		err error
	)
	if req.Date, err = common.ParseDate(query.Get("date")); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if req.DisableExpand, err = parseBoolParam(query.Get("disable_expand"), "disable_expand"); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.chart.PositionByDate(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRegisterTimeFrames serves POST `/timeframes/register`.
func (h *Handler) handleRegisterTimeFrames(w http.ResponseWriter, r *http.Request) {
	if h.timeFrames == nil {
		writeErrorFrom(w, fmt.Errorf("time frame service: %w", common.ErrMutationUnavailable))
		return
	}
	var req common.TimeFramesRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if err := h.timeFrames.RegisterTimeFrames(r.Context(), req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearTimeFrames serves POST `/timeframes/clear`.
func (h *Handler) handleClearTimeFrames(w http.ResponseWriter, r *http.Request) {
	if h.timeFrames == nil {
		writeErrorFrom(w, fmt.Errorf("time frame service: %w", common.ErrMutationUnavailable))
		return
	}
	var req common.ClearTimeFramesRequest
	if err := decodeOptionalJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if err := h.timeFrames.ClearTimeFrames(r.Context(), req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEditTask serves POST `/tasks/{id}/edit`.
func (h *Handler) handleEditTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if h.tasks == nil {
		writeErrorFrom(w, fmt.Errorf("task service: %w", common.ErrMutationUnavailable))
		return
	}
	var req common.EditTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.TaskID = taskID
	view, err := h.tasks.EditTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// resolveTaskEditID parses `/tasks/{id}/edit` and returns `{id}`.
func resolveTaskEditID(path string) (string, bool) {
	const (
		prefix = "tasks/"
		suffix = "/edit"
	)
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// parseFloatParam parses one required numeric query parameter.
func parseFloatParam(raw, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required: %w", name, common.ErrInvalidRequest)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, common.ErrInvalidRequest)
	}
	return v, nil
}

// parseBoolParam parses one optional boolean query parameter.
func parseBoolParam(raw, name string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, raw, common.ErrInvalidRequest)
	}
	return v, nil
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrOutOfRange):
		writeJSONError(w, http.StatusUnprocessableEntity, APIError{
			Code:    "out_of_range",
			Message: err.Error(),
			Hint:    "The position or date lies outside the chart columns and auto-expand did not apply.",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrMutationUnavailable):
		writeJSONError(w, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrServiceUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}

// decodeOptionalJSONBody decodes one optional JSON body and ignores empty payloads.
func decodeOptionalJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(out)
	if err == nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("request canceled: %w", ctx.Err())
		default:
			return nil
		}
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
}
