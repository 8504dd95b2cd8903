package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hylla/gantt/internal/adapters/server/common"
	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/gantt"
)

func newTestDependencies(t *testing.T) Dependencies {
	t.Helper()
	opts := gantt.DefaultOptions()
	opts.ColumnWidth = 24
	opts.FromDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	opts.ToDate = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	svc, err := app.NewService(nil, nil, nil, app.ServiceConfig{Options: opts, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return Dependencies{Chart: common.NewAppServiceAdapter(svc), Logger: log.New(io.Discard)}
}

func TestNewHandlerServesHealthAndAPI(t *testing.T) {
	handler, cfg, err := NewHandler(Config{APIEndpoint: "api/v1/", MCPEndpoint: "mcp"}, newTestDependencies(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" || cfg.HTTPBind != defaultBindAddress || cfg.ServerName != "gantt" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	body := `{"rows":[{"id":"r1","name":"Build","tasks":[{"id":"t1","from":"2024-03-02T00:00:00Z","to":"2024-03-03T00:00:00Z"}]}]}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/data/load", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("data/load = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("chart = %d %q", rec.Code, rec.Body.String())
	}
	var snap gantt.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(snap.Rows) != 1 || snap.Rows[0].Tasks[0].Left != 24 || snap.Rows[0].Tasks[0].Width != 24 {
		t.Fatalf("unexpected chart rows %#v", snap.Rows)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tasks/t1/edit", strings.NewReader(`{"x":48}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("tasks/t1/edit = %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewHandlerRejectsInvalidConfig(t *testing.T) {
	if _, _, err := NewHandler(Config{APIEndpoint: "/x", MCPEndpoint: "/x"}, newTestDependencies(t)); err == nil {
		t.Fatal("expected endpoint collision error")
	}
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected missing chart dependency error")
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":         "/fallback",
		"/":        "/fallback",
		"api":      "/api",
		"/api/v2/": "/api/v2",
		"  /mcp  ": "/mcp",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/fallback"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
