package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dennisdiepolder/teamops/internal/auth"
	"github.com/dennisdiepolder/teamops/internal/config"
	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/tracker"
	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/dennisdiepolder/teamops/internal/websocket"
	"github.com/rs/zerolog"
)

const testPIN = "2468"

type countingNotifier struct {
	mu    sync.Mutex
	ticks int
}

func (n *countingNotifier) Tick() {
	n.mu.Lock()
	n.ticks++
	n.mu.Unlock()
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ticks
}

func newTestRouter(t *testing.T) (http.Handler, *countingNotifier) {
	t.Helper()
	t.Setenv("STORE_MODE", "memory")
	t.Setenv("ADMIN_PIN", testPIN)
	t.Setenv("ADMIN_AGENT", "Via")
	t.Setenv("AGENTS", "Mel,Bern,Via,Shaira")
	t.Setenv("PAYROLL_AGENTS", "Via,Bern")
	t.Setenv("CLOCKIN_MIRROR", "Via:Bern")
	t.Setenv("TIMEZONE", "America/Phoenix")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	logger := zerolog.New(io.Discard)
	m := metrics.New()

	tr, err := tracker.FromConfig(context.Background(), cfg, m, logger)
	if err != nil {
		t.Fatalf("failed to build tracker: %v", err)
	}
	gate, err := auth.NewGate(cfg.AdminAgent, cfg.AdminPIN, cfg.AdminSessionTTL)
	if err != nil {
		t.Fatalf("failed to build gate: %v", err)
	}

	n := &countingNotifier{}
	return newRouter(cfg, tr, gate, websocket.NewHub(logger, m), n, m, logger), n
}

func serve(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/health", "", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["status"] != "ok" || response["service"] != "teamops" {
		t.Errorf("unexpected health payload %v", response)
	}
}

func TestMetricsRouteReportsRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	serve(router, http.MethodGet, "/api/dashboard", "", "")
	rec := serve(router, http.MethodGet, "/metrics", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `teamops_http_requests_total{route="/api/dashboard",status="200"} 1`) {
		t.Errorf("dashboard request missing from metrics output:\n%s", body)
	}
}

func TestDashboardRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/dashboard", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var snap types.DashboardSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to parse dashboard: %v", err)
	}
	if len(snap.Agents) != 4 {
		t.Fatalf("expected 4 agents, got %d", len(snap.Agents))
	}
	for _, a := range snap.Agents {
		if a.Status != types.PresenceOffline {
			t.Errorf("expected %s offline on a fresh store, got %s", a.Agent, a.Status)
		}
	}
}

func TestAdminRoutesNeedSession(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/admin/overrides", ""},
		{http.MethodPut, "/api/admin/overrides", `{"agent":"Via","day":"2025-09-16","hours":"8"}`},
		{http.MethodPut, "/api/admin/adjustments", `{"agent":"Via","commission":5}`},
		{http.MethodPost, "/api/admin/clear-week", ""},
	}

	router, n := newTestRouter(t)

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(router, tt.method, tt.path, tt.body, "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}
		})
	}
	if n.count() != 0 {
		t.Errorf("rejected requests must not notify, got %d ticks", n.count())
	}
}

func TestUnlockedSessionReachesAdminRoutes(t *testing.T) {
	router, n := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/api/admin/unlock", `{"agent":"Via","pin":"`+testPIN+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("missing token in %s", rec.Body.String())
	}

	rec = serve(router, http.MethodPost, "/api/admin/clear-week", "", resp.Token)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if n.count() != 1 {
		t.Errorf("expected 1 notification, got %d", n.count())
	}
}
