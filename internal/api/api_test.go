package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dennisdiepolder/teamops/internal/auth"
	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/dashboard"
	"github.com/dennisdiepolder/teamops/internal/invoice"
	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/storage"
	"github.com/dennisdiepolder/teamops/internal/tracker"
	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPIN = "2468"

var phoenix = time.FixedZone("MST", -7*60*60)

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

type testServer struct {
	router   http.Handler
	tracker  *tracker.Tracker
	notifier *countingNotifier
}

func newServer(t *testing.T, pin string) *testServer {
	t.Helper()
	now := time.Date(2025, 9, 17, 10, 15, 0, 0, phoenix)
	c := clock.New(phoenix, clock.WithNow(func() time.Time { return now }))
	logger := zerolog.New(io.Discard)
	m := metrics.New()

	tr := tracker.New(c, storage.NewMemoryStore(), tracker.Options{
		Agents:      []string{"Mel", "Bern", "Via", "Shaira"},
		Payroll:     []string{"Via", "Bern"},
		Mirror:      map[string]string{"Via": "Bern"},
		Schedule:    dashboard.DefaultSchedule,
		HourlyRate:  10,
		Calibration: invoice.DefaultCalibration,
	}, m, logger)

	gate, err := auth.NewGate("Via", pin, time.Hour)
	require.NoError(t, err)

	n := &countingNotifier{}
	r := chi.NewRouter()
	NewHandler(tr, gate, n, m, logger).Routes(r)

	return &testServer{router: r, tracker: tr, notifier: n}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) unlock(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/admin/unlock", `{"agent":"Via","pin":"`+testPIN+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp unlockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestGetConfig(t *testing.T) {
	s := newServer(t, testPIN)

	rec := s.do(t, http.MethodGet, "/api/config", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg configResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, []string{"Mel", "Bern", "Via", "Shaira"}, cfg.Agents)
	assert.Len(t, cfg.Outcomes, 7)
	assert.Equal(t, "2025-09-17", cfg.Today)
	assert.True(t, cfg.AdminEnabled)
	assert.Equal(t, "Bern", cfg.ClockInMirror["Via"])
	assert.Equal(t, 10.0, cfg.HourlyRate)
}

func TestLogCallFlow(t *testing.T) {
	s := newServer(t, testPIN)

	rec := s.do(t, http.MethodPost, "/api/calls", `{"agent":"Mel","outcome":"FOLLOW-UP"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ev types.CallEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.True(t, strings.HasPrefix(ev.ID, "c_"))
	assert.Equal(t, 1, s.notifier.count())

	rec = s.do(t, http.MethodGet, "/api/calls/tally?agent=Mel", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tally types.CallTally
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tally))
	assert.Equal(t, 1, tally.CallsToday)
	assert.Equal(t, 1, tally.Outcomes[types.OutcomeFollowUp])

	rec = s.do(t, http.MethodDelete, "/api/calls/last", `{"agent":"Mel","outcome":"FOLLOW-UP"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":true}`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/calls/last", `{"agent":"Mel","outcome":"FOLLOW-UP"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":false}`, rec.Body.String())
	assert.Equal(t, 2, s.notifier.count(), "no-op removal does not notify")
}

func TestLogCallValidation(t *testing.T) {
	s := newServer(t, testPIN)

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"empty body", "", http.StatusBadRequest, `{"error":"request body is empty"}`},
		{"bad json", "{", http.StatusBadRequest, `{"error":"invalid request payload"}`},
		{"missing fields", `{}`, http.StatusBadRequest, `[{"agent":"is required"},{"outcome":"is required"}]`},
		{"bad outcome", `{"agent":"Mel","outcome":"VOICEMAIL"}`, http.StatusBadRequest, `[{"outcome":"must be one of the call outcomes"}]`},
		{"unknown agent", `{"agent":"Zed","outcome":"DNC"}`, http.StatusBadRequest, `{"error":"unknown agent: \"Zed\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/calls", tt.body, "")
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
	assert.Zero(t, s.notifier.count())
}

func TestAttendanceAndDashboard(t *testing.T) {
	s := newServer(t, testPIN)

	rec := s.do(t, http.MethodPost, "/api/attendance/in", `{"agent":"Via","mirror":true}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added []types.AttendanceEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Len(t, added, 2)

	rec = s.do(t, http.MethodPost, "/api/attendance/out", `{"agent":"Via"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/attendance", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []types.AttendanceEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)

	rec = s.do(t, http.MethodGet, "/api/dashboard", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap types.DashboardSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	status := map[string]types.AgentStatus{}
	for _, a := range snap.Agents {
		status[a.Agent] = a
	}
	assert.Equal(t, types.PresenceOffline, status["Via"].Status)
	assert.Equal(t, types.PresenceOnline, status["Bern"].Status)
	assert.True(t, status["Bern"].IsLate, "10:15 on a Wednesday is after 07:00")
}

func TestAdminRoutesRequireSession(t *testing.T) {
	s := newServer(t, testPIN)

	rec := s.do(t, http.MethodPost, "/api/admin/clear-week", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/overrides", `{"agent":"Via","day":"2025-09-16","hours":"8"}`, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetWeekWithoutSession(t *testing.T) {
	// admin controls disabled entirely
	s := newServer(t, "")

	rec := s.do(t, http.MethodPut, "/api/week", `{"day":"2025-09-08"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var week tracker.Week
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	assert.Equal(t, "2025-09-08", week.Days[0])
	assert.Equal(t, "2025-09-08", s.tracker.Week().Days[0])

	rec = s.do(t, http.MethodPut, "/api/week", `{"day":"09/08/2025"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/week", `{"day":"2025-09-08"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnlock(t *testing.T) {
	tests := []struct {
		name string
		pin  string
		body string
		code int
	}{
		{"correct", testPIN, `{"agent":"Via","pin":"2468"}`, http.StatusOK},
		{"wrong pin", testPIN, `{"agent":"Via","pin":"0000"}`, http.StatusUnauthorized},
		{"wrong agent", testPIN, `{"agent":"Mel","pin":"2468"}`, http.StatusForbidden},
		{"disabled", "", `{"agent":"Via","pin":"2468"}`, http.StatusForbidden},
		{"missing pin", testPIN, `{"agent":"Via"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, tt.pin)
			rec := s.do(t, http.MethodPost, "/api/admin/unlock", tt.body, "")
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestLockEndsSession(t *testing.T) {
	s := newServer(t, testPIN)
	token := s.unlock(t)

	rec := s.do(t, http.MethodGet, "/api/admin/overrides", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/lock", "", token)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/overrides", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOverrides(t *testing.T) {
	s := newServer(t, testPIN)
	token := s.unlock(t)

	tests := []struct {
		body string
		want float64
	}{
		{`{"agent":"Via","day":"2025-09-16","hours":"7.5"}`, 7.5},
		{`{"agent":"Via","day":"2025-09-16","hours":6}`, 6},
		{`{"agent":"Via","day":"2025-09-16","hours":"lots"}`, 0},
		{`{"agent":"Via","day":"2025-09-16","hours":"-2"}`, 0},
	}
	for _, tt := range tests {
		rec := s.do(t, http.MethodPut, "/api/admin/overrides", tt.body, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		v, ok := s.tracker.Overrides().Lookup("Via", "2025-09-16")
		require.True(t, ok)
		assert.Equal(t, tt.want, v, tt.body)
	}

	rec := s.do(t, http.MethodPut, "/api/admin/overrides", `{"agent":"Via","day":"16/09/2025","hours":"1"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `[{"day":"must be a day in YYYY-MM-DD format"}]`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/admin/overrides/Via/2025-09-16", "", token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := s.tracker.Overrides().Lookup("Via", "2025-09-16")
	assert.False(t, ok)
}

func TestAdjustmentsAndInvoiceNumber(t *testing.T) {
	s := newServer(t, testPIN)
	token := s.unlock(t)

	rec := s.do(t, http.MethodPut, "/api/admin/adjustments", `{"agent":"Via","commission":30,"bonus":5}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var inv types.InvoiceSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, 35.0, inv.GrandTotal)

	rec = s.do(t, http.MethodPut, "/api/admin/adjustments", `{"agent":"Mel","commission":30}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/adjustments", `{"agent":"Via"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/invoice-number", `{"number":77}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, 77, inv.Number)
	assert.True(t, inv.NumberPinned)

	rec = s.do(t, http.MethodPut, "/api/admin/invoice-number", `{"number":null}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, 24, inv.Number)
	assert.False(t, inv.NumberPinned)
}

func TestWeekAndClear(t *testing.T) {
	s := newServer(t, testPIN)
	token := s.unlock(t)

	rec := s.do(t, http.MethodPost, "/api/calls", `{"agent":"Via","outcome":"DNC"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// the week picker works without an admin session
	rec = s.do(t, http.MethodPut, "/api/week", `{"day":"2025-09-22"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/week", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var week tracker.Week
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	assert.Equal(t, "2025-09-22", week.Days[0])

	// the call is outside the new week and survives
	rec = s.do(t, http.MethodPost, "/api/admin/clear-week", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.tracker.Calls(""), 1)

	rec = s.do(t, http.MethodPut, "/api/week", `{"day":"2025-09-15"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/admin/clear-week", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var res tracker.ClearResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.CallsRemoved)
	assert.Empty(t, s.tracker.Calls(""))
}

func TestExports(t *testing.T) {
	s := newServer(t, testPIN)

	rec := s.do(t, http.MethodGet, "/api/export/calls.csv", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no calls to export"}`, rec.Body.String())

	s.do(t, http.MethodPost, "/api/calls", `{"agent":"Via","outcome":"DNC"}`, "")

	rec = s.do(t, http.MethodGet, "/api/export/calls.csv", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="calls_2025-09-17.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "time_utc,time_phx,agent,outcome\n"))

	rec = s.do(t, http.MethodGet, "/api/export/invoice.html", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Invoice_24_2025-09-19.html"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "GRAND TOTAL: $0.00")

	rec = s.do(t, http.MethodGet, "/api/export/invoice.xlsx", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}
