// Package api exposes the tracker over HTTP.
package api

import (
	"net/http"

	"github.com/dennisdiepolder/teamops/internal/auth"
	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/tracker"
	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Notifier is told after every successful mutation, so live clients update
// without waiting for the next tick
type Notifier interface {
	Tick()
}

// Handler serves the team-ops API
type Handler struct {
	tracker  *tracker.Tracker
	gate     *auth.Gate
	notifier Notifier
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewHandler creates the API handler. notifier may be nil.
func NewHandler(tr *tracker.Tracker, gate *auth.Gate, notifier Notifier, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{
		tracker:  tr,
		gate:     gate,
		notifier: notifier,
		validate: NewValidator(),
		metrics:  m,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers every /api route on r
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Get("/dashboard", h.GetDashboard)

		r.Get("/calls", h.ListCalls)
		r.Post("/calls", h.LogCall)
		r.Get("/calls/tally", h.GetTally)
		r.Delete("/calls/last", h.RemoveLastCall)

		r.Get("/attendance", h.ListAttendance)
		r.Post("/attendance/in", h.ClockIn)
		r.Post("/attendance/out", h.ClockOut)

		r.Get("/week", h.GetWeek)
		r.Put("/week", h.SetWeek)
		r.Get("/invoice", h.GetInvoice)

		r.Route("/export", func(r chi.Router) {
			r.Get("/calls.csv", h.ExportCallsCSV)
			r.Get("/invoice.html", h.ExportInvoiceHTML)
			r.Get("/invoice.xlsx", h.ExportInvoiceXLSX)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/unlock", h.Unlock)
			r.Post("/lock", h.Lock)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(h.gate, h.logger))
				r.Get("/overrides", h.ListOverrides)
				r.Put("/overrides", h.SetOverride)
				r.Delete("/overrides/{agent}/{day}", h.ClearOverride)
				r.Put("/adjustments", h.SetAdjustments)
				r.Put("/invoice-number", h.SetInvoiceNumber)
				r.Post("/clear-week", h.ClearWeek)
			})
		})
	})
}

func (h *Handler) notify() {
	if h.notifier != nil {
		h.notifier.Tick()
	}
}

type configResponse struct {
	Agents        []string          `json:"agents"`
	PayrollAgents []string          `json:"payrollAgents"`
	Outcomes      []types.Outcome   `json:"outcomes"`
	Timezone      string            `json:"timezone"`
	Today         string            `json:"today"`
	AdminAgent    string            `json:"adminAgent"`
	AdminEnabled  bool              `json:"adminEnabled"`
	ClockInMirror map[string]string `json:"clockInMirror"`
	HourlyRate    float64           `json:"hourlyRate"`
}

// GetConfig handles GET /api/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	mirror := make(map[string]string)
	for _, agent := range h.tracker.Agents() {
		if partner, ok := h.tracker.MirrorOf(agent); ok {
			mirror[agent] = partner
		}
	}

	writeJSON(w, http.StatusOK, configResponse{
		Agents:        h.tracker.Agents(),
		PayrollAgents: h.tracker.Payroll(),
		Outcomes:      types.AllOutcomes,
		Timezone:      h.tracker.Clock().Location().String(),
		Today:         h.tracker.Clock().Today(),
		AdminAgent:    h.gate.AdminAgent(),
		AdminEnabled:  h.gate.Enabled(),
		ClockInMirror: mirror,
		HourlyRate:    h.tracker.HourlyRate(),
	})
}

// GetDashboard handles GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Dashboard())
}
