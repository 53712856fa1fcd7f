package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dennisdiepolder/teamops/internal/auth"
	"github.com/go-chi/chi/v5"
)

type unlockRequest struct {
	Agent string `json:"agent" validate:"required"`
	PIN   string `json:"pin" validate:"required"`
}

type unlockResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type overrideRequest struct {
	Agent string   `json:"agent" validate:"required"`
	Day   string   `json:"day" validate:"required,datetime=2006-01-02"`
	Hours rawHours `json:"hours"`
}

type adjustmentsRequest struct {
	Agent      string   `json:"agent" validate:"required"`
	Commission *float64 `json:"commission" validate:"required_without=Bonus"`
	Bonus      *float64 `json:"bonus"`
}

type invoiceNumberRequest struct {
	Number *int `json:"number" validate:"omitempty,gte=0"`
}

// Unlock handles POST /api/admin/unlock. Failed attempts are never locked out.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, expires, err := h.gate.Unlock(req.Agent, req.PIN)
	if err != nil {
		h.metrics.RecordAdminUnlock(unlockResult(err))
		h.logger.Warn().Err(err).Str("agent", req.Agent).Msg("admin unlock rejected")
		h.fail(w, err)
		return
	}

	h.metrics.RecordAdminUnlock("ok")
	h.logger.Info().Str("agent", req.Agent).Time("expires", expires).Msg("admin unlocked")
	writeJSON(w, http.StatusOK, unlockResponse{Token: token, ExpiresAt: expires})
}

func unlockResult(err error) string {
	switch {
	case errors.Is(err, auth.ErrPINMismatch):
		return "bad_pin"
	case errors.Is(err, auth.ErrNotAdminAgent):
		return "not_admin"
	case errors.Is(err, auth.ErrGateDisabled):
		return "disabled"
	default:
		return "error"
	}
}

// Lock handles POST /api/admin/lock
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	if token := auth.ExtractToken(r); token != "" {
		h.gate.Lock(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOverrides handles GET /api/admin/overrides
func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Overrides())
}

// SetOverride handles PUT /api/admin/overrides. Non-numeric hours store 0.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := h.tracker.SetOverride(r.Context(), req.Agent, req.Day, string(req.Hours))
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info().
		Str("agent", req.Agent).
		Str("day", req.Day).
		Float64("hours", v).
		Msg("hour override set")
	h.notify()
	writeJSON(w, http.StatusOK, map[string]any{"agent": req.Agent, "day": req.Day, "hours": v})
}

// ClearOverride handles DELETE /api/admin/overrides/{agent}/{day}
func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")
	day := chi.URLParam(r, "day")

	if err := h.tracker.ClearOverride(r.Context(), agent, day); err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info().Str("agent", agent).Str("day", day).Msg("hour override cleared")
	h.notify()
	w.WriteHeader(http.StatusNoContent)
}

// SetAdjustments handles PUT /api/admin/adjustments
func (h *Handler) SetAdjustments(w http.ResponseWriter, r *http.Request) {
	var req adjustmentsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Commission != nil {
		if err := h.tracker.SetCommission(r.Context(), req.Agent, *req.Commission); err != nil {
			h.fail(w, err)
			return
		}
	}
	if req.Bonus != nil {
		if err := h.tracker.SetBonus(r.Context(), req.Agent, *req.Bonus); err != nil {
			h.fail(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, h.tracker.Invoice())
}

// SetInvoiceNumber handles PUT /api/admin/invoice-number. A null number
// restores the computed one.
func (h *Handler) SetInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	var req invoiceNumberRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.tracker.SetInvoiceOverride(r.Context(), req.Number)
	writeJSON(w, http.StatusOK, h.tracker.Invoice())
}

// ClearWeek handles POST /api/admin/clear-week
func (h *Handler) ClearWeek(w http.ResponseWriter, r *http.Request) {
	res := h.tracker.ClearWeek(r.Context())
	h.notify()
	writeJSON(w, http.StatusOK, res)
}
