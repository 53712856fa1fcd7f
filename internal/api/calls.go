package api

import (
	"net/http"

	"github.com/dennisdiepolder/teamops/internal/types"
)

type callRequest struct {
	Agent   string `json:"agent" validate:"required"`
	Outcome string `json:"outcome" validate:"required,outcome"`
}

// ListCalls handles GET /api/calls?agent=
func (h *Handler) ListCalls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Calls(r.URL.Query().Get("agent")))
}

// GetTally handles GET /api/calls/tally?agent=
func (h *Handler) GetTally(w http.ResponseWriter, r *http.Request) {
	agent := r.URL.Query().Get("agent")
	if agent == "" {
		writeJSON(w, http.StatusBadRequest, []map[string]string{{"agent": errRequired.Error()}})
		return
	}

	tally, err := h.tracker.CallTally(agent)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

// LogCall handles POST /api/calls
func (h *Handler) LogCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if !h.decode(w, r, &req) {
		return
	}

	ev, err := h.tracker.LogCall(r.Context(), req.Agent, types.Outcome(req.Outcome))
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info().
		Str("agent", ev.Agent).
		Str("outcome", string(ev.Outcome)).
		Str("call_id", ev.ID).
		Msg("call logged")
	h.notify()
	writeJSON(w, http.StatusCreated, ev)
}

// RemoveLastCall handles DELETE /api/calls/last
func (h *Handler) RemoveLastCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if !h.decode(w, r, &req) {
		return
	}

	removed, err := h.tracker.RemoveLastCall(r.Context(), req.Agent, types.Outcome(req.Outcome))
	if err != nil {
		h.fail(w, err)
		return
	}
	if removed {
		h.notify()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}
