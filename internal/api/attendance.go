package api

import "net/http"

type clockInRequest struct {
	Agent  string `json:"agent" validate:"required"`
	Mirror bool   `json:"mirror"`
}

type clockOutRequest struct {
	Agent string `json:"agent" validate:"required"`
}

// ListAttendance handles GET /api/attendance
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Attendance())
}

// ClockIn handles POST /api/attendance/in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req clockInRequest
	if !h.decode(w, r, &req) {
		return
	}

	added, err := h.tracker.ClockIn(r.Context(), req.Agent, req.Mirror)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info().
		Str("agent", req.Agent).
		Int("events", len(added)).
		Msg("clocked in")
	h.notify()
	writeJSON(w, http.StatusCreated, added)
}

// ClockOut handles POST /api/attendance/out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req clockOutRequest
	if !h.decode(w, r, &req) {
		return
	}

	ev, err := h.tracker.ClockOut(r.Context(), req.Agent)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info().Str("agent", req.Agent).Msg("clocked out")
	h.notify()
	writeJSON(w, http.StatusCreated, ev)
}
