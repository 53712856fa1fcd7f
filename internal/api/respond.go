package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dennisdiepolder/teamops/internal/auth"
	"github.com/dennisdiepolder/teamops/internal/tracker"
)

const maxBodyBytes = 1 << 16

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into dst and validates it. On failure the response
// has been written and false is returned.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		h.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("failed to decode json")
		msg := "invalid request payload"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("validation failed")
		writeJSON(w, http.StatusBadRequest, validationErrors(err))
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrUnknownAgent),
		errors.Is(err, tracker.ErrUnknownOutcome),
		errors.Is(err, tracker.ErrInvalidDay),
		errors.Is(err, tracker.ErrNotPayroll):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrPINMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrNotAdminAgent), errors.Is(err, auth.ErrGateDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// rawHours accepts either a JSON string or a JSON number so override input
// reaches the tracker as typed
type rawHours string

func (r *rawHours) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = rawHours(s)
		return nil
	}
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("hours must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(f.String(), 64); err != nil {
		return err
	}
	*r = rawHours(f.String())
	return nil
}
