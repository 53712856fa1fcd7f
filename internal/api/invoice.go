package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/dennisdiepolder/teamops/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type weekRequest struct {
	Day string `json:"day" validate:"required,datetime=2006-01-02"`
}

// GetWeek handles GET /api/week
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Week())
}

// SetWeek handles PUT /api/week. No admin session is required.
func (h *Handler) SetWeek(w http.ResponseWriter, r *http.Request) {
	var req weekRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.tracker.SetWeekStart(r.Context(), req.Day); err != nil {
		h.fail(w, err)
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, h.tracker.Week())
}

// GetInvoice handles GET /api/invoice
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Invoice())
}

// ExportCallsCSV handles GET /api/export/calls.csv
func (h *Handler) ExportCallsCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := export.WriteCallsCSV(&buf, h.tracker.Calls(""), h.tracker.Clock())
	h.sendExport(w, "csv", "text/csv; charset=utf-8", export.CallsFilename(h.tracker.Clock().Today()), &buf, err)
}

// ExportInvoiceHTML handles GET /api/export/invoice.html
func (h *Handler) ExportInvoiceHTML(w http.ResponseWriter, r *http.Request) {
	snap := h.tracker.Invoice()
	var buf bytes.Buffer
	err := export.WriteInvoiceHTML(&buf, snap)
	h.sendExport(w, "html", "text/html; charset=utf-8", export.InvoiceFilename(snap, "html"), &buf, err)
}

// ExportInvoiceXLSX handles GET /api/export/invoice.xlsx
func (h *Handler) ExportInvoiceXLSX(w http.ResponseWriter, r *http.Request) {
	snap := h.tracker.Invoice()
	var buf bytes.Buffer
	err := export.WriteInvoiceXLSX(&buf, snap)
	h.sendExport(w, "xlsx", xlsxContentType, export.InvoiceFilename(snap, "xlsx"), &buf, err)
}

// sendExport writes a rendered document, or a message the user can act on.
// Documents are rendered into memory first so a failure never leaves a
// half-written download.
func (h *Handler) sendExport(w http.ResponseWriter, format, contentType, filename string, buf *bytes.Buffer, err error) {
	if errors.Is(err, export.ErrNothingToExport) {
		writeError(w, http.StatusNotFound, nothingMessage(format))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("format", format).Msg("export failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s export failed, please try again", format))
		return
	}

	h.metrics.RecordExport(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func nothingMessage(format string) string {
	if format == "csv" {
		return "no calls to export"
	}
	return "no payroll agents to invoice"
}
