// internal/api/handler/report.go
package handler

import (
	"log/slog"
	"net/http"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/service"
)

// ReportHandler serves the dashboard.
type ReportHandler struct {
	responder
	service service.ReportingService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(svc service.ReportingService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{responder: newResponder(logger), service: svc}
}

// Dashboard handles GET /dashboard?range=1h|1d|7d|1m. Unknown ranges fall back to 7d.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	dashboard, err := h.service.Dashboard(r.Context(), caller, domain.ParseTimeRange(r.URL.Query().Get("range")))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, dashboard)
}
