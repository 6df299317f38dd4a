// internal/api/handler/admin.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"finflow-ledger/internal/service"
)

// AdminHandler serves the superuser endpoints: order approval and the manual job triggers.
type AdminHandler struct {
	responder
	approvals service.ApprovalService
	prices    service.PriceService
	snapshots service.SnapshotService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(approvals service.ApprovalService, prices service.PriceService, snapshots service.SnapshotService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		responder: newResponder(logger),
		approvals: approvals,
		prices:    prices,
		snapshots: snapshots,
	}
}

// CreateCryptocurrencyRequest lists a new tradable asset.
type CreateCryptocurrencyRequest struct {
	Name   string          `json:"name" validate:"required,max=100"`
	Symbol string          `json:"symbol" validate:"required,alphanum,max=10"`
	Price  decimal.Decimal `json:"price"`
}

// CreateCryptocurrency lists a new asset.
// POST /admin/cryptocurrencies
func (h *AdminHandler) CreateCryptocurrency(w http.ResponseWriter, r *http.Request) {
	var req CreateCryptocurrencyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	crypto, err := h.prices.AddCryptocurrency(r.Context(), req.Name, req.Symbol, req.Price)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, crypto)
}

// ListPending returns all pending orders.
// GET /admin/orders/pending
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	orders, err := h.approvals.ListPending(r.Context(), caller)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": orders})
}

// Approve completes a pending order.
// POST /admin/orders/{orderID}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	orderID, ok := h.pathID(w, r, "orderID")
	if !ok {
		return
	}
	order, err := h.approvals.Approve(r.Context(), caller, orderID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

// Reject rejects a pending order and releases its reservation.
// POST /admin/orders/{orderID}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	orderID, ok := h.pathID(w, r, "orderID")
	if !ok {
		return
	}
	order, err := h.approvals.Reject(r.Context(), caller, orderID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

// RefreshPrices applies one step of the simulated price feed.
// POST /admin/prices/refresh
func (h *AdminHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	updated, err := h.prices.RefreshPrices(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": updated})
}

// RunSnapshots runs the daily snapshot job now.
// POST /admin/snapshots/run
func (h *AdminHandler) RunSnapshots(w http.ResponseWriter, r *http.Request) {
	summary, err := h.snapshots.RunDaily(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}
