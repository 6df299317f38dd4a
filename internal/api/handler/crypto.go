// internal/api/handler/crypto.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"finflow-ledger/internal/service"
)

// CryptoHandler handles the crypto account, transfers and orders.
type CryptoHandler struct {
	responder
	service service.CryptoService
}

// NewCryptoHandler creates a new CryptoHandler.
func NewCryptoHandler(svc service.CryptoService, logger *slog.Logger) *CryptoHandler {
	return &CryptoHandler{responder: newResponder(logger), service: svc}
}

// CryptoTransferRequest moves money between a bank account and the crypto account.
type CryptoTransferRequest struct {
	BankAccountID int64           `json:"bank_account_id" validate:"required,gt=0"`
	Amount        decimal.Decimal `json:"amount"`
}

// OrderRequest places a buy or sell order.
type OrderRequest struct {
	CryptoID int64           `json:"crypto_id" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount"`
}

// Overview returns the caller's crypto area.
// GET /crypto
func (h *CryptoHandler) Overview(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	overview, err := h.service.Overview(r.Context(), caller)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, overview)
}

// TransferIn moves funds from a bank account to the crypto account.
// POST /crypto/transfer-in
func (h *CryptoHandler) TransferIn(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req CryptoTransferRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.TransferToCrypto(r.Context(), caller, req.BankAccountID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondTransfer(w, result)
}

// TransferOut moves available crypto account funds back to a bank account.
// POST /crypto/transfer-out
func (h *CryptoHandler) TransferOut(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req CryptoTransferRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.TransferFromCrypto(r.Context(), caller, req.BankAccountID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondTransfer(w, result)
}

func (h *CryptoHandler) respondTransfer(w http.ResponseWriter, result *service.CryptoTransferResult) {
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":             "Transfer successful",
		"bank_account_id":     result.BankAccount.ID,
		"bank_balance":        result.BankAccount.Balance,
		"crypto_balance":      result.CryptoAccount.Balance,
		"bank_transaction_id": result.BankLeg.ID,
		"crypto_entry_id":     result.CryptoLeg.ID,
	})
}

// Buy places a pending buy order.
// POST /crypto/buy
func (h *CryptoHandler) Buy(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req OrderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	order, account, err := h.service.BuyCrypto(r.Context(), caller, req.CryptoID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Buy order placed and awaiting approval",
		"order":          order,
		"crypto_balance": account.Balance,
	})
}

// Sell places a pending sell order.
// POST /crypto/sell
func (h *CryptoHandler) Sell(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req OrderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.SellCrypto(r.Context(), caller, req.CryptoID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Sell order placed and awaiting approval",
		"order":   order,
	})
}

// ListOrders returns the caller's orders.
// GET /crypto/orders
func (h *CryptoHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	orders, err := h.service.ListOrders(r.Context(), caller)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": orders})
}
