// internal/api/handler/banking.go
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"finflow-ledger/internal/api/types"
	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BankingHandler handles HTTP requests for bank accounts and their transactions.
type BankingHandler struct {
	responder
	service service.LedgerService
}

// NewBankingHandler creates a new BankingHandler.
func NewBankingHandler(svc service.LedgerService, logger *slog.Logger) *BankingHandler {
	return &BankingHandler{responder: newResponder(logger), service: svc}
}

// OpenAccountRequest represents the request body for opening a bank account.
type OpenAccountRequest struct {
	AccountType domain.AccountType `json:"account_type" validate:"required,oneof=checking savings business"`
}

// MoneyRequest represents the request body for deposit and withdraw.
type MoneyRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
}

// TransferRequest represents the request body for a transfer to another account.
type TransferRequest struct {
	ToAccountNumber string          `json:"to_account_number" validate:"required,max=32"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" validate:"max=255"`
}

// ListAccounts returns the caller's bank accounts.
// GET /accounts
func (h *BankingHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	accounts, err := h.service.ListBankAccounts(r.Context(), caller)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": accounts})
}

// OpenAccount opens an empty bank account.
// POST /accounts
func (h *BankingHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req OpenAccountRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.service.OpenBankAccount(r.Context(), caller, req.AccountType)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, account)
}

// Deposit handles the deposit money request.
// POST /accounts/{accountID}/deposit
func (h *BankingHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var req MoneyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, transaction, err := h.service.Deposit(r.Context(), caller, accountID, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Deposit successful",
		"account_id":     account.ID,
		"new_balance":    account.Balance,
		"transaction_id": transaction.ID,
	})
}

// Withdraw handles the withdraw money request.
// POST /accounts/{accountID}/withdraw
func (h *BankingHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var req MoneyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, transaction, err := h.service.Withdraw(r.Context(), caller, accountID, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Withdrawal successful",
		"account_id":     account.ID,
		"new_balance":    account.Balance,
		"transaction_id": transaction.ID,
	})
}

// Transfer sends money to any account identified by its number.
// POST /accounts/{accountID}/transfer
func (h *BankingHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var req TransferRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Transfer(r.Context(), caller, accountID, req.ToAccountNumber, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Transfer successful",
		"account_id":     result.Source.ID,
		"new_balance":    result.Source.Balance,
		"transaction_id": result.Outgoing.ID,
	})
}

// GetTransactionHistory lists the legs of all of the caller's accounts.
// GET /transactions?limit=&offset=
func (h *BankingHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	transactions, total, err := h.service.GetTransactionHistory(r.Context(), caller, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}
