// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"finflow-ledger/internal/api/middleware"
	"finflow-ledger/internal/api/types"
	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/util"
)

// responder holds what every handler needs to decode, validate and answer requests.
type responder struct {
	validate *validator.Validate
	logger   *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	v := validator.New()
	// Report JSON field names in validation details.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return responder{validate: v, logger: logger}
}

func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps service errors onto status codes and user-facing messages.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	var (
		fundsErr      *util.AvailableFundsError
		validationErr *util.ValidationError
	)
	switch {
	case errors.As(err, &fundsErr):
		statusCode = http.StatusPaymentRequired
		message = fundsErr.Error()
	case errors.As(err, &validationErr):
		statusCode = http.StatusBadRequest
		message = validationErr.Error()
	case util.IsError(err, util.ErrInvalidInput), util.IsError(err, util.ErrSameAccountTransfer):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient funds."
	case util.IsError(err, util.ErrInsufficientHoldings):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient holdings."
	case util.IsError(err, util.ErrDestinationNotFound):
		statusCode = http.StatusNotFound
		message = "Destination account not found."
	case util.IsError(err, util.ErrAccountNotFound):
		statusCode = http.StatusNotFound
		message = "Account not found."
	case util.IsError(err, util.ErrCryptoNotFound):
		statusCode = http.StatusNotFound
		message = "Cryptocurrency not found."
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Transaction not found."
	case util.IsError(err, util.ErrUserNotFound):
		statusCode = http.StatusNotFound
		message = "User not found."
	case util.IsError(err, util.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Unauthorized."
	case util.IsError(err, util.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "Forbidden."
	case util.IsError(err, util.ErrOrderNotPending):
		statusCode = http.StatusConflict
		message = "Order is no longer pending."
	case util.IsError(err, util.ErrDuplicateEntry):
		statusCode = http.StatusConflict
		message = "Already exists."
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags. It writes the
// error response itself and reports whether the handler may continue.
func (h responder) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body."})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		resp := types.ErrorResponse{Error: "Validation failed."}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			resp.Details = make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				resp.Details[fe.Field()] = fmt.Sprintf("failed on '%s' validation", fe.Tag())
			}
		}
		h.respondWithJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// caller pulls the authenticated identity; routes are mounted behind the identity middleware.
func (h responder) caller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthorized)
		return domain.Caller{}, false
	}
	return caller, true
}

func (h responder) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		h.respondWithError(w, util.NewValidationError(param, "must be a positive integer"))
		return 0, false
	}
	return id, true
}
