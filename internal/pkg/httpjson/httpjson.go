// Package httpjson holds the JSON response helpers shared by the HTTP
// servers.
package httpjson

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

var kindStatus = map[domain.Kind]int{
	domain.KindValidation:      http.StatusUnprocessableEntity,
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindConflict:        http.StatusConflict,
	domain.KindPayment:         http.StatusPaymentRequired,
	domain.KindNetwork:         http.StatusBadGateway,
	domain.KindTimeout:         http.StatusGatewayTimeout,
	domain.KindUnauthenticated: http.StatusUnauthorized,
	domain.KindRejected:        http.StatusBadRequest,
}

// StatusFor returns the HTTP status used for an error of the given kind.
func StatusFor(kind domain.Kind) int {
	if st, ok := kindStatus[kind]; ok {
		return st
	}
	return http.StatusInternalServerError
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// WriteDomainError writes err with the status of its kind. Errors outside the
// taxonomy become a 500 without leaking their text.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var e *domain.Error
	if !errors.As(err, &e) {
		slog.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal", "Something went wrong.")
		return
	}
	code := e.Code
	if code == "" {
		code = string(e.Kind)
	}
	WriteJSON(w, StatusFor(e.Kind), ErrorResponse{Error: code, Message: e.Message})
}
