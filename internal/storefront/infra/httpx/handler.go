package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront-orders/internal/pkg/httpjson"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/lifecycle"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/prepaint"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/restock"
	"github.com/jcmexdev/storefront-orders/internal/storefront/infra/httpx/middlewares"
	"github.com/jcmexdev/storefront-orders/internal/storefront/journal"
	"github.com/jcmexdev/storefront-orders/internal/storefront/session"
)

// Accounts is the per-user part of the backend that is not about orders.
type Accounts interface {
	ports.CartService
	ports.AddressBook
	ports.RestockNotifier
}

// AccountsFactory binds Accounts to a caller's session.
type AccountsFactory func(s ports.Session) Accounts

// Deps are the components the gateway serves. Prepaint and History may be nil.
type Deps struct {
	Views    *lifecycle.Registry
	History  journal.Reader
	Orders   lifecycle.OrderServiceFactory
	Accounts AccountsFactory
	Restock  *restock.Subscriptions
	Prepaint *prepaint.Store
	Timeout  time.Duration
}

type Handler struct {
	views    *lifecycle.Registry
	history  journal.Reader
	orders   lifecycle.OrderServiceFactory
	accounts AccountsFactory
	restock  *restock.Subscriptions
	prepaint *prepaint.Store
	timeout  time.Duration
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		views:    d.Views,
		history:  d.History,
		orders:   d.Orders,
		accounts: d.Accounts,
		restock:  d.Restock,
		prepaint: d.Prepaint,
		timeout:  lifecycle.ClampTimeout(d.Timeout),
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// bounded limits a backend call made outside a View, which applies its own
// timeout.
func (h *Handler) bounded(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func currentSession(r *http.Request) *session.Session {
	return middlewares.Session(r.Context())
}

// requireSession answers 401 for anonymous callers.
func requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := currentSession(r)
	if !s.IsAuthenticated() {
		httpjson.WriteError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to continue.")
		return nil, false
	}
	return s, true
}

// writeState answers with the view's state. A failed action keeps the state
// as the body and takes its status from the error kind.
func writeState(w http.ResponseWriter, st lifecycle.State, err error) {
	status := http.StatusOK
	if err != nil {
		status = httpjson.StatusFor(domain.KindOf(err))
	}
	httpjson.WriteJSON(w, status, st)
}

// openLoaded returns the caller's view of the order. The order is fetched
// unless this caller's own credential has already loaded it.
func (h *Handler) openLoaded(r *http.Request) (*lifecycle.View, lifecycle.State, error) {
	v := h.views.Open(currentSession(r), chi.URLParam(r, "id"))
	if v.Loaded() {
		return v, v.State(), nil
	}
	st, err := v.Refresh(r.Context())
	return v, st, err
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	v := h.views.Open(currentSession(r), chi.URLParam(r, "id"))
	st, err := v.Refresh(r.Context())
	writeState(w, st, err)
}

func (h *Handler) PrepareAction(w http.ResponseWriter, r *http.Request) {
	var req PrepareRequest
	if !decode(w, r, &req) {
		return
	}
	cmd, err := domain.ParseCommand(req.Command)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	v, st, err := h.openLoaded(r)
	if err != nil {
		writeState(w, st, err)
		return
	}
	c, err := v.Prepare(r.Context(), cmd, req.Reason)
	if err != nil {
		writeState(w, v.State(), err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) ConfirmAction(w http.ResponseWriter, r *http.Request) {
	v := h.views.Open(currentSession(r), chi.URLParam(r, "id"))
	st, err := v.Confirm(r.Context(), chi.URLParam(r, "confirmationId"))
	writeState(w, st, err)
}

func (h *Handler) DismissAction(w http.ResponseWriter, r *http.Request) {
	v := h.views.Open(currentSession(r), chi.URLParam(r, "id"))
	v.Dismiss(chi.URLParam(r, "confirmationId"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !decode(w, r, &req) {
		return
	}
	v, st, err := h.openLoaded(r)
	if err != nil {
		writeState(w, st, err)
		return
	}
	st, err = v.ConfirmPayment(r.Context(), req.Reference)
	writeState(w, st, err)
}

// GetJournal lists the actions recorded for an order the caller can see.
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		httpjson.WriteError(w, http.StatusNotFound, "journal_disabled", "No command journal is configured.")
		return
	}
	_, st, err := h.openLoaded(r)
	if err != nil {
		writeState(w, st, err)
		return
	}
	entries, err := h.history.ListByOrder(r.Context(), st.OrderID)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	out := make([]JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, JournalEntryResponse{
			Command:        e.Command,
			Operation:      e.Operation,
			Outcome:        string(e.Outcome),
			ErrorKind:      e.ErrorKind,
			Message:        e.Message,
			IdempotencyKey: e.IdempotencyKey,
			TraceID:        e.TraceID,
			RecordedAt:     e.RecordedAt,
		})
	}
	httpjson.WriteJSON(w, http.StatusOK, JournalResponse{OrderID: st.OrderID, Entries: out})
}
