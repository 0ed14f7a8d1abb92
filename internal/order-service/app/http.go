package app

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront-orders/internal/pkg/httpjson"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors/constants"
	sf "github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/session"
)

type customerKey struct{}

func customerFrom(ctx context.Context) string {
	c, _ := ctx.Value(customerKey{}).(string)
	return c
}

type (
	createRequest struct {
		Address sf.AddressSnapshot `json:"address"`
	}
	createdResponse struct {
		OrderID string `json:"orderId"`
	}
	returnRequest struct {
		Reason string `json:"reason"`
	}
	paymentRequest struct {
		Reference string `json:"reference"`
	}
	advanceRequest struct {
		Status string `json:"status"`
	}
	cartResponse struct {
		Items []sf.CartLine `json:"items"`
	}
	restockRequest struct {
		ProductID string `json:"productId"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
)

type handler struct {
	svc  *Service
	echo bool
}

// NewRouter exposes svc over REST. With echo false, mutations answer 204 and
// clients have to re-fetch the order.
func NewRouter(svc *Service, echo bool) http.Handler {
	h := &handler{svc: svc, echo: echo}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(attachRequestMetadata)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(requireCustomer)

		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders", h.createFromCart)
		r.Post("/orders/buy-now", h.buyNow)
		r.Post("/orders/{id}/cancel", h.cancel)
		r.Post("/orders/{id}/refund", h.refund)
		r.Post("/orders/{id}/return", h.requestReturn)
		r.Post("/orders/{id}/payment", h.confirmPayment)

		r.Get("/cart", h.getCart)
		r.Put("/cart/items", h.setCartItem)
		r.Delete("/cart/items/{productId}/{size}", h.removeCartItem)

		r.Get("/addresses", h.listAddresses)
		r.Post("/addresses", h.createAddress)
		r.Put("/addresses/{id}", h.updateAddress)
		r.Delete("/addresses/{id}", h.deleteAddress)

		r.Post("/restock-subscriptions", h.subscribeRestock)
	})

	// fulfilment hooks
	r.Post("/orders/{id}/advance", h.advance)
	r.Post("/orders/{id}/return/advance", h.advanceReturn)
	return r
}

func attachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := interceptors.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ctx = interceptors.WithIdempotencyKey(ctx, r.Header.Get(constants.HeaderXIdempotencyKey))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromAuthorization(r.Header.Get("Authorization"))
		if !s.IsAuthenticated() {
			httpjson.WriteError(w, http.StatusUnauthorized, "unauthenticated", "A valid bearer token is required.")
			return
		}
		ctx := context.WithValue(r.Context(), customerKey{}, s.Subject())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (h *handler) writeOrder(w http.ResponseWriter, r *http.Request, o *sf.Order, err error) {
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	if !h.echo {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetOrder(r.Context(), customerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}

func (h *handler) createFromCart(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.svc.CreateFromCart(r.Context(), customerFrom(r.Context()), req.Address)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, createdResponse{OrderID: id})
}

func (h *handler) buyNow(w http.ResponseWriter, r *http.Request) {
	var req sf.BuyNowRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.svc.BuyNow(r.Context(), customerFrom(r.Context()), req)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, createdResponse{OrderID: id})
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Cancel(r.Context(), customerFrom(r.Context()), chi.URLParam(r, "id"))
	h.writeOrder(w, r, o, err)
}

func (h *handler) refund(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Refund(r.Context(), customerFrom(r.Context()), chi.URLParam(r, "id"))
	h.writeOrder(w, r, o, err)
}

func (h *handler) requestReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.RequestReturn(r.Context(), customerFrom(r.Context()), chi.URLParam(r, "id"), req.Reason)
	h.writeOrder(w, r, o, err)
}

func (h *handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.ConfirmPayment(r.Context(), customerFrom(r.Context()), chi.URLParam(r, "id"), req.Reference)
	h.writeOrder(w, r, o, err)
}

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, http.StatusOK, cartResponse{Items: h.svc.GetCart(r.Context(), customerFrom(r.Context()))})
}

func (h *handler) setCartItem(w http.ResponseWriter, r *http.Request) {
	var line sf.CartLine
	if !decode(w, r, &line) {
		return
	}
	if err := h.svc.SetCartItem(r.Context(), customerFrom(r.Context()), line); err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	key := sf.CartKey{ProductID: chi.URLParam(r, "productId"), Size: chi.URLParam(r, "size")}
	if err := h.svc.RemoveCartItem(r.Context(), customerFrom(r.Context()), key); err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, http.StatusOK, h.svc.ListAddresses(r.Context(), customerFrom(r.Context())))
}

func (h *handler) createAddress(w http.ResponseWriter, r *http.Request) {
	var a sf.Address
	if !decode(w, r, &a) {
		return
	}
	out, err := h.svc.CreateAddress(r.Context(), customerFrom(r.Context()), a)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, out)
}

func (h *handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	var a sf.Address
	if !decode(w, r, &a) {
		return
	}
	a.ID = chi.URLParam(r, "id")
	out, err := h.svc.UpdateAddress(r.Context(), customerFrom(r.Context()), a)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAddress(r.Context(), customerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) subscribeRestock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.svc.SubscribeRestock(r.Context(), customerFrom(r.Context()), req.ProductID, req.Size, req.Color)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if !decode(w, r, &req) {
		return
	}
	to, err := sf.ParseStatus(req.Status)
	if err != nil {
		httpjson.WriteDomainError(w, r, sf.Validationf(sf.CodeInvalidOrder, "%v", err))
		return
	}
	o, err := h.svc.Advance(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}

func (h *handler) advanceReturn(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if !decode(w, r, &req) {
		return
	}
	to, err := sf.ParseReturnStatus(req.Status)
	if err != nil {
		httpjson.WriteDomainError(w, r, sf.Validationf(sf.CodeInvalidOrder, "%v", err))
		return
	}
	o, err := h.svc.AdvanceReturn(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}
