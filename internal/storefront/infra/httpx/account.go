package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront-orders/internal/pkg/httpjson"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/checkout"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/prepaint"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/restock"
)

type checkoutBackend struct {
	ports.OrderService
	Accounts
}

func (h *Handler) checkout(s ports.Session) *checkout.Checkout {
	return checkout.New(s, checkoutBackend{OrderService: h.orders(s), Accounts: h.accounts(s)})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.bounded(r)
	defer cancel()
	lines, err := h.checkout(currentSession(r)).Cart(ctx)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, CartResponse{Items: lines})
}

func (h *Handler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	var req CartItemRequest
	if !decode(w, r, &req) {
		return
	}
	h.setItem(w, r, domain.CartKey{ProductID: req.ProductID, Size: req.Size}, req.Quantity)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	key := domain.CartKey{ProductID: chi.URLParam(r, "productId"), Size: chi.URLParam(r, "size")}
	h.setItem(w, r, key, 0)
}

func (h *Handler) setItem(w http.ResponseWriter, r *http.Request, key domain.CartKey, qty int) {
	ctx, cancel := h.bounded(r)
	defer cancel()
	lines, err := h.checkout(currentSession(r)).SetItem(ctx, key, qty)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, CartResponse{Items: lines})
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.bounded(r)
	defer cancel()

	co := h.checkout(currentSession(r))
	var (
		id  string
		err error
	)
	switch {
	case req.AddressID != "":
		id, err = co.PlaceFromSavedAddress(ctx, req.AddressID)
	case req.Address != nil:
		id, err = co.PlaceFromCart(ctx, *req.Address)
	default:
		err = domain.Validationf(domain.CodeInvalidAddress, "an address is required")
	}
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, CreatedResponse{OrderID: id})
}

func (h *Handler) BuyNow(w http.ResponseWriter, r *http.Request) {
	var req domain.BuyNowRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := h.bounded(r)
	defer cancel()
	id, err := h.checkout(currentSession(r)).BuyNow(ctx, req)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, CreatedResponse{OrderID: id})
}

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.bounded(r)
	defer cancel()
	list, err := h.accounts(s).ListAddresses(ctx)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Address{}
	}
	httpjson.WriteJSON(w, http.StatusOK, AddressesResponse{Addresses: list})
}

func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	h.saveAddress(w, r, false)
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	h.saveAddress(w, r, true)
}

func (h *Handler) saveAddress(w http.ResponseWriter, r *http.Request, update bool) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var a domain.Address
	if !decode(w, r, &a) {
		return
	}
	if err := a.Validate(); err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	ctx, cancel := h.bounded(r)
	defer cancel()

	var (
		saved domain.Address
		err   error
	)
	status := http.StatusCreated
	if update {
		a.ID = chi.URLParam(r, "id")
		saved, err = h.accounts(s).UpdateAddress(ctx, a)
		status = http.StatusOK
	} else {
		a.ID = ""
		saved, err = h.accounts(s).CreateAddress(ctx, a)
	}
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, status, saved)
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.bounded(r)
	defer cancel()
	if err := h.accounts(s).DeleteAddress(ctx, chi.URLParam(r, "id")); err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubscribeRestock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if !decode(w, r, &req) {
		return
	}
	k, err := restock.NewKey(req.ProductID, req.Size, req.Color)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	ctx, cancel := h.bounded(r)
	defer cancel()

	s := currentSession(r)
	already, err := h.restock.Subscribe(ctx, s, h.accounts(s), k)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, RestockResponse{Subscribed: true, AlreadySubscribed: already})
}

func (h *Handler) RestockStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	k, err := restock.NewKey(q.Get("productId"), q.Get("size"), q.Get("color"))
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	ok, err := h.restock.IsSubscribed(r.Context(), currentSession(r), k)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, RestockResponse{Subscribed: ok})
}

func (h *Handler) GetPrepaint(w http.ResponseWriter, r *http.Request) {
	if h.prepaint == nil {
		httpjson.WriteError(w, http.StatusNotFound, "prepaint_disabled", "No prepaint content is configured.")
		return
	}
	name, err := prepaint.ParseName(chi.URLParam(r, "name"))
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	ctx, cancel := h.bounded(r)
	defer cancel()
	e, err := h.prepaint.Get(ctx, name)
	if err != nil {
		httpjson.WriteDomainError(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, e)
}
