package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront-orders/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Authenticate)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	r.Route("/orders/{id}", func(r chi.Router) {
		r.Get("/", handler.GetOrder)
		r.Post("/confirmations", handler.PrepareAction)
		r.Post("/confirmations/{confirmationId}", handler.ConfirmAction)
		r.Delete("/confirmations/{confirmationId}", handler.DismissAction)
		r.Post("/payment", handler.ConfirmPayment)
		r.Get("/journal", handler.GetJournal)
	})

	r.Get("/cart", handler.GetCart)
	r.Put("/cart/items", handler.SetCartItem)
	r.Delete("/cart/items/{productId}/{size}", handler.RemoveCartItem)

	r.Post("/checkout", handler.PlaceOrder)
	r.Post("/checkout/buy-now", handler.BuyNow)

	r.Get("/addresses", handler.ListAddresses)
	r.Post("/addresses", handler.CreateAddress)
	r.Put("/addresses/{id}", handler.UpdateAddress)
	r.Delete("/addresses/{id}", handler.DeleteAddress)

	r.Get("/restock-subscriptions", handler.RestockStatus)
	r.Post("/restock-subscriptions", handler.SubscribeRestock)

	r.Get("/prepaint/{name}", handler.GetPrepaint)
	return r
}
