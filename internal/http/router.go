package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kamermarket/checkout-service-go/internal/cart"
	"github.com/kamermarket/checkout-service-go/internal/http/middleware"
	"github.com/kamermarket/checkout-service-go/internal/order"
	"github.com/kamermarket/checkout-service-go/internal/rewards"
	"github.com/kamermarket/checkout-service-go/internal/session"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Carts    cart.Repository
	Orders   order.Repository
	Checkout *CheckoutHandler
	Rewards  *rewards.Service
	Sessions *session.Manager
	Logger   *log.Logger

	CORSAllowOrigins []string
}

func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)

	ch := NewCartHandler(deps.Carts)
	mux.HandleFunc("GET /api/users/{userId}/cart", ch.GetCart)
	mux.HandleFunc("POST /api/users/{userId}/cart/items", ch.AddItem)
	mux.HandleFunc("PUT /api/users/{userId}/cart/items/{productId}", ch.UpdateQuantity)
	mux.HandleFunc("DELETE /api/users/{userId}/cart/items/{productId}", ch.RemoveItem)

	co := deps.Checkout
	mux.HandleFunc("POST /api/checkout", co.Start)
	mux.HandleFunc("GET /api/checkout/{checkoutId}", co.GetState)
	mux.HandleFunc("POST /api/checkout/{checkoutId}/shipping", co.SubmitShipping)
	mux.HandleFunc("POST /api/checkout/{checkoutId}/back", co.Back)
	mux.HandleFunc("POST /api/checkout/{checkoutId}/payment", co.SelectPayment)
	mux.HandleFunc("POST /api/checkout/{checkoutId}/place-order", co.PlaceOrder)
	mux.HandleFunc("POST /api/checkout/{checkoutId}/continue", co.Continue)

	oh := NewOrderHandler(deps.Orders)
	mux.HandleFunc("GET /api/orders/{orderId}", oh.GetOrder)
	mux.HandleFunc("GET /api/users/{userId}/orders", oh.ListOrdersByUser)
	mux.HandleFunc("PATCH /api/orders/{orderId}/status", oh.UpdateStatus)

	rh := NewRewardsHandler(deps.Rewards)
	mux.HandleFunc("POST /api/users/{userId}/spin", rh.Spin)
	mux.HandleFunc("GET /api/users/{userId}/rewards", rh.ListRewards)

	sh := NewSessionHandler(deps.Sessions)
	mux.HandleFunc("GET /api/session", sh.GetSession)
	mux.HandleFunc("POST /api/session/refresh", sh.Refresh)

	var handler http.Handler = mux
	handler = middleware.CORS(deps.CORSAllowOrigins)(handler)
	handler = middleware.Recover(deps.Logger)(handler)
	handler = middleware.CorrelationID(handler)
	return handler
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "checkout-service",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
