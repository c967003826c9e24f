package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kamermarket/checkout-service-go/internal/cart"
	"github.com/kamermarket/checkout-service-go/internal/checkout"
	"github.com/kamermarket/checkout-service-go/internal/order"
	"github.com/kamermarket/checkout-service-go/internal/payment"
)

const headerUserID = "X-User-Id"

// CheckoutHandler exposes the checkout flow over HTTP. Each started checkout
// lives in the FlowStore until it completes or is replaced.
type CheckoutHandler struct {
	flows      *FlowStore
	carts      cart.Repository
	dispatcher checkout.Dispatcher
	orders     checkout.OrderCreator
	logger     *log.Logger

	countdownStart int
	countdownTick  time.Duration
}

func NewCheckoutHandler(
	flows *FlowStore,
	carts cart.Repository,
	dispatcher checkout.Dispatcher,
	orders checkout.OrderCreator,
	logger *log.Logger,
	countdownStart int,
	countdownTick time.Duration,
) *CheckoutHandler {
	return &CheckoutHandler{
		flows:          flows,
		carts:          carts,
		dispatcher:     dispatcher,
		orders:         orders,
		logger:         logger,
		countdownStart: countdownStart,
		countdownTick:  countdownTick,
	}
}

type startCheckoutRequest struct {
	Shipping *order.ShippingInfo `json:"shipping,omitempty"` // optional profile prefill
}

// Start begins a checkout for the user's persisted cart.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing "+headerUserID+" header")
		return
	}

	var req startCheckoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		h.logger.Printf("start checkout for %s: load cart: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil || c.IsEmpty() {
		writeError(w, http.StatusConflict, "cart is empty")
		return
	}

	opts := []checkout.Option{
		checkout.WithCountdown(h.countdownStart, h.countdownTick),
		checkout.WithOnCartCleared(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := h.carts.ClearCart(ctx, userID); err != nil {
				h.logger.Printf("clear persisted cart for %s: %v", userID, err)
			}
		}),
	}
	if req.Shipping != nil {
		opts = append(opts, checkout.WithShippingPrefill(*req.Shipping))
	}

	var f *checkout.Flow
	opts = append(opts, checkout.WithOnComplete(func() {
		h.flows.Remove(f.ID())
	}))

	f = checkout.NewFlow(userID, c, h.dispatcher, h.orders, h.logger, opts...)
	h.flows.Put(f)

	writeJSON(w, http.StatusCreated, f.Snapshot())
}

func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f.Snapshot())
}

// SubmitShipping validates the shipping form and advances to the payment step.
func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var info order.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := f.SubmitShipping(info); err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, f.Snapshot())
		case errors.Is(err, checkout.ErrWrongStep):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, f.Snapshot())
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := f.Back(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f.Snapshot())
}

func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var sel payment.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := f.SelectPayment(sel); err != nil {
		if errors.Is(err, checkout.ErrWrongStep) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, f.Snapshot())
}

// PlaceOrder runs payment and order creation. Failures return the flow to the
// payment step; the snapshot carries the message and recovery actions.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookup(w, r)
	if !ok {
		return
	}

	// Payment calls can be slow; give them more room than reads.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := f.PlaceOrder(ctx); err != nil {
		switch {
		case errors.Is(err, checkout.ErrWrongStep):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, checkout.ErrPaymentFailed):
			writeJSON(w, http.StatusPaymentRequired, f.Snapshot())
		case errors.Is(err, checkout.ErrOrderCreationFailed):
			writeJSON(w, http.StatusInternalServerError, f.Snapshot())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, f.Snapshot())
}

func (h *CheckoutHandler) Continue(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := f.Continue(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f.Snapshot())
}

func (h *CheckoutHandler) lookup(w http.ResponseWriter, r *http.Request) (*checkout.Flow, bool) {
	checkoutID := r.PathValue("checkoutId")
	if checkoutID == "" {
		writeError(w, http.StatusBadRequest, "missing checkoutId")
		return nil, false
	}
	f, ok := h.flows.Get(checkoutID)
	if !ok {
		writeError(w, http.StatusNotFound, "checkout not found")
		return nil, false
	}
	return f, true
}
