package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kamermarket/checkout-service-go/internal/cart"
	"github.com/kamermarket/checkout-service-go/internal/order"
	"github.com/kamermarket/checkout-service-go/internal/payment"
)

var (
	ErrWrongStep           = errors.New("operation not allowed in current step")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrOrderCreationFailed = errors.New("order creation failed")
)

// Dispatcher runs the selected payment method. Implemented by
// payment.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, sel payment.Selection, amount int64, shippingPhone, idempotencyKey string) payment.Result
}

// OrderCreator materializes a persisted order from checkout state.
// Implemented by order.Materializer.
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID string, items []cart.Item, shipping order.ShippingInfo, sel payment.Selection, res payment.Result) (*order.Order, error)
}

// Flow drives one user through checkout: info → payment → processing →
// success. All collaborators are injected; the flow owns its cart and form
// state exclusively. Methods are safe for use from HTTP handlers, but each
// flow is still driven by one user acting one step at a time.
type Flow struct {
	id     string
	userID string

	cart       *cart.Cart
	dispatcher Dispatcher
	orders     OrderCreator
	logger     *log.Logger

	countdownStart int
	tick           time.Duration
	onComplete     func()
	onCartCleared  func()

	mu             sync.Mutex
	step           Step
	shipping       order.ShippingInfo
	selection      payment.Selection
	idempotencyKey string
	errMsg         string
	advice         *RecoveryAdvice
	order          *order.Order
	countdown      int
	cartCleared    bool

	stopCountdown chan struct{}
	stopOnce      sync.Once
	completeOnce  sync.Once
	done          chan struct{}
}

type Option func(*Flow)

// WithCountdown overrides the success countdown length and tick interval.
func WithCountdown(start int, tick time.Duration) Option {
	return func(f *Flow) {
		f.countdownStart = start
		f.tick = tick
	}
}

// WithOnComplete registers a callback fired exactly once when the flow
// finishes, whether by countdown or manual continue.
func WithOnComplete(fn func()) Option {
	return func(f *Flow) { f.onComplete = fn }
}

// WithOnCartCleared registers a callback fired when the session cart is
// cleared after a successful order, e.g. to drop the persisted copy.
func WithOnCartCleared(fn func()) Option {
	return func(f *Flow) { f.onCartCleared = fn }
}

// WithShippingPrefill seeds the shipping form from the user profile, the way
// the storefront pre-fills name, phone and address.
func WithShippingPrefill(info order.ShippingInfo) Option {
	return func(f *Flow) { f.shipping = info }
}

func NewFlow(userID string, c *cart.Cart, d Dispatcher, oc OrderCreator, logger *log.Logger, opts ...Option) *Flow {
	f := &Flow{
		id:             uuid.NewString(),
		userID:         userID,
		cart:           c,
		dispatcher:     d,
		orders:         oc,
		logger:         logger,
		countdownStart: 7,
		tick:           time.Second,
		step:           StepInfo,
		selection:      payment.Selection{Method: payment.MethodCOD},
		idempotencyKey: uuid.NewString(),
		stopCountdown:  make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) ID() string     { return f.id }
func (f *Flow) UserID() string { return f.userID }

// Done is closed exactly once when the flow completes.
func (f *Flow) Done() <-chan struct{} { return f.done }

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Countdown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countdown
}

func (f *Flow) Order() *order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// State is a snapshot of the flow for rendering.
type State struct {
	CheckoutID string          `json:"checkoutId"`
	Step       Step            `json:"step"`
	CartTotal  int64           `json:"cartTotal"`
	Countdown  int             `json:"countdown,omitempty"`
	Error      string          `json:"error,omitempty"`
	Advice     *RecoveryAdvice `json:"recovery,omitempty"`
	Order      *order.Order    `json:"order,omitempty"`
}

func (f *Flow) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		CheckoutID: f.id,
		Step:       f.step,
		CartTotal:  f.cart.Total(),
		Countdown:  f.countdown,
		Error:      f.errMsg,
		Advice:     f.advice,
		Order:      f.order,
	}
}

// SubmitShipping validates the shipping form and advances info → payment.
// On a validation failure the flow stays in info and the error names the
// first failing field.
func (f *Flow) SubmitShipping(info order.ShippingInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepInfo {
		return fmt.Errorf("%w: submit shipping in step %s", ErrWrongStep, f.step)
	}

	info.FullName = strings.TrimSpace(info.FullName)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)

	if err := ValidateShipping(info); err != nil {
		f.errMsg = err.Error()
		return err
	}

	f.shipping = info
	f.errMsg = ""
	f.advice = nil
	f.step = StepPayment
	return nil
}

// Back returns from the payment step to the shipping form.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepPayment {
		return fmt.Errorf("%w: back in step %s", ErrWrongStep, f.step)
	}
	f.step = StepInfo
	f.errMsg = ""
	f.advice = nil
	return nil
}

// SelectPayment stores the payment choice while on the payment step.
func (f *Flow) SelectPayment(sel payment.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepPayment {
		return fmt.Errorf("%w: select payment in step %s", ErrWrongStep, f.step)
	}
	if _, err := payment.ParseMethod(string(sel.Method)); err != nil {
		return err
	}
	f.selection = sel
	return nil
}

// PlaceOrder dispatches the payment and materializes the order. Any failure
// returns the flow to the payment step with a message and recovery advice;
// success clears the cart exactly once and enters the success countdown.
func (f *Flow) PlaceOrder(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepPayment {
		return fmt.Errorf("%w: place order in step %s", ErrWrongStep, f.step)
	}

	f.step = StepProcessing
	f.errMsg = ""
	f.advice = nil

	ctx = payment.WithUserID(ctx, f.userID)

	res := f.dispatcher.Dispatch(ctx, f.selection, f.cart.Total(), f.shipping.Phone, f.idempotencyKey)
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = payment.GenericFailureMessage
		}
		f.fail(msg)
		return fmt.Errorf("%w: %s", ErrPaymentFailed, msg)
	}

	o, err := f.orders.CreateOrder(ctx, f.userID, f.cart.Snapshot(), f.shipping, f.selection, res)
	if err != nil {
		f.logger.Printf("flow %s: order creation failed after payment %q: %v", f.id, res.Reference, err)
		f.fail(err.Error())
		return fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	f.order = o
	f.clearCartOnce()
	f.enterSuccess()
	return nil
}

// Continue completes a successful flow immediately, cancelling the countdown.
func (f *Flow) Continue() error {
	f.mu.Lock()
	if f.step != StepSuccess {
		f.mu.Unlock()
		return fmt.Errorf("%w: continue in step %s", ErrWrongStep, f.step)
	}
	f.mu.Unlock()

	f.stopOnce.Do(func() { close(f.stopCountdown) })
	f.complete()
	return nil
}

// fail returns the flow to the payment step with a visible message and a
// recovery action menu. A fresh idempotency key is used for the next attempt
// so the provider treats a user-initiated retry as a new charge.
func (f *Flow) fail(msg string) {
	f.step = StepPayment
	f.errMsg = msg
	advice := AdviseRecovery(msg)
	f.advice = &advice
	f.idempotencyKey = uuid.NewString()
}

// clearCartOnce clears the cart if and only if this is the first successful
// order creation for the flow.
func (f *Flow) clearCartOnce() {
	if f.cartCleared {
		return
	}
	f.cart.Clear()
	f.cartCleared = true
	if f.onCartCleared != nil {
		f.onCartCleared()
	}
}

// enterSuccess is called with the lock held.
func (f *Flow) enterSuccess() {
	f.step = StepSuccess
	f.countdown = f.countdownStart
	if f.countdown <= 0 {
		go f.complete()
		return
	}
	go f.runCountdown()
}

func (f *Flow) runCountdown() {
	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	for {
		select {
		case <-f.stopCountdown:
			return
		case <-ticker.C:
			f.mu.Lock()
			f.countdown--
			remaining := f.countdown
			f.mu.Unlock()

			if remaining <= 0 {
				f.complete()
				return
			}
		}
	}
}

func (f *Flow) complete() {
	f.completeOnce.Do(func() {
		close(f.done)
		if f.onComplete != nil {
			f.onComplete()
		}
	})
}
