package payment

import (
	"context"
	"log"
)

// GenericFailureMessage is shown when a provider fails without a usable reason.
const GenericFailureMessage = "Payment failed. Please try again."

// Result is the outcome of one payment dispatch. Reference carries the
// provider transaction or order identifier when the charge went through.
type Result struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Provider initiates a charge with an external mobile money provider.
// The idempotency key lets the provider detect repeated charges and lets the
// reconciliation worker query the charge outcome later.
type Provider interface {
	InitiatePayment(ctx context.Context, amount int64, phone, idempotencyKey string) (Result, error)
}

// StatusChecker is implemented by providers that can report the real outcome
// of a charge after the fact.
type StatusChecker interface {
	CheckChargeStatus(ctx context.Context, idempotencyKey string) (bool, error)
}

// Dispatcher routes a payment selection to the matching provider.
type Dispatcher struct {
	mtn      Provider
	orange   Provider
	attempts AttemptRepository // optional, records mobile money attempts
	logger   *log.Logger
}

func NewDispatcher(mtn, orange Provider, attempts AttemptRepository, logger *log.Logger) *Dispatcher {
	return &Dispatcher{mtn: mtn, orange: orange, attempts: attempts, logger: logger}
}

// Dispatch runs the selected payment. It never returns an error or panics:
// every failure mode ends up as a failed Result so the checkout flow can
// return the user to the payment step.
//
// A blank selection phone falls back to the shipping phone collected earlier.
func (d *Dispatcher) Dispatch(ctx context.Context, sel Selection, amount int64, shippingPhone, idempotencyKey string) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Printf("payment dispatch panic: %v", rec)
			res = Result{Error: GenericFailureMessage}
		}
	}()

	if amount <= 0 {
		return Result{Error: GenericFailureMessage}
	}

	phone := sel.Phone
	if phone == "" {
		phone = shippingPhone
	}

	switch sel.Method {
	case MethodCOD:
		// Settles physically at delivery, nothing to call.
		return Result{Success: true}
	case MethodMTNMoMo:
		return d.charge(ctx, d.mtn, sel.Method, amount, phone, idempotencyKey)
	case MethodOrangeMoney:
		return d.charge(ctx, d.orange, sel.Method, amount, phone, idempotencyKey)
	default:
		d.logger.Printf("dispatch: unknown payment method %q", sel.Method)
		return Result{Error: GenericFailureMessage}
	}
}

func (d *Dispatcher) charge(ctx context.Context, p Provider, method Method, amount int64, phone, key string) Result {
	d.recordAttempt(ctx, method, amount, phone, key)

	res, err := p.InitiatePayment(ctx, amount, phone, key)
	if err != nil {
		// The provider call itself failed: the charge outcome is unknown
		// until the reconciliation worker re-checks it.
		d.logger.Printf("%s payment error for key %s: %v", method, key, err)
		d.markAttempt(ctx, key, AttemptUnknown, "")
		return Result{Error: GenericFailureMessage}
	}

	if !res.Success {
		if res.Error == "" {
			res.Error = GenericFailureMessage
		}
		d.markAttempt(ctx, key, AttemptFailed, "")
		return res
	}

	d.markAttempt(ctx, key, AttemptSucceeded, res.Reference)
	return res
}

func (d *Dispatcher) recordAttempt(ctx context.Context, method Method, amount int64, phone, key string) {
	if d.attempts == nil {
		return
	}
	a := &Attempt{
		UserID:         userIDFromContext(ctx),
		Method:         method,
		Amount:         amount,
		Phone:          phone,
		IdempotencyKey: key,
		Status:         AttemptInitiated,
	}
	if err := d.attempts.Create(ctx, a); err != nil {
		d.logger.Printf("record payment attempt %s: %v", key, err)
	}
}

func (d *Dispatcher) markAttempt(ctx context.Context, key string, status AttemptStatus, reference string) {
	if d.attempts == nil {
		return
	}
	if err := d.attempts.MarkOutcome(ctx, key, status, reference); err != nil {
		d.logger.Printf("mark payment attempt %s %s: %v", key, status, err)
	}
}
