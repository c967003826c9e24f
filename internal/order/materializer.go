package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kamermarket/checkout-service-go/internal/cart"
	"github.com/kamermarket/checkout-service-go/internal/payment"
)

var (
	ErrEmptyCart     = errors.New("cannot create an order from an empty cart")
	ErrTotalMismatch = errors.New("order total does not match cart items")
	// ErrPaymentNotSettled guards against materializing an order for a
	// payment the dispatcher did not report as successful.
	ErrPaymentNotSettled = errors.New("payment result is not successful")
)

// Creator persists a built order. Satisfied by Repository.
type Creator interface {
	Create(ctx context.Context, o *Order) error
}

// EventPublisher announces created orders to the rest of the system.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}

// Materializer converts validated checkout state into a persisted order.
// It calls the repository exactly once per checkout and never retries.
type Materializer struct {
	repo      Creator
	publisher EventPublisher // optional
	logger    *log.Logger

	now func() time.Time
}

func NewMaterializer(repo Creator, publisher EventPublisher, logger *log.Logger) *Materializer {
	return &Materializer{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder builds and persists the order. COD orders get paymentStatus
// pending (the money settles at delivery); everything else requires a
// successful payment result and gets completed.
func (m *Materializer) CreateOrder(
	ctx context.Context,
	userID string,
	items []cart.Item,
	shipping ShippingInfo,
	sel payment.Selection,
	res payment.Result,
) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if !res.Success {
		return nil, ErrPaymentNotSettled
	}

	lineItems := make([]LineItem, 0, len(items))
	var total int64
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s has quantity %d", ErrTotalMismatch, it.ProductID, it.Quantity)
		}
		lineItems = append(lineItems, LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
		total += it.UnitPrice * int64(it.Quantity)
	}

	paymentStatus := PaymentCompleted
	if sel.Method == payment.MethodCOD {
		paymentStatus = PaymentPending
	}

	o := &Order{
		UserID:           userID,
		Items:            lineItems,
		TotalAmount:      total,
		Shipping:         shipping,
		PaymentMethod:    sel.Method,
		PaymentStatus:    paymentStatus,
		PaymentReference: res.Reference,
		Status:           StatusProcessing,
		CreatedAt:        m.now().UTC(),
	}

	if err := m.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Best effort: a missed event must not fail an order that is already
	// persisted and possibly paid.
	if m.publisher != nil {
		if err := m.publisher.PublishOrderCreated(ctx, o); err != nil {
			m.logger.Printf("publish OrderCreated for %s: %v", o.ID, err)
		}
	}

	return o, nil
}
