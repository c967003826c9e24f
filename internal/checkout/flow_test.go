package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kamermarket/checkout-service-go/internal/cart"
	"github.com/kamermarket/checkout-service-go/internal/order"
	"github.com/kamermarket/checkout-service-go/internal/payment"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDispatcher struct {
	dispatchFunc func(ctx context.Context, sel payment.Selection, amount int64, shippingPhone, idempotencyKey string) payment.Result

	calls []dispatchCall
}

type dispatchCall struct {
	sel            payment.Selection
	amount         int64
	shippingPhone  string
	idempotencyKey string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, sel payment.Selection, amount int64, shippingPhone, idempotencyKey string) payment.Result {
	f.calls = append(f.calls, dispatchCall{sel: sel, amount: amount, shippingPhone: shippingPhone, idempotencyKey: idempotencyKey})
	if f.dispatchFunc != nil {
		return f.dispatchFunc(ctx, sel, amount, shippingPhone, idempotencyKey)
	}
	return payment.Result{Success: true}
}

type fakeCreator struct {
	createFunc func(ctx context.Context, userID string, items []cart.Item, shipping order.ShippingInfo, sel payment.Selection, res payment.Result) (*order.Order, error)

	calls int
}

func (f *fakeCreator) CreateOrder(ctx context.Context, userID string, items []cart.Item, shipping order.ShippingInfo, sel payment.Selection, res payment.Result) (*order.Order, error) {
	f.calls++
	if f.createFunc != nil {
		return f.createFunc(ctx, userID, items, shipping, sel, res)
	}
	return &order.Order{ID: uuid.NewString(), UserID: userID, Shipping: shipping}, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testCart() *cart.Cart {
	c := cart.New("user-1")
	c.AddItem(cart.Item{ProductID: "p1", Name: "Savon de Marseille", UnitPrice: 1000, Quantity: 2})
	return c
}

func TestFlow_StartsAtInfo(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger())

	assert.Equal(t, StepInfo, f.Step())
	snap := f.Snapshot()
	assert.Equal(t, int64(2000), snap.CartTotal)
	assert.Empty(t, snap.Error)
	assert.Nil(t, snap.Order)
}

func TestSubmitShipping_ValidationFailureStaysOnInfo(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger())

	err := f.SubmitShipping(order.ShippingInfo{FullName: "Ngono Marie"})
	require.Error(t, err)

	assert.Equal(t, StepInfo, f.Step())
	assert.Equal(t, "phone number is required", f.Snapshot().Error)
}

func TestSubmitShipping_ValidAdvancesToPayment(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger())

	require.NoError(t, f.SubmitShipping(validShipping()))

	assert.Equal(t, StepPayment, f.Step())
	assert.Empty(t, f.Snapshot().Error)
}

func TestSubmitShipping_WrongStep(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger())
	require.NoError(t, f.SubmitShipping(validShipping()))

	err := f.SubmitShipping(validShipping())
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestBack_ReturnsToInfoAndClearsError(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger())
	require.NoError(t, f.SubmitShipping(validShipping()))

	require.NoError(t, f.Back())
	assert.Equal(t, StepInfo, f.Step())

	assert.ErrorIs(t, f.Back(), ErrWrongStep)
}

func TestSelectPayment_RejectsUnknownMethod(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger())
	require.NoError(t, f.SubmitShipping(validShipping()))

	err := f.SelectPayment(payment.Selection{Method: "paypal"})
	assert.Error(t, err)
}

func TestPlaceOrder_CODSuccess(t *testing.T) {
	disp := &fakeDispatcher{}
	creator := &fakeCreator{}
	c := testCart()

	var cartCleared atomic.Int32
	f := NewFlow("user-1", c, disp, creator, testLogger(),
		WithCountdown(3, 10*time.Millisecond),
		WithOnCartCleared(func() { cartCleared.Add(1) }),
	)

	require.NoError(t, f.SubmitShipping(validShipping()))
	require.NoError(t, f.SelectPayment(payment.Selection{Method: payment.MethodCOD}))
	require.NoError(t, f.PlaceOrder(context.Background()))

	assert.Equal(t, StepSuccess, f.Step())
	assert.NotNil(t, f.Order())
	assert.True(t, c.IsEmpty(), "cart must be cleared after a created order")
	assert.Equal(t, int32(1), cartCleared.Load())
	assert.Equal(t, 1, creator.calls)

	// 2 × 1000 FCFA lines dispatched as a 2000 FCFA charge.
	require.Len(t, disp.calls, 1)
	assert.Equal(t, int64(2000), disp.calls[0].amount)
	assert.Equal(t, "237670000001", disp.calls[0].shippingPhone)

	require.NoError(t, f.Continue())
	<-f.Done()
}

func TestPlaceOrder_PaymentFailureReturnsToPayment(t *testing.T) {
	disp := &fakeDispatcher{
		dispatchFunc: func(ctx context.Context, sel payment.Selection, amount int64, shippingPhone, idempotencyKey string) payment.Result {
			return payment.Result{Error: "payment declined by mtn-momo"}
		},
	}
	creator := &fakeCreator{}
	c := testCart()
	f := NewFlow("user-1", c, disp, creator, testLogger())

	require.NoError(t, f.SubmitShipping(validShipping()))
	require.NoError(t, f.SelectPayment(payment.Selection{Method: payment.MethodMTNMoMo, Phone: "670000002"}))

	err := f.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrPaymentFailed)

	snap := f.Snapshot()
	assert.Equal(t, StepPayment, snap.Step)
	assert.Equal(t, "payment declined by mtn-momo", snap.Error)
	require.NotNil(t, snap.Advice)
	assert.False(t, snap.Advice.SessionRelated)

	assert.Equal(t, 0, creator.calls, "no order on failed payment")
	assert.False(t, c.IsEmpty(), "cart survives a failed payment")
}

func TestPlaceOrder_BlankFailureGetsGenericMessage(t *testing.T) {
	disp := &fakeDispatcher{
		dispatchFunc: func(ctx context.Context, sel payment.Selection, amount int64, shippingPhone, idempotencyKey string) payment.Result {
			return payment.Result{}
		},
	}
	f := NewFlow("user-1", testCart(), disp, &fakeCreator{}, testLogger())

	require.NoError(t, f.SubmitShipping(validShipping()))
	require.ErrorIs(t, f.PlaceOrder(context.Background()), ErrPaymentFailed)

	assert.Equal(t, payment.GenericFailureMessage, f.Snapshot().Error)
}

func TestPlaceOrder_RotatesIdempotencyKeyBetweenAttempts(t *testing.T) {
	disp := &fakeDispatcher{
		dispatchFunc: func(ctx context.Context, sel payment.Selection, amount int64, shippingPhone, idempotencyKey string) payment.Result {
			return payment.Result{Error: "payment declined by orange-money"}
		},
	}
	f := NewFlow("user-1", testCart(), disp, &fakeCreator{}, testLogger())

	require.NoError(t, f.SubmitShipping(validShipping()))
	require.NoError(t, f.SelectPayment(payment.Selection{Method: payment.MethodOrangeMoney}))

	require.Error(t, f.PlaceOrder(context.Background()))
	require.Error(t, f.PlaceOrder(context.Background()))

	require.Len(t, disp.calls, 2)
	assert.NotEqual(t, disp.calls[0].idempotencyKey, disp.calls[1].idempotencyKey,
		"a user-initiated retry must be a new charge")
}

func TestPlaceOrder_OrderCreationFailureAfterPayment(t *testing.T) {
	creator := &fakeCreator{
		createFunc: func(ctx context.Context, userID string, items []cart.Item, shipping order.ShippingInfo, sel payment.Selection, res payment.Result) (*order.Order, error) {
			return nil, errors.New("session expired")
		},
	}
	c := testCart()
	f := NewFlow("user-1", c, &fakeDispatcher{}, creator, testLogger())

	require.NoError(t, f.SubmitShipping(validShipping()))
	err := f.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrOrderCreationFailed)

	snap := f.Snapshot()
	assert.Equal(t, StepPayment, snap.Step)
	require.NotNil(t, snap.Advice)
	assert.True(t, snap.Advice.SessionRelated)
	assert.Equal(t, RecoveryAction("refresh-session"), snap.Advice.Actions[0])

	assert.False(t, c.IsEmpty(), "cart survives when no order was created")
}

func TestCountdown_CompletesOnItsOwn(t *testing.T) {
	var completed atomic.Int32
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger(),
		WithCountdown(3, 5*time.Millisecond),
		WithOnComplete(func() { completed.Add(1) }),
	)

	require.NoError(t, f.SubmitShipping(validShipping()))
	require.NoError(t, f.PlaceOrder(context.Background()))
	assert.LessOrEqual(t, f.Countdown(), 3)

	select {
	case <-f.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not complete")
	}

	assert.LessOrEqual(t, f.Countdown(), 0)
	assert.Equal(t, int32(1), completed.Load())
}

func TestContinue_CompletesExactlyOnce(t *testing.T) {
	var completed atomic.Int32
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger(),
		WithCountdown(5, 5*time.Millisecond),
		WithOnComplete(func() { completed.Add(1) }),
	)

	require.NoError(t, f.SubmitShipping(validShipping()))
	require.NoError(t, f.PlaceOrder(context.Background()))

	require.NoError(t, f.Continue())
	require.NoError(t, f.Continue())

	<-f.Done()
	// Let any straggling tick fire; completion must not run again.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), completed.Load())
}

func TestContinue_WrongStep(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger())
	assert.ErrorIs(t, f.Continue(), ErrWrongStep)
}

func TestPlaceOrder_ZeroCountdownCompletesImmediately(t *testing.T) {
	f := NewFlow("user-1", testCart(), &fakeDispatcher{}, &fakeCreator{}, testLogger(),
		WithCountdown(0, time.Millisecond),
	)

	require.NoError(t, f.SubmitShipping(validShipping()))
	require.NoError(t, f.PlaceOrder(context.Background()))

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("flow with zero countdown did not complete")
	}
}
