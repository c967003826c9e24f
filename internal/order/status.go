package order

// PaymentStatus records how far payment settlement has come. COD orders stay
// pending until the courier collects the money.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// Status is the fulfilment state owned by the back-office after checkout.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusProcessing, StatusDispatched, StatusDelivered, StatusCancelled:
		return Status(s), true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether the back-office may move an order from s to
// next. Delivered and cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusProcessing:
		return next == StatusDispatched || next == StatusCancelled
	case StatusDispatched:
		return next == StatusDelivered || next == StatusCancelled
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
