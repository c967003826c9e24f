package order

import (
	"time"

	"github.com/kamermarket/checkout-service-go/internal/payment"
)

// LineItem is an immutable snapshot of one cart line at order creation time.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// ShippingInfo is the delivery information collected during checkout.
type ShippingInfo struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Notes    string `json:"notes,omitempty"`
}

type Order struct {
	ID               string         `json:"orderId"`
	UserID           string         `json:"userId"`
	Items            []LineItem     `json:"items"`
	TotalAmount      int64          `json:"totalAmount"`
	Shipping         ShippingInfo   `json:"shippingInfo"`
	PaymentMethod    payment.Method `json:"paymentMethod"`
	PaymentStatus    PaymentStatus  `json:"paymentStatus"`
	PaymentReference string         `json:"paymentReference,omitempty"`
	Status           Status         `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
}
