package checkout

import (
	"regexp"
	"strings"

	"github.com/kamermarket/checkout-service-go/internal/order"
)

// Cameroonian numbers: optional 237 country prefix, then 8 or 9 digits.
var phonePattern = regexp.MustCompile(`^(237)?[0-9]{8,9}$`)

var (
	ErrFullNameRequired = &ValidationError{Field: "fullName", message: "full name is required"}
	ErrPhoneRequired    = &ValidationError{Field: "phone", message: "phone number is required"}
	ErrAddressRequired  = &ValidationError{Field: "address", message: "delivery address is required"}
	ErrInvalidPhone     = &ValidationError{Field: "phone", message: "please enter a valid phone number"}
)

// ValidationError identifies the first form field that failed validation.
type ValidationError struct {
	Field   string
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

// ValidateShipping checks the shipping form and returns the error for the
// first failing rule, in fixed priority order: name, phone, address, phone
// format.
func ValidateShipping(info order.ShippingInfo) error {
	if strings.TrimSpace(info.FullName) == "" {
		return ErrFullNameRequired
	}
	if strings.TrimSpace(info.Phone) == "" {
		return ErrPhoneRequired
	}
	if strings.TrimSpace(info.Address) == "" {
		return ErrAddressRequired
	}
	if !phonePattern.MatchString(strings.TrimSpace(info.Phone)) {
		return ErrInvalidPhone
	}
	return nil
}
