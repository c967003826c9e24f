package payment

import "fmt"

// Method is the payment method chosen at checkout.
type Method string

const (
	MethodCOD         Method = "cod"
	MethodMTNMoMo     Method = "momo"
	MethodOrangeMoney Method = "orange"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodCOD, MethodMTNMoMo, MethodOrangeMoney:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// RequiresPhone reports whether the method needs a mobile money phone number.
func (m Method) RequiresPhone() bool {
	return m == MethodMTNMoMo || m == MethodOrangeMoney
}

func (m Method) String() string {
	return string(m)
}

// Selection is the user's payment choice. Phone may be blank for mobile money
// methods, in which case the shipping phone is used instead.
type Selection struct {
	Method Method `json:"method"`
	Phone  string `json:"phone,omitempty"`
}
