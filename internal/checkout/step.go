package checkout

// Step is the position of a checkout flow. Flows move strictly
// info → payment → processing → success; failures fall back to payment.
type Step string

const (
	StepInfo       Step = "info"
	StepPayment    Step = "payment"
	StepProcessing Step = "processing"
	StepSuccess    Step = "success"
)

func (s Step) IsTerminal() bool {
	return s == StepSuccess
}

// String representation (for logging)
func (s Step) String() string {
	return string(s)
}
