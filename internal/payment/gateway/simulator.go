// Package gateway provides mobile money provider implementations. The
// Simulator stands in for the MTN and Orange APIs in local development and
// tests; it keeps charge outcomes per idempotency key so repeated calls and
// status checks see a consistent result.
package gateway

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/kamermarket/checkout-service-go/internal/payment"
)

// Outcome distribution per 100 charges. The timeout slice models the charge
// going through while the caller sees an error.
const (
	successBelow = 80
	declineBelow = 95
)

type Simulator struct {
	name string

	mu      sync.RWMutex
	charges map[string]bool

	randIntN func(n int) int
}

func NewSimulator(name string) *Simulator {
	return &Simulator{
		name:     name,
		charges:  make(map[string]bool),
		randIntN: rand.IntN,
	}
}

func (s *Simulator) InitiatePayment(ctx context.Context, amount int64, phone, idempotencyKey string) (payment.Result, error) {
	if phone == "" {
		return payment.Result{Error: "phone number is required"}, nil
	}

	// Repeated charge for a known key returns the recorded outcome.
	s.mu.RLock()
	charged, seen := s.charges[idempotencyKey]
	s.mu.RUnlock()
	if seen {
		if charged {
			return payment.Result{Success: true, Reference: s.reference()}, nil
		}
		return payment.Result{Error: "payment declined by " + s.name}, nil
	}

	switch chance := s.randIntN(100); {
	case chance < successBelow:
		s.record(idempotencyKey, true)
		return payment.Result{Success: true, Reference: s.reference()}, nil
	case chance < declineBelow:
		s.record(idempotencyKey, false)
		return payment.Result{Error: "payment declined by " + s.name}, nil
	default:
		// Charge lands on the provider side but the caller gets an error.
		s.record(idempotencyKey, true)
		return payment.Result{}, errors.New("connection timeout")
	}
}

// CheckChargeStatus reports whether the provider recorded a successful charge
// for the key.
func (s *Simulator) CheckChargeStatus(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.charges[idempotencyKey], nil
}

func (s *Simulator) record(key string, charged bool) {
	s.mu.Lock()
	s.charges[key] = charged
	s.mu.Unlock()
}

func (s *Simulator) reference() string {
	return s.name + "-" + uuid.NewString()
}
