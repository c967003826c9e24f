package http

import (
	"sync"

	"github.com/kamermarket/checkout-service-go/internal/checkout"
)

// FlowStore holds in-flight checkout flows keyed by checkout id. A user has at
// most one active flow; starting a new one abandons the previous.
type FlowStore struct {
	mu     sync.Mutex
	byID   map[string]*checkout.Flow
	byUser map[string]string // userID -> checkoutID
}

func NewFlowStore() *FlowStore {
	return &FlowStore{
		byID:   make(map[string]*checkout.Flow),
		byUser: make(map[string]string),
	}
}

func (s *FlowStore) Put(f *checkout.Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byUser[f.UserID()]; ok {
		delete(s.byID, old)
	}
	s.byID[f.ID()] = f
	s.byUser[f.UserID()] = f.ID()
}

func (s *FlowStore) Get(checkoutID string) (*checkout.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[checkoutID]
	return f, ok
}

func (s *FlowStore) Remove(checkoutID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.byID[checkoutID]
	if !ok {
		return
	}
	delete(s.byID, checkoutID)
	if s.byUser[f.UserID()] == checkoutID {
		delete(s.byUser, f.UserID())
	}
}
