package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// Session is the authenticated user's session as reported by the auth
// service.
type Session struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// AuthClient talks to the auth service. Both calls return a nil session when
// no session exists.
type AuthClient interface {
	GetSession(ctx context.Context) (*Session, error)
	RefreshSession(ctx context.Context) (*Session, error)
}

// Manager caches session validity for the recovery advisor wiring and
// re-checks it periodically.
type Manager struct {
	auth   AuthClient
	logger *log.Logger

	now func() time.Time

	mu      sync.RWMutex
	valid   bool
	session *Session
}

func NewManager(auth AuthClient, logger *log.Logger) *Manager {
	return &Manager{auth: auth, logger: logger, now: time.Now}
}

func (m *Manager) IsSessionValid() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.valid
}

func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Check asks the auth service for the current session and updates validity.
func (m *Manager) Check(ctx context.Context) bool {
	s, err := m.auth.GetSession(ctx)
	if err != nil {
		m.logger.Printf("session check: %v", err)
		m.set(nil, false)
		return false
	}
	if s == nil || s.expired(m.now()) {
		m.set(nil, false)
		return false
	}
	m.set(s, true)
	return true
}

// Refresh attempts to refresh the session. On failure the cached session is
// dropped so the recovery advisor can steer the user to re-authenticate.
func (m *Manager) Refresh(ctx context.Context) bool {
	s, err := m.auth.RefreshSession(ctx)
	if err != nil {
		m.logger.Printf("session refresh: %v", err)
		m.set(nil, false)
		return false
	}
	if s == nil || s.expired(m.now()) {
		m.set(nil, false)
		return false
	}
	m.set(s, true)
	return true
}

// StartPeriodicCheck re-validates the session on an interval until the
// context is cancelled. The storefront used five minutes.
func (m *Manager) StartPeriodicCheck(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

func (m *Manager) set(s *Session, valid bool) {
	m.mu.Lock()
	m.session = s
	m.valid = valid
	m.mu.Unlock()
}
