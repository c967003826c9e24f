package http

import (
	"net/http"

	"github.com/kamermarket/checkout-service-go/internal/session"
)

type SessionHandler struct {
	mgr *session.Manager
}

func NewSessionHandler(mgr *session.Manager) *SessionHandler {
	return &SessionHandler{mgr: mgr}
}

type sessionStatus struct {
	Valid   bool             `json:"valid"`
	Session *session.Session `json:"session,omitempty"`
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	valid := h.mgr.Check(r.Context())
	writeJSON(w, http.StatusOK, sessionStatus{Valid: valid, Session: h.mgr.Current()})
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.mgr.Refresh(r.Context()) {
		writeJSON(w, http.StatusUnauthorized, sessionStatus{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, sessionStatus{Valid: true, Session: h.mgr.Current()})
}
