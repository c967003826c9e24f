package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAuthClient_GetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/session", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Session{
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(time.Hour).UTC(),
		})
	}))
	defer srv.Close()

	client, err := NewHTTPAuthClient(srv.URL, srv.Client())
	require.NoError(t, err)

	s, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "user-1", s.UserID)
}

func TestHTTPAuthClient_NoSessionOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewHTTPAuthClient(srv.URL, srv.Client())
	require.NoError(t, err)

	s, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestHTTPAuthClient_RefreshSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/refresh", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Session{
			UserID:    "user-1",
			ExpiresAt: time.Now().Add(time.Hour).UTC(),
		})
	}))
	defer srv.Close()

	client, err := NewHTTPAuthClient(srv.URL, srv.Client())
	require.NoError(t, err)

	s, err := client.RefreshSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestHTTPAuthClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewHTTPAuthClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = client.GetSession(context.Background())
	assert.Error(t, err)
}
