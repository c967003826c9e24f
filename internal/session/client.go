package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// HTTPAuthClient implements AuthClient against the auth service's REST API.
type HTTPAuthClient struct {
	baseURL *url.URL
	http    *http.Client
}

func NewHTTPAuthClient(baseURL string, httpClient *http.Client) (*HTTPAuthClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid auth base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPAuthClient{baseURL: u, http: httpClient}, nil
}

func (c *HTTPAuthClient) GetSession(ctx context.Context) (*Session, error) {
	return c.do(ctx, http.MethodGet, "/auth/session")
}

func (c *HTTPAuthClient) RefreshSession(ctx context.Context) (*Session, error) {
	return c.do(ctx, http.MethodPost, "/auth/refresh")
}

func (c *HTTPAuthClient) do(ctx context.Context, method, path string) (*Session, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var s Session
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		return &s, nil
	case http.StatusUnauthorized, http.StatusNotFound:
		// No session.
		return nil, nil
	default:
		return nil, fmt.Errorf("auth service returned %d", resp.StatusCode)
	}
}
