package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/classifieds-api/internal/domain"
)

// Client is a thin HTTP client for the account API.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient returns a Client for the API at baseURL (no trailing slash).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Profile fetches the account record behind the given session token.
func (c *Client) Profile(ctx context.Context, token string) (*domain.Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/user/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("fetch profile: %w", domain.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var a domain.Account
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &a, nil
}

// Session holds the client's in-memory view of the logged-in account,
// backed by the token in durable storage.
type Session struct {
	client  *Client
	storage Storage

	mu      sync.Mutex
	account *domain.Account
}

// NewSession returns an empty Session backed by the given storage.
func NewSession(client *Client, storage Storage) *Session {
	return &Session{client: client, storage: storage}
}

// Hydrate populates the in-memory account from the stored token. A missing
// token leaves the session empty without error; a rejected token clears the
// stored copy and reports ErrUnauthorized.
func (s *Session) Hydrate(ctx context.Context) (*domain.Account, error) {
	tok, ok := s.storage.Get(TokenKey)
	if !ok || tok == "" {
		return nil, nil
	}
	a, err := s.client.Profile(ctx, tok)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.storage.Delete(TokenKey)
		}
		return nil, err
	}
	s.mu.Lock()
	s.account = a
	s.mu.Unlock()
	return a, nil
}

// Account returns the hydrated account, or nil when logged out.
func (s *Session) Account() *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// Clear drops the stored token and the in-memory account.
func (s *Session) Clear() {
	s.storage.Delete(TokenKey)
	s.mu.Lock()
	s.account = nil
	s.mu.Unlock()
}
