// Package client is a Go SDK for the finance tracker API.
//
// A Client keeps the session (access token, refresh token, profile) in a
// Store and attaches the access token to every authenticated request. When
// the server answers 401, the client refreshes the access token once and
// replays the request once. Concurrent requests that hit 401 together share
// a single refresh call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout = 10 * time.Second
	refreshKey     = "refresh"
	refreshPath    = "/api/auth/refresh-token"
)

// Client talks to the API on behalf of one user session. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	store   Store
	log     zerolog.Logger

	// persistMu serializes session writes with their Save or Clear so the
	// store always ends with the last in-memory state. Taken before mu.
	persistMu sync.Mutex
	mu        sync.RWMutex
	session   Session

	refreshes singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for refresh and session events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for baseURL, restoring any session found in store.
func New(baseURL string, store Store, opts ...Option) (*Client, error) {
	if store == nil {
		store = NewMemoryStore(Session{})
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	s, err := store.Load()
	if err != nil {
		return nil, err
	}
	c.session = s
	return c, nil
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// update applies fn to the session and persists the result. When fn reports
// false the session is left untouched and nothing is written.
func (c *Client) update(fn func(s *Session) bool) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	next := c.session
	if !fn(&next) {
		c.mu.Unlock()
		return nil
	}
	c.session = next
	c.mu.Unlock()
	return c.store.Save(next)
}

// clear drops the session locally and in the store.
func (c *Client) clear() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	c.session = Session{}
	c.mu.Unlock()
	return c.store.Clear()
}

// do performs an authenticated request, refreshing and replaying once on 401.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := encode(in)
	if err != nil {
		return err
	}

	sess := c.Session()
	if !sess.IsAuthenticated || sess.AccessToken == "" {
		return ErrNotAuthenticated
	}
	token := sess.AccessToken

	err = c.send(ctx, method, path, body, token, out)
	if !IsUnauthorized(err) {
		return err
	}

	if rerr := c.refreshAfter(ctx, token); rerr != nil {
		c.log.Debug().Err(rerr).Str("path", path).Msg("refresh failed, giving up")
		return err
	}

	sess = c.Session()
	if !sess.IsAuthenticated || sess.AccessToken == "" {
		return err
	}
	return c.send(ctx, method, path, body, sess.AccessToken, out)
}

// refreshAfter obtains an access token newer than stale. Callers whose stale
// token has already been replaced return immediately; the rest share one
// in-flight refresh.
func (c *Client) refreshAfter(ctx context.Context, stale string) error {
	fresh := func() (bool, error) {
		s := c.Session()
		if !s.IsAuthenticated || s.RefreshToken == "" {
			return false, ErrNotAuthenticated
		}
		return s.AccessToken != stale, nil
	}

	if ok, err := fresh(); ok || err != nil {
		return err
	}

	// The flight outlives any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	_, err, shared := c.refreshes.Do(refreshKey, func() (any, error) {
		if ok, err := fresh(); ok || err != nil {
			return nil, err
		}
		return nil, c.refresh(flightCtx, c.Session().RefreshToken)
	})
	if shared {
		c.log.Debug().Msg("joined in-flight token refresh")
	}
	return err
}

// refresh exchanges refreshToken for a new access token. A rejected refresh
// ends the session.
func (c *Client) refresh(ctx context.Context, refreshToken string) error {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	body, err := encode(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return err
	}

	err = c.send(ctx, http.MethodPost, refreshPath, body, "", &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.log.Info().Int("status", apiErr.StatusCode).Msg("refresh rejected, logging out")
		if cerr := c.clear(); cerr != nil {
			c.log.Error().Err(cerr).Msg("clear session failed")
		}
		return err
	}
	if err != nil {
		return err
	}

	applied := false
	if err := c.update(func(s *Session) bool {
		// A logout or a new login while the call was in flight wins.
		if !s.IsAuthenticated || s.RefreshToken != refreshToken {
			return false
		}
		s.AccessToken = resp.AccessToken
		applied = true
		return true
	}); err != nil {
		return err
	}
	if !applied {
		c.log.Debug().Msg("session changed during refresh, new access token dropped")
		return ErrNotAuthenticated
	}
	c.log.Debug().Msg("access token refreshed")
	return nil
}

// send performs one HTTP round trip. token may be empty for public endpoints.
func (c *Client) send(ctx context.Context, method, path string, body []byte, token string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func encode(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

func decodeError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: body.Error}
}
