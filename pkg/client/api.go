package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Entry is an earning or expense as returned by the API.
type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time,omitempty"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewEntry is the payload of CreateEntry. Date is YYYY-MM-DD or RFC 3339.
type NewEntry struct {
	Date        string  `json:"date"`
	Time        string  `json:"time,omitempty"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// EntryPatch is the payload of UpdateEntry; nil fields are not sent.
type EntryPatch struct {
	Date        *string  `json:"date,omitempty"`
	Time        *string  `json:"time,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// MonthlyQuery holds the optional filters of Monthly.
type MonthlyQuery struct {
	Type        string
	Category    string
	Description string
	SortOrder   string
}

func (q MonthlyQuery) encode() string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("type", q.Type)
	set("category", q.Category)
	set("description", q.Description)
	set("sortOrder", q.SortOrder)
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type MonthTotals struct {
	Month        string  `json:"month"`
	Earnings     float64 `json:"earnings"`
	Expenditures float64 `json:"expenditures"`
	Balance      float64 `json:"balance"`
}

type YearSummary struct {
	Year         int           `json:"year"`
	Months       []MonthTotals `json:"months"`
	Earnings     float64       `json:"earnings"`
	Expenditures float64       `json:"expenditures"`
	Balance      float64       `json:"balance"`
}

type Categories struct {
	Expense []string `json:"expense"`
	Earning []string `json:"earning"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

// Signup creates an account and starts a session with the returned tokens.
func (c *Client) Signup(ctx context.Context, username, email, password string) error {
	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.public(ctx, "/api/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &resp); err != nil {
		return err
	}
	return c.update(func(s *Session) bool {
		*s = Session{
			AccessToken:     resp.AccessToken,
			RefreshToken:    resp.RefreshToken,
			User:            &Profile{Username: username, Email: email},
			IsAuthenticated: true,
		}
		return true
	})
}

// Login starts a session. Any session previously held by this client is replaced.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	var resp struct {
		AccessToken  string  `json:"accessToken"`
		RefreshToken string  `json:"refreshToken"`
		User         Profile `json:"user"`
	}
	if err := c.public(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp); err != nil {
		return nil, err
	}

	user := resp.User
	if err := c.update(func(s *Session) bool {
		*s = Session{
			AccessToken:     resp.AccessToken,
			RefreshToken:    resp.RefreshToken,
			User:            &user,
			IsAuthenticated: true,
		}
		return true
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the server-side session and always clears the local one.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if cerr := c.clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// ForgotPassword asks the server to email a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.public(ctx, "/api/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password using the token from the reset link.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.public(ctx, "/api/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": newPassword,
	}, nil)
}

// Me fetches the caller's profile and stores it in the session.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &p); err != nil {
		return nil, err
	}
	if err := c.update(func(s *Session) bool {
		if !s.IsAuthenticated {
			return false
		}
		s.User = &p
		return true
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

// public posts to an unauthenticated endpoint; these never refresh or replay.
func (c *Client) public(ctx context.Context, path string, in, out any) error {
	body, err := encode(in)
	if err != nil {
		return err
	}
	if out == nil {
		out = &messageResponse{}
	}
	return c.send(ctx, http.MethodPost, path, body, "", out)
}

// --- Entries ---

func (c *Client) CreateEntry(ctx context.Context, e NewEntry) (*Entry, error) {
	var out Entry
	if err := c.do(ctx, http.MethodPost, "/api/expenses", e, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEntries(ctx context.Context) ([]Entry, error) {
	var out []Entry
	if err := c.do(ctx, http.MethodGet, "/api/expenses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateEntry(ctx context.Context, id string, patch EntryPatch) (*Entry, error) {
	var out Entry
	if err := c.do(ctx, http.MethodPut, "/api/expenses/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(id), nil, &messageResponse{})
}

// --- Reports ---

// Monthly lists the entries of one month, e.g. Monthly(ctx, 2025, "January", q).
func (c *Client) Monthly(ctx context.Context, year int, month string, q MonthlyQuery) ([]Entry, error) {
	path := fmt.Sprintf("/api/monthly/%d/%s%s", year, url.PathEscape(month), q.encode())
	var out []Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Summary(ctx context.Context, year int) (*YearSummary, error) {
	var out YearSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/summary/%d", year), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories returns the suggested categories. No session is needed.
func (c *Client) Categories(ctx context.Context) (*Categories, error) {
	var out Categories
	if err := c.send(ctx, http.MethodGet, "/api/categories", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
