package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned when a request needs a session and there is none.
var ErrNotAuthenticated = errors.New("client: not logged in")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}
