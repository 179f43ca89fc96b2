package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the identity session is missing or expired and
	// the caller should sign in again.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrOrganizationRequired is returned when no organization is selected.
	ErrOrganizationRequired = errors.New("organization required")
)

// APIError carries a failure envelope. Message is the server text, meant to
// be shown to the user as is.
type APIError struct {
	Status  int
	Message string
	Errors  interface{}
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return e.Message
}

// StatusOf returns the HTTP status behind err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrOrganizationRequired):
		return 403
	}
	return 0
}
