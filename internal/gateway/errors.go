package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError is any non-success response or network failure. Status is
// zero when no response arrived.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		if e.Status == 0 {
			return fmt.Sprintf("API unreachable: %v", e.Err)
		}
		return fmt.Sprintf("API %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("API %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError means the credential was missing or refused. No mutation was
// applied.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return "not authenticated: no credential"
	}
	return fmt.Sprintf("API %d: %s", e.Status, e.Body)
}

func (e *AuthError) AuthFailure() bool { return true }

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Status
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}

func statusError(status int, body string) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{Status: status, Body: body}
	}
	return &TransportError{Status: status, Body: body}
}
