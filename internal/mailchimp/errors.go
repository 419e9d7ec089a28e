package mailchimp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ignite/list-subscriptions/internal/domain"
)

// memberExistsTitle is the problem title the platform uses when a create
// targets an address already on the list.
const memberExistsTitle = "Member Exists"

// APIError is a non-2xx, non-404 response from the remote API. Title and
// Detail come from the platform's problem-JSON body when it can be decoded.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	switch {
	case e.Title != "" && e.Detail != "":
		return fmt.Sprintf("mailchimp: status %d: %s: %s", e.StatusCode, e.Title, e.Detail)
	case e.Title != "":
		return fmt.Sprintf("mailchimp: status %d: %s", e.StatusCode, e.Title)
	default:
		return fmt.Sprintf("mailchimp: status %d: %s", e.StatusCode, e.Body)
	}
}

// Is lets errors.Is(err, domain.ErrMemberExists) match a 400 "Member Exists".
func (e *APIError) Is(target error) bool {
	return target == domain.ErrMemberExists &&
		e.StatusCode == http.StatusBadRequest && e.Title == memberExistsTitle
}

// TransportError is a failure to get any response at all: DNS, connect,
// timeout, context cancellation or an unreadable body.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mailchimp: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func isErrorStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}

// IsNotFound checks if the error represents a 404 Not Found response.
// Member and list lookups report 404 as domain.NotFound instead; this only
// fires for endpoints where absence is unexpected, such as ping.
func IsNotFound(err error) bool {
	return isErrorStatus(err, http.StatusNotFound)
}

// IsBadRequest checks if the error represents a 400 Bad Request response.
func IsBadRequest(err error) bool {
	return isErrorStatus(err, http.StatusBadRequest)
}

// IsUnauthorized checks if the error represents a 401 Unauthorized response.
func IsUnauthorized(err error) bool {
	return isErrorStatus(err, http.StatusUnauthorized)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// IsRemote reports whether err came from the remote API, either as an
// error response or as a transport failure.
func IsRemote(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) || IsTransport(err)
}
