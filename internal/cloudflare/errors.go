package cloudflare

import (
	"errors"
	"fmt"
)

// ErrorKind classifies API failures so callers can branch without parsing
// message text.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindRateLimited  ErrorKind = "rate_limited"
	KindNetwork      ErrorKind = "network"
	KindMalformed    ErrorKind = "malformed"
	KindUnexpected   ErrorKind = "unexpected"
)

// APIError is a typed failure from the Cloudflare API
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("cloudflare api %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("cloudflare api %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cloudflare api %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a typed not-found failure
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsUnauthorized reports whether err is a typed auth failure
func IsUnauthorized(err error) bool {
	return hasKind(err, KindUnauthorized)
}

func hasKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindUnauthorized
	case status == 404:
		return KindNotFound
	case status == 429:
		return KindRateLimited
	default:
		return KindUnexpected
	}
}
