package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
)

// Sentinel conditions surfaced by providers and the token refresher.
var (
	// ErrCursorExpired means the provider no longer accepts the stored
	// incremental sync token; the caller must rerun a full window sync.
	ErrCursorExpired = errors.New("sync cursor expired")

	// ErrRevoked means the provider rejected the refresh token itself.
	// The integration is dead until the user reconnects it.
	ErrRevoked = errors.New("calendar credentials revoked")
)

// Kind buckets an error for messaging and for deciding whether to disable
// a misbehaving integration.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindNotFound  Kind = "not_found"
	KindRateLimit Kind = "rate_limit"
	KindServer    Kind = "server"
	KindNetwork   Kind = "network"
	KindUnknown   Kind = "unknown"
)

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

// Classify maps an error from the provider or token layer to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, ErrRevoked) {
		return KindAuth
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			return classifyStatus(retrieveErr.Response.StatusCode)
		}
		return KindAuth
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}

	return KindUnknown
}

func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}
