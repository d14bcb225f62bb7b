package translate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ErrorKind is the fixed taxonomy every provider failure is classified into.
// The retry policy is keyed on it, nothing else.
type ErrorKind string

const (
	// KindAuth means credentials were rejected. Retrying cannot succeed and
	// only burns quota, so the job stops issuing new work.
	KindAuth ErrorKind = "auth"
	// KindRateLimit means the provider asked us to slow down
	KindRateLimit ErrorKind = "rate_limit"
	// KindNetwork covers transport failures and 5xx responses
	KindNetwork ErrorKind = "network"
	// KindTimeout means the per-batch deadline elapsed
	KindTimeout ErrorKind = "timeout"
	// KindProtocol means the response shape was unexpected: unparseable
	// payload or a line count that does not match the batch.
	KindProtocol ErrorKind = "protocol"
)

// Error is a classified provider failure
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Wrapped  error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func newError(provider string, kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind from an error chain. Unclassified errors
// report KindNetwork: the conservative bucket, retried with backoff.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindNetwork
}

// classifyStatus maps an HTTP response status to the taxonomy
func classifyStatus(provider string, status int, body string) *Error {
	body = strings.TrimSpace(body)
	if len(body) > 300 {
		body = body[:300]
	}
	kind := KindNetwork
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status >= 500:
		kind = KindNetwork
	case status >= 400:
		// Remaining 4xx means we sent something the provider rejects
		kind = KindProtocol
	}
	return newError(provider, kind, "http %d: %s", status, body)
}

// classifyTransport maps a failed round trip to the taxonomy
func classifyTransport(provider string, err error) *Error {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	} else {
		var netErr net.Error
		var urlErr *url.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		} else if errors.As(err, &urlErr) && urlErr.Timeout() {
			kind = KindTimeout
		}
	}
	return &Error{Kind: kind, Provider: provider, Wrapped: err}
}

// retryAction is what the manager does with a failed batch
type retryAction int

const (
	retryNone retryAction = iota
	retryBackoff
	retrySplit
)

// retryPolicy makes the per-kind handling data instead of control flow
var retryPolicy = map[ErrorKind]retryAction{
	KindAuth:      retryNone,
	KindRateLimit: retryBackoff,
	KindNetwork:   retryBackoff,
	KindTimeout:   retryBackoff,
	KindProtocol:  retrySplit,
}
