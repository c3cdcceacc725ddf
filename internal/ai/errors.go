package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrQuotaExhausted = errors.New("quota exhausted")
	ErrRateLimited    = errors.New("rate limited")
	ErrTimeout        = errors.New("timeout")
	ErrConnection     = errors.New("connection error")
	ErrAPI            = errors.New("api error")
	ErrBadRequest     = errors.New("request rejected")
	ErrUnconfigured   = errors.New("provider not configured")
)

// Error is a classified backend failure. Kind is one of the sentinel errors
// above; errors.Is matches both Kind and the wrapped cause.
type Error struct {
	Kind     error
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ErrRateLimited, ErrTimeout, ErrConnection, ErrAPI:
		return true
	}
	return false
}

// Reason is the short label used in results and logs.
func (e *Error) Reason() string {
	return reasonFor(e.Kind)
}

func reasonFor(kind error) string {
	switch kind {
	case ErrQuotaExhausted:
		return "quota_exhausted"
	case ErrRateLimited:
		return "rate_limited"
	case ErrTimeout:
		return "timeout"
	case ErrConnection:
		return "connection"
	case ErrBadRequest:
		return "bad_request"
	case ErrUnconfigured:
		return "unconfigured"
	default:
		return "api_error"
	}
}

var quotaMarkers = []string{"quota", "insufficient_quota", "billing", "credit balance"}

func looksLikeQuota(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// FromStatus classifies an HTTP status returned by a provider.
func FromStatus(provider string, status int, message string, cause error) *Error {
	e := &Error{Provider: provider, Status: status, Err: cause}
	if e.Err == nil && strings.TrimSpace(message) != "" {
		e.Err = errors.New(strings.TrimSpace(message))
	}

	switch {
	case status >= 400 && status < 500 && looksLikeQuota(message):
		e.Kind = ErrQuotaExhausted
	case status == http.StatusTooManyRequests:
		e.Kind = ErrRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Kind = ErrTimeout
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = ErrUnconfigured
	case status == http.StatusPaymentRequired:
		e.Kind = ErrQuotaExhausted
	case status >= 400 && status < 500:
		e.Kind = ErrBadRequest
	default:
		e.Kind = ErrAPI
	}
	return e
}

// Classify turns a transport-level error into an *Error. Already classified
// errors are returned unchanged.
func Classify(provider string, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	e := &Error{Provider: provider, Err: err}

	var netErr net.Error
	var urlErr *url.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = ErrTimeout
	case errors.As(err, &opErr), errors.As(err, &urlErr):
		e.Kind = ErrConnection
	default:
		e.Kind = ErrAPI
	}
	return e
}
