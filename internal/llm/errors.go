package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ProviderError is returned when the completion provider fails. Code
// carries the upstream HTTP status when one was received; Timeout marks
// deadline expiry before any response arrived.
type ProviderError struct {
	Provider string
	Code     int
	Message  string
	Detail   string // raw upstream body, preserved for diagnostics
	Timeout  bool
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out", e.Provider)
	}
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsAuthError reports whether err is a provider credential failure.
func IsAuthError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && (pe.Code == 401 || pe.Code == 403)
}

// IsRateLimited reports whether err is an upstream 429.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == 429
}

// IsTimeout reports whether err is a typed timeout failure.
func IsTimeout(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Timeout
}

// wrapTransportError converts transport-level failures into a
// ProviderError so callers see one error shape for all upstream trouble.
func wrapTransportError(provider string, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, Message: err.Error()}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		pe.Timeout = true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		pe.Timeout = true
	}
	return pe
}
