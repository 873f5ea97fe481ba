package llmrunner

import (
	"fmt"
	"strings"
)

// ProviderError represents a failure reported by a model provider.
type ProviderError struct {
	Message    string
	Provider   string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Provider, e.Message, e.StatusCode, e.Retryable)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Concrete provider error types.

type AuthenticationError struct{ ProviderError }
type RateLimitError struct{ ProviderError }
type ServerError struct{ ProviderError }
type ContextLengthError struct{ ProviderError }
type RequestTimeoutError struct{ ProviderError }

// ClassifyError converts a raw provider failure into the typed hierarchy
// based on the error message content, the only signal gollm exposes.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	base := ProviderError{Message: err.Error(), Provider: provider, Cause: err}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key"):
		base.StatusCode = 401
		return &AuthenticationError{ProviderError: base}
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		base.StatusCode = 429
		base.Retryable = true
		return &RateLimitError{ProviderError: base}
	case strings.Contains(msg, "context length") || strings.Contains(msg, "too many tokens"):
		base.StatusCode = 413
		return &ContextLengthError{ProviderError: base}
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "internal server"):
		base.StatusCode = 500
		base.Retryable = true
		return &ServerError{ProviderError: base}
	case strings.Contains(msg, "timeout"):
		base.Retryable = true
		return &RequestTimeoutError{ProviderError: base}
	default:
		// Unknown provider failures default to retryable.
		base.Retryable = true
		return &base
	}
}

// IsRetryable reports whether the error is safe to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *AuthenticationError, *ContextLengthError:
		return false
	case *RateLimitError, *ServerError, *RequestTimeoutError:
		return true
	case *ProviderError:
		return e.Retryable
	default:
		return false
	}
}
