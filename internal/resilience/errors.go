// Package resilience provides the error taxonomy and bounded retry helper
// for calls to external providers.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// NetworkError marks a timeout or connection-level failure. Safe to treat as
// "provider unavailable" and fall through to the next tier.
type NetworkError struct {
	Op  string // e.g. "gigachat: token", "wildberries: search"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport-level failure.
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

// ProviderError is a non-2xx response from a chat or marketplace endpoint.
// The body is truncated to keep logs bounded.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

const maxBodySnippet = 512

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}

// NewProviderError builds a ProviderError with a bounded body snippet.
func NewProviderError(provider string, status int, body []byte) *ProviderError {
	snippet := string(body)
	if len(snippet) > maxBodySnippet {
		snippet = snippet[:maxBodySnippet]
	}
	return &ProviderError{Provider: provider, Status: status, Body: snippet}
}

// ParseError marks text that could not be coerced into the expected shape
// after all repair attempts. Callers of the parser never see it; it exists
// for internal cascade control.
type ParseError struct {
	Stage string // which repair stage gave up
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse (%s): %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err chains to a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AsProvider extracts a ProviderError from the chain, if any.
func AsProvider(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}

// IsTransient returns true if the error is safe to retry: an explicit
// NetworkError, a retryable ProviderError status, a network timeout, or a
// connection-level failure recognizable from the error chain.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if IsNetwork(err) {
		return true
	}
	if pe, ok := AsProvider(err); ok {
		return IsTransientHTTPStatus(pe.Status)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
