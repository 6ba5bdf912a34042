// Package errors provides custom error types for the klosachat client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrExchangeFailed  = errors.New("exchange failed")
	ErrMissingEndpoint = errors.New("endpoint URL is not configured")
	ErrInvalidEndpoint = errors.New("endpoint URL is invalid")
)

// ExchangeKind classifies why an exchange with the endpoint failed
type ExchangeKind int

const (
	KindUnknown ExchangeKind = iota
	KindNetwork
	KindStatus
	KindDecode
	KindMissingField
)

// String returns a short name for the kind
func (k ExchangeKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// ExchangeError represents a failed request/response cycle with the endpoint.
// Every ExchangeError matches ErrExchangeFailed.
type ExchangeError struct {
	Kind       ExchangeKind
	StatusCode int
	Endpoint   string
	Message    string
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("exchange error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("exchange error at %s: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("exchange error at %s: %s", e.Endpoint, e.Message)
}

// Unwrap returns the underlying cause
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *ExchangeError) Is(target error) bool {
	if target == ErrExchangeFailed {
		return true
	}
	t, ok := target.(*ExchangeError)
	if !ok {
		return false
	}
	return t.Kind == KindUnknown || t.Kind == e.Kind
}

// NewNetworkError wraps a transport failure
func NewNetworkError(endpoint string, err error) *ExchangeError {
	return &ExchangeError{
		Kind:     KindNetwork,
		Endpoint: endpoint,
		Message:  "request failed",
		Err:      err,
	}
}

// NewStatusError creates an error for a non-2xx response
func NewStatusError(statusCode int, endpoint, body string) *ExchangeError {
	return &ExchangeError{
		Kind:       KindStatus,
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    "unexpected status",
		Body:       body,
	}
}

// NewDecodeError creates an error for a body that could not be parsed
func NewDecodeError(endpoint, message string, err error) *ExchangeError {
	return &ExchangeError{
		Kind:     KindDecode,
		Endpoint: endpoint,
		Message:  message,
		Err:      err,
	}
}

// NewMissingFieldError creates an error for a response without a usable field
func NewMissingFieldError(endpoint, field string) *ExchangeError {
	return &ExchangeError{
		Kind:     KindMissingField,
		Endpoint: endpoint,
		Message:  fmt.Sprintf("response has no string %q field", field),
	}
}

// ConfigError represents a configuration problem detected at startup
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("config error: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the sentinel the error was built from
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Err: err}
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.StatusCode
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or ""
func GetEndpoint(err error) string {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Endpoint
	}
	return ""
}

// GetResponseBody returns the response body carried by err, or ""
func GetResponseBody(err error) string {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Body
	}
	return ""
}

func kindOf(err error) ExchangeKind {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Kind
	}
	return KindUnknown
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	return kindOf(err) == KindNetwork
}

// IsStatusError reports whether err is a non-2xx response
func IsStatusError(err error) bool {
	return kindOf(err) == KindStatus
}

// IsDecodeError reports whether err is a malformed or incomplete response
func IsDecodeError(err error) bool {
	k := kindOf(err)
	return k == KindDecode || k == KindMissingField
}

// IsConfigError reports whether err is a startup configuration failure
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
