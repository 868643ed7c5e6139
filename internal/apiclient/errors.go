package apiclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (unreachable host, reset connection)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates a non-2xx response
	ErrTypeHTTP
	// ErrTypeRejected indicates the server refused the request (4xx with an error body)
	ErrTypeRejected
	// ErrTypeParse indicates a response that could not be decoded
	ErrTypeParse
	// ErrTypeVerification indicates pushed answers did not stick
	ErrTypeVerification
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening on the address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeRejected:
		return "Rejected"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeVerification:
		return "Verification Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError is an error talking to a configuration server.
type APIError struct {
	Type       ErrorType
	Message    string
	StatusCode int    // HTTP status code (if applicable)
	Field      string // Answer the server rejected, from the error body
	Err        error
	Retryable  bool
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport error onto an APIError.
func ClassifyNetworkError(err error) *APIError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &APIError{Type: ErrTypeTimeout, Message: "request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &APIError{Type: ErrTypeConnectionRefused, Message: "connection refused", Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &APIError{Type: ErrTypeNetwork, Message: "network error", Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *APIError {
	classified := ClassifyNetworkError(err)
	classified.Message = message
	return classified
}

// NewHTTPError creates an error for an unexpected status code. Server
// errors are retryable.
func NewHTTPError(statusCode int, message string) *APIError {
	return &APIError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewRejectedError creates an error for a request the server refused.
func NewRejectedError(statusCode int, message, field string) *APIError {
	return &APIError{
		Type:       ErrTypeRejected,
		Message:    message,
		StatusCode: statusCode,
		Field:      field,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *APIError {
	return &APIError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewVerificationError creates a verification error
func NewVerificationError(message string) *APIError {
	return &APIError{Type: ErrTypeVerification, Message: message}
}

func typeOf(err error) (ErrorType, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type, true
	}
	return 0, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	t, ok := typeOf(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsRejected checks if the server refused the request
func IsRejected(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeRejected
}

// IsVerificationError checks if an error is a verification error
func IsVerificationError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeVerification
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return "Server not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Server refused connection - is topology-server running?"
	case ErrTypeDNS:
		return "Cannot resolve server hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Server error (HTTP %d)", apiErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse server response"
	default:
		return apiErr.Message
	}
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeNetwork:
		return strings.Join([]string{
			"The configuration server could not be reached.",
			"Troubleshooting:",
			"  • Check that topology-server is running",
			"  • Verify the address and port",
			"  • Run 'topology-cfg scan' to find announced servers",
		}, "\n")
	case ErrTypeDNS:
		return "Use the server's IP address instead of its hostname."
	case ErrTypeRejected:
		if apiErr.Field != "" {
			return fmt.Sprintf("The server refused the answer for %s. Correct it locally and push again.", apiErr.Field)
		}
		return "The server refused the request. Check the error message for details."
	case ErrTypeHTTP:
		if apiErr.StatusCode == http.StatusNotFound {
			return "The server does not expose the wizard API at this URL. Check the path (default /api)."
		}
		return "The server reported an internal error. Check its log output."
	case ErrTypeParse:
		return "The server answered with an unexpected format. Check that client and server versions match."
	case ErrTypeVerification:
		return "The server did not keep the pushed answers. Another client may be editing the same session."
	default:
		return "An error occurred. Please check the error message for details."
	}
}
