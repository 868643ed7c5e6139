package baseconfig

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeValidation indicates an invalid or missing answer
	ErrTypeValidation ErrorType = iota
	// ErrTypeRender indicates the homeserver config could not be produced
	ErrTypeRender
	// ErrTypeTemplate indicates a proxy or delegation snippet could not be produced
	ErrTypeTemplate
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeRender:
		return "Render Error"
	case ErrTypeTemplate:
		return "Template Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ConfigError represents an error building or rendering a base configuration
type ConfigError struct {
	Type    ErrorType // Category of error
	Field   string    // Answer the error refers to (may be empty)
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ConfigError {
	return &ConfigError{
		Type:    ErrTypeValidation,
		Field:   field,
		Message: message,
	}
}

// NewRenderError creates a render error
func NewRenderError(message string, err error) *ConfigError {
	return &ConfigError{
		Type:    ErrTypeRender,
		Message: message,
		Err:     err,
	}
}

// NewTemplateError creates a template error
func NewTemplateError(message string, err error) *ConfigError {
	return &ConfigError{
		Type:    ErrTypeTemplate,
		Message: message,
		Err:     err,
	}
}

func errorType(err error) (ErrorType, bool) {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Type, true
	}
	return ErrTypeUnknown, false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeValidation
}

// IsRenderError checks if an error is a render error
func IsRenderError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeRender
}

// IsTemplateError checks if an error is a template error
func IsTemplateError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeTemplate
}

// FieldOf returns the field an error refers to, or "" if it has none.
func FieldOf(err error) string {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Field
	}
	return ""
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		return err.Error()
	}
	switch cfgErr.Type {
	case ErrTypeValidation:
		return cfgErr.Message
	case ErrTypeRender:
		return "Could not render homeserver.yaml"
	case ErrTypeTemplate:
		return "Could not render configuration snippet"
	default:
		return cfgErr.Message
	}
}

// GetTroubleshootingHint returns advice for an error
func GetTroubleshootingHint(err error) string {
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch cfgErr.Type {
	case ErrTypeValidation:
		return "Go back to the screen for " + fieldScreen(cfgErr.Field) + " and correct the answer."
	case ErrTypeRender:
		return strings.Join([]string{
			"The answers were accepted but the configuration could not be written.",
			"Troubleshooting:",
			"  • Re-run the wizard and check every screen",
			"  • Report the problem with the saved session attached",
		}, "\n")
	case ErrTypeTemplate:
		return strings.Join([]string{
			"No snippet exists for this combination of answers.",
			"Troubleshooting:",
			"  • Delegation snippets need DNS or .well-known delegation",
			"  • Reverse proxy snippets need TLS terminated at a reverse proxy",
		}, "\n")
	default:
		return "An error occurred. Please check the error message for details."
	}
}

func fieldScreen(field string) string {
	switch field {
	case "server_name":
		return "the server name"
	case "delegation_server_name", "delegation_federation_port", "delegation_client_port":
		return "delegation"
	case "tls", "tls_cert_path", "tls_key_path":
		return "TLS"
	case "reverse_proxy":
		return "the reverse proxy"
	case "synapse_federation_port", "synapse_client_port":
		return "Synapse ports"
	case "database":
		return "the database"
	case "":
		return "the failing answer"
	default:
		return field
	}
}
