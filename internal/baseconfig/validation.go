package baseconfig

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/muurk/synapse-topology/internal/flow"
)

// ValidateServerName validates a Matrix server name.
// A server name is a hostname or IP literal, optionally followed by :port.
func ValidateServerName(field, name string) error {
	if name == "" {
		return NewValidationError(field, "server name cannot be empty")
	}
	if len(name) > 255 {
		return NewValidationError(field, fmt.Sprintf("server name too long (max 255 chars): %d chars", len(name)))
	}
	if strings.ContainsAny(name, " \t\n\r/") {
		return NewValidationError(field, "server name contains invalid characters")
	}

	host := name
	if h, p, err := net.SplitHostPort(name); err == nil {
		port, convErr := strconv.Atoi(p)
		if convErr != nil {
			return NewValidationError(field, fmt.Sprintf("invalid port %q in server name", p))
		}
		if err := ValidatePort(field, port); err != nil {
			return err
		}
		host = h
	}

	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return nil
	}
	if _, ok := dns.IsDomainName(host); !ok || strings.HasSuffix(host, ".") {
		return NewValidationError(field, fmt.Sprintf("%q is not a valid hostname", host))
	}
	return nil
}

// ValidateHostname validates a server name that must not carry a port.
// Delegated ports are answered on their own screen.
func ValidateHostname(field, name string) error {
	if err := ValidateServerName(field, name); err != nil {
		return err
	}
	if _, _, err := net.SplitHostPort(name); err == nil {
		return NewValidationError(field, fmt.Sprintf("%q must not include a port", name))
	}
	return nil
}

// HostOf strips the port and any IPv6 brackets from a server name.
func HostOf(name string) string {
	if h, _, err := net.SplitHostPort(name); err == nil {
		return h
	}
	return strings.Trim(name, "[]")
}

// ValidatePort validates a TCP port number.
// Valid range: 1-65535
func ValidatePort(field string, port int) error {
	if port <= 0 || port > 65535 {
		return NewValidationError(field, fmt.Sprintf("port must be 1-65535, got %d", port))
	}
	return nil
}

// ValidatePath validates a filesystem path entered for a certificate or key.
func ValidatePath(field, path string) error {
	if path == "" {
		return NewValidationError(field, "path cannot be empty")
	}
	if strings.ContainsAny(path, "\n\r\x00") {
		return NewValidationError(field, "path contains invalid characters")
	}
	return nil
}

// ValidateDelegation validates the delegation answers.
// Returns a slice of validation errors (empty if valid).
func ValidateDelegation(bc *BaseConfig) []error {
	var errors []error

	if !bc.Delegation.Valid() {
		errors = append(errors, NewValidationError("delegation_type",
			fmt.Sprintf("delegation type must be dns, well_known or local, got %q", bc.Delegation)))
		return errors
	}

	if !bc.Delegated() {
		return errors
	}

	if err := ValidateHostname("delegation_server_name", bc.DelegationServerName); err != nil {
		errors = append(errors, err)
	}
	if bc.DelegationFederationPort != 0 {
		if err := ValidatePort("delegation_federation_port", bc.DelegationFederationPort); err != nil {
			errors = append(errors, err)
		}
	}
	if bc.DelegationClientPort != 0 {
		if err := ValidatePort("delegation_client_port", bc.DelegationClientPort); err != nil {
			errors = append(errors, err)
		}
	}

	return errors
}

// ValidateTLS validates the TLS answers.
// Returns a slice of validation errors (empty if valid).
func ValidateTLS(bc *BaseConfig) []error {
	var errors []error

	if !bc.TLS.Valid() {
		errors = append(errors, NewValidationError("tls",
			fmt.Sprintf("tls must be acme, tls, none or reverse_proxy, got %q", bc.TLS)))
		return errors
	}

	switch bc.TLS {
	case flow.TLSManual:
		if err := ValidatePath("tls_cert_path", bc.TLSCertPath); err != nil {
			errors = append(errors, err)
		}
		if err := ValidatePath("tls_key_path", bc.TLSKeyPath); err != nil {
			errors = append(errors, err)
		}
	case flow.TLSReverseProxy:
		if !bc.ReverseProxy.Valid() {
			errors = append(errors, NewValidationError("reverse_proxy",
				fmt.Sprintf("unsupported reverse proxy %q", bc.ReverseProxy)))
		}
	}

	return errors
}

// ValidatePorts validates the Synapse listener ports.
// Returns a slice of validation errors (empty if valid).
func ValidatePorts(bc *BaseConfig) []error {
	var errors []error

	if err := ValidatePort("synapse_federation_port", bc.FederationPort); err != nil {
		errors = append(errors, err)
	}
	if err := ValidatePort("synapse_client_port", bc.ClientPort); err != nil {
		errors = append(errors, err)
	}
	if len(errors) == 0 && bc.FederationPort == bc.ClientPort && !bc.BehindProxy() {
		errors = append(errors, NewValidationError("synapse_client_port",
			fmt.Sprintf("client and federation listeners cannot share port %d", bc.ClientPort)))
	}

	return errors
}

// Validate validates a complete base configuration.
// This is the main validation entry point.
// Returns a slice of validation errors (empty if valid).
func Validate(bc *BaseConfig) []error {
	var allErrors []error

	if err := ValidateServerName("server_name", bc.ServerName); err != nil {
		allErrors = append(allErrors, err)
	}

	allErrors = append(allErrors, ValidateDelegation(bc)...)
	allErrors = append(allErrors, ValidateTLS(bc)...)
	allErrors = append(allErrors, ValidatePorts(bc)...)

	if !bc.Database.Valid() {
		allErrors = append(allErrors, NewValidationError("database",
			fmt.Sprintf("database must be sqlite3 or postgres, got %q", bc.Database)))
	}

	allErrors = append(allErrors, CheckLogicalConflicts(bc)...)

	return allErrors
}

// CheckLogicalConflicts checks for answers that are valid individually but
// problematic together. All results are warnings.
func CheckLogicalConflicts(bc *BaseConfig) []error {
	var conflicts []error

	if bc.TLS == flow.TLSNone && !bc.Delegated() {
		conflicts = append(conflicts, NewValidationError("tls",
			"warning: federation requires TLS; other servers will not be able to reach this one"))
	}

	if bc.Delegated() && bc.DelegationServerName == bc.ServerName && bc.ServerName != "" {
		conflicts = append(conflicts, NewValidationError("delegation_server_name",
			"warning: delegating to the server name itself has no effect"))
	}

	if bc.Database == DatabaseSQLite {
		conflicts = append(conflicts, NewValidationError("database",
			"warning: SQLite is not recommended for federating servers"))
	}

	if bc.TLS == flow.TLSACME && bc.FederationPort != DefaultFederationPort && !bc.Delegated() {
		conflicts = append(conflicts, NewValidationError("synapse_federation_port",
			fmt.Sprintf("warning: federation on port %d requires delegation to be discovered", bc.FederationPort)))
	}

	return conflicts
}

// FormatValidationErrors formats a slice of validation errors into a user-friendly message.
func FormatValidationErrors(errors []error) string {
	if len(errors) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return sb.String()
}

// IsWarning checks if a validation error is a warning (non-fatal).
// Warnings have messages starting with "warning:".
func IsWarning(err error) bool {
	if cfgErr, ok := err.(*ConfigError); ok {
		return strings.HasPrefix(cfgErr.Message, "warning:")
	}
	return strings.Contains(err.Error(), "warning:")
}

// SeparateWarningsAndErrors separates validation errors into warnings and errors.
func SeparateWarningsAndErrors(errors []error) (warnings []error, criticalErrors []error) {
	for _, err := range errors {
		if IsWarning(err) {
			warnings = append(warnings, err)
		} else {
			criticalErrors = append(criticalErrors, err)
		}
	}
	return warnings, criticalErrors
}

// ValidateScreen validates only the answers collected on the given screen.
// The wizard uses this to refuse advancing past a screen with a bad answer.
func ValidateScreen(screen flow.Screen, bc *BaseConfig) error {
	var errs []error

	switch screen {
	case flow.ScreenServerName:
		if err := ValidateServerName("server_name", bc.ServerName); err != nil {
			errs = append(errs, err)
		}
	case flow.ScreenDelegationServerName:
		if err := ValidateHostname("delegation_server_name", bc.DelegationServerName); err != nil {
			errs = append(errs, err)
		}
	case flow.ScreenDelegationPortSelection:
		if err := ValidatePort("delegation_federation_port", bc.DelegationFederationPort); err != nil {
			errs = append(errs, err)
		}
		if err := ValidatePort("delegation_client_port", bc.DelegationClientPort); err != nil {
			errs = append(errs, err)
		}
	case flow.ScreenTLSCertPath:
		if err := ValidatePath("tls_cert_path", bc.TLSCertPath); err != nil {
			errs = append(errs, err)
		}
		if err := ValidatePath("tls_key_path", bc.TLSKeyPath); err != nil {
			errs = append(errs, err)
		}
	case flow.ScreenReverseProxy:
		if !bc.ReverseProxy.Valid() {
			errs = append(errs, NewValidationError("reverse_proxy", "choose a reverse proxy"))
		}
	case flow.ScreenPortSelection:
		errs = append(errs, ValidatePorts(bc)...)
	case flow.ScreenDatabase:
		_, errs = SeparateWarningsAndErrors(Validate(bc))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
