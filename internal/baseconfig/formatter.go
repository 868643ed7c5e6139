package baseconfig

import (
	"fmt"
	"strings"

	"github.com/muurk/synapse-topology/internal/flow"
)

// Summary returns a one-line summary of the configuration
func (bc *BaseConfig) Summary() string {
	return fmt.Sprintf("%s via %s (tls: %s, delegation: %s, db: %s)",
		bc.ServerName, bc.ServingHost(), orUnset(string(bc.TLS)), orUnset(string(bc.Delegation)), orUnset(string(bc.Database)))
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (bc *BaseConfig) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Server name:  %s\n", orUnset(bc.ServerName)))
	b.WriteString(fmt.Sprintf("Stats:        %s\n", formatBool(bc.ReportStats, "reported", "not reported")))
	b.WriteString(fmt.Sprintf("Delegation:   %s\n", formatDelegation(bc)))
	b.WriteString(fmt.Sprintf("TLS:          %s\n", formatTLS(bc)))
	b.WriteString(fmt.Sprintf("Listeners:    federation %d, client %d\n", bc.FederationPort, bc.ClientPort))
	b.WriteString(fmt.Sprintf("Public ports: federation %d, client %d\n", bc.PublicFederationPort(), bc.PublicClientPort()))
	b.WriteString(fmt.Sprintf("Database:     %s\n", orUnset(string(bc.Database))))

	return b.String()
}

// String returns a human-readable summary of the configuration.
func (bc *BaseConfig) String() string {
	return "Synapse base configuration\n" + indent(bc.FormatCompact(), "  ")
}

func formatDelegation(bc *BaseConfig) string {
	switch bc.Delegation {
	case flow.DelegationLocal:
		return "none"
	case flow.DelegationDNS, flow.DelegationWellKnown:
		return fmt.Sprintf("%s → %s", bc.Delegation.Label(), orUnset(bc.DelegationServerName))
	default:
		return orUnset(string(bc.Delegation))
	}
}

func formatTLS(bc *BaseConfig) string {
	switch bc.TLS {
	case flow.TLSManual:
		return fmt.Sprintf("certificate %s, key %s", orUnset(bc.TLSCertPath), orUnset(bc.TLSKeyPath))
	case flow.TLSReverseProxy:
		return "terminated by " + orUnset(bc.ReverseProxy.Label())
	case "":
		return "(not set)"
	default:
		return bc.TLS.Label()
	}
}

func formatBool(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
