package baseconfig

import (
	"fmt"

	"github.com/muurk/synapse-topology/internal/flow"
)

// Builder provides a fluent API for collecting wizard answers.
// Each setter corresponds to one wizard screen.
//
// Example usage:
//
//	cfg, err := baseconfig.NewBuilder(nil).
//	    SetServerName("example.com").
//	    SetReportStats(true).
//	    SetDelegation(flow.DelegationLocal).
//	    SetTLS(flow.TLSACME).
//	    SetPorts(8448, 8008).
//	    SetDatabase(baseconfig.DatabasePostgres).
//	    Build()
type Builder struct {
	cfg *BaseConfig
}

// NewBuilder creates a builder seeded with existing answers.
// Pass nil to start from the defaults returned by New.
func NewBuilder(existing *BaseConfig) *Builder {
	if existing == nil {
		return &Builder{cfg: New()}
	}
	return &Builder{cfg: existing.Clone()}
}

// SetServerName sets the Matrix server name.
func (b *Builder) SetServerName(name string) *Builder {
	b.cfg.ServerName = name
	return b
}

// SetReportStats sets whether anonymous usage statistics are reported.
func (b *Builder) SetReportStats(report bool) *Builder {
	b.cfg.ReportStats = report
	return b
}

// MarkSigningKeyExported records that the operator exported the signing key.
func (b *Builder) MarkSigningKeyExported() *Builder {
	b.cfg.SigningKeyExported = true
	return b
}

// SetDelegation sets the delegation type. Choosing local delegation clears the
// delegated server name and ports.
func (b *Builder) SetDelegation(d flow.DelegationType) *Builder {
	b.cfg.Delegation = d
	if d == flow.DelegationLocal {
		b.cfg.DelegationServerName = ""
		b.cfg.DelegationFederationPort = 0
		b.cfg.DelegationClientPort = 0
	}
	return b
}

// SetDelegationServerName sets the host federation traffic is delegated to.
func (b *Builder) SetDelegationServerName(name string) *Builder {
	b.cfg.DelegationServerName = name
	return b
}

// SetDelegationPorts sets the public federation and client ports of the
// delegated host.
func (b *Builder) SetDelegationPorts(federation, client int) *Builder {
	b.cfg.DelegationFederationPort = federation
	b.cfg.DelegationClientPort = client
	return b
}

// SetTLS sets how TLS is terminated. Paths and proxy kind that do not apply to
// the new choice are cleared.
func (b *Builder) SetTLS(t flow.TLSType) *Builder {
	b.cfg.TLS = t
	if t != flow.TLSManual {
		b.cfg.TLSCertPath = ""
		b.cfg.TLSKeyPath = ""
	}
	if t != flow.TLSReverseProxy {
		b.cfg.ReverseProxy = ""
	}
	return b
}

// SetTLSPaths sets the certificate and key paths for manual TLS.
func (b *Builder) SetTLSPaths(certPath, keyPath string) *Builder {
	b.cfg.TLSCertPath = certPath
	b.cfg.TLSKeyPath = keyPath
	return b
}

// SetReverseProxy sets the reverse proxy in front of Synapse.
func (b *Builder) SetReverseProxy(p ReverseProxy) *Builder {
	b.cfg.ReverseProxy = p
	return b
}

// SetPorts sets the Synapse federation and client listener ports.
func (b *Builder) SetPorts(federation, client int) *Builder {
	b.cfg.FederationPort = federation
	b.cfg.ClientPort = client
	return b
}

// SetDatabase sets the database backend.
func (b *Builder) SetDatabase(d Database) *Builder {
	b.cfg.Database = d
	return b
}

// Context returns the routing context of the answers collected so far.
func (b *Builder) Context() flow.Context {
	return b.cfg.Context()
}

// Peek returns a copy of the answers collected so far without validating.
func (b *Builder) Peek() *BaseConfig {
	return b.cfg.Clone()
}

// Build validates the answers and returns the configuration.
// Warnings do not prevent building; they are returned by Warnings.
func (b *Builder) Build() (*BaseConfig, error) {
	_, critical := SeparateWarningsAndErrors(Validate(b.cfg))
	if len(critical) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", critical[0])
	}
	return b.cfg.Clone(), nil
}

// Warnings returns the non-fatal issues with the current answers.
func (b *Builder) Warnings() []error {
	warnings, _ := SeparateWarningsAndErrors(Validate(b.cfg))
	return warnings
}
