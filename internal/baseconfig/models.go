package baseconfig

import (
	"fmt"

	"github.com/muurk/synapse-topology/internal/flow"
)

// ReverseProxy identifies the reverse proxy software fronting Synapse.
type ReverseProxy string

const (
	ProxyNginx   ReverseProxy = "nginx"
	ProxyCaddy   ReverseProxy = "caddy"
	ProxyApache  ReverseProxy = "apache"
	ProxyHAProxy ReverseProxy = "haproxy"
	ProxyOther   ReverseProxy = "other"
)

// Database identifies the database backend.
type Database string

const (
	DatabaseSQLite   Database = "sqlite3"
	DatabasePostgres Database = "postgres"
)

// Default ports used when the operator does not pick their own.
const (
	DefaultFederationPort = 8448
	DefaultClientPort     = 8008
	DefaultHTTPSPort      = 443
)

// DefaultSigningKeyPath is where the exported signing key is expected.
const DefaultSigningKeyPath = "/data/signing.key"

// ReverseProxies lists the supported reverse proxies in display order.
func ReverseProxies() []ReverseProxy {
	return []ReverseProxy{ProxyNginx, ProxyCaddy, ProxyApache, ProxyHAProxy, ProxyOther}
}

// Databases lists the supported databases in display order.
func Databases() []Database {
	return []Database{DatabaseSQLite, DatabasePostgres}
}

// BaseConfig is the answer set collected by the wizard.
// Zero values mean "not answered yet".
type BaseConfig struct {
	// Identity
	ServerName         string `yaml:"server_name" json:"server_name"`
	ReportStats        bool   `yaml:"report_stats" json:"report_stats"`
	SigningKeyExported bool   `yaml:"signing_key_exported" json:"signing_key_exported"`

	// Delegation
	Delegation               flow.DelegationType `yaml:"delegation_type,omitempty" json:"delegation_type,omitempty"`
	DelegationServerName     string              `yaml:"delegation_server_name,omitempty" json:"delegation_server_name,omitempty"`
	DelegationFederationPort int                 `yaml:"delegation_federation_port,omitempty" json:"delegation_federation_port,omitempty"`
	DelegationClientPort     int                 `yaml:"delegation_client_port,omitempty" json:"delegation_client_port,omitempty"`

	// Transport
	TLS          flow.TLSType `yaml:"tls,omitempty" json:"tls,omitempty"`
	TLSCertPath  string       `yaml:"tls_cert_path,omitempty" json:"tls_cert_path,omitempty"`
	TLSKeyPath   string       `yaml:"tls_key_path,omitempty" json:"tls_key_path,omitempty"`
	ReverseProxy ReverseProxy `yaml:"reverse_proxy,omitempty" json:"reverse_proxy,omitempty"`

	// Synapse listeners
	FederationPort int `yaml:"synapse_federation_port,omitempty" json:"synapse_federation_port,omitempty"`
	ClientPort     int `yaml:"synapse_client_port,omitempty" json:"synapse_client_port,omitempty"`

	Database Database `yaml:"database,omitempty" json:"database,omitempty"`
}

// New returns a BaseConfig populated with the wizard defaults.
func New() *BaseConfig {
	return &BaseConfig{
		FederationPort: DefaultFederationPort,
		ClientPort:     DefaultClientPort,
		Database:       DatabaseSQLite,
	}
}

// Context projects the answers that affect wizard routing.
func (bc *BaseConfig) Context() flow.Context {
	return flow.Context{TLS: bc.TLS, Delegation: bc.Delegation}
}

// Delegated reports whether federation traffic is delegated to another host.
func (bc *BaseConfig) Delegated() bool {
	return bc.Delegation == flow.DelegationDNS || bc.Delegation == flow.DelegationWellKnown
}

// BehindProxy reports whether TLS is terminated by a reverse proxy.
func (bc *BaseConfig) BehindProxy() bool {
	return bc.TLS == flow.TLSReverseProxy
}

// ServingHost returns the bare host that actually runs Synapse: the
// delegated server name when delegation is in use, otherwise the server
// name without its port.
func (bc *BaseConfig) ServingHost() string {
	if bc.Delegated() && bc.DelegationServerName != "" {
		return HostOf(bc.DelegationServerName)
	}
	return HostOf(bc.ServerName)
}

// PublicFederationPort returns the port other homeservers connect to.
func (bc *BaseConfig) PublicFederationPort() int {
	if bc.Delegated() && bc.DelegationFederationPort != 0 {
		return bc.DelegationFederationPort
	}
	if bc.BehindProxy() {
		return DefaultFederationPort
	}
	return bc.FederationPort
}

// PublicClientPort returns the port clients connect to.
func (bc *BaseConfig) PublicClientPort() int {
	if bc.Delegated() && bc.DelegationClientPort != 0 {
		return bc.DelegationClientPort
	}
	if bc.BehindProxy() {
		return DefaultHTTPSPort
	}
	return bc.ClientPort
}

// Clone returns a deep copy.
func (bc *BaseConfig) Clone() *BaseConfig {
	if bc == nil {
		return nil
	}
	c := *bc
	return &c
}

// Valid reports whether p is a supported reverse proxy.
func (p ReverseProxy) Valid() bool {
	switch p {
	case ProxyNginx, ProxyCaddy, ProxyApache, ProxyHAProxy, ProxyOther:
		return true
	}
	return false
}

// Label returns the display name of p.
func (p ReverseProxy) Label() string {
	switch p {
	case ProxyNginx:
		return "nginx"
	case ProxyCaddy:
		return "Caddy"
	case ProxyApache:
		return "Apache httpd"
	case ProxyHAProxy:
		return "HAProxy"
	case ProxyOther:
		return "Something else"
	default:
		return string(p)
	}
}

// ParseReverseProxy converts a wire value into a ReverseProxy.
func ParseReverseProxy(value string) (ReverseProxy, error) {
	p := ReverseProxy(value)
	if !p.Valid() {
		return "", fmt.Errorf("unknown reverse proxy %q", value)
	}
	return p, nil
}

// Valid reports whether d is a supported database.
func (d Database) Valid() bool {
	return d == DatabaseSQLite || d == DatabasePostgres
}

// Label returns the display name of d.
func (d Database) Label() string {
	switch d {
	case DatabaseSQLite:
		return "SQLite (small servers, testing)"
	case DatabasePostgres:
		return "PostgreSQL (recommended)"
	default:
		return string(d)
	}
}

// ParseDatabase converts a wire value into a Database.
func ParseDatabase(value string) (Database, error) {
	d := Database(value)
	if !d.Valid() {
		return "", fmt.Errorf("unknown database %q", value)
	}
	return d, nil
}
