package baseconfig

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/muurk/synapse-topology/internal/flow"
)

// homeserverDoc is the subset of homeserver.yaml produced by the wizard.
type homeserverDoc struct {
	ServerName         string     `yaml:"server_name"`
	PublicBaseURL      string     `yaml:"public_baseurl"`
	ReportStats        bool       `yaml:"report_stats"`
	SigningKeyPath     string     `yaml:"signing_key_path"`
	Listeners          []listener `yaml:"listeners"`
	TLSCertificatePath string     `yaml:"tls_certificate_path,omitempty"`
	TLSPrivateKeyPath  string     `yaml:"tls_private_key_path,omitempty"`
	ACME               *acmeBlock `yaml:"acme,omitempty"`
	Database           dbBlock    `yaml:"database"`
}

type listener struct {
	Port          int        `yaml:"port"`
	TLS           bool       `yaml:"tls"`
	Type          string     `yaml:"type"`
	XForwarded    bool       `yaml:"x_forwarded,omitempty"`
	BindAddresses []string   `yaml:"bind_addresses"`
	Resources     []resource `yaml:"resources"`
}

type resource struct {
	Names    []string `yaml:"names"`
	Compress bool     `yaml:"compress"`
}

type acmeBlock struct {
	Enabled              bool     `yaml:"enabled"`
	Port                 int      `yaml:"port"`
	BindAddresses        []string `yaml:"bind_addresses"`
	ReprovisionThreshold int      `yaml:"reprovision_threshold"`
	Domain               string   `yaml:"domain,omitempty"`
}

type dbBlock struct {
	Name string                 `yaml:"name"`
	Args map[string]interface{} `yaml:"args"`
}

const homeserverHeader = `# Generated by the synapse-topology configuration wizard.
# Review every value before starting Synapse; secrets marked CHANGEME must be
# replaced.

`

// RenderHomeserver renders the homeserver.yaml fragment for bc.
// The configuration must validate without critical errors.
func RenderHomeserver(bc *BaseConfig) ([]byte, error) {
	_, critical := SeparateWarningsAndErrors(Validate(bc))
	if len(critical) > 0 {
		return nil, NewRenderError("configuration is incomplete", critical[0])
	}

	doc := buildHomeserverDoc(bc)

	var buf bytes.Buffer
	buf.WriteString(homeserverHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, NewRenderError("failed to encode homeserver.yaml", err)
	}
	if err := enc.Close(); err != nil {
		return nil, NewRenderError("failed to encode homeserver.yaml", err)
	}

	return buf.Bytes(), nil
}

func buildHomeserverDoc(bc *BaseConfig) homeserverDoc {
	doc := homeserverDoc{
		ServerName:     bc.ServerName,
		PublicBaseURL:  publicBaseURL(bc),
		ReportStats:    bc.ReportStats,
		SigningKeyPath: DefaultSigningKeyPath,
		Listeners:      buildListeners(bc),
		Database:       buildDatabase(bc.Database),
	}

	switch bc.TLS {
	case flow.TLSManual:
		doc.TLSCertificatePath = bc.TLSCertPath
		doc.TLSPrivateKeyPath = bc.TLSKeyPath
	case flow.TLSACME:
		doc.TLSCertificatePath = fmt.Sprintf("/data/%s.tls.crt", bc.ServingHost())
		doc.TLSPrivateKeyPath = fmt.Sprintf("/data/%s.tls.key", bc.ServingHost())
		doc.ACME = &acmeBlock{
			Enabled:              true,
			Port:                 80,
			BindAddresses:        []string{"::"},
			ReprovisionThreshold: 30,
			Domain:               bc.ServingHost(),
		}
	}

	return doc
}

func buildListeners(bc *BaseConfig) []listener {
	bind := []string{"::"}
	if bc.BehindProxy() {
		bind = []string{"127.0.0.1", "::1"}
	}
	directTLS := bc.TLS == flow.TLSACME || bc.TLS == flow.TLSManual

	if bc.FederationPort == bc.ClientPort {
		return []listener{{
			Port:          bc.ClientPort,
			TLS:           directTLS,
			Type:          "http",
			XForwarded:    bc.BehindProxy(),
			BindAddresses: bind,
			Resources:     []resource{{Names: []string{"client", "federation"}}},
		}}
	}

	return []listener{
		{
			Port:          bc.FederationPort,
			TLS:           directTLS,
			Type:          "http",
			XForwarded:    bc.BehindProxy(),
			BindAddresses: bind,
			Resources:     []resource{{Names: []string{"federation"}}},
		},
		{
			Port:          bc.ClientPort,
			TLS:           false,
			Type:          "http",
			XForwarded:    bc.BehindProxy(),
			BindAddresses: bind,
			Resources:     []resource{{Names: []string{"client"}, Compress: true}},
		},
	}
}

func buildDatabase(db Database) dbBlock {
	if db == DatabasePostgres {
		return dbBlock{
			Name: "psycopg2",
			Args: map[string]interface{}{
				"user":     "synapse",
				"password": "CHANGEME",
				"database": "synapse",
				"host":     "localhost",
				"cp_min":   5,
				"cp_max":   10,
			},
		}
	}
	return dbBlock{
		Name: "sqlite3",
		Args: map[string]interface{}{
			"database": "/data/homeserver.db",
		},
	}
}

func publicBaseURL(bc *BaseConfig) string {
	scheme := "https"
	if bc.TLS == flow.TLSNone && !bc.Delegated() {
		scheme = "http"
	}
	host := bc.ServingHost()
	port := bc.PublicClientPort()
	if (scheme == "https" && port == 443) || (scheme == "http" && port == 80) {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		return fmt.Sprintf("%s://%s/", scheme, host)
	}
	return fmt.Sprintf("%s://%s/", scheme, net.JoinHostPort(host, strconv.Itoa(port)))
}
