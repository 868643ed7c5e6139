package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/urls"
)

// field is one text input on an input screen.
type field struct {
	Name        string // answer key, matches the validation error field
	Label       string
	Placeholder string
	Value       func(*baseconfig.BaseConfig) string
}

// option is one entry on a choice screen.
type option struct {
	Value string
	Label string
}

var screenDescriptions = map[flow.Screen]string{
	flow.ScreenIntro: "This wizard collects the answers needed to generate a homeserver.yaml " +
		"for Synapse, together with the reverse proxy and delegation snippets your " +
		"topology needs.",
	flow.ScreenServerName: "The server name is the domain in your users' Matrix IDs " +
		"(@alice:example.com). It cannot be changed once the server has federated.",
	flow.ScreenStatsReport: "Synapse can report anonymous usage statistics to matrix.org.",
	flow.ScreenKeyExport: "Synapse signs federation traffic with the key at " +
		baseconfig.DefaultSigningKeyPath + ". Back it up now: servers that have seen " +
		"it will reject a new one. Press enter once the key is exported.",
	flow.ScreenDelegationOptions: "Synapse does not have to run on the host named by the " +
		"server name. Choose how other servers find the host that does.",
	flow.ScreenDelegationServerName:    "The host that actually runs Synapse.",
	flow.ScreenDelegationPortSelection: "Public ports on the delegated host for federation and client traffic.",
	flow.ScreenWellKnown:               "Serve these files from the server name over HTTPS.",
	flow.ScreenDNS:                     "Publish this SRV record in the server name's DNS zone.",
	flow.ScreenTLS:                     "Choose where TLS is terminated.",
	flow.ScreenTLSCertPath:             "Paths Synapse reads the certificate chain and private key from.",
	flow.ScreenReverseProxy:            "Which reverse proxy sits in front of Synapse?",
	flow.ScreenPortSelection:           "Ports Synapse listens on for federation and client traffic.",
	flow.ScreenReverseProxyTemplate:    "Add this to your reverse proxy configuration.",
	flow.ScreenDelegationTemplate:      "Publish these records so other servers can find Synapse.",
	flow.ScreenDatabase:                "PostgreSQL is recommended for anything beyond testing.",
}

// screenFields returns the text inputs shown on screen, or nil for
// screens without inputs.
func screenFields(screen flow.Screen) []field {
	switch screen {
	case flow.ScreenServerName:
		return []field{{
			Name: "server_name", Label: "Server name", Placeholder: "example.com",
			Value: func(bc *baseconfig.BaseConfig) string { return bc.ServerName },
		}}
	case flow.ScreenDelegationServerName:
		return []field{{
			Name: "delegation_server_name", Label: "Synapse host", Placeholder: "synapse.example.com",
			Value: func(bc *baseconfig.BaseConfig) string { return bc.DelegationServerName },
		}}
	case flow.ScreenDelegationPortSelection:
		return []field{
			{
				Name: "delegation_federation_port", Label: "Federation port", Placeholder: "443",
				Value: func(bc *baseconfig.BaseConfig) string {
					return portString(bc.DelegationFederationPort, baseconfig.DefaultHTTPSPort)
				},
			},
			{
				Name: "delegation_client_port", Label: "Client port", Placeholder: "443",
				Value: func(bc *baseconfig.BaseConfig) string {
					return portString(bc.DelegationClientPort, baseconfig.DefaultHTTPSPort)
				},
			},
		}
	case flow.ScreenTLSCertPath:
		return []field{
			{
				Name: "tls_cert_path", Label: "Certificate", Placeholder: "/etc/ssl/certs/example.com.pem",
				Value: func(bc *baseconfig.BaseConfig) string { return bc.TLSCertPath },
			},
			{
				Name: "tls_key_path", Label: "Private key", Placeholder: "/etc/ssl/private/example.com.key",
				Value: func(bc *baseconfig.BaseConfig) string { return bc.TLSKeyPath },
			},
		}
	case flow.ScreenPortSelection:
		return []field{
			{
				Name: "synapse_federation_port", Label: "Federation port", Placeholder: "8448",
				Value: func(bc *baseconfig.BaseConfig) string {
					return portString(bc.FederationPort, baseconfig.DefaultFederationPort)
				},
			},
			{
				Name: "synapse_client_port", Label: "Client port", Placeholder: "8008",
				Value: func(bc *baseconfig.BaseConfig) string {
					return portString(bc.ClientPort, baseconfig.DefaultClientPort)
				},
			},
		}
	}
	return nil
}

// screenOptions returns the choices shown on screen, or nil for screens
// without a choice.
func screenOptions(screen flow.Screen) []option {
	var opts []option
	switch screen {
	case flow.ScreenStatsReport:
		opts = []option{
			{Value: "yes", Label: "Yes, report anonymous statistics"},
			{Value: "no", Label: "No"},
		}
	case flow.ScreenDelegationOptions:
		for _, d := range flow.DelegationOptions() {
			opts = append(opts, option{Value: string(d), Label: d.Label()})
		}
	case flow.ScreenTLS:
		for _, t := range flow.TLSOptions() {
			opts = append(opts, option{Value: string(t), Label: t.Label()})
		}
	case flow.ScreenReverseProxy:
		for _, p := range baseconfig.ReverseProxies() {
			opts = append(opts, option{Value: string(p), Label: p.Label()})
		}
	case flow.ScreenDatabase:
		for _, d := range baseconfig.Databases() {
			opts = append(opts, option{Value: string(d), Label: d.Label()})
		}
	}
	return opts
}

// selectedOption returns the current answer for a choice screen.
func selectedOption(screen flow.Screen, bc *baseconfig.BaseConfig) string {
	switch screen {
	case flow.ScreenStatsReport:
		if bc.ReportStats {
			return "yes"
		}
		return "no"
	case flow.ScreenDelegationOptions:
		return string(bc.Delegation)
	case flow.ScreenTLS:
		return string(bc.TLS)
	case flow.ScreenReverseProxy:
		return string(bc.ReverseProxy)
	case flow.ScreenDatabase:
		return string(bc.Database)
	}
	return ""
}

// screenSnippet renders the generated configuration shown on template
// screens. ok is false for screens that show no snippet.
func screenSnippet(screen flow.Screen, bc *baseconfig.BaseConfig) (title, body string, ok bool, err error) {
	switch screen {
	case flow.ScreenReverseProxyTemplate:
		out, err := baseconfig.RenderReverseProxy(bc)
		return bc.ReverseProxy.Label(), out, true, err
	case flow.ScreenDelegationTemplate, flow.ScreenWellKnown, flow.ScreenDNS:
		d, err := baseconfig.RenderDelegation(bc)
		if err != nil {
			return "", "", true, err
		}
		return bc.Delegation.Label(), strings.TrimRight(d.String(), "\n"), true, nil
	}
	return "", "", false, nil
}

func screenLink(screen flow.Screen) string {
	switch screen {
	case flow.ScreenIntro:
		return urls.Installation
	case flow.ScreenServerName:
		return urls.ServerName
	case flow.ScreenStatsReport:
		return urls.ReportStats
	case flow.ScreenKeyExport:
		return urls.SigningKey
	case flow.ScreenDelegationOptions, flow.ScreenDelegationServerName,
		flow.ScreenDelegationPortSelection, flow.ScreenWellKnown, flow.ScreenDNS,
		flow.ScreenDelegationTemplate:
		return urls.Delegation
	case flow.ScreenReverseProxy, flow.ScreenReverseProxyTemplate:
		return urls.ReverseProxy
	case flow.ScreenDatabase:
		return urls.Postgres
	}
	return ""
}

func portString(port, def int) string {
	if port == 0 {
		port = def
	}
	return strconv.Itoa(port)
}

// parsePort converts an input value into a port number.
func parsePort(name, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, baseconfig.NewValidationError(name, "port is required")
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, baseconfig.NewValidationError(name, fmt.Sprintf("%q is not a number", value))
	}
	return port, nil
}
