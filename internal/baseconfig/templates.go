package baseconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/miekg/dns"

	"github.com/muurk/synapse-topology/internal/flow"
)

// SRVTTL is the TTL used for generated SRV records.
const SRVTTL = 3600

// MaxUploadSizeMB is the request body limit proxies must allow for media uploads.
const MaxUploadSizeMB = 50

// proxiedPaths are the path prefixes forwarded to the client listener.
var proxiedPaths = []string{"/_matrix", "/_synapse/client"}

// templateData is the view of a BaseConfig exposed to proxy templates.
type templateData struct {
	ServerName           string
	Host                 string
	FederationPort       int
	ClientPort           int
	PublicFederationPort int
	Delegated            bool
	Paths                []string
	MaxUploadSizeMB      int
}

var reverseProxyTemplates = map[ReverseProxy]string{
	ProxyNginx: `server {
    listen 443 ssl http2;
    listen [::]:443 ssl http2;
{{- if ne .PublicFederationPort 443 }}
    listen {{ .PublicFederationPort }} ssl http2;
    listen [::]:{{ .PublicFederationPort }} ssl http2;
{{- end }}
    server_name {{ .Host }};

    ssl_certificate     /etc/letsencrypt/live/{{ .Host }}/fullchain.pem;
    ssl_certificate_key /etc/letsencrypt/live/{{ .Host }}/privkey.pem;

    location ~ ^({{ .Paths | join "|" }}) {
        proxy_pass http://localhost:{{ .ClientPort }};
        proxy_set_header X-Forwarded-For $remote_addr;
        proxy_set_header X-Forwarded-Proto $scheme;
        proxy_set_header Host $host;
        client_max_body_size {{ .MaxUploadSizeMB }}M;
    }
}
`,
	ProxyCaddy: `{{ .Host }} {
{{- range .Paths }}
    reverse_proxy {{ . }}/* localhost:{{ $.ClientPort }}
{{- end }}
}
{{- if ne .PublicFederationPort 443 }}

{{ .Host }}:{{ .PublicFederationPort }} {
    reverse_proxy localhost:{{ .FederationPort }}
}
{{- end }}
`,
	ProxyApache: `<VirtualHost *:443>
    SSLEngine on
    ServerName {{ .Host }}

    RequestHeader set "X-Forwarded-Proto" expr=%{REQUEST_SCHEME}
    AllowEncodedSlashes NoDecode
    ProxyPreserveHost on
{{- range .Paths }}
    ProxyPass {{ . }} http://127.0.0.1:{{ $.ClientPort }}{{ . }} nocanon
    ProxyPassReverse {{ . }} http://127.0.0.1:{{ $.ClientPort }}{{ . }}
{{- end }}
</VirtualHost>
{{- if ne .PublicFederationPort 443 }}

<VirtualHost *:{{ .PublicFederationPort }}>
    SSLEngine on
    ServerName {{ .Host }}

    RequestHeader set "X-Forwarded-Proto" expr=%{REQUEST_SCHEME}
    AllowEncodedSlashes NoDecode
    ProxyPass /_matrix http://127.0.0.1:{{ .FederationPort }}/_matrix nocanon
    ProxyPassReverse /_matrix http://127.0.0.1:{{ .FederationPort }}/_matrix
</VirtualHost>
{{- end }}
`,
	ProxyHAProxy: `frontend https
    bind :::443 v4v6 ssl crt /etc/ssl/{{ .Host }}.pem alpn h2,http/1.1
    http-request set-header X-Forwarded-Proto https if { ssl_fc }
    http-request set-header X-Forwarded-For %[src]

    acl matrix-host hdr(host) -i {{ .Host }} {{ .Host }}:443
    acl matrix-path path_beg {{ .Paths | join " " }}
    use_backend matrix if matrix-host matrix-path
{{- if ne .PublicFederationPort 443 }}

frontend matrix-federation
    bind :::{{ .PublicFederationPort }} v4v6 ssl crt /etc/ssl/{{ .Host }}.pem alpn h2,http/1.1
    http-request set-header X-Forwarded-Proto https if { ssl_fc }
    http-request set-header X-Forwarded-For %[src]
    default_backend matrix-federation

backend matrix-federation
    server matrix 127.0.0.1:{{ .FederationPort }}
{{- end }}

backend matrix
    server matrix 127.0.0.1:{{ .ClientPort }}
`,
	ProxyOther: `{{- $ports := list 443 -}}
{{- if ne .PublicFederationPort 443 }}{{ $ports = append $ports .PublicFederationPort }}{{ end -}}
Configure your reverse proxy for {{ .Host | quote }} as follows:

  * Terminate TLS on port{{ if gt (len $ports) 1 }}s{{ end }} {{ $ports | join " and " }}.
  * Forward {{ .Paths | join " and " }} to http://localhost:{{ .ClientPort }}.
{{- if ne .PublicFederationPort 443 }}
  * Forward port {{ .PublicFederationPort }} to http://localhost:{{ .FederationPort }}.
{{- end }}
  * Set the X-Forwarded-For and X-Forwarded-Proto headers.
  * Do not canonicalise or decode request URIs.
  * Allow request bodies of at least {{ .MaxUploadSizeMB }}MB.
`,
}

// RenderReverseProxy renders the reverse proxy configuration snippet.
func RenderReverseProxy(bc *BaseConfig) (string, error) {
	if !bc.BehindProxy() {
		return "", NewTemplateError("TLS is not terminated by a reverse proxy", nil)
	}
	text, ok := reverseProxyTemplates[bc.ReverseProxy]
	if !ok {
		return "", NewTemplateError(fmt.Sprintf("no template for reverse proxy %q", bc.ReverseProxy), nil)
	}

	tmpl, err := template.New(string(bc.ReverseProxy)).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return "", NewTemplateError("failed to parse reverse proxy template", err)
	}

	data := templateData{
		ServerName:           bc.ServerName,
		Host:                 bc.ServingHost(),
		FederationPort:       bc.FederationPort,
		ClientPort:           bc.ClientPort,
		PublicFederationPort: bc.PublicFederationPort(),
		Delegated:            bc.Delegated(),
		Paths:                proxiedPaths,
		MaxUploadSizeMB:      MaxUploadSizeMB,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewTemplateError("failed to render reverse proxy template", err)
	}
	return buf.String(), nil
}

// Delegation holds the artefacts the operator must publish to delegate
// federation from the server name to the serving host.
type Delegation struct {
	Type flow.DelegationType `json:"type"`

	// WellKnownServer is the body of https://<server_name>/.well-known/matrix/server
	WellKnownServer string `json:"well_known_server,omitempty"`
	// WellKnownClient is the body of https://<server_name>/.well-known/matrix/client
	WellKnownClient string `json:"well_known_client,omitempty"`
	// SRVRecord is the DNS record to add to the server name's zone
	SRVRecord string `json:"srv_record,omitempty"`
}

// String renders the delegation artefacts as instructions.
func (d *Delegation) String() string {
	var b bytes.Buffer
	switch d.Type {
	case flow.DelegationWellKnown:
		b.WriteString("Serve at /.well-known/matrix/server:\n\n")
		b.WriteString(d.WellKnownServer)
		b.WriteString("\n\nServe at /.well-known/matrix/client:\n\n")
		b.WriteString(d.WellKnownClient)
		b.WriteString("\n")
	case flow.DelegationDNS:
		b.WriteString("Add this record to your DNS zone:\n\n")
		b.WriteString(d.SRVRecord)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderDelegation produces the delegation artefacts for bc.
func RenderDelegation(bc *BaseConfig) (*Delegation, error) {
	if !bc.Delegated() {
		return nil, NewTemplateError("federation is not delegated", nil)
	}
	if err := ValidateHostname("delegation_server_name", bc.DelegationServerName); err != nil {
		return nil, NewTemplateError("delegated server name is invalid", err)
	}

	switch bc.Delegation {
	case flow.DelegationWellKnown:
		return renderWellKnown(bc)
	case flow.DelegationDNS:
		return renderSRV(bc)
	default:
		return nil, NewTemplateError(fmt.Sprintf("unsupported delegation %q", bc.Delegation), nil)
	}
}

func renderWellKnown(bc *BaseConfig) (*Delegation, error) {
	server, err := json.MarshalIndent(map[string]string{
		"m.server": net.JoinHostPort(bc.ServingHost(), strconv.Itoa(bc.PublicFederationPort())),
	}, "", "  ")
	if err != nil {
		return nil, NewTemplateError("failed to encode well-known server", err)
	}

	client, err := json.MarshalIndent(map[string]interface{}{
		"m.homeserver": map[string]string{"base_url": publicBaseURL(bc)},
	}, "", "  ")
	if err != nil {
		return nil, NewTemplateError("failed to encode well-known client", err)
	}

	return &Delegation{
		Type:            flow.DelegationWellKnown,
		WellKnownServer: string(server),
		WellKnownClient: string(client),
	}, nil
}

func renderSRV(bc *BaseConfig) (*Delegation, error) {
	rr := &dns.SRV{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn("_matrix._tcp." + HostOf(bc.ServerName)),
			Rrtype: dns.TypeSRV,
			Class:  dns.ClassINET,
			Ttl:    SRVTTL,
		},
		Priority: 10,
		Weight:   0,
		Port:     uint16(bc.PublicFederationPort()),
		Target:   dns.Fqdn(bc.ServingHost()),
	}

	return &Delegation{
		Type:      flow.DelegationDNS,
		SRVRecord: rr.String(),
	}, nil
}
