package baseconfig

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/muurk/synapse-topology/internal/flow"
)

func decodeHomeserver(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("rendered YAML does not parse: %v\n%s", err, data)
	}
	return doc
}

func TestRenderHomeserver_ACME(t *testing.T) {
	data, err := RenderHomeserver(getSampleConfig())
	if err != nil {
		t.Fatalf("RenderHomeserver() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# Generated by") {
		t.Error("rendered file should start with the header comment")
	}

	doc := decodeHomeserver(t, data)
	if doc["server_name"] != "example.com" {
		t.Errorf("server_name = %v", doc["server_name"])
	}
	if doc["report_stats"] != true {
		t.Errorf("report_stats = %v", doc["report_stats"])
	}
	if doc["public_baseurl"] != "https://example.com:8008/" {
		t.Errorf("public_baseurl = %v", doc["public_baseurl"])
	}

	acme, ok := doc["acme"].(map[string]interface{})
	if !ok || acme["enabled"] != true || acme["domain"] != "example.com" {
		t.Errorf("acme block = %v", doc["acme"])
	}

	listeners, ok := doc["listeners"].([]interface{})
	if !ok || len(listeners) != 2 {
		t.Fatalf("listeners = %v, want 2 entries", doc["listeners"])
	}
	fed := listeners[0].(map[string]interface{})
	if fed["port"] != 8448 || fed["tls"] != true {
		t.Errorf("federation listener = %v", fed)
	}

	db := doc["database"].(map[string]interface{})
	if db["name"] != "psycopg2" {
		t.Errorf("database name = %v, want psycopg2", db["name"])
	}
}

func TestRenderHomeserver_BehindProxy(t *testing.T) {
	bc := getSampleConfig()
	bc.TLS = flow.TLSReverseProxy
	bc.ReverseProxy = ProxyCaddy
	bc.Database = DatabaseSQLite

	data, err := RenderHomeserver(bc)
	if err != nil {
		t.Fatalf("RenderHomeserver() error = %v", err)
	}

	doc := decodeHomeserver(t, data)
	if _, ok := doc["acme"]; ok {
		t.Error("acme block should be omitted behind a reverse proxy")
	}
	if _, ok := doc["tls_certificate_path"]; ok {
		t.Error("tls paths should be omitted behind a reverse proxy")
	}
	if doc["public_baseurl"] != "https://example.com/" {
		t.Errorf("public_baseurl = %v", doc["public_baseurl"])
	}

	for _, l := range doc["listeners"].([]interface{}) {
		listener := l.(map[string]interface{})
		if listener["x_forwarded"] != true {
			t.Errorf("listener %v should set x_forwarded", listener["port"])
		}
		if listener["tls"] != false {
			t.Errorf("listener %v should not terminate TLS", listener["port"])
		}
	}
}

func TestRenderHomeserver_ManualTLS(t *testing.T) {
	bc := getSampleConfig()
	bc.TLS = flow.TLSManual
	bc.TLSCertPath = "/etc/ssl/example.crt"
	bc.TLSKeyPath = "/etc/ssl/example.key"

	data, err := RenderHomeserver(bc)
	if err != nil {
		t.Fatalf("RenderHomeserver() error = %v", err)
	}
	doc := decodeHomeserver(t, data)
	if doc["tls_certificate_path"] != "/etc/ssl/example.crt" || doc["tls_private_key_path"] != "/etc/ssl/example.key" {
		t.Errorf("tls paths = %v, %v", doc["tls_certificate_path"], doc["tls_private_key_path"])
	}
}

func TestRenderHomeserver_Invalid(t *testing.T) {
	bc := getSampleConfig()
	bc.ServerName = ""

	_, err := RenderHomeserver(bc)
	if err == nil {
		t.Fatal("RenderHomeserver() should fail on an incomplete config")
	}
	if !IsRenderError(err) {
		t.Errorf("expected render error, got %v", err)
	}
}

func TestRenderReverseProxy(t *testing.T) {
	for _, proxy := range ReverseProxies() {
		t.Run(string(proxy), func(t *testing.T) {
			bc := getSampleConfig()
			bc.TLS = flow.TLSReverseProxy
			bc.ReverseProxy = proxy
			bc.Delegation = flow.DelegationWellKnown
			bc.DelegationServerName = "synapse.example.com"

			out, err := RenderReverseProxy(bc)
			if err != nil {
				t.Fatalf("RenderReverseProxy() error = %v", err)
			}
			if !strings.Contains(out, "synapse.example.com") {
				t.Errorf("snippet should reference the serving host:\n%s", out)
			}
			if !strings.Contains(out, "8008") {
				t.Errorf("snippet should forward to the client port:\n%s", out)
			}
			if !strings.Contains(out, "8448") {
				t.Errorf("snippet should expose the federation port:\n%s", out)
			}
		})
	}
}

func TestRenderReverseProxy_PathsAndPorts(t *testing.T) {
	tests := []struct {
		proxy   ReverseProxy
		fedPort int
		want    []string
		absent  []string
	}{
		{ProxyNginx, 0, []string{"location ~ ^(/_matrix|/_synapse/client) {", "client_max_body_size 50M;", "listen 8448 ssl http2;"}, nil},
		{ProxyCaddy, 0, []string{"reverse_proxy /_matrix/* localhost:8008", "reverse_proxy /_synapse/client/* localhost:8008"}, nil},
		{ProxyApache, 0, []string{"ProxyPass /_synapse/client http://127.0.0.1:8008/_synapse/client nocanon"}, nil},
		{ProxyHAProxy, 0, []string{"acl matrix-path path_beg /_matrix /_synapse/client"}, nil},
		{ProxyOther, 0, []string{`"example.com"`, "Terminate TLS on ports 443 and 8448.", "/_matrix and /_synapse/client", "50MB"}, nil},
		{ProxyOther, 443, []string{"Terminate TLS on port 443.", "Forward /_matrix and /_synapse/client to http://localhost:8008."}, []string{"Forward port"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.proxy, tt.fedPort), func(t *testing.T) {
			bc := getSampleConfig()
			bc.TLS = flow.TLSReverseProxy
			bc.ReverseProxy = tt.proxy
			if tt.fedPort != 0 {
				bc.Delegation = flow.DelegationWellKnown
				bc.DelegationServerName = "example.com"
				bc.DelegationFederationPort = tt.fedPort
				bc.DelegationClientPort = 443
			}

			out, err := RenderReverseProxy(bc)
			if err != nil {
				t.Fatalf("RenderReverseProxy() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("snippet missing %q:\n%s", want, out)
				}
			}
			for _, absent := range tt.absent {
				if strings.Contains(out, absent) {
					t.Errorf("snippet should not contain %q:\n%s", absent, out)
				}
			}
		})
	}
}

func TestRenderReverseProxy_NotBehindProxy(t *testing.T) {
	_, err := RenderReverseProxy(getSampleConfig())
	if !IsTemplateError(err) {
		t.Errorf("expected template error, got %v", err)
	}
}

func TestRenderDelegation_WellKnown(t *testing.T) {
	bc := getSampleConfig()
	bc.Delegation = flow.DelegationWellKnown
	bc.DelegationServerName = "synapse.example.com"
	bc.DelegationFederationPort = 443
	bc.DelegationClientPort = 443

	d, err := RenderDelegation(bc)
	if err != nil {
		t.Fatalf("RenderDelegation() error = %v", err)
	}

	var server map[string]string
	if err := json.Unmarshal([]byte(d.WellKnownServer), &server); err != nil {
		t.Fatalf("server body is not JSON: %v", err)
	}
	if server["m.server"] != "synapse.example.com:443" {
		t.Errorf("m.server = %q", server["m.server"])
	}

	var client map[string]map[string]string
	if err := json.Unmarshal([]byte(d.WellKnownClient), &client); err != nil {
		t.Fatalf("client body is not JSON: %v", err)
	}
	if client["m.homeserver"]["base_url"] != "https://synapse.example.com/" {
		t.Errorf("base_url = %q", client["m.homeserver"]["base_url"])
	}
	if !strings.Contains(d.String(), "/.well-known/matrix/server") {
		t.Errorf("String() = %q", d.String())
	}
}

func TestRenderDelegation_DNS(t *testing.T) {
	bc := getSampleConfig()
	bc.ServerName = "example.com:8448"
	bc.Delegation = flow.DelegationDNS
	bc.DelegationServerName = "synapse.example.com"

	d, err := RenderDelegation(bc)
	if err != nil {
		t.Fatalf("RenderDelegation() error = %v", err)
	}

	fields := strings.Fields(d.SRVRecord)
	want := []string{"_matrix._tcp.example.com.", "3600", "IN", "SRV", "10", "0", "8448", "synapse.example.com."}
	if strings.Join(fields, " ") != strings.Join(want, " ") {
		t.Errorf("SRVRecord = %q, want fields %v", d.SRVRecord, want)
	}
}

func TestRenderDelegation_Local(t *testing.T) {
	_, err := RenderDelegation(getSampleConfig())
	if !IsTemplateError(err) {
		t.Errorf("expected template error for local delegation, got %v", err)
	}
}

func TestRender_ServerNameWithPort(t *testing.T) {
	tests := []struct {
		name       string
		configure  func(bc *BaseConfig)
		baseURL    string
		domain     string
		certPath   string
		serverName string
	}{
		{
			name:       "hostname with port",
			configure:  func(bc *BaseConfig) { bc.ServerName = "example.com:8448" },
			baseURL:    "https://example.com:8008/",
			domain:     "example.com",
			certPath:   "/data/example.com.tls.crt",
			serverName: "example.com:8448",
		},
		{
			name:       "ipv6 literal with port",
			configure:  func(bc *BaseConfig) { bc.ServerName = "[2001:db8::1]:8448" },
			baseURL:    "https://[2001:db8::1]:8008/",
			domain:     "2001:db8::1",
			certPath:   "/data/2001:db8::1.tls.crt",
			serverName: "[2001:db8::1]:8448",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := getSampleConfig()
			tt.configure(bc)

			data, err := RenderHomeserver(bc)
			if err != nil {
				t.Fatalf("RenderHomeserver() error = %v", err)
			}
			doc := decodeHomeserver(t, data)
			if doc["server_name"] != tt.serverName {
				t.Errorf("server_name = %v, want %s", doc["server_name"], tt.serverName)
			}
			if doc["public_baseurl"] != tt.baseURL {
				t.Errorf("public_baseurl = %v, want %s", doc["public_baseurl"], tt.baseURL)
			}
			if doc["tls_certificate_path"] != tt.certPath {
				t.Errorf("tls_certificate_path = %v, want %s", doc["tls_certificate_path"], tt.certPath)
			}
			acme := doc["acme"].(map[string]interface{})
			if acme["domain"] != tt.domain {
				t.Errorf("acme domain = %v, want %s", acme["domain"], tt.domain)
			}
		})
	}
}

func TestRenderDelegation_RejectsPortInDelegatedName(t *testing.T) {
	for _, typ := range []flow.DelegationType{flow.DelegationWellKnown, flow.DelegationDNS} {
		bc := getSampleConfig()
		bc.Delegation = typ
		bc.DelegationServerName = "synapse.example.com:8448"

		if _, err := RenderDelegation(bc); !IsTemplateError(err) {
			t.Errorf("%s: expected template error, got %v", typ, err)
		}
		if _, err := RenderHomeserver(bc); err == nil {
			t.Errorf("%s: RenderHomeserver() should refuse a delegated name with a port", typ)
		}
	}
}

func TestRenderReverseProxy_ServerNameWithPort(t *testing.T) {
	bc := getSampleConfig()
	bc.ServerName = "example.com:8448"
	bc.TLS = flow.TLSReverseProxy
	bc.ReverseProxy = ProxyNginx

	out, err := RenderReverseProxy(bc)
	if err != nil {
		t.Fatalf("RenderReverseProxy() error = %v", err)
	}
	if !strings.Contains(out, "server_name example.com;") {
		t.Errorf("server_name line should carry the bare host:\n%s", out)
	}
	if strings.Contains(out, "example.com:8448") {
		t.Errorf("port leaked into the proxy config:\n%s", out)
	}
}
