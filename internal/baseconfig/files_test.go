package baseconfig

import (
	"strings"
	"testing"

	"github.com/muurk/synapse-topology/internal/flow"
)

func artifactPaths(a Artifact) []string {
	var paths []string
	for _, f := range a.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

func TestArtifacts(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*BaseConfig)
		wantProxy []string
		wantDeleg []string
	}{
		{
			name:   "local ACME",
			modify: func(bc *BaseConfig) {},
		},
		{
			name: "nginx with well-known delegation",
			modify: func(bc *BaseConfig) {
				bc.TLS = flow.TLSReverseProxy
				bc.ReverseProxy = ProxyNginx
				bc.Delegation = flow.DelegationWellKnown
				bc.DelegationServerName = "synapse.example.com"
			},
			wantProxy: []string{"nginx/synapse.conf"},
			wantDeleg: []string{".well-known/matrix/server", ".well-known/matrix/client"},
		},
		{
			name: "caddy with DNS delegation",
			modify: func(bc *BaseConfig) {
				bc.TLS = flow.TLSReverseProxy
				bc.ReverseProxy = ProxyCaddy
				bc.Delegation = flow.DelegationDNS
				bc.DelegationServerName = "synapse.example.com"
			},
			wantProxy: []string{"caddy/Caddyfile"},
			wantDeleg: []string{"dns/srv-record.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := getSampleConfig()
			tt.modify(bc)

			artifacts, err := Artifacts(bc)
			if err != nil {
				t.Fatalf("Artifacts() error = %v", err)
			}
			if len(artifacts) != 3 {
				t.Fatalf("got %d artifacts, want 3", len(artifacts))
			}

			hs, proxy, deleg := artifacts[0], artifacts[1], artifacts[2]
			if hs.Name != ArtifactHomeserver || len(hs.Files) != 1 || hs.Files[0].Path != "homeserver.yaml" {
				t.Errorf("homeserver artifact = %+v", hs)
			}

			if got := artifactPaths(proxy); strings.Join(got, ",") != strings.Join(tt.wantProxy, ",") {
				t.Errorf("proxy files = %v, want %v", got, tt.wantProxy)
			}
			if (proxy.Skipped != "") != (len(tt.wantProxy) == 0) {
				t.Errorf("proxy skipped = %q", proxy.Skipped)
			}

			if got := artifactPaths(deleg); strings.Join(got, ",") != strings.Join(tt.wantDeleg, ",") {
				t.Errorf("delegation files = %v, want %v", got, tt.wantDeleg)
			}
			if (deleg.Skipped != "") != (len(tt.wantDeleg) == 0) {
				t.Errorf("delegation skipped = %q", deleg.Skipped)
			}

			for _, a := range artifacts {
				for _, f := range a.Files {
					if len(f.Content) == 0 || f.Content[len(f.Content)-1] != '\n' {
						t.Errorf("%s should end with a newline", f.Path)
					}
				}
			}
		})
	}
}

func TestArtifacts_InvalidAnswers(t *testing.T) {
	bc := getSampleConfig()
	bc.ServerName = ""

	if _, err := Artifacts(bc); !IsRenderError(err) {
		t.Errorf("expected render error, got %v", err)
	}
}

func TestReverseProxyFileName(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range ReverseProxies() {
		name := ReverseProxyFileName(p)
		if seen[name] {
			t.Errorf("%s reuses file name %s", p, name)
		}
		seen[name] = true
	}
}
