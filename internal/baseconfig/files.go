package baseconfig

import "strings"

// File is one rendered configuration file. Path is slash separated and
// relative to the output directory.
type File struct {
	Path    string
	Content []byte
}

// Artifact is one part of a deployment: the homeserver config, the reverse
// proxy snippet or the delegation records.
type Artifact struct {
	Name  string
	Files []File
	// Skipped explains why the artifact does not apply to the answers.
	Skipped string
}

// Artifact names in the order Artifacts returns them.
const (
	ArtifactHomeserver   = "homeserver.yaml"
	ArtifactReverseProxy = "reverse proxy"
	ArtifactDelegation   = "delegation"
)

// Artifacts renders every file the answers call for. Artifacts that do not
// apply are returned with Skipped set so callers can report them.
func Artifacts(bc *BaseConfig) ([]Artifact, error) {
	hs, err := RenderHomeserver(bc)
	if err != nil {
		return nil, err
	}
	artifacts := []Artifact{{
		Name:  ArtifactHomeserver,
		Files: []File{{Path: "homeserver.yaml", Content: hs}},
	}}

	proxy := Artifact{Name: ArtifactReverseProxy}
	if bc.BehindProxy() {
		snippet, err := RenderReverseProxy(bc)
		if err != nil {
			return nil, err
		}
		proxy.Files = []File{{Path: ReverseProxyFileName(bc.ReverseProxy), Content: withNewline(snippet)}}
	} else {
		proxy.Skipped = "TLS is not terminated by a reverse proxy"
	}

	delegation := Artifact{Name: ArtifactDelegation}
	if bc.Delegated() {
		d, err := RenderDelegation(bc)
		if err != nil {
			return nil, err
		}
		delegation.Files = d.Files()
	} else {
		delegation.Skipped = "federation is not delegated"
	}

	return append(artifacts, proxy, delegation), nil
}

// ReverseProxyFileName returns where the snippet for p is written.
func ReverseProxyFileName(p ReverseProxy) string {
	switch p {
	case ProxyNginx:
		return "nginx/synapse.conf"
	case ProxyCaddy:
		return "caddy/Caddyfile"
	case ProxyApache:
		return "apache/synapse.conf"
	case ProxyHAProxy:
		return "haproxy/synapse.cfg"
	default:
		return "reverse-proxy.txt"
	}
}

// Files returns the delegation artefacts laid out as they are published.
func (d *Delegation) Files() []File {
	if d.SRVRecord != "" {
		return []File{{Path: "dns/srv-record.txt", Content: withNewline(d.SRVRecord)}}
	}
	return []File{
		{Path: ".well-known/matrix/server", Content: withNewline(d.WellKnownServer)},
		{Path: ".well-known/matrix/client", Content: withNewline(d.WellKnownClient)},
	}
}

func withNewline(s string) []byte {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return []byte(s)
}
