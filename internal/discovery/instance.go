package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance is a configuration server found on the network.
type Instance struct {
	// Name is the mDNS instance name (e.g., "topology-home")
	Name string

	// Host is the mDNS hostname (e.g., "workstation.local.")
	Host string

	// IP is the preferred address, IPv4 when one is advertised
	IP string

	// Port is the HTTP port of the configuration API
	Port int

	// Metadata contains the TXT record data
	// Fields set by Announce: "app", "version", "path", "tls"
	Metadata map[string]string

	// DiscoveredAt is when the instance was seen
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the instance
func (i *Instance) String() string {
	return fmt.Sprintf("%s (%s) at %s", i.Name, i.Host, net.JoinHostPort(i.IP, strconv.Itoa(i.Port)))
}

// BaseURL returns the URL of the configuration API.
func (i *Instance) BaseURL() string {
	scheme := "http"
	if i.GetMetadata(TXTTLS) == "true" {
		scheme = "https"
	}
	path := i.GetMetadata(TXTPath)
	if path == "" {
		path = DefaultAPIPath
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(i.IP, strconv.Itoa(i.Port)), path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
