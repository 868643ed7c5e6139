// Package discovery announces configuration servers over mDNS and finds them
// on the local network.
//
// A running topology-server registers itself as a "_synapse-topology._tcp"
// service so that an operator on another machine can locate the web UI without
// knowing its address. The TXT record carries the application id, the server
// version, the API path and whether TLS is enabled.
//
// # Announcing
//
//	stop, err := discovery.Announce(discovery.Announcement{
//	    Instance: "topology-home",
//	    Port:     8888,
//	})
//	if err != nil {
//	    return err
//	}
//	defer stop()
//
// # Scanning
//
//	scanner := discovery.NewScanner()
//	instances, err := scanner.Scan(ctx)
//	for _, inst := range instances {
//	    fmt.Println(inst, inst.BaseURL())
//	}
//
// Entries of the same service type that do not carry app=synapse-topology are
// ignored.
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Both machines must be on the same network segment
//   - Firewall must allow mDNS (UDP port 5353)
package discovery
