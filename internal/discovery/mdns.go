package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/logging"
	"github.com/muurk/synapse-topology/internal/version"
)

const (
	// ServiceType is the mDNS service type advertised by configuration servers
	ServiceType = "_synapse-topology._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is the default browse duration
	DefaultScanTimeout = 5 * time.Second

	// DefaultAPIPath is the API prefix advertised in the TXT record
	DefaultAPIPath = "/api"

	// AppID identifies our own announcements among entries of the same type
	AppID = "synapse-topology"
)

// TXT record keys.
const (
	TXTApp     = "app"
	TXTVersion = "version"
	TXTPath    = "path"
	TXTTLS     = "tls"
)

// Announcement configures the mDNS registration of a configuration server.
type Announcement struct {
	Instance string
	Port     int
	TLS      bool
	// Extra TXT entries in "key=value" form
	Text []string
}

// Announce registers the configuration server on the local network and returns
// a function that withdraws the registration.
func Announce(a Announcement) (func(), error) {
	if a.Instance == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	if a.Port <= 0 || a.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", a.Port)
	}

	server, err := zeroconf.Register(a.Instance, ServiceType, ServiceDomain, a.Port, a.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Announcing configuration server",
		zap.String("instance", a.Instance),
		zap.String("service", ServiceType),
		zap.Int("port", a.Port),
	)

	var once sync.Once
	return func() {
		once.Do(func() {
			server.Shutdown()
			logging.Info("Withdrew mDNS announcement", zap.String("instance", a.Instance))
		})
	}, nil
}

// TXT returns the TXT record entries for the announcement.
func (a Announcement) TXT() []string {
	txt := []string{
		TXTApp + "=" + AppID,
		TXTVersion + "=" + version.Version,
		TXTPath + "=" + DefaultAPIPath,
		fmt.Sprintf("%s=%t", TXTTLS, a.TLS),
	}
	return append(txt, a.Text...)
}

// Scanner browses for configuration servers
type Scanner struct {
	// Timeout is the maximum time to browse
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for the scanner's timeout and returns every instance found,
// sorted by name.
func (s *Scanner) Scan(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu        sync.Mutex
		instances = make(map[string]*Instance)
	)

	err := s.browse(ctx, func(inst *Instance) bool {
		mu.Lock()
		instances[inst.Name] = inst
		mu.Unlock()
		return true
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	result := make([]*Instance, 0, len(instances))
	for _, inst := range instances {
		result = append(result, inst)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Find waits until the named instance is seen or the timeout expires.
func (s *Scanner) Find(ctx context.Context, name string) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	found := make(chan *Instance, 1)
	err := s.browse(ctx, func(inst *Instance) bool {
		if inst.Name != name {
			return true
		}
		select {
		case found <- inst:
		default:
		}
		cancel()
		return false
	})
	if err != nil {
		return nil, err
	}

	select {
	case inst := <-found:
		return inst, nil
	case <-ctx.Done():
		select {
		case inst := <-found:
			return inst, nil
		default:
		}
		return nil, fmt.Errorf("configuration server %q not found within %s", name, s.Timeout)
	}
}

// browse feeds parsed entries to fn until ctx ends or fn returns false.
func (s *Scanner) browse(ctx context.Context, fn func(*Instance) bool) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				inst := s.parseServiceEntry(entry)
				if inst == nil {
					continue
				}
				logging.Debug("Discovered configuration server", zap.String("instance", inst.String()))
				if !fn(inst) {
					return
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to an Instance.
// Returns nil for entries that are not our announcements or lack an address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	if entry == nil || entry.Instance == "" || entry.Port == 0 {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	if metadata[TXTApp] != AppID {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	return &Instance{
		Name:         entry.Instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
