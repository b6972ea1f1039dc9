package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/logging"
)

const (
	// ServiceType is the mDNS service type SkyLog servers advertise
	ServiceType = "_skylog._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 5 * time.Second
)

// Advertisement is a live mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
	once   sync.Once
}

// Advertise registers a SkyLog server on the local network until Shutdown.
// txt entries are published as key=value TXT records.
func Advertise(instance string, port int, txt map[string]string) (*Advertisement, error) {
	if port <= 0 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	records := make([]string, 0, len(txt))
	for k, v := range txt {
		records = append(records, k+"="+v)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, records, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising on the local network",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the registration. Safe to call more than once.
func (a *Advertisement) Shutdown() {
	if a == nil {
		return
	}
	a.once.Do(a.server.Shutdown)
}

// Scanner handles mDNS server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForServers collects every SkyLog server that answers within the
// timeout or until ctx is done.
func (s *Scanner) ScanForServers(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []*Instance, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		seen := make(map[string]bool)
		instances := make([]*Instance, 0)
		for entry := range entries {
			inst := parseServiceEntry(entry)
			if inst == nil || seen[inst.Name] {
				continue
			}
			seen[inst.Name] = true
			instances = append(instances, inst)
		}
		collected <- instances
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once browsing stops.
	select {
	case instances := <-collected:
		return instances, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("mDNS browse did not finish")
	}
}

// WaitForServer returns the first server whose instance name matches name
// (case-insensitive), or the first server at all when name is empty.
func (s *Scanner) WaitForServer(ctx context.Context, name string) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Instance, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			inst := parseServiceEntry(entry)
			if inst == nil || (name != "" && !strings.EqualFold(inst.Name, name)) {
				continue
			}
			select {
			case found <- inst:
				cancel()
			default:
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
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
		if name == "" {
			return nil, fmt.Errorf("no SkyLog server found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("server %q not found within %s", name, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Instance.
// Returns nil if the entry has no usable address or port.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	if entry == nil || entry.Instance == "" || entry.Port <= 0 {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
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

	return &Instance{
		Name:         unescapeInstance(entry.Instance),
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// unescapeInstance undoes the DNS escaping zeroconf leaves in instance
// names ("skylog\ on\ mac" -> "skylog on mac").
func unescapeInstance(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
