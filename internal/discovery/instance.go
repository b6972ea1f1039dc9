package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance represents a SkyLog API server found on the network
type Instance struct {
	// Name is the advertised instance name (e.g., "skylog on office-mac")
	Name string

	// Hostname is the mDNS hostname (e.g., "office-mac.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the API port
	Port int

	// Metadata contains the TXT record data, e.g. "version=1.2.0", "path=/api"
	Metadata map[string]string

	// DiscoveredAt is when the instance was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the instance
func (i *Instance) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", i.Name, i.Hostname, i.IP, i.Port)
}

// BaseURL returns the HTTP base URL for the API, including the advertised path
func (i *Instance) BaseURL() string {
	return "http://" + net.JoinHostPort(i.IP, strconv.Itoa(i.Port)) + i.GetMetadata("path")
}

// Version returns the advertised server version, if any
func (i *Instance) Version() string {
	return i.GetMetadata("version")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
