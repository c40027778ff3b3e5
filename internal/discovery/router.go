package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Router represents a discovered RouterOS device on the network
type Router struct {
	// Identity is the router's system identity (e.g., "MikroTik-D64F")
	Identity string

	// Hostname is the mDNS hostname (e.g., "MikroTik-D64F.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.88.1")
	IP string

	// WebPort is the advertised web interface port (typically 80)
	WebPort int

	// APIPort is the binary API port to connect on (typically 8728)
	APIPort int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the router was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the router
func (r *Router) String() string {
	return fmt.Sprintf("RouterOS device %s (%s) at %s, api port %d", r.Identity, r.Hostname, r.IP, r.APIPort)
}

// APIAddress returns the host:port address for the binary API
func (r *Router) APIAddress() string {
	return net.JoinHostPort(r.IP, strconv.Itoa(r.APIPort))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (r *Router) GetMetadata(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
