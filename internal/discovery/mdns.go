package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type RouterOS devices advertise for
	// their web interface
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for router discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultAPIPort is the RouterOS binary API port
	DefaultAPIPort = 8728

	// DefaultWebPort is the RouterOS web interface port
	DefaultWebPort = 80
)

// identityPattern matches RouterOS hostnames. The factory identity is
// "MikroTik" with an optional MAC-derived suffix (e.g.,
// "MikroTik-D64F.local"); renamed routers keep the "MikroTik" prefix only
// when the operator has not changed the identity.
var identityPattern = regexp.MustCompile(`^(MikroTik[0-9A-Za-z-]*)\.local\.?$`)

// Scanner handles mDNS router discovery
type Scanner struct {
	// Timeout is the maximum time to wait for router discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForRouters discovers all RouterOS devices on the local network
// Returns a list of discovered routers or an error
func (s *Scanner) ScanForRouters() ([]*Router, error) {
	return s.ScanForRoutersWithContext(context.Background())
}

// ScanForRoutersWithContext discovers routers with a custom context
func (s *Scanner) ScanForRoutersWithContext(ctx context.Context) ([]*Router, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	routers := make([]*Router, 0)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Browse for services in a goroutine
	go func() {
		for entry := range entries {
			router := s.parseServiceEntry(entry)
			if router != nil {
				routers = append(routers, router)
			}
		}
	}()

	// Start browsing for HTTP services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	return routers, nil
}

// WaitForRouter waits for a specific router by identity
// Returns the router or an error if not found within timeout
func (s *Scanner) WaitForRouter(identity string) (*Router, error) {
	return s.WaitForRouterWithContext(context.Background(), identity)
}

// WaitForRouterWithContext waits for a specific router with a custom context
func (s *Scanner) WaitForRouterWithContext(ctx context.Context, identity string) (*Router, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	routerChan := make(chan *Router, 1)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Browse for services in a goroutine
	go func() {
		for entry := range entries {
			router := s.parseServiceEntry(entry)
			if router != nil && router.Identity == identity {
				routerChan <- router
				cancel() // Found the router, cancel context
				return
			}
		}
	}()

	// Start browsing for HTTP services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for router or timeout
	select {
	case router := <-routerChan:
		return router, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("router with identity %s not found within timeout", identity)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Router
// Returns nil if the entry is not a RouterOS device
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Router {
	// Check if hostname matches the RouterOS pattern (MikroTik*.local)
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	matches := identityPattern.FindStringSubmatch(hostname)
	if len(matches) < 2 {
		return nil
	}

	identity := matches[1]

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Get web port (default to 80 if not specified)
	webPort := entry.Port
	if webPort == 0 {
		webPort = DefaultWebPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Router{
		Identity:     identity,
		Hostname:     hostname,
		IP:           ip,
		WebPort:      webPort,
		APIPort:      DefaultAPIPort,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForRouters is a convenience function to scan for routers with a custom timeout
func ScanForRouters(timeout time.Duration) ([]*Router, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForRouters()
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan() ([]*Router, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.ScanForRouters()
}

// FindRouter searches for a specific router by identity with default timeout
func FindRouter(identity string) (*Router, error) {
	scanner := NewScanner()
	return scanner.WaitForRouter(identity)
}
