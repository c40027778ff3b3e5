// Package discovery provides mDNS-based discovery of RouterOS devices.
//
// This package implements multicast DNS (mDNS) service discovery to locate
// RouterOS devices on the local network. Routers with mDNS enabled advertise
// their web interface using the "_http._tcp" service type under their system
// identity hostname.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for service advertisements
//  3. Filters responses to hostnames matching the RouterOS identity pattern
//  4. Collects router information (identity, IP, web port)
//  5. Returns a list of discovered routers after the timeout period
//
// # Usage Example
//
//	// Discover routers with 10-second timeout
//	routers, err := discovery.ScanForRouters(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, router := range routers {
//	    fmt.Printf("Found: %s at %s\n", router.Identity, router.APIAddress())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Routers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can
// run simultaneously without interference.
package discovery
