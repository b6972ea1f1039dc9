// Package discovery finds SkyLog API servers on the local network.
//
// `skylog serve --advertise` registers the server as a "_skylog._tcp"
// mDNS service with TXT records for the version and API path.
// `skylog discover` browses for that service type and lists what answers.
//
// # Usage Example
//
//	ad, err := discovery.Advertise("skylog on office-mac", 8080,
//	    map[string]string{"version": version.Version, "path": "/api"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ad.Shutdown()
//
//	servers, err := discovery.NewScanner().ScanForServers(ctx)
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Servers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
