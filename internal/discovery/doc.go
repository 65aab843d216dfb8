// Package discovery provides mDNS-based discovery of Anthem receivers.
//
// Anthem MRX and AVM receivers advertise their web interface as an
// "_http._tcp" service. The scanner browses that service type and keeps the
// entries whose instance name or hostname carries an Anthem model name
// (MRX 740, AVM 90, ...). The advertised port belongs to the web interface;
// every Receiver reports the IP control port instead.
//
// # Usage Example
//
//	receivers, err := discovery.DiscoverReceivers(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, r := range receivers {
//	    fmt.Printf("Found: %s\n", r)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Receivers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
