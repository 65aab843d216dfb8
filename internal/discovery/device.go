package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/muurk/anthemctl/internal/protocol"
)

// Receiver represents an Anthem receiver discovered on the network
type Receiver struct {
	// Instance is the advertised mDNS instance name (e.g., "MRX 740 Living Room")
	Instance string

	// Hostname is the mDNS hostname (e.g., "MRX740-4A2B.local.")
	Hostname string

	// IP is the receiver address, IPv4 when one was advertised
	IP string

	// ControlPort is the TCP port of the IP control protocol
	ControlPort int

	// Model is the model guessed from the advertisement. It is
	// ModelUndefined when the name matched the family but not a known model.
	Model protocol.Model

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the receiver was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable description of the receiver
func (r *Receiver) String() string {
	return fmt.Sprintf("Anthem %s (%s) at %s", r.Model, r.Instance, r.Address())
}

// Address returns host:port for the control connection
func (r *Receiver) Address() string {
	return net.JoinHostPort(r.IP, strconv.Itoa(r.ControlPort))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (r *Receiver) GetMetadata(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
