package discovery

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/anthemctl/internal/logging"
	"github.com/muurk/anthemctl/internal/protocol"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type Anthem receivers advertise their
	// web interface under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for receiver discovery
	DefaultScanTimeout = 5 * time.Second
)

// modelPattern matches Anthem model names in instance names and hostnames,
// e.g. "MRX 740", "mrx-1140", "AVM60".
var modelPattern = regexp.MustCompile(`(?i)(MRX|AVM)[\s-]?(\d{2,4})`)

// browseFunc starts an mDNS browse that writes entries until ctx is done.
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

func zeroconfBrowse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

// Scanner handles mDNS receiver discovery
type Scanner struct {
	// Timeout is the maximum time to wait for receivers
	Timeout time.Duration

	browse browseFunc
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		browse:  zeroconfBrowse,
	}
}

// Scan discovers Anthem receivers on the local network until the timeout
// expires or ctx is done. Receivers are returned sorted by address, one
// entry per address.
func (s *Scanner) Scan(ctx context.Context) ([]*Receiver, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	found := make(map[string]*Receiver)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				r := parseServiceEntry(entry)
				if r == nil {
					continue
				}
				logging.Debug("Discovered receiver",
					zap.String("instance", r.Instance),
					zap.String("address", r.Address()),
					zap.String("model", r.Model.String()),
				)
				mu.Lock()
				found[r.IP] = r
				mu.Unlock()
			}
		}
	}()

	if err := s.browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	mu.Lock()
	defer mu.Unlock()
	receivers := make([]*Receiver, 0, len(found))
	for _, r := range found {
		receivers = append(receivers, r)
	}
	sort.Slice(receivers, func(i, j int) bool { return receivers[i].IP < receivers[j].IP })
	return receivers, nil
}

// parseServiceEntry converts a zeroconf service entry to a Receiver.
// Returns nil if the entry does not look like an Anthem receiver.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Receiver {
	if entry == nil {
		return nil
	}

	match := modelPattern.FindStringSubmatch(entry.Instance)
	if match == nil {
		match = modelPattern.FindStringSubmatch(entry.HostName)
	}
	if match == nil {
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

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	// The advertisement carries the web interface port; control always
	// listens on the fixed protocol port.
	model, _ := protocol.ParseModel(strings.ToUpper(match[1]) + " " + match[2])

	return &Receiver{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		ControlPort:  protocol.DefaultPort,
		Model:        model,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// DiscoverReceivers is a convenience function that scans with the given timeout
func DiscoverReceivers(ctx context.Context, timeout time.Duration) ([]*Receiver, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
