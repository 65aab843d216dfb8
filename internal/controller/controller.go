package controller

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/muurk/anthemctl/internal/protocol"
)

// Default timing.
const (
	// DefaultIdleTimeout tears the session down when nothing is received
	// for this long.
	DefaultIdleTimeout = 5 * time.Minute
	// DefaultDialTimeout bounds the TCP connect.
	DefaultDialTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds a single batch write.
	DefaultWriteTimeout = 10 * time.Second
)

// State is the controller's readiness state.
type State int

const (
	// StateIdle accepts zone registration and rejects commands.
	StateIdle State = iota
	// StateConfiguring runs the handshake. Commands are accepted but most
	// change events are suppressed.
	StateConfiguring
	// StateOperational emits all change events and keeps the session alive.
	StateOperational
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfiguring:
		return "configuring"
	case StateOperational:
		return "operational"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DialFunc opens the TCP connection to the receiver.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options configures a Controller. Zero fields take defaults.
type Options struct {
	// IdleTimeout is the inactivity limit on the socket.
	IdleTimeout time.Duration
	// KeepAliveInterval defaults to half of IdleTimeout. A negative value
	// disables keep-alive.
	KeepAliveInterval time.Duration
	// WriteTimeout bounds each batch write.
	WriteTimeout time.Duration
	// Dial replaces the default net.Dialer.
	Dial DialFunc
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.KeepAliveInterval == 0 {
		o.KeepAliveInterval = o.IdleTimeout / 2
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.Dial == nil {
		d := &net.Dialer{Timeout: DefaultDialTimeout}
		o.Dial = d.DialContext
	}
	return o
}

// Controller keeps one session with an Anthem receiver: it owns the socket,
// tracks zone and input state, and publishes change events.
//
// A single mutex serialises command issuance and response application.
// Events are delivered after the mutex is released, on the goroutine that
// produced them, so subscribers may call back into the controller.
type Controller struct {
	opts Options
	bus  bus

	mu      sync.Mutex
	state   State
	session uint64
	cancel  context.CancelFunc
	conn    net.Conn
	w       io.Writer
	remote  string
	framer  protocol.Framer
	batch   batch
	pending []Event

	zones  map[int]*Zone
	inputs inputTable

	model         protocol.Model
	serial        string
	software      string
	brightness    Observed[int]
	menuVisible   bool
	configureSent bool
	keepAlive     keepAlive
}

// New creates an idle controller with no zones.
func New(opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		opts:  opts,
		zones: make(map[int]*Zone),
	}
	c.keepAlive.interval = opts.KeepAliveInterval
	return c
}

// Subscribe registers fn for every event. The returned function removes it.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	return c.bus.subscribe(fn)
}

// AddZone registers a zone. Zones can only be added while Idle; ids are 1
// or 2 and may not repeat. On error the zone store is unchanged.
func (c *Controller) AddZone(id int, name string, main bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrNotIdle
	}
	if !validZoneID(id) {
		return fmt.Errorf("zone %d: %w", id, ErrInvalidZone)
	}
	if _, ok := c.zones[id]; ok {
		return fmt.Errorf("zone %d: %w", id, ErrDuplicateZone)
	}

	c.zones[id] = &Zone{ID: id, Name: name, Main: main}
	return nil
}

// State returns the readiness state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Model returns the receiver model, or ModelUndefined before IDM arrives.
func (c *Controller) Model() protocol.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Dialect returns the command vocabulary of the receiver model.
func (c *Controller) Dialect() protocol.Dialect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Dialect()
}

// SerialNumber returns the serial number, or the MAC address on legacy
// receivers.
func (c *Controller) SerialNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serial
}

// SoftwareVersion returns the receiver's software version.
func (c *Controller) SoftwareVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.software
}

// RemoteAddr returns host:port of the current or last session.
func (c *Controller) RemoteAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

// Zone returns a snapshot of a registered zone.
func (c *Controller) Zone(id int) (Zone, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zones[id]
	if !ok {
		return Zone{}, false
	}
	return *z, true
}

// Zones returns snapshots of every registered zone, ordered by id.
func (c *Controller) Zones() []Zone {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Zone, 0, len(c.zones))
	for _, id := range c.zoneIDs() {
		out = append(out, *c.zones[id])
	}
	return out
}

// ZoneName returns the display name of a registered zone.
func (c *Controller) ZoneName(id int) (string, bool) {
	z, ok := c.Zone(id)
	return z.Name, ok
}

// InputCount returns the number of inputs the receiver reported.
func (c *Controller) InputCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inputs.names)
}

// Inputs returns the input names; element 0 is input 1. Names not yet
// received are empty.
func (c *Controller) Inputs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputs.list()
}

// InputName returns the name of a 1-based input.
func (c *Controller) InputName(index int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputs.name(index)
}

// ALMNames returns the listening mode names for the receiver's dialect.
func (c *Controller) ALMNames() []string {
	return protocol.ALMNames(c.Dialect())
}

// PanelBrightness returns the front panel brightness, if reported.
func (c *Controller) PanelBrightness() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brightness.Get()
}

// MenuVisible reports whether the on-screen setup menu is shown.
func (c *Controller) MenuVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menuVisible
}

// do runs fn under the mutex and then delivers the events fn produced.
func (c *Controller) do(fn func()) {
	c.mu.Lock()
	fn()
	events := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.bus.publish(events)
}

// emit queues an event for delivery once the mutex is released.
// Caller must hold mu.
func (c *Controller) emit(ev Event) {
	c.pending = append(c.pending, ev)
}

// fault builds a ControllerError, queues it on the event stream and
// returns it. Caller must hold mu.
func (c *Controller) fault(kind ErrorKind, detail string, err error) *ControllerError {
	ce := &ControllerError{Kind: kind, Detail: detail, Err: err}
	c.emit(ErrorEvent{Err: ce})
	return ce
}

// zoneIDs returns registered zone ids in ascending order. Caller must hold mu.
func (c *Controller) zoneIDs() []int {
	ids := make([]int, 0, len(c.zones))
	for id := range c.zones {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// mainZone returns the zone flagged main, if any. Caller must hold mu.
func (c *Controller) mainZone() *Zone {
	for _, id := range c.zoneIDs() {
		if c.zones[id].Main {
			return c.zones[id]
		}
	}
	return nil
}

// resetSession forgets everything learned from the previous session.
// Caller must hold mu.
func (c *Controller) resetSession() {
	c.model = protocol.ModelUndefined
	c.serial = ""
	c.software = ""
	c.brightness = Observed[int]{}
	c.menuVisible = false
	c.configureSent = false
	c.inputs.reset()
	c.framer.Reset()
	c.batch.reset()
	for _, z := range c.zones {
		z.reset()
	}
}
