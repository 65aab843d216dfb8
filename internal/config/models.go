package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/muurk/anthemctl/internal/protocol"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only registry schema version understood.
const CurrentVersion = 1

// Registry represents the entire user configuration file.
// It stores receiver connection profiles and application preferences.
type Registry struct {
	Version     int                  `yaml:"version"`
	Receivers   map[string]*Receiver `yaml:"receivers,omitempty"` // Keyed by profile name
	Preferences *Preferences         `yaml:"preferences,omitempty"`
}

// Receiver is a named connection profile for one receiver.
type Receiver struct {
	Host           string    `yaml:"host"`
	Port           int       `yaml:"port,omitempty"`            // Defaults to 14999
	Zones          []Zone    `yaml:"zones,omitempty"`           // Defaults to the main zone only
	ReconnectDelay Duration  `yaml:"reconnect_delay,omitempty"` // Initial reconnect backoff
	Model          string    `yaml:"model,omitempty"`           // Last model seen, informational
	LastSeen       time.Time `yaml:"last_seen,omitempty"`
}

// Zone registers one receiver zone with the controller.
type Zone struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	Main bool   `yaml:"main,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultReceiver string   `yaml:"default_receiver,omitempty"`
	DiscoverTimeout Duration `yaml:"discover_timeout,omitempty"`
	LogLevel        string   `yaml:"log_level,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("5s").
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultZones is used for a profile that lists no zones.
func DefaultZones() []Zone {
	return []Zone{{ID: 1, Name: "Main", Main: true}}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DiscoverTimeout: Duration(5 * time.Second),
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Receivers:   make(map[string]*Receiver),
		Preferences: defaultPreferences(),
	}
}

// GetReceiver retrieves a profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetReceiver(name string) *Receiver {
	return r.Receivers[name]
}

// EnsureReceiver returns the named profile, creating an empty one if needed.
func (r *Registry) EnsureReceiver(name string) *Receiver {
	if r.Receivers == nil {
		r.Receivers = make(map[string]*Receiver)
	}
	if rcv, exists := r.Receivers[name]; exists {
		return rcv
	}
	rcv := &Receiver{}
	r.Receivers[name] = rcv
	return rcv
}

// SetReceiver stores a profile under name after validating it.
func (r *Registry) SetReceiver(name string, rcv *Receiver) error {
	if name == "" {
		return errors.New("profile name must not be empty")
	}
	if err := rcv.Validate(); err != nil {
		return fmt.Errorf("receiver %q: %w", name, err)
	}
	if r.Receivers == nil {
		r.Receivers = make(map[string]*Receiver)
	}
	r.Receivers[name] = rcv
	return nil
}

// RemoveReceiver deletes a profile and clears it as default if it was.
func (r *Registry) RemoveReceiver(name string) bool {
	if _, ok := r.Receivers[name]; !ok {
		return false
	}
	delete(r.Receivers, name)
	if r.Preferences != nil && r.Preferences.DefaultReceiver == name {
		r.Preferences.DefaultReceiver = ""
	}
	return true
}

// ReceiverNames returns the profile names in sorted order.
func (r *Registry) ReceiverNames() []string {
	names := make([]string, 0, len(r.Receivers))
	for name := range r.Receivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks a profile: the named one, else the default receiver, else
// the only profile when there is exactly one.
func (r *Registry) Resolve(name string) (string, *Receiver, error) {
	if name == "" && r.Preferences != nil {
		name = r.Preferences.DefaultReceiver
	}
	if name == "" {
		if len(r.Receivers) == 1 {
			for only, rcv := range r.Receivers {
				return only, rcv, nil
			}
		}
		return "", nil, errors.New("no receiver given and no default receiver configured")
	}
	rcv := r.Receivers[name]
	if rcv == nil {
		return "", nil, fmt.Errorf("unknown receiver profile %q", name)
	}
	return name, rcv, nil
}

// UpdateReceiverSeen records the model reported by a receiver.
func (r *Registry) UpdateReceiverSeen(name string, model protocol.Model) {
	rcv := r.EnsureReceiver(name)
	rcv.Model = model.String()
	rcv.LastSeen = time.Now()
}

// ControlPort returns the configured port or the protocol default.
func (rcv *Receiver) ControlPort() int {
	if rcv.Port == 0 {
		return protocol.DefaultPort
	}
	return rcv.Port
}

// ZoneList returns the configured zones or DefaultZones.
func (rcv *Receiver) ZoneList() []Zone {
	if len(rcv.Zones) == 0 {
		return DefaultZones()
	}
	out := make([]Zone, len(rcv.Zones))
	copy(out, rcv.Zones)
	return out
}

// Validate checks a receiver profile.
func (rcv *Receiver) Validate() error {
	if rcv.Host == "" {
		return errors.New("host is required")
	}
	if rcv.Port < 0 || rcv.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", rcv.Port)
	}
	if rcv.ReconnectDelay < 0 {
		return errors.New("reconnect_delay must not be negative")
	}

	seen := make(map[int]bool)
	mains := 0
	for _, z := range rcv.Zones {
		if z.ID != 1 && z.ID != 2 {
			return fmt.Errorf("zone id %d must be 1 or 2", z.ID)
		}
		if seen[z.ID] {
			return fmt.Errorf("zone id %d listed twice", z.ID)
		}
		seen[z.ID] = true
		if z.Main {
			mains++
		}
	}
	if mains > 1 {
		return errors.New("at most one zone may be main")
	}
	return nil
}

// Validate checks the whole registry.
func (r *Registry) Validate() error {
	if r.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", r.Version, CurrentVersion)
	}
	for _, name := range r.ReceiverNames() {
		if err := r.Receivers[name].Validate(); err != nil {
			return fmt.Errorf("receiver %q: %w", name, err)
		}
	}
	if r.Preferences != nil {
		if def := r.Preferences.DefaultReceiver; def != "" && r.Receivers[def] == nil {
			return fmt.Errorf("default receiver %q is not defined", def)
		}
		if r.Preferences.LogLevel != "" {
			switch r.Preferences.LogLevel {
			case "debug", "info", "warn", "error":
			default:
				return fmt.Errorf("unknown log level %q", r.Preferences.LogLevel)
			}
		}
	}
	return nil
}
