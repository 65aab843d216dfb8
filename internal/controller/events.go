package controller

import (
	"fmt"
	"sort"
	"sync"

	"github.com/muurk/anthemctl/internal/protocol"
)

// EventKind names an event on the controller's stream.
type EventKind int

const (
	EventControllerReady EventKind = iota
	EventPanelBrightnessChanged
	EventZonePowerChanged
	EventZoneMuteChanged
	EventZoneALMChanged
	EventZoneDolbyChanged
	EventZoneVolumeChanged
	EventZoneARCEnabledChanged
	EventZoneInputChanged
	EventInputListChanged
	EventControllerError
	EventDebugLine
)

var eventKindNames = map[EventKind]string{
	EventControllerReady:        "ControllerReadyForOperation",
	EventPanelBrightnessChanged: "PanelBrightnessChange",
	EventZonePowerChanged:       "ZonePowerChange",
	EventZoneMuteChanged:        "ZoneMutedChange",
	EventZoneALMChanged:         "ZoneALMChange",
	EventZoneDolbyChanged:       "ZoneDolbyPostProcessingChange",
	EventZoneVolumeChanged:      "ZoneVolumePercentageChange",
	EventZoneARCEnabledChanged:  "ZoneARCEnabledChange",
	EventZoneInputChanged:       "ZoneInputChange",
	EventInputListChanged:       "InputChange",
	EventControllerError:        "ControllerError",
	EventDebugLine:              "ShowDebugInfo",
}

// String returns the event name used on the relay wire.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a change notification. The concrete type fixes the payload.
type Event interface {
	Kind() EventKind
}

// ControllerReady fires once per connection, when the receiver has reported
// enough state to be controlled.
type ControllerReady struct {
	Model           protocol.Model `json:"model"`
	SerialNumber    string         `json:"serial_number"`
	SoftwareVersion string         `json:"software_version"`
}

// PanelBrightnessChanged reports the front panel brightness.
type PanelBrightnessChanged struct {
	Level int `json:"level"`
}

// ZonePowerChanged reports a zone's power state.
type ZonePowerChanged struct {
	Zone int  `json:"zone"`
	On   bool `json:"on"`
}

// ZoneMuteChanged reports a zone's mute state.
type ZoneMuteChanged struct {
	Zone  int  `json:"zone"`
	Muted bool `json:"muted"`
}

// ZoneALMChanged reports a zone's audio listening mode code.
type ZoneALMChanged struct {
	Zone int `json:"zone"`
	Mode int `json:"mode"`
}

// ZoneDolbyChanged reports the Dolby post-processing mode of a zone's
// active input.
type ZoneDolbyChanged struct {
	Zone int                `json:"zone"`
	Mode protocol.DolbyMode `json:"mode"`
}

// ZoneVolumeChanged reports a zone's volume as a percentage.
type ZoneVolumeChanged struct {
	Zone    int `json:"zone"`
	Percent int `json:"percent"`
}

// ZoneARCEnabledChanged reports whether ARC is enabled for a zone.
type ZoneARCEnabledChanged struct {
	Zone    int  `json:"zone"`
	Enabled bool `json:"enabled"`
}

// ZoneInputChanged reports a zone's active input (1-based).
type ZoneInputChanged struct {
	Zone  int `json:"zone"`
	Input int `json:"input"`
}

// InputListChanged carries the refreshed input names. Inputs[0] is input 1.
type InputListChanged struct {
	Inputs []string `json:"inputs"`
}

// ErrorEvent carries a ControllerError.
type ErrorEvent struct {
	Err *ControllerError `json:"error"`
}

// DebugLine carries raw wire traffic: "Sending: ..." for flushed batches and
// `Reading: "..."` for received tokens.
type DebugLine struct {
	Text string `json:"text"`
}

func (ControllerReady) Kind() EventKind        { return EventControllerReady }
func (PanelBrightnessChanged) Kind() EventKind { return EventPanelBrightnessChanged }
func (ZonePowerChanged) Kind() EventKind       { return EventZonePowerChanged }
func (ZoneMuteChanged) Kind() EventKind        { return EventZoneMuteChanged }
func (ZoneALMChanged) Kind() EventKind         { return EventZoneALMChanged }
func (ZoneDolbyChanged) Kind() EventKind       { return EventZoneDolbyChanged }
func (ZoneVolumeChanged) Kind() EventKind      { return EventZoneVolumeChanged }
func (ZoneARCEnabledChanged) Kind() EventKind  { return EventZoneARCEnabledChanged }
func (ZoneInputChanged) Kind() EventKind       { return EventZoneInputChanged }
func (InputListChanged) Kind() EventKind       { return EventInputListChanged }
func (ErrorEvent) Kind() EventKind             { return EventControllerError }
func (DebugLine) Kind() EventKind              { return EventDebugLine }

// bus fans events out to subscribers. Delivery is synchronous on the
// goroutine that produced the events, in subscription order.
type bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

func (b *bus) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]func(Event))
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *bus) publish(events []Event) {
	if len(events) == 0 {
		return
	}

	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), len(ids))
	for i, id := range ids {
		fns[i] = b.subs[id]
	}
	b.mu.RUnlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
