package relay

import (
	"encoding/json"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/protocol"
	"github.com/muurk/anthemctl/internal/version"
)

// Message types sent to clients.
const (
	TypeHello    = "hello"
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
	TypeResult   = "result"
)

// Envelope is one JSON text message sent to a client.
type Envelope struct {
	Type    string `json:"type"`
	Event   string `json:"event,omitempty"` // event name for TypeEvent
	ID      string `json:"id,omitempty"`    // request id for TypeResult
	OK      bool   `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Request is one JSON command sent by a client.
//
//	{"id":"7","op":"volume","zone":1,"value":40}
type Request struct {
	ID    string          `json:"id"`
	Op    string          `json:"op"`
	Zone  int             `json:"zone,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Hello is the first message on every connection.
type Hello struct {
	Server version.BuildInfo `json:"server"`
}

// Snapshot is the controller state at the time of the request.
type Snapshot struct {
	State           string            `json:"state"`
	Model           protocol.Model    `json:"model"`
	Dialect         string            `json:"dialect"`
	SerialNumber    string            `json:"serial_number,omitempty"`
	SoftwareVersion string            `json:"software_version,omitempty"`
	Zones           []controller.Zone `json:"zones"`
	Inputs          []string          `json:"inputs"`
	ALMNames        []string          `json:"alm_names,omitempty"`
	Brightness      *int              `json:"panel_brightness,omitempty"`
}

// EventEnvelope wraps an event for the wire.
func EventEnvelope(ev controller.Event) Envelope {
	return Envelope{Type: TypeEvent, Event: ev.Kind().String(), Payload: ev}
}

func resultEnvelope(id string, err error) Envelope {
	env := Envelope{Type: TypeResult, ID: id, OK: err == nil}
	if err != nil {
		env.Error = err.Error()
	}
	return env
}
