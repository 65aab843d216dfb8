package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/protocol"
)

// Controller is the part of *controller.Controller the relay uses.
type Controller interface {
	Subscribe(fn func(controller.Event)) (unsubscribe func())

	State() controller.State
	Model() protocol.Model
	Dialect() protocol.Dialect
	SerialNumber() string
	SoftwareVersion() string
	Zones() []controller.Zone
	Inputs() []string
	ALMNames() []string
	PanelBrightness() (int, bool)

	SetPower(zone int, on bool) error
	SetMute(zone int, muted bool) error
	ToggleMute(zone int) error
	SetVolumePercentage(zone, percent int) error
	VolumeUp(zone int) error
	VolumeDown(zone int) error
	SetInput(zone, input int) error
	NextInput(zone int) error
	SetAudioListeningMode(zone, mode int) error
	StepAudioListeningMode(zone int, up bool) error
	SetARCEnabled(zone int, enabled bool) error
	SetDolbyPostProcessing(zone int, mode protocol.DolbyMode) error
	SetPanelBrightness(level int) error
	SendKey(zone int, key protocol.KeyCode) error
	ToggleMenu() error
	Refresh(zone int) error
}

var _ Controller = (*controller.Controller)(nil)

// ErrUnknownOp is returned for a request whose op is not recognised.
var ErrUnknownOp = errors.New("unknown op")

// SnapshotOf reads the controller state sent to clients.
func SnapshotOf(c Controller) Snapshot {
	s := Snapshot{
		State:           c.State().String(),
		Model:           c.Model(),
		Dialect:         c.Dialect().String(),
		SerialNumber:    c.SerialNumber(),
		SoftwareVersion: c.SoftwareVersion(),
		Zones:           c.Zones(),
		Inputs:          c.Inputs(),
		ALMNames:        c.ALMNames(),
	}
	if level, ok := c.PanelBrightness(); ok {
		s.Brightness = &level
	}
	return s
}

// dispatch runs one request against the controller.
func dispatch(c Controller, req Request) error {
	zone := req.Zone
	if zone == 0 {
		zone = 1
	}

	switch req.Op {
	case "power":
		var on bool
		if err := decodeValue(req, &on); err != nil {
			return err
		}
		return c.SetPower(zone, on)
	case "mute":
		var muted bool
		if err := decodeValue(req, &muted); err != nil {
			return err
		}
		return c.SetMute(zone, muted)
	case "mute_toggle":
		return c.ToggleMute(zone)
	case "volume":
		var percent int
		if err := decodeValue(req, &percent); err != nil {
			return err
		}
		return c.SetVolumePercentage(zone, percent)
	case "volume_up":
		return c.VolumeUp(zone)
	case "volume_down":
		return c.VolumeDown(zone)
	case "input":
		var input int
		if err := decodeValue(req, &input); err != nil {
			return err
		}
		return c.SetInput(zone, input)
	case "next_input":
		return c.NextInput(zone)
	case "mode":
		var mode int
		if err := decodeValue(req, &mode); err != nil {
			return err
		}
		return c.SetAudioListeningMode(zone, mode)
	case "mode_up":
		return c.StepAudioListeningMode(zone, true)
	case "mode_down":
		return c.StepAudioListeningMode(zone, false)
	case "arc":
		var enabled bool
		if err := decodeValue(req, &enabled); err != nil {
			return err
		}
		return c.SetARCEnabled(zone, enabled)
	case "dolby":
		var mode int
		if err := decodeValue(req, &mode); err != nil {
			return err
		}
		return c.SetDolbyPostProcessing(zone, protocol.DolbyMode(mode))
	case "brightness":
		var level int
		if err := decodeValue(req, &level); err != nil {
			return err
		}
		return c.SetPanelBrightness(level)
	case "key":
		var name string
		if err := decodeValue(req, &name); err != nil {
			return err
		}
		key, err := protocol.ParseKeyCode(name)
		if err != nil {
			return err
		}
		return c.SendKey(zone, key)
	case "menu":
		return c.ToggleMenu()
	case "refresh":
		return c.Refresh(zone)
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, req.Op)
	}
}

func decodeValue(req Request, v any) error {
	if len(req.Value) == 0 {
		return fmt.Errorf("op %q needs a value", req.Op)
	}
	if err := json.Unmarshal(req.Value, v); err != nil {
		return fmt.Errorf("op %q: bad value: %w", req.Op, err)
	}
	return nil
}
