package controller

import (
	"errors"
	"fmt"

	"github.com/muurk/anthemctl/internal/protocol"
)

// Commands are fire-and-forget: a nil error means the token was written,
// not that the receiver accepted it. The outcome arrives on the event
// stream.

// builder returns the token for a command. z is nil for receiver-wide
// commands.
type builder func(z *Zone, d protocol.Dialect) (string, error)

// exec builds one token, queues it and flushes it as its own write.
//
// Errors: a ControllerError (published) for a missing session, a dialect
// mismatch or a refused command; ErrUnknownZone or ErrInvalidArgument
// (not published) for caller mistakes.
func (c *Controller) exec(op string, zoneID int, build builder) error {
	var err error
	c.do(func() {
		if c.w == nil {
			err = c.fault(ErrKindReceiverNotReady, op, ErrNotConnected)
			return
		}

		var z *Zone
		if zoneID != 0 {
			if z = c.zones[zoneID]; z == nil {
				err = fmt.Errorf("%s: zone %d: %w", op, zoneID, ErrUnknownZone)
				return
			}
		}

		token, berr := build(z, c.model.Dialect())
		if berr != nil {
			var ce *ControllerError
			switch {
			case errors.As(berr, &ce):
				err = ce
			case errors.Is(berr, protocol.ErrUnsupported):
				err = c.fault(ErrKindCommandNotSupported, op, berr)
			default:
				err = fmt.Errorf("%s: %w: %v", op, ErrInvalidArgument, berr)
			}
			return
		}

		c.batch.queue(token)
		err = c.flush()
	})
	return err
}

// SetPower turns a zone on or off.
func (c *Controller) SetPower(zone int, on bool) error {
	return c.exec("SetPower", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		return protocol.BuildZonePower(z.ID, on), nil
	})
}

// SetMute mutes or unmutes a zone.
func (c *Controller) SetMute(zone int, muted bool) error {
	return c.exec("SetMute", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		return protocol.BuildZoneMute(z.ID, muted), nil
	})
}

// ToggleMute flips a zone's mute state on the receiver.
func (c *Controller) ToggleMute(zone int) error {
	return c.exec("ToggleMute", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		return protocol.BuildZoneMuteToggle(z.ID), nil
	})
}

// SetVolumePercentage sets a zone's volume, 0-100.
func (c *Controller) SetVolumePercentage(zone, percent int) error {
	return c.exec("SetVolumePercentage", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		return protocol.BuildZoneVolumePercent(z.ID, percent)
	})
}

// VolumeUp raises a zone's volume one step.
func (c *Controller) VolumeUp(zone int) error {
	return c.exec("VolumeUp", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		return protocol.BuildVolumeUp(d, z.ID)
	})
}

// VolumeDown lowers a zone's volume one step.
func (c *Controller) VolumeDown(zone int) error {
	return c.exec("VolumeDown", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		return protocol.BuildVolumeDown(d, z.ID)
	})
}

// SetInput selects a zone's active input (1-based). Once the receiver has
// reported its input count, inputs beyond it are refused.
func (c *Controller) SetInput(zone, input int) error {
	return c.exec("SetInput", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		if input < 1 || (len(c.inputs.names) > 0 && input > len(c.inputs.names)) {
			return "", fmt.Errorf("input %d out of range 1-%d", input, len(c.inputs.names))
		}
		return protocol.BuildZoneInput(z.ID, input), nil
	})
}

// NextInput selects the input after the zone's active one, wrapping to 1.
func (c *Controller) NextInput(zone int) error {
	return c.exec("NextInput", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		n := len(c.inputs.names)
		if n == 0 {
			return "", errors.New("input count not known yet")
		}
		next := z.Input.Value() + 1
		if next > n {
			next = 1
		}
		return protocol.BuildZoneInput(z.ID, next), nil
	})
}

// SetAudioListeningMode selects a listening mode by code. Only the main
// zone of a current-dialect receiver accepts this.
func (c *Controller) SetAudioListeningMode(zone, mode int) error {
	return c.exec("SetAudioListeningMode", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		if !z.Main {
			return "", c.fault(ErrKindMainZoneOnly, "SetAudioListeningMode", nil)
		}
		return protocol.BuildALM(d, z.ID, mode)
	})
}

// StepAudioListeningMode cycles the listening mode up or down. Main zone
// only.
func (c *Controller) StepAudioListeningMode(zone int, up bool) error {
	return c.exec("StepAudioListeningMode", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		if !z.Main {
			return "", c.fault(ErrKindMainZoneOnly, "StepAudioListeningMode", nil)
		}
		return protocol.BuildALMStep(d, z.ID, up)
	})
}

// QueryAudioListeningMode asks for the main zone's listening mode.
func (c *Controller) QueryAudioListeningMode(zone int) error {
	return c.exec("QueryAudioListeningMode", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		if !z.Main {
			return "", c.fault(ErrKindMainZoneOnly, "QueryAudioListeningMode", nil)
		}
		return protocol.BuildALMQuery(z.ID), nil
	})
}

// SetARCEnabled enables or disables audio return channel. Only the main
// zone accepts this, and current-dialect receivers must have ARC
// configured on the main zone.
func (c *Controller) SetARCEnabled(zone int, enabled bool) error {
	return c.exec("SetARCEnabled", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		if !z.Main {
			return "", c.fault(ErrKindInvalidCommand, "ARC command only available on main zone", nil)
		}
		if d == protocol.DialectCurrent && !z.ARCConfigured.Value() {
			return "", c.fault(ErrKindInvalidCommand, "ARC is not configured on main zone", nil)
		}
		input, err := arcInput(z, d)
		if err != nil {
			return "", err
		}
		return protocol.BuildARC(d, z.ID, input, enabled)
	})
}

// QueryARC asks for the main zone's ARC state.
func (c *Controller) QueryARC(zone int) error {
	return c.exec("QueryARC", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		if !z.Main {
			return "", c.fault(ErrKindInvalidCommand, "ARC command only available on main zone", nil)
		}
		input, err := arcInput(z, d)
		if err != nil {
			return "", err
		}
		return protocol.BuildARCQuery(d, z.ID, input)
	})
}

// arcInput returns the input an ARC command addresses. Current-dialect ARC
// is per input, so the zone's active input must have been observed.
func arcInput(z *Zone, d protocol.Dialect) (int, error) {
	if d != protocol.DialectCurrent {
		return z.Input.Value(), nil
	}
	input, ok := z.Input.Get()
	if !ok {
		return 0, fmt.Errorf("zone %d has no active input", z.ID)
	}
	return input, nil
}

// SetDolbyPostProcessing sets the Dolby mode of the zone's active input
// (current dialect).
func (c *Controller) SetDolbyPostProcessing(zone int, mode protocol.DolbyMode) error {
	return c.exec("SetDolbyPostProcessing", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		input, ok := z.Input.Get()
		if !ok {
			return "", fmt.Errorf("zone %d has no active input", z.ID)
		}
		return protocol.BuildDolby(d, input, mode)
	})
}

// QueryDolbyPostProcessing asks for the Dolby mode of the zone's active
// input (current dialect).
func (c *Controller) QueryDolbyPostProcessing(zone int) error {
	return c.exec("QueryDolbyPostProcessing", zone, func(z *Zone, d protocol.Dialect) (string, error) {
		input, ok := z.Input.Get()
		if !ok {
			return "", fmt.Errorf("zone %d has no active input", z.ID)
		}
		return protocol.BuildDolbyQuery(d, input)
	})
}

// SetPanelBrightness sets the front panel brightness (current dialect).
func (c *Controller) SetPanelBrightness(level int) error {
	return c.exec("SetPanelBrightness", 0, func(_ *Zone, d protocol.Dialect) (string, error) {
		return protocol.BuildPanelBrightness(d, level)
	})
}

// SendKey simulates a remote-control key press on a zone.
func (c *Controller) SendKey(zone int, key protocol.KeyCode) error {
	return c.exec("SendKey", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		return protocol.BuildKey(z.ID, key), nil
	})
}

// ToggleMenu shows or hides the on-screen setup menu.
func (c *Controller) ToggleMenu() error {
	return c.exec("ToggleMenu", 0, func(_ *Zone, _ protocol.Dialect) (string, error) {
		return protocol.ToggleMenu, nil
	})
}

// Refresh re-queries a zone's power state.
func (c *Controller) Refresh(zone int) error {
	return c.exec("Refresh", zone, func(z *Zone, _ protocol.Dialect) (string, error) {
		return protocol.BuildZonePowerQuery(z.ID), nil
	})
}
