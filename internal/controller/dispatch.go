package controller

import (
	"github.com/muurk/anthemctl/internal/logging"
	"github.com/muurk/anthemctl/internal/protocol"
	"go.uber.org/zap"
)

// handleToken applies one received token: every matching response is
// applied in pattern order, then readiness is re-evaluated.
// Caller must hold mu.
func (c *Controller) handleToken(token string) {
	c.emit(DebugLine{Text: `Reading: "` + token + `"`})
	logging.LogWire(c.remote, "rx", token)

	responses := protocol.ParseResponse(token)
	if len(responses) == 0 {
		logging.LogRawBytes("Unrecognised token from "+c.remote, []byte(token))
	}

	for _, resp := range responses {
		c.apply(resp)
		if c.state == StateIdle {
			return
		}
	}

	if c.state == StateConfiguring && c.ready() {
		c.state = StateOperational
		logging.Info("Receiver ready",
			zap.String("remote_addr", c.remote),
			zap.String("model", c.model.String()),
			zap.String("serial", c.serial),
			zap.String("software", c.software),
		)
		c.emit(ControllerReady{
			Model:           c.model,
			SerialNumber:    c.serial,
			SoftwareVersion: c.software,
		})
		c.armKeepAlive()
	}
}

// apply routes one decoded response to its state mutation.
// Caller must hold mu.
func (c *Controller) apply(resp protocol.Response) {
	switch r := resp.(type) {
	case protocol.ModelReport:
		c.applyModel(r)
	case protocol.SerialNumber:
		c.serial = r.Value
	case protocol.MACAddress:
		c.serial = r.Value
	case protocol.SoftwareVersion:
		c.software = r.Value
	case protocol.PanelBrightness:
		c.brightness = Observe(r.Level)
		if c.operational() {
			c.emit(PanelBrightnessChanged{Level: r.Level})
		}
	case protocol.InputDolby:
		c.applyDolby(r)
	case protocol.InputCount:
		c.applyInputCount(r)
	case protocol.ZonePower:
		c.applyPower(r)
	case protocol.ZoneALM:
		if z := c.zones[r.Zone]; z != nil {
			z.ALM = Observe(r.Mode)
			if c.operational() {
				c.emit(ZoneALMChanged{Zone: z.ID, Mode: r.Mode})
			}
		}
	case protocol.ZoneMute:
		if z := c.zones[r.Zone]; z != nil {
			z.Muted = Observe(r.Muted)
			if c.operational() {
				c.emit(ZoneMuteChanged{Zone: z.ID, Muted: r.Muted})
			}
		}
	case protocol.ZoneVolumePercent:
		if z := c.zones[r.Zone]; z != nil {
			z.VolumePercent = Observe(r.Percent)
			if c.operational() {
				c.emit(ZoneVolumeChanged{Zone: z.ID, Percent: r.Percent})
			}
		}
	case protocol.ZoneVolume:
		if z := c.zones[r.Zone]; z != nil {
			z.Volume = Observe(r.Volume)
		}
	case protocol.InputName:
		c.applyInputName(r)
	case protocol.ZoneInput:
		c.applyInput(r)
	case protocol.MenuVisible:
		c.menuVisible = r.Visible
	case protocol.ARCConfigured:
		if z := c.mainZone(); z != nil {
			z.ARCConfigured = Observe(r.Configured)
		}
	case protocol.InputARC:
		c.applyInputARC(r)
	case protocol.ZoneARC:
		if z := c.zones[r.Zone]; z != nil {
			z.ARCEnabled = Observe(r.Enabled)
			c.emit(ZoneARCEnabledChanged{Zone: z.ID, Enabled: r.Enabled})
		}
	case protocol.ReceiverError:
		c.applyReceiverError(r)
	default:
		logging.Debug("Unhandled response",
			zap.String("remote_addr", c.remote),
			zap.String("response", resp.String()),
		)
	}
}

func (c *Controller) operational() bool {
	return c.state == StateOperational
}

// ready is the readiness predicate: identity complete, every zone's power
// observed and, on current-dialect receivers, a complete input table.
func (c *Controller) ready() bool {
	if c.model == protocol.ModelUndefined || c.software == "" || c.serial == "" {
		return false
	}
	for _, z := range c.zones {
		if !z.Configured() {
			return false
		}
	}
	if c.model.IsCurrentDialect() && !c.inputs.complete() {
		return false
	}
	return true
}

// applyModel fixes the model for the session. The first report starts the
// configure burst; reports while Operational answer the keep-alive.
func (c *Controller) applyModel(r protocol.ModelReport) {
	if c.model == protocol.ModelUndefined {
		model := r.Model
		if !r.Known {
			logging.Warn("Unknown receiver model, assuming fallback",
				zap.String("reported", r.Raw),
				zap.String("fallback", protocol.FallbackModel.String()),
			)
			c.fault(ErrKindInvalidModelString, r.Raw, nil)
			model = protocol.FallbackModel
		}
		c.model = model
	}

	switch c.state {
	case StateConfiguring:
		if !c.configureSent {
			c.configureSent = true
			c.configure()
		}
	case StateOperational:
		c.armKeepAlive()
	}
}

// configure sends the identity, input and zone power queries as one write.
func (c *Controller) configure() {
	d := c.model.Dialect()

	c.batch.queue(protocol.QuerySoftwareVersion)
	if q, err := protocol.BuildIdentityQuery(d); err == nil {
		c.batch.queue(q)
	}
	// Current-dialect receivers report inputs even with every zone off.
	c.batch.queue(protocol.QueryInputCount)
	if d == protocol.DialectCurrent {
		c.batch.queue(protocol.QueryARCConfigured)
	}
	for _, id := range c.zoneIDs() {
		c.batch.queue(protocol.BuildZonePowerQuery(id))
	}
	_ = c.flush()
}

// applyPower records a zone's power state. A zone that comes on gets its
// state refreshed.
func (c *Controller) applyPower(r protocol.ZonePower) {
	z := c.zones[r.Zone]
	if z == nil {
		return
	}
	wasOn := z.Power.Value()
	z.Power = Observe(r.On)

	if r.On && !wasOn {
		c.refreshZone(z)
		if c.state == StateIdle {
			return
		}
	}
	if c.operational() {
		c.emit(ZonePowerChanged{Zone: z.ID, On: r.On})
	}
}

// refreshZone queries everything that is only reported for a powered zone.
func (c *Controller) refreshZone(z *Zone) {
	d := c.model.Dialect()

	c.batch.queue(protocol.BuildZoneInputQuery(z.ID))
	c.batch.queue(protocol.BuildZoneMuteQuery(z.ID))
	c.batch.queue(protocol.BuildZoneVolumeQuery(z.ID))
	if q, err := protocol.BuildZoneVolumePercentQuery(d, z.ID); err == nil {
		c.batch.queue(q)
	}
	c.batch.queue(protocol.QueryMenuVisible)
	c.batch.queue(protocol.QueryInputCount)
	if q, err := protocol.BuildPanelBrightnessQuery(d); err == nil {
		c.batch.queue(q)
	}
	if m := c.mainZone(); m != nil {
		c.batch.queue(protocol.BuildALMQuery(m.ID))
	}
	_ = c.flush()
}

// applyInput records a zone's active input and queries the per-input
// settings that depend on it.
func (c *Controller) applyInput(r protocol.ZoneInput) {
	z := c.zones[r.Zone]
	if z == nil {
		return
	}
	z.Input = Observe(r.Input)

	d := c.model.Dialect()
	if q, err := protocol.BuildDolbyQuery(d, r.Input); err == nil {
		c.batch.queue(q)
	}
	if z.Main {
		if q, err := protocol.BuildARCQuery(d, z.ID, r.Input); err == nil {
			c.batch.queue(q)
		}
	}
	_ = c.flush()
	if c.state == StateIdle {
		return
	}

	if c.operational() {
		c.emit(ZoneInputChanged{Zone: z.ID, Input: r.Input})
	}
}

// maxInputs bounds the input table. Legacy name queries carry a two-digit
// index, so no receiver reports more.
const maxInputs = 99

// applyInputCount reallocates the input table and asks for every name in a
// single write. A count outside 1..maxInputs is ignored and the current
// table is kept.
func (c *Controller) applyInputCount(r protocol.InputCount) {
	if r.Count < 1 || r.Count > maxInputs {
		logging.Warn("Ignoring implausible input count",
			zap.String("remote", c.remote),
			zap.Int("count", r.Count),
			zap.Int("max", maxInputs),
		)
		return
	}
	c.inputs.resize(r.Count)

	d := c.model.Dialect()
	for i := 1; i <= r.Count; i++ {
		q, err := protocol.BuildInputNameQuery(d, i)
		if err != nil {
			break
		}
		c.batch.queue(q)
	}
	_ = c.flush()
}

// applyInputName stores one name. When the table becomes complete it is
// compared with the previous complete table; InputListChanged fires only
// for a real difference and only while Operational.
func (c *Controller) applyInputName(r protocol.InputName) {
	if !c.inputs.assign(r.Index, r.Name) {
		logging.Debug("Input name outside input table",
			zap.Int("index", r.Index),
			zap.Int("inputs", len(c.inputs.names)),
		)
		return
	}
	if !c.inputs.complete() {
		return
	}

	if c.operational() && c.inputs.changed() {
		c.emit(InputListChanged{Inputs: c.inputs.list()})
	}
	c.inputs.commit()
}

// applyDolby updates every zone whose active input is the reported input.
func (c *Controller) applyDolby(r protocol.InputDolby) {
	for _, id := range c.zoneIDs() {
		z := c.zones[id]
		if input, ok := z.Input.Get(); ok && input == r.Input {
			z.Dolby = Observe(r.Mode)
			c.emit(ZoneDolbyChanged{Zone: z.ID, Mode: r.Mode})
		}
	}
}

// applyInputARC handles the current dialect's per-input ARC report, which
// belongs to the main zone when that zone is on the reported input.
func (c *Controller) applyInputARC(r protocol.InputARC) {
	if !c.model.IsCurrentDialect() {
		return
	}
	for _, id := range c.zoneIDs() {
		z := c.zones[id]
		if !z.Main {
			continue
		}
		if input, ok := z.Input.Get(); ok && input == r.Input {
			z.ARCEnabled = Observe(r.Enabled)
			c.emit(ZoneARCEnabledChanged{Zone: z.ID, Enabled: r.Enabled})
		}
	}
}

func (c *Controller) applyReceiverError(r protocol.ReceiverError) {
	kind, ok := receiverErrorKinds[byte(r.Code)]
	if !ok {
		return
	}
	logging.Warn("Receiver rejected command",
		zap.String("remote_addr", c.remote),
		zap.String("kind", kind.String()),
		zap.String("detail", r.Detail),
	)
	c.fault(kind, r.Detail, nil)
}
