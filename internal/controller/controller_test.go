package controller

import (
	"errors"
	"testing"

	"github.com/muurk/anthemctl/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddZone(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.AddZone(1, "Living Room", true))
	require.NoError(t, c.AddZone(2, "Patio", false))

	tests := []struct {
		name    string
		id      int
		wantErr error
	}{
		{"duplicate", 1, ErrDuplicateZone},
		{"third zone", 3, ErrInvalidZone},
		{"zero", 0, ErrInvalidZone},
		{"negative", -1, ErrInvalidZone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.AddZone(tt.id, "Extra", false)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, c.Zones(), 2)
		})
	}

	z, ok := c.Zone(1)
	require.True(t, ok)
	assert.Equal(t, "Living Room", z.Name)
	assert.True(t, z.Main)
	assert.False(t, z.Configured())
}

func TestAddZoneRequiresIdle(t *testing.T) {
	c, _, _ := newAttached(t, protocol.ModelMRX740, StateOperational)
	c.mu.Lock()
	delete(c.zones, 2)
	c.mu.Unlock()

	assert.ErrorIs(t, c.AddZone(2, "Patio", false), ErrNotIdle)
	_, ok := c.Zone(2)
	assert.False(t, ok)
}

func TestDispatchPowerThenInput(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelMRX740, StateOperational)

	feed(c, "Z1POW1;Z1INP3;")

	z, _ := c.Zone(1)
	assert.True(t, z.Power.Value())
	assert.Equal(t, 3, z.Input.Value())

	assert.Equal(t, []Event{
		ZonePowerChanged{Zone: 1, On: true},
		ZoneInputChanged{Zone: 1, Input: 3},
	}, rec.state())

	// Power-on refresh first, then the per-input queries for input 3.
	assert.Equal(t,
		"Z1INP?;Z1MUT?;Z1VOL?;Z1PVOL?;Z1SMD?;ICN?;GCFPB?;Z1ALM?;"+
			"IS3DV?;IS3ARC?;",
		wire.take())
}

func TestDispatchPowerRefreshLegacy(t *testing.T) {
	c, wire, _ := newAttached(t, protocol.ModelMRX720, StateOperational)

	feed(c, "Z2POW1;")
	assert.Equal(t, "Z2INP?;Z2MUT?;Z2VOL?;Z1SMD?;ICN?;Z1ALM?;", wire.take())

	// Already on: no second refresh.
	feed(c, "Z2POW1;")
	assert.Empty(t, wire.take())

	// Secondary zone input change does not query ARC.
	feed(c, "Z2INP4;")
	assert.Empty(t, wire.take())

	feed(c, "Z1INP4;")
	assert.Equal(t, "Z1ARC?;", wire.take())
}

func TestDispatchIgnoresUnregisteredZone(t *testing.T) {
	c := New(Options{KeepAliveInterval: -1})
	require.NoError(t, c.AddZone(1, "Main", true))
	wire := &wireBuffer{}
	c.w = wire
	c.state = StateOperational
	c.model = protocol.ModelMRX740
	rec := newRecorder()
	c.Subscribe(rec.record)

	feed(c, "Z2POW1;Z2MUT1;Z2INP1;")
	assert.Empty(t, rec.state())
	assert.Empty(t, wire.take())
}

func TestInputListChangedOnce(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelMRX740, StateOperational)

	feed(c, "ICN4;")
	assert.Equal(t, "IS1IN?;IS2IN?;IS3IN?;IS4IN?;", wire.take())

	feed(c, "IS1INCable;IS2INBlu-ray;IS3INGame;")
	assert.Empty(t, rec.of(EventInputListChanged))

	feed(c, "IS4INTV;")
	require.Len(t, rec.of(EventInputListChanged), 1)
	assert.Equal(t,
		InputListChanged{Inputs: []string{"Cable", "Blu-ray", "Game", "TV"}},
		rec.of(EventInputListChanged)[0])

	// Identical refresh.
	rec.reset()
	feed(c, "ICN4;IS1INCable;IS2INBlu-ray;IS3INGame;IS4INTV;")
	assert.Empty(t, rec.of(EventInputListChanged))

	// One name differs.
	feed(c, "ICN4;IS1INCable;IS2INBlu-ray;IS3INConsole;IS4INTV;")
	require.Len(t, rec.of(EventInputListChanged), 1)

	assert.Equal(t, 4, c.InputCount())
	name, ok := c.InputName(3)
	assert.True(t, ok)
	assert.Equal(t, "Console", name)
}

func TestInputCountOutOfRangeIgnored(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelMRX740, StateOperational)
	feed(c, "ICN2;IS1INTV;IS2INRadio;")
	wire.take()
	rec.reset()

	for _, token := range []string{"ICN999999999;", "ICN100;", "ICN0;"} {
		feed(c, token)
		assert.Empty(t, wire.take(), token)
		assert.Equal(t, 2, c.InputCount(), token)
	}
	assert.Equal(t, []string{"TV", "Radio"}, c.Inputs())
	assert.Empty(t, rec.of(EventInputListChanged))

	feed(c, "ICN99;")
	assert.Equal(t, 99, c.InputCount())
	assert.Contains(t, wire.take(), "IS99IN?;")
}

func TestInputListLegacyFormat(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelMRX520, StateOperational)

	feed(c, "ICN2;")
	assert.Equal(t, "ISN01?;ISN02?;", wire.take())

	feed(c, "ISN01Cable;ISN02HDMI 2;")
	require.Len(t, rec.of(EventInputListChanged), 1)
	assert.Equal(t, []string{"Cable", "HDMI 2"}, c.Inputs())
}

func TestInputListNotPublishedWhileConfiguring(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateConfiguring)

	feed(c, "ICN1;IS1INTV;")
	assert.Empty(t, rec.of(EventInputListChanged))
	assert.Equal(t, []string{"TV"}, c.Inputs())
}

func TestReadinessCurrentDialect(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelUndefined, StateConfiguring)

	feed(c, "IDMMRX 740 ;")
	assert.Equal(t, protocol.ModelMRX740, c.Model())
	assert.Equal(t, "IDS?;GSN?;ICN?;Z1ARCVAL?;Z1POW?;Z2POW?;", wire.take())

	feed(c, "IDS1.0.4;GSN5551234;Z1POW0;Z2POW0;")
	assert.Equal(t, StateConfiguring, c.State(), "input table still missing")

	feed(c, "ICN2;IS1INTV;")
	assert.Equal(t, StateConfiguring, c.State())

	feed(c, "IS2INRadio;")
	assert.Equal(t, StateOperational, c.State())
	assert.Equal(t, []Event{ControllerReady{
		Model:           protocol.ModelMRX740,
		SerialNumber:    "5551234",
		SoftwareVersion: "1.0.4",
	}}, rec.of(EventControllerReady))

	// Nothing that follows makes it fire again.
	feed(c, "Z1POW0;Z2POW0;IDMMRX 740;ICN2;IS1INTV;IS2INRadio;")
	assert.Len(t, rec.of(EventControllerReady), 1)
}

func TestReadinessLegacyDialect(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelUndefined, StateConfiguring)

	feed(c, "IDMMRX 720;")
	assert.Equal(t, "IDS?;IDN?;ICN?;Z1POW?;Z2POW?;", wire.take())

	feed(c, "IDS2.1;IDN00:1F:AA:BB:CC:DD;Z1POW0;")
	assert.Equal(t, StateConfiguring, c.State())

	feed(c, "Z2POW0;")
	assert.Equal(t, StateOperational, c.State())
	assert.Len(t, rec.of(EventControllerReady), 1)
	assert.Equal(t, "00:1F:AA:BB:CC:DD", c.SerialNumber())
	assert.Equal(t, protocol.DialectLegacy, c.Dialect())
}

func TestConfigureBurstSentOnce(t *testing.T) {
	c, wire, _ := newAttached(t, protocol.ModelUndefined, StateConfiguring)

	feed(c, "IDMAVM 60;")
	require.NotEmpty(t, wire.take())

	feed(c, "IDMAVM 60;")
	assert.Empty(t, wire.take())
}

func TestUnknownModelFallsBack(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelUndefined, StateConfiguring)

	feed(c, "IDMMRX 9000 ;")

	assert.Equal(t, protocol.FallbackModel, c.Model())
	errs := rec.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrKindInvalidModelString, errs[0].Kind)
	assert.Equal(t, "MRX 9000", errs[0].Detail)

	// The fallback model speaks the current dialect.
	assert.Equal(t, "IDS?;GSN?;ICN?;Z1ARCVAL?;Z1POW?;Z2POW?;", wire.take())
}

func TestEventsGatedUntilOperational(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateConfiguring)

	feed(c, "Z1MUT1;Z1PVOL30;Z1ALM2;GCFPB1;")
	assert.Empty(t, rec.state())

	z, _ := c.Zone(1)
	assert.True(t, z.Muted.Value())
	assert.Equal(t, 30, z.VolumePercent.Value())
	assert.Equal(t, 2, z.ALM.Value())
	level, ok := c.PanelBrightness()
	assert.True(t, ok)
	assert.Equal(t, 1, level)
}

func TestOperationalEvents(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateOperational)

	feed(c, "Z1MUT1;Z2PVOL30;Z1ALM2;GCFPB1;Z1VOL-30.5;Z1SMD1;")

	assert.Equal(t, []Event{
		ZoneMuteChanged{Zone: 1, Muted: true},
		ZoneVolumeChanged{Zone: 2, Percent: 30},
		ZoneALMChanged{Zone: 1, Mode: 2},
		PanelBrightnessChanged{Level: 1},
	}, rec.state())

	z, _ := c.Zone(1)
	assert.Equal(t, -30.5, z.Volume.Value())
	assert.True(t, c.MenuVisible())
}

func TestDolbyAppliedToZonesOnInput(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateConfiguring)
	feed(c, "Z1INP3;Z2INP3;")
	rec.reset()

	feed(c, "IS3DV2;IS5DV1;")

	assert.Equal(t, []Event{
		ZoneDolbyChanged{Zone: 1, Mode: protocol.DolbyMusic},
		ZoneDolbyChanged{Zone: 2, Mode: protocol.DolbyMusic},
	}, rec.state())
	z, _ := c.Zone(2)
	assert.Equal(t, protocol.DolbyMusic, z.Dolby.Value())
}

func TestARCReports(t *testing.T) {
	t.Run("current dialect follows main zone input", func(t *testing.T) {
		c, _, rec := newAttached(t, protocol.ModelMRX740, StateOperational)
		feed(c, "Z1INP4;Z2INP4;Z1ARCVAL1;")
		rec.reset()

		feed(c, "IS4ARC1;IS2ARC0;")
		assert.Equal(t, []Event{ZoneARCEnabledChanged{Zone: 1, Enabled: true}}, rec.state())

		z, _ := c.Zone(1)
		assert.True(t, z.ARCConfigured.Value())
		assert.True(t, z.ARCEnabled.Value())
	})

	t.Run("legacy dialect addresses zone", func(t *testing.T) {
		c, _, rec := newAttached(t, protocol.ModelMRX710, StateConfiguring)

		feed(c, "Z1ARC0;")
		assert.Equal(t, []Event{ZoneARCEnabledChanged{Zone: 1, Enabled: false}}, rec.state())
	})
}

func TestReceiverErrors(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateOperational)

	feed(c, "!EZ1POW1;!RZ1PVOL120;!IZ1FOO;!ZZ2INP1;")

	errs := rec.errors()
	require.Len(t, errs, 4)
	want := []struct {
		kind   ErrorKind
		detail string
	}{
		{ErrKindCannotExecute, "Z1POW1"},
		{ErrKindOutOfRange, "Z1PVOL120"},
		{ErrKindInvalidCommand, "Z1FOO"},
		{ErrKindZoneNotPowered, "Z2INP1"},
	}
	for i, w := range want {
		assert.Equal(t, w.kind, errs[i].Kind)
		assert.Equal(t, w.detail, errs[i].Detail)
		assert.True(t, IsReceiverRejection(errs[i]))
	}
	assert.Equal(t, StateOperational, c.State())
}

func TestDebugLines(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateOperational)

	feed(c, "Z1MUT0;")
	require.NoError(t, c.SetMute(1, true))

	var lines []string
	rec.mu.Lock()
	for _, ev := range rec.events {
		if d, ok := ev.(DebugLine); ok {
			lines = append(lines, d.Text)
		}
	}
	rec.mu.Unlock()
	assert.Equal(t, []string{`Reading: "Z1MUT0"`, "Sending: Z1MUT1;"}, lines)
}

func TestCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		model protocol.Model
		setup string
		run   func(c *Controller) error
		want  string
	}{
		{"power on", protocol.ModelMRX740, "", func(c *Controller) error { return c.SetPower(1, true) }, "Z1POW1;"},
		{"power off zone 2", protocol.ModelMRX720, "", func(c *Controller) error { return c.SetPower(2, false) }, "Z2POW0;"},
		{"mute", protocol.ModelMRX740, "", func(c *Controller) error { return c.SetMute(1, true) }, "Z1MUT1;"},
		{"toggle mute", protocol.ModelMRX740, "", func(c *Controller) error { return c.ToggleMute(2) }, "Z2MUTt;"},
		{"volume percent", protocol.ModelMRX740, "", func(c *Controller) error { return c.SetVolumePercentage(1, 45) }, "Z1PVOL45;"},
		{"volume up current", protocol.ModelMRX740, "", func(c *Controller) error { return c.VolumeUp(1) }, "Z1VUP;"},
		{"volume up legacy", protocol.ModelMRX720, "", func(c *Controller) error { return c.VolumeUp(1) }, "Z1VUP1;"},
		{"volume down current", protocol.ModelAVM90, "", func(c *Controller) error { return c.VolumeDown(2) }, "Z2VDN;"},
		{"volume down legacy", protocol.ModelAVM60, "", func(c *Controller) error { return c.VolumeDown(2) }, "Z2VDN1;"},
		{"input", protocol.ModelMRX740, "", func(c *Controller) error { return c.SetInput(1, 5) }, "Z1INP5;"},
		{"next input wraps", protocol.ModelMRX740, "ICN3;IS1INA;IS2INB;IS3INC;Z1INP3;", func(c *Controller) error { return c.NextInput(1) }, "Z1INP1;"},
		{"next input", protocol.ModelMRX740, "ICN3;IS1INA;IS2INB;IS3INC;Z1INP1;", func(c *Controller) error { return c.NextInput(1) }, "Z1INP2;"},
		{"alm", protocol.ModelMRX740, "", func(c *Controller) error { return c.SetAudioListeningMode(1, protocol.ALMMono) }, "Z1ALM7;"},
		{"alm step up current", protocol.ModelMRX740, "", func(c *Controller) error { return c.StepAudioListeningMode(1, true) }, "Z1AUP;"},
		{"alm step down legacy", protocol.ModelMRX720, "", func(c *Controller) error { return c.StepAudioListeningMode(1, false) }, "Z1ALMpa;"},
		{"alm query", protocol.ModelMRX720, "", func(c *Controller) error { return c.QueryAudioListeningMode(1) }, "Z1ALM?;"},
		{"arc current", protocol.ModelMRX740, "Z1ARCVAL1;Z1INP4;", func(c *Controller) error { return c.SetARCEnabled(1, true) }, "IS4ARC1;"},
		{"arc legacy", protocol.ModelMRX720, "", func(c *Controller) error { return c.SetARCEnabled(1, false) }, "Z1ARC0;"},
		{"arc query current", protocol.ModelMRX740, "Z1INP2;", func(c *Controller) error { return c.QueryARC(1) }, "IS2ARC?;"},
		{"dolby", protocol.ModelMRX740, "Z1INP2;", func(c *Controller) error { return c.SetDolbyPostProcessing(1, protocol.DolbyNight) }, "IS2DV3;"},
		{"dolby query", protocol.ModelMRX740, "Z2INP6;", func(c *Controller) error { return c.QueryDolbyPostProcessing(2) }, "IS6DV?;"},
		{"brightness", protocol.ModelMRX740, "", func(c *Controller) error { return c.SetPanelBrightness(3) }, "GCFPB3;"},
		{"key", protocol.ModelMRX740, "", func(c *Controller) error { return c.SendKey(1, protocol.KeyLeft) }, "Z1SIM0020;"},
		{"menu", protocol.ModelMRX720, "", func(c *Controller) error { return c.ToggleMenu() }, "Z1SMDt;"},
		{"refresh", protocol.ModelMRX740, "", func(c *Controller) error { return c.Refresh(2) }, "Z2POW?;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, wire, rec := newAttached(t, tt.model, StateOperational)
			if tt.setup != "" {
				feed(c, tt.setup)
			}
			wire.take()

			require.NoError(t, tt.run(c))
			assert.Equal(t, tt.want, wire.take())
			assert.Empty(t, rec.errors())
		})
	}
}

func TestCommandRefusals(t *testing.T) {
	tests := []struct {
		name     string
		model    protocol.Model
		setup    string
		run      func(c *Controller) error
		wantKind ErrorKind
	}{
		{"brightness legacy", protocol.ModelMRX720, "", func(c *Controller) error { return c.SetPanelBrightness(1) }, ErrKindCommandNotSupported},
		{"alm by code legacy", protocol.ModelMRX720, "", func(c *Controller) error { return c.SetAudioListeningMode(1, 1) }, ErrKindCommandNotSupported},
		{"dolby legacy", protocol.ModelMRX720, "Z1INP1;", func(c *Controller) error { return c.SetDolbyPostProcessing(1, protocol.DolbyOff) }, ErrKindCommandNotSupported},
		{"alm secondary zone", protocol.ModelMRX740, "", func(c *Controller) error { return c.SetAudioListeningMode(2, 1) }, ErrKindMainZoneOnly},
		{"alm step secondary zone", protocol.ModelMRX740, "", func(c *Controller) error { return c.StepAudioListeningMode(2, true) }, ErrKindMainZoneOnly},
		{"arc secondary zone", protocol.ModelMRX720, "", func(c *Controller) error { return c.SetARCEnabled(2, true) }, ErrKindInvalidCommand},
		{"arc not configured", protocol.ModelMRX740, "Z1ARCVAL0;Z1INP1;", func(c *Controller) error { return c.SetARCEnabled(1, true) }, ErrKindInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, wire, rec := newAttached(t, tt.model, StateOperational)
			if tt.setup != "" {
				feed(c, tt.setup)
			}
			wire.take()
			rec.reset()

			err := tt.run(c)
			var ce *ControllerError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantKind, ce.Kind)
			assert.Empty(t, wire.take(), "nothing may reach the wire")

			// Returned and published.
			errs := rec.errors()
			require.Len(t, errs, 1)
			assert.Same(t, ce, errs[0])
		})
	}
}

func TestARCNeedsActiveInputOnCurrentDialect(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelMRX740, StateOperational)
	feed(c, "Z1ARCVAL1;")
	wire.take()
	rec.reset()

	assert.ErrorIs(t, c.SetARCEnabled(1, true), ErrInvalidArgument)
	assert.ErrorIs(t, c.QueryARC(1), ErrInvalidArgument)
	assert.Empty(t, wire.take())
	assert.Empty(t, rec.errors())

	feed(c, "Z1INP3;")
	wire.take()
	require.NoError(t, c.QueryARC(1))
	assert.Equal(t, "IS3ARC?;", wire.take())
}

func TestCallerMistakes(t *testing.T) {
	c, wire, rec := newAttached(t, protocol.ModelMRX740, StateOperational)
	feed(c, "ICN2;IS1INA;IS2INB;")
	wire.take()
	rec.reset()

	assert.ErrorIs(t, c.SetPower(3, true), ErrUnknownZone)
	assert.ErrorIs(t, c.SetVolumePercentage(1, 101), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetInput(1, 3), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetInput(1, 0), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetAudioListeningMode(1, 9), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetDolbyPostProcessing(2, protocol.DolbyMovie), ErrInvalidArgument)

	assert.Empty(t, wire.take())
	assert.Empty(t, rec.errors())
}

func TestCommandsRejectedWhenIdle(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.AddZone(1, "Main", true))
	rec := newRecorder()
	c.Subscribe(rec.record)

	err := c.SetPower(1, true)
	assert.ErrorIs(t, err, ErrNotConnected)

	var ce *ControllerError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrKindReceiverNotReady, ce.Kind)
	assert.Len(t, rec.errors(), 1)
}

func TestWriteFailureTearsDown(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateOperational)
	c.mu.Lock()
	c.w = failingWriter{}
	c.mu.Unlock()

	err := c.SetPower(1, true)
	assert.True(t, IsConnectionError(err))
	assert.Equal(t, StateIdle, c.State())

	errs := rec.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrKindConnection, errs[0].Kind)
	assert.Equal(t, "broken pipe", errs[0].Detail)
}

func TestUnsubscribe(t *testing.T) {
	c, _, rec := newAttached(t, protocol.ModelMRX740, StateOperational)
	other := newRecorder()
	unsubscribe := c.Subscribe(other.record)

	feed(c, "Z1MUT1;")
	unsubscribe()
	unsubscribe()
	feed(c, "Z1MUT0;")

	assert.Len(t, rec.of(EventZoneMuteChanged), 2)
	assert.Len(t, other.of(EventZoneMuteChanged), 1)
}

func TestALMNamesFollowDialect(t *testing.T) {
	c, _, _ := newAttached(t, protocol.ModelAVM70, StateOperational)
	assert.Equal(t, protocol.ALMNames(protocol.DialectCurrent), c.ALMNames())

	idle := New(Options{})
	assert.Nil(t, idle.ALMNames())
}
