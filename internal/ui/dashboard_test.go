package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/protocol"
)

type fakeRemote struct {
	mu     sync.Mutex
	state  controller.State
	zones  []controller.Zone
	inputs []string
	calls  []string
	err    error
	subs   []func(controller.Event)
}

func newFakeRemote() *fakeRemote {
	main := controller.Zone{ID: 1, Name: "Main", Main: true}
	main.Power = controller.Observe(true)
	main.VolumePercent = controller.Observe(40)
	main.Input = controller.Observe(2)
	main.ALM = controller.Observe(protocol.ALMDolbySurround)
	zone2 := controller.Zone{ID: 2, Name: "Patio"}
	zone2.Power = controller.Observe(false)

	return &fakeRemote{
		state:  controller.StateOperational,
		zones:  []controller.Zone{main, zone2},
		inputs: []string{"TV", "Blu-ray"},
	}
}

func (f *fakeRemote) State() controller.State   { return f.state }
func (f *fakeRemote) Model() protocol.Model     { return protocol.ModelMRX740 }
func (f *fakeRemote) Dialect() protocol.Dialect { return protocol.DialectCurrent }
func (f *fakeRemote) SerialNumber() string      { return "0123456789" }
func (f *fakeRemote) SoftwareVersion() string   { return "1.2.3" }
func (f *fakeRemote) RemoteAddr() string        { return "192.168.1.50:14999" }
func (f *fakeRemote) Zones() []controller.Zone  { return f.zones }
func (f *fakeRemote) Inputs() []string          { return f.inputs }

func (f *fakeRemote) Subscribe(fn func(controller.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeRemote) publish(ev controller.Event) {
	f.mu.Lock()
	subs := append([]func(controller.Event){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeRemote) SetPower(zone int, on bool) error {
	if on {
		return f.record("power on")
	}
	return f.record("power off")
}
func (f *fakeRemote) ToggleMute(zone int) error { return f.record("mute") }
func (f *fakeRemote) VolumeUp(zone int) error   { return f.record("volume up") }
func (f *fakeRemote) VolumeDown(zone int) error { return f.record("volume down") }
func (f *fakeRemote) NextInput(zone int) error  { return f.record("next input") }
func (f *fakeRemote) StepAudioListeningMode(zone int, up bool) error {
	return f.record("mode")
}
func (f *fakeRemote) Refresh(zone int) error { return f.record("refresh") }

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes a command and feeds its message back into the model.
func runCmd(t *testing.T, m DashboardModel, cmd tea.Cmd) DashboardModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(DashboardModel)
}

func TestDashboardKeysDriveSelectedZone(t *testing.T) {
	remote := newFakeRemote()
	feed := NewFeed(remote)
	defer feed.Close()
	m := NewDashboardModel(remote, feed)

	next, cmd := m.Update(keyMsg("p"))
	m = runCmd(t, next.(DashboardModel), cmd)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(DashboardModel)
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}

	next, cmd = m.Update(keyMsg("p"))
	m = runCmd(t, next.(DashboardModel), cmd)
	next, cmd = m.Update(keyMsg("+"))
	m = runCmd(t, next.(DashboardModel), cmd)

	want := []string{"power off", "power on", "volume up"}
	if strings.Join(remote.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", remote.calls, want)
	}
}

func TestDashboardCommandErrorIsShown(t *testing.T) {
	remote := newFakeRemote()
	remote.err = controller.ErrNotConnected
	feed := NewFeed(remote)
	defer feed.Close()
	m := NewDashboardModel(remote, feed)

	next, cmd := m.Update(keyMsg("m"))
	m = runCmd(t, next.(DashboardModel), cmd)

	if !errors.Is(m.lastErr, controller.ErrNotConnected) {
		t.Fatalf("lastErr = %v, want ErrNotConnected", m.lastErr)
	}
	if !strings.Contains(m.View(), "not connected to receiver") {
		t.Error("View() does not show the command error")
	}
}

func TestDashboardAppliesEvents(t *testing.T) {
	remote := newFakeRemote()
	feed := NewFeed(remote)
	defer feed.Close()
	m := NewDashboardModel(remote, feed)

	remote.publish(controller.ZoneVolumeChanged{Zone: 1, Percent: 40})
	remote.publish(controller.DebugLine{Text: "Sending: Z1PVOL40;"})
	remote.publish(controller.ErrorEvent{Err: &controller.ControllerError{Kind: controller.ErrKindOutOfRange, Detail: "Z1PVOL140"}})

	for i := 0; i < 3; i++ {
		m = runCmd(t, m, m.feed.wait())
	}

	if len(m.activity) != 2 {
		t.Fatalf("activity = %v, want 2 lines (debug lines are not shown)", m.activity)
	}
	if !strings.Contains(m.activity[0], "Main volume 40%") {
		t.Errorf("activity[0] = %q, want volume line", m.activity[0])
	}
	if m.lastErr == nil {
		t.Fatal("lastErr not set by error event")
	}

	remote.publish(controller.ControllerReady{Model: protocol.ModelMRX740})
	m = runCmd(t, m, m.feed.wait())
	if m.lastErr != nil {
		t.Errorf("lastErr = %v after ready, want nil", m.lastErr)
	}
}

func TestDashboardActivityIsBounded(t *testing.T) {
	remote := newFakeRemote()
	feed := NewFeed(remote)
	defer feed.Close()
	m := NewDashboardModel(remote, feed)

	for i := 0; i < maxActivity+4; i++ {
		m.apply(controller.ZoneMuteChanged{Zone: 1, Muted: i%2 == 0})
	}
	if len(m.activity) != maxActivity {
		t.Errorf("len(activity) = %d, want %d", len(m.activity), maxActivity)
	}
}

func TestDashboardQuitsWhenFeedCloses(t *testing.T) {
	remote := newFakeRemote()
	feed := NewFeed(remote)
	m := NewDashboardModel(remote, feed)

	wait := m.feed.wait()
	feed.Close()

	done := make(chan tea.Msg, 1)
	go func() { done <- wait() }()
	select {
	case msg := <-done:
		if _, ok := msg.(feedClosedMsg); !ok {
			t.Fatalf("msg = %T, want feedClosedMsg", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after Close")
	}

	// Publishing after Close must not block or panic.
	remote.publish(controller.ZonePowerChanged{Zone: 1, On: true})
}

func TestDashboardView(t *testing.T) {
	remote := newFakeRemote()
	feed := NewFeed(remote)
	defer feed.Close()
	m := NewDashboardModel(remote, feed)

	view := m.View()
	for _, want := range []string{"Anthem MRX 740", "Main", "Patio", "Blu-ray", "DOLBY SURROUND", "40%", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	next, _ := m.Update(ReconnectingMsg{Attempt: 3, Delay: 4 * time.Second})
	if view := next.(DashboardModel).View(); !strings.Contains(view, "attempt 3") {
		t.Error("View() does not show reconnect attempt")
	}
}

func TestDescribeEvent(t *testing.T) {
	s := StatusOf(newFakeRemote())

	tests := []struct {
		event controller.Event
		want  string
	}{
		{controller.ZonePowerChanged{Zone: 2, On: true}, "Patio power on"},
		{controller.ZoneInputChanged{Zone: 1, Input: 1}, "Main input TV"},
		{controller.ZoneInputChanged{Zone: 1, Input: 9}, "Main input Input 9"},
		{controller.ZoneALMChanged{Zone: 1, Mode: protocol.ALMMono}, "Main listening mode MONO"},
		{controller.ZoneDolbyChanged{Zone: 1, Mode: protocol.DolbyNight}, "Main Dolby Night"},
		{controller.ZoneARCEnabledChanged{Zone: 1, Enabled: false}, "Main ARC off"},
		{controller.PanelBrightnessChanged{Level: 2}, "panel brightness 2"},
		{controller.InputListChanged{Inputs: []string{"TV", "Blu-ray"}}, "inputs: TV, Blu-ray"},
		{controller.ZoneMuteChanged{Zone: 3, Muted: true}, "Zone 3 mute on"},
	}

	for _, tt := range tests {
		if got := DescribeEvent(tt.event, s); got != tt.want {
			t.Errorf("DescribeEvent(%#v) = %q, want %q", tt.event, got, tt.want)
		}
	}
}
