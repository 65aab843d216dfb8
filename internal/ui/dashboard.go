package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/anthemctl/internal/controller"
)

// maxActivity is the number of recent events shown under the zone table.
const maxActivity = 6

// eventBuffer sizes the channel between the controller and the program.
const eventBuffer = 64

// Remote is the controller surface the dashboard drives.
type Remote interface {
	Source
	Subscribe(fn func(controller.Event)) (unsubscribe func())

	SetPower(zone int, on bool) error
	ToggleMute(zone int) error
	VolumeUp(zone int) error
	VolumeDown(zone int) error
	NextInput(zone int) error
	StepAudioListeningMode(zone int, up bool) error
	Refresh(zone int) error
}

// Message types
type (
	eventMsg struct {
		event controller.Event
	}

	feedClosedMsg struct{}

	commandDoneMsg struct {
		err error
	}

	// ReconnectingMsg is sent by the caller while the session is being
	// re-established.
	ReconnectingMsg struct {
		Attempt int
		Delay   time.Duration
	}
)

// Feed carries controller events into a Bubble Tea program.
type Feed struct {
	events      chan controller.Event
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
}

// NewFeed subscribes to r. Events are dropped while the buffer is full;
// the dashboard re-reads zone state on every event so only activity lines
// are lost.
func NewFeed(r Remote) *Feed {
	f := &Feed{
		events: make(chan controller.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	f.unsubscribe = r.Subscribe(func(ev controller.Event) {
		select {
		case <-f.done:
		case f.events <- ev:
		default:
		}
	})
	return f
}

// Close unsubscribes and ends the event pump.
func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		f.unsubscribe()
		close(f.done)
	})
}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-f.events:
			return eventMsg{event: ev}
		case <-f.done:
			return feedClosedMsg{}
		}
	}
}

// dashboardKeyMap defines key bindings for the dashboard
type dashboardKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Power      key.Binding
	Mute       key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Input      key.Binding
	ModeUp     key.Binding
	ModeDown   key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Power, k.Mute, k.VolumeUp, k.VolumeDown, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Power, k.Mute},
		{k.VolumeUp, k.VolumeDown, k.Input, k.Refresh},
		{k.ModeUp, k.ModeDown, k.Help, k.Quit},
	}
}

func newDashboardKeys() dashboardKeyMap {
	return dashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev zone"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next zone"),
		),
		Power: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "power"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "=", "right", "l"),
			key.WithHelp("+", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-", "left", "h"),
			key.WithHelp("-", "volume down"),
		),
		Input: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "next input"),
		),
		ModeUp: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "next mode"),
		),
		ModeDown: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "prev mode"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DashboardModel is the live view of one receiver.
type DashboardModel struct {
	remote Remote
	feed   *Feed

	status       Status
	cursor       int
	lastErr      error
	activity     []string
	reconnecting *ReconnectingMsg

	Width   int
	Height  int
	Spinner spinner.Model
	bar     progress.Model
	Help    help.Model
	Keys    dashboardKeyMap
}

// NewDashboardModel creates a dashboard reading events from feed.
func NewDashboardModel(r Remote, feed *Feed) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	width, height := GetTerminalSize()
	return DashboardModel{
		remote:  r,
		feed:    feed,
		status:  StatusOf(r),
		Width:   width,
		Height:  height,
		Spinner: s,
		bar:     newVolumeBar(),
		Help:    help.New(),
		Keys:    newDashboardKeys(),
	}
}

// Init starts the spinner and the event pump
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.feed.wait())
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = clampWidth(msg.Width)
		m.Height = msg.Height
		m.Help.Width = m.Width

	case eventMsg:
		m.apply(msg.event)
		return m, m.feed.wait()

	case feedClosedMsg:
		return m, tea.Quit

	case commandDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		}

	case ReconnectingMsg:
		m.reconnecting = &msg
		m.status = StatusOf(m.remote)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *DashboardModel) apply(ev controller.Event) {
	m.status = StatusOf(m.remote)
	if m.cursor >= len(m.status.Zones) {
		m.cursor = 0
	}

	switch e := ev.(type) {
	case controller.DebugLine:
		return
	case controller.ControllerReady:
		m.reconnecting = nil
		m.lastErr = nil
	case controller.ErrorEvent:
		m.lastErr = e.Err
	}

	m.activity = append(m.activity, time.Now().Format("15:04:05")+"  "+DescribeEvent(ev, m.status))
	if len(m.activity) > maxActivity {
		m.activity = m.activity[len(m.activity)-maxActivity:]
	}
}

func (m DashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil
	case key.Matches(msg, m.Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.Keys.Down):
		if m.cursor < len(m.status.Zones)-1 {
			m.cursor++
		}
		return m, nil
	}

	zone, ok := m.selectedZone()
	if !ok {
		return m, nil
	}
	id := zone.ID

	var run func() error
	switch {
	case key.Matches(msg, m.Keys.Power):
		on := !zone.Power.Value()
		run = func() error { return m.remote.SetPower(id, on) }
	case key.Matches(msg, m.Keys.Mute):
		run = func() error { return m.remote.ToggleMute(id) }
	case key.Matches(msg, m.Keys.VolumeUp):
		run = func() error { return m.remote.VolumeUp(id) }
	case key.Matches(msg, m.Keys.VolumeDown):
		run = func() error { return m.remote.VolumeDown(id) }
	case key.Matches(msg, m.Keys.Input):
		run = func() error { return m.remote.NextInput(id) }
	case key.Matches(msg, m.Keys.ModeUp):
		run = func() error { return m.remote.StepAudioListeningMode(id, true) }
	case key.Matches(msg, m.Keys.ModeDown):
		run = func() error { return m.remote.StepAudioListeningMode(id, false) }
	case key.Matches(msg, m.Keys.Refresh):
		run = func() error { return m.remote.Refresh(id) }
	default:
		return m, nil
	}

	m.lastErr = nil
	return m, func() tea.Msg { return commandDoneMsg{err: run()} }
}

func (m DashboardModel) selectedZone() (controller.Zone, bool) {
	if m.cursor < 0 || m.cursor >= len(m.status.Zones) {
		return controller.Zone{}, false
	}
	return m.status.Zones[m.cursor], true
}

// View renders the dashboard
func (m DashboardModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(RenderHorizontalDivider(m.Width-2, "─"))
	b.WriteString("\n\n")

	for i, z := range m.status.Zones {
		b.WriteString(renderZone(m.status, z, i == m.cursor, m.bar))
		b.WriteString("\n")
	}

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(ErrorMessageStyle.Render(FailureMarker + " " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	if len(m.activity) > 0 {
		b.WriteString("\n")
		for _, line := range m.activity {
			b.WriteString(ActivityStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.Help.View(m.Keys))
	return b.String()
}

func (m DashboardModel) renderTitle() string {
	title := HeaderTitleStyle.Render("Anthem " + m.status.Model.String())
	addr := HeaderCommandStyle.Render(m.status.Address)

	var state string
	switch {
	case m.reconnecting != nil:
		state = m.Spinner.View() + WarningStyle.Render(fmt.Sprintf("reconnecting (attempt %d, next in %s)",
			m.reconnecting.Attempt, m.reconnecting.Delay.Round(time.Second)))
	case m.status.State == controller.StateOperational:
		state = PowerOnStyle.Render(SuccessMarker + " " + m.status.State.String())
	case m.status.State == controller.StateConfiguring:
		state = m.Spinner.View() + WarningStyle.Render(m.status.State.String())
	default:
		state = UnknownStyle.Render(m.status.State.String())
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, title, addr, "  ", state)
}

// DescribeEvent renders an event as one line of text.
func DescribeEvent(ev controller.Event, s Status) string {
	switch e := ev.(type) {
	case controller.ControllerReady:
		return fmt.Sprintf("ready: %s serial %s software %s", e.Model, e.SerialNumber, e.SoftwareVersion)
	case controller.PanelBrightnessChanged:
		return fmt.Sprintf("panel brightness %d", e.Level)
	case controller.ZonePowerChanged:
		return fmt.Sprintf("%s power %s", zoneLabel(s, e.Zone), onOff(e.On))
	case controller.ZoneMuteChanged:
		return fmt.Sprintf("%s mute %s", zoneLabel(s, e.Zone), onOff(e.Muted))
	case controller.ZoneALMChanged:
		return fmt.Sprintf("%s listening mode %s", zoneLabel(s, e.Zone), s.ALMLabel(e.Mode))
	case controller.ZoneDolbyChanged:
		return fmt.Sprintf("%s Dolby %s", zoneLabel(s, e.Zone), e.Mode)
	case controller.ZoneVolumeChanged:
		return fmt.Sprintf("%s volume %d%%", zoneLabel(s, e.Zone), e.Percent)
	case controller.ZoneARCEnabledChanged:
		return fmt.Sprintf("%s ARC %s", zoneLabel(s, e.Zone), onOff(e.Enabled))
	case controller.ZoneInputChanged:
		return fmt.Sprintf("%s input %s", zoneLabel(s, e.Zone), s.InputLabel(e.Input))
	case controller.InputListChanged:
		return fmt.Sprintf("inputs: %s", strings.Join(e.Inputs, ", "))
	case controller.ErrorEvent:
		return "error: " + e.Err.Error()
	case controller.DebugLine:
		return e.Text
	default:
		return ev.Kind().String()
	}
}

func zoneLabel(s Status, id int) string {
	for _, z := range s.Zones {
		if z.ID == id {
			return z.Name
		}
	}
	return fmt.Sprintf("Zone %d", id)
}

// RunDashboard runs the dashboard until the user quits. started, if set,
// receives the program before it runs so the caller can Send
// ReconnectingMsg from another goroutine.
func RunDashboard(r Remote, started func(*tea.Program)) error {
	feed := NewFeed(r)
	defer feed.Close()

	p := tea.NewProgram(NewDashboardModel(r, feed), tea.WithAltScreen())
	if started != nil {
		started(p)
	}
	_, err := p.Run()
	return err
}
