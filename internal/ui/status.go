package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/protocol"
)

// Source is the read side of a controller.
type Source interface {
	State() controller.State
	Model() protocol.Model
	Dialect() protocol.Dialect
	SerialNumber() string
	SoftwareVersion() string
	RemoteAddr() string
	Zones() []controller.Zone
	Inputs() []string
}

// Status is a point-in-time view of a receiver.
type Status struct {
	State           controller.State
	Model           protocol.Model
	Dialect         protocol.Dialect
	Address         string
	SerialNumber    string
	SoftwareVersion string
	Zones           []controller.Zone
	Inputs          []string
}

// StatusOf reads the current state of src.
func StatusOf(src Source) Status {
	return Status{
		State:           src.State(),
		Model:           src.Model(),
		Dialect:         src.Dialect(),
		Address:         src.RemoteAddr(),
		SerialNumber:    src.SerialNumber(),
		SoftwareVersion: src.SoftwareVersion(),
		Zones:           src.Zones(),
		Inputs:          src.Inputs(),
	}
}

// InputLabel returns the name of a 1-based input, falling back to its number.
func (s Status) InputLabel(input int) string {
	if input >= 1 && input <= len(s.Inputs) && s.Inputs[input-1] != "" {
		return s.Inputs[input-1]
	}
	return fmt.Sprintf("Input %d", input)
}

// ALMLabel returns the display name of a listening mode code.
func (s Status) ALMLabel(code int) string {
	if name, ok := protocol.ALMName(s.Dialect, code); ok {
		return name
	}
	return fmt.Sprintf("Mode %d", code)
}

// RenderStatus renders the identity header and zone table.
func RenderStatus(s Status, width int) string {
	params := []Param{
		{"Address", s.Address},
		{"State", s.State.String()},
	}
	if s.SerialNumber != "" {
		params = append(params, Param{"Serial", s.SerialNumber})
	}
	if s.SoftwareVersion != "" {
		params = append(params, Param{"Software", s.SoftwareVersion})
	}
	header := RenderHeader("Anthem "+s.Model.String(), s.Dialect.String()+" dialect", params, width)

	bar := newVolumeBar()
	rows := make([]string, 0, len(s.Zones))
	for _, z := range s.Zones {
		rows = append(rows, renderZone(s, z, false, bar))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rows, "\n"))
}

func newVolumeBar() progress.Model {
	return progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(20),
		progress.WithoutPercentage(),
	)
}

// renderZone renders one zone as a single line followed by a detail line.
func renderZone(s Status, z controller.Zone, selected bool, bar progress.Model) string {
	marker := "  "
	nameStyle := ZoneNameStyle
	if selected {
		marker = SelectedMarker + " "
		nameStyle = ZoneSelectedStyle
	}

	line := marker + nameStyle.Render(z.Name) + " " + renderPower(z) + "  " + renderVolume(z, bar)
	if muted, ok := z.Muted.Get(); ok && muted {
		line += "  " + WarningStyle.Render("MUTED")
	}

	var details []string
	if input, ok := z.Input.Get(); ok {
		details = append(details, s.InputLabel(input))
	}
	if code, ok := z.ALM.Get(); ok && z.Main {
		details = append(details, s.ALMLabel(code))
	}
	if mode, ok := z.Dolby.Get(); ok {
		details = append(details, "Dolby "+mode.String())
	}
	if enabled, ok := z.ARCEnabled.Get(); ok {
		details = append(details, "ARC "+onOff(enabled))
	}
	if len(details) == 0 {
		return line
	}
	return line + "\n" + strings.Repeat(" ", 4) + ActivityStyle.Render(strings.Join(details, " · "))
}

func renderPower(z controller.Zone) string {
	on, ok := z.Power.Get()
	switch {
	case !ok:
		return UnknownStyle.Render(fmt.Sprintf("%-3s", UnknownValue))
	case on:
		return PowerOnStyle.Render("ON ")
	default:
		return PowerOffStyle.Render("OFF")
	}
}

func renderVolume(z controller.Zone, bar progress.Model) string {
	if percent, ok := z.VolumePercent.Get(); ok {
		return bar.ViewAs(float64(percent)/100) + fmt.Sprintf(" %3d%%", percent)
	}
	if db, ok := z.Volume.Get(); ok {
		return fmt.Sprintf("%.1f dB", db)
	}
	return UnknownStyle.Render(UnknownValue)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// ZoneParams lists a zone's observed state as result lines. Values not
// yet reported are left out.
func ZoneParams(s Status, z controller.Zone) []Param {
	params := []Param{{"Zone", fmt.Sprintf("%s (%d)", z.Name, z.ID)}}
	if on, ok := z.Power.Get(); ok {
		params = append(params, Param{"Power", onOff(on)})
	}
	if percent, ok := z.VolumePercent.Get(); ok {
		params = append(params, Param{"Volume", fmt.Sprintf("%d%%", percent)})
	} else if db, ok := z.Volume.Get(); ok {
		params = append(params, Param{"Volume", fmt.Sprintf("%.1f dB", db)})
	}
	if muted, ok := z.Muted.Get(); ok {
		params = append(params, Param{"Mute", onOff(muted)})
	}
	if input, ok := z.Input.Get(); ok {
		params = append(params, Param{"Input", s.InputLabel(input)})
	}
	if code, ok := z.ALM.Get(); ok && z.Main {
		params = append(params, Param{"Listening mode", s.ALMLabel(code)})
	}
	if mode, ok := z.Dolby.Get(); ok {
		params = append(params, Param{"Dolby", mode.String()})
	}
	if enabled, ok := z.ARCEnabled.Get(); ok {
		params = append(params, Param{"ARC", onOff(enabled)})
	}
	return params
}
