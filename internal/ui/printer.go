package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/anthemctl/internal/controller"
)

// Param is one key/value line in a header or result box. Params keep the
// order they are given in.
type Param struct {
	Key   string
	Value string
}

// Printer provides methods for printing UI components to a writer.
// This is the primary way one-shot commands output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params []Param) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details []Param) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints an error result box. Troubleshooting tips are derived
// from the error.
func (p *Printer) PrintError(title string, err error) {
	p.Println(RenderErrorBox(title, err, Troubleshooting(err), p.width))
}

// PrintStatus prints the zone table for a receiver.
func (p *Printer) PrintStatus(s Status) {
	p.Println(RenderStatus(s, p.width))
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params []Param, width int) string {
	titleLine := HeaderTitleStyle.Render(strings.ToUpper(title))
	commandLine := HeaderCommandStyle.Render(command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(params) > 0 {
		divider := RenderHorizontalDivider(width-6, "─")
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, renderParams(params, HeaderParamKeyStyle))
	}

	return HeaderBorderStyle(width).Render(content)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details []Param, width int) string {
	lines := []string{
		"",
		SuccessTitleStyle.Render(" " + SuccessMarker + "  " + title),
		"",
	}
	if len(details) > 0 {
		lines = append(lines, renderParams(details, ResultKeyStyle), "")
	}
	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box with troubleshooting
func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	lines := []string{
		"",
		ErrorTitleStyle.Render(" " + FailureMarker + "  FAILED  ─  " + title),
		"",
	}

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render(" Error: "+err.Error()), "")
	}

	if len(troubleshooting) > 0 {
		tips := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
		for _, tip := range troubleshooting {
			tips = append(tips, TroubleshootingItemStyle.Render("  • "+tip))
		}
		lines = append(lines, TroubleshootingBoxStyle(width).Render(strings.Join(tips, "\n")), "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}

func renderParams(params []Param, keyStyle lipgloss.Style) string {
	lines := make([]string, 0, len(params))
	for _, param := range params {
		lines = append(lines, keyStyle.Render(param.Key+":")+" "+HeaderParamValueStyle.Render(param.Value))
	}
	return strings.Join(lines, "\n")
}

// Troubleshooting returns hints for a failed command.
func Troubleshooting(err error) []string {
	if errors.Is(err, controller.ErrNotConnected) {
		return []string{"The session ended before the command was sent"}
	}

	var cerr *controller.ControllerError
	if !errors.As(err, &cerr) {
		return nil
	}

	switch cerr.Kind {
	case controller.ErrKindConnection:
		return []string{
			"Check that the receiver is on and reachable on the network",
			"Enable IP control in the receiver's network setup menu",
			"Only one IP control client can be connected at a time",
		}
	case controller.ErrKindZoneNotPowered:
		return []string{"Power the zone on first: anthemctl power on"}
	case controller.ErrKindCommandNotSupported:
		return []string{"This receiver model does not offer the command"}
	case controller.ErrKindMainZoneOnly:
		return []string{"Retry with --zone 1"}
	case controller.ErrKindOutOfRange:
		return []string{"Check the value against the receiver's range"}
	default:
		return nil
	}
}
