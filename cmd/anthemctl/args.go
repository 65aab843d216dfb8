package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/anthemctl/internal/protocol"
)

// switchArg is an on/off/toggle argument.
type switchArg int

const (
	switchOff switchArg = iota
	switchOn
	switchToggle
)

func parseSwitch(s string, allowToggle bool) (switchArg, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return switchOn, nil
	case "off", "false", "0", "no":
		return switchOff, nil
	case "toggle", "t":
		if allowToggle {
			return switchToggle, nil
		}
	}
	if allowToggle {
		return 0, fmt.Errorf("invalid value %q (use on, off or toggle)", s)
	}
	return 0, fmt.Errorf("invalid value %q (use on or off)", s)
}

// stepArg is a relative step (up/down) or an absolute value.
type stepArg struct {
	Up       bool
	Down     bool
	Absolute int
}

func (a stepArg) relative() bool {
	return a.Up || a.Down
}

// parseStep accepts up, down or an integer in [lo, hi].
func parseStep(s string, lo, hi int) (stepArg, error) {
	switch strings.ToLower(s) {
	case "up", "+":
		return stepArg{Up: true}, nil
	case "down", "-":
		return stepArg{Down: true}, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil {
		return stepArg{}, fmt.Errorf("invalid value %q (use up, down or %d-%d)", s, lo, hi)
	}
	if n < lo || n > hi {
		return stepArg{}, fmt.Errorf("value %d out of range %d-%d", n, lo, hi)
	}
	return stepArg{Absolute: n}, nil
}

// parseInput accepts a 1-based input number or an input name.
func parseInput(s string, inputs []string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	for i, name := range inputs {
		if strings.EqualFold(name, s) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown input %q (inputs: %s)", s, strings.Join(inputs, ", "))
}

// parseMode accepts a listening mode code or its display name.
func parseMode(s string, d protocol.Dialect) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	names := protocol.ALMNames(d)
	for i, name := range names {
		if strings.EqualFold(name, s) {
			if d == protocol.DialectCurrent {
				return i + 1, nil
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown listening mode %q", s)
}

func parseDolby(s string) (protocol.DolbyMode, error) {
	for _, mode := range []protocol.DolbyMode{protocol.DolbyOff, protocol.DolbyMovie, protocol.DolbyMusic, protocol.DolbyNight} {
		if strings.EqualFold(mode.String(), s) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("invalid Dolby mode %q (use off, movie, music or night)", s)
}
