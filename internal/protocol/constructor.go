package protocol

import (
	"errors"
	"fmt"
)

// Command token builders for requests sent to the receiver.
// Tokens are returned without the trailing Delimiter; the controller's batch
// buffer appends it on flush.

// Delimiter terminates every request and response token.
const Delimiter = ";"

// ErrUnsupported is returned by builders for commands that do not exist in
// the requested dialect.
var ErrUnsupported = errors.New("command not supported by dialect")

// Identity and configuration queries.
const (
	QueryModel           = "IDM?"
	QuerySerialNumber    = "GSN?" // current dialect
	QueryMACAddress      = "IDN?" // legacy dialect
	QuerySoftwareVersion = "IDS?"
	QueryInputCount      = "ICN?"
	QueryARCConfigured   = "Z1ARCVAL?" // current dialect
	QueryMenuVisible     = "Z1SMD?"
	QueryPanelBrightness = "GCFPB?" // current dialect
	ToggleMenu           = "Z1SMDt"
)

// BuildIdentityQuery returns the query that yields the unique identity used
// as serial number: GSN? in the current dialect, IDN? (MAC address) in the
// legacy one.
func BuildIdentityQuery(d Dialect) (string, error) {
	switch d {
	case DialectCurrent:
		return QuerySerialNumber, nil
	case DialectLegacy:
		return QueryMACAddress, nil
	default:
		return "", unsupported("identity query", d)
	}
}

// BuildInputNameQuery returns the name query for a 1-based input index.
//
// Legacy: ISN<two-digit index>?   Current: IS<index>IN?
func BuildInputNameQuery(d Dialect, index int) (string, error) {
	switch d {
	case DialectLegacy:
		return fmt.Sprintf("ISN%02d?", index), nil
	case DialectCurrent:
		return fmt.Sprintf("IS%dIN?", index), nil
	default:
		return "", unsupported("input name query", d)
	}
}

// BuildZonePowerQuery returns Z<zone>POW?.
func BuildZonePowerQuery(zone int) string {
	return fmt.Sprintf("Z%dPOW?", zone)
}

// BuildZonePower returns Z<zone>POW<0|1>.
func BuildZonePower(zone int, on bool) string {
	return fmt.Sprintf("Z%dPOW%s", zone, bit(on))
}

// BuildZoneMuteQuery returns Z<zone>MUT?.
func BuildZoneMuteQuery(zone int) string {
	return fmt.Sprintf("Z%dMUT?", zone)
}

// BuildZoneMute returns Z<zone>MUT<0|1>.
func BuildZoneMute(zone int, muted bool) string {
	return fmt.Sprintf("Z%dMUT%s", zone, bit(muted))
}

// BuildZoneMuteToggle returns Z<zone>MUTt.
func BuildZoneMuteToggle(zone int) string {
	return fmt.Sprintf("Z%dMUTt", zone)
}

// BuildZoneVolumeQuery returns Z<zone>VOL?.
func BuildZoneVolumeQuery(zone int) string {
	return fmt.Sprintf("Z%dVOL?", zone)
}

// BuildZoneVolumePercentQuery returns Z<zone>PVOL?. Only the current dialect
// reports volume as a percentage.
func BuildZoneVolumePercentQuery(d Dialect, zone int) (string, error) {
	if d != DialectCurrent {
		return "", unsupported("volume percentage query", d)
	}
	return fmt.Sprintf("Z%dPVOL?", zone), nil
}

// BuildZoneVolumePercent returns Z<zone>PVOL<0-100>.
func BuildZoneVolumePercent(zone, percent int) (string, error) {
	if percent < 0 || percent > 100 {
		return "", fmt.Errorf("volume percentage %d out of range 0-100", percent)
	}
	return fmt.Sprintf("Z%dPVOL%d", zone, percent), nil
}

// BuildVolumeUp returns the one-step volume increase for the dialect.
//
// Legacy: Z<zone>VUP1   Current: Z<zone>VUP
func BuildVolumeUp(d Dialect, zone int) (string, error) {
	switch d {
	case DialectLegacy:
		return fmt.Sprintf("Z%dVUP1", zone), nil
	case DialectCurrent:
		return fmt.Sprintf("Z%dVUP", zone), nil
	default:
		return "", unsupported("volume up", d)
	}
}

// BuildVolumeDown returns the one-step volume decrease for the dialect.
//
// Legacy: Z<zone>VDN1   Current: Z<zone>VDN
func BuildVolumeDown(d Dialect, zone int) (string, error) {
	switch d {
	case DialectLegacy:
		return fmt.Sprintf("Z%dVDN1", zone), nil
	case DialectCurrent:
		return fmt.Sprintf("Z%dVDN", zone), nil
	default:
		return "", unsupported("volume down", d)
	}
}

// BuildZoneInputQuery returns Z<zone>INP?.
func BuildZoneInputQuery(zone int) string {
	return fmt.Sprintf("Z%dINP?", zone)
}

// BuildZoneInput returns Z<zone>INP<input>.
func BuildZoneInput(zone, input int) string {
	return fmt.Sprintf("Z%dINP%d", zone, input)
}

// BuildARCQuery returns the ARC status query. The legacy dialect addresses
// ARC per zone, the current one per input.
func BuildARCQuery(d Dialect, zone, input int) (string, error) {
	switch d {
	case DialectLegacy:
		return fmt.Sprintf("Z%dARC?", zone), nil
	case DialectCurrent:
		return fmt.Sprintf("IS%dARC?", input), nil
	default:
		return "", unsupported("ARC query", d)
	}
}

// BuildARC returns the ARC enable command, addressed like BuildARCQuery.
func BuildARC(d Dialect, zone, input int, enabled bool) (string, error) {
	switch d {
	case DialectLegacy:
		return fmt.Sprintf("Z%dARC%s", zone, bit(enabled)), nil
	case DialectCurrent:
		return fmt.Sprintf("IS%dARC%s", input, bit(enabled)), nil
	default:
		return "", unsupported("ARC", d)
	}
}

// BuildDolbyQuery returns IS<input>DV? (current dialect).
func BuildDolbyQuery(d Dialect, input int) (string, error) {
	if d != DialectCurrent {
		return "", unsupported("Dolby post-processing query", d)
	}
	return fmt.Sprintf("IS%dDV?", input), nil
}

// BuildDolby returns IS<input>DV<mode> (current dialect).
func BuildDolby(d Dialect, input int, mode DolbyMode) (string, error) {
	if d != DialectCurrent {
		return "", unsupported("Dolby post-processing", d)
	}
	if mode < DolbyOff || mode > DolbyNight {
		return "", fmt.Errorf("dolby mode %d out of range", int(mode))
	}
	return fmt.Sprintf("IS%dDV%d", input, int(mode)), nil
}

// BuildALMQuery returns Z<zone>ALM?.
func BuildALMQuery(zone int) string {
	return fmt.Sprintf("Z%dALM?", zone)
}

// BuildALM returns Z<zone>ALM<mode>. Only the current dialect accepts a
// listening mode by code.
func BuildALM(d Dialect, zone, mode int) (string, error) {
	if d != DialectCurrent {
		return "", unsupported("audio listening mode", d)
	}
	if mode < 0 || mode > len(currentALMNames) {
		return "", fmt.Errorf("listening mode %d out of range", mode)
	}
	return fmt.Sprintf("Z%dALM%d", zone, mode), nil
}

// BuildALMStep cycles the listening mode one step.
//
// Legacy: Z<zone>ALMna / Z<zone>ALMpa   Current: Z<zone>AUP / Z<zone>ADN
func BuildALMStep(d Dialect, zone int, up bool) (string, error) {
	switch d {
	case DialectLegacy:
		if up {
			return fmt.Sprintf("Z%dALMna", zone), nil
		}
		return fmt.Sprintf("Z%dALMpa", zone), nil
	case DialectCurrent:
		if up {
			return fmt.Sprintf("Z%dAUP", zone), nil
		}
		return fmt.Sprintf("Z%dADN", zone), nil
	default:
		return "", unsupported("listening mode step", d)
	}
}

// BuildPanelBrightnessQuery returns GCFPB? (current dialect).
func BuildPanelBrightnessQuery(d Dialect) (string, error) {
	if d != DialectCurrent {
		return "", unsupported("panel brightness query", d)
	}
	return QueryPanelBrightness, nil
}

// BuildPanelBrightness returns GCFPB<level> (current dialect).
func BuildPanelBrightness(d Dialect, level int) (string, error) {
	if d != DialectCurrent {
		return "", unsupported("panel brightness", d)
	}
	if level < 0 {
		return "", fmt.Errorf("panel brightness %d out of range", level)
	}
	return fmt.Sprintf("GCFPB%d", level), nil
}

// BuildKey returns Z<zone>SIM<code>.
func BuildKey(zone int, key KeyCode) string {
	return fmt.Sprintf("Z%dSIM%s", zone, key)
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func unsupported(what string, d Dialect) error {
	return fmt.Errorf("%s in %s dialect: %w", what, d, ErrUnsupported)
}
