package protocol

import (
	"fmt"
	"regexp"
	"strconv"
)

// Response is a decoded receiver token.
type Response interface {
	// Prefix returns the protocol verb the response was matched by.
	Prefix() string
	String() string
}

// ModelReport is the IDM response.
type ModelReport struct {
	Raw   string // model string with padding removed
	Model Model  // ModelUndefined when Known is false
	Known bool
}

func (r ModelReport) Prefix() string { return "IDM" }
func (r ModelReport) String() string {
	return fmt.Sprintf("Model{raw=%q, known=%v}", r.Raw, r.Known)
}

// SerialNumber is the GSN response (current dialect).
type SerialNumber struct{ Value string }

func (r SerialNumber) Prefix() string { return "GSN" }
func (r SerialNumber) String() string { return fmt.Sprintf("SerialNumber{%s}", r.Value) }

// MACAddress is the IDN response (legacy dialect); it stands in for the
// serial number.
type MACAddress struct{ Value string }

func (r MACAddress) Prefix() string { return "IDN" }
func (r MACAddress) String() string { return fmt.Sprintf("MACAddress{%s}", r.Value) }

// SoftwareVersion is the IDS response.
type SoftwareVersion struct{ Value string }

func (r SoftwareVersion) Prefix() string { return "IDS" }
func (r SoftwareVersion) String() string { return fmt.Sprintf("SoftwareVersion{%s}", r.Value) }

// PanelBrightness is the GCFPB response.
type PanelBrightness struct{ Level int }

func (r PanelBrightness) Prefix() string { return "GCFPB" }
func (r PanelBrightness) String() string { return fmt.Sprintf("PanelBrightness{%d}", r.Level) }

// InputDolby is the IS<input>DV response.
type InputDolby struct {
	Input int
	Mode  DolbyMode
}

func (r InputDolby) Prefix() string { return "ISDV" }
func (r InputDolby) String() string {
	return fmt.Sprintf("InputDolby{input=%d, mode=%s}", r.Input, r.Mode)
}

// InputCount is the ICN response.
type InputCount struct{ Count int }

func (r InputCount) Prefix() string { return "ICN" }
func (r InputCount) String() string { return fmt.Sprintf("InputCount{%d}", r.Count) }

// ZonePower is the Z<zone>POW response.
type ZonePower struct {
	Zone int
	On   bool
}

func (r ZonePower) Prefix() string { return "POW" }
func (r ZonePower) String() string { return fmt.Sprintf("ZonePower{zone=%d, on=%v}", r.Zone, r.On) }

// ZoneALM is the Z<zone>ALM response.
type ZoneALM struct {
	Zone int
	Mode int
}

func (r ZoneALM) Prefix() string { return "ALM" }
func (r ZoneALM) String() string { return fmt.Sprintf("ZoneALM{zone=%d, mode=%d}", r.Zone, r.Mode) }

// ZoneMute is the Z<zone>MUT response.
type ZoneMute struct {
	Zone  int
	Muted bool
}

func (r ZoneMute) Prefix() string { return "MUT" }
func (r ZoneMute) String() string {
	return fmt.Sprintf("ZoneMute{zone=%d, muted=%v}", r.Zone, r.Muted)
}

// ZoneVolumePercent is the Z<zone>PVOL response.
type ZoneVolumePercent struct {
	Zone    int
	Percent int
}

func (r ZoneVolumePercent) Prefix() string { return "PVOL" }
func (r ZoneVolumePercent) String() string {
	return fmt.Sprintf("ZoneVolumePercent{zone=%d, percent=%d}", r.Zone, r.Percent)
}

// ZoneVolume is the Z<zone>VOL response in raw receiver units (dB).
type ZoneVolume struct {
	Zone   int
	Volume float64
}

func (r ZoneVolume) Prefix() string { return "VOL" }
func (r ZoneVolume) String() string {
	return fmt.Sprintf("ZoneVolume{zone=%d, volume=%g}", r.Zone, r.Volume)
}

// InputName is an input name response in either dialect's format.
type InputName struct {
	Index  int // 1-based
	Name   string
	Legacy bool // ISN<nn> form rather than IS<n>IN
}

func (r InputName) Prefix() string {
	if r.Legacy {
		return "ISN"
	}
	return "ISIN"
}
func (r InputName) String() string {
	return fmt.Sprintf("InputName{index=%d, name=%q}", r.Index, r.Name)
}

// ZoneInput is the Z<zone>INP response.
type ZoneInput struct {
	Zone  int
	Input int
}

func (r ZoneInput) Prefix() string { return "INP" }
func (r ZoneInput) String() string {
	return fmt.Sprintf("ZoneInput{zone=%d, input=%d}", r.Zone, r.Input)
}

// MenuVisible is the Z1SMD response.
type MenuVisible struct{ Visible bool }

func (r MenuVisible) Prefix() string { return "SMD" }
func (r MenuVisible) String() string { return fmt.Sprintf("MenuVisible{%v}", r.Visible) }

// ARCConfigured is the Z1ARCVAL response (current dialect).
type ARCConfigured struct{ Configured bool }

func (r ARCConfigured) Prefix() string { return "ARCVAL" }
func (r ARCConfigured) String() string { return fmt.Sprintf("ARCConfigured{%v}", r.Configured) }

// InputARC is the IS<input>ARC response (current dialect).
type InputARC struct {
	Input   int
	Enabled bool
}

func (r InputARC) Prefix() string { return "ISARC" }
func (r InputARC) String() string {
	return fmt.Sprintf("InputARC{input=%d, enabled=%v}", r.Input, r.Enabled)
}

// ZoneARC is the Z<zone>ARC response (legacy dialect).
type ZoneARC struct {
	Zone    int
	Enabled bool
}

func (r ZoneARC) Prefix() string { return "ARC" }
func (r ZoneARC) String() string {
	return fmt.Sprintf("ZoneARC{zone=%d, enabled=%v}", r.Zone, r.Enabled)
}

// ErrorCode is the marker character of a receiver error token.
type ErrorCode byte

// Receiver error markers.
const (
	ErrorCannotExecute  ErrorCode = 'E'
	ErrorOutOfRange     ErrorCode = 'R'
	ErrorInvalidCommand ErrorCode = 'I'
	ErrorZoneNotPowered ErrorCode = 'Z'
)

// ReceiverError is a !E, !R, !I or !Z token.
type ReceiverError struct {
	Code   ErrorCode
	Detail string // the rejected command text
}

func (r ReceiverError) Prefix() string { return "!" + string(r.Code) }
func (r ReceiverError) String() string {
	return fmt.Sprintf("ReceiverError{code=%c, detail=%q}", r.Code, r.Detail)
}

// responsePattern binds an anchored pattern to the decoder of its captures.
// Field widths are encoded in the pattern itself.
type responsePattern struct {
	name   string
	re     *regexp.Regexp
	decode func(m []string) (Response, bool)
}

// responsePatterns is evaluated in order for every token. Patterns are not
// exclusive: every match produces a response.
var responsePatterns = []responsePattern{
	{"model", regexp.MustCompile(`^IDM(.*)$`), func(m []string) (Response, bool) {
		raw := TrimPadding(m[1])
		model, ok := ParseModel(raw)
		return ModelReport{Raw: raw, Model: model, Known: ok}, true
	}},
	{"serial", regexp.MustCompile(`^GSN(.+)$`), func(m []string) (Response, bool) {
		return SerialNumber{Value: m[1]}, true
	}},
	{"mac", regexp.MustCompile(`^IDN(.+)$`), func(m []string) (Response, bool) {
		return MACAddress{Value: m[1]}, true
	}},
	{"software", regexp.MustCompile(`^IDS(.+)$`), func(m []string) (Response, bool) {
		return SoftwareVersion{Value: m[1]}, true
	}},
	{"brightness", regexp.MustCompile(`^GCFPB(\d+)$`), func(m []string) (Response, bool) {
		level, ok := atoi(m[1])
		return PanelBrightness{Level: level}, ok
	}},
	{"dolby", regexp.MustCompile(`^IS(\d+)DV(\d)$`), func(m []string) (Response, bool) {
		input, ok1 := atoi(m[1])
		mode, ok2 := atoi(m[2])
		return InputDolby{Input: input, Mode: DolbyMode(mode)}, ok1 && ok2
	}},
	{"input-count", regexp.MustCompile(`^ICN(\d+)$`), func(m []string) (Response, bool) {
		count, ok := atoi(m[1])
		return InputCount{Count: count}, ok
	}},
	{"zone-power", regexp.MustCompile(`^Z(\d)POW([01])$`), func(m []string) (Response, bool) {
		zone, ok := atoi(m[1])
		return ZonePower{Zone: zone, On: m[2] == "1"}, ok
	}},
	{"zone-alm", regexp.MustCompile(`^Z(\d)ALM(\d+)$`), func(m []string) (Response, bool) {
		zone, ok1 := atoi(m[1])
		mode, ok2 := atoi(m[2])
		return ZoneALM{Zone: zone, Mode: mode}, ok1 && ok2
	}},
	{"zone-mute", regexp.MustCompile(`^Z(\d)MUT([01])$`), func(m []string) (Response, bool) {
		zone, ok := atoi(m[1])
		return ZoneMute{Zone: zone, Muted: m[2] == "1"}, ok
	}},
	{"zone-volume-percent", regexp.MustCompile(`^Z(\d)PVOL(\d+)$`), func(m []string) (Response, bool) {
		zone, ok1 := atoi(m[1])
		pct, ok2 := atoi(m[2])
		return ZoneVolumePercent{Zone: zone, Percent: pct}, ok1 && ok2
	}},
	{"zone-volume", regexp.MustCompile(`^Z(\d)VOL(-?\d+(?:\.\d+)?)$`), func(m []string) (Response, bool) {
		zone, ok := atoi(m[1])
		vol, err := strconv.ParseFloat(m[2], 64)
		return ZoneVolume{Zone: zone, Volume: vol}, ok && err == nil
	}},
	{"input-name", regexp.MustCompile(`^IS(\d+)IN(.*)$`), func(m []string) (Response, bool) {
		index, ok := atoi(m[1])
		return InputName{Index: index, Name: m[2]}, ok && index > 0
	}},
	{"input-name-legacy", regexp.MustCompile(`^ISN(\d{2})(.*)$`), func(m []string) (Response, bool) {
		index, ok := atoi(m[1])
		return InputName{Index: index, Name: m[2], Legacy: true}, ok && index > 0
	}},
	{"zone-input", regexp.MustCompile(`^Z(\d)INP(\d+)$`), func(m []string) (Response, bool) {
		zone, ok1 := atoi(m[1])
		input, ok2 := atoi(m[2])
		return ZoneInput{Zone: zone, Input: input}, ok1 && ok2
	}},
	{"menu", regexp.MustCompile(`^Z1SMD([01])$`), func(m []string) (Response, bool) {
		return MenuVisible{Visible: m[1] == "1"}, true
	}},
	{"arc-configured", regexp.MustCompile(`^Z1ARCVAL([01])$`), func(m []string) (Response, bool) {
		return ARCConfigured{Configured: m[1] == "1"}, true
	}},
	{"input-arc", regexp.MustCompile(`^IS(\d+)ARC([01])$`), func(m []string) (Response, bool) {
		input, ok := atoi(m[1])
		return InputARC{Input: input, Enabled: m[2] == "1"}, ok
	}},
	{"zone-arc", regexp.MustCompile(`^Z(\d)ARC([01])$`), func(m []string) (Response, bool) {
		zone, ok := atoi(m[1])
		return ZoneARC{Zone: zone, Enabled: m[2] == "1"}, ok
	}},
	{"error", regexp.MustCompile(`^!([ERIZ])(.*)$`), func(m []string) (Response, bool) {
		return ReceiverError{Code: ErrorCode(m[1][0]), Detail: m[2]}, true
	}},
}

// ParseResponse decodes one token against every response pattern and
// returns all matches in pattern order. An unrecognised token yields nil.
func ParseResponse(token string) []Response {
	var out []Response
	for _, p := range responsePatterns {
		m := p.re.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		if r, ok := p.decode(m); ok {
			out = append(out, r)
		}
	}
	return out
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
