package protocol

import (
	"fmt"
	"strings"
)

// DefaultPort is the TCP port Anthem receivers listen on for IP control.
const DefaultPort = 14999

// Model identifies a receiver model as reported by the IDM? query.
type Model string

// Receiver models known to the controller.
const (
	ModelUndefined Model = ""
	ModelMRX310    Model = "MRX 310"
	ModelMRX510    Model = "MRX 510"
	ModelMRX710    Model = "MRX 710"
	ModelMRX520    Model = "MRX 520"
	ModelMRX720    Model = "MRX 720"
	ModelMRX1120   Model = "MRX 1120"
	ModelMRX540    Model = "MRX 540"
	ModelMRX740    Model = "MRX 740"
	ModelMRX1140   Model = "MRX 1140"
	ModelAVM60     Model = "AVM 60"
	ModelAVM70     Model = "AVM 70"
	ModelAVM90     Model = "AVM 90"
)

// FallbackModel is assumed when the receiver reports a model string that is
// not in the enumeration. It speaks the current dialect so that the session
// can still be configured and inspected.
const FallbackModel = ModelMRX740

// allModels is the closed model enumeration in match order.
var allModels = []Model{
	ModelMRX310,
	ModelMRX510,
	ModelMRX710,
	ModelMRX520,
	ModelMRX720,
	ModelMRX1120,
	ModelMRX540,
	ModelMRX740,
	ModelMRX1140,
	ModelAVM60,
	ModelAVM70,
	ModelAVM90,
}

// legacyModels speak the x10/x20 vocabulary.
var legacyModels = []Model{
	ModelMRX310,
	ModelMRX510,
	ModelMRX710,
	ModelMRX520,
	ModelMRX720,
	ModelMRX1120,
	ModelAVM60,
}

// currentModels speak the x40 vocabulary.
var currentModels = []Model{
	ModelMRX540,
	ModelMRX740,
	ModelMRX1140,
	ModelAVM70,
	ModelAVM90,
}

// Models returns every known receiver model.
func Models() []Model {
	out := make([]Model, len(allModels))
	copy(out, allModels)
	return out
}

// ParseModel matches a model string received after IDM against the
// enumeration. One trailing space is trimmed first, since the receiver pads
// the field. The second result is false when nothing matched.
func ParseModel(s string) (Model, bool) {
	s = TrimPadding(s)
	for _, m := range allModels {
		if string(m) == s {
			return m, true
		}
	}
	return ModelUndefined, false
}

// String returns the model name, or "Undefined" for the zero value.
func (m Model) String() string {
	if m == ModelUndefined {
		return "Undefined"
	}
	return string(m)
}

// IsLegacyDialect reports whether the model speaks the x10/x20 vocabulary.
func (m Model) IsLegacyDialect() bool {
	return containsModel(legacyModels, m)
}

// IsCurrentDialect reports whether the model speaks the x40 vocabulary.
func (m Model) IsCurrentDialect() bool {
	return containsModel(currentModels, m)
}

// Dialect resolves the command vocabulary for the model.
func (m Model) Dialect() Dialect {
	switch {
	case m.IsLegacyDialect():
		return DialectLegacy
	case m.IsCurrentDialect():
		return DialectCurrent
	default:
		return DialectNone
	}
}

func containsModel(set []Model, m Model) bool {
	for _, candidate := range set {
		if candidate == m {
			return true
		}
	}
	return false
}

// Dialect is one of the two incompatible command vocabularies.
type Dialect int

const (
	// DialectNone applies before the model is known.
	DialectNone Dialect = iota
	// DialectLegacy is spoken by MRX x10/x20 and AVM 60.
	DialectLegacy
	// DialectCurrent is spoken by MRX x40 and AVM 70/90.
	DialectCurrent
)

// String returns a human-readable dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectNone:
		return "none"
	case DialectLegacy:
		return "legacy"
	case DialectCurrent:
		return "current"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// legacyALMNames lists listening modes of the legacy dialect by code.
var legacyALMNames = []string{
	"AnthemLogic Movie",
	"AnthemLogic Music",
	"PLIIx Movie",
	"PLIIx Music",
	"Neo:6 Cinema",
	"Neo:6 Music",
	"All Channel Stereo",
	"All Channel Mono",
	"Mono",
	"Mono Academy",
	"Mono(L)",
	"Mono(R)",
	"High Blend",
	"Dolby Surround",
	"Neo:X-Cinema",
	"Neo:X-Music",
}

// currentALMNames lists listening modes of the current dialect, code 1 first.
var currentALMNames = []string{
	"ANTHEM LOGIC CINEMA",
	"ANTHEM LOGIC MUSIC",
	"DOLBY SURROUND",
	"DTS NEURAL X",
	"DTS VIRTUAL X",
	"ALL CHANNEL STEREO",
	"MONO",
	"ALL CHANNEL MONO",
}

// ALMNames returns the display names of the audio listening modes for a
// dialect. It returns nil for DialectNone.
func ALMNames(d Dialect) []string {
	var src []string
	switch d {
	case DialectLegacy:
		src = legacyALMNames
	case DialectCurrent:
		src = currentALMNames
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// ALMName returns the display name of a listening mode code as reported by
// Z<zone>ALM. Legacy codes start at 0, current codes at 1 with 0 meaning
// no mode.
func ALMName(d Dialect, code int) (string, bool) {
	switch d {
	case DialectLegacy:
		if code >= 0 && code < len(legacyALMNames) {
			return legacyALMNames[code], true
		}
	case DialectCurrent:
		if code >= 1 && code <= len(currentALMNames) {
			return currentALMNames[code-1], true
		}
	}
	return "", false
}

// Listening mode codes of the current dialect.
const (
	ALMNone             = 0
	ALMAnthemLogicMovie = 1
	ALMAnthemLogicMusic = 2
	ALMDolbySurround    = 3
	ALMDTSNeuralX       = 4
	ALMDTSVirtualX      = 5
	ALMAllChannelStereo = 6
	ALMMono             = 7
	ALMAllChannelMono   = 8
)

// DolbyMode is the Dolby post-processing mode of an input (current dialect).
type DolbyMode int

// Dolby post-processing modes.
const (
	DolbyOff DolbyMode = iota
	DolbyMovie
	DolbyMusic
	DolbyNight
)

// String returns a human-readable mode name.
func (d DolbyMode) String() string {
	switch d {
	case DolbyOff:
		return "Off"
	case DolbyMovie:
		return "Movie"
	case DolbyMusic:
		return "Music"
	case DolbyNight:
		return "Night"
	default:
		return fmt.Sprintf("DolbyMode(%d)", int(d))
	}
}

// KeyCode is a remote-control key accepted by the SIM command.
type KeyCode string

// Simulated remote keys.
const (
	KeyUp     KeyCode = "0018"
	KeyDown   KeyCode = "0019"
	KeyLeft   KeyCode = "0020"
	KeyRight  KeyCode = "0021"
	KeySelect KeyCode = "0022"
)

// ParseKeyCode maps a key name (up, down, left, right, select) to its code.
func ParseKeyCode(name string) (KeyCode, error) {
	switch strings.ToLower(name) {
	case "up":
		return KeyUp, nil
	case "down":
		return KeyDown, nil
	case "left":
		return KeyLeft, nil
	case "right":
		return KeyRight, nil
	case "select", "enter", "ok":
		return KeySelect, nil
	default:
		return "", fmt.Errorf("unknown key %q", name)
	}
}

// TrimPadding removes exactly one trailing space, if present.
func TrimPadding(s string) string {
	return strings.TrimSuffix(s, " ")
}
