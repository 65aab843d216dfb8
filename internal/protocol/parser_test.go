package protocol

import (
	"reflect"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		token string
		want  []Response
	}{
		{"IDMMRX 740", []Response{ModelReport{Raw: "MRX 740", Model: ModelMRX740, Known: true}}},
		{"IDMMRX 999", []Response{ModelReport{Raw: "MRX 999"}}},
		{"GSN12345ABC", []Response{SerialNumber{Value: "12345ABC"}}},
		{"IDN00:11:22:33:44:55", []Response{MACAddress{Value: "00:11:22:33:44:55"}}},
		{"IDS1.2.3", []Response{SoftwareVersion{Value: "1.2.3"}}},
		{"GCFPB2", []Response{PanelBrightness{Level: 2}}},
		{"IS3DV2", []Response{InputDolby{Input: 3, Mode: DolbyMusic}}},
		{"ICN8", []Response{InputCount{Count: 8}}},
		{"Z1POW1", []Response{ZonePower{Zone: 1, On: true}}},
		{"Z2POW0", []Response{ZonePower{Zone: 2, On: false}}},
		{"Z1ALM3", []Response{ZoneALM{Zone: 1, Mode: 3}}},
		{"Z1MUT1", []Response{ZoneMute{Zone: 1, Muted: true}}},
		{"Z2PVOL45", []Response{ZoneVolumePercent{Zone: 2, Percent: 45}}},
		{"Z1VOL-35", []Response{ZoneVolume{Zone: 1, Volume: -35}}},
		{"Z1VOL-35.5", []Response{ZoneVolume{Zone: 1, Volume: -35.5}}},
		{"IS1INCable Box", []Response{InputName{Index: 1, Name: "Cable Box"}}},
		{"IS12INBlu-ray", []Response{InputName{Index: 12, Name: "Blu-ray"}}},
		{"IS2INHDMI IN 2", []Response{InputName{Index: 2, Name: "HDMI IN 2"}}},
		{"ISN03Game", []Response{InputName{Index: 3, Name: "Game", Legacy: true}}},
		{"Z1INP3", []Response{ZoneInput{Zone: 1, Input: 3}}},
		{"Z1SMD1", []Response{MenuVisible{Visible: true}}},
		{"Z1ARCVAL1", []Response{ARCConfigured{Configured: true}}},
		{"IS4ARC0", []Response{InputARC{Input: 4, Enabled: false}}},
		{"Z1ARC1", []Response{ZoneARC{Zone: 1, Enabled: true}}},
		{"!EZ1POW1", []Response{ReceiverError{Code: ErrorCannotExecute, Detail: "Z1POW1"}}},
		{"!RZ1PVOL120", []Response{ReceiverError{Code: ErrorOutOfRange, Detail: "Z1PVOL120"}}},
		{"!IZ9FOO", []Response{ReceiverError{Code: ErrorInvalidCommand, Detail: "Z9FOO"}}},
		{"!ZZ2INP1", []Response{ReceiverError{Code: ErrorZoneNotPowered, Detail: "Z2INP1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := ParseResponse(tt.token)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseResponse(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestParseResponseUnrecognised(t *testing.T) {
	for _, token := range []string{
		"",
		"HELLO",
		"Z1POW2",
		"Z1POWX",
		"Z1POW?",
		"Z1ARCVAL",
		"!X",
		"ISINfoo",
		"ISN0",
		"ICN",
		"IS0INZero",
	} {
		if got := ParseResponse(token); got != nil {
			t.Errorf("ParseResponse(%q) = %v, want nil", token, got)
		}
	}
}

func TestParseResponsePatternsAreDisjointForARC(t *testing.T) {
	// Z1ARCVAL must not also be taken for a zone ARC report.
	got := ParseResponse("Z1ARCVAL0")
	if len(got) != 1 {
		t.Fatalf("ParseResponse(Z1ARCVAL0) = %v, want one response", got)
	}
	if _, ok := got[0].(ARCConfigured); !ok {
		t.Errorf("ParseResponse(Z1ARCVAL0)[0] = %T, want ARCConfigured", got[0])
	}
}

func TestResponsePrefix(t *testing.T) {
	tests := []struct {
		resp Response
		want string
	}{
		{ZonePower{}, "POW"},
		{InputName{}, "ISIN"},
		{InputName{Legacy: true}, "ISN"},
		{ReceiverError{Code: ErrorOutOfRange}, "!R"},
	}
	for _, tt := range tests {
		if got := tt.resp.Prefix(); got != tt.want {
			t.Errorf("%T.Prefix() = %q, want %q", tt.resp, got, tt.want)
		}
	}
}
