// Package protocol implements the Anthem receiver IP control protocol.
//
// This package handles the text vocabulary spoken by Anthem MRX and AVM
// receivers over TCP port 14999: building command tokens, framing the
// inbound byte stream into tokens, and decoding tokens into typed
// responses. It holds no connection state; the controller package owns the
// socket and the receiver state.
//
// # Protocol Overview
//
// Every request and response is an ASCII token terminated by a semicolon.
// Several tokens may share one TCP write and there is no length prefix,
// binary framing or checksum:
//
//	Z1POW1;Z1INP3;Z1PVOL45;
//
// Queries end with a question mark (Z1POW?), commands carry their argument
// in place of it (Z1POW1). Responses echo the command form with the current
// value.
//
// # Dialects
//
// Two generations of firmware speak incompatible variants of the vocabulary.
// The dialect is a pure function of the receiver model reported by IDM?:
//   - Legacy: MRX 310/510/710, MRX 520/720/1120, AVM 60
//   - Current: MRX 540/740/1140, AVM 70/90
//
// Builders whose wire form differs by dialect take a Dialect argument and
// return ErrUnsupported when the command does not exist in that dialect.
//
// # Usage Example - Construction
//
//	model, _ := protocol.ParseModel("MRX 740")
//	token, err := protocol.BuildVolumeUp(model.Dialect(), 1)
//	if err != nil {
//	    return err
//	}
//	conn.Write([]byte(token + protocol.Delimiter))
//
// # Usage Example - Parsing
//
//	var framer protocol.Framer
//	for _, token := range framer.Feed(chunk) {
//	    for _, resp := range protocol.ParseResponse(token) {
//	        switch r := resp.(type) {
//	        case protocol.ZonePower:
//	            fmt.Printf("zone %d powered=%v\n", r.Zone, r.On)
//	        }
//	    }
//	}
//
// # Thread Safety
//
// Builders and ParseResponse are stateless and safe for concurrent use.
// A Framer carries a partial token between calls and must not be shared.
package protocol
