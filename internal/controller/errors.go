package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Caller mistakes. These are returned, never published.
var (
	ErrNotIdle         = errors.New("controller is not idle")
	ErrInvalidZone     = errors.New("zone must be 1 or 2")
	ErrDuplicateZone   = errors.New("zone already registered")
	ErrUnknownZone     = errors.New("zone not registered")
	ErrNotConnected    = errors.New("not connected to receiver")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorKind is the category of a ControllerError.
type ErrorKind int

const (
	// ErrKindConnection indicates a socket failure or idle timeout. The
	// controller is back to Idle; reconnecting is up to the caller.
	ErrKindConnection ErrorKind = iota
	// ErrKindZoneNotPowered is reported by the receiver (!Z).
	ErrKindZoneNotPowered
	// ErrKindCommandNotSupported indicates a command the receiver's dialect
	// does not have.
	ErrKindCommandNotSupported
	// ErrKindReceiverNotReady indicates a command issued with no session.
	ErrKindReceiverNotReady
	// ErrKindInvalidModelString indicates an IDM report outside the model
	// enumeration. The controller carries on with the fallback model.
	ErrKindInvalidModelString
	// ErrKindCannotExecute is reported by the receiver (!E).
	ErrKindCannotExecute
	// ErrKindOutOfRange is reported by the receiver (!R).
	ErrKindOutOfRange
	// ErrKindInvalidCommand is reported by the receiver (!I) or raised for
	// ARC commands the current configuration cannot accept.
	ErrKindInvalidCommand
	// ErrKindMainZoneOnly indicates a receiver-wide command issued on a
	// secondary zone.
	ErrKindMainZoneOnly
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrKindConnection:
		return "Controller Connection Error"
	case ErrKindZoneNotPowered:
		return "Zone is not powered"
	case ErrKindCommandNotSupported:
		return "Command is not supported by receiver"
	case ErrKindReceiverNotReady:
		return "Receiver not ready for operation"
	case ErrKindInvalidModelString:
		return "Received an invalid model string from receiver"
	case ErrKindCannotExecute:
		return "Received a valid command that cannot be executed"
	case ErrKindOutOfRange:
		return "Controller received an out of range parameter"
	case ErrKindInvalidCommand:
		return "Invalid command received"
	case ErrKindMainZoneOnly:
		return "Command only available on main zone"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ControllerError is an error in the controller's taxonomy. Every
// ControllerError is also published as an ErrorEvent.
type ControllerError struct {
	Kind   ErrorKind
	Detail string // raw detail: rejected command text, model string, etc.
	Err    error  // underlying error (if any)
}

// Error implements the error interface
func (e *ControllerError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *ControllerError) Unwrap() error {
	return e.Err
}

// MarshalJSON encodes the kind name and detail. The underlying error is
// folded into the message.
func (e *ControllerError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		Detail  string `json:"detail,omitempty"`
		Message string `json:"message"`
	}{e.Kind.String(), e.Detail, e.Error()})
}

// receiverErrorKinds maps the receiver's error markers to error kinds.
var receiverErrorKinds = map[byte]ErrorKind{
	'E': ErrKindCannotExecute,
	'R': ErrKindOutOfRange,
	'I': ErrKindInvalidCommand,
	'Z': ErrKindZoneNotPowered,
}

// ClassifyConnectionError returns a short description of a socket error for
// the ConnectionError detail.
func ClassifyConnectionError(err error) string {
	if err == nil {
		return ""
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return "Timeout"
	}

	if errors.Is(err, io.EOF) {
		return "Connection closed by receiver"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return "Receiver refused connection"
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return "Host unreachable"
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return "Network unreachable"
		case errors.Is(opErr.Err, syscall.ECONNRESET):
			return "Connection reset by receiver"
		}
	}

	return err.Error()
}

func kindOf(err error) (ErrorKind, bool) {
	var ce *ControllerError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrKindConnection
}

// IsCommandNotSupported checks if an error is a dialect mismatch
func IsCommandNotSupported(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrKindCommandNotSupported
}

// IsReceiverRejection checks if an error was reported by the receiver
// itself (!E, !R, !I or !Z)
func IsReceiverRejection(err error) bool {
	k, ok := kindOf(err)
	if !ok {
		return false
	}
	switch k {
	case ErrKindCannotExecute, ErrKindOutOfRange, ErrKindInvalidCommand, ErrKindZoneNotPowered:
		return true
	}
	return false
}
