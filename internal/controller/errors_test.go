package controller

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestClassifyConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "read timeout",
			err:  &net.OpError{Op: "read", Net: "tcp", Err: &timeoutError{}},
			want: "Timeout",
		},
		{
			name: "wrapped timeout",
			err:  fmt.Errorf("reading: %w", &timeoutError{}),
			want: "Timeout",
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: "Receiver refused connection",
		},
		{
			name: "host unreachable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH},
			want: "Host unreachable",
		},
		{
			name: "network unreachable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ENETUNREACH},
			want: "Network unreachable",
		},
		{
			name: "dns",
			err:  &net.DNSError{Err: "no such host", Name: "receiver.local", IsNotFound: true},
			want: "DNS resolution failed for receiver.local",
		},
		{
			name: "eof",
			err:  io.EOF,
			want: "Connection closed by receiver",
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyConnectionError(tt.err); got != tt.want {
				t.Errorf("ClassifyConnectionError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestControllerErrorMessage(t *testing.T) {
	err := &ControllerError{Kind: ErrKindOutOfRange, Detail: "Z1PVOL120"}
	if got := err.Error(); got != "Controller received an out of range parameter: Z1PVOL120" {
		t.Errorf("Error() = %q", got)
	}

	cause := errors.New("broken pipe")
	err = &ControllerError{Kind: ErrKindConnection, Detail: "write failed", Err: cause}
	if !strings.Contains(err.Error(), "caused by: broken pipe") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestErrorKindHelpers(t *testing.T) {
	tests := []struct {
		kind          ErrorKind
		connection    bool
		notSupported  bool
		receiverError bool
	}{
		{ErrKindConnection, true, false, false},
		{ErrKindCommandNotSupported, false, true, false},
		{ErrKindCannotExecute, false, false, true},
		{ErrKindOutOfRange, false, false, true},
		{ErrKindInvalidCommand, false, false, true},
		{ErrKindZoneNotPowered, false, false, true},
		{ErrKindMainZoneOnly, false, false, false},
		{ErrKindInvalidModelString, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &ControllerError{Kind: tt.kind})
			if got := IsConnectionError(err); got != tt.connection {
				t.Errorf("IsConnectionError() = %v, want %v", got, tt.connection)
			}
			if got := IsCommandNotSupported(err); got != tt.notSupported {
				t.Errorf("IsCommandNotSupported() = %v, want %v", got, tt.notSupported)
			}
			if got := IsReceiverRejection(err); got != tt.receiverError {
				t.Errorf("IsReceiverRejection() = %v, want %v", got, tt.receiverError)
			}
		})
	}

	if IsConnectionError(errors.New("plain")) {
		t.Error("IsConnectionError(plain) = true, want false")
	}
}

// timeoutError is a mock error that implements timeout behavior
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
