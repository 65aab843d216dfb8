package controller

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/anthemctl/internal/logging"
	"github.com/muurk/anthemctl/internal/protocol"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// wireBuffer is a goroutine-safe stand-in for the socket's write side.
type wireBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *wireBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// take returns everything written so far and clears the buffer.
func (w *wireBuffer) take() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.buf.String()
	w.buf.Reset()
	return s
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 1024)}
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.ch <- ev:
	default:
	}
}

// state returns recorded events without debug lines.
func (r *recorder) state() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind() != EventDebugLine {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) of(kind EventKind) []Event {
	var out []Event
	for _, ev := range r.state() {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) errors() []*ControllerError {
	var out []*ControllerError
	for _, ev := range r.of(EventControllerError) {
		out = append(out, ev.(ErrorEvent).Err)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
	for {
		select {
		case <-r.ch:
		default:
			return
		}
	}
}

// waitFor reads events until match returns true or the timeout expires.
func (r *recorder) waitFor(t *testing.T, timeout time.Duration, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-r.ch:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out after %v waiting for event", timeout)
			return nil
		}
	}
}

func isKind(kind EventKind) func(Event) bool {
	return func(ev Event) bool { return ev.Kind() == kind }
}

// newAttached returns a controller with zones 1 (main) and 2 attached to an
// in-memory wire, as if a session were already open in the given state.
func newAttached(t *testing.T, model protocol.Model, state State) (*Controller, *wireBuffer, *recorder) {
	t.Helper()
	logging.SetLogger(zaptest.NewLogger(t))
	t.Cleanup(func() { logging.SetLogger(nil) })

	c := New(Options{KeepAliveInterval: -1})
	require.NoError(t, c.AddZone(1, "Main", true))
	require.NoError(t, c.AddZone(2, "Zone 2", false))

	wire := &wireBuffer{}
	c.mu.Lock()
	c.w = wire
	c.state = state
	c.model = model
	c.configureSent = model != protocol.ModelUndefined
	c.mu.Unlock()

	rec := newRecorder()
	c.Subscribe(rec.record)
	t.Cleanup(func() { _ = c.Close() })
	return c, wire, rec
}

// feed delivers a chunk on the controller's current session.
func feed(c *Controller, chunk string) {
	c.mu.Lock()
	id := c.session
	c.mu.Unlock()
	c.receive(id, []byte(chunk))
}

// fakeReceiver is a loopback TCP server that answers queries from a script.
type fakeReceiver struct {
	t  *testing.T
	ln net.Listener

	mu       sync.Mutex
	replies  map[string]string
	received []string
	conns    []net.Conn
}

func newFakeReceiver(t *testing.T, replies map[string]string) *fakeReceiver {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeReceiver{t: t, ln: ln, replies: replies}
	go f.accept()
	t.Cleanup(func() {
		_ = ln.Close()
		f.dropConnections()
	})
	return f
}

func (f *fakeReceiver) addr() (string, int) {
	a := f.ln.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

func (f *fakeReceiver) accept() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()
		go f.serve(conn)
	}
}

func (f *fakeReceiver) serve(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Split(splitSemicolon)
	for scanner.Scan() {
		token := scanner.Text()
		f.mu.Lock()
		f.received = append(f.received, token)
		reply, ok := f.replies[token]
		f.mu.Unlock()
		if ok {
			if _, err := conn.Write([]byte(reply)); err != nil {
				return
			}
		}
	}
}

// setReply changes the scripted answer to a query.
func (f *fakeReceiver) setReply(query, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[query] = reply
}

// push writes unsolicited text to every open connection.
func (f *fakeReceiver) push(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.conns {
		_, _ = conn.Write([]byte(text))
	}
}

func (f *fakeReceiver) dropConnections() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.conns {
		_ = conn.Close()
	}
	f.conns = nil
}

func (f *fakeReceiver) hasReceived(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.received {
		if r == token {
			return true
		}
	}
	return false
}

func splitSemicolon(data []byte, atEOF bool) (int, []byte, error) {
	if i := strings.IndexByte(string(data), ';'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// mrx740Script answers the handshake of a single-zone MRX 740 with zone 1
// powered on.
func mrx740Script() map[string]string {
	return map[string]string{
		"IDM?":      "IDMMRX 740 ;",
		"IDS?":      "IDS1.2.3;",
		"GSN?":      "GSN0123456789;",
		"ICN?":      "ICN2;",
		"Z1ARCVAL?": "Z1ARCVAL1;",
		"Z1POW?":    "Z1POW1;",
		"IS1IN?":    "IS1INTV;",
		"IS2IN?":    "IS2INBlu-ray;",
		"Z1INP?":    "Z1INP2;",
		"Z1MUT?":    "Z1MUT0;",
		"Z1VOL?":    "Z1VOL-40;",
		"Z1PVOL?":   "Z1PVOL40;",
		"Z1SMD?":    "Z1SMD0;",
		"GCFPB?":    "GCFPB1;",
		"Z1ALM?":    "Z1ALM1;",
		"IS2DV?":    "IS2DV0;",
		"IS2ARC?":   "IS2ARC1;",
		"Z1POW0":    "Z1POW0;",
		"Z1PVOL55":  "Z1PVOL55;",
	}
}
