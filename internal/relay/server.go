package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/logging"
	"github.com/muurk/anthemctl/internal/version"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outbound messages buffered per client before it is dropped as slow
	sendBuffer = 256
)

// Config holds the relay configuration
type Config struct {
	Host string
	Port int
	// ForwardDebug relays raw wire traffic (DebugLine events) to clients.
	ForwardDebug bool
}

// Server bridges a controller's event stream to WebSocket clients and
// applies their JSON commands.
type Server struct {
	config   Config
	ctrl     Controller
	upgrader websocket.Upgrader
	listener net.Listener
	http     *http.Server
	wg       sync.WaitGroup

	mu          sync.Mutex
	activeConns map[*client]struct{}
	unsubscribe func()
}

// New creates a relay for ctrl. It subscribes to the controller at once, so
// events published before Start are delivered to nobody.
func New(config Config, ctrl Controller) *Server {
	s := &Server{
		config: config,
		ctrl:   ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		activeConns: make(map[*client]struct{}),
	}
	s.unsubscribe = ctrl.Subscribe(s.broadcast)
	return s
}

// Handler returns the HTTP routes: /ws for the WebSocket bridge and
// /healthz for a JSON status check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start listens and serves until ctx is done, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Relay listening for connections",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("forward_debug", s.config.ForwardDebug),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the listening address once Start has bound it.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting clients, closes active ones and detaches from
// the controller.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down relay...")

	s.unsubscribe()

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}

	s.mu.Lock()
	for c := range s.activeConns {
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All relay clients closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of connected clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":   s.ctrl.State().String(),
		"model":   s.ctrl.Model(),
		"clients": s.GetActiveConnections(),
		"version": version.Info(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := newClient(conn, r.RemoteAddr)
	logging.LogConnection(c.remote, "websocket_upgraded")

	// Holding mu keeps broadcast out until greeting and snapshot are
	// queued. An event published after the snapshot was taken is then
	// queued behind it instead of being lost.
	s.mu.Lock()
	c.enqueue(Envelope{Type: TypeHello, Payload: Hello{Server: version.Info()}})
	c.enqueue(Envelope{Type: TypeSnapshot, Payload: SnapshotOf(s.ctrl)})
	s.activeConns[c] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		s.readPump(c)
	}()
}

// readPump applies client requests until the connection fails.
func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.activeConns, c)
		s.mu.Unlock()
		c.close()
		logging.LogConnection(c.remote, "websocket_closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Relay client connection error",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(c.remote, "received", msgType, data)

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.enqueue(resultEnvelope("", fmt.Errorf("malformed request: %w", err)))
			continue
		}

		if req.Op == TypeSnapshot {
			c.enqueue(Envelope{Type: TypeSnapshot, ID: req.ID, Payload: SnapshotOf(s.ctrl)})
			continue
		}

		err = dispatch(s.ctrl, req)
		if err != nil {
			logging.Debug("Relay command failed",
				zap.String("remote_addr", c.remote),
				zap.String("op", req.Op),
				zap.Error(err),
			)
		}
		c.enqueue(resultEnvelope(req.ID, err))
	}
}

// broadcast is the controller subscription. It runs on the controller's
// goroutines and never blocks on a client.
func (s *Server) broadcast(ev controller.Event) {
	if ev.Kind() == controller.EventDebugLine && !s.config.ForwardDebug {
		return
	}
	env := EventEnvelope(ev)

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.activeConns {
		if !c.enqueue(env) {
			logging.Warn("Dropping slow relay client",
				zap.String("remote_addr", c.remote),
			)
			delete(s.activeConns, c)
			c.close()
		}
	}
}
