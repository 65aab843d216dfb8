package controller

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/muurk/anthemctl/internal/logging"
	"github.com/muurk/anthemctl/internal/protocol"
	"go.uber.org/zap"
)

const readBufferSize = 4096

// Connect starts a session with the receiver at host:port and returns
// immediately; progress is reported on the event stream. Connect is only
// allowed from Idle. A port of 0 selects protocol.DefaultPort.
//
// The session ends when ctx is done, on a socket error, after the idle
// timeout, or on Close. All but Close publish a ConnectionError. The
// controller never reconnects by itself.
func (c *Controller) Connect(ctx context.Context, host string, port int) error {
	if port == 0 {
		port = protocol.DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}

	c.resetSession()
	c.state = StateConfiguring
	c.session++
	id := c.session
	c.remote = addr

	sctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	logging.LogConnection(addr, "connecting")
	go c.run(sctx, id, addr)
	return nil
}

// Close ends the session without publishing a ConnectionError. It is safe to
// call in any state.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle && c.conn == nil {
		c.keepAlive.stop()
		return nil
	}
	logging.LogConnection(c.remote, "closed")
	c.teardown()
	return nil
}

// run dials the receiver, requests the model and reads until the session
// ends.
func (c *Controller) run(ctx context.Context, id uint64, addr string) {
	conn, err := c.opts.Dial(ctx, "tcp", addr)
	if err != nil {
		c.fail(id, err)
		return
	}

	var stale bool
	c.do(func() {
		if c.session != id {
			stale = true
			return
		}
		c.conn = conn
		c.w = conn
		logging.LogConnection(addr, "connected")

		// The model decides the dialect of everything that follows.
		c.batch.queue(protocol.QueryModel)
		_ = c.flush()
	})
	if stale {
		_ = conn.Close()
		return
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	buf := make([]byte, readBufferSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout)); err != nil {
			c.fail(id, err)
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			c.receive(id, buf[:n])
		}
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, net.ErrClosed) {
				err = context.Cause(ctx)
			}
			c.fail(id, err)
			return
		}
	}
}

// receive frames a chunk and dispatches every complete token.
func (c *Controller) receive(id uint64, chunk []byte) {
	c.do(func() {
		if c.session != id {
			return
		}
		for _, token := range c.framer.Feed(chunk) {
			c.handleToken(token)
			if c.state == StateIdle {
				// A write failed while handling the token.
				return
			}
		}
	})
}

// fail tears down session id after a socket error and publishes a
// ConnectionError. Errors from a session that has already ended are ignored.
func (c *Controller) fail(id uint64, err error) {
	c.do(func() {
		if c.session != id || c.state == StateIdle {
			return
		}
		detail := ClassifyConnectionError(err)
		logging.Warn("Receiver connection lost",
			zap.String("remote_addr", c.remote),
			zap.String("reason", detail),
			zap.Error(err),
		)
		c.teardown()
		c.fault(ErrKindConnection, detail, err)
	})
}

// flush writes the queued batch as one write. A write error tears the
// session down and is returned as a ConnectionError. Caller must hold mu.
func (c *Controller) flush() error {
	if c.batch.len() == 0 {
		return nil
	}
	text := c.batch.drain()
	c.emit(DebugLine{Text: "Sending: " + text})

	if c.w == nil {
		return ErrNotConnected
	}

	logging.LogWire(c.remote, "tx", text)
	if c.conn != nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	if _, err := io.WriteString(c.w, text); err != nil {
		detail := ClassifyConnectionError(err)
		c.teardown()
		return c.fault(ErrKindConnection, detail, err)
	}
	return nil
}

// teardown drops the socket and returns to Idle. Any goroutine or timer
// still holding the old session id becomes a no-op. Caller must hold mu.
func (c *Controller) teardown() {
	c.keepAlive.stop()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.w = nil
	c.framer.Reset()
	c.batch.reset()
	c.state = StateIdle
	c.session++
}

// armKeepAlive schedules the next model query for the current session.
// Caller must hold mu.
func (c *Controller) armKeepAlive() {
	id := c.session
	c.keepAlive.arm(func() {
		c.do(func() {
			if c.session != id || c.state != StateOperational {
				return
			}
			c.batch.queue(protocol.QueryModel)
			_ = c.flush()
		})
	})
}
