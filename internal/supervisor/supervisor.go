// Package supervisor keeps a controller connected to its receiver.
//
// The controller never reconnects by itself: a lost session surfaces as a
// ConnectionError and the controller returns to Idle. A Supervisor watches
// for that error and calls Connect again after an exponential backoff. The
// backoff restarts whenever a ready session drops.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/logging"
	"go.uber.org/zap"
)

// Default backoff bounds.
const (
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// ErrGaveUp is returned by Run when MaxElapsed passes without the receiver
// becoming ready.
var ErrGaveUp = errors.New("supervisor: gave up reconnecting")

// Connector is the part of *controller.Controller a Supervisor drives.
type Connector interface {
	Connect(ctx context.Context, host string, port int) error
	Subscribe(fn func(controller.Event)) (unsubscribe func())
	Close() error
}

// Options tunes the reconnect policy. Zero values select the defaults.
type Options struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// MaxElapsed bounds the time spent reconnecting since the last ready
	// session dropped. Zero retries forever.
	MaxElapsed time.Duration
}

type signal int

const (
	signalReady signal = iota
	signalLost
)

type notice struct {
	sig   signal
	cause *controller.ControllerError
}

// Supervisor reconnects a controller after connection errors.
type Supervisor struct {
	conn Connector
	host string
	port int
	opts Options

	mu             sync.Mutex
	attempts       int
	onReconnecting func(attempt int, delay time.Duration, cause *controller.ControllerError)
}

// New returns a Supervisor for the receiver at host:port.
func New(conn Connector, host string, port int, opts Options) *Supervisor {
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.MaxDelay < opts.InitialDelay {
		opts.MaxDelay = opts.InitialDelay
	}
	return &Supervisor{conn: conn, host: host, port: port, opts: opts}
}

// OnReconnecting sets a callback invoked before each reconnect wait.
func (s *Supervisor) OnReconnecting(fn func(attempt int, delay time.Duration, cause *controller.ControllerError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReconnecting = fn
}

// Attempts returns the number of reconnects since the last ready session.
func (s *Supervisor) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Supervisor) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialDelay
	b.MaxInterval = s.opts.MaxDelay
	b.MaxElapsedTime = s.opts.MaxElapsed
	b.Reset()
	return b
}

// Run connects and keeps reconnecting until ctx is done, then closes the
// controller and returns ctx's error. It returns ErrGaveUp when MaxElapsed
// is exceeded, and any error Connect itself returns.
func (s *Supervisor) Run(ctx context.Context) error {
	// Per session the controller publishes at most one ready and one lost
	// notice, and Run drains the channel between sessions.
	notices := make(chan notice, 16)
	unsubscribe := s.conn.Subscribe(func(ev controller.Event) {
		var n notice
		switch e := ev.(type) {
		case controller.ControllerReady:
			n = notice{sig: signalReady}
		case controller.ErrorEvent:
			if !controller.IsConnectionError(e.Err) {
				return
			}
			n = notice{sig: signalLost, cause: e.Err}
		default:
			return
		}
		select {
		case notices <- n:
		default:
		}
	})
	defer unsubscribe()

	b := s.newBackOff()
	for {
		if err := s.conn.Connect(ctx, s.host, s.port); err != nil {
			if !errors.Is(err, controller.ErrNotIdle) {
				_ = s.conn.Close()
				return fmt.Errorf("supervisor: connect: %w", err)
			}
		}

		cause, err := s.waitLost(ctx, notices, b)
		if err != nil {
			_ = s.conn.Close()
			return err
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			logging.Error("Giving up on receiver",
				zap.String("host", s.host),
				zap.Int("attempts", s.Attempts()),
				zap.Error(cause),
			)
			return fmt.Errorf("%w: %v", ErrGaveUp, cause)
		}

		attempt, notify := s.nextAttempt()
		logging.Info("Reconnecting to receiver",
			zap.String("host", s.host),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("reason", cause.Detail),
		)
		if notify != nil {
			notify(attempt, delay, cause)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = s.conn.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// waitLost blocks until the current session is lost. When the session
// became ready first, b is reset at the drop so MaxElapsed counts only the
// time spent reconnecting.
func (s *Supervisor) waitLost(ctx context.Context, notices <-chan notice, b *backoff.ExponentialBackOff) (*controller.ControllerError, error) {
	wasReady := false
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case n := <-notices:
			switch n.sig {
			case signalReady:
				wasReady = true
				s.mu.Lock()
				s.attempts = 0
				s.mu.Unlock()
			case signalLost:
				if wasReady {
					b.Reset()
				}
				return n.cause, nil
			}
		}
	}
}

func (s *Supervisor) nextAttempt() (int, func(int, time.Duration, *controller.ControllerError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	return s.attempts, s.onReconnecting
}
