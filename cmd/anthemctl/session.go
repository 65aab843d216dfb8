package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/anthemctl/internal/config"
	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/logging"
)

const defaultSettle = 2 * time.Second

// Session timing flags
var (
	readyTimeout  time.Duration
	settleTimeout time.Duration
)

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&readyTimeout, "timeout", 15*time.Second, "How long to wait for the receiver to become ready")
}

func addCommandFlags(cmd *cobra.Command) {
	addSessionFlags(cmd)
	addZoneFlag(cmd)
	cmd.Flags().DurationVar(&settleTimeout, "settle", defaultSettle, "How long to wait for the receiver to confirm the command")
}

func addZoneFlag(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&zoneFlag, "zone", "z", 1, "Zone to control (1 = main, 2 = zone 2)")
}

// target is a resolved receiver address with the zones to register.
type target struct {
	Name  string
	Host  string
	Port  int
	Zones []config.Zone
	Delay time.Duration
}

func (t target) label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Host
}

// resolveTarget picks the receiver from --host or a config profile.
func resolveTarget() (target, error) {
	if hostFlag != "" {
		rcv := &config.Receiver{Host: hostFlag, Port: portFlag}
		return target{Host: rcv.Host, Port: rcv.ControlPort(), Zones: rcv.ZoneList()}, nil
	}

	reg, err := loadRegistry()
	if err != nil {
		return target{}, err
	}
	name, rcv, err := reg.Resolve(receiverName)
	if err != nil {
		return target{}, fmt.Errorf("%w (use --host, or add a profile with 'anthemctl config add')", err)
	}

	t := target{
		Name:  name,
		Host:  rcv.Host,
		Port:  rcv.ControlPort(),
		Zones: rcv.ZoneList(),
		Delay: rcv.ReconnectDelay.Std(),
	}
	if portFlag != 0 {
		t.Port = portFlag
	}
	return t, nil
}

// newController creates an idle controller with the target's zones.
func newController(t target) (*controller.Controller, error) {
	ctrl := controller.New(controller.Options{})
	for _, z := range t.Zones {
		if err := ctrl.AddZone(z.ID, z.Name, z.Main); err != nil {
			return nil, fmt.Errorf("zone %d: %w", z.ID, err)
		}
	}
	return ctrl, nil
}

// openSession connects to the target and blocks until the controller is
// operational.
func openSession(ctx context.Context, t target) (*controller.Controller, error) {
	ctrl, err := newController(t)
	if err != nil {
		return nil, err
	}

	ready := make(chan error, 1)
	unsubscribe := ctrl.Subscribe(func(ev controller.Event) {
		var result error
		switch e := ev.(type) {
		case controller.ControllerReady:
		case controller.ErrorEvent:
			if !controller.IsConnectionError(e.Err) {
				return
			}
			result = e.Err
		default:
			return
		}
		select {
		case ready <- result:
		default:
		}
	})
	defer unsubscribe()

	if err := ctrl.Connect(ctx, t.Host, t.Port); err != nil {
		return nil, err
	}

	timer := time.NewTimer(readyTimeout)
	defer timer.Stop()

	select {
	case err := <-ready:
		if err != nil {
			_ = ctrl.Close()
			return nil, err
		}
	case <-timer.C:
		_ = ctrl.Close()
		return nil, fmt.Errorf("receiver at %s did not become ready within %s", t.Host, readyTimeout)
	case <-ctx.Done():
		_ = ctrl.Close()
		return nil, ctx.Err()
	}

	recordSeen(t, ctrl)
	return ctrl, nil
}

// recordSeen stores the reported model on the target's profile.
func recordSeen(t target, ctrl *controller.Controller) {
	if t.Name == "" {
		return
	}
	reg, err := loadRegistry()
	if err != nil {
		return
	}
	if reg.GetReceiver(t.Name) == nil {
		return
	}
	reg.UpdateReceiverSeen(t.Name, ctrl.Model())
	if err := saveRegistry(reg); err != nil {
		logging.Warn("Failed to record receiver model",
			zap.String("receiver", t.Name),
			zap.Error(err),
		)
	}
}

// expectation matches the event that confirms a command.
type expectation func(controller.Event) bool

// runCommand issues a command on an operational controller and waits until
// the receiver confirms it, rejects it, or settleTimeout passes. Receivers
// report rejections asynchronously, so a nil return from send alone does
// not mean the command took effect.
func runCommand(ctx context.Context, ctrl *controller.Controller, send func() error, expect expectation) (confirmed bool, err error) {
	events := make(chan controller.Event, 32)
	unsubscribe := ctrl.Subscribe(func(ev controller.Event) {
		switch ev.(type) {
		case controller.DebugLine:
			return
		}
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	if err := send(); err != nil {
		return false, err
	}

	timer := time.NewTimer(settleTimeout)
	defer timer.Stop()

	for {
		select {
		case ev := <-events:
			if e, ok := ev.(controller.ErrorEvent); ok {
				return false, e.Err
			}
			if expect != nil && expect(ev) {
				return true, nil
			}
		case <-timer.C:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// withSession resolves the target, opens a session, runs fn and closes the
// session.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, t target, ctrl *controller.Controller) error) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ctrl, err := openSession(ctx, t)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", t.label(), err)
	}
	defer func() { _ = ctrl.Close() }()

	return fn(ctx, t, ctrl)
}

// zoneOf returns the zone selected by --zone.
func zoneOf(ctrl *controller.Controller) (controller.Zone, error) {
	z, ok := ctrl.Zone(zoneFlag)
	if !ok {
		return controller.Zone{}, fmt.Errorf("zone %d: %w", zoneFlag, controller.ErrUnknownZone)
	}
	return z, nil
}
