package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/relay"
	"github.com/muurk/anthemctl/internal/supervisor"
	"github.com/muurk/anthemctl/internal/ui"
)

// Supervision flags
var (
	maxReconnectDelay time.Duration
	giveUpAfter       time.Duration
	showDebug         bool
)

func addSupervisorFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&maxReconnectDelay, "max-delay", supervisor.DefaultMaxDelay, "Longest wait between reconnect attempts")
	cmd.Flags().DurationVar(&giveUpAfter, "give-up-after", 0, "Stop reconnecting after this long without a ready session (0 = never)")
}

func init() {
	addSupervisorFlags(watchCmd)
	watchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print events as JSON lines instead of the dashboard")
	watchCmd.Flags().BoolVar(&showDebug, "debug", false, "Include raw protocol traffic in JSON output")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the receiver live",
	Long: `Connect to the receiver and follow its state as it changes, whether the
change came from this tool, the remote, the front panel or another app.

On a terminal this opens a dashboard that can also drive the selected zone.
When output is not a terminal, or with --json, every event is printed as
one JSON line in the same envelope the relay uses.

The session is re-established with exponential backoff when the receiver
drops the connection.`,
	Example: `  # Dashboard
  anthemctl watch

  # Event log for scripts
  anthemctl watch --json | jq .event`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

// newSupervisor creates an idle controller for t and the supervisor that
// keeps it connected.
func newSupervisor(t target) (*controller.Controller, *supervisor.Supervisor, error) {
	ctrl, err := newController(t)
	if err != nil {
		return nil, nil, err
	}
	sup := supervisor.New(ctrl, t.Host, t.Port, supervisor.Options{
		InitialDelay: t.Delay,
		MaxDelay:     maxReconnectDelay,
		MaxElapsed:   giveUpAfter,
	})
	return ctrl, sup, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	ctrl, sup, err := newSupervisor(t)
	if err != nil {
		return err
	}

	if jsonOutput || !ui.IsTerminal() {
		return watchJSON(cmd.Context(), ctrl, sup)
	}
	return watchDashboard(cmd.Context(), ctrl, sup)
}

// watchJSON prints events until the context is cancelled.
func watchJSON(ctx context.Context, ctrl *controller.Controller, sup *supervisor.Supervisor) error {
	var mu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	unsubscribe := ctrl.Subscribe(func(ev controller.Event) {
		if _, ok := ev.(controller.DebugLine); ok && !showDebug {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(relay.EventEnvelope(ev))
	})
	defer unsubscribe()

	return ignoreCanceled(sup.Run(ctx))
}

// watchDashboard runs the supervisor behind the dashboard until the user
// quits.
func watchDashboard(ctx context.Context, ctrl *controller.Controller, sup *supervisor.Supervisor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	supErr := make(chan error, 1)
	err := ui.RunDashboard(ctrl, func(p *tea.Program) {
		sup.OnReconnecting(func(attempt int, delay time.Duration, _ *controller.ControllerError) {
			p.Send(ui.ReconnectingMsg{Attempt: attempt, Delay: delay})
		})
		go func() {
			err := sup.Run(ctx)
			supErr <- err
			if err != nil && !errors.Is(err, context.Canceled) {
				p.Quit()
			}
		}()
	})
	cancel()
	if err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return ignoreCanceled(<-supErr)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
