// Package ui provides terminal UI components for the anthemctl CLI.
//
// This package uses Bubble Tea and Lipgloss to render receiver state. It has
// two modes:
//
//   - One-shot output: Printer renders headers, result boxes and the zone
//     table for commands that connect, act and exit.
//   - Live dashboard: DashboardModel follows the controller's event stream
//     and drives the selected zone from the keyboard.
//
// # Dashboard
//
// A Feed subscribes to the controller and hands events to the program one
// at a time. On every event the model re-reads the zone snapshot from the
// controller, so the table never depends on seeing every event:
//
//	err := ui.RunDashboard(ctrl, func(p *tea.Program) {
//	    sup.OnReconnecting(func(attempt int, delay time.Duration, _ *controller.ControllerError) {
//	        p.Send(ui.ReconnectingMsg{Attempt: attempt, Delay: delay})
//	    })
//	})
//
// # Logging Integration
//
// zap logging is silent unless ANTHEMCTL_LOG_LEVEL or --log-level is set,
// so the curated output is displayed cleanly. Logs go to stderr; use
// `anthemctl watch --log-level debug 2>watch.log` to keep them out of the
// dashboard.
package ui
