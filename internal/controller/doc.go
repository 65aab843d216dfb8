// Package controller keeps a control session with an Anthem A/V receiver.
//
// A Controller owns one TCP connection, learns the receiver model and with
// it the protocol dialect, collects identity, zone and input state during a
// configuration handshake, and then publishes change events for as long as
// the session lasts, whether the change came from this client, another
// client or the receiver's own remote.
//
// # Lifecycle
//
//	Idle --Connect--> Configuring --all state observed--> Operational
//	  ^                    |                                   |
//	  +---- socket error, idle timeout, Close ----------------+
//
// Zones are registered while Idle. Commands need a session. Readiness is
// announced once per connection with ControllerReady; ConnectionError
// returns the controller to Idle and reconnecting is left to the caller
// (see package supervisor).
//
// # Usage
//
//	c := controller.New(controller.Options{})
//	_ = c.AddZone(1, "Living Room", true)
//	unsubscribe := c.Subscribe(func(ev controller.Event) {
//	    if p, ok := ev.(controller.ZonePowerChanged); ok {
//	        fmt.Println("zone", p.Zone, "on:", p.On)
//	    }
//	})
//	defer unsubscribe()
//	if err := c.Connect(ctx, "192.168.1.40", 0); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// All methods are safe for concurrent use. Subscribers run on the goroutine
// that produced the event, after the controller's lock is released.
package controller
