// Package relay bridges a controller to WebSocket clients.
//
// Every client receives a hello message with the server build info and a
// snapshot of the controller state, then one JSON message per controller
// event:
//
//	{"type":"event","event":"ZoneVolumePercentageChange","payload":{"zone":1,"percent":45}}
//
// Clients send commands as JSON requests and get a result for each:
//
//	-> {"id":"7","op":"volume","zone":1,"value":45}
//	<- {"type":"result","id":"7","ok":true}
//
// Supported ops: power, mute, mute_toggle, volume, volume_up, volume_down,
// input, next_input, mode, mode_up, mode_down, arc, dolby, brightness, key,
// menu, refresh and snapshot. The zone defaults to 1.
//
// Raw wire traffic (ShowDebugInfo events) is only forwarded when
// Config.ForwardDebug is set. A client that cannot keep up with the event
// stream is disconnected.
package relay
