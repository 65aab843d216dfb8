// Package config provides user configuration management for anthemctl.
//
// This package manages a YAML-based configuration file holding named
// receiver profiles (host, port, zones, reconnect delay) and application
// preferences. The configuration follows OS-specific conventions for storage
// location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/anthemctl/config.yaml or $HOME/.config/anthemctl/config.yaml
//   - macOS: $HOME/.config/anthemctl/config.yaml
//   - Windows: %LOCALAPPDATA%\anthemctl\config.yaml
//
// # Example File
//
//	version: 1
//	receivers:
//	  living-room:
//	    host: 192.168.1.100
//	    zones:
//	      - {id: 1, name: Living Room, main: true}
//	      - {id: 2, name: Patio}
//	    reconnect_delay: 2s
//	preferences:
//	  default_receiver: living-room
//	  discover_timeout: 5s
//	  log_level: info
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
