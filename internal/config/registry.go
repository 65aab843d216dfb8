package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "anthemctl"
	configFile = "config.yaml"
)

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/anthemctl or $HOME/.config/anthemctl
//   - macOS: $HOME/.config/anthemctl (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\anthemctl
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadRegistry loads the configuration registry from the default path.
// If the file doesn't exist, returns a new default registry.
// Thread-safe - multiple calls will return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		configPath, err := GetConfigPath()
		if err != nil {
			globalRegistryErr = fmt.Errorf("failed to get config path: %w", err)
			return
		}
		globalRegistry, globalRegistryErr = LoadFile(configPath)
	})
	return globalRegistry, globalRegistryErr
}

// LoadFile reads and validates a registry from path. A missing file yields
// a new default registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	if registry.Receivers == nil {
		registry.Receivers = make(map[string]*Receiver)
	}
	if registry.Preferences == nil {
		registry.Preferences = defaultPreferences()
	}
	if registry.Preferences.DiscoverTimeout == 0 {
		registry.Preferences.DiscoverTimeout = Duration(5 * time.Second)
	}

	return &registry, nil
}

// Save saves the registry to the default path.
func (r *Registry) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveFile(configPath)
}

// SaveFile writes the registry to path.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) SaveFile(path string) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# anthemctl configuration file
# Receiver profiles and preferences for the Anthem IP control client.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a configuration with one example profile.
// It refuses to overwrite an existing file.
func CreateDefaultConfig() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return configPath, CreateDefaultConfigFile(configPath)
}

// CreateDefaultConfigFile is CreateDefaultConfig for an explicit path.
func CreateDefaultConfigFile(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	registry := NewRegistry()
	registry.Receivers["living-room"] = &Receiver{
		Host: "192.168.1.100",
		Port: 14999,
		Zones: []Zone{
			{ID: 1, Name: "Living Room", Main: true},
			{ID: 2, Name: "Patio"},
		},
		ReconnectDelay: Duration(2 * time.Second),
	}
	registry.Preferences.DefaultReceiver = "living-room"
	registry.Preferences.LogLevel = "info"

	return registry.SaveFile(configPath)
}
