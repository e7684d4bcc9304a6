// Package config holds the daemon configuration: the camera roster and
// the serving/stream settings, persisted as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cdaudt/camlink/internal/logger"
)

// CameraConfig describes one network camera.
type CameraConfig struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	// Backend pins a capture backend ("opencv", "gstreamer"). Empty
	// means route by address.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
}

// StreamConfig controls the capture loop and preview output.
type StreamConfig struct {
	FPS         int `json:"fps" yaml:"fps"`
	Width       int `json:"width" yaml:"width"`   // 0 = native
	Height      int `json:"height" yaml:"height"` // 0 = native
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`
}

// Config is the full daemon configuration.
type Config struct {
	ServerPort int            `json:"server_port" yaml:"server_port"`
	LogLevel   string         `json:"log_level" yaml:"log_level"`
	Cameras    []CameraConfig `json:"cameras" yaml:"cameras"`
	Stream     StreamConfig   `json:"stream" yaml:"stream"`
}

// Manager handles configuration load, access and persistence.
type Manager struct {
	configPath string
	mu         sync.RWMutex
	config     *Config
}

// NewManager loads the configuration from the given file, falling back
// to $HOME/.config/camlink/config.yaml. A missing file is created with
// defaults.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		actualConfigPath = filepath.Join(homeDir, ".config", "camlink", "config.yaml")
	}

	m := &Manager{configPath: actualConfigPath}

	if err := m.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		m.config = defaults()
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Int("cameras", len(m.config.Cameras)).
		Msg("Config loaded")

	return m, nil
}

func defaults() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Cameras:    []CameraConfig{},
		Stream: StreamConfig{
			FPS:         10,
			JPEGQuality: 90,
		},
	}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Cameras == nil {
		cfg.Cameras = []CameraConfig{}
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = 8080
	}
	if cfg.Stream.FPS == 0 {
		cfg.Stream.FPS = 10
	}
	if cfg.Stream.JPEGQuality == 0 {
		cfg.Stream.JPEGQuality = 90
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return defaults()
	}
	cfg := *m.config
	cfg.Cameras = make([]CameraConfig, len(m.config.Cameras))
	copy(cfg.Cameras, m.config.Cameras)
	return &cfg
}

// Save writes the current configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = defaults()
	}

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// AddCamera adds a camera to the roster. Names must be unique.
func (m *Manager) AddCamera(cam CameraConfig) error {
	if cam.Name == "" {
		return fmt.Errorf("camera name is required")
	}
	if cam.Address == "" {
		return fmt.Errorf("camera address is required")
	}

	m.mu.Lock()
	for _, existing := range m.config.Cameras {
		if existing.Name == cam.Name {
			m.mu.Unlock()
			return fmt.Errorf("camera %q already configured", cam.Name)
		}
	}
	m.config.Cameras = append(m.config.Cameras, cam)
	m.mu.Unlock()

	return m.Save()
}

// RemoveCamera removes a camera from the roster by name.
func (m *Manager) RemoveCamera(name string) error {
	m.mu.Lock()
	filtered := make([]CameraConfig, 0, len(m.config.Cameras))
	found := false
	for _, cam := range m.config.Cameras {
		if cam.Name == name {
			found = true
			continue
		}
		filtered = append(filtered, cam)
	}
	m.config.Cameras = filtered
	m.mu.Unlock()

	if !found {
		return fmt.Errorf("camera not found: %s", name)
	}
	return m.Save()
}

// GetCamera returns the named camera's configuration.
func (m *Manager) GetCamera(name string) (CameraConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cam := range m.config.Cameras {
		if cam.Name == name {
			return cam, nil
		}
	}
	return CameraConfig{}, fmt.Errorf("camera not found: %s", name)
}

// SetCameraAddress updates a configured camera's address.
func (m *Manager) SetCameraAddress(name, address string) error {
	m.mu.Lock()
	found := false
	for i := range m.config.Cameras {
		if m.config.Cameras[i].Name == name {
			m.config.Cameras[i].Address = address
			found = true
			break
		}
	}
	m.mu.Unlock()

	if !found {
		return fmt.Errorf("camera not found: %s", name)
	}
	return m.Save()
}

// SetPort sets the server port.
func (m *Manager) SetPort(port int) error {
	m.mu.Lock()
	m.config.ServerPort = port
	m.mu.Unlock()
	return m.Save()
}

// GetPort gets the server port.
func (m *Manager) GetPort() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ServerPort
}

// SetLogLevel sets the log level.
func (m *Manager) SetLogLevel(level string) error {
	m.mu.Lock()
	m.config.LogLevel = level
	m.mu.Unlock()
	return m.Save()
}

// GetLogLevel gets the log level.
func (m *Manager) GetLogLevel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.LogLevel
}

// GetConfigPath returns the path to the config file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
