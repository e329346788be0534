package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stagehand-dev/stagehand/internal/logger"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager. If configFile is empty
// the default path under ~/.config/stagehand is used, and a config file
// with defaults is created when none exists.
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "stagehand")
	actualConfigPath := filepath.Join(configDir, "config.yaml")
	if configFile != "" {
		actualConfigPath = configFile
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config loaded")

	return m, nil
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		ServerPort:         8080,
		LogLevel:           "info",
		TerminalSpawn:      []string{"x-terminal-emulator", "-e"},
		FileManagerProcess: "nautilus",
		Probe: ProbeTiming{
			WindowQueryTimeout: 2 * time.Second,
			TitleQueryTimeout:  1 * time.Second,
			LivenessTimeout:    1 * time.Second,
		},
		Launch: LaunchTiming{
			BucketSettle:  1500 * time.Millisecond,
			AppearPoll:    100 * time.Millisecond,
			AppearTimeout: 1500 * time.Millisecond,
			WindowSettle:  300 * time.Millisecond,
		},
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Zeroed timing values fall back to defaults so a sparse config file
	// never disables the probe timeouts.
	def := Defaults()
	if cfg.Probe.WindowQueryTimeout <= 0 {
		cfg.Probe.WindowQueryTimeout = def.Probe.WindowQueryTimeout
	}
	if cfg.Probe.TitleQueryTimeout <= 0 {
		cfg.Probe.TitleQueryTimeout = def.Probe.TitleQueryTimeout
	}
	if cfg.Probe.LivenessTimeout <= 0 {
		cfg.Probe.LivenessTimeout = def.Probe.LivenessTimeout
	}
	if cfg.Launch.BucketSettle <= 0 {
		cfg.Launch.BucketSettle = def.Launch.BucketSettle
	}
	if cfg.Launch.AppearPoll <= 0 {
		cfg.Launch.AppearPoll = def.Launch.AppearPoll
	}
	if cfg.Launch.AppearTimeout <= 0 {
		cfg.Launch.AppearTimeout = def.Launch.AppearTimeout
	}
	if cfg.Launch.WindowSettle <= 0 {
		cfg.Launch.WindowSettle = def.Launch.WindowSettle
	}
	if len(cfg.TerminalSpawn) == 0 {
		cfg.TerminalSpawn = def.TerminalSpawn
	}
	if cfg.FileManagerProcess == "" {
		cfg.FileManagerProcess = def.FileManagerProcess
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	return &cfg
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = Defaults()
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
		return err
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// SetPort sets the server port
func (m *Manager) SetPort(port int) error {
	m.mu.Lock()
	m.config.ServerPort = port
	m.mu.Unlock()
	return m.Save()
}

// SetLogLevel sets the log level
func (m *Manager) SetLogLevel(level string) error {
	m.mu.Lock()
	m.config.LogLevel = level
	m.mu.Unlock()
	return m.Save()
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetConfigDir returns the config directory path
func (m *Manager) GetConfigDir() string {
	return filepath.Dir(m.configPath)
}
