package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. SCROLLSTITCH_CAPTURE_MAX_ITERATIONS
const EnvPrefix = "SCROLLSTITCH"

// Manager handles configuration. v is the effective configuration with
// environment and flag overrides; stored holds only defaults, the file and
// values changed through Set, and is what Save writes.
type Manager struct {
	configPath string
	v          *viper.Viper
	stored     *viper.Viper
	config     *Config
	mu         sync.RWMutex
}

// DefaultConfigPath returns $HOME/.config/scrollstitch/config.yaml
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "scrollstitch", "config.yaml"), nil
}

// NewManager creates a new configuration manager. A missing config file is
// created with the defaults.
func NewManager(configFile string) (*Manager, error) {
	log := logger.WithComponent("config")

	configPath := configFile
	if configPath == "" {
		var err error
		if configPath, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	v := newViper(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{
		configPath: configPath,
		v:          v,
		stored:     newViper(configPath),
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Info().
			Str("path", configPath).
			Msg("Config file not found, creating new config")
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := m.stored.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := m.Reload(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", m.configPath).
		Msg("Config loaded")

	return m, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	return v
}

// Reload re-decodes the viper state into a validated Config. Call it after
// binding flags or setting values.
func (m *Manager) Reload() error {
	cfg, err := m.decode(m.v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

func (m *Manager) decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}
	return &cfg, nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := *m.config
	return &cfg
}

// Set changes a value both in effect and in the file written by Save
func (m *Manager) Set(key string, value interface{}) {
	m.v.Set(key, value)
	m.stored.Set(key, value)
}

// Stored returns a value as it is saved, without environment or flag
// overrides
func (m *Manager) Stored(key string) (interface{}, bool) {
	if !m.stored.IsSet(key) {
		return nil, false
	}
	return m.stored.Get(key), true
}

// GetViper exposes the effective viper instance for flag binding and lookups
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// GetConfigPath returns the configuration file path
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Settings returns all settings as nested maps, the way they are saved
func (m *Manager) Settings() map[string]interface{} {
	return m.v.AllSettings()
}

// Save validates the stored settings and writes them to disk. Environment
// and flag overrides are not written.
func (m *Manager) Save() error {
	log := logger.WithComponent("config")

	if _, err := m.decode(m.stored); err != nil {
		return err
	}

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		log.Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(m.stored.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	log.Info().
		Str("path", m.configPath).
		Msg("Config saved successfully")
	return m.Reload()
}
