package configuration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	ConfigDirName  = ".config/ori"
	ConfigFileName = "config.json"

	DefaultModel       = "qwen/qwen3-coder:free"
	DefaultOllamaModel = "qwen3-coder:30b"
	DefaultPort        = 8080
	DefaultPollMillis  = 50
)

// Providers understood by the model factory.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// ErrUnknownKey is returned by Set and Get for keys the config does not have.
var ErrUnknownKey = errors.New("unknown configuration key")

// Config is the persisted assistant configuration.
type Config struct {
	Port           int    `json:"port"`
	NoBanner       bool   `json:"no_banner"`
	NoClear        bool   `json:"no_clear"`
	Model          string `json:"model"`
	Provider       string `json:"provider"`
	AutoConfirm    bool   `json:"auto_confirm"`
	PollIntervalMs int    `json:"poll_interval_ms"`

	// Debug is set from the command line only.
	Debug bool `json:"-"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	return &Config{
		Port:           DefaultPort,
		Model:          DefaultModel,
		Provider:       ProviderOpenRouter,
		PollIntervalMs: DefaultPollMillis,
	}
}

// GetConfigDir returns the configuration directory path, creating it if needed.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ConfigDirName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// Load reads the config file. A missing file is created with the defaults.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := NewConfig()
		if err := config.Save(); err != nil {
			return nil, err
		}
		return config, nil
	}

	return readConfig(configPath)
}

// LoadExternal reads a config file from path, fills in defaults for absent
// fields and saves the result as the user's config.
func LoadExternal(path string) (*Config, error) {
	config, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.Save(); err != nil {
		return nil, err
	}
	return config, nil
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := NewConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	def := NewConfig()
	if c.Port <= 0 {
		c.Port = def.Port
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.Provider == "" {
		c.Provider = def.Provider
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = def.PollIntervalMs
	}
}

// Save saves the configuration to file
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, append(data, '\n'), 0o644)
}

// PollInterval returns the configured capture poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Set parses value for key and stores it. It does not save.
func (c *Config) Set(key, value string) error {
	switch key {
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", value)
		}
		c.Port = port
	case "no_banner":
		return setBool(&c.NoBanner, key, value)
	case "no_clear":
		return setBool(&c.NoClear, key, value)
	case "auto_confirm":
		return setBool(&c.AutoConfirm, key, value)
	case "model":
		if value == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.Model = value
	case "provider":
		if value != ProviderOpenRouter && value != ProviderOllama {
			return fmt.Errorf("unsupported provider %q (want %s or %s)", value, ProviderOpenRouter, ProviderOllama)
		}
		c.Provider = value
	case "poll_interval_ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid poll interval %q", value)
		}
		c.PollIntervalMs = ms
	default:
		return c.unknownKey(key)
	}
	return nil
}

func setBool(field *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: want true or false", value, key)
	}
	*field = b
	return nil
}

// Get returns the string form of key.
func (c *Config) Get(key string) (string, error) {
	values := c.values()
	v, ok := values[key]
	if !ok {
		return "", c.unknownKey(key)
	}
	return v, nil
}

// Keys lists the settable keys in sorted order.
func (c *Config) Keys() []string {
	values := c.values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) unknownKey(key string) error {
	return fmt.Errorf("%w: %s (known keys: %s)", ErrUnknownKey, key, strings.Join(c.Keys(), ", "))
}

// All returns the whole config as indented JSON.
func (c *Config) All() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

func (c *Config) values() map[string]string {
	return map[string]string{
		"port":             strconv.Itoa(c.Port),
		"no_banner":        strconv.FormatBool(c.NoBanner),
		"no_clear":         strconv.FormatBool(c.NoClear),
		"model":            c.Model,
		"provider":         c.Provider,
		"auto_confirm":     strconv.FormatBool(c.AutoConfirm),
		"poll_interval_ms": strconv.Itoa(c.PollIntervalMs),
	}
}
