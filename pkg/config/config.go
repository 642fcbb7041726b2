/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the mxgram configuration
type Config struct {
	Codec     Codec     `yaml:"codec"`
	Transport Transport `yaml:"transport"`
	Archive   Archive   `yaml:"archive"`
	Recording Recording `yaml:"recording"`
	API       API       `yaml:"api"`
	Logging   Logging   `yaml:"logging"`
}

// Codec contains gram encoder settings
type Codec struct {
	MaxDepth   int  `yaml:"max_depth"`
	BufferSize int  `yaml:"buffer_size"`
	Callables  bool `yaml:"callables"`
}

// Recording names the session log of raw received datagrams. An empty Path
// disables it.
type Recording struct {
	Path          string `yaml:"path"`
	FsyncInterval int    `yaml:"fsync_interval_ms"`
}

// Transport selects and addresses the datagram transport
type Transport struct {
	Kind       string `yaml:"kind"`
	LocalAddr  string `yaml:"local_addr"`
	RemoteAddr string `yaml:"remote_addr"`
	NATSURL    string `yaml:"nats_url"`
	RedisAddr  string `yaml:"redis_addr"`
	Channel    string `yaml:"channel"`
}

// Archive contains settings for the received gram archive
type Archive struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

// API contains HTTP API settings
type API struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Transport kinds
const (
	TransportUDP   = "udp"
	TransportNATS  = "nats"
	TransportRedis = "redis"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Codec: Codec{
			MaxDepth:   32,
			BufferSize: 8192,
			Callables:  true,
		},
		Transport: Transport{
			Kind:       TransportUDP,
			LocalAddr:  "127.0.0.1:6665",
			RemoteAddr: "127.0.0.1:6666",
			NATSURL:    "nats://127.0.0.1:4222",
			RedisAddr:  "127.0.0.1:6379",
			Channel:    "grams",
		},
		Archive: Archive{
			Enabled: false,
			DataDir: "./data",
		},
		API: API{
			Bind:   "127.0.0.1",
			Port:   8080,
			APIKey: "auto",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if c.Codec.MaxDepth < 0 {
		return fmt.Errorf("codec.max_depth must not be negative, got %d", c.Codec.MaxDepth)
	}
	if c.Codec.BufferSize <= 0 || c.Codec.BufferSize > 65535 {
		return fmt.Errorf("codec.buffer_size must be between 1 and 65535, got %d", c.Codec.BufferSize)
	}

	switch c.Transport.Kind {
	case TransportUDP:
		if c.Transport.LocalAddr == "" {
			return fmt.Errorf("transport.local_addr is required for udp")
		}
	case TransportNATS:
		if c.Transport.NATSURL == "" {
			return fmt.Errorf("transport.nats_url is required for nats")
		}
	case TransportRedis:
		if c.Transport.RedisAddr == "" {
			return fmt.Errorf("transport.redis_addr is required for redis")
		}
	default:
		return fmt.Errorf("unknown transport.kind %q", c.Transport.Kind)
	}
	if c.Transport.Kind != TransportUDP && c.Transport.Channel == "" {
		return fmt.Errorf("transport.channel is required for %s", c.Transport.Kind)
	}

	if c.Archive.Enabled && c.Archive.DataDir == "" {
		return fmt.Errorf("archive.data_dir is required when the archive is enabled")
	}
	if c.Recording.FsyncInterval < 0 {
		return fmt.Errorf("recording.fsync_interval_ms must not be negative, got %d", c.Recording.FsyncInterval)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Settings missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file carries the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.Archive.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.API.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./mxgram.yaml"
	}

	// ~/.config/mxgram/config.yaml on Linux and macOS
	configDir := filepath.Join(homeDir, ".config", "mxgram")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
