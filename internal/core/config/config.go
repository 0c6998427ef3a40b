// Package config handles configuration loading and validation for chatbox.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig `yaml:"server"`
	Store   StoreConfig  `yaml:"store"`
	Client  ClientConfig `yaml:"client"`
	DataDir string       `yaml:"-"` // set by caller, not from config file
}

// ServerConfig configures the HTTP server started by `chatbox serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WebRoot         string        `yaml:"web_root"` // optional static site served at /
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// StoreConfig configures the message store.
type StoreConfig struct {
	MaxMessages    int   `yaml:"max_messages"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// ClientConfig configures the client commands (msg, bot).
type ClientConfig struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"` // 0 disables
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":4173",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			MaxMessages:    5000,
			MaxUploadBytes: 5_000_000,
		},
		Client: ClientConfig{
			URL:          "http://localhost:4173",
			Timeout:      30 * time.Second,
			PollInterval: time.Second,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
// Client.IdleTimeout is left alone: zero is meaningful there.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaults.Server.IdleTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if c.Store.MaxMessages == 0 {
		c.Store.MaxMessages = defaults.Store.MaxMessages
	}
	if c.Store.MaxUploadBytes == 0 {
		c.Store.MaxUploadBytes = defaults.Store.MaxUploadBytes
	}
	if c.Client.URL == "" {
		c.Client.URL = defaults.Client.URL
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = defaults.Client.Timeout
	}
	if c.Client.PollInterval == 0 {
		c.Client.PollInterval = defaults.Client.PollInterval
	}
}

// MessagesFile returns the path to the message log.
func (c *Config) MessagesFile() string {
	return filepath.Join(c.DataDir, "messages.json")
}

// ImagesDir returns the path where uploaded images are stored.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.DataDir, "images")
}
