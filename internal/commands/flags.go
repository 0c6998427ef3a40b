package commands

import (
	"os"
	"path/filepath"

	"github.com/hay-kot/chatbox/internal/client"
	"github.com/hay-kot/chatbox/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	URL        string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// Client returns an API client for the configured server. The --url flag
// takes precedence over client.url from the config file.
func (f *Flags) Client() *client.Client {
	url := f.Config.Client.URL
	if f.URL != "" {
		url = f.URL
	}
	return client.New(url, f.Config.Client.Timeout)
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "chatbox", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "chatbox")
}
