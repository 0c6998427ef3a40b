package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is usable. Every invalid field is
// reported as a criterio.FieldErrors entry.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}

	if c.Server.Addr == "" {
		errs = errs.Append("server.addr", fmt.Errorf("cannot be empty"))
	}

	durations := []struct {
		field string
		value int64
	}{
		{"server.read_timeout", int64(c.Server.ReadTimeout)},
		{"server.write_timeout", int64(c.Server.WriteTimeout)},
		{"server.idle_timeout", int64(c.Server.IdleTimeout)},
		{"server.shutdown_timeout", int64(c.Server.ShutdownTimeout)},
		{"client.timeout", int64(c.Client.Timeout)},
		{"client.poll_interval", int64(c.Client.PollInterval)},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = errs.Append(d.field, fmt.Errorf("must be positive"))
		}
	}

	if c.Client.IdleTimeout < 0 {
		errs = errs.Append("client.idle_timeout", fmt.Errorf("cannot be negative"))
	}

	if c.Store.MaxMessages < 1 {
		errs = errs.Append("store.max_messages", fmt.Errorf("must be at least 1"))
	}

	if c.Store.MaxUploadBytes < 1 {
		errs = errs.Append("store.max_upload_bytes", fmt.Errorf("must be at least 1"))
	}

	if u, err := url.Parse(c.Client.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = errs.Append("client.url", fmt.Errorf("invalid URL %q", c.Client.URL))
	}

	return errs.ToError()
}

// ValidateDeep runs Validate plus checks that touch the filesystem: the
// config file itself, the data directory and the optional web root.
func (c *Config) ValidateDeep(configPath string) error {
	var errs criterio.FieldErrorsBuilder

	if err := c.Validate(); err != nil {
		var fieldErrs criterio.FieldErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = errs.Append(fe.Field, fe.Err)
		}
	}

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil && info.IsDir() {
			errs = errs.Append("config", fmt.Errorf("%s is a directory, not a file", configPath))
		} else if err != nil && !os.IsNotExist(err) {
			errs = errs.Append("config", fmt.Errorf("cannot access %s: %w", configPath, err))
		}
	}

	if c.DataDir != "" {
		if info, err := os.Stat(c.DataDir); err == nil && !info.IsDir() {
			errs = errs.Append("data_dir", fmt.Errorf("%s exists but is not a directory", c.DataDir))
		} else if err != nil && !os.IsNotExist(err) {
			errs = errs.Append("data_dir", fmt.Errorf("cannot access %s: %w", c.DataDir, err))
		}
	}

	if c.Server.WebRoot != "" {
		info, err := os.Stat(c.Server.WebRoot)
		switch {
		case err != nil:
			errs = errs.Append("server.web_root", fmt.Errorf("cannot access %s: %w", c.Server.WebRoot, err))
		case !info.IsDir():
			errs = errs.Append("server.web_root", fmt.Errorf("%s is not a directory", c.Server.WebRoot))
		}
	}

	return errs.ToError()
}

// Warnings returns non-fatal issues with the configuration.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if slices.Contains(c.Server.CORSOrigins, "*") {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "cors_origins",
			Message:  "any origin may post messages; restrict cors_origins when exposed beyond localhost",
		})
	}

	if c.Store.MaxUploadBytes > 50_000_000 {
		warnings = append(warnings, ValidationWarning{
			Category: "Store",
			Item:     "max_upload_bytes",
			Message:  fmt.Sprintf("%d bytes per image is large; request bodies are buffered in memory", c.Store.MaxUploadBytes),
		})
	}

	return warnings
}
