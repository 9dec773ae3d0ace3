package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied by WithDefaults.
const (
	DefaultServerURL         = "ws://localhost:3000/hangouts?username={username}"
	DefaultReconnectInterval = 5 * time.Second
)

// Duration is a time.Duration written as a Go duration string ("5s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the global ~/.hangouts/config.toml.
type Config struct {
	// DefaultUser signs in when no --user flag is given.
	DefaultUser string `toml:"default_user"`
	// ServerURL is the websocket endpoint; "{username}" is replaced by the
	// current user.
	ServerURL string `toml:"server_url"`
	// BacklogURL serves unread hangouts over HTTP. Empty disables backlog
	// fetches.
	BacklogURL        string   `toml:"backlog_url,omitempty"`
	ReconnectInterval Duration `toml:"reconnect_interval"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.ReconnectInterval.Duration <= 0 {
		c.ReconnectInterval.Duration = DefaultReconnectInterval
	}
	return c
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, treating a missing file as empty.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}.WithDefaults(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg.WithDefaults(), nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
