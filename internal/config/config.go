package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied by New and Load for unset fields.
const (
	DefaultFetchLimit          = 30
	DefaultPresencePollSeconds = 50
	DefaultViewportWidth       = 1920
	DefaultViewportHeight      = 1080
)

// Config holds the tunables of the messaging layer.
type Config struct {
	// FetchLimit is the page size of message history fetches.
	FetchLimit int `toml:"fetch_limit"`
	// PresencePollSeconds is the delay between presence poll cycles,
	// counted from the end of the previous cycle.
	PresencePollSeconds int `toml:"presence_poll_seconds"`
	// Initial viewport used until the host reports a resize.
	ViewportWidth  int  `toml:"viewport_width"`
	ViewportHeight int  `toml:"viewport_height"`
	Mobile         bool `toml:"mobile"`
}

// New returns a config with all defaults applied.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// PresenceInterval returns the presence poll delay as a duration.
func (c *Config) PresenceInterval() time.Duration {
	return time.Duration(c.PresencePollSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.FetchLimit <= 0 {
		c.FetchLimit = DefaultFetchLimit
	}
	if c.PresencePollSeconds <= 0 {
		c.PresencePollSeconds = DefaultPresencePollSeconds
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = DefaultViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = DefaultViewportHeight
	}
}

// Load reads config from the given path and applies defaults for unset
// fields. Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
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
