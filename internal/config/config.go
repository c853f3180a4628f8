// Package config loads and stores the application's YAML configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the service looks for its configuration when no
// -config flag is given.
const DefaultPath = "/etc/whatweek/config.yaml"

// CalendarConfig says where calendar markup comes from.
type CalendarConfig struct {
	// File is the markup snapshot read at startup and on reload.
	File string `yaml:"file" json:"file"`

	// URL, when set, is the live semester-dates page. Refreshes capture
	// it into File through a headless browser; a plain fetch is used
	// when the page needs no script to render.
	URL string `yaml:"url" json:"url"`

	// WaitSelector is the CSS selector the browser capture waits for
	// before reading the rendered page.
	WaitSelector string `yaml:"wait_selector" json:"wait_selector"`

	// Render forces the headless-browser path for URL loads and
	// refreshes.
	Render bool `yaml:"render" json:"render"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Calendar says where the semester-dates markup comes from.
	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`

	// RefreshCron is a cron-style schedule (e.g. "0 5 * * *") for
	// re-capturing the snapshot from Calendar.URL. Empty disables
	// scheduled refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:8080",
		Calendar: CalendarConfig{
			File:         "/var/lib/whatweek/academic_calendar.html",
			WaitSelector: "div.uq-accordion__item",
		},
		RefreshCron: "",
		BasicAuth:   nil,
	}
}

// Normalize fills in missing values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Calendar.File == "" && c.Calendar.URL == "" {
		c.Calendar.File = "/var/lib/whatweek/academic_calendar.html"
	}
	if c.Calendar.WaitSelector == "" {
		c.Calendar.WaitSelector = "div.uq-accordion__item"
	}
}

// Load reads configuration from the given YAML path. A missing file is a
// first run: the default config is written there (0600, parent created)
// and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically: marshal to a temp
// file in the target directory, chmod 0600, rename into place.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".whatweek-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save writes this configuration to path.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
