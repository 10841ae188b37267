// Package config collects engine settings from environment variables and an
// optional YAML sources file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTimeout bounds each catalog call.
	DefaultTimeout = 20 * time.Second
	// MaxTimeout is the ceiling applied to any configured timeout.
	MaxTimeout = 30 * time.Second

	DefaultUserAgent = "bibresolve/0.1 (+https://github.com/lehigh-university-libraries/bibresolve)"
)

// Source keys used in the sources file and by the registry.
const (
	SourceOpenLibrary    = "openlibrary"
	SourceGoogleBooks    = "googlebooks"
	SourceWorldCat       = "worldcat"
	SourceLOC            = "loc"
	SourceHarvard        = "harvard"
	SourceBNE            = "bne"
	SourceBritishLibrary = "bnb"
	SourceDNB            = "dnb"
	SourceVuFind         = "vufind"
)

// SourceConfig overrides the defaults of one catalog.
type SourceConfig struct {
	Enabled           *bool   `yaml:"enabled,omitempty"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// Config holds every engine setting.
type Config struct {
	Timeout           time.Duration           `yaml:"timeout,omitempty"`
	UserAgent         string                  `yaml:"user_agent,omitempty"`
	GoogleBooksAPIKey string                  `yaml:"-"`
	VuFindURL         string                  `yaml:"vufind_url,omitempty"`
	ExtractProvider   string                  `yaml:"extract_provider,omitempty"`
	ExtractModel      string                  `yaml:"extract_model,omitempty"`
	Sources           map[string]SourceConfig `yaml:"sources,omitempty"`
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() *Config {
	cfg := &Config{
		Timeout:           DefaultTimeout,
		UserAgent:         getEnv("BIBRESOLVE_USER_AGENT", DefaultUserAgent),
		GoogleBooksAPIKey: os.Getenv("GOOGLE_BOOKS_API_KEY"),
		VuFindURL:         os.Getenv("VUFIND_URL"),
		ExtractProvider:   getEnv("EXTRACT_PROVIDER", "ollama"),
		ExtractModel:      os.Getenv("EXTRACT_MODEL"),
		Sources:           map[string]SourceConfig{},
	}

	if raw := os.Getenv("BIBRESOLVE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			slog.Warn("Ignoring invalid BIBRESOLVE_TIMEOUT", "value", raw, "err", err)
		} else {
			cfg.Timeout = d
		}
	}
	cfg.Timeout = clampTimeout(cfg.Timeout)

	return cfg
}

// LoadFile merges the YAML file at path over c. Fields absent from the
// file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if file.Timeout > 0 {
		c.Timeout = clampTimeout(file.Timeout)
	}
	if file.UserAgent != "" {
		c.UserAgent = file.UserAgent
	}
	if file.VuFindURL != "" {
		c.VuFindURL = file.VuFindURL
	}
	if file.ExtractProvider != "" {
		c.ExtractProvider = file.ExtractProvider
	}
	if file.ExtractModel != "" {
		c.ExtractModel = file.ExtractModel
	}
	if c.Sources == nil {
		c.Sources = map[string]SourceConfig{}
	}
	for key, sc := range file.Sources {
		c.Sources[key] = sc
	}

	slog.Debug("Loaded config file", "path", path, "sources", len(file.Sources))
	return nil
}

// Enabled reports whether the source identified by key should be queried.
// Sources are enabled unless the file says otherwise.
func (c *Config) Enabled(key string) bool {
	sc, ok := c.Sources[key]
	if !ok || sc.Enabled == nil {
		return true
	}
	return *sc.Enabled
}

// BaseURL returns the configured base URL for key or def.
func (c *Config) BaseURL(key, def string) string {
	if sc, ok := c.Sources[key]; ok && sc.BaseURL != "" {
		return sc.BaseURL
	}
	return def
}

// Rate returns the configured requests per second for key or def.
func (c *Config) Rate(key string, def float64) float64 {
	if sc, ok := c.Sources[key]; ok && sc.RequestsPerSecond > 0 {
		return sc.RequestsPerSecond
	}
	return def
}

// Burst returns the configured limiter burst for key or def.
func (c *Config) Burst(key string, def int) int {
	if sc, ok := c.Sources[key]; ok && sc.Burst > 0 {
		return sc.Burst
	}
	return def
}

// SetTimeout applies d, clamped to MaxTimeout.
func (c *Config) SetTimeout(d time.Duration) {
	if d > 0 {
		c.Timeout = clampTimeout(d)
	}
}

func clampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
