// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the configuration file for [Load].
const EnvironmentVariable = "ARCHIVE_CONFIG"

// Config is the browser configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog"`
	Carousel CarouselConfig `yaml:"carousel"`
	Map      MapConfig      `yaml:"map"`
	Reset    ResetConfig    `yaml:"reset"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Secrets are filled from the environment, never from the file.
	Secrets Secrets `yaml:"-"`
}

// CatalogConfig locates the event catalog.
type CatalogConfig struct {
	// Path is a .jsonc, .json, .yaml, .yml or .arcs catalog file.
	// Empty means the catalog built into the binary.
	Path string `yaml:"path"`

	// Snapshot, when set, is where --export-snapshot writes the
	// compiled catalog if no explicit destination is given.
	Snapshot string `yaml:"snapshot"`
}

// CarouselConfig sets the initial view and the auto-advance period.
type CarouselConfig struct {
	// AutoAdvance is the period between automatic carousel steps.
	// Default: 5s
	AutoAdvance time.Duration `yaml:"auto_advance"`

	// AutoScroll is the initial auto-scroll preference.
	AutoScroll bool `yaml:"auto_scroll"`

	// Mode is the initial view: "carousel" or "grid".
	Mode string `yaml:"mode"`
}

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lng"`
}

// MapConfig configures the map pane.
type MapConfig struct {
	// StyleURL is an http(s) URL, file:// URL or path to a style
	// document. Empty selects the built-in style.
	StyleURL string `yaml:"style_url"`

	Center Coordinate `yaml:"center"`
	Zoom   float64    `yaml:"zoom"`

	// FlyToZoom and FlyToDuration shape the camera move when an
	// event is selected.
	FlyToZoom     float64       `yaml:"fly_to_zoom"`
	FlyToDuration time.Duration `yaml:"fly_to_duration"`

	// GraceDelay postpones map construction after the pane mounts.
	// Default: 100ms
	GraceDelay time.Duration `yaml:"grace_delay"`

	// StyleAttempts and RetryBackoff govern style fetch retries
	// before falling back to the built-in style.
	StyleAttempts int           `yaml:"style_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// ReservedSections are the names the browser publishes for its
// sections other than the archive. The archive section must not reuse
// one, or leaving the archive would never look like leaving it.
var ReservedSections = []string{"stats", "about"}

// ResetConfig configures when the browser resets itself.
type ResetConfig struct {
	// Section is the name of the archive section; leaving it resets
	// the browser. Must not be one of [ReservedSections].
	Section string `yaml:"section"`

	// OnBlur also resets when the terminal loses focus.
	OnBlur bool `yaml:"on_blur"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`
}

// Secrets are read from the environment by [LoadSecrets].
type Secrets struct {
	// MapAPIKey is appended to remote style requests as api_key.
	MapAPIKey string `env:"ARCHIVE_MAP_API_KEY"`
}

// Default returns the configuration used when no file is given, and
// the base every file is merged over.
func Default() *Config {
	return &Config{
		Carousel: CarouselConfig{
			AutoAdvance: 5 * time.Second,
			AutoScroll:  true,
			Mode:        "carousel",
		},
		Map: MapConfig{
			// Bolzano, the center of the collective's venues.
			Center:        Coordinate{Latitude: 46.4983, Longitude: 11.3548},
			Zoom:          9,
			FlyToZoom:     15,
			FlyToDuration: time.Second,
			GraceDelay:    100 * time.Millisecond,
			StyleAttempts: 3,
			RetryBackoff:  500 * time.Millisecond,
		},
		Reset: ResetConfig{
			Section: "archive",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by ARCHIVE_CONFIG.
// Fails when the variable is unset; callers that want the defaults in
// that case use [Default] explicitly.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your archive.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, merged over [Default].
// Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration over [Default] and expands path
// variables.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// LoadSecrets fills cfg.Secrets from the environment.
func (c *Config) LoadSecrets() error {
	if err := env.Parse(&c.Secrets); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Catalog.Path = expandVars(c.Catalog.Path, vars)
	c.Catalog.Snapshot = expandVars(c.Catalog.Snapshot, vars)
	c.Map.StyleURL = expandVars(c.Map.StyleURL, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Carousel.AutoAdvance <= 0 {
		errs = append(errs, fmt.Errorf("carousel.auto_advance must be positive, got %s", c.Carousel.AutoAdvance))
	}
	if c.Carousel.Mode != "carousel" && c.Carousel.Mode != "grid" {
		errs = append(errs, fmt.Errorf("carousel.mode must be carousel or grid, got %q", c.Carousel.Mode))
	}

	if c.Map.Center.Latitude < -90 || c.Map.Center.Latitude > 90 ||
		c.Map.Center.Longitude < -180 || c.Map.Center.Longitude > 180 {
		errs = append(errs, fmt.Errorf("map.center %v is outside WGS84 bounds", c.Map.Center))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Errorf("map.zoom must be within [0, 22], got %v", c.Map.Zoom))
	}
	if c.Map.FlyToZoom <= 0 || c.Map.FlyToZoom > 22 {
		errs = append(errs, fmt.Errorf("map.fly_to_zoom must be within (0, 22], got %v", c.Map.FlyToZoom))
	}
	if c.Map.FlyToDuration <= 0 {
		errs = append(errs, fmt.Errorf("map.fly_to_duration must be positive, got %s", c.Map.FlyToDuration))
	}
	if c.Map.GraceDelay <= 0 {
		errs = append(errs, fmt.Errorf("map.grace_delay must be positive, got %s", c.Map.GraceDelay))
	}
	if c.Map.StyleAttempts < 1 {
		errs = append(errs, fmt.Errorf("map.style_attempts must be at least 1, got %d", c.Map.StyleAttempts))
	}
	if c.Map.RetryBackoff <= 0 {
		errs = append(errs, fmt.Errorf("map.retry_backoff must be positive"))
	}

	if c.Reset.Section == "" {
		errs = append(errs, fmt.Errorf("reset.section is required"))
	} else if slices.Contains(ReservedSections, c.Reset.Section) {
		errs = append(errs, fmt.Errorf("reset.section %q is the name of another browser section", c.Reset.Section))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
