// Package config loads the analyzer's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "mammo.yaml"

// Config holds all configuration for the analyzer.
type Config struct {
	Server   ServerConfig     `yaml:"server"`
	Logging  LoggingConfig    `yaml:"logging"`
	Analysis analysis.Options `yaml:"analysis"`
	OCR      OCRConfig        `yaml:"ocr"`

	// Backend selects the image processing implementation: native or opencv.
	Backend string `yaml:"backend"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr           string     `yaml:"addr"`
	MaxUploadBytes int64      `yaml:"max_upload_bytes"`
	CORS           CORSConfig `yaml:"cors"`
	ReadTimeout    string     `yaml:"read_timeout"`
	WriteTimeout   string     `yaml:"write_timeout"`
	// ShutdownTimeout bounds graceful shutdown after a signal.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// CORSConfig lists allowed origins. "*" or an empty list allows all.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// AllowAll reports whether every origin is allowed.
func (c CORSConfig) AllowAll() bool {
	if len(c.AllowOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// OCRConfig configures reading of burned-in image markers.
type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			MaxUploadBytes:  32 << 20,
			CORS:            CORSConfig{AllowOrigins: []string{"*"}},
			ReadTimeout:     "30s",
			WriteTimeout:    "120s",
			ShutdownTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Analysis: analysis.DefaultOptions(),
		OCR: OCRConfig{
			Enabled:  false,
			Language: "eng",
		},
		Backend: analysis.DefaultBackend,
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// PORT is what most container platforms set; MAMMO_ADDR wins over it.
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("MAMMO_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("MAMMO_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if backend := os.Getenv("MAMMO_BACKEND"); backend != "" {
		c.Backend = backend
	}
	if v := os.Getenv("MAMMO_OCR"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.OCR.Enabled = enabled
		}
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	return nil
}

// GetReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 120*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
