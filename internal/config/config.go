// Package config loads the dashboard configuration from an optional YAML
// file, then applies environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrMissingBaseURL is returned when no API base URL has been configured.
var ErrMissingBaseURL = errors.New("api base url is not set: set api.base_url in the config file or PULSE_API_BASE_URL")

// Transport names accepted by stream.transport.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Stream  StreamConfig  `yaml:"stream"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	UI      UIConfig      `yaml:"ui"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"PULSE_API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"PULSE_API_TIMEOUT"`
}

type FetchConfig struct {
	MaxRetries        int           `yaml:"max_retries" env:"PULSE_FETCH_MAX_RETRIES"`
	DefaultRetryAfter time.Duration `yaml:"default_retry_after" env:"PULSE_FETCH_DEFAULT_RETRY_AFTER"`
}

type StreamConfig struct {
	Transport     string        `yaml:"transport" env:"PULSE_STREAM_TRANSPORT"`
	MaxAttempts   int           `yaml:"max_attempts" env:"PULSE_STREAM_MAX_ATTEMPTS"`
	BaseDelay     time.Duration `yaml:"base_delay" env:"PULSE_STREAM_BASE_DELAY"`
	ResetOnResume bool          `yaml:"reset_on_resume" env:"PULSE_STREAM_RESET_ON_RESUME"`
	PauseOnBlur   bool          `yaml:"pause_on_blur" env:"PULSE_STREAM_PAUSE_ON_BLUR"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"PULSE_LOG_LEVEL"`
	Format string `yaml:"format" env:"PULSE_LOG_FORMAT"`
	File   string `yaml:"file" env:"PULSE_LOG_FILE"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" env:"PULSE_METRICS_ADDR"`
}

type UIConfig struct {
	PageSize int `yaml:"page_size" env:"PULSE_UI_PAGE_SIZE"`
}

// Default returns the configuration used when neither the file nor the
// environment sets a key. The base URL deliberately has no default.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Fetch: FetchConfig{
			MaxRetries:        3,
			DefaultRetryAfter: time.Second,
		},
		Stream: StreamConfig{
			Transport:   TransportSSE,
			MaxAttempts: 5,
			BaseDelay:   time.Second,
			PauseOnBlur: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			File:   "pulse-tui.log",
		},
		UI: UIConfig{
			PageSize: 5,
		},
	}
}

// Load reads the YAML file at path (a missing file is fine) and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	cfg.Stream.Transport = strings.ToLower(strings.TrimSpace(cfg.Stream.Transport))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BaseURL returns the configured API base URL or ErrMissingBaseURL.
func (c *Config) BaseURL() (string, error) {
	if c.API.BaseURL == "" {
		return "", ErrMissingBaseURL
	}
	return c.API.BaseURL, nil
}

// Validate checks budgets and enumerations. A missing base URL is not a
// validation failure; it surfaces from BaseURL when a client is built.
func (c *Config) Validate() error {
	switch c.Stream.Transport {
	case TransportSSE, TransportWebSocket:
	default:
		return fmt.Errorf("stream.transport: unknown transport %q", c.Stream.Transport)
	}
	if c.Stream.MaxAttempts < 0 {
		return fmt.Errorf("stream.max_attempts: must be >= 0, got %d", c.Stream.MaxAttempts)
	}
	if c.Stream.BaseDelay <= 0 {
		return fmt.Errorf("stream.base_delay: must be positive, got %s", c.Stream.BaseDelay)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries: must be >= 0, got %d", c.Fetch.MaxRetries)
	}
	if c.Fetch.DefaultRetryAfter < 0 {
		return fmt.Errorf("fetch.default_retry_after: must be >= 0, got %s", c.Fetch.DefaultRetryAfter)
	}
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("ui.page_size: must be positive, got %d", c.UI.PageSize)
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
