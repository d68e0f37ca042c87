package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "https://api.example.com/v1/"
  timeout: 3s
fetch:
  max_retries: 2
stream:
  transport: WebSocket
  max_attempts: 7
  base_delay: 250ms
  reset_on_resume: true
ui:
  page_size: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.API.Timeout)
	}
	if cfg.Fetch.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.DefaultRetryAfter != time.Second {
		t.Errorf("DefaultRetryAfter = %v, want default 1s", cfg.Fetch.DefaultRetryAfter)
	}
	if cfg.Stream.Transport != TransportWebSocket {
		t.Errorf("Transport = %q, want %q", cfg.Stream.Transport, TransportWebSocket)
	}
	if cfg.Stream.MaxAttempts != 7 || cfg.Stream.BaseDelay != 250*time.Millisecond {
		t.Errorf("stream budget = %d/%v, want 7/250ms", cfg.Stream.MaxAttempts, cfg.Stream.BaseDelay)
	}
	if !cfg.Stream.ResetOnResume {
		t.Error("ResetOnResume should be true")
	}
	if !cfg.Stream.PauseOnBlur {
		t.Error("PauseOnBlur should keep its default")
	}
	if cfg.UI.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.UI.PageSize)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Stream.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Stream.MaxAttempts)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Fetch.MaxRetries)
	}
	if cfg.Stream.Transport != TransportSSE {
		t.Errorf("Transport = %q, want sse", cfg.Stream.Transport)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "http://from-file"
stream:
  max_attempts: 2
`)
	t.Setenv("PULSE_API_BASE_URL", "http://from-env")
	t.Setenv("PULSE_STREAM_MAX_ATTEMPTS", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != "http://from-env" {
		t.Errorf("BaseURL = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.Stream.MaxAttempts != 9 {
		t.Errorf("MaxAttempts = %d, want 9", cfg.Stream.MaxAttempts)
	}
}

func TestBaseURLRequired(t *testing.T) {
	cfg := Default()
	_, err := cfg.BaseURL()
	if !errors.Is(err, ErrMissingBaseURL) {
		t.Fatalf("BaseURL() error = %v, want ErrMissingBaseURL", err)
	}

	cfg.API.BaseURL = "http://localhost:4000"
	got, err := cfg.BaseURL()
	if err != nil || got != "http://localhost:4000" {
		t.Fatalf("BaseURL() = %q, %v", got, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown transport", func(c *Config) { c.Stream.Transport = "grpc" }, "stream.transport"},
		{"negative attempts", func(c *Config) { c.Stream.MaxAttempts = -1 }, "stream.max_attempts"},
		{"zero delay", func(c *Config) { c.Stream.BaseDelay = 0 }, "stream.base_delay"},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }, "fetch.max_retries"},
		{"zero page size", func(c *Config) { c.UI.PageSize = 0 }, "ui.page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestYAMLRoundTripsBaseURL(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "http://localhost:4000"
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() error: %v", err)
	}
	if !strings.Contains(out, "base_url: http://localhost:4000") {
		t.Errorf("YAML() missing base_url:\n%s", out)
	}
}
