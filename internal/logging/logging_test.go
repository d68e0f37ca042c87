package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"WARN":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Init(Config{Level: "debug", Output: &buf}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })

	l := With("stream")
	l.Info().Str("campaign_id", "c-1").Msg("connected")

	out := buf.String()
	for _, want := range []string{`"component":"stream"`, `"campaign_id":"c-1"`, `"message":"connected"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Init(Config{Level: "warn", Output: &buf}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })

	l := Logger()
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message should be logged")
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.log")
	closer, err := Init(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })

	l := Logger()
	l.Info().Msg("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing message: %s", data)
	}
}
