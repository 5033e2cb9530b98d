package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/stitch"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scrollstitch", "config.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestNewManagerCreatesDefaults(t *testing.T) {
	m := newTestManager(t)

	data, err := os.ReadFile(m.GetConfigPath())
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if !strings.Contains(string(data), "scroll_delay: 30ms") {
		t.Errorf("saved config should keep readable durations, got:\n%s", data)
	}

	cfg := m.Get()
	if cfg.LogLevel != "info" || cfg.ServerPort != 8080 {
		t.Errorf("unexpected top-level defaults: %+v", cfg)
	}

	settings := cfg.CaptureSettings()
	if settings.MaxIterations != 50 ||
		settings.ActivateDelay != 50*time.Millisecond ||
		settings.ResetDelay != 50*time.Millisecond ||
		settings.ScrollDelay != 30*time.Millisecond {
		t.Errorf("CaptureSettings() = %+v", settings)
	}

	if got := cfg.OverlapOptions(); got != stitch.DefaultOptions() {
		t.Errorf("OverlapOptions() = %+v, want %+v", got, stitch.DefaultOptions())
	}

	if _, err := cfg.Fingerprinter(); err != nil {
		t.Errorf("Fingerprinter() error = %v", err)
	}
	if cfg.Output.Format != "png" || cfg.Output.JPEGQuality != 90 || cfg.Output.Annotate {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}
}

func TestManagerReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `log_level: debug
capture:
  max_iterations: 12
  scroll_delay: 120ms
overlap:
  step: 5
  threshold: 0.9
output:
  format: jpeg
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := m.Get()

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Capture.MaxIterations != 12 || cfg.Capture.ScrollDelay != 120*time.Millisecond {
		t.Errorf("Capture = %+v", cfg.Capture)
	}
	// Unset keys keep their defaults
	if cfg.Capture.ResetDelay != 50*time.Millisecond || cfg.Overlap.StripHeight != 50 {
		t.Errorf("defaults not merged: %+v %+v", cfg.Capture, cfg.Overlap)
	}
	if cfg.Overlap.Step != 5 || cfg.Overlap.Threshold != 0.9 {
		t.Errorf("Overlap = %+v", cfg.Overlap)
	}
	if cfg.Output.Format != "jpeg" {
		t.Errorf("Output.Format = %q", cfg.Output.Format)
	}
}

func TestManagerRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("overlap:\n  threshold: 1.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
}

func TestManagerEnvOverride(t *testing.T) {
	t.Setenv("SCROLLSTITCH_CAPTURE_MAX_ITERATIONS", "7")

	m := newTestManager(t)
	if got := m.Get().Capture.MaxIterations; got != 7 {
		t.Errorf("MaxIterations = %d, want 7 from environment", got)
	}
}

func TestManagerSetAndSave(t *testing.T) {
	m := newTestManager(t)

	m.Set("capture.scroll_delay", "80ms")
	m.Set("output.max_width", 1280)
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened, err := NewManager(m.GetConfigPath())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := reopened.Get()
	if cfg.Capture.ScrollDelay != 80*time.Millisecond || cfg.Output.MaxWidth != 1280 {
		t.Errorf("saved values not reloaded: %+v %+v", cfg.Capture, cfg.Output)
	}

	m.Set("output.jpeg_quality", 0)
	if err := m.Save(); err == nil {
		t.Error("Save() should reject invalid values")
	}
}

func TestManagerSaveSkipsEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("overlap:\n  step: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCROLLSTITCH_OVERLAP_STEP", "2")

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if got := m.Get().Overlap.Step; got != 2 {
		t.Fatalf("Overlap.Step = %d, want 2 from environment", got)
	}
	if got, _ := m.Stored("overlap.step"); got != 5 {
		t.Errorf("Stored(overlap.step) = %v, want 5 from file", got)
	}

	m.Set("log_level", "debug")
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := m.Get().Overlap.Step; got != 2 {
		t.Errorf("Overlap.Step after Save = %d, want environment value kept", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "step: 5") || strings.Contains(string(data), `step: "2"`) {
		t.Errorf("saved config should keep the file value, got:\n%s", data)
	}
	if !strings.Contains(string(data), "log_level: debug") {
		t.Errorf("saved config missing the set value, got:\n%s", data)
	}
}

func TestValidate(t *testing.T) {
	base := newTestManager(t).Get()

	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"valid", func(c *Config) {}, ""},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"port", func(c *Config) { c.ServerPort = 70000 }, "server_port"},
		{"iterations", func(c *Config) { c.Capture.MaxIterations = 0 }, "max_iterations"},
		{"negative delay", func(c *Config) { c.Capture.ScrollDelay = -time.Millisecond }, "scroll_delay"},
		{"capture backend", func(c *Config) { c.Capture.CaptureBackend = "pipewire" }, "capture_backend"},
		{"input backend", func(c *Config) { c.Capture.InputBackend = "uinput" }, "input_backend"},
		{"fingerprint", func(c *Config) { c.Fingerprint.Algorithm = "md5" }, "fingerprint.algorithm"},
		{"strip", func(c *Config) { c.Overlap.StripHeight = 0 }, "strip_height"},
		{"step", func(c *Config) { c.Overlap.Step = -1 }, "overlap.step"},
		{"threshold", func(c *Config) { c.Overlap.Threshold = 0 }, "threshold"},
		{"format", func(c *Config) { c.Output.Format = "webp" }, "output.format"},
		{"quality", func(c *Config) { c.Output.JPEGQuality = 101 }, "jpeg_quality"},
		{"dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.errSub)
			}
		})
	}
}
