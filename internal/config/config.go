// Package config loads and validates ScrollStitch settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/export"
	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/bryanchriswhite/ScrollStitch/internal/scrolling"
	"github.com/bryanchriswhite/ScrollStitch/internal/stitch"
)

// Config represents the application configuration
type Config struct {
	LogLevel    string            `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	ServerPort  int               `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	Capture     CaptureConfig     `json:"capture" yaml:"capture" mapstructure:"capture"`
	Fingerprint FingerprintConfig `json:"fingerprint" yaml:"fingerprint" mapstructure:"fingerprint"`
	Overlap     stitch.Options    `json:"overlap" yaml:"overlap" mapstructure:"overlap"`
	Output      OutputConfig      `json:"output" yaml:"output" mapstructure:"output"`
}

// CaptureConfig bounds the capture loop and selects the display backends
type CaptureConfig struct {
	MaxIterations  int           `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`
	ActivateDelay  time.Duration `json:"activate_delay" yaml:"activate_delay" mapstructure:"activate_delay"`
	ResetDelay     time.Duration `json:"reset_delay" yaml:"reset_delay" mapstructure:"reset_delay"`
	ScrollDelay    time.Duration `json:"scroll_delay" yaml:"scroll_delay" mapstructure:"scroll_delay"`
	CaptureBackend string        `json:"capture_backend" yaml:"capture_backend" mapstructure:"capture_backend"`
	InputBackend   string        `json:"input_backend" yaml:"input_backend" mapstructure:"input_backend"`
}

// FingerprintConfig selects how consecutive frames are compared
type FingerprintConfig struct {
	Algorithm   string `json:"algorithm" yaml:"algorithm" mapstructure:"algorithm"`
	PrefixBytes int    `json:"prefix_bytes" yaml:"prefix_bytes" mapstructure:"prefix_bytes"`
}

// OutputConfig controls where and how stitched images are saved
type OutputConfig struct {
	Dir         string `json:"dir" yaml:"dir" mapstructure:"dir"`
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	JPEGQuality int    `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	MaxWidth    int    `json:"max_width" yaml:"max_width" mapstructure:"max_width"`
	Annotate    bool   `json:"annotate" yaml:"annotate" mapstructure:"annotate"`
}

// defaults lists every key with its default value. Durations are strings so
// that the saved file stays readable.
func defaults() map[string]interface{} {
	settings := scrolling.DefaultSettings()
	overlap := stitch.DefaultOptions()

	return map[string]interface{}{
		"log_level":   "info",
		"server_port": 8080,

		"capture.max_iterations":  settings.MaxIterations,
		"capture.activate_delay":  settings.ActivateDelay.String(),
		"capture.reset_delay":     settings.ResetDelay.String(),
		"capture.scroll_delay":    settings.ScrollDelay.String(),
		"capture.capture_backend": "x11",
		"capture.input_backend":   "xtest",

		"fingerprint.algorithm":    frame.AlgorithmFNV64a,
		"fingerprint.prefix_bytes": frame.DefaultPrefixBytes,

		"overlap.strip_height": overlap.StripHeight,
		"overlap.sample_width": overlap.SampleWidth,
		"overlap.step":         overlap.Step,
		"overlap.threshold":    overlap.Threshold,

		"output.dir":          "~/Pictures/scrollstitch",
		"output.format":       export.FormatPNG,
		"output.jpeg_quality": export.DefaultQuality,
		"output.max_width":    0,
		"output.annotate":     false,
	}
}

// Validate checks that all configuration values are in range
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be between 1 and 65535, got %d", c.ServerPort)
	}

	if c.Capture.MaxIterations < 1 {
		return fmt.Errorf("capture.max_iterations must be at least 1, got %d", c.Capture.MaxIterations)
	}
	for name, d := range map[string]time.Duration{
		"capture.activate_delay": c.Capture.ActivateDelay,
		"capture.reset_delay":    c.Capture.ResetDelay,
		"capture.scroll_delay":   c.Capture.ScrollDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s cannot be negative, got %s", name, d)
		}
	}
	switch strings.ToLower(c.Capture.CaptureBackend) {
	case "x11", "screen":
	default:
		return fmt.Errorf("invalid capture.capture_backend: %s (must be one of: x11, screen)", c.Capture.CaptureBackend)
	}
	switch strings.ToLower(c.Capture.InputBackend) {
	case "xtest", "robotgo":
	default:
		return fmt.Errorf("invalid capture.input_backend: %s (must be one of: xtest, robotgo)", c.Capture.InputBackend)
	}

	if c.Fingerprint.PrefixBytes < 0 {
		return fmt.Errorf("fingerprint.prefix_bytes cannot be negative, got %d", c.Fingerprint.PrefixBytes)
	}
	if _, err := frame.NewFingerprinter(c.Fingerprint.Algorithm, c.Fingerprint.PrefixBytes); err != nil {
		return fmt.Errorf("invalid fingerprint.algorithm: %w", err)
	}

	if c.Overlap.StripHeight < 1 {
		return fmt.Errorf("overlap.strip_height must be at least 1, got %d", c.Overlap.StripHeight)
	}
	if c.Overlap.SampleWidth < 1 {
		return fmt.Errorf("overlap.sample_width must be at least 1, got %d", c.Overlap.SampleWidth)
	}
	if c.Overlap.Step < 1 {
		return fmt.Errorf("overlap.step must be at least 1, got %d", c.Overlap.Step)
	}
	if c.Overlap.Threshold <= 0 || c.Overlap.Threshold > 1 {
		return fmt.Errorf("overlap.threshold must be in (0, 1], got %g", c.Overlap.Threshold)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}
	if _, err := export.NormalizeFormat(c.Output.Format); err != nil {
		return fmt.Errorf("invalid output.format: %w", err)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100, got %d", c.Output.JPEGQuality)
	}
	if c.Output.MaxWidth < 0 {
		return fmt.Errorf("output.max_width cannot be negative, got %d", c.Output.MaxWidth)
	}

	return nil
}

// CaptureSettings returns the capture loop settings
func (c *Config) CaptureSettings() scrolling.Settings {
	return scrolling.Settings{
		MaxIterations: c.Capture.MaxIterations,
		ActivateDelay: c.Capture.ActivateDelay,
		ResetDelay:    c.Capture.ResetDelay,
		ScrollDelay:   c.Capture.ScrollDelay,
	}
}

// OverlapOptions returns the overlap search parameters
func (c *Config) OverlapOptions() stitch.Options {
	return c.Overlap
}

// Fingerprinter builds the configured frame fingerprint function
func (c *Config) Fingerprinter() (frame.Fingerprinter, error) {
	return frame.NewFingerprinter(c.Fingerprint.Algorithm, c.Fingerprint.PrefixBytes)
}

// Writer builds the image writer for the output settings
func (c *Config) Writer() (*export.Writer, error) {
	w, err := export.NewWriter(c.Output.Dir, c.Output.Format, c.Output.JPEGQuality, c.Output.MaxWidth)
	if err != nil {
		return nil, err
	}
	w.Annotate = c.Output.Annotate
	return w, nil
}
