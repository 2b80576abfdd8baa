package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pixicam/internal/core"
	"pixicam/internal/source"
)

// Config is the complete application configuration.
type Config struct {
	Camera          CameraConfig  `yaml:"camera"`
	Startup         StartupConfig `yaml:"startup"`
	Storage         StorageConfig `yaml:"storage"`
	Filter          string        `yaml:"filter"` // initial filter name
	Log             LogConfig     `yaml:"log"`
	StatsIntervalMS int           `yaml:"stats_interval_ms"` // 0 disables periodic stats
}

// CameraConfig selects the frame source
type CameraConfig struct {
	Device     string  `yaml:"device"` // index ("0") or path/URL
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FPS        float64 `yaml:"fps"`
	StillImage string  `yaml:"still_image"` // replaces the camera when set
}

// StartupConfig bounds the wait for source dimensions
type StartupConfig struct {
	PollAttempts   int `yaml:"poll_attempts"`
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// StorageConfig locates the capture store
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LogConfig overrides logger level and format
type LogConfig struct {
	Level  string `yaml:"level"`  // logrus level name
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Device: "0",
			FPS:    core.DefaultFPS,
		},
		Startup: StartupConfig{
			PollAttempts:   core.DimensionPollAttempts,
			PollIntervalMS: int(core.DimensionPollInterval / time.Millisecond),
		},
		Storage: StorageConfig{Path: "pixicam.db"},
		Filter:  "none",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		StatsIntervalMS: 5000,
	}
}

// Load reads a YAML file over the defaults and validates the result. An
// empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// ReadinessPolicy converts the startup section to a retry policy.
func (c *Config) ReadinessPolicy() core.RetryPolicy {
	return core.RetryPolicy{
		MaxAttempts: c.Startup.PollAttempts,
		Interval:    time.Duration(c.Startup.PollIntervalMS) * time.Millisecond,
	}
}

// StatsInterval returns the loop statistics period.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalMS) * time.Millisecond
}

// CameraSource returns the camera section in the source package's terms.
func (c *Config) CameraSource() source.CameraConfig {
	return source.CameraConfig{
		Device: c.Camera.Device,
		Width:  c.Camera.Width,
		Height: c.Camera.Height,
		FPS:    c.Camera.FPS,
	}
}
