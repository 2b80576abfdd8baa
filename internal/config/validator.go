package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"pixicam/internal/filters"
)

// Validate checks the configuration and fills in blank optional values.
func Validate(cfg *Config) error {
	if cfg.Camera.StillImage == "" && cfg.Camera.Device == "" {
		return errors.New("camera.device or camera.still_image is required")
	}
	if cfg.Camera.Width < 0 || cfg.Camera.Height < 0 {
		return errors.Errorf("camera size must not be negative, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Camera.FPS <= 0 {
		return errors.Errorf("camera.fps must be > 0, got %v", cfg.Camera.FPS)
	}

	if cfg.Startup.PollAttempts <= 0 {
		return errors.Errorf("startup.poll_attempts must be > 0, got %d", cfg.Startup.PollAttempts)
	}
	if cfg.Startup.PollIntervalMS <= 0 {
		return errors.Errorf("startup.poll_interval_ms must be > 0, got %d", cfg.Startup.PollIntervalMS)
	}
	if cfg.StatsIntervalMS < 0 {
		return errors.Errorf("stats_interval_ms must not be negative, got %d", cfg.StatsIntervalMS)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "pixicam.db"
	}

	if cfg.Filter == "" {
		cfg.Filter = filters.None.String()
	}
	if _, err := filters.Parse(cfg.Filter); err != nil {
		return errors.Wrap(err, "filter")
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = "json"
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return nil
}
