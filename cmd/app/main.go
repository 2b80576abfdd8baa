// Pixicam - live camera preview with real-time filters
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"pixicam/internal/config"
	"pixicam/internal/core"
	"pixicam/internal/filters"
	"pixicam/internal/gui"
	"pixicam/internal/media"
	"pixicam/internal/source"
	"pixicam/internal/storage"
)

const (
	AppName    = "Pixicam"
	AppID      = "com.pixicam.camera"
	AppVersion = "1.0.0"
)

type options struct {
	debug      bool
	configPath string
	device     string
	still      string
	store      string
	filter     string
	headless   bool
}

// frameSource is what the app needs from a camera or still image.
type frameSource interface {
	core.FrameSource
	FPS() float64
	Close() error
}

func main() {
	fs := flag.CommandLine
	opts := registerFlags(fs)
	flag.Parse()

	cfg, err := loadConfig(fs, opts)
	if err != nil {
		logrus.WithError(err).Fatal("Configuration error")
	}

	logger := initLogger(opts.debug, cfg.Log)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": opts.debug,
		"headless":   opts.headless,
		"config":     opts.configPath,
	}).Info("Starting " + AppName)

	if err := run(cfg, opts.headless, logger); err != nil {
		logger.WithError(err).Error("Exiting with error")
		os.Exit(1)
	}
	logger.Info("Application shutting down gracefully")
}

func registerFlags(fs *flag.FlagSet) *options {
	opts := &options{}
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug mode with verbose logging")
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&opts.device, "device", "", "Camera index or video path (overrides camera.device)")
	fs.StringVar(&opts.still, "still", "", "Use a still image instead of a camera")
	fs.StringVar(&opts.store, "store", "", "Capture store file (overrides storage.path)")
	fs.StringVar(&opts.filter, "filter", "", "Initial filter: "+filterNames())
	fs.BoolVar(&opts.headless, "headless", false, "Run the pipeline without a window until interrupted")
	return opts
}

// loadConfig reads the config file, then applies only the flags that were
// set explicitly on fs.
func loadConfig(fs *flag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Camera.Device = opts.device
		case "still":
			cfg.Camera.StillImage = opts.still
		case "store":
			cfg.Storage.Path = opts.store
		case "filter":
			cfg.Filter = opts.filter
		}
	})
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func run(cfg *config.Config, headless bool, logger *logrus.Logger) error {
	store, err := storage.Open(cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	loader := media.NewLoader(logger)

	var fyneApp fyne.App
	if !headless {
		fyneApp = app.NewWithID(AppID)
		fyneApp.SetIcon(theme.MediaPhotoIcon())
		fyneApp.Settings().SetTheme(theme.DefaultTheme())
	}

	src, err := openSource(cfg, loader, logger)
	if err != nil {
		err = &core.StartupError{Err: err}
		if fyneApp != nil {
			gui.ShowStartupError(fyneApp, err)
		}
		return err
	}
	defer src.Close()

	initial, err := filters.Parse(cfg.Filter)
	if err != nil {
		return err
	}

	fps := src.FPS()
	if fps <= 0 {
		fps = cfg.Camera.FPS
	}
	clock := core.NewTickerClock(fps)
	defer clock.Stop()

	sessionOpts := []core.Option{
		core.WithLogger(logger),
		core.WithStore(store),
		core.WithReadinessPolicy(cfg.ReadinessPolicy()),
		core.WithInitialFilter(initial),
	}

	if headless {
		session := core.NewSession(src, headlessRenderer(logger), sessionOpts...)
		loop := core.NewLoop(session, clock, logger, core.WithStatsInterval(cfg.StatsInterval()))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return loop.Run(ctx)
	}

	renderer := gui.NewCanvasRenderer(logger)
	session := core.NewSession(src, renderer, sessionOpts...)
	loop := core.NewLoop(session, clock, logger, core.WithStatsInterval(cfg.StatsInterval()))

	gui.NewApplication(fyneApp, logger, loop, renderer, store, loader).ShowAndRun()
	<-loop.Done()
	if session.Phase() == core.PhaseError {
		return session.Err()
	}
	return nil
}

func openSource(cfg *config.Config, loader *media.Loader, logger *logrus.Logger) (frameSource, error) {
	if cfg.Camera.StillImage != "" {
		return source.OpenStill(loader, cfg.Camera.StillImage)
	}
	return source.OpenCamera(cfg.CameraSource(), logger)
}

// headlessRenderer discards frames, logging the size of the first one.
func headlessRenderer(logger *logrus.Logger) core.Renderer {
	first := true
	return core.RendererFunc(func(frame gocv.Mat) error {
		if first {
			first = false
			logger.WithFields(logrus.Fields{
				"width":  frame.Cols(),
				"height": frame.Rows(),
			}).Info("Headless rendering started")
		}
		return nil
	})
}

func filterNames() string {
	var names []string
	for _, f := range filters.All() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// initLogger initializes the logger from the debug flag and the log section.
func initLogger(debugMode bool, logCfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
		return logger
	}

	level, err := logrus.ParseLevel(logCfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if logCfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}
