// Package source provides the frame sources the pipeline pulls from: a live
// camera opened through gocv and a still image repeated on every tick.
package source

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	// ErrDeviceUnavailable covers a missing device as well as denied access.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrReadFailed is returned when the device stops delivering frames.
	ErrReadFailed = errors.New("camera read failed")
	// ErrSourceClosed is returned by Acquire after Close.
	ErrSourceClosed = errors.New("source closed")
)

// CameraConfig selects a capture device and the mode requested from it.
// Zero width, height or fps leave the device default in place.
type CameraConfig struct {
	Device string
	Width  int
	Height int
	FPS    float64
}

// Camera is a live frame source backed by gocv.VideoCapture.
type Camera struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	bgr     gocv.Mat
	logger  *logrus.Entry

	width  int
	height int
	fps    float64
	primed bool
	closed bool
}

// OpenCamera opens the configured device. A numeric device is treated as a
// camera index, anything else as a path or URL.
func OpenCamera(cfg CameraConfig, logger *logrus.Logger) (*Camera, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("device", cfg.Device)

	var device interface{} = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(ErrDeviceUnavailable, "%s: %v", cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Wrapf(ErrDeviceUnavailable, "%s: not opened", cfg.Device)
	}

	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, cfg.FPS)
	}

	c := &Camera{
		capture: capture,
		bgr:     gocv.NewMat(),
		logger:  entry,
		fps:     capture.Get(gocv.VideoCaptureFPS),
	}
	entry.WithFields(logrus.Fields{
		"requested_width":  cfg.Width,
		"requested_height": cfg.Height,
		"fps":              c.fps,
	}).Info("Camera opened")
	return c, nil
}

// Dimensions reports the native frame size. Devices that do not publish it
// through their properties become ready once the first frame has arrived.
func (c *Camera) Dimensions() (int, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, 0, false
	}
	if c.width > 0 && c.height > 0 {
		return c.width, c.height, true
	}

	w := int(c.capture.Get(gocv.VideoCaptureFrameWidth))
	h := int(c.capture.Get(gocv.VideoCaptureFrameHeight))
	if w <= 0 || h <= 0 {
		if !c.capture.Read(&c.bgr) || c.bgr.Empty() {
			return 0, 0, false
		}
		w, h = c.bgr.Cols(), c.bgr.Rows()
		c.primed = true
	}

	c.width, c.height = w, h
	c.logger.WithFields(logrus.Fields{"width": w, "height": h}).Debug("Camera dimensions known")
	return w, h, true
}

// Acquire reads the next frame and converts it to RGBA in dst. A frame read
// while probing dimensions is delivered first.
func (c *Camera) Acquire(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSourceClosed
	}
	if c.primed {
		c.primed = false
	} else if !c.capture.Read(&c.bgr) {
		return ErrReadFailed
	}
	if c.bgr.Empty() {
		return errors.Wrap(ErrReadFailed, "empty frame")
	}
	return toRGBA(c.bgr, dst)
}

// FPS returns the frame rate the device reports, zero when unknown.
func (c *Camera) FPS() float64 { return c.fps }

// Close releases the device. It is safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.bgr.Close()
	if err := c.capture.Close(); err != nil {
		return errors.Wrap(err, "close camera")
	}
	c.logger.Info("Camera closed")
	return nil
}

func toRGBA(src gocv.Mat, dst *gocv.Mat) error {
	code := gocv.ColorBGRToRGBA
	switch src.Channels() {
	case 1:
		code = gocv.ColorGrayToRGBA
	case 4:
		code = gocv.ColorBGRAToRGBA
	}
	if err := gocv.CvtColor(src, dst, code); err != nil {
		return errors.Wrap(err, "convert frame to RGBA")
	}
	return nil
}
