// Capture encoding and still-image loading
package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrUnsupportedFormat is returned for file extensions outside the supported set.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// IsSupportedImageFormat reports whether path has a readable image extension.
func IsSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// EncodePNG encodes an RGBA frame as a PNG image.
func EncodePNG(frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, errors.New("cannot encode empty frame")
	}
	if frame.Channels() != 4 {
		return nil, errors.Errorf("cannot encode %d-channel frame, want RGBA", frame.Channels())
	}

	bgra := gocv.NewMat()
	defer bgra.Close()
	if err := gocv.CvtColor(frame, &bgra, gocv.ColorRGBAToBGRA); err != nil {
		return nil, errors.Wrap(err, "convert to BGRA")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, bgra)
	if err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// DecodeRGBA decodes an encoded image into an RGBA frame. The caller closes it.
func DecodeRGBA(blob []byte) (gocv.Mat, error) {
	bgr, err := gocv.IMDecode(blob, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "decode image")
	}
	defer bgr.Close()
	if bgr.Empty() {
		return gocv.NewMat(), errors.New("decode image: empty result")
	}
	return toRGBA(bgr)
}

func toRGBA(bgr gocv.Mat) (gocv.Mat, error) {
	rgba := gocv.NewMat()
	if err := gocv.CvtColor(bgr, &rgba, gocv.ColorBGRToRGBA); err != nil {
		rgba.Close()
		return gocv.NewMat(), errors.Wrap(err, "convert to RGBA")
	}
	return rgba, nil
}

// Loader reads still images and writes exported captures.
type Loader struct {
	logger *logrus.Logger
}

// NewLoader creates a loader logging through logger.
func NewLoader(logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Loader{logger: logger}
}

// LoadStill reads an image file as an RGBA frame. The caller closes it.
func (l *Loader) LoadStill(path string) (gocv.Mat, error) {
	l.logger.WithField("filepath", path).Debug("Loading still image")

	if !IsSupportedImageFormat(path) {
		return gocv.NewMat(), errors.Wrap(ErrUnsupportedFormat, path)
	}

	bgr := gocv.IMRead(path, gocv.IMReadColor)
	defer bgr.Close()
	if bgr.Empty() {
		return gocv.NewMat(), errors.Errorf("failed to load image: %s", path)
	}

	rgba, err := toRGBA(bgr)
	if err != nil {
		return gocv.NewMat(), err
	}

	l.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    rgba.Cols(),
		"height":   rgba.Rows(),
	}).Info("Still image loaded")
	return rgba, nil
}

// Export writes an encoded capture to path after checking it decodes.
func (l *Loader) Export(blob []byte, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return errors.Wrapf(ErrUnsupportedFormat, "%s: captures are PNG", path)
	}

	frame, err := DecodeRGBA(blob)
	if err != nil {
		return errors.Wrap(err, "export")
	}
	width, height := frame.Cols(), frame.Rows()
	frame.Close()

	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return errors.Wrapf(err, "export %s", path)
	}

	l.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    width,
		"height":   height,
		"bytes":    len(blob),
	}).Info("Capture exported")
	return nil
}
