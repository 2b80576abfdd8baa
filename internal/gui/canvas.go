// Live preview canvas fed by the render loop
package gui

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// CanvasRenderer presents RGBA frames on a fyne canvas.Image. Present blocks
// until the new frame is installed on the UI thread.
type CanvasRenderer struct {
	mu     sync.Mutex
	image  *canvas.Image
	frames [2]*image.RGBA
	next   int
	logger *logrus.Entry
}

// NewCanvasRenderer creates a renderer showing a gray placeholder until the
// first frame arrives.
func NewCanvasRenderer(logger *logrus.Logger) *CanvasRenderer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	placeholder := image.NewRGBA(image.Rect(0, 0, 320, 240))
	draw.Draw(placeholder, placeholder.Bounds(), &image.Uniform{C: color.RGBA{240, 240, 240, 255}}, image.Point{}, draw.Src)

	img := canvas.NewImageFromImage(placeholder)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleFastest
	img.SetMinSize(fyne.NewSize(320, 240))

	return &CanvasRenderer{
		image:  img,
		logger: logger.WithField("component", "renderer"),
	}
}

// Object returns the canvas object to place in a layout.
func (r *CanvasRenderer) Object() fyne.CanvasObject { return r.image }

// Present copies frame into an off-screen buffer and swaps it in. Two
// buffers alternate so the one being drawn is never the one being written.
func (r *CanvasRenderer) Present(frame gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dst, err := CopyFrame(frame, r.frames[r.next])
	if err != nil {
		return err
	}
	r.frames[r.next] = dst
	r.next ^= 1

	fyne.DoAndWait(func() {
		r.image.Image = dst
		r.image.Refresh()
	})
	return nil
}

// Current returns the image on screen.
func (r *CanvasRenderer) Current() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.image.Image
}

// CopyFrame copies an 8-bit RGBA Mat into dst, reallocating dst when its
// bounds do not match.
func CopyFrame(frame gocv.Mat, dst *image.RGBA) (*image.RGBA, error) {
	if frame.Empty() {
		return nil, errors.New("present: empty frame")
	}
	if frame.Type() != gocv.MatTypeCV8UC4 {
		return nil, errors.Errorf("present: frame type %v, want 8-bit RGBA", frame.Type())
	}

	w, h := frame.Cols(), frame.Rows()
	if dst == nil || dst.Bounds().Dx() != w || dst.Bounds().Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	data, err := frame.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "present: frame data")
	}
	if len(data) < len(dst.Pix) {
		return nil, errors.Errorf("present: frame holds %d bytes, need %d", len(data), len(dst.Pix))
	}
	copy(dst.Pix, data)
	return dst, nil
}
