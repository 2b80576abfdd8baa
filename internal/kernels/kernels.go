// Package kernels is the pixel-buffer kernel library used by the filter catalog.
//
// Every kernel is a pure function over caller-owned gocv.Mat buffers. Shape
// contracts (matching width/height, channel count, odd kernel sizes) are
// programming-error conditions: they are reported as errors wrapping one of the
// sentinels below and are never retried by callers.
package kernels

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrEmpty is returned when an operand has no pixel data.
	ErrEmpty = errors.New("empty buffer")
	// ErrShapeMismatch is returned when operands disagree on width or height.
	ErrShapeMismatch = errors.New("buffer dimensions do not match")
	// ErrChannels is returned when an operand has the wrong channel layout.
	ErrChannels = errors.New("unexpected channel count")
	// ErrKernelSize is returned for non-positive or even kernel sizes.
	ErrKernelSize = errors.New("kernel size must be odd and >= 3")
)

// Channel layouts used by the pipeline.
const (
	Intensity = 1 // 1-channel intermediate form
	Display   = 4 // RGBA display form
)

func requireFilled(op string, m gocv.Mat) error {
	if m.Empty() || m.Rows() <= 0 || m.Cols() <= 0 {
		return errors.Wrap(ErrEmpty, op)
	}
	return nil
}

func requireChannels(op string, m gocv.Mat, channels ...int) error {
	for _, c := range channels {
		if m.Channels() == c {
			return nil
		}
	}
	return errors.Wrapf(ErrChannels, "%s: got %d channels, want one of %v", op, m.Channels(), channels)
}

// requireSameSize checks that b matches a. An empty b is accepted when
// allowEmpty is set, in which case gocv allocates it.
func requireSameSize(op string, a, b gocv.Mat, allowEmpty bool) error {
	if b.Empty() && allowEmpty {
		return nil
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return errors.Wrapf(ErrShapeMismatch, "%s: %dx%d vs %dx%d", op, a.Cols(), a.Rows(), b.Cols(), b.Rows())
	}
	return nil
}

func requireOddSize(op string, ksize int) error {
	if ksize < 3 || ksize%2 == 0 {
		return errors.Wrapf(ErrKernelSize, "%s: %d", op, ksize)
	}
	return nil
}

// checkUnary runs the common precondition set for single-input kernels.
func checkUnary(op string, src gocv.Mat, dst *gocv.Mat, channels ...int) error {
	if err := requireFilled(op, src); err != nil {
		return err
	}
	if len(channels) > 0 {
		if err := requireChannels(op, src, channels...); err != nil {
			return err
		}
	}
	if dst == nil {
		return errors.Wrap(ErrEmpty, op+": nil destination")
	}
	return requireSameSize(op, src, *dst, true)
}

// SameShape reports whether a and b share width, height and channel count.
func SameShape(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols() && a.Channels() == b.Channels()
}

// NewDisplay allocates a zeroed RGBA buffer of the given size.
func NewDisplay(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC4)
}

// NewIntensity allocates a zeroed 1-channel buffer of the given size.
func NewIntensity(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
}
