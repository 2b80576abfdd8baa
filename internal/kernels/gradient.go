// Gradient and edge extraction kernels
package kernels

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SobelAperture is the fixed 3×3 Sobel kernel size. Canny uses the same
// aperture for its internal gradient.
const SobelAperture = 3

// Direction selects the derivative a Sobel pass computes.
type Direction int

const (
	// Horizontal is Gx: [-1 0 1; -2 0 2; -1 0 1], responds to vertical lines.
	Horizontal Direction = iota
	// Vertical is Gy: [-1 -2 -1; 0 0 0; 1 2 1], responds to horizontal lines.
	Vertical
)

// Sobel computes the directional derivative of a 1-channel src into a signed
// 16-bit intermediate, then stores |d| saturated to 8 bits in dst. wide is a
// caller-owned scratch buffer for the 16-bit intermediate.
func Sobel(src gocv.Mat, wide *gocv.Mat, dst *gocv.Mat, dir Direction) error {
	const op = "sobel"
	if err := checkUnary(op, src, dst, Intensity); err != nil {
		return err
	}
	if wide == nil {
		return errors.Wrap(ErrEmpty, op+": nil intermediate")
	}
	if err := requireSameSize(op, src, *wide, true); err != nil {
		return err
	}

	dx, dy := 1, 0
	if dir == Vertical {
		dx, dy = 0, 1
	}
	if err := gocv.Sobel(src, wide, gocv.MatTypeCV16S, dx, dy, SobelAperture, 1, 0, SmoothingBorder); err != nil {
		return errors.Wrap(err, op)
	}
	if err := gocv.ConvertScaleAbs(*wide, dst, 1, 0); err != nil {
		return errors.Wrap(err, op)
	}
	return requireSameSize(op, src, *dst, false)
}

// Canny extracts edges from a 1-channel src: Sobel gradient, non-maximum
// suppression along the gradient direction, then hysteresis where weak edges
// (>= low) survive only when connected to a strong edge (>= high).
// Output samples are 0 or 255.
func Canny(src gocv.Mat, dst *gocv.Mat, low, high float32) error {
	const op = "canny"
	if err := checkUnary(op, src, dst, Intensity); err != nil {
		return err
	}
	if low < 0 || high < low {
		return errors.Errorf("%s: invalid thresholds low=%v high=%v", op, low, high)
	}
	if err := gocv.Canny(src, dst, low, high); err != nil {
		return errors.Wrap(err, op)
	}
	return requireSameSize(op, src, *dst, false)
}
