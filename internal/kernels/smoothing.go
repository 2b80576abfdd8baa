// Smoothing and pyramid resampling kernels
package kernels

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SmoothingBorder is the edge policy of every smoothing kernel: reflect
// without repeating the edge pixel (gfedcb|abcdefgh|gfedcba). Output
// dimensions always equal input dimensions.
const SmoothingBorder = gocv.BorderReflect101

// GaussianBlur blurs src with a ksize×ksize Gaussian. A sigma of 0 derives
// the standard deviation from ksize.
func GaussianBlur(src gocv.Mat, dst *gocv.Mat, ksize int, sigma float64) error {
	const op = "gaussian blur"
	if err := requireOddSize(op, ksize); err != nil {
		return err
	}
	if err := checkUnary(op, src, dst, Intensity, Display); err != nil {
		return err
	}
	if err := gocv.GaussianBlur(src, dst, image.Pt(ksize, ksize), sigma, sigma, SmoothingBorder); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

// MedianBlur replaces each sample with the median of its ksize×ksize window,
// channel by channel.
func MedianBlur(src gocv.Mat, dst *gocv.Mat, ksize int) error {
	const op = "median blur"
	if err := requireOddSize(op, ksize); err != nil {
		return err
	}
	if err := checkUnary(op, src, dst, Intensity, Display); err != nil {
		return err
	}
	if err := gocv.MedianBlur(src, dst, ksize); err != nil {
		return errors.Wrap(err, op)
	}
	return requireSameSize(op, src, *dst, false)
}

// PyrDownSize returns the size PyrDown produces for a width×height input.
func PyrDownSize(width, height int) (int, int) {
	return (width + 1) / 2, (height + 1) / 2
}

// PyrDown Gaussian-blurs src and drops every other row and column.
func PyrDown(src gocv.Mat, dst *gocv.Mat) error {
	const op = "pyramid down"
	if err := requireFilled(op, src); err != nil {
		return err
	}
	if dst == nil {
		return errors.Wrap(ErrEmpty, op+": nil destination")
	}
	w, h := PyrDownSize(src.Cols(), src.Rows())
	if !dst.Empty() && (dst.Cols() != w || dst.Rows() != h) {
		return errors.Wrapf(ErrShapeMismatch, "%s: want %dx%d, destination is %dx%d", op, w, h, dst.Cols(), dst.Rows())
	}
	if err := gocv.PyrDown(src, dst, image.Point{}, gocv.BorderDefault); err != nil {
		return errors.Wrap(err, op)
	}
	return requireFilled(op, *dst)
}

// PyrUp doubles src in both directions and smooths the interpolated samples.
func PyrUp(src gocv.Mat, dst *gocv.Mat) error {
	const op = "pyramid up"
	if err := requireFilled(op, src); err != nil {
		return err
	}
	if dst == nil {
		return errors.Wrap(ErrEmpty, op+": nil destination")
	}
	w, h := src.Cols()*2, src.Rows()*2
	if !dst.Empty() && (dst.Cols() != w || dst.Rows() != h) {
		return errors.Wrapf(ErrShapeMismatch, "%s: want %dx%d, destination is %dx%d", op, w, h, dst.Cols(), dst.Rows())
	}
	if err := gocv.PyrUp(src, dst, image.Point{}, gocv.BorderDefault); err != nil {
		return errors.Wrap(err, op)
	}
	return requireFilled(op, *dst)
}

// ResizeTo resamples src to width×height with bilinear interpolation.
func ResizeTo(src gocv.Mat, dst *gocv.Mat, width, height int) error {
	const op = "resize"
	if err := requireFilled(op, src); err != nil {
		return err
	}
	if dst == nil {
		return errors.Wrap(ErrEmpty, op+": nil destination")
	}
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrShapeMismatch, "%s: target %dx%d", op, width, height)
	}
	if err := gocv.Resize(src, dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}
