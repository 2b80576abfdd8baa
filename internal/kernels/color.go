// Color layout conversions between the display and intensity forms
package kernels

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Grayscale converts an RGBA frame to 1-channel intensity using the standard
// luma weights (0.299 R + 0.587 G + 0.114 B).
func Grayscale(src gocv.Mat, dst *gocv.Mat) error {
	const op = "grayscale"
	if err := checkUnary(op, src, dst, Display); err != nil {
		return err
	}
	if err := gocv.CvtColor(src, dst, gocv.ColorRGBAToGray); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

// ExpandToRGBA broadcasts a 1-channel buffer to the display layout by
// replicating the value across the color channels with full opacity.
func ExpandToRGBA(src gocv.Mat, dst *gocv.Mat) error {
	const op = "expand"
	if err := checkUnary(op, src, dst, Intensity); err != nil {
		return err
	}
	if err := gocv.CvtColor(src, dst, gocv.ColorGrayToRGBA); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}
