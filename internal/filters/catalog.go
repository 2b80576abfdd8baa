// Filter compositions over the kernel library
package filters

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"pixicam/internal/kernels"
)

// Fixed effect parameters. The Canny thresholds are part of the edge filter's
// contract, not tunable defaults.
const (
	EdgeBlurSize      = 5
	EdgeLowThreshold  = 50
	EdgeHighThreshold = 150

	CartoonMedianSize    = 7
	CartoonBlockSize     = 9
	CartoonThresholdBias = 2
	CartoonPyramidLevels = 2

	SketchBlurSize = 3
	SketchWeight   = 0.5

	PosterizeLevels = 4
)

// Apply renders src through filter f into dst. src and dst are RGBA frames of
// the scratch set's dimensions; src is never modified.
func Apply(f Filter, src gocv.Mat, dst *gocv.Mat, s *Scratch) error {
	if dst == nil || s == nil {
		return errors.Wrap(kernels.ErrEmpty, "apply: nil destination or scratch")
	}
	if s.Closed() {
		return errors.Wrap(kernels.ErrEmpty, "apply: scratch already released")
	}
	if src.Cols() != s.Width || src.Rows() != s.Height || src.Channels() != kernels.Display {
		return errors.Wrapf(kernels.ErrShapeMismatch, "apply %s: frame %dx%dx%d, session %dx%dx%d",
			f, src.Cols(), src.Rows(), src.Channels(), s.Width, s.Height, kernels.Display)
	}

	var err error
	switch f {
	case None:
		err = copyFrame(src, dst)
	case Edge:
		err = edge(src, dst, s)
	case Cartoon:
		err = cartoon(src, dst, s)
	case Emboss:
		err = emboss(src, dst, s)
	case Sharpen:
		err = kernels.Filter2D(src, dst, kernels.SharpenKernel)
	case PencilSketch:
		err = pencilSketch(src, dst, s)
	case Posterize:
		err = posterize(src, dst)
	default:
		err = errors.Wrapf(ErrUnknownFilter, "%d", int(f))
	}
	if err != nil {
		return errors.Wrapf(err, "filter %s", f)
	}
	return nil
}

func copyFrame(src gocv.Mat, dst *gocv.Mat) error {
	if err := src.CopyTo(dst); err != nil {
		return errors.Wrap(err, "copy")
	}
	if !kernels.SameShape(src, *dst) {
		return errors.Wrap(kernels.ErrShapeMismatch, "copy")
	}
	return nil
}

// edge: grayscale, 5x5 Gaussian, Canny(50, 150), expand.
func edge(src gocv.Mat, dst *gocv.Mat, s *Scratch) error {
	if err := kernels.Grayscale(src, &s.Gray); err != nil {
		return err
	}
	if err := kernels.GaussianBlur(s.Gray, &s.Blurred, EdgeBlurSize, 0); err != nil {
		return err
	}
	if err := kernels.Canny(s.Blurred, &s.Edges, EdgeLowThreshold, EdgeHighThreshold); err != nil {
		return err
	}
	return kernels.ExpandToRGBA(s.Edges, dst)
}

// cartoon masks a pyramid-smoothed copy of the frame with adaptive-threshold
// outlines.
func cartoon(src gocv.Mat, dst *gocv.Mat, s *Scratch) error {
	// outlines
	if err := kernels.Grayscale(src, &s.Gray); err != nil {
		return err
	}
	if err := kernels.MedianBlur(s.Gray, &s.Blurred, CartoonMedianSize); err != nil {
		return err
	}
	if err := kernels.AdaptiveThreshold(s.Blurred, &s.Adaptive, CartoonBlockSize, CartoonThresholdBias); err != nil {
		return err
	}
	if err := kernels.ExpandToRGBA(s.Adaptive, &s.Mask); err != nil {
		return err
	}

	// color
	if err := kernels.PyrDown(src, &s.Half); err != nil {
		return err
	}
	if err := kernels.PyrDown(s.Half, &s.Quarter); err != nil {
		return err
	}
	if err := kernels.MedianBlur(s.Quarter, &s.Smoothed, CartoonMedianSize); err != nil {
		return err
	}
	if err := kernels.PyrUp(s.Smoothed, &s.HalfUp); err != nil {
		return err
	}
	if err := kernels.PyrUp(s.HalfUp, &s.Upsampled); err != nil {
		return err
	}

	color := s.Upsampled
	if s.Upsampled.Cols() != s.Width || s.Upsampled.Rows() != s.Height {
		if err := kernels.ResizeTo(s.Upsampled, &s.Filtered, s.Width, s.Height); err != nil {
			return err
		}
		color = s.Filtered
	}

	return kernels.BitwiseAnd(color, s.Mask, dst)
}

// emboss: grayscale, relief convolution with bias 128, expand.
func emboss(src gocv.Mat, dst *gocv.Mat, s *Scratch) error {
	if err := kernels.Grayscale(src, &s.Gray); err != nil {
		return err
	}
	if err := kernels.Filter2D(s.Gray, &s.Relief, kernels.EmbossKernel); err != nil {
		return err
	}
	return kernels.ExpandToRGBA(s.Relief, dst)
}

// pencilSketch: grayscale, 3x3 Gaussian, |Gx| and |Gy| averaged, inverted.
func pencilSketch(src gocv.Mat, dst *gocv.Mat, s *Scratch) error {
	if err := kernels.Grayscale(src, &s.Gray); err != nil {
		return err
	}
	if err := kernels.GaussianBlur(s.Gray, &s.Blurred, SketchBlurSize, 0); err != nil {
		return err
	}
	if err := kernels.Sobel(s.Blurred, &s.Wide, &s.GradX, kernels.Horizontal); err != nil {
		return err
	}
	if err := kernels.Sobel(s.Blurred, &s.Wide, &s.GradY, kernels.Vertical); err != nil {
		return err
	}
	if err := kernels.AddWeighted(s.GradX, SketchWeight, s.GradY, SketchWeight, 0, &s.Combined); err != nil {
		return err
	}
	if err := kernels.Invert(s.Combined, &s.Sketch); err != nil {
		return err
	}
	return kernels.ExpandToRGBA(s.Sketch, dst)
}

// posterize quantizes a working copy so src stays untouched.
func posterize(src gocv.Mat, dst *gocv.Mat) error {
	if err := copyFrame(src, dst); err != nil {
		return err
	}
	return kernels.Posterize(dst, PosterizeLevels)
}
