// Generic 2D convolution and the static kernels that specialize it
package kernels

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ConvolutionBorder is the edge policy of Filter2D: border pixels are
// replicated beyond the buffer edge (aaaaaa|abcdefgh|hhhhhhh).
const ConvolutionBorder = gocv.BorderReplicate

// Kernel is a square matrix of signed weights plus a bias added to every
// output sample.
type Kernel struct {
	Size    int
	Weights []float32 // row-major, Size*Size entries
	Bias    float64
}

var (
	// EmbossKernel produces a relief effect lit from the top-left.
	EmbossKernel = Kernel{
		Size: 3,
		Weights: []float32{
			-2, -1, 0,
			-1, 1, 1,
			0, 1, 2,
		},
		Bias: 128,
	}

	// SharpenKernel boosts the center sample against its 4-neighbours.
	SharpenKernel = Kernel{
		Size: 3,
		Weights: []float32{
			0, -1, 0,
			-1, 5, -1,
			0, -1, 0,
		},
		Bias: 0,
	}
)

// Sum returns the sum of the kernel weights.
func (k Kernel) Sum() float32 {
	var s float32
	for _, w := range k.Weights {
		s += w
	}
	return s
}

// Validate checks that the kernel is odd-sized and fully populated.
func (k Kernel) Validate() error {
	if err := requireOddSize("kernel", k.Size); err != nil {
		return err
	}
	if len(k.Weights) != k.Size*k.Size {
		return errors.Wrapf(ErrKernelSize, "kernel: %d weights for size %d", len(k.Weights), k.Size)
	}
	return nil
}

// Mat builds the CV_32F matrix form of the kernel. The caller closes it.
func (k Kernel) Mat() gocv.Mat {
	m := gocv.NewMatWithSize(k.Size, k.Size, gocv.MatTypeCV32F)
	for r := 0; r < k.Size; r++ {
		for c := 0; c < k.Size; c++ {
			m.SetFloatAt(r, c, k.Weights[r*k.Size+c])
		}
	}
	return m
}

// Filter2D computes dst[x,y] = clamp(sum(k[i,j] * src[x+i-c, y+j-c]) + bias, 0, 255)
// for every channel of src, with the kernel centered on each pixel.
func Filter2D(src gocv.Mat, dst *gocv.Mat, k Kernel) error {
	const op = "filter2d"
	if err := k.Validate(); err != nil {
		return err
	}
	if err := checkUnary(op, src, dst, Intensity, Display); err != nil {
		return err
	}

	kernel := k.Mat()
	defer kernel.Close()

	if err := gocv.Filter2D(src, dst, -1, kernel, image.Point{X: -1, Y: -1}, k.Bias, ConvolutionBorder); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}
