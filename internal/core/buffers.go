// Session-owned frame buffers
package core

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"pixicam/internal/filters"
	"pixicam/internal/kernels"
)

// Upper bound on either frame dimension.
const maxDimension = 16384

// FrameBuffers is the fixed-size buffer set of one session: the input frame
// pulled from the source, the filtered output, and the filter scratch set.
// It is owned by a single tick at a time and never shared.
type FrameBuffers struct {
	Width, Height int

	Input   gocv.Mat
	Output  gocv.Mat
	Scratch *filters.Scratch

	released bool
}

// ValidateDimensions checks a frame size reported by a source.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrDimensionsUnavailable, "invalid dimensions: %dx%d", width, height)
	}
	if width > maxDimension || height > maxDimension {
		return errors.Errorf("frame too large: %dx%d (max: %d)", width, height, maxDimension)
	}
	return nil
}

// NewFrameBuffers allocates every buffer for width×height frames.
func NewFrameBuffers(width, height int) (fb *FrameBuffers, err error) {
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	// gocv surfaces native allocation failure as a panic.
	defer func() {
		if r := recover(); r != nil {
			fb = nil
			err = errors.Errorf("allocating %dx%d buffers: %v", width, height, r)
		}
	}()

	fb = &FrameBuffers{
		Width:   width,
		Height:  height,
		Input:   kernels.NewDisplay(width, height),
		Output:  kernels.NewDisplay(width, height),
		Scratch: filters.NewScratch(width, height),
	}
	if fb.Input.Empty() || fb.Output.Empty() {
		fb.Release()
		return nil, errors.Errorf("allocating %dx%d buffers: empty result", width, height)
	}
	return fb, nil
}

// Release frees every buffer and returns how many were released. It is safe
// to call more than once.
func (fb *FrameBuffers) Release() int {
	if fb == nil || fb.released {
		return 0
	}
	released := fb.Scratch.Close()
	for _, m := range []*gocv.Mat{&fb.Input, &fb.Output} {
		if err := m.Close(); err == nil {
			released++
		}
	}
	fb.released = true
	return released
}

// Released reports whether Release has run.
func (fb *FrameBuffers) Released() bool {
	return fb == nil || fb.released
}
