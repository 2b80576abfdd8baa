// Reusable intermediate buffers for one session
package filters

import (
	"gocv.io/x/gocv"

	"pixicam/internal/kernels"
)

// Scratch holds every intermediate buffer the catalog needs for frames of one
// fixed size. It is allocated once per session and reused on every tick.
type Scratch struct {
	Width, Height int

	Gray     gocv.Mat // 1ch W×H
	Blurred  gocv.Mat // 1ch W×H
	Edges    gocv.Mat // 1ch W×H
	Adaptive gocv.Mat // 1ch W×H
	Relief   gocv.Mat // 1ch W×H
	GradX    gocv.Mat // 1ch W×H
	GradY    gocv.Mat // 1ch W×H
	Combined gocv.Mat // 1ch W×H
	Sketch   gocv.Mat // 1ch W×H
	Wide     gocv.Mat // 16-bit signed W×H Sobel intermediate

	Mask      gocv.Mat // RGBA W×H cartoon outline
	Half      gocv.Mat // RGBA pyramid level 1
	Quarter   gocv.Mat // RGBA pyramid level 2
	Smoothed  gocv.Mat // RGBA level 2 after median
	HalfUp    gocv.Mat // RGBA level 1 on the way back up
	Upsampled gocv.Mat // RGBA level 0, may differ from W×H by round-off
	Filtered  gocv.Mat // RGBA W×H smoothed color

	closed bool
}

// NewScratch allocates the buffer set for width×height frames.
func NewScratch(width, height int) *Scratch {
	hw, hh := kernels.PyrDownSize(width, height)
	qw, qh := kernels.PyrDownSize(hw, hh)

	return &Scratch{
		Width:  width,
		Height: height,

		Gray:     kernels.NewIntensity(width, height),
		Blurred:  kernels.NewIntensity(width, height),
		Edges:    kernels.NewIntensity(width, height),
		Adaptive: kernels.NewIntensity(width, height),
		Relief:   kernels.NewIntensity(width, height),
		GradX:    kernels.NewIntensity(width, height),
		GradY:    kernels.NewIntensity(width, height),
		Combined: kernels.NewIntensity(width, height),
		Sketch:   kernels.NewIntensity(width, height),
		Wide:     gocv.NewMatWithSize(height, width, gocv.MatTypeCV16S),

		Mask:      kernels.NewDisplay(width, height),
		Half:      kernels.NewDisplay(hw, hh),
		Quarter:   kernels.NewDisplay(qw, qh),
		Smoothed:  kernels.NewDisplay(qw, qh),
		HalfUp:    kernels.NewDisplay(qw*2, qh*2),
		Upsampled: kernels.NewDisplay(qw*4, qh*4),
		Filtered:  kernels.NewDisplay(width, height),
	}
}

func (s *Scratch) mats() []*gocv.Mat {
	return []*gocv.Mat{
		&s.Gray, &s.Blurred, &s.Edges, &s.Adaptive, &s.Relief,
		&s.GradX, &s.GradY, &s.Combined, &s.Sketch, &s.Wide,
		&s.Mask, &s.Half, &s.Quarter, &s.Smoothed, &s.HalfUp, &s.Upsampled, &s.Filtered,
	}
}

// Close releases every buffer and returns how many were released. Calling it
// again is a no-op.
func (s *Scratch) Close() int {
	if s == nil || s.closed {
		return 0
	}
	released := 0
	for _, m := range s.mats() {
		if err := m.Close(); err == nil {
			released++
		}
	}
	s.closed = true
	return released
}

// Closed reports whether Close has run.
func (s *Scratch) Closed() bool {
	return s.closed
}
