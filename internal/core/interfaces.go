package core

import (
	"gocv.io/x/gocv"
)

// FrameSource produces RGBA frames for the pipeline.
type FrameSource interface {
	// Dimensions reports the native frame size once the device has one.
	Dimensions() (width, height int, ready bool)
	// Acquire blocks until the next frame is available and writes it into dst,
	// which is pre-sized to the reported dimensions.
	Acquire(dst *gocv.Mat) error
}

// Renderer presents a finished frame. Present must complete before it returns.
type Renderer interface {
	Present(frame gocv.Mat) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(frame gocv.Mat) error

func (f RendererFunc) Present(frame gocv.Mat) error { return f(frame) }

// CaptureStore persists encoded captures.
type CaptureStore interface {
	Save(category string, blob []byte) (uint64, error)
}

// Encoder turns the rendered frame into an exportable image artifact.
type Encoder func(frame gocv.Mat) ([]byte, error)
