package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotLive is returned by operations that need a live session.
	ErrNotLive = errors.New("session is not live")
	// ErrClosed is returned once the session buffers have been released.
	ErrClosed = errors.New("session closed")
	// ErrDimensionsUnavailable means the source never reported a frame size.
	ErrDimensionsUnavailable = errors.New("source dimensions not available")
	// ErrRetryExhausted is returned by Retry when every attempt failed.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
	// ErrNothingPresented is returned by Capture before the first frame was rendered.
	ErrNothingPresented = errors.New("no frame has been presented yet")
)

// StartupError is a fatal failure while bringing a session up: device or
// permission failure, dimensions that never materialize, buffer allocation.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed: %v", e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// TickError is a fatal failure while processing one tick.
type TickError struct {
	Tick   uint64
	Filter string
	Stage  string
	Err    error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (%s) failed during %s: %v", e.Tick, e.Filter, e.Stage, e.Err)
}

func (e *TickError) Unwrap() error { return e.Err }
