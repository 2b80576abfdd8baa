// Package core holds the frame pipeline session and the render loop that
// drives it.
package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"pixicam/internal/filters"
	"pixicam/internal/kernels"
	"pixicam/internal/media"
	"pixicam/internal/metrics"
)

// Storage categories.
const (
	CategoryPhotos = "photos"
	CategoryVideos = "videos"
)

// Session is the explicit pipeline context: current filter, frame size,
// buffers and lifecycle phase. Start, SetFilter, Tick, Capture and Close must
// be called from one goroutine (the loop); Phase, Err and ID may be read from
// anywhere.
type Session struct {
	id       string
	logger   *logrus.Entry
	source   FrameSource
	renderer Renderer
	store    CaptureStore
	encode   Encoder
	recorder *metrics.Recorder
	policy   RetryPolicy

	phase atomic.Int32

	errMu   sync.Mutex
	lastErr error

	filter    filters.Filter
	buffers   *FrameBuffers
	presented *gocv.Mat
	ticks     uint64
	closed    bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the base logger; the session adds its id field.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger.WithField("session_id", s.id)
		}
	}
}

// WithStore enables Capture.
func WithStore(store CaptureStore) Option {
	return func(s *Session) { s.store = store }
}

// WithEncoder replaces the PNG capture encoder.
func WithEncoder(enc Encoder) Option {
	return func(s *Session) {
		if enc != nil {
			s.encode = enc
		}
	}
}

// WithRecorder attaches tick statistics.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithReadinessPolicy overrides the startup dimension polling policy.
func WithReadinessPolicy(p RetryPolicy) Option {
	return func(s *Session) { s.policy = p }
}

// WithInitialFilter selects the filter used from the first tick.
func WithInitialFilter(f filters.Filter) Option {
	return func(s *Session) {
		if f.Valid() {
			s.filter = f
		}
	}
}

// NewSession creates a session in the Initializing phase.
func NewSession(source FrameSource, renderer Renderer, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		source:   source,
		renderer: renderer,
		encode:   media.EncodePNG,
		recorder: metrics.NewRecorder(),
		policy:   DimensionPolicy,
		filter:   filters.None,
	}
	s.logger = logrus.StandardLogger().WithField("session_id", s.id)
	for _, opt := range opts {
		opt(s)
	}
	s.phase.Store(int32(PhaseInitializing))
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase { return Phase(s.phase.Load()) }

// Err returns the error that moved the session to PhaseError, if any.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// Recorder returns the session's tick statistics.
func (s *Session) Recorder() *metrics.Recorder { return s.recorder }

// Filter returns the filter the next tick will apply.
func (s *Session) Filter() filters.Filter { return s.filter }

// Dimensions returns the session frame size, zero before Start succeeds.
func (s *Session) Dimensions() (int, int) {
	if s.buffers == nil {
		return 0, 0
	}
	return s.buffers.Width, s.buffers.Height
}

// Ticks returns how many ticks have been attempted.
func (s *Session) Ticks() uint64 { return s.ticks }

// SetFilter selects the filter for the next tick. Unknown filters are ignored.
func (s *Session) SetFilter(f filters.Filter) {
	if !f.Valid() {
		s.logger.WithField("filter", int(f)).Warn("Ignoring unknown filter")
		return
	}
	if f == s.filter {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"from": s.filter.String(),
		"to":   f.String(),
	}).Info("Filter selected")
	s.filter = f
}

func (s *Session) transition(to Phase) bool {
	from := s.Phase()
	if !canTransition(from, to) {
		return false
	}
	s.phase.Store(int32(to))
	s.logger.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Info("Session phase changed")
	return true
}

func (s *Session) fail(err error) {
	s.errMu.Lock()
	if s.lastErr == nil {
		s.lastErr = err
	}
	s.errMu.Unlock()

	s.transition(PhaseError)
	s.logger.WithError(err).Error("Session failed")
}

// Start waits for the source to report its dimensions, bounded by the
// readiness policy, and allocates the session buffers. Any failure is fatal
// and returns a *StartupError.
func (s *Session) Start(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if phase := s.Phase(); phase != PhaseInitializing {
		return errors.Errorf("start: session is %s", phase)
	}

	var width, height int
	err := Retry(ctx, s.policy, func(attempt int) error {
		var ready bool
		width, height, ready = s.source.Dimensions()
		if !ready || width <= 0 || height <= 0 {
			s.logger.WithField("attempt", attempt).Debug("Waiting for source dimensions")
			return ErrDimensionsUnavailable
		}
		return nil
	})
	if err != nil {
		return s.failStartup(errors.Wrap(err, "waiting for source dimensions"))
	}

	buffers, err := NewFrameBuffers(width, height)
	if err != nil {
		return s.failStartup(err)
	}
	s.buffers = buffers

	s.logger.WithFields(logrus.Fields{
		"width":  width,
		"height": height,
		"filter": s.filter.String(),
	}).Info("Session buffers allocated")
	s.transition(PhaseLive)
	return nil
}

func (s *Session) failStartup(err error) error {
	serr := &StartupError{Err: err}
	s.fail(serr)
	return serr
}

// Tick runs one acquire, filter, present cycle. Any failure, including a
// panic inside a kernel, moves the session to PhaseError and is returned as a
// *TickError; the caller must not schedule another tick.
func (s *Session) Tick() (err error) {
	if s.closed {
		return ErrClosed
	}
	if s.Phase() != PhaseLive {
		return ErrNotLive
	}

	s.ticks++
	tick := s.ticks
	f := s.filter
	stage := "acquire"

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
		if err != nil {
			s.presented = nil
			s.recorder.ObserveFault()
			terr := &TickError{Tick: tick, Filter: f.String(), Stage: stage, Err: err}
			s.fail(terr)
			err = terr
		}
	}()

	fb := s.buffers
	if err := s.source.Acquire(&fb.Input); err != nil {
		return err
	}
	if fb.Input.Cols() != fb.Width || fb.Input.Rows() != fb.Height || fb.Input.Channels() != kernels.Display {
		return errors.Wrapf(kernels.ErrShapeMismatch, "source delivered %dx%dx%d, session is %dx%dx%d",
			fb.Input.Cols(), fb.Input.Rows(), fb.Input.Channels(), fb.Width, fb.Height, kernels.Display)
	}

	stage = "filter"
	start := time.Now()
	frame := &fb.Input
	if f != filters.None {
		if err := filters.Apply(f, fb.Input, &fb.Output, fb.Scratch); err != nil {
			return err
		}
		frame = &fb.Output
	}
	elapsed := time.Since(start)

	stage = "present"
	if err := s.renderer.Present(*frame); err != nil {
		return err
	}
	s.presented = frame
	s.recorder.ObserveTick(f.String(), elapsed)
	return nil
}

// Capture encodes the most recently presented (filtered) frame and saves it
// in the photos category. It fails without affecting the session when the
// session is not live or nothing has been presented yet.
func (s *Session) Capture() (uint64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.Phase() != PhaseLive {
		return 0, ErrNotLive
	}
	if s.store == nil {
		return 0, errors.New("capture: no store configured")
	}
	if s.presented == nil {
		return 0, ErrNothingPresented
	}

	blob, err := s.encode(*s.presented)
	if err != nil {
		return 0, errors.Wrap(err, "capture: encode")
	}
	id, err := s.store.Save(CategoryPhotos, blob)
	if err != nil {
		return 0, errors.Wrap(err, "capture: save")
	}

	s.logger.WithFields(logrus.Fields{
		"id":     id,
		"filter": s.filter.String(),
		"bytes":  len(blob),
	}).Info("Frame captured")
	return id, nil
}

// Close releases every session buffer. It runs on every exit path of the loop
// and is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.presented = nil

	released := s.buffers.Release()
	s.logger.WithFields(logrus.Fields{
		"phase":    s.Phase().String(),
		"ticks":    s.ticks,
		"released": released,
	}).Info("Session closed")
	return nil
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool { return s.closed }
