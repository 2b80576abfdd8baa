// Render loop: one goroutine owns the session and runs ticks back to back
package core

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"pixicam/internal/filters"
)

// ErrLoopStopped is returned by commands sent after the loop has exited.
var ErrLoopStopped = errors.New("render loop stopped")

const captureQueueSize = 32

type captureResult struct {
	id  uint64
	err error
}

// Loop drives a Session: between ticks it applies the latest filter selection
// and queued captures, waits for the clock, then runs exactly one tick. Ticks
// never overlap. A tick fault stops the loop; no further tick is scheduled.
type Loop struct {
	session       *Session
	clock         Clock
	logger        *logrus.Entry
	statsInterval time.Duration

	// Only the most recent selection matters, so it is a single slot.
	pendingMu  sync.Mutex
	pending    filters.Filter
	hasPending bool

	captures chan chan captureResult
	done     chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithStatsInterval logs tick statistics at debug level every d. Zero disables it.
func WithStatsInterval(d time.Duration) LoopOption {
	return func(l *Loop) { l.statsInterval = d }
}

// NewLoop creates a loop for session paced by clock.
func NewLoop(session *Session, clock Clock, logger *logrus.Logger, opts ...LoopOption) *Loop {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	l := &Loop{
		session:  session,
		clock:    clock,
		logger:   logger.WithField("session_id", session.ID()),
		captures: make(chan chan captureResult, captureQueueSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Done is closed once Run has returned and the session is released.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Session returns the session driven by the loop.
func (l *Loop) Session() *Session { return l.session }

// Run starts the session if needed and ticks until ctx is done or a fault
// occurs. The session is closed on every exit path. Cancellation returns nil;
// a startup or tick fault is returned as is.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer close(l.done)
	defer l.session.Close()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("render loop panic: %v", r)
			l.session.fail(err)
		}
	}()

	if l.session.Phase() == PhaseInitializing {
		if err := l.session.Start(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	if l.session.Phase() != PhaseLive {
		if serr := l.session.Err(); serr != nil {
			return serr
		}
		return ErrNotLive
	}

	l.logger.Info("Render loop started")
	lastStats := time.Now()

	for {
		l.drain()
		if err := l.clock.Wait(ctx); err != nil {
			l.logger.Info("Render loop stopped")
			return nil
		}
		l.drain()

		if err := l.session.Tick(); err != nil {
			l.logger.WithError(err).Error("Render loop halted by tick fault")
			return err
		}

		if l.statsInterval > 0 && time.Since(lastStats) >= l.statsInterval {
			l.logStats()
			lastStats = time.Now()
		}
	}
}

func (l *Loop) drain() {
	l.pendingMu.Lock()
	f, ok := l.pending, l.hasPending
	l.hasPending = false
	l.pendingMu.Unlock()
	if ok {
		l.session.SetFilter(f)
	}

	for {
		select {
		case reply := <-l.captures:
			l.capture(reply)
		default:
			return
		}
	}
}

func (l *Loop) capture(reply chan captureResult) {
	id, err := l.session.Capture()
	if err != nil {
		l.logger.WithError(err).Warn("Capture failed")
	}
	reply <- captureResult{id: id, err: err}
}

func (l *Loop) logStats() {
	stats := l.session.Recorder().Snapshot()
	fields := logrus.Fields{
		"ticks":  stats.Ticks,
		"faults": stats.Faults,
		"fps":    stats.FPS,
	}
	for _, name := range stats.Filters() {
		fields["mean_"+name] = stats.PerFilter[name].Mean().String()
	}
	l.logger.WithFields(fields).Debug("Render loop statistics")
}

// SelectFilter records a filter switch that takes effect on the next tick.
// A later selection made before that tick replaces it. It may be called from
// any goroutine and never blocks.
func (l *Loop) SelectFilter(f filters.Filter) {
	select {
	case <-l.done:
		return
	default:
	}

	l.pendingMu.Lock()
	l.pending, l.hasPending = f, true
	l.pendingMu.Unlock()
}

// Capture asks the loop to capture the currently rendered frame between two
// ticks and waits for the stored id.
func (l *Loop) Capture(ctx context.Context) (uint64, error) {
	reply := make(chan captureResult, 1)

	select {
	case l.captures <- reply:
	case <-l.done:
		return 0, ErrLoopStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.id, r.err
	case <-l.done:
		select {
		case r := <-reply:
			return r.id, r.err
		default:
			return 0, ErrLoopStopped
		}
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
