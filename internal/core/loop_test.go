package core

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixicam/internal/filters"
)

func newTestLoop(src *fakeSource, r *fakeRenderer, clock Clock, opts ...Option) *Loop {
	opts = append([]Option{WithLogger(quietLogger()), WithReadinessPolicy(fastPolicy)}, opts...)
	session := NewSession(src, r, opts...)
	return NewLoop(session, clock, quietLogger(), WithStatsInterval(time.Nanosecond))
}

func TestLoop_FaultStopsScheduling(t *testing.T) {
	src := newFakeSource(16, 16, 10)
	src.failOn = 3
	r := &fakeRenderer{}
	clock := &fakeClock{}
	loop := newTestLoop(src, r, clock)

	err := loop.Run(context.Background())

	var terr *TickError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, uint64(3), terr.Tick)
	assert.Equal(t, 3, clock.count(), "no wait is scheduled after the faulting tick")
	assert.Equal(t, 3, src.acquireCount())
	assert.Equal(t, 2, r.count())
	assert.Equal(t, PhaseError, loop.Session().Phase())
	assert.True(t, loop.Session().Closed())

	select {
	case <-loop.Done():
	default:
		t.Fatal("Done not closed after Run returned")
	}
}

func TestLoop_FilterSwitchBetweenTicks(t *testing.T) {
	src := newFakeSource(16, 16, 10)
	r := &fakeRenderer{}
	clock := &fakeClock{limit: 4}
	loop := newTestLoop(src, r, clock)
	clock.hook = func(n int) {
		switch n {
		case 2:
			loop.SelectFilter(filters.Posterize)
		case 4:
			loop.SelectFilter(filters.Emboss)
		}
	}

	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, []uint8{10, 32, 32, 128}, r.firstChannel())
	assert.Equal(t, PhaseLive, loop.Session().Phase())
	assert.True(t, loop.Session().Closed())
}

func TestLoop_LatestFilterSelectionWins(t *testing.T) {
	src := newFakeSource(16, 16, 10)
	r := &fakeRenderer{}
	clock := &fakeClock{limit: 1}
	loop := newTestLoop(src, r, clock)

	// Far more selections than the capture queue holds; none may be lost.
	for i := 0; i < 4*captureQueueSize; i++ {
		loop.SelectFilter(filters.Emboss)
	}
	loop.SelectFilter(filters.Posterize)

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, []uint8{32}, r.firstChannel())
	assert.Equal(t, filters.Posterize, loop.Session().Filter())
}

func TestLoop_StartupFailure(t *testing.T) {
	src := newFakeSource(16, 16, 0)
	src.readyAfter = 1000
	clock := &fakeClock{}
	loop := newTestLoop(src, &fakeRenderer{}, clock)

	err := loop.Run(context.Background())

	var serr *StartupError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 0, clock.count())
	assert.Equal(t, 0, src.acquireCount())
	assert.True(t, loop.Session().Closed())
}

func TestLoop_CancelReleasesSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{}
	clock.hook = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	r := &fakeRenderer{}
	loop := newTestLoop(newFakeSource(8, 8, 0), r, clock)

	require.NoError(t, loop.Run(ctx))
	assert.True(t, loop.Session().Closed())
	assert.Equal(t, PhaseLive, loop.Session().Phase())
}

func TestLoop_Capture(t *testing.T) {
	store := newMemStore()
	src := newFakeSource(16, 16, 40)
	r := &fakeRenderer{}
	clock := NewTickerClock(500)
	defer clock.Stop()
	loop := newTestLoop(src, r, clock, WithStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	require.Eventually(t, func() bool { return r.count() > 0 }, 2*time.Second, time.Millisecond)

	id, err := loop.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Len(t, store.saved(CategoryPhotos), 1)

	cancel()
	require.NoError(t, <-runErr)

	_, err = loop.Capture(context.Background())
	assert.ErrorIs(t, err, ErrLoopStopped)
	loop.SelectFilter(filters.Edge)
}

func TestLoop_CaptureHonoursContext(t *testing.T) {
	loop := newTestLoop(newFakeSource(8, 8, 0), &fakeRenderer{}, &fakeClock{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nothing drains the queue, so only the context can end the wait.
	_, err := loop.Capture(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
