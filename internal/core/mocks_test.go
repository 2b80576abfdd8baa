package core

import (
	"bytes"
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var errDeviceGone = errors.New("device disconnected")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

// fakeSource fills every frame with one gray value.
type fakeSource struct {
	mu         sync.Mutex
	width      int
	height     int
	readyAfter int // Dimensions calls that report not ready
	failOn     int // 1-based Acquire call that fails, 0 never
	value      uint8

	dimensionCalls int
	acquired       int
}

func newFakeSource(width, height int, value uint8) *fakeSource {
	return &fakeSource{width: width, height: height, value: value}
}

func (s *fakeSource) Dimensions() (int, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimensionCalls++
	if s.dimensionCalls <= s.readyAfter {
		return 0, 0, false
	}
	return s.width, s.height, true
}

func (s *fakeSource) Acquire(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquired++
	if s.acquired == s.failOn {
		return errDeviceGone
	}
	v := float64(s.value)
	dst.SetTo(gocv.NewScalar(v, v, v, 255))
	return nil
}

func (s *fakeSource) acquireCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

// fakeRenderer records the first pixel of each presented frame.
type fakeRenderer struct {
	mu        sync.Mutex
	presented [][]uint8
	panicOn   int
}

func (r *fakeRenderer) Present(frame gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn > 0 && len(r.presented)+1 == r.panicOn {
		panic("renderer exploded")
	}
	data, err := frame.DataPtrUint8()
	if err != nil {
		return err
	}
	r.presented = append(r.presented, append([]uint8(nil), data[:4]...))
	return nil
}

func (r *fakeRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.presented)
}

func (r *fakeRenderer) firstChannel() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint8, len(r.presented))
	for i, px := range r.presented {
		out[i] = px[0]
	}
	return out
}

// fakeClock never sleeps. It calls hook with the 1-based wait number and
// reports cancellation once limit waits have passed.
type fakeClock struct {
	mu    sync.Mutex
	waits int
	limit int
	hook  func(n int)
}

func (c *fakeClock) Wait(ctx context.Context) error {
	c.mu.Lock()
	c.waits++
	n := c.waits
	hook := c.hook
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if c.limit > 0 && n > c.limit {
		return context.Canceled
	}
	if hook != nil {
		hook(n)
	}
	return nil
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waits
}

// memStore is an in-memory CaptureStore.
type memStore struct {
	mu    sync.Mutex
	next  uint64
	blobs map[string][][]byte
	err   error
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][][]byte)}
}

func (m *memStore) Save(category string, blob []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.next++
	m.blobs[category] = append(m.blobs[category], blob)
	return m.next, nil
}

func (m *memStore) saved(category string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blobs[category]
}
