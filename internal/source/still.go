package source

import (
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"pixicam/internal/media"
)

// Still repeats one RGBA image on every Acquire. It stands in for a camera
// when none is attached.
type Still struct {
	mu     sync.Mutex
	frame  gocv.Mat
	closed bool
}

// NewStill takes ownership of an RGBA frame.
func NewStill(frame gocv.Mat) (*Still, error) {
	if frame.Empty() {
		return nil, errors.New("still source: empty frame")
	}
	if frame.Channels() != 4 {
		return nil, errors.Errorf("still source: %d channels, want RGBA", frame.Channels())
	}
	return &Still{frame: frame}, nil
}

// OpenStill loads path through loader.
func OpenStill(loader *media.Loader, path string) (*Still, error) {
	frame, err := loader.LoadStill(path)
	if err != nil {
		return nil, err
	}
	return NewStill(frame)
}

func (s *Still) Dimensions() (int, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, false
	}
	return s.frame.Cols(), s.frame.Rows(), true
}

func (s *Still) Acquire(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSourceClosed
	}
	if err := s.frame.CopyTo(dst); err != nil {
		return errors.Wrap(err, "still source: copy frame")
	}
	return nil
}

// FPS is zero; the caller picks the refresh rate.
func (s *Still) FPS() float64 { return 0 }

func (s *Still) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.frame.Close()
}
