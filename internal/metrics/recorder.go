// Package metrics collects runtime statistics for the render loop.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// FilterStats aggregates processing time for one filter.
type FilterStats struct {
	Ticks   uint64
	Total   time.Duration
	Fastest time.Duration
	Slowest time.Duration
}

// Mean returns the average processing time per tick.
func (fs FilterStats) Mean() time.Duration {
	if fs.Ticks == 0 {
		return 0
	}
	return fs.Total / time.Duration(fs.Ticks)
}

// Stats is a point-in-time copy of the recorder.
type Stats struct {
	Ticks     uint64
	Faults    uint64
	Uptime    time.Duration
	FPS       float64 // ticks per second since the first tick
	LastTick  time.Time
	PerFilter map[string]FilterStats
}

// Filters returns the filter names present in the snapshot, sorted.
func (s Stats) Filters() []string {
	names := make([]string, 0, len(s.PerFilter))
	for name := range s.PerFilter {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Recorder is safe for concurrent use; the loop writes and the UI reads.
type Recorder struct {
	mu        sync.Mutex
	now       func() time.Time
	first     time.Time
	last      time.Time
	ticks     uint64
	faults    uint64
	perFilter map[string]*FilterStats
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		now:       time.Now,
		perFilter: make(map[string]*FilterStats),
	}
}

// ObserveTick records one completed tick that spent d inside filter.
func (r *Recorder) ObserveTick(filter string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.ticks == 0 {
		r.first = now
	}
	r.last = now
	r.ticks++

	fs, ok := r.perFilter[filter]
	if !ok {
		fs = &FilterStats{Fastest: d, Slowest: d}
		r.perFilter[filter] = fs
	}
	fs.Ticks++
	fs.Total += d
	if d < fs.Fastest {
		fs.Fastest = d
	}
	if d > fs.Slowest {
		fs.Slowest = d
	}
}

// ObserveFault records a tick that failed.
func (r *Recorder) ObserveFault() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults++
}

// Snapshot returns a copy of the current statistics.
func (r *Recorder) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Ticks:     r.ticks,
		Faults:    r.faults,
		LastTick:  r.last,
		PerFilter: make(map[string]FilterStats, len(r.perFilter)),
	}
	if r.ticks > 0 {
		s.Uptime = r.now().Sub(r.first)
		if s.Uptime > 0 {
			s.FPS = float64(r.ticks) / s.Uptime.Seconds()
		}
	}
	for name, fs := range r.perFilter {
		s.PerFilter[name] = *fs
	}
	return s
}
