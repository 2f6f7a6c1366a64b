package session

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/internal/metrics"
	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/focus"
	"github.com/teslashibe/go-focus/pkg/tracking"
)

const (
	// SliceInterval is the duration represented by one slice
	SliceInterval = time.Second

	// DefaultWakeInterval is how often Run checks the clock. Wakeups are
	// more frequent than SliceInterval so a slow tick still lands close to
	// the second boundary.
	DefaultWakeInterval = 250 * time.Millisecond
)

// TrackingSource provides the latest attention reading; nil means none yet
type TrackingSource interface {
	State() *tracking.TrackingState
}

// BrowserSource provides the last known browser context
type BrowserSource interface {
	Current() browser.State
}

// Sampler appends one slice per elapsed second to a session. When wakeups
// are delayed, the missed seconds are filled in a single batch with the
// verdict of the current moment.
type Sampler struct {
	tracking TrackingSource
	browser  BrowserSource
	logger   *slog.Logger

	mu       sync.Mutex
	data     *Data
	lastTick int64 // ms; 0 means no baseline
	paused   bool
	stopped  bool
	onSlice  func(TimeSlice)
	now      func() time.Time
	wake     time.Duration

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSampler creates a sampler appending to data. Either source may be nil.
func NewSampler(data *Data, tr TrackingSource, br BrowserSource) *Sampler {
	return &Sampler{
		tracking: tr,
		browser:  br,
		logger:   log.Component("sampler").With("session", data.ID),
		data:     data,
		now:      time.Now,
		wake:     DefaultWakeInterval,
	}
}

// OnSlice registers a callback invoked for every appended slice
func (s *Sampler) OnSlice(fn func(TimeSlice)) {
	s.mu.Lock()
	s.onSlice = fn
	s.mu.Unlock()
}

// SetClock overrides the wall clock used by Run
func (s *Sampler) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetWakeInterval overrides how often Run checks the clock
func (s *Sampler) SetWakeInterval(d time.Duration) {
	s.mu.Lock()
	s.wake = d
	s.mu.Unlock()
}

// Tick advances the sampler to now (Unix ms) and returns the slices appended.
// The first tick after start or resume only sets the baseline.
func (s *Sampler) Tick(now int64) []TimeSlice {
	s.mu.Lock()

	if s.paused || s.stopped {
		s.lastTick = 0
		s.mu.Unlock()
		return nil
	}
	if s.lastTick == 0 {
		s.lastTick = now
		s.mu.Unlock()
		return nil
	}

	delta := now - s.lastTick
	if delta < SliceInterval.Milliseconds() {
		s.mu.Unlock()
		return nil
	}

	n := int(math.Round(float64(delta) / float64(SliceInterval.Milliseconds())))
	slices := s.classify(now, n)
	s.data.Slices = append(s.data.Slices, slices...)
	s.lastTick = now
	fn := s.onSlice
	s.mu.Unlock()

	v := slices[0]
	metrics.SlicesRecorded.WithLabelValues(string(v.Status), string(v.DistractionType)).Add(float64(n))
	if n > 1 {
		metrics.CatchUpBatches.Inc()
		s.logger.Debug("sampler catch-up", "slices", n, "delta_ms", delta)
	}

	if fn != nil {
		for _, slice := range slices {
			fn(slice)
		}
	}
	return slices
}

// classify builds n identical slices ending at now, one second apart
func (s *Sampler) classify(now int64, n int) []TimeSlice {
	var ts *tracking.TrackingState
	if s.tracking != nil {
		ts = s.tracking.State()
	}
	var bs browser.State
	if s.browser != nil {
		bs = s.browser.Current()
	}

	v := focus.ClassifyMoment(ts, bs)
	meta := Metadata{URL: bs.URL, Domain: bs.Domain}

	step := SliceInterval.Milliseconds()
	out := make([]TimeSlice, n)
	for i := range out {
		out[i] = TimeSlice{
			Timestamp:       now - int64(n-1-i)*step,
			Status:          v.Status,
			DistractionType: v.DistractionType,
			Metadata:        meta,
		}
	}
	return out
}

// Pause stops slice emission and drops the baseline
func (s *Sampler) Pause() {
	s.mu.Lock()
	s.paused = true
	s.lastTick = 0
	s.mu.Unlock()
}

// Resume restarts emission. The paused interval is not back-filled.
func (s *Sampler) Resume() {
	s.mu.Lock()
	s.paused = false
	s.lastTick = 0
	s.mu.Unlock()
}

// Paused reports whether the sampler is paused
func (s *Sampler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Snapshot returns a deep copy of the session
func (s *Sampler) Snapshot() *Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Run ticks on the wake interval until ctx is done
func (s *Sampler) Run(ctx context.Context) {
	s.mu.Lock()
	wake, now := s.wake, s.now
	s.mu.Unlock()

	ticker := time.NewTicker(wake)
	defer ticker.Stop()

	s.Tick(now().UnixMilli())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(now().UnixMilli())
		}
	}
}

// Start runs the sampler in the background. No-op if already running.
func (s *Sampler) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
}

// Stop halts the loop and permanently disables emission. Safe to call repeatedly.
func (s *Sampler) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	s.stopped = true
	s.lastTick = 0
	s.mu.Unlock()
}
