// Package monitor orchestrates a study session: it starts the inference
// pipeline and the slice sampler, and on stop tears them down in order,
// aggregates the session, persists it and hands it to reporters.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/internal/metrics"
	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/report"
	"github.com/teslashibe/go-focus/pkg/session"
	"github.com/teslashibe/go-focus/pkg/tracking"
)

// Pipeline is the inference stack for one session
type Pipeline struct {
	Tracker *tracking.Tracker
	Source  tracking.FrameSource // nil when frames are pushed through ProcessFrame
	Closer  io.Closer            // camera or other capture resource, may be nil
}

// PipelineFactory acquires the camera and models for a new session
type PipelineFactory func(ctx context.Context) (*Pipeline, error)

// Options configures a Monitor. Every field is optional.
type Options struct {
	Pipeline     PipelineFactory
	Browser      *browser.Context
	Store        session.Store
	Reporters    []report.Reporter
	Clock        func() time.Time
	WakeInterval time.Duration // sampler wakeups, default session.DefaultWakeInterval
}

// Monitor owns at most one running session at a time
type Monitor struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	active   *session.Data
	sampler  *session.Sampler
	pipeline *Pipeline

	subMu       sync.RWMutex
	subscribers []func(Event)
}

// New creates a monitor
func New(opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.WakeInterval <= 0 {
		opts.WakeInterval = session.DefaultWakeInterval
	}
	return &Monitor{
		opts:   opts,
		logger: log.Component("monitor"),
	}
}

// Subscribe registers fn for every event. Callbacks run on the emitting
// goroutine and must not block or call back into the Monitor.
func (m *Monitor) Subscribe(fn func(Event)) {
	m.subMu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.subMu.Unlock()
}

func (m *Monitor) emit(e Event) {
	m.subMu.RLock()
	subs := m.subscribers
	m.subMu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Start begins a new session. A pipeline that fails to start is logged and
// the session runs without tracking, which classifies every second as absent.
func (m *Monitor) Start(ctx context.Context, subject, topic string, plannedMinutes int) (*session.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrSessionActive
	}

	var pipe *Pipeline
	if m.opts.Pipeline != nil {
		p, err := m.opts.Pipeline(ctx)
		if err != nil {
			m.logger.Error("inference pipeline unavailable, tracking disabled", "error", err)
		} else {
			pipe = p
		}
	}

	data := session.New(subject, topic, plannedMinutes, m.opts.Clock())

	// Interface fields stay nil unless the concrete source exists
	var trSrc session.TrackingSource
	if pipe != nil && pipe.Tracker != nil {
		trSrc = pipe.Tracker
	}
	var brSrc session.BrowserSource
	if m.opts.Browser != nil {
		brSrc = m.opts.Browser
	}

	sampler := session.NewSampler(data, trSrc, brSrc)
	sampler.SetClock(m.opts.Clock)
	sampler.SetWakeInterval(m.opts.WakeInterval)

	id := data.ID
	count := 0
	sampler.OnSlice(func(ts session.TimeSlice) {
		count++
		m.emit(Event{Type: EventSlice, SessionID: id, Slice: &ts, Slices: count})
	})

	if pipe != nil && pipe.Tracker != nil {
		pipe.Tracker.Reset()
		pipe.Tracker.OnState(func(s tracking.TrackingState) {
			m.emit(Event{Type: EventTracking, SessionID: id, Tracking: &s})
		})
		if pipe.Source != nil {
			pipe.Tracker.Start(context.Background(), pipe.Source)
		}
	}
	sampler.Start(context.Background())

	m.active = data
	m.sampler = sampler
	m.pipeline = pipe

	metrics.SessionsActive.Inc()
	m.logger.Info("session started", "session", id, "subject", subject, "topic", topic,
		"planned_minutes", plannedMinutes, "tracking", trSrc != nil)
	m.emit(Event{Type: EventStarted, SessionID: id})

	return sampler.Snapshot(), nil
}

// Pause suspends slice recording. Inference keeps running.
func (m *Monitor) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoSession
	}
	m.sampler.Pause()
	m.emit(Event{Type: EventPaused, SessionID: m.active.ID})
	return nil
}

// Resume continues recording from the next full second
func (m *Monitor) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoSession
	}
	m.sampler.Resume()
	m.emit(Event{Type: EventResumed, SessionID: m.active.ID})
	return nil
}

// Stop ends the session. Teardown halts inference, then the sampler, then
// releases capture and model resources; each step runs regardless of earlier
// failures. The finished session is saved and reported; any errors from
// those steps are joined into the returned error alongside the result.
func (m *Monitor) Stop(ctx context.Context) (*session.Data, session.Metrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, session.Metrics{}, ErrNoSession
	}

	var errs []error
	pipe, sampler := m.pipeline, m.sampler

	// (a) inference
	if pipe != nil && pipe.Tracker != nil {
		pipe.Tracker.Stop()
	}
	// (b) sampler
	sampler.Stop()
	// (c) resources
	if pipe != nil {
		if pipe.Tracker != nil {
			pipe.Tracker.OnState(nil)
			if err := pipe.Tracker.Close(); err != nil {
				errs = append(errs, fmt.Errorf("monitor: close detectors: %w", err))
			}
		}
		if pipe.Closer != nil {
			if err := pipe.Closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("monitor: close capture: %w", err))
			}
		}
	}

	data := sampler.Snapshot()
	data.End(m.opts.Clock())
	result := session.Aggregate(data.Slices)

	m.active, m.sampler, m.pipeline = nil, nil, nil
	metrics.SessionsActive.Dec()
	metrics.SessionsCompleted.Inc()
	metrics.FocusScore.Observe(float64(result.FocusScore))

	if m.opts.Store != nil {
		if err := m.opts.Store.Save(ctx, data); err != nil {
			errs = append(errs, fmt.Errorf("monitor: save session: %w", err))
		}
	}
	for _, r := range m.opts.Reporters {
		if err := r.Report(ctx, data, result); err != nil {
			errs = append(errs, fmt.Errorf("monitor: report: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		m.logger.Error("session stopped with errors", "session", data.ID, "error", err)
	}
	m.logger.Info("session stopped", "session", data.ID, "slices", len(data.Slices), "focus_score", result.FocusScore)
	m.emit(Event{Type: EventStopped, SessionID: data.ID, Metrics: &result, Slices: len(data.Slices)})

	return data, result, err
}

// ProcessFrame feeds a pushed frame to the running session's tracker.
// Returns nil when no session or tracker is active.
func (m *Monitor) ProcessFrame(jpeg []byte) *tracking.TrackingState {
	m.mu.Lock()
	pipe := m.pipeline
	m.mu.Unlock()

	if pipe == nil || pipe.Tracker == nil {
		return nil
	}
	s := pipe.Tracker.Process(jpeg)
	return &s
}

// UpdateBrowser records a new active tab
func (m *Monitor) UpdateBrowser(rawURL, title string) browser.State {
	return m.ReportBrowser(rawURL, "", title)
}

// ReportBrowser records a tab report that may carry only a domain
func (m *Monitor) ReportBrowser(rawURL, domain, title string) browser.State {
	if m.opts.Browser == nil {
		return browser.NewReportedState(rawURL, domain, title)
	}
	return m.opts.Browser.Report(rawURL, domain, title)
}

// Browser returns the last known browser state
func (m *Monitor) Browser() browser.State {
	if m.opts.Browser == nil {
		return browser.State{}
	}
	return m.opts.Browser.Current()
}

// Tracking returns the latest attention reading, nil without a running tracker
func (m *Monitor) Tracking() *tracking.TrackingState {
	m.mu.Lock()
	pipe := m.pipeline
	m.mu.Unlock()

	if pipe == nil || pipe.Tracker == nil {
		return nil
	}
	return pipe.Tracker.State()
}

// Snapshot returns a copy of the running session and its live metrics
func (m *Monitor) Snapshot() (*session.Data, session.Metrics, error) {
	m.mu.Lock()
	sampler := m.sampler
	m.mu.Unlock()

	if sampler == nil {
		return nil, session.Metrics{}, ErrNoSession
	}
	data := sampler.Snapshot()
	return data, session.Aggregate(data.Slices), nil
}

// Active reports whether a session is running
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Paused reports whether the running session is paused
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampler != nil && m.sampler.Paused()
}

// Store returns the configured session store, possibly nil
func (m *Monitor) Store() session.Store {
	return m.opts.Store
}
