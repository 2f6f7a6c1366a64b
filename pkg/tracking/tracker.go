package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/internal/metrics"
	"github.com/teslashibe/go-focus/pkg/debug"
	"github.com/teslashibe/go-focus/pkg/tracking/detection"
)

// FrameSource supplies JPEG frames to the inference loop
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// Tracker runs the inference pipeline: landmarks feed the PoseEstimator on
// every frame, object detection feeds the PhoneDetector on sampled frames.
// The latest TrackingState is readable at any time through State.
type Tracker struct {
	cfg       Config
	landmarks detection.LandmarkDetector
	objects   detection.ObjectDetector
	logger    *slog.Logger

	// Owned by the inference loop; procMu serializes Process callers
	procMu sync.Mutex
	pose   *PoseEstimator
	phone  *PhoneDetector

	mu      sync.RWMutex
	state   *TrackingState
	onState func(TrackingState)
	now     func() time.Time

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// New creates a tracker. objects may be nil, in which case phones are never reported.
func New(cfg Config, landmarks detection.LandmarkDetector, objects detection.ObjectDetector) *Tracker {
	return &Tracker{
		cfg:       cfg,
		landmarks: landmarks,
		objects:   objects,
		logger:    log.Component("tracker"),
		pose:      NewPoseEstimator(cfg),
		phone:     NewPhoneDetector(cfg),
		now:       time.Now,
	}
}

// OnState registers a callback invoked after every processed frame
func (t *Tracker) OnState(fn func(TrackingState)) {
	t.mu.Lock()
	t.onState = fn
	t.mu.Unlock()
}

// SetClock overrides the timestamp source
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// State returns a copy of the most recent tracking state, or nil before
// the first frame has been processed.
func (t *Tracker) State() *TrackingState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return nil
	}
	s := *t.state
	return &s
}

// Process runs one frame through the pipeline and publishes the result.
// Detector failures never surface: a landmark error lets the smoothed pose
// decay, an object error counts as a frame without a phone.
func (t *Tracker) Process(jpeg []byte) TrackingState {
	t.procMu.Lock()
	defer t.procMu.Unlock()

	start := time.Now()

	var reading PoseReading
	lm, err := t.landmarks.DetectLandmarks(jpeg)
	if err != nil {
		metrics.InferenceErrors.WithLabelValues("landmarks").Inc()
		t.logger.Debug("landmark detection failed", "error", err)
		reading = t.pose.Decay()
	} else {
		reading = t.pose.Update(lm)
	}

	if t.objects != nil && t.phone.ShouldSample() {
		dets, err := t.objects.DetectObjects(jpeg)
		if err != nil {
			metrics.InferenceErrors.WithLabelValues("objects").Inc()
			t.logger.Debug("object detection failed", "error", err)
			dets = nil
		}
		t.phone.Observe(dets)
	}

	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	debug.TrackLog("frame", "face", reading.FacePresent, "pitch", reading.Pitch, "yaw", reading.Yaw,
		"phone_counter", t.phone.Counter())
	return t.publish(reading)
}

// miss records a frame that could not be captured
func (t *Tracker) miss() TrackingState {
	t.procMu.Lock()
	defer t.procMu.Unlock()
	return t.publish(t.pose.Decay())
}

func (t *Tracker) publish(reading PoseReading) TrackingState {
	face := "false"
	if reading.FacePresent {
		face = "true"
	}
	metrics.FramesProcessed.WithLabelValues(face).Inc()
	metrics.PhoneConfidence.Set(float64(t.phone.Counter()))

	t.mu.Lock()
	state := TrackingState{
		IsFacePresent:     reading.FacePresent,
		IsHeadDown:        reading.HeadDown,
		IsLookingAtScreen: reading.LookingAtScreen,
		IsPhoneDetected:   t.phone.Detected(),
		Pitch:             reading.Pitch,
		Yaw:               reading.Yaw,
		Timestamp:         t.now(),
	}
	t.state = &state
	fn := t.onState
	t.mu.Unlock()

	if fn != nil {
		fn(state)
	}
	return state
}

// Run pulls frames from src at the configured interval until ctx is done
func (t *Tracker) Run(ctx context.Context, src FrameSource) {
	ticker := time.NewTicker(t.cfg.FrameInterval)
	defer ticker.Stop()

	t.logger.Info("tracker started", "interval", t.cfg.FrameInterval, "phone_sampling", t.objects != nil)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopped")
			return
		case <-ticker.C:
			frame, err := src.CaptureJPEG()
			if err != nil || len(frame) == 0 {
				if err != nil {
					t.logger.Debug("frame capture failed", "error", err)
				}
				t.miss()
				continue
			}
			t.Process(frame)
		}
	}
}

// Start runs the inference loop in the background. Calling Start on a
// running tracker is a no-op.
func (t *Tracker) Start(ctx context.Context, src FrameSource) {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		t.Run(ctx, src)
	}()
}

// Stop halts the inference loop and waits for it to exit. Safe to call repeatedly.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the background loop is active
func (t *Tracker) Running() bool {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	return t.cancel != nil
}

// Reset clears smoothing buffers, the phone counter and the published state
func (t *Tracker) Reset() {
	t.procMu.Lock()
	t.pose.Reset()
	t.phone.Reset()
	t.procMu.Unlock()

	t.mu.Lock()
	t.state = nil
	t.mu.Unlock()
	metrics.PhoneConfidence.Set(0)
}

// Close stops the loop and releases the detectors. Safe to call repeatedly.
func (t *Tracker) Close() error {
	t.Stop()

	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	var firstErr error
	if t.landmarks != nil {
		firstErr = t.landmarks.Close()
	}
	if t.objects != nil {
		if err := t.objects.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
