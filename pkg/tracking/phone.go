package tracking

import "github.com/teslashibe/go-focus/pkg/tracking/detection"

// PhoneDetector debounces the object detector's phone signal with a
// bounded counter. Only every Nth tick is sampled to bound detector cost.
// The reported signal trails reality by a few sampled frames in both
// directions; that lag is the point of the hysteresis.
type PhoneDetector struct {
	cfg     Config
	ticks   int
	counter int
}

// NewPhoneDetector creates a detector with a zero counter
func NewPhoneDetector(cfg Config) *PhoneDetector {
	return &PhoneDetector{cfg: cfg}
}

// ShouldSample advances the tick count and reports whether object
// detection should run on this tick. The first tick is sampled.
func (d *PhoneDetector) ShouldSample() bool {
	sample := d.ticks%d.cfg.PhoneSampleInterval == 0
	d.ticks++
	return sample
}

// Observe applies one sampled frame's detections and returns the debounced signal.
func (d *PhoneDetector) Observe(dets []detection.ObjectDetection) bool {
	if d.containsPhone(dets) {
		d.counter++
	} else {
		d.counter--
	}
	d.counter = clampInt(d.counter, 0, d.cfg.PhoneCounterMax)
	return d.Detected()
}

// Detected reports whether the counter has reached the threshold
func (d *PhoneDetector) Detected() bool {
	return d.counter >= d.cfg.PhoneThreshold
}

// Counter returns the current hysteresis counter
func (d *PhoneDetector) Counter() int {
	return d.counter
}

// Reset zeroes the counter and the sampling phase
func (d *PhoneDetector) Reset() {
	d.ticks = 0
	d.counter = 0
}

func (d *PhoneDetector) containsPhone(dets []detection.ObjectDetection) bool {
	return len(detection.Phones(dets, d.cfg.PhoneMinScore)) > 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
