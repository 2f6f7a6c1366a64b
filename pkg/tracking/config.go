package tracking

import (
	"errors"
	"fmt"
	"time"
)

// Pipeline constants. DefaultConfig uses these values.
const (
	PoseBufferSize           = 15   // Smoothing window for pitch and yaw
	HeadDownPitchThreshold   = 25.0 // Mean pitch above this means head down
	LookingAwayYawThreshold  = 25.0 // Mean |yaw| at or above this means looking away
	PhoneDetectionConfidence = 3    // Counter value at which a phone is reported
	PhoneCounterMax          = 10   // Upper clamp of the phone counter
	PhoneSampleInterval      = 5    // Run object detection every Nth frame
)

// Config holds all tunable parameters for attention tracking
type Config struct {
	// Timing
	FrameInterval time.Duration // How often Run pulls a frame from its source

	// Pose geometry
	BufferSize        int     // Smoothing window length
	YawScale          float64 // Normalized ear-midpoint offset to pose units
	PitchScale        float64 // Nose/chin ratio deviation to pose units
	NeutralPitchRatio float64 // nose-to-chin / face-height when looking straight ahead

	// Attention thresholds (pose units)
	HeadDownPitch  float64
	LookingAwayYaw float64

	// Phone hysteresis
	PhoneSampleInterval int     // Sample object detection every Nth tick
	PhoneMinScore       float64 // Minimum detection score for a phone to count
	PhoneCounterMax     int     // Counter clamp
	PhoneThreshold      int     // Counter value at which a phone is reported
}

// DefaultConfig returns the calibrated configuration for a 480x360 webcam feed
func DefaultConfig() Config {
	return Config{
		FrameInterval: 66 * time.Millisecond, // ~15 fps

		BufferSize:        PoseBufferSize,
		YawScale:          200,
		PitchScale:        150,
		NeutralPitchRatio: 0.6,

		HeadDownPitch:  HeadDownPitchThreshold,
		LookingAwayYaw: LookingAwayYawThreshold,

		PhoneSampleInterval: PhoneSampleInterval,
		PhoneMinScore:       0.5,
		PhoneCounterMax:     PhoneCounterMax,
		PhoneThreshold:      PhoneDetectionConfidence,
	}
}

// StrictConfig flags looking away and phones sooner
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.HeadDownPitch = 20
	cfg.LookingAwayYaw = 18
	cfg.PhoneThreshold = 2
	return cfg
}

// LenientConfig tolerates more head movement, useful for note-taking on paper
func LenientConfig() Config {
	cfg := DefaultConfig()
	cfg.HeadDownPitch = 35
	cfg.LookingAwayYaw = 32
	cfg.PhoneThreshold = 4
	return cfg
}

// Presets returns the named configurations.
func Presets() map[string]Config {
	return map[string]Config{
		"default": DefaultConfig(),
		"strict":  StrictConfig(),
		"lenient": LenientConfig(),
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame_interval must be positive, got %v", c.FrameInterval))
	}
	if c.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("buffer_size must be at least 1, got %d", c.BufferSize))
	}
	if c.PhoneSampleInterval < 1 {
		errs = append(errs, fmt.Errorf("phone_sample_interval must be at least 1, got %d", c.PhoneSampleInterval))
	}
	if c.PhoneCounterMax < 1 {
		errs = append(errs, fmt.Errorf("phone_counter_max must be at least 1, got %d", c.PhoneCounterMax))
	}
	if c.PhoneThreshold < 1 || c.PhoneThreshold > c.PhoneCounterMax {
		errs = append(errs, fmt.Errorf("phone_threshold must be in [1, %d], got %d", c.PhoneCounterMax, c.PhoneThreshold))
	}
	if c.PhoneMinScore < 0 || c.PhoneMinScore > 1 {
		errs = append(errs, fmt.Errorf("phone_min_score must be in [0, 1], got %v", c.PhoneMinScore))
	}
	return errors.Join(errs...)
}
