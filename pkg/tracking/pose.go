package tracking

import (
	"math"

	"github.com/teslashibe/go-focus/pkg/tracking/detection"
)

// Pose is a head orientation proxy derived from landmark geometry.
// Units are scaled so that the attention thresholds read like degrees.
type Pose struct {
	Pitch float64
	Yaw   float64
}

// PoseReading is the smoothed output of one PoseEstimator tick
type PoseReading struct {
	FacePresent     bool
	HeadDown        bool
	LookingAtScreen bool
	Pitch           float64 // Mean of the pitch buffer
	Yaw             float64 // Mean of the yaw buffer
}

// RawPose computes the unsmoothed pose for one landmark set.
// Degenerate geometry (chin at or above the crown) yields a neutral pitch.
func RawPose(lm detection.Landmarks, cfg Config) Pose {
	earMid := (lm.LeftEar.X + lm.RightEar.X) / 2
	yaw := (lm.Nose.X - earMid) * cfg.YawScale

	ratio := cfg.NeutralPitchRatio
	faceHeight := lm.Chin.Y - lm.TopHead.Y
	if faceHeight > 0 {
		ratio = (lm.Chin.Y - lm.Nose.Y) / faceHeight
	}
	pitch := (cfg.NeutralPitchRatio - ratio) * cfg.PitchScale

	return Pose{Pitch: pitch, Yaw: yaw}
}

// PoseEstimator smooths raw poses over a fixed window and derives the
// head-down and looking-at-screen signals. Not safe for concurrent use;
// the Tracker serializes access.
type PoseEstimator struct {
	cfg      Config
	pitchBuf []float64
	yawBuf   []float64
}

// NewPoseEstimator creates an estimator with empty buffers
func NewPoseEstimator(cfg Config) *PoseEstimator {
	return &PoseEstimator{
		cfg:      cfg,
		pitchBuf: make([]float64, 0, cfg.BufferSize),
		yawBuf:   make([]float64, 0, cfg.BufferSize),
	}
}

// Update pushes a new landmark set. nil means no face this tick, which
// clears both buffers so a stale mean never survives a face-loss.
func (p *PoseEstimator) Update(lm *detection.Landmarks) PoseReading {
	if lm == nil {
		p.Reset()
		return PoseReading{}
	}

	pose := RawPose(*lm, p.cfg)
	p.pitchBuf = push(p.pitchBuf, pose.Pitch, p.cfg.BufferSize)
	p.yawBuf = push(p.yawBuf, pose.Yaw, p.cfg.BufferSize)

	return p.reading()
}

// Decay drops the oldest sample without adding one. Used when a frame
// could not be analysed, so the smoothed state ages out instead of being
// force-cleared. Once the buffers drain the face is reported absent.
func (p *PoseEstimator) Decay() PoseReading {
	if len(p.pitchBuf) > 0 {
		p.pitchBuf = append(p.pitchBuf[:0], p.pitchBuf[1:]...)
	}
	if len(p.yawBuf) > 0 {
		p.yawBuf = append(p.yawBuf[:0], p.yawBuf[1:]...)
	}
	if len(p.pitchBuf) == 0 {
		return PoseReading{}
	}
	return p.reading()
}

// Reset clears both smoothing buffers
func (p *PoseEstimator) Reset() {
	p.pitchBuf = p.pitchBuf[:0]
	p.yawBuf = p.yawBuf[:0]
}

// Len returns the number of samples currently buffered
func (p *PoseEstimator) Len() int {
	return len(p.pitchBuf)
}

func (p *PoseEstimator) reading() PoseReading {
	pitch := mean(p.pitchBuf)
	yaw := mean(p.yawBuf)

	headDown := pitch > p.cfg.HeadDownPitch
	return PoseReading{
		FacePresent:     true,
		HeadDown:        headDown,
		LookingAtScreen: math.Abs(yaw) < p.cfg.LookingAwayYaw && !headDown,
		Pitch:           pitch,
		Yaw:             yaw,
	}
}

// push appends v and drops the oldest entries beyond capacity
func push(buf []float64, v float64, capacity int) []float64 {
	buf = append(buf, v)
	if over := len(buf) - capacity; over > 0 {
		buf = append(buf[:0], buf[over:]...)
	}
	return buf
}

func mean(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range buf {
		sum += v
	}
	return sum / float64(len(buf))
}
