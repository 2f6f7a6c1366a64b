// Package detection provides face landmark and object detection using computer vision
package detection

import "strings"

// Detection represents a detected bounding box
type Detection struct {
	X, Y       float64 // Top-left position (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Point is a position in normalized [0,1] image space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks holds the facial points the pose estimator needs.
type Landmarks struct {
	Nose     Point `json:"nose"`
	Chin     Point `json:"chin"`
	TopHead  Point `json:"top_head"`
	LeftEar  Point `json:"left_ear"`
	RightEar Point `json:"right_ear"`
}

// Face is a detected face with its landmarks
type Face struct {
	Detection
	Landmarks Landmarks
}

// ObjectDetection represents a detected object with class info
type ObjectDetection struct {
	Detection
	ClassID   int    // COCO class ID
	ClassName string // Human-readable class name
}

// LandmarkDetector finds the most prominent face in a frame.
// A nil result with a nil error means no face was found.
type LandmarkDetector interface {
	DetectLandmarks(jpeg []byte) (*Landmarks, error)
	Close() error
}

// ObjectDetector finds labelled objects in a frame.
type ObjectDetector interface {
	DetectObjects(jpeg []byte) ([]ObjectDetection, error)
	Close() error
}

// Config holds face detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       480,
		InputHeight:      360,
	}
}

// SelectBest picks the best face from multiple detections
// Priority: confidence * 0.7 + area * 0.3
func SelectBest(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}

	if len(faces) == 1 {
		return &faces[0]
	}

	maxArea := 0.0
	for _, f := range faces {
		if f.Area() > maxArea {
			maxArea = f.Area()
		}
	}

	bestScore := -1.0
	var best *Face

	for i := range faces {
		areaScore := 0.0
		if maxArea > 0 {
			areaScore = faces[i].Area() / maxArea
		}
		score := faces[i].Confidence*0.7 + areaScore*0.3
		if score > bestScore {
			bestScore = score
			best = &faces[i]
		}
	}

	return best
}

// PhoneClasses are the object labels treated as a phone.
var PhoneClasses = []string{"cell phone", "mobile phone"}

// IsPhone returns true if the class label names a phone
func IsPhone(className string) bool {
	name := strings.ToLower(strings.TrimSpace(className))
	for _, c := range PhoneClasses {
		if name == c {
			return true
		}
	}
	return false
}

// Phones keeps the detections labelled as a phone with at least minScore confidence.
func Phones(dets []ObjectDetection, minScore float64) []ObjectDetection {
	var out []ObjectDetection
	for _, det := range dets {
		if IsPhone(det.ClassName) && det.Confidence >= minScore {
			out = append(out, det)
		}
	}
	return out
}
