package tracking

import "time"

// TrackingState is the per-tick attention reading produced by the Tracker.
// The four booleans drive focus classification; Pitch and Yaw are the smoothed
// pose values for display.
type TrackingState struct {
	IsFacePresent     bool      `json:"is_face_present"`
	IsHeadDown        bool      `json:"is_head_down"`
	IsLookingAtScreen bool      `json:"is_looking_at_screen"`
	IsPhoneDetected   bool      `json:"is_phone_detected"`
	Pitch             float64   `json:"pitch"`
	Yaw               float64   `json:"yaw"`
	Timestamp         time.Time `json:"timestamp"`
}
