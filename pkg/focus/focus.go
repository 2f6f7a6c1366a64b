// Package focus classifies a single moment of a study session from the
// attention reading and the browser context.
package focus

import (
	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/tracking"
)

// Status is the coarse focus verdict for one moment
type Status string

const (
	Focused    Status = "FOCUSED"
	Partial    Status = "PARTIAL"
	Distracted Status = "DISTRACTED"
)

// DistractionType tags the cause attached to a verdict
type DistractionType string

const (
	None           DistractionType = "NONE"
	Phone          DistractionType = "PHONE"
	WebDistraction DistractionType = "WEB_DISTRACTION"
	TabSwitch      DistractionType = "TAB_SWITCH" // reserved, never emitted by ClassifyMoment
	LookingAway    DistractionType = "LOOKING_AWAY"
	Absent         DistractionType = "ABSENT"
)

// Verdict pairs a status with its distraction type
type Verdict struct {
	Status          Status          `json:"status"`
	DistractionType DistractionType `json:"distraction_type"`
}

// ClassifyMoment applies an ordered rule chain; the first matching rule wins.
// A nil tracking state means no reading is available yet and counts as absent
// unless a higher rule fires first. Head-down posture is tagged PHONE.
func ClassifyMoment(t *tracking.TrackingState, b browser.State) Verdict {
	switch {
	case t != nil && t.IsPhoneDetected:
		return Verdict{Distracted, Phone}
	case b.Category == browser.NonStudy:
		return Verdict{Distracted, WebDistraction}
	case t == nil || !t.IsFacePresent:
		return Verdict{Distracted, Absent}
	case t.IsHeadDown:
		return Verdict{Distracted, Phone}
	case !t.IsLookingAtScreen:
		return Verdict{Partial, LookingAway}
	case b.Category == browser.Study:
		return Verdict{Focused, None}
	default:
		return Verdict{Partial, None}
	}
}

// IsOutside reports whether the status counts toward time outside focus
func (s Status) IsOutside() bool {
	return s == Distracted
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case Focused, Partial, Distracted:
		return true
	}
	return false
}

// Valid reports whether d is a known distraction type
func (d DistractionType) Valid() bool {
	switch d {
	case None, Phone, WebDistraction, TabSwitch, LookingAway, Absent:
		return true
	}
	return false
}
