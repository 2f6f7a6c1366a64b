package monitor

import (
	"github.com/teslashibe/go-focus/pkg/session"
	"github.com/teslashibe/go-focus/pkg/tracking"
)

// EventType identifies a monitor event
type EventType string

const (
	EventStarted  EventType = "started"
	EventPaused   EventType = "paused"
	EventResumed  EventType = "resumed"
	EventStopped  EventType = "stopped"
	EventSlice    EventType = "slice"
	EventTracking EventType = "tracking"
)

// Event is delivered to subscribers. Only the field matching Type is set,
// except SessionID which is always present.
type Event struct {
	Type      EventType
	SessionID string
	Slice     *session.TimeSlice
	Tracking  *tracking.TrackingState
	Metrics   *session.Metrics // EventStopped
	Slices    int              // Slices recorded so far
}
