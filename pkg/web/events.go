package web

import (
	"fmt"

	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/monitor"
	"github.com/teslashibe/go-focus/pkg/protocol"
	"github.com/teslashibe/go-focus/pkg/session"
	"github.com/teslashibe/go-focus/pkg/tracking"
)

// TrackingData converts a tracker reading to its wire form
func TrackingData(s tracking.TrackingState) protocol.TrackingData {
	return protocol.TrackingData{
		FacePresent:     s.IsFacePresent,
		HeadDown:        s.IsHeadDown,
		LookingAtScreen: s.IsLookingAtScreen,
		PhoneDetected:   s.IsPhoneDetected,
		Pitch:           s.Pitch,
		Yaw:             s.Yaw,
	}
}

// SliceData converts a recorded slice to its wire form
func SliceData(ts session.TimeSlice) protocol.SliceData {
	return protocol.SliceData{
		Timestamp:       ts.Timestamp,
		Status:          string(ts.Status),
		DistractionType: string(ts.DistractionType),
		Domain:          ts.Metadata.Domain,
	}
}

// EventMessage maps a monitor event to the message broadcast on /ws/status
func EventMessage(e monitor.Event) (*protocol.Message, error) {
	switch e.Type {
	case monitor.EventSlice:
		return protocol.NewSliceMessage(SliceData(*e.Slice))
	case monitor.EventTracking:
		return protocol.NewTrackingMessage(TrackingData(*e.Tracking))
	case monitor.EventStarted, monitor.EventPaused, monitor.EventResumed, monitor.EventStopped:
		data := protocol.SessionData{ID: e.SessionID, Event: string(e.Type), Slices: e.Slices}
		if e.Metrics != nil {
			score := e.Metrics.FocusScore
			data.Score = &score
		}
		return protocol.NewSessionMessage(data)
	}
	return nil, fmt.Errorf("web: unknown event type %q", e.Type)
}

func (s *Server) handleEvent(e monitor.Event) {
	msg, err := EventMessage(e)
	if err != nil {
		s.logger.Warn("dropping event", "error", err)
		return
	}
	if err := s.statusHub.BroadcastProtocol(msg); err != nil {
		s.logger.Warn("broadcast failed", "event", e.Type, "error", err)
	}

	switch e.Type {
	case monitor.EventSlice, monitor.EventTracking:
	case monitor.EventStopped:
		score := 0
		if e.Metrics != nil {
			score = e.Metrics.FocusScore
		}
		s.AddLog("session", fmt.Sprintf("Session %s stopped after %d slices, focus score %d", e.SessionID, e.Slices, score))
	default:
		s.AddLog("session", fmt.Sprintf("Session %s %s", e.SessionID, e.Type))
	}
}

// greeting tells a new dashboard client which session is running
func (s *Server) greeting() []hub.Message {
	if s.mon == nil {
		return nil
	}
	data, _, err := s.mon.Snapshot()
	if err != nil {
		return nil
	}

	event := "started"
	if s.mon.Paused() {
		event = "paused"
	}
	msg, err := protocol.NewSessionMessage(protocol.SessionData{ID: data.ID, Event: event, Slices: len(data.Slices)})
	if err != nil {
		return nil
	}
	m, err := hub.NewProtocolMessage(msg)
	if err != nil {
		return nil
	}
	return []hub.Message{m}
}
