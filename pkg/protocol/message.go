// Package protocol defines the WebSocket message types exchanged between
// capture clients (webcam page, browser extension) and the focus service.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Service messages
	TypeFrame   MessageType = "frame"   // Webcam frame
	TypeBrowser MessageType = "browser" // Active tab changed

	// Service → Client messages
	TypeTracking MessageType = "tracking" // Attention reading for the last frame
	TypeSlice    MessageType = "slice"    // Recorded time slice
	TypeSession  MessageType = "session"  // Session lifecycle change

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: marshal %s data: %w", msgType, err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("protocol: message has no type")
	}
	return &msg, nil
}

// FrameData contains a webcam frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// BrowserData reports the active browser tab. Domain is used when URL is
// empty. Category is informational; receivers classify the domain themselves.
type BrowserData struct {
	URL      string `json:"url"`
	Domain   string `json:"domain,omitempty"`
	Category string `json:"category,omitempty"`
	Title    string `json:"title,omitempty"`
}

// TrackingData is the attention reading sent back after each processed frame
type TrackingData struct {
	FacePresent     bool    `json:"face_present"`
	HeadDown        bool    `json:"head_down"`
	LookingAtScreen bool    `json:"looking_at_screen"`
	PhoneDetected   bool    `json:"phone_detected"`
	Pitch           float64 `json:"pitch"`
	Yaw             float64 `json:"yaw"`
}

// SliceData mirrors one recorded time slice
type SliceData struct {
	Timestamp       int64  `json:"timestamp"`
	Status          string `json:"status"`
	DistractionType string `json:"distraction_type"`
	Domain          string `json:"domain,omitempty"`
}

// SessionData announces a session lifecycle change
type SessionData struct {
	ID     string `json:"id"`
	Event  string `json:"event"` // "started", "paused", "resumed", "stopped"
	Score  *int   `json:"score,omitempty"`
	Slices int    `json:"slices"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
