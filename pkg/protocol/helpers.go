package protocol

import (
	"encoding/base64"
	"fmt"
	"time"
)

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewBrowserMessage creates a browser context message
func NewBrowserMessage(url, title string) (*Message, error) {
	return NewMessage(TypeBrowser, BrowserData{URL: url, Title: title})
}

// NewTrackingMessage creates a tracking reading message
func NewTrackingMessage(data TrackingData) (*Message, error) {
	return NewMessage(TypeTracking, data)
}

// NewSliceMessage creates a slice message
func NewSliceMessage(data SliceData) (*Message, error) {
	return NewMessage(TypeSlice, data)
}

// NewSessionMessage creates a session lifecycle message
func NewSessionMessage(data SessionData) (*Message, error) {
	return NewMessage(TypeSession, data)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: time.Now().UnixMilli()})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	if f.Format != "" && f.Format != "jpeg" {
		return nil, fmt.Errorf("protocol: unsupported frame format %q", f.Format)
	}
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetBrowserData extracts browser data from a message
func (m *Message) GetBrowserData() (*BrowserData, error) {
	var data BrowserData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTrackingData extracts a tracking reading from a message
func (m *Message) GetTrackingData() (*TrackingData, error) {
	var data TrackingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSliceData extracts slice data from a message
func (m *Message) GetSliceData() (*SliceData, error) {
	var data SliceData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSessionData extracts session data from a message
func (m *Message) GetSessionData() (*SessionData, error) {
	var data SessionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
