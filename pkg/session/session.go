// Package session records per-second focus slices for a study session,
// aggregates them into metrics and persists finished sessions.
package session

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-focus/pkg/focus"
)

// Metadata carries the browser context of a slice
type Metadata struct {
	URL    string `json:"url,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// TimeSlice is one second of classified session time. Immutable once appended.
type TimeSlice struct {
	Timestamp       int64                 `json:"timestamp"` // Unix milliseconds
	Status          focus.Status          `json:"status"`
	DistractionType focus.DistractionType `json:"distraction_type"`
	Metadata        Metadata              `json:"metadata"`
}

// Data is one study session. Slices are only ever appended; EndTime is set
// once on stop, after which the session is read-only.
type Data struct {
	ID             string      `json:"id"`
	Subject        string      `json:"subject"`
	Topic          string      `json:"topic"`
	PlannedMinutes int         `json:"planned_minutes"`
	StartTime      int64       `json:"start_time"`         // Unix milliseconds
	EndTime        *int64      `json:"end_time,omitempty"` // nil while running
	Slices         []TimeSlice `json:"slices"`
}

// New creates a session starting at start with an empty slice sequence
func New(subject, topic string, plannedMinutes int, start time.Time) *Data {
	return &Data{
		ID:             uuid.New().String(),
		Subject:        subject,
		Topic:          topic,
		PlannedMinutes: plannedMinutes,
		StartTime:      start.UnixMilli(),
		Slices:         []TimeSlice{},
	}
}

// Ended reports whether the session has been stopped
func (d *Data) Ended() bool {
	return d.EndTime != nil
}

// End sets EndTime if it is not already set
func (d *Data) End(at time.Time) {
	if d.EndTime != nil {
		return
	}
	ms := at.UnixMilli()
	d.EndTime = &ms
}

// Clone returns a deep copy safe to hand to readers
func (d *Data) Clone() *Data {
	c := *d
	c.Slices = slices.Clone(d.Slices)
	if c.Slices == nil {
		c.Slices = []TimeSlice{}
	}
	if d.EndTime != nil {
		end := *d.EndTime
		c.EndTime = &end
	}
	return &c
}
