// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-focus/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether per-frame pipeline logs are shown (landmarks, pose, phone counter).
// Use --debug-tracking to enable these very verbose logs
var Tracking bool

// Log writes a debug message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// TrackLog writes a debug message only if tracking debug mode is enabled
func TrackLog(msg string, args ...any) {
	if Tracking {
		log.Debug(msg, args...)
	}
}
