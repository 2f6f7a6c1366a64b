package monitor

import "errors"

var (
	// ErrSessionActive is returned by Start while a session is running
	ErrSessionActive = errors.New("monitor: session already active")

	// ErrNoSession is returned when an operation needs a running session
	ErrNoSession = errors.New("monitor: no active session")
)
