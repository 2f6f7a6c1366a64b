package report

import "errors"

// ErrNotAuthenticated is returned when Google Docs has not been connected
var ErrNotAuthenticated = errors.New("report: not authenticated with Google, connect first")
