// Package report renders finished sessions and hands them to sinks such as
// the log or Google Docs.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/session"
)

// Reporter receives every finished session
type Reporter interface {
	Report(ctx context.Context, d *session.Data, m session.Metrics) error
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(ctx context.Context, d *session.Data, m session.Metrics) error

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, d *session.Data, m session.Metrics) error {
	return f(ctx, d, m)
}

// Title returns the document title for a session
func Title(d *session.Data) string {
	start := time.UnixMilli(d.StartTime).UTC().Format("2006-01-02 15:04")
	name := d.Subject
	if d.Topic != "" {
		name += " - " + d.Topic
	}
	if name == "" {
		name = "Study session"
	}
	return fmt.Sprintf("%s (%s UTC)", name, start)
}

// FormatText renders a plain-text session summary
func FormatText(d *session.Data, m session.Metrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", Title(d))

	fmt.Fprintf(&b, "Focus score: %d/100\n", m.FocusScore)
	fmt.Fprintf(&b, "Duration: %s", seconds(m.TotalDuration))
	if d.PlannedMinutes > 0 {
		fmt.Fprintf(&b, " (planned %dm)", d.PlannedMinutes)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Focused: %s\n", seconds(m.FocusedTime))
	fmt.Fprintf(&b, "Partial: %s\n", seconds(m.PartialTime))
	fmt.Fprintf(&b, "Outside focus: %s (%.1f%% distracted)\n", seconds(m.OutsideTime), m.DistractionRatio*100)
	fmt.Fprintf(&b, "  Phone: %s\n", seconds(m.PhoneTime))
	fmt.Fprintf(&b, "  Web: %s\n", seconds(m.WebTime))
	fmt.Fprintf(&b, "  Away: %s\n", seconds(m.AbsentTime))

	if len(m.TopSites) > 0 {
		b.WriteString("\nSites:\n")
		for _, s := range m.TopSites {
			fmt.Fprintf(&b, "  %-30s %-9s %s\n", s.Domain, s.Category, seconds(s.Duration))
		}
	}

	return b.String()
}

func seconds(n int) string {
	return (time.Duration(n) * time.Second).String()
}

// LogReporter writes a one-line summary per session to the log
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter on the "report" component logger
func NewLogReporter() *LogReporter {
	return &LogReporter{logger: log.Component("report")}
}

// NewLogReporterWith creates a reporter writing to logger
func NewLogReporterWith(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report implements Reporter.
func (r *LogReporter) Report(_ context.Context, d *session.Data, m session.Metrics) error {
	top := ""
	if len(m.TopSites) > 0 {
		top = m.TopSites[0].Domain
	}
	r.logger.Info("session finished",
		"session", d.ID,
		"subject", d.Subject,
		"duration_s", m.TotalDuration,
		"focus_score", m.FocusScore,
		"phone_s", m.PhoneTime,
		"web_s", m.WebTime,
		"away_s", m.AbsentTime,
		"top_site", top,
	)
	return nil
}
