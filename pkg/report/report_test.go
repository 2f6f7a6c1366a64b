package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/session"
)

func sampleSession() (*session.Data, session.Metrics) {
	d := session.New("Math", "Integrals", 30, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	m := session.Metrics{
		TotalDuration:    600,
		FocusedTime:      420,
		PartialTime:      60,
		OutsideTime:      180,
		PhoneTime:        30,
		WebTime:          60,
		AbsentTime:       30,
		FocusScore:       75,
		DistractionRatio: 0.2,
		TopSites: []session.WebsiteVisit{
			{Domain: "github.com", Category: browser.Study, Duration: 300},
			{Domain: "youtube.com", Category: browser.NonStudy, Duration: 60},
		},
	}
	return d, m
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		topic   string
		want    string
	}{
		{"subject and topic", "Math", "Integrals", "Math - Integrals (2025-03-01 09:00 UTC)"},
		{"subject only", "Math", "", "Math (2025-03-01 09:00 UTC)"},
		{"neither", "", "", "Study session (2025-03-01 09:00 UTC)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := session.New(tt.subject, tt.topic, 0, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
			if got := Title(d); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatText(t *testing.T) {
	d, m := sampleSession()
	out := FormatText(d, m)

	for _, want := range []string{
		"Math - Integrals",
		"Focus score: 75/100",
		"Duration: 10m0s (planned 30m)",
		"Focused: 7m0s",
		"(20.0% distracted)",
		"Phone: 30s",
		"github.com",
		"NON_STUDY",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatText() missing %q\n%s", want, out)
		}
	}
}

func TestFormatText_NoSites(t *testing.T) {
	d, m := sampleSession()
	m.TopSites = []session.WebsiteVisit{}

	if strings.Contains(FormatText(d, m), "Sites:") {
		t.Error("expected no sites section")
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporterWith(log.New(&buf, "info", true))

	d, m := sampleSession()
	if err := r.Report(context.Background(), d, m); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"session finished"`, `"focus_score":75`, `"top_site":"github.com"`, d.ID} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestReporterFunc(t *testing.T) {
	called := false
	var r Reporter = ReporterFunc(func(context.Context, *session.Data, session.Metrics) error {
		called = true
		return nil
	})

	d, m := sampleSession()
	r.Report(context.Background(), d, m)
	if !called {
		t.Error("ReporterFunc not invoked")
	}
}
