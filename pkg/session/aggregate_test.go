package session

import (
	"testing"

	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/focus"
)

func slicesOf(n int, status focus.Status, dt focus.DistractionType, domain string) []TimeSlice {
	out := make([]TimeSlice, n)
	for i := range out {
		out[i] = TimeSlice{
			Timestamp:       t0 + int64(i)*1000,
			Status:          status,
			DistractionType: dt,
			Metadata:        Metadata{Domain: domain},
		}
	}
	return out
}

func concat(parts ...[]TimeSlice) []TimeSlice {
	var out []TimeSlice
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(nil)

	if m.TotalDuration != 0 || m.FocusScore != 0 || m.DistractionRatio != 0 {
		t.Errorf("empty metrics = %+v", m)
	}
	if m.TopSites == nil || len(m.TopSites) != 0 {
		t.Errorf("TopSites = %#v, want empty non-nil", m.TopSites)
	}
}

func TestAggregate_AllFocused(t *testing.T) {
	m := Aggregate(slicesOf(10, focus.Focused, focus.None, ""))

	if m.FocusScore != 100 {
		t.Errorf("FocusScore = %d, want 100", m.FocusScore)
	}
	if m.FocusedTime != 10 || m.TotalDuration != 10 {
		t.Errorf("times = %+v", m)
	}
	if len(m.TopSites) != 0 {
		t.Errorf("TopSites = %+v, want empty", m.TopSites)
	}
}

func TestAggregate_HalfWebDistraction(t *testing.T) {
	m := Aggregate(concat(
		slicesOf(5, focus.Focused, focus.None, ""),
		slicesOf(5, focus.Distracted, focus.WebDistraction, "youtube.com"),
	))

	if m.FocusScore != 50 {
		t.Errorf("FocusScore = %d, want 50", m.FocusScore)
	}
	want := []WebsiteVisit{{Domain: "youtube.com", Category: browser.NonStudy, Duration: 5}}
	if len(m.TopSites) != 1 || m.TopSites[0] != want[0] {
		t.Errorf("TopSites = %+v, want %+v", m.TopSites, want)
	}
	if m.WebTime != 5 || m.OutsideTime != 5 || m.DistractionRatio != 0.5 {
		t.Errorf("distraction fields = %+v", m)
	}
}

func TestAggregate_Breakdown(t *testing.T) {
	m := Aggregate(concat(
		slicesOf(4, focus.Focused, focus.None, "github.com"),
		slicesOf(2, focus.Partial, focus.None, ""),
		slicesOf(3, focus.Partial, focus.LookingAway, ""),
		slicesOf(2, focus.Distracted, focus.Phone, ""),
		slicesOf(1, focus.Distracted, focus.Absent, ""),
	))

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"TotalDuration", m.TotalDuration, 12},
		{"FocusedTime", m.FocusedTime, 4},
		{"PartialTime", m.PartialTime, 5},
		{"OutsideTime", m.OutsideTime, 8},
		{"PhoneTime", m.PhoneTime, 2},
		{"WebTime", m.WebTime, 0},
		{"AbsentTime", m.AbsentTime, 4},
		// (4 + 2.5) / 12 = 54.17
		{"FocusScore", m.FocusScore, 54},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
			}
		})
	}

	if m.DistractionRatio != 0.25 {
		t.Errorf("DistractionRatio = %v, want 0.25", m.DistractionRatio)
	}
}

func TestAggregate_ScoreRounding(t *testing.T) {
	// 1 partial of 4: 12.5 rounds to 13
	m := Aggregate(concat(
		slicesOf(1, focus.Partial, focus.None, ""),
		slicesOf(3, focus.Distracted, focus.Absent, ""),
	))
	if m.FocusScore != 13 {
		t.Errorf("FocusScore = %d, want 13", m.FocusScore)
	}
}

func TestAggregate_SiteCategoryLastWriteWins(t *testing.T) {
	m := Aggregate(concat(
		slicesOf(3, focus.Distracted, focus.WebDistraction, "example.com"),
		slicesOf(1, focus.Focused, focus.None, "example.com"),
	))
	if len(m.TopSites) != 1 {
		t.Fatalf("TopSites = %+v", m.TopSites)
	}
	site := m.TopSites[0]
	if site.Duration != 4 || site.Category != browser.Study {
		t.Errorf("site = %+v, want 4s STUDY", site)
	}

	m = Aggregate(concat(
		slicesOf(1, focus.Focused, focus.None, "example.com"),
		slicesOf(1, focus.Distracted, focus.WebDistraction, "example.com"),
	))
	if m.TopSites[0].Category != browser.NonStudy {
		t.Errorf("category = %v, want NON_STUDY", m.TopSites[0].Category)
	}
}

func TestAggregate_TopSitesOrder(t *testing.T) {
	m := Aggregate(concat(
		slicesOf(2, focus.Focused, focus.None, "wikipedia.org"),
		slicesOf(5, focus.Distracted, focus.WebDistraction, "reddit.com"),
		slicesOf(2, focus.Focused, focus.None, "github.com"),
		slicesOf(3, focus.Focused, focus.None, "stackoverflow.com"),
	))

	want := []string{"reddit.com", "stackoverflow.com", "github.com", "wikipedia.org"}
	if len(m.TopSites) != len(want) {
		t.Fatalf("TopSites = %+v", m.TopSites)
	}
	for i, d := range want {
		if m.TopSites[i].Domain != d {
			t.Errorf("TopSites[%d] = %s, want %s", i, m.TopSites[i].Domain, d)
		}
	}
}

func TestAggregate_UnknownStatusCountsOutside(t *testing.T) {
	slices := []TimeSlice{
		{Timestamp: t0, Status: focus.Focused},
		{Timestamp: t0 + 1000, Status: ""},
		{Timestamp: t0 + 2000, Status: focus.Status("AWAY")},
		{Timestamp: t0 + 3000, Status: focus.Partial},
	}

	m := Aggregate(slices)

	rawOutside := m.OutsideTime - m.PartialTime
	if m.FocusedTime+m.PartialTime+rawOutside != m.TotalDuration {
		t.Errorf("buckets %d+%d+%d do not cover %d slices", m.FocusedTime, m.PartialTime, rawOutside, m.TotalDuration)
	}
	if rawOutside != 2 || m.OutsideTime != 3 {
		t.Errorf("OutsideTime = %d, want 3 (2 raw + 1 partial)", m.OutsideTime)
	}
	if m.DistractionRatio != 0.5 {
		t.Errorf("DistractionRatio = %v, want 0.5", m.DistractionRatio)
	}
	if m.FocusScore != 38 {
		t.Errorf("FocusScore = %d, want 38", m.FocusScore)
	}
}
