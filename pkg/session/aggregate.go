package session

import (
	"math"
	"sort"

	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/focus"
)

// WebsiteVisit is the time attributed to one domain during a session
type WebsiteVisit struct {
	Domain   string           `json:"domain"`
	Category browser.Category `json:"category"`
	Duration int              `json:"duration"` // seconds
}

// Metrics summarizes a session. All durations are in seconds (one per slice).
type Metrics struct {
	TotalDuration    int            `json:"total_duration"`
	FocusedTime      int            `json:"focused_time"`
	PartialTime      int            `json:"partial_time"`
	OutsideTime      int            `json:"outside_time"` // distracted + partial
	PhoneTime        int            `json:"phone_time"`
	WebTime          int            `json:"web_time"`
	AbsentTime       int            `json:"absent_time"` // absent + looking away
	FocusScore       int            `json:"focus_score"` // 0-100
	DistractionRatio float64        `json:"distraction_ratio"`
	TopSites         []WebsiteVisit `json:"top_sites"`
}

// Aggregate reduces a slice sequence to session metrics. A domain's
// category is taken from the last slice that touched it.
func Aggregate(slices []TimeSlice) Metrics {
	m := Metrics{TopSites: []WebsiteVisit{}}
	if len(slices) == 0 {
		return m
	}

	distracted := 0 // everything not focused or partial
	sites := make(map[string]*WebsiteVisit)

	for _, s := range slices {
		switch s.Status {
		case focus.Focused:
			m.FocusedTime++
		case focus.Partial:
			m.PartialTime++
		default:
			// distracted, or an unknown status from stored data
			distracted++
		}

		switch s.DistractionType {
		case focus.Phone:
			m.PhoneTime++
		case focus.WebDistraction:
			m.WebTime++
		case focus.Absent, focus.LookingAway:
			m.AbsentTime++
		}

		if s.Metadata.Domain == "" {
			continue
		}
		v, ok := sites[s.Metadata.Domain]
		if !ok {
			v = &WebsiteVisit{Domain: s.Metadata.Domain}
			sites[s.Metadata.Domain] = v
		}
		v.Duration++
		if s.DistractionType == focus.WebDistraction {
			v.Category = browser.NonStudy
		} else {
			v.Category = browser.Study
		}
	}

	total := len(slices)
	m.TotalDuration = total
	m.OutsideTime = distracted + m.PartialTime

	score := (float64(m.FocusedTime) + 0.5*float64(m.PartialTime)) / float64(total) * 100
	m.FocusScore = int(math.Round(math.Max(0, math.Min(100, score))))
	m.DistractionRatio = float64(distracted) / float64(total)

	for _, v := range sites {
		m.TopSites = append(m.TopSites, *v)
	}
	sort.Slice(m.TopSites, func(i, j int) bool {
		a, b := m.TopSites[i], m.TopSites[j]
		if a.Duration != b.Duration {
			return a.Duration > b.Duration
		}
		return a.Domain < b.Domain
	})

	return m
}
