// Package browser classifies the active browser tab and holds the last
// reported browser context for the focus classifier.
package browser

import (
	"fmt"
	"strings"
)

// Category is the coarse study relevance of a site
type Category int

const (
	Neutral Category = iota
	Study
	NonStudy
)

// Keyword lists matched as case-insensitive substrings of the domain.
// Study is checked first.
var (
	StudyKeywords       = []string{"canvas", "wikipedia", "github", "stackoverflow", ".edu"}
	DistractionKeywords = []string{"youtube", "instagram", "twitter", "facebook", "tiktok", "reddit"}
)

// ClassifyDomain maps a domain to its category
func ClassifyDomain(domain string) Category {
	d := strings.ToLower(domain)
	if d == "" {
		return Neutral
	}
	for _, kw := range StudyKeywords {
		if strings.Contains(d, kw) {
			return Study
		}
	}
	for _, kw := range DistractionKeywords {
		if strings.Contains(d, kw) {
			return NonStudy
		}
	}
	return Neutral
}

func (c Category) String() string {
	switch c {
	case Study:
		return "STUDY"
	case NonStudy:
		return "NON_STUDY"
	default:
		return "NEUTRAL"
	}
}

// ParseCategory parses the wire name of a category
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STUDY":
		return Study, nil
	case "NON_STUDY":
		return NonStudy, nil
	case "NEUTRAL", "":
		return Neutral, nil
	}
	return Neutral, fmt.Errorf("browser: unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
