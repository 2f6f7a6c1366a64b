package browser

import (
	"net/url"
	"strings"
)

// State is the last known browser tab. The zero value is an unknown,
// neutral context.
type State struct {
	URL      string   `json:"url,omitempty"`
	Domain   string   `json:"domain,omitempty"`
	Title    string   `json:"title,omitempty"`
	Category Category `json:"category"`
}

// NewState builds a classified state from a raw URL
func NewState(rawURL, title string) State {
	return NewReportedState(rawURL, "", title)
}

// NewReportedState builds a classified state from a pushed tab report.
// The domain is taken from the URL when present, else from domain.
func NewReportedState(rawURL, domain, title string) State {
	domain = reportedDomain(rawURL, domain)
	return State{
		URL:      rawURL,
		Domain:   domain,
		Title:    title,
		Category: ClassifyDomain(domain),
	}
}

// DomainFromURL extracts the lower-cased host from a URL, without port or
// leading "www.". Input without a scheme is treated as a bare domain.
func DomainFromURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func reportedDomain(rawURL, domain string) string {
	if d := DomainFromURL(rawURL); d != "" {
		return d
	}
	return DomainFromURL(domain)
}
