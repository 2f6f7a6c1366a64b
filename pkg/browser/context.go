package browser

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoized domain classifications
const DefaultCacheSize = 512

// Context holds the last reported browser state. Updates arrive from the
// ingest channel or the REST API; the sampler reads once per second.
type Context struct {
	mu       sync.RWMutex
	state    State
	onChange func(State)

	cache *lru.Cache[string, Category]
}

// NewContext creates an empty, neutral context
func NewContext(cacheSize int) (*Context, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Category](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("browser: create classification cache: %w", err)
	}
	return &Context{cache: cache}, nil
}

// Classify returns the category of domain, memoized
func (c *Context) Classify(domain string) Category {
	if cat, ok := c.cache.Get(domain); ok {
		return cat
	}
	cat := ClassifyDomain(domain)
	c.cache.Add(domain, cat)
	return cat
}

// Update records a new active tab and returns the classified state
func (c *Context) Update(rawURL, title string) State {
	return c.Report(rawURL, "", title)
}

// Report records a pushed tab report. A report without a URL is
// classified by its domain; any category it carries is re-derived.
func (c *Context) Report(rawURL, domain, title string) State {
	domain = reportedDomain(rawURL, domain)
	s := State{
		URL:      rawURL,
		Domain:   domain,
		Title:    title,
		Category: c.Classify(domain),
	}
	c.Set(s)
	return s
}

// Set replaces the current state as given
func (c *Context) Set(s State) {
	c.mu.Lock()
	c.state = s
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// Current returns the last known state
func (c *Context) Current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Clear resets to the neutral zero state
func (c *Context) Clear() {
	c.Set(State{})
}

// OnChange registers a callback invoked after every update
func (c *Context) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}
