// Package camera captures webcam frames as JPEG for the attention tracker.
package camera

// Config holds webcam capture parameters
type Config struct {
	DeviceID  int  `json:"device_id"` // OpenCV device index
	Width     int  `json:"width"`     // Frame width in pixels
	Height    int  `json:"height"`    // Frame height in pixels
	Framerate int  `json:"framerate"` // Requested device FPS
	Quality   int  `json:"quality"`   // JPEG quality 1-100
	Mirror    bool `json:"mirror"`    // Flip horizontally before encoding

	// Brightness is passed to the driver when non-zero (0.0 to 1.0).
	Brightness float64 `json:"brightness"`
}

// Capture limits
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 1920
	MaxHeight    = 1080
	MaxFramerate = 60
)

// DefaultConfig returns the 480x360 capture the tracker is tuned for.
// Landmark and object models resize internally, so larger frames only
// cost encode time.
func DefaultConfig() Config {
	return Config{
		DeviceID:  0,
		Width:     480,
		Height:    360,
		Framerate: 15,
		Quality:   80,
	}
}

// Validate checks that values are within range.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 {
		errors = append(errors, "device_id must not be negative")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 1920")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 1080")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 60")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errors = append(errors, "brightness must be between 0.0 and 1.0")
	}

	return errors
}
