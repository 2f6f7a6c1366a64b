package camera

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-focus/internal/log"
)

var (
	ErrNotOpen    = errors.New("camera: not open")
	ErrReadFailed = errors.New("camera: frame read failed")
)

// device is the subset of gocv.VideoCapture the manager drives
type device interface {
	Read(m *gocv.Mat) bool
	Set(prop gocv.VideoCaptureProperties, param float64)
	Close() error
}

func openVideoCapture(id int) (device, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

// Manager owns the webcam and its configuration. It implements
// tracking.FrameSource and io.Closer.
type Manager struct {
	config Config
	mu     sync.Mutex
	dev    device
	frame  gocv.Mat
	logger *slog.Logger

	open func(id int) (device, error)

	// OnConfigChange is called after a new config is applied
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager with cfg. The device is not opened until Open.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
		logger: log.Component("camera"),
		open:   openVideoCapture,
	}
}

// Open acquires the capture device
func (m *Manager) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openLocked()
}

func (m *Manager) openLocked() error {
	if m.dev != nil {
		return nil
	}
	if errs := m.config.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %v", errs)
	}

	dev, err := m.open(m.config.DeviceID)
	if err != nil {
		return fmt.Errorf("camera: open device %d: %w", m.config.DeviceID, err)
	}

	dev.Set(gocv.VideoCaptureFrameWidth, float64(m.config.Width))
	dev.Set(gocv.VideoCaptureFrameHeight, float64(m.config.Height))
	dev.Set(gocv.VideoCaptureFPS, float64(m.config.Framerate))
	if m.config.Brightness > 0 {
		dev.Set(gocv.VideoCaptureBrightness, m.config.Brightness)
	}

	m.dev = dev
	m.frame = gocv.NewMat()
	m.logger.Info("camera opened", "device", m.config.DeviceID,
		"width", m.config.Width, "height", m.config.Height, "fps", m.config.Framerate)
	return nil
}

// IsOpen reports whether the device is held
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dev != nil
}

// CaptureJPEG reads one frame, scales it to the configured size and
// encodes it as JPEG.
func (m *Manager) CaptureJPEG() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev == nil {
		return nil, ErrNotOpen
	}
	if ok := m.dev.Read(&m.frame); !ok || m.frame.Empty() {
		return nil, ErrReadFailed
	}

	img := m.frame
	if img.Cols() != m.config.Width || img.Rows() != m.config.Height {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(img, &resized, image.Pt(m.config.Width, m.config.Height), 0, 0, gocv.InterpolationLinear)
		img = resized
	}
	if m.config.Mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(img, &flipped, 1)
		img = flipped
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, m.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *Manager) closeLocked() error {
	if m.dev == nil {
		return nil
	}
	err := m.dev.Close()
	m.frame.Close()
	m.dev = nil
	m.logger.Info("camera closed", "device", m.config.DeviceID)
	return err
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// SetConfig validates and applies cfg. An open device is reopened with
// the new settings.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: validation failed: %v", errs)
	}

	m.mu.Lock()
	wasOpen := m.dev != nil
	if wasOpen {
		if err := m.closeLocked(); err != nil {
			m.logger.Warn("close before reconfigure failed", "error", err)
		}
	}
	m.config = cfg
	var err error
	if wasOpen {
		err = m.openLocked()
	}
	callback := m.OnConfigChange
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("camera: apply config: %w", err)
		}
	}
	return nil
}

// UpdateConfig applies a preset and/or individual fields given as a map,
// typically decoded from a JSON request.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.GetConfig()

	if name, ok := params["preset"].(string); ok {
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("camera: unknown preset %q", name)
		}
		deviceID := cfg.DeviceID
		cfg = *preset
		cfg.DeviceID = deviceID
	}

	for key, value := range params {
		switch key {
		case "device_id":
			if v, ok := toInt(value); ok {
				cfg.DeviceID = v
			}
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "quality":
			if v, ok := toInt(value); ok {
				cfg.Quality = v
			}
		case "mirror":
			if v, ok := value.(bool); ok {
				cfg.Mirror = v
			}
		case "brightness":
			if v, ok := toFloat(value); ok {
				cfg.Brightness = v
			}
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a generic map
func (m *Manager) GetConfigJSON() map[string]any {
	data, _ := json.Marshal(m.GetConfig())
	var result map[string]any
	json.Unmarshal(data, &result)
	return result
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
