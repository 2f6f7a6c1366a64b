package camera

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

type fakeDevice struct {
	width, height int
	fail          bool
	props         map[gocv.VideoCaptureProperties]float64
	closed        int
}

func (d *fakeDevice) Read(m *gocv.Mat) bool {
	if d.fail {
		return false
	}
	blank := gocv.NewMatWithSize(d.height, d.width, gocv.MatTypeCV8UC3)
	defer blank.Close()
	blank.CopyTo(m)
	return true
}

func (d *fakeDevice) Set(prop gocv.VideoCaptureProperties, v float64) {
	if d.props == nil {
		d.props = make(map[gocv.VideoCaptureProperties]float64)
	}
	d.props[prop] = v
}

func (d *fakeDevice) Close() error {
	d.closed++
	return nil
}

func newFakeManager(cfg Config, dev *fakeDevice) (*Manager, *int) {
	opens := 0
	m := NewManager(cfg)
	m.open = func(int) (device, error) {
		opens++
		return dev, nil
	}
	return m, &opens
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Width != 480 || cfg.Height != 360 {
		t.Errorf("default resolution = %dx%d, want 480x360", cfg.Width, cfg.Height)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v", errs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errors int
	}{
		{"valid", func(*Config) {}, 0},
		{"negative device", func(c *Config) { c.DeviceID = -1 }, 1},
		{"tiny width", func(c *Config) { c.Width = 10 }, 1},
		{"huge height", func(c *Config) { c.Height = 5000 }, 1},
		{"zero fps", func(c *Config) { c.Framerate = 0 }, 1},
		{"quality", func(c *Config) { c.Quality = 101 }, 1},
		{"brightness", func(c *Config) { c.Brightness = 2 }, 1},
		{"several", func(c *Config) { c.Width = 0; c.Quality = 0 }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if got := cfg.Validate(); len(got) != tt.errors {
				t.Errorf("Validate() = %v, want %d errors", got, tt.errors)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	presets := Presets()
	if len(presets) != len(PresetNames()) {
		t.Errorf("Presets() has %d entries, PresetNames() %d", len(presets), len(PresetNames()))
	}
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("GetPreset(%q) = nil", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("bogus") != nil {
		t.Error("GetPreset(bogus) should be nil")
	}
}

func TestCaptureRequiresOpen(t *testing.T) {
	m, _ := newFakeManager(DefaultConfig(), &fakeDevice{width: 480, height: 360})
	if _, err := m.CaptureJPEG(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("CaptureJPEG() error = %v, want ErrNotOpen", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() on unopened manager = %v", err)
	}
}

func TestCaptureJPEG(t *testing.T) {
	dev := &fakeDevice{width: 640, height: 480}
	m, opens := newFakeManager(MirrorConfig(), dev)

	if err := m.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := m.Open(); err != nil || *opens != 1 {
		t.Errorf("second Open() = %v, opens = %d", err, *opens)
	}
	if dev.props[gocv.VideoCaptureFrameWidth] != 480 || dev.props[gocv.VideoCaptureFrameHeight] != 360 {
		t.Errorf("device props = %v", dev.props)
	}

	jpeg, err := m.CaptureJPEG()
	if err != nil {
		t.Fatalf("CaptureJPEG() error = %v", err)
	}
	if len(jpeg) < 4 || jpeg[0] != 0xff || jpeg[1] != 0xd8 {
		t.Fatalf("not a JPEG: % x", jpeg[:min(4, len(jpeg))])
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close()
	if img.Cols() != 480 || img.Rows() != 360 {
		t.Errorf("decoded size = %dx%d, want 480x360", img.Cols(), img.Rows())
	}

	m.Close()
	m.Close()
	if dev.closed != 1 {
		t.Errorf("device closed %d times, want 1", dev.closed)
	}
}

func TestCaptureReadFailure(t *testing.T) {
	m, _ := newFakeManager(DefaultConfig(), &fakeDevice{fail: true})
	if err := m.Open(); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if _, err := m.CaptureJPEG(); !errors.Is(err, ErrReadFailed) {
		t.Errorf("CaptureJPEG() error = %v, want ErrReadFailed", err)
	}
}

func TestOpenError(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.open = func(int) (device, error) { return nil, errors.New("no such device") }

	if err := m.Open(); err == nil {
		t.Error("expected open error")
	}
	if m.IsOpen() {
		t.Error("manager should not be open")
	}

	bad := DefaultConfig()
	bad.Width = 1
	if err := NewManager(bad).Open(); err == nil {
		t.Error("expected validation error")
	}
}

func TestUpdateConfig(t *testing.T) {
	dev := &fakeDevice{width: 320, height: 240}
	m, opens := newFakeManager(DefaultConfig(), dev)

	var applied Config
	m.OnConfigChange = func(cfg Config) error {
		applied = cfg
		return nil
	}

	if err := m.UpdateConfig(map[string]any{"preset": "low", "quality": float64(90), "mirror": true}); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	cfg := m.GetConfig()
	if cfg.Width != 320 || cfg.Quality != 90 || !cfg.Mirror {
		t.Errorf("config = %+v", cfg)
	}
	if applied != cfg {
		t.Errorf("callback got %+v", applied)
	}
	if *opens != 0 {
		t.Error("closed manager should not open on reconfigure")
	}

	m.Open()
	if err := m.UpdateConfig(map[string]any{"width": 640, "height": 480}); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	if *opens != 2 || dev.closed != 1 || !m.IsOpen() {
		t.Errorf("reopen: opens=%d closed=%d open=%v", *opens, dev.closed, m.IsOpen())
	}
	m.Close()

	if err := m.UpdateConfig(map[string]any{"preset": "nope"}); err == nil {
		t.Error("expected unknown preset error")
	}
	if err := m.UpdateConfig(map[string]any{"quality": 0}); err == nil {
		t.Error("expected validation error")
	}
	if got := m.GetConfigJSON()["width"]; got != float64(640) {
		t.Errorf("GetConfigJSON width = %v", got)
	}
}
