package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	PresetVGA     = "vga"
	Preset720p    = "720p"
	PresetMirror  = "mirror"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowConfig(),
		PresetVGA:     VGAConfig(),
		Preset720p:    HD720Config(),
		PresetMirror:  MirrorConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLow,
		PresetVGA,
		Preset720p,
		PresetMirror,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowConfig trades accuracy for CPU on slow machines
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 10
	cfg.Quality = 70
	return cfg
}

// VGAConfig returns 640x480
func VGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// HD720Config returns 720p, useful when the face is far from the camera
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	cfg.Framerate = 10
	return cfg
}

// MirrorConfig is the default capture flipped like a selfie preview
func MirrorConfig() Config {
	cfg := DefaultConfig()
	cfg.Mirror = true
	return cfg
}
