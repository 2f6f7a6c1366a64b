package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if cfg.Camera.Width != 480 || cfg.Camera.Height != 360 {
		t.Errorf("camera = %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Port != DefaultConfig().Port || cfg.Source != SourceCamera {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFile)
		os.WriteFile(path, []byte(`{"port":"9090","source":"ingest","camera":{"width":640,"height":480}}`), 0644)

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Port != "9090" || cfg.Source != SourceIngest {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Camera.Width != 640 || cfg.Camera.Quality != 80 {
			t.Errorf("camera = %+v", cfg.Camera)
		}
		if cfg.Store != StoreJSON || !cfg.PhoneDetection {
			t.Errorf("defaults lost: store=%q phone=%v", cfg.Store, cfg.PhoneDetection)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFile)
		os.WriteFile(path, []byte(`{"port":`), 0644)

		cfg, err := LoadFile(path)
		if err == nil {
			t.Error("expected parse error")
		}
		if cfg.Port != DefaultConfig().Port {
			t.Errorf("expected defaults on error, got %+v", cfg)
		}
	})
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFile)
	cfg := DefaultConfig()
	cfg.TrackingPreset = "strict"
	cfg.GoogleClientSecret = "secret"

	if err := SaveFile(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.TrackingPreset != "strict" {
		t.Errorf("TrackingPreset = %q", got.TrackingPreset)
	}
	if got.GoogleClientSecret != "" {
		t.Error("secrets must not be written to the config file")
	}
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("FOCUS_PORT", "7070")
	t.Setenv("FOCUS_SOURCE", "none")
	t.Setenv("FOCUS_STORE", "redis")
	t.Setenv("FOCUS_REDIS_ADDR", "redis:6379")
	t.Setenv("FOCUS_PHONE_DETECTION", "false")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("FOCUS_FEED_RETRY", "2s")

	cfg := DefaultConfig()
	cfg.ModelDir = "/opt/models"
	cfg.LoadEnvConfig()

	if cfg.Port != "7070" || cfg.Source != SourceNone || cfg.Store != StoreRedis {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.PhoneDetection || cfg.GoogleClientID != "id" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.FeedRetry != 2*time.Second {
		t.Errorf("FeedRetry = %v, want 2s", cfg.FeedRetry)
	}
	if cfg.ModelDir != "/opt/models" {
		t.Errorf("unset env var overrode ModelDir: %q", cfg.ModelDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad source", func(c *Config) { c.Source = "usb" }, "Source"},
		{"bad store", func(c *Config) { c.Store = "sqlite" }, "Store"},
		{"redis without addr", func(c *Config) { c.Store = StoreRedis; c.Redis.Addr = "" }, "Redis.Addr"},
		{"no port", func(c *Config) { c.Port = "" }, "Port"},
		{"unknown preset", func(c *Config) { c.TrackingPreset = "paranoid" }, "TrackingPreset"},
		{"bad camera", func(c *Config) { c.Camera.Width = 1 }, "Camera"},
		{"google without creds", func(c *Config) { c.GoogleDocs = true }, "GoogleClientID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			var cerr *ConfigError
			if err := cfg.Validate(); !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Errorf("Validate() = %v, want ConfigError on %s", err, tt.field)
			}
		})
	}

	t.Run("camera ignored for ingest", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Source = SourceIngest
		cfg.Camera.Width = 1
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}
