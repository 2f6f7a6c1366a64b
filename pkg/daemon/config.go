// Package daemon assembles the focus service: capture, inference, session
// monitor, persistence, reporting and the web dashboard.
package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/session"
	"github.com/teslashibe/go-focus/pkg/tracking"
)

// Frame sources
const (
	SourceCamera = "camera" // local webcam through gocv
	SourceIngest = "ingest" // frames pushed over /ws/client
	SourceNone   = "none"   // browser-only; every second without a face reads absent
)

// Session store backends
const (
	StoreJSON  = "json"
	StoreRedis = "redis"
)

// ConfigFile is the config file name inside the data directory
const ConfigFile = "config.json"

// Config holds all configuration for the daemon.
// Flag parsing is done in cmd/focusd; this struct is data only.
type Config struct {
	Debug         bool   `json:"debug"`
	DebugTracking bool   `json:"debug_tracking"`
	LogLevel      string `json:"log_level"`

	Port      string `json:"port"`
	PublicURL string `json:"public_url"` // base for OAuth redirects
	DataDir   string `json:"data_dir"`
	ModelDir  string `json:"model_dir"`
	StaticDir string `json:"static_dir,omitempty"`

	Source         string        `json:"source"`
	Camera         camera.Config `json:"camera"`
	TrackingPreset string        `json:"tracking_preset"`
	PhoneDetection bool          `json:"phone_detection"`

	Store string              `json:"store"`
	Redis session.RedisConfig `json:"redis"`

	BrowserFeedURL   string        `json:"browser_feed_url,omitempty"`
	BrowserCacheSize int           `json:"browser_cache_size"`
	FeedRetry        time.Duration `json:"feed_retry"`

	GoogleDocs         bool   `json:"google_docs"`
	GoogleClientID     string `json:"-"`
	GoogleClientSecret string `json:"-"`
}

// DefaultConfig returns defaults for a single-user laptop install
func DefaultConfig() Config {
	return Config{
		LogLevel:         "info",
		Port:             config.Port(),
		PublicURL:        "http://localhost:" + config.Port(),
		DataDir:          config.DataDir(),
		ModelDir:         config.ModelDir(),
		Source:           SourceCamera,
		Camera:           camera.DefaultConfig(),
		TrackingPreset:   "default",
		PhoneDetection:   true,
		Store:            StoreJSON,
		Redis:            session.RedisConfig{Addr: "localhost:6379"},
		BrowserCacheSize: 512,
		FeedRetry:        5 * time.Second,
	}
}

// ConfigPath returns the config file path under dataDir
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}

// LoadFile reads path over the defaults. Keys absent from the file keep
// their default values; a missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("daemon: read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("daemon: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveFile writes cfg to path, creating the directory
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnvConfig applies FOCUS_* environment overrides.
// Call this after loading the file and before applying flags.
func (c *Config) LoadEnvConfig() {
	c.Debug = config.Bool("FOCUS_DEBUG", c.Debug)
	c.LogLevel = config.String("FOCUS_LOG_LEVEL", c.LogLevel)
	c.Port = config.String("FOCUS_PORT", c.Port)
	c.PublicURL = config.String("FOCUS_PUBLIC_URL", c.PublicURL)
	c.DataDir = config.String("FOCUS_DATA_DIR", c.DataDir)
	c.ModelDir = config.String("FOCUS_MODEL_DIR", c.ModelDir)
	c.Source = config.String("FOCUS_SOURCE", c.Source)
	c.TrackingPreset = config.String("FOCUS_TRACKING_PRESET", c.TrackingPreset)
	c.PhoneDetection = config.Bool("FOCUS_PHONE_DETECTION", c.PhoneDetection)
	c.Store = config.String("FOCUS_STORE", c.Store)
	c.Redis.Addr = config.String("FOCUS_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = config.String("FOCUS_REDIS_PASSWORD", c.Redis.Password)
	c.BrowserFeedURL = config.String("FOCUS_BROWSER_FEED", c.BrowserFeedURL)
	c.FeedRetry = config.Duration("FOCUS_FEED_RETRY", c.FeedRetry)
	c.GoogleDocs = config.Bool("FOCUS_GOOGLE_DOCS", c.GoogleDocs)
	c.GoogleClientID = config.String("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = config.String("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
}

// TrackingConfig resolves the tracking preset
func (c *Config) TrackingConfig() (tracking.Config, error) {
	cfg, ok := tracking.Presets()[c.TrackingPreset]
	if !ok {
		return tracking.Config{}, &ConfigError{Field: "TrackingPreset", Message: fmt.Sprintf("unknown tracking preset %q", c.TrackingPreset)}
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCamera, SourceIngest, SourceNone:
	default:
		return &ConfigError{Field: "Source", Message: fmt.Sprintf("source must be camera, ingest or none, got %q", c.Source)}
	}
	switch c.Store {
	case StoreJSON, StoreRedis:
	default:
		return &ConfigError{Field: "Store", Message: fmt.Sprintf("store must be json or redis, got %q", c.Store)}
	}
	if c.Store == StoreRedis && c.Redis.Addr == "" {
		return &ConfigError{Field: "Redis.Addr", Message: "FOCUS_REDIS_ADDR is required for the redis store"}
	}
	if c.Port == "" {
		return &ConfigError{Field: "Port", Message: "port is required"}
	}
	if _, err := c.TrackingConfig(); err != nil {
		return err
	}
	if c.Source == SourceCamera {
		if errs := c.Camera.Validate(); len(errs) > 0 {
			return &ConfigError{Field: "Camera", Message: fmt.Sprintf("invalid camera config: %v", errs)}
		}
	}
	if c.GoogleDocs && (c.GoogleClientID == "" || c.GoogleClientSecret == "") {
		return &ConfigError{Field: "GoogleClientID", Message: "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for Google Docs reports"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
