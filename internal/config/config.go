// Package config provides configuration helpers for go-focus commands.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Default service configuration.
const (
	DefaultPort     = "8080"
	DefaultDataDir  = ".gofocus"
	DefaultModelDir = "models"
)

// Port returns the HTTP port from FOCUS_PORT or the default.
func Port() string {
	return String("FOCUS_PORT", DefaultPort)
}

// DataDir returns the directory used for config, tokens and session files.
// FOCUS_DATA_DIR overrides ~/.gofocus.
func DataDir() string {
	if dir := os.Getenv("FOCUS_DATA_DIR"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, DefaultDataDir)
}

// ModelDir returns the directory holding ONNX models from FOCUS_MODEL_DIR.
func ModelDir() string {
	return String("FOCUS_MODEL_DIR", DefaultModelDir)
}

// String returns the env var value or def when unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Bool returns the env var parsed as a bool, or def when unset or invalid.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Duration returns the env var parsed as a duration, or def when unset or invalid.
func Duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
