// focusd - study focus monitor: webcam attention tracking plus browser
// context, classified once per second into a persisted session timeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/daemon"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "focusd: %v\n", err)
		os.Exit(2)
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	app, err := daemon.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
}

// loadConfig resolves configuration with precedence
// flags > FOCUS_* environment > config file > defaults.
func loadConfig() (daemon.Config, error) {
	defaults := daemon.DefaultConfig()

	configPath := flag.String("config", "", "Config file (default <data-dir>/config.json)")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every processed frame (very verbose)")
	logLevel := flag.String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	port := flag.String("port", defaults.Port, "HTTP port")
	dataDir := flag.String("data-dir", defaults.DataDir, "Directory for sessions, tokens and config")
	modelDir := flag.String("models", defaults.ModelDir, "Directory containing the ONNX models")
	source := flag.String("source", defaults.Source, "Frame source: camera, ingest, none")
	device := flag.Int("camera", defaults.Camera.DeviceID, "Camera device index")
	preset := flag.String("tracking-preset", defaults.TrackingPreset, "Tracking thresholds: default, strict, lenient")
	phone := flag.Bool("phone", defaults.PhoneDetection, "Enable phone detection")
	store := flag.String("store", defaults.Store, "Session store: json, redis")
	redisAddr := flag.String("redis-addr", defaults.Redis.Addr, "Redis address for the redis store")
	feed := flag.String("browser-feed", "", "Websocket URL publishing browser tab updates")
	googleDocs := flag.Bool("google-docs", false, "Write a Google Doc report for each session")
	static := flag.String("static", "", "Directory of dashboard static files")
	flag.Parse()

	path := *configPath
	if path == "" {
		dir := config.String("FOCUS_DATA_DIR", *dataDir)
		path = daemon.ConfigPath(dir)
	}

	cfg, err := daemon.LoadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.LoadEnvConfig()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = *debugFlag
		case "debug-tracking":
			cfg.DebugTracking = *debugTracking
		case "log-level":
			cfg.LogLevel = *logLevel
		case "port":
			cfg.Port = *port
		case "data-dir":
			cfg.DataDir = *dataDir
		case "models":
			cfg.ModelDir = *modelDir
		case "source":
			cfg.Source = *source
		case "camera":
			cfg.Camera.DeviceID = *device
		case "tracking-preset":
			cfg.TrackingPreset = *preset
		case "phone":
			cfg.PhoneDetection = *phone
		case "store":
			cfg.Store = *store
		case "redis-addr":
			cfg.Redis.Addr = *redisAddr
		case "browser-feed":
			cfg.BrowserFeedURL = *feed
		case "google-docs":
			cfg.GoogleDocs = *googleDocs
		case "static":
			cfg.StaticDir = *static
		}
	})
	return cfg, nil
}
