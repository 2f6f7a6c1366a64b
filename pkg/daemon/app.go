package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/internal/metrics"
	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/debug"
	"github.com/teslashibe/go-focus/pkg/ingest"
	"github.com/teslashibe/go-focus/pkg/monitor"
	"github.com/teslashibe/go-focus/pkg/protocol"
	"github.com/teslashibe/go-focus/pkg/report"
	"github.com/teslashibe/go-focus/pkg/session"
	"github.com/teslashibe/go-focus/pkg/tracking"
	"github.com/teslashibe/go-focus/pkg/tracking/detection"
	"github.com/teslashibe/go-focus/pkg/web"
)

// Model file names expected in ModelDir
const (
	FaceModelFile   = "face_detection_yunet.onnx"
	ObjectModelFile = "yolov8n.onnx"
)

// minFeedRetry is the shortest pause between browser feed reconnects
const minFeedRetry = 100 * time.Millisecond

// App is the focus daemon. It owns every component and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	registry *prometheus.Registry
	browser  *browser.Context
	store    session.Store
	closers  []io.Closer
	google   *report.GoogleDocsReporter
	ingest   *ingest.Hub
	monitor  *monitor.Monitor
	server   *web.Server
}

// New validates cfg and creates the application
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Tracking = cfg.DebugTracking

	return &App{
		config: cfg,
		logger: log.Component("daemon"),
	}, nil
}

// Init builds all components. Call after New and before Run.
func (a *App) Init(ctx context.Context) error {
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(a.registry)

	br, err := browser.NewContext(a.config.BrowserCacheSize)
	if err != nil {
		return fmt.Errorf("browser context: %w", err)
	}
	a.browser = br

	if err := a.initStore(ctx); err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	reporters := []report.Reporter{report.NewLogReporter()}
	if a.config.GoogleDocs {
		g, err := report.NewGoogleDocsReporter(report.GoogleDocsConfig{
			ClientID:     a.config.GoogleClientID,
			ClientSecret: a.config.GoogleClientSecret,
			RedirectURL:  strings.TrimSuffix(a.config.PublicURL, "/") + "/api/google/callback",
			TokenPath:    filepath.Join(a.config.DataDir, "google_token.json"),
		})
		if err != nil {
			return fmt.Errorf("google docs: %w", err)
		}
		a.google = g
		reporters = append(reporters, g)
	}

	opts := monitor.Options{
		Browser:   a.browser,
		Store:     a.store,
		Reporters: reporters,
	}
	if a.config.Source != SourceNone {
		opts.Pipeline = a.newPipeline
	}
	a.monitor = monitor.New(opts)

	if a.config.Source == SourceIngest {
		a.ingest = ingest.NewHub()
		a.ingest.OnFrame(a.handleFrame)
		a.ingest.OnBrowser(func(_ string, b *protocol.BrowserData) {
			a.monitor.ReportBrowser(b.URL, b.Domain, b.Title)
		})
	}

	a.server = web.NewServer(web.Options{
		Port:      a.config.Port,
		Monitor:   a.monitor,
		Ingest:    a.ingest,
		Google:    a.google,
		Registry:  a.registry,
		StaticDir: a.config.StaticDir,
	})

	a.logger.Info("initialized", "source", a.config.Source, "store", a.config.Store,
		"tracking_preset", a.config.TrackingPreset, "google_docs", a.google != nil)
	return nil
}

func (a *App) initStore(ctx context.Context) error {
	switch a.config.Store {
	case StoreRedis:
		st, err := session.OpenRedis(ctx, a.config.Redis)
		if err != nil {
			return err
		}
		a.store = st
		a.closers = append(a.closers, st)
	default:
		st, err := session.NewDefaultStore(a.config.DataDir)
		if err != nil {
			return err
		}
		a.store = st
	}
	return nil
}

// newPipeline loads the models and, for the camera source, opens the
// webcam. It runs once per session so the camera light is only on while
// a session is active.
func (a *App) newPipeline(ctx context.Context) (*monitor.Pipeline, error) {
	trackCfg, err := a.config.TrackingConfig()
	if err != nil {
		return nil, err
	}

	faceCfg := detection.DefaultConfig()
	faceCfg.ModelPath = filepath.Join(a.config.ModelDir, FaceModelFile)
	faceCfg.InputWidth, faceCfg.InputHeight = a.config.Camera.Width, a.config.Camera.Height
	landmarks, err := detection.NewYuNet(faceCfg)
	if err != nil {
		return nil, fmt.Errorf("face model: %w", err)
	}

	// Phone detection is optional; without it the phone signal stays false
	var objects detection.ObjectDetector
	if a.config.PhoneDetection {
		yoloCfg := detection.DefaultYOLOConfig()
		yoloCfg.ModelPath = filepath.Join(a.config.ModelDir, ObjectModelFile)
		yolo, err := detection.NewYOLO(yoloCfg)
		if err != nil {
			a.logger.Warn("phone detection disabled", "error", err)
		} else {
			objects = yolo
		}
	}

	p := &monitor.Pipeline{Tracker: tracking.New(trackCfg, landmarks, objects)}

	if a.config.Source == SourceCamera {
		cam := camera.NewManager(a.config.Camera)
		if err := cam.Open(); err != nil {
			p.Tracker.Close()
			return nil, err
		}
		p.Source = cam
		p.Closer = cam
	}
	return p, nil
}

func (a *App) handleFrame(_ string, jpeg []byte) *protocol.TrackingData {
	s := a.monitor.ProcessFrame(jpeg)
	if s == nil {
		return nil
	}
	d := web.TrackingData(*s)
	return &d
}

// Run serves until ctx is cancelled. An active session is stopped and
// persisted on the way out.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return errors.New("daemon: Run called before Init")
	}

	if a.config.BrowserFeedURL != "" {
		go a.runFeed(ctx)
	}

	err := a.server.Start(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// runFeed keeps the browser feed connected until ctx is done
func (a *App) runFeed(ctx context.Context) {
	feed := browser.NewFeed(a.config.BrowserFeedURL, a.browser)
	retry := max(a.config.FeedRetry, minFeedRetry)
	for {
		if err := feed.Run(ctx); err != nil {
			a.logger.Warn("browser feed disconnected", "url", a.config.BrowserFeedURL, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

// Shutdown stops any running session and releases the store
func (a *App) Shutdown() {
	if a.monitor != nil && a.monitor.Active() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, result, err := a.monitor.Stop(ctx)
		cancel()
		if err != nil {
			a.logger.Error("final session stop", "error", err)
		} else {
			a.logger.Info("final session saved", "focus_score", result.FocusScore)
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// Monitor returns the session monitor
func (a *App) Monitor() *monitor.Monitor { return a.monitor }

// Server returns the web server
func (a *App) Server() *web.Server { return a.server }

// Store returns the session store
func (a *App) Store() session.Store { return a.store }

// Ingest returns the ingest hub, nil unless the source is ingest
func (a *App) Ingest() *ingest.Hub { return a.ingest }
