// Package web serves the focus dashboard: REST session control, live
// status over websocket and Prometheus metrics.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/internal/metrics"
	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/ingest"
	"github.com/teslashibe/go-focus/pkg/monitor"
	"github.com/teslashibe/go-focus/pkg/report"
)

const maxLogEntries = 500

// LogEntry is one line of the dashboard activity log
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // session, slice, error
	Message string `json:"message"`
}

// Options wires the server to the rest of the daemon. Only Monitor is required.
type Options struct {
	Port      string
	Monitor   *monitor.Monitor
	Ingest    *ingest.Hub                // mounts /ws/client when set
	Google    *report.GoogleDocsReporter // mounts /api/google/* when set
	Registry  *prometheus.Registry       // mounts /metrics when set
	StaticDir string
}

// Server is the dashboard server
type Server struct {
	app    *fiber.App
	port   string
	mon    *monitor.Monitor
	logger *slog.Logger

	statusHub *hub.Hub

	logs   []LogEntry
	logsMu sync.RWMutex
}

// NewServer builds the Fiber app and subscribes to monitor events
func NewServer(opts Options) *Server {
	s := &Server{
		port:      opts.Port,
		mon:       opts.Monitor,
		logger:    log.Component("web"),
		statusHub: hub.New("status"),
		logs:      make([]LogEntry, 0, maxLogEntries),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-focus",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/session", s.handleGetSession)
	api.Post("/session", s.handleStartSession)
	api.Post("/session/pause", s.handlePause)
	api.Post("/session/resume", s.handleResume)
	api.Post("/session/stop", s.handleStop)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetStored)
	api.Get("/sessions/:id/metrics", s.handleSessionMetrics)
	api.Delete("/sessions/:id", s.handleDeleteSession)
	api.Get("/tracking", s.handleTracking)
	api.Get("/browser", s.handleGetBrowser)
	api.Post("/browser", s.handleUpdateBrowser)
	api.Get("/logs", s.handleGetLogs)

	if g := opts.Google; g != nil {
		api.Get("/google/status", adaptor.HTTPHandlerFunc(g.HandleStatus()))
		api.Get("/google/auth", adaptor.HTTPHandlerFunc(g.HandleAuthStart()))
		api.Get("/google/callback", adaptor.HTTPHandlerFunc(g.HandleAuthCallback()))
	}

	if opts.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(opts.Registry)))
	}

	if opts.Ingest != nil {
		opts.Ingest.RegisterRoutes(app)
		opts.Ingest.RegisterAPIRoutes(api)
	}

	app.Use("/ws/status", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", s.statusHub.Handler())

	s.statusHub.OnConnect(s.greeting)
	if s.mon != nil {
		s.mon.Subscribe(s.handleEvent)
	}

	s.app = app
	return s
}

// App exposes the Fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the status hub and serves until the listener fails or
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)

	go func() {
		<-ctx.Done()
		s.app.ShutdownWithTimeout(5 * time.Second)
	}()

	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// StatusHub returns the dashboard broadcast hub
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// AddLog appends to the activity log
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()
}

// Logs returns a copy of the activity log
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return append([]LogEntry(nil), s.logs...)
}
