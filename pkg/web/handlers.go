package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-focus/pkg/browser"
	"github.com/teslashibe/go-focus/pkg/monitor"
	"github.com/teslashibe/go-focus/pkg/session"
	"github.com/teslashibe/go-focus/pkg/tracking"
)

// StartRequest is the body of POST /api/session
type StartRequest struct {
	Subject        string `json:"subject"`
	Topic          string `json:"topic"`
	PlannedMinutes int    `json:"planned_minutes"`
}

// BrowserRequest is the body of POST /api/browser
type BrowserRequest struct {
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
	Title  string `json:"title"`
}

// SessionResponse pairs a session with its metrics
type SessionResponse struct {
	Session  *session.Data   `json:"session"`
	Metrics  session.Metrics `json:"metrics"`
	Paused   bool            `json:"paused,omitempty"`
	Warnings string          `json:"warnings,omitempty"`
}

// SessionSummary is one row of GET /api/sessions
type SessionSummary struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	Topic          string `json:"topic,omitempty"`
	PlannedMinutes int    `json:"planned_minutes"`
	StartTime      int64  `json:"start_time"`
	EndTime        *int64 `json:"end_time,omitempty"`
	Slices         int    `json:"slices"`
}

// TrackingResponse is the body of GET /api/tracking
type TrackingResponse struct {
	Tracking *tracking.TrackingState `json:"tracking"`
	Browser  browser.State           `json:"browser"`
	Active   bool                    `json:"active"`
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, monitor.ErrNoSession), errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, monitor.ErrSessionActive):
		return fiber.StatusConflict
	case errors.Is(err, session.ErrInvalid):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"active":  s.mon.Active(),
		"clients": s.statusHub.ClientCount(),
	})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	data, m, err := s.mon.Snapshot()
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(SessionResponse{Session: data, Metrics: m, Paused: s.mon.Paused()})
}

func (s *Server) handleStartSession(c *fiber.Ctx) error {
	var req StartRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if req.Subject == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "subject is required"})
	}
	if req.PlannedMinutes < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "planned_minutes must not be negative"})
	}

	data, err := s.mon.Start(c.UserContext(), req.Subject, req.Topic, req.PlannedMinutes)
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(data)
}

func (s *Server) handlePause(c *fiber.Ctx) error {
	if err := s.mon.Pause(); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{"status": "paused"})
}

func (s *Server) handleResume(c *fiber.Ctx) error {
	if err := s.mon.Resume(); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{"status": "running"})
}

// handleStop returns the finished session even when saving or reporting
// failed; those failures are surfaced as warnings.
func (s *Server) handleStop(c *fiber.Ctx) error {
	data, m, err := s.mon.Stop(c.UserContext())
	if data == nil {
		return errorJSON(c, statusFor(err), err)
	}

	resp := SessionResponse{Session: data, Metrics: m}
	if err != nil {
		resp.Warnings = err.Error()
		s.AddLog("error", err.Error())
	}
	return c.JSON(resp)
}

func noStore(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no session store configured"})
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	st := s.mon.Store()
	if st == nil {
		return noStore(c)
	}

	list, err := st.List(c.UserContext())
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}

	out := make([]SessionSummary, 0, len(list))
	for _, d := range list {
		out = append(out, SessionSummary{
			ID:             d.ID,
			Subject:        d.Subject,
			Topic:          d.Topic,
			PlannedMinutes: d.PlannedMinutes,
			StartTime:      d.StartTime,
			EndTime:        d.EndTime,
			Slices:         len(d.Slices),
		})
	}
	return c.JSON(fiber.Map{"sessions": out, "count": len(out)})
}

func (s *Server) handleGetStored(c *fiber.Ctx) error {
	st := s.mon.Store()
	if st == nil {
		return noStore(c)
	}

	d, err := st.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(d)
}

func (s *Server) handleSessionMetrics(c *fiber.Ctx) error {
	st := s.mon.Store()
	if st == nil {
		return noStore(c)
	}

	d, err := st.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(session.Aggregate(d.Slices))
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	st := s.mon.Store()
	if st == nil {
		return noStore(c)
	}

	if err := st.Delete(c.UserContext(), c.Params("id")); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleTracking(c *fiber.Ctx) error {
	return c.JSON(TrackingResponse{
		Tracking: s.mon.Tracking(),
		Browser:  s.mon.Browser(),
		Active:   s.mon.Active(),
	})
}

func (s *Server) handleGetBrowser(c *fiber.Ctx) error {
	return c.JSON(s.mon.Browser())
}

func (s *Server) handleUpdateBrowser(c *fiber.Ctx) error {
	var req BrowserRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(s.mon.ReportBrowser(req.URL, req.Domain, req.Title))
}

func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}
