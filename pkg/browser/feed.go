package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

// Feed subscribes to a websocket endpoint publishing browser messages
// (a companion extension or a tab-tracking daemon) and applies them to a Context.
type Feed struct {
	url    string
	header http.Header
	target *Context
	logger *slog.Logger

	// ReadTimeout bounds the wait for the next message; zero disables it
	ReadTimeout time.Duration
}

// NewFeed creates a feed that applies updates from url to target
func NewFeed(url string, target *Context) *Feed {
	return &Feed{
		url:    url,
		header: http.Header{},
		target: target,
		logger: log.Component("browser-feed"),
	}
}

// SetHeader adds a header sent with the dial request
func (f *Feed) SetHeader(key, value string) {
	f.header.Set(key, value)
}

// Run dials the endpoint and applies messages until ctx is done or the
// connection fails. Reconnection is left to the caller.
func (f *Feed) Run(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.url, f.header)
	if err != nil {
		return fmt.Errorf("browser: dial feed %s: %w", f.url, err)
	}
	defer conn.Close()

	f.logger.Info("browser feed connected", "url", f.url)

	// Unblock ReadMessage on cancellation
	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		if f.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(f.ReadTimeout))
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.logger.Info("browser feed closed by peer")
				return nil
			}
			return fmt.Errorf("browser: read feed: %w", err)
		}

		f.handle(data)
	}
}

func (f *Feed) handle(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		f.logger.Debug("ignoring malformed feed message", "error", err)
		return
	}
	if msg.Type != protocol.TypeBrowser {
		return
	}

	bd, err := msg.GetBrowserData()
	if err != nil {
		f.logger.Debug("ignoring malformed browser data", "error", err)
		return
	}
	s := f.target.Report(bd.URL, bd.Domain, bd.Title)
	f.logger.Debug("browser context updated", "domain", s.Domain, "category", s.Category)
}
