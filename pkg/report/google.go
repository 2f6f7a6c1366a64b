package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/teslashibe/go-focus/internal/httpc"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/session"
)

// GoogleDocsReporter creates one Google Doc per finished session.
type GoogleDocsReporter struct {
	config      *oauth2.Config
	token       *oauth2.Token
	tokenPath   string
	docsService *docs.Service
	logger      *slog.Logger

	mu sync.RWMutex

	// docIDs maps session IDs to created documents
	docIDs map[string]string
}

// GoogleDocsConfig configures the Google Docs reporter.
type GoogleDocsConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8080/api/google/callback"
	TokenPath    string // Path to store token (default: ~/.gofocus/google_token.json)
}

// NewGoogleDocsReporter creates a reporter, loading a saved token if present.
func NewGoogleDocsReporter(cfg GoogleDocsConfig) (*GoogleDocsReporter, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("report: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}

	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://localhost:8080/api/google/callback"
	}

	if cfg.TokenPath == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.TokenPath = filepath.Join(homeDir, ".gofocus", "google_token.json")
	}

	r := &GoogleDocsReporter{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/documents",
				"https://www.googleapis.com/auth/drive.file",
			},
			Endpoint: google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
		logger:    log.Component("google-docs"),
		docIDs:    make(map[string]string),
	}

	if err := r.loadToken(); err == nil {
		if err := r.initService(); err != nil {
			r.logger.Warn("saved Google token unusable, reconnect required", "error", err)
			r.token = nil
		}
	}

	return r, nil
}

// IsAuthenticated returns true if the reporter has a valid token.
func (g *GoogleDocsReporter) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token != nil && g.token.Valid()
}

// AuthURL returns the OAuth2 consent URL.
func (g *GoogleDocsReporter) AuthURL() string {
	return g.config.AuthCodeURL("gofocus-state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges an authorization code for a token.
func (g *GoogleDocsReporter) HandleCallback(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(oauthContext(ctx), 30*time.Second)
	defer cancel()

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("report: exchange code for token: %w", err)
	}

	g.mu.Lock()
	g.token = token
	g.mu.Unlock()

	if err := g.saveToken(); err != nil {
		g.logger.Warn("failed to save Google token", "error", err)
	}

	return g.initService()
}

// Disconnect clears the authentication and removes the stored token.
func (g *GoogleDocsReporter) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.token = nil
	g.docsService = nil

	if err := os.Remove(g.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("report: remove token file: %w", err)
	}
	return nil
}

// Report implements Reporter. Sessions already exported are skipped.
func (g *GoogleDocsReporter) Report(ctx context.Context, d *session.Data, m session.Metrics) error {
	g.mu.RLock()
	_, done := g.docIDs[d.ID]
	g.mu.RUnlock()
	if done {
		return nil
	}

	docID, err := g.CreateDoc(ctx, Title(d), FormatText(d, m))
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.docIDs[d.ID] = docID
	g.mu.Unlock()

	g.logger.Info("session exported", "session", d.ID, "url", DocURL(docID))
	return nil
}

// DocID returns the document created for a session, if any
func (g *GoogleDocsReporter) DocID(sessionID string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.docIDs[sessionID]
	return id, ok
}

// CreateDoc creates a new Google Doc with the given title and content.
func (g *GoogleDocsReporter) CreateDoc(ctx context.Context, title, content string) (string, error) {
	g.mu.RLock()
	service := g.docsService
	g.mu.RUnlock()

	if service == nil {
		return "", ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	created, err := service.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("report: create document: %w", err)
	}

	if content == "" {
		return created.DocumentId, nil
	}

	_, err = service.Documents.BatchUpdate(created.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     content,
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return created.DocumentId, fmt.Errorf("report: created doc but failed to add content: %w", err)
	}

	return created.DocumentId, nil
}

// DocURL returns the URL to view/edit a Google Doc.
func DocURL(docID string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", docID)
}

// oauthContext makes the oauth2 package use the shared HTTP client
func oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, httpc.Client)
}

// initService builds the Docs service from the current token.
func (g *GoogleDocsReporter) initService() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token == nil {
		return fmt.Errorf("report: no token available")
	}

	ctx := oauthContext(context.Background())
	client := g.config.Client(ctx, g.token)

	service, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("report: create docs service: %w", err)
	}

	g.docsService = service
	return nil
}

// useService installs a prebuilt Docs service
func (g *GoogleDocsReporter) useService(service *docs.Service) {
	g.mu.Lock()
	g.docsService = service
	g.mu.Unlock()
}

func (g *GoogleDocsReporter) loadToken() error {
	data, err := os.ReadFile(g.tokenPath)
	if err != nil {
		return err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}

	g.mu.Lock()
	g.token = &token
	g.mu.Unlock()
	return nil
}

func (g *GoogleDocsReporter) saveToken() error {
	g.mu.RLock()
	token := g.token
	g.mu.RUnlock()

	if token == nil {
		return fmt.Errorf("report: no token to save")
	}

	if err := os.MkdirAll(filepath.Dir(g.tokenPath), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(g.tokenPath, data, 0600)
}

// GoogleDocsStatus is the connection status served to the dashboard.
type GoogleDocsStatus struct {
	Connected bool   `json:"connected"`
	AuthURL   string `json:"auth_url,omitempty"`
}

// Status returns the current Google Docs connection status.
func (g *GoogleDocsReporter) Status() GoogleDocsStatus {
	status := GoogleDocsStatus{Connected: g.IsAuthenticated()}
	if !status.Connected {
		status.AuthURL = g.AuthURL()
	}
	return status
}

// HandleAuthStart returns a handler that redirects to Google OAuth.
func (g *GoogleDocsReporter) HandleAuthStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, g.AuthURL(), http.StatusTemporaryRedirect)
	}
}

// HandleAuthCallback returns a handler that processes the OAuth callback.
func (g *GoogleDocsReporter) HandleAuthCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}

		if err := g.HandleCallback(r.Context(), code); err != nil {
			http.Error(w, fmt.Sprintf("Authentication failed: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>go-focus - Connected</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 20vh;">
    <h1>Google Docs connected</h1>
    <p>Session reports will be exported when a session ends. You can close this window.</p>
    <script>setTimeout(function() { window.close(); }, 3000);</script>
</body>
</html>
`)
	}
}

// HandleStatus returns a handler that serves the connection status as JSON.
func (g *GoogleDocsReporter) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(g.Status())
	}
}
