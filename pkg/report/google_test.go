package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

func testReporter(t *testing.T) *GoogleDocsReporter {
	t.Helper()
	r, err := NewGoogleDocsReporter(GoogleDocsConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:8080/api/google/callback",
		TokenPath:    filepath.Join(t.TempDir(), "google_token.json"),
	})
	if err != nil {
		t.Fatalf("NewGoogleDocsReporter() error = %v", err)
	}
	return r
}

// fakeDocs serves the two Docs API calls used by CreateDoc.
type fakeDocs struct {
	mu       sync.Mutex
	creates  int
	inserted string
}

func (f *fakeDocs) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/documents":
		f.creates++
		var doc docs.Document
		json.NewDecoder(r.Body).Decode(&doc)
		json.NewEncoder(w).Encode(docs.Document{DocumentId: "doc-1", Title: doc.Title})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		body, _ := io.ReadAll(r.Body)
		var req docs.BatchUpdateDocumentRequest
		json.Unmarshal(body, &req)
		if len(req.Requests) > 0 && req.Requests[0].InsertText != nil {
			f.inserted = req.Requests[0].InsertText.Text
		}
		json.NewEncoder(w).Encode(docs.BatchUpdateDocumentResponse{DocumentId: "doc-1"})
	default:
		http.NotFound(w, r)
	}
}

func TestNewGoogleDocsReporter_MissingCredentials(t *testing.T) {
	if _, err := NewGoogleDocsReporter(GoogleDocsConfig{}); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestGoogleDocsReporter_Unauthenticated(t *testing.T) {
	r := testReporter(t)

	if r.IsAuthenticated() {
		t.Error("expected not authenticated without token")
	}

	status := r.Status()
	if status.Connected || !strings.Contains(status.AuthURL, "accounts.google.com") {
		t.Errorf("Status() = %+v", status)
	}

	d, m := sampleSession()
	if err := r.Report(context.Background(), d, m); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Report() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestGoogleDocsReporter_LoadsSavedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "google_token.json")
	token := map[string]any{
		"access_token": "abc",
		"token_type":   "Bearer",
		"expiry":       time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	data, _ := json.Marshal(token)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	r, err := NewGoogleDocsReporter(GoogleDocsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenPath:    path,
	})
	if err != nil {
		t.Fatalf("NewGoogleDocsReporter() error = %v", err)
	}
	if !r.IsAuthenticated() {
		t.Error("expected authenticated with saved token")
	}

	if err := r.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if r.IsAuthenticated() {
		t.Error("expected not authenticated after Disconnect")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("token file not removed")
	}
}

func TestGoogleDocsReporter_Report(t *testing.T) {
	fake := &fakeDocs{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	service, err := docs.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("docs.NewService() error = %v", err)
	}

	r := testReporter(t)
	r.useService(service)

	d, m := sampleSession()
	if err := r.Report(context.Background(), d, m); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	// Second report of the same session is a no-op
	if err := r.Report(context.Background(), d, m); err != nil {
		t.Fatalf("second Report() error = %v", err)
	}

	if fake.creates != 1 {
		t.Errorf("documents created = %d, want 1", fake.creates)
	}
	if !strings.Contains(fake.inserted, "Focus score: 75/100") {
		t.Errorf("inserted text = %q", fake.inserted)
	}
	if id, ok := r.DocID(d.ID); !ok || id != "doc-1" {
		t.Errorf("DocID() = %q, %v", id, ok)
	}
}

func TestDocURL(t *testing.T) {
	if got := DocURL("abc"); got != "https://docs.google.com/document/d/abc/edit" {
		t.Errorf("DocURL() = %q", got)
	}
}

func TestHandleAuthCallback_MissingCode(t *testing.T) {
	r := testReporter(t)

	rec := httptest.NewRecorder()
	r.HandleAuthCallback()(rec, httptest.NewRequest(http.MethodGet, "/api/google/callback", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	r := testReporter(t)

	rec := httptest.NewRecorder()
	r.HandleStatus()(rec, httptest.NewRequest(http.MethodGet, "/api/google/status", nil))

	var status GoogleDocsStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if status.Connected {
		t.Error("expected disconnected status")
	}
}
