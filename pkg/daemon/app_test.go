package daemon

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-focus/pkg/focus"
)

func testConfig(t *testing.T, source string) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.ModelDir = t.TempDir() // no models
	cfg.Source = source
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = "bogus"
	if _, err := New(cfg); err == nil {
		t.Error("expected validation error")
	}
}

func TestRunBeforeInit(t *testing.T) {
	a, err := New(testConfig(t, SourceNone))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background()); err == nil {
		t.Error("expected error from Run before Init")
	}
}

func TestInitBrowserOnly(t *testing.T) {
	a, err := New(testConfig(t, SourceNone))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer a.Shutdown()

	if a.Ingest() != nil {
		t.Error("ingest hub should only exist for the ingest source")
	}

	resp, err := a.Server().App().Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("/metrics = %d", resp.StatusCode)
	}

	mon := a.Monitor()
	mon.UpdateBrowser("https://www.instagram.com/", "Instagram")
	if _, err := mon.Start(context.Background(), "History", "", 20); err != nil {
		t.Fatal(err)
	}

	// Shutdown persists the running session
	a.Shutdown()
	list, err := a.Store().List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Subject != "History" || list[0].EndTime == nil {
		t.Errorf("stored = %+v", list)
	}
}

func TestIngestWithoutModels(t *testing.T) {
	a, err := New(testConfig(t, SourceIngest))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer a.Shutdown()

	if a.Ingest() == nil {
		t.Fatal("expected ingest hub")
	}

	// Missing model files disable tracking but the session still runs
	if _, err := a.newPipeline(context.Background()); err == nil {
		t.Error("expected pipeline error without model files")
	}
	if _, err := a.Monitor().Start(context.Background(), "Math", "", 0); err != nil {
		t.Fatal(err)
	}
	if got := a.handleFrame("c1", []byte{0xff, 0xd8}); got != nil {
		t.Errorf("handleFrame() = %+v, want nil without tracker", got)
	}

	data, _, err := a.Monitor().Stop(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range data.Slices {
		if s.DistractionType != focus.Absent {
			t.Errorf("slice = %+v, want ABSENT", s)
		}
	}
	if _, _, err := a.Monitor().Stop(context.Background()); err == nil {
		t.Error("expected error from second Stop")
	}
}
