package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-focus/pkg/focus"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *JSONStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "sessions.json")
	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func finishedSession(subject string, start int64, n int) *Data {
	d := New(subject, "topic", 25, time.UnixMilli(start))
	d.Slices = slicesOf(n, focus.Focused, focus.None, "github.com")
	d.End(time.UnixMilli(start + int64(n)*1000))
	return d
}

// storeContract runs the behavior every Store implementation shares.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	older := finishedSession("History", t0, 3)
	newer := finishedSession("Physics", t0+60_000, 5)

	for _, d := range []*Data{older, newer} {
		if err := store.Save(ctx, d); err != nil {
			t.Fatalf("Save(%s) error = %v", d.Subject, err)
		}
	}

	got, err := store.Get(ctx, newer.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Subject != "Physics" || len(got.Slices) != 5 || got.EndTime == nil {
		t.Errorf("Get() = %+v", got)
	}
	if got.Slices[0].Status != focus.Focused || got.Slices[0].Metadata.Domain != "github.com" {
		t.Errorf("slice = %+v", got.Slices[0])
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Errorf("List() order wrong: %v", ids(list))
	}

	// Save replaces
	older.Topic = "revised"
	if err := store.Save(ctx, older); err != nil {
		t.Fatalf("Save() replace error = %v", err)
	}
	got, _ = store.Get(ctx, older.ID)
	if got.Topic != "revised" {
		t.Errorf("Topic = %q, want revised", got.Topic)
	}

	if err := store.Delete(ctx, older.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, older.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, older.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	if err := store.Save(ctx, &Data{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Save() without ID error = %v, want ErrInvalid", err)
	}
}

func ids(list []*Data) []string {
	out := make([]string, len(list))
	for i, d := range list {
		out[i] = d.ID
	}
	return out
}

func TestJSONStore_Contract(t *testing.T) {
	storeContract(t, testStore(t))
}

func TestJSONStore_Persistence(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	d := finishedSession("Biology", t0, 4)
	if err := store.Save(ctx, d); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened, err := NewJSONStore(store.Path())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if reopened.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reopened.Count())
	}
	got, err := reopened.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *got.EndTime != *d.EndTime || len(got.Slices) != 4 {
		t.Errorf("reloaded session = %+v", got)
	}

	if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestJSONStore_SaveCopies(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	d := finishedSession("Art", t0, 2)
	store.Save(ctx, d)
	d.Slices = append(d.Slices, TimeSlice{})

	got, _ := store.Get(ctx, d.ID)
	if len(got.Slices) != 2 {
		t.Errorf("stored session shares memory with caller: %d slices", len(got.Slices))
	}
}

func TestJSONStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(path); err == nil {
		t.Error("expected error loading corrupt store")
	}
}
