package artifact

import (
	"context"
	"encoding/base64"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreSavesScreenshot(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewLocalStore(tmpDir, "/artifacts")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	ref, err := store.SaveScreenshot(context.Background(), "task-1", payload)
	if err != nil {
		t.Fatalf("save screenshot: %v", err)
	}
	if !strings.HasPrefix(ref, "/artifacts/screenshots/task-1-") {
		t.Fatalf("unexpected ref %s", ref)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "screenshots", filepath.Base(ref)))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(content) != "png-bytes" {
		t.Fatalf("unexpected content %q", string(content))
	}
}

func TestLocalStoreHandlerServesArtifact(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/artifacts")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	payload := base64.StdEncoding.EncodeToString([]byte("shot"))
	ref, err := store.SaveScreenshot(context.Background(), "task-2", payload)
	if err != nil {
		t.Fatalf("save screenshot: %v", err)
	}

	req := httptest.NewRequest("GET", ref, nil)
	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status %d serving %s", rec.Code, ref)
	}
	if rec.Body.String() != "shot" {
		t.Fatalf("body %q", rec.Body.String())
	}
}

func TestLocalStoreRejectsBadPayload(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/artifacts")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.SaveScreenshot(context.Background(), "task-3", "%%%not-base64%%%"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := store.SaveScreenshot(context.Background(), "", "aGVsbG8="); err == nil {
		t.Fatal("expected task id error")
	}
}

func TestDataURLPayloadAccepted(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/artifacts")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("x"))
	if _, err := store.SaveScreenshot(context.Background(), "task-4", payload); err != nil {
		t.Fatalf("save data url payload: %v", err)
	}
}

func TestDisabledStoreIsInert(t *testing.T) {
	ref, err := Disabled{}.SaveScreenshot(context.Background(), "task-5", "ignored")
	if err != nil || ref != "" {
		t.Fatalf("disabled store: ref=%q err=%v", ref, err)
	}
}
