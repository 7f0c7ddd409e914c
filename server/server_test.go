package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/pipeline"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Paths: config.PathsConfig{Output: t.TempDir()},
		Trend: config.TrendConfig{Source: "none", MaxKeywords: 50, TopK: 15, MaxHashtags: 20, TimeoutSec: 1},
		Understand: config.UnderstandConfig{
			MaxFrames: 2, Workers: 2, CaptionTimeoutSec: 1, TranscribeTimeoutSec: 1,
		},
		Generate: config.GenerateConfig{Model: "test", TimeoutSec: 1},
		Quality: config.QualityConfig{
			TitleMaxChars: 60, CaptionMaxChars: 2200,
			HashtagMin: 5, HashtagMax: 12,
			TargetWidth: 1080, TargetHeight: 1350, MaxImages: 10,
		},
		Server: config.ServerConfig{Addr: ":0"},
	}
	ctrl := pipeline.New(cfg, zerolog.Nop())
	return New(cfg, ctrl, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	handler := testServer(t).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body["ok"] {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestStatusIdle(t *testing.T) {
	handler := testServer(t).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.State != "idle" {
		t.Fatalf("state = %q", body.State)
	}
}

func TestIndexListsRoutes(t *testing.T) {
	handler := testServer(t).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "POST /run") {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestRunUnknownModeRejected(t *testing.T) {
	handler := testServer(t).Handler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"mode":"ftp"}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestRunBadBodyRejected(t *testing.T) {
	handler := testServer(t).Handler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader("{not json"))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRunMethodNotAllowed(t *testing.T) {
	handler := testServer(t).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}
