package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"github.com/teemow/calslack/internal/config"
	"github.com/teemow/calslack/internal/google"
)

func serveHealth(t *testing.T, h *HealthChecker, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := mux.NewRouter()
	h.RegisterHealthEndpoints(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON from %s: %v (%q)", path, err, rec.Body.String())
	}
	return rec, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec, body := serveHealth(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body["status"] != healthStatusOK {
		t.Errorf("status field = %v, want %q", body["status"], healthStatusOK)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc, err := NewServerContext(context.Background(), config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHealthChecker(sc)

	rec, _ := serveHealth(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("ready server: status = %d, want 200", rec.Code)
	}

	h.SetReady(false)
	rec, body := serveHealth(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not ready: status = %d, want 503", rec.Code)
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["ready"] != healthStatusNotReady {
		t.Errorf("checks.ready = %v, want %q", checks["ready"], healthStatusNotReady)
	}

	h.SetReady(true)
	_ = sc.Shutdown()
	rec, body = serveHealth(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("shutting down: status = %d, want 503", rec.Code)
	}
	checks, _ = body["checks"].(map[string]any)
	if checks["shutdown"] != healthStatusShuttingDown {
		t.Errorf("checks.shutdown = %v, want %q", checks["shutdown"], healthStatusShuttingDown)
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Transport = config.TransportStreamableHTTP
	cfg.Server.ReadOnly = true
	sc, err := NewServerContext(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Shutdown()

	h := NewHealthChecker(sc)
	h.SetVersion("1.2.3")

	rec, body := serveHealth(t, h, "/healthz/detailed")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["version"] != "1.2.3" {
		t.Errorf("version = %v", body["version"])
	}
	if body["transport"] != config.TransportStreamableHTTP {
		t.Errorf("transport = %v", body["transport"])
	}
	if body["read_only"] != true {
		t.Errorf("read_only = %v", body["read_only"])
	}
	if _, ok := body["uptime"].(string); !ok {
		t.Errorf("uptime missing: %v", body)
	}
}

func TestHealthChecker_DetailedCredentials(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "google-work.token"), []byte(`{"access_token":"ya29.x"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Google.DefaultAccount = "work"
	cfg.Slack.Token = "xoxb-test"
	provider := google.NewFileTokenProvider(google.NewAuth("id", "secret", dir))
	sc, err := NewServerContext(context.Background(), cfg, provider)
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Shutdown()

	_, body := serveHealth(t, NewHealthChecker(sc), "/healthz/detailed")
	creds, _ := body["credentials"].(map[string]any)
	if creds["google_account"] != "work" || creds["google_token"] != healthStatusOK || creds["slack_token"] != healthStatusOK {
		t.Errorf("credentials = %v", creds)
	}

	cfg.Google.DefaultAccount = "personal"
	cfg.Slack.Token = ""
	sc2, err := NewServerContext(context.Background(), cfg, provider)
	if err != nil {
		t.Fatal(err)
	}
	defer sc2.Shutdown()

	rec, body := serveHealth(t, NewHealthChecker(sc2), "/healthz/detailed")
	if rec.Code != http.StatusOK {
		t.Errorf("missing credentials must not fail the probe, got %d", rec.Code)
	}
	creds, _ = body["credentials"].(map[string]any)
	if creds["google_token"] != healthStatusMissing || creds["slack_token"] != healthStatusMissing {
		t.Errorf("credentials = %v", creds)
	}
}

func TestHealthChecker_DetailedNotReady(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec, body := serveHealth(t, h, "/healthz/detailed")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if body["status"] != healthStatusNotReady {
		t.Errorf("status field = %v", body["status"])
	}
	if _, ok := body["credentials"]; ok {
		t.Error("credentials reported without a server context")
	}
}
