package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusMissing      = "missing"
)

// readinessCheck returns "" when healthy, otherwise the status to report.
type readinessCheck struct {
	name  string
	check func() string
}

// HealthChecker serves the /healthz, /readyz and /healthz/detailed probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
	version       string
	checks        []readinessCheck
}

// NewHealthChecker creates a HealthChecker that starts out ready. sc may be
// nil in tests.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	h.checks = []readinessCheck{
		{name: "ready", check: func() string {
			if !h.ready.Load() {
				return healthStatusNotReady
			}
			return ""
		}},
		{name: "shutdown", check: func() string {
			if h.serverContext != nil && h.serverContext.IsShutdown() {
				return healthStatusShuttingDown
			}
			return ""
		}},
	}
	return h
}

// SetReady flips readiness; serve clears it before draining connections.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetVersion sets the version reported by /healthz/detailed.
func (h *HealthChecker) SetVersion(version string) {
	h.version = version
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// CredentialStatus tells an operator which upstream credentials the server
// can use without a per-request token.
type CredentialStatus struct {
	GoogleAccount string `json:"google_account"`
	GoogleToken   string `json:"google_token"`
	SlackToken    string `json:"slack_token"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status      string            `json:"status"`
	Uptime      string            `json:"uptime"`
	Version     string            `json:"version,omitempty"`
	Transport   string            `json:"transport,omitempty"`
	ReadOnly    bool              `json:"read_only"`
	Credentials *CredentialStatus `json:"credentials,omitempty"`
}

// RegisterHealthEndpoints registers the probe endpoints on r.
func (h *HealthChecker) RegisterHealthEndpoints(r *mux.Router) {
	r.Handle("/healthz", h.LivenessHandler()).Methods(http.MethodGet)
	r.Handle("/readyz", h.ReadinessHandler()).Methods(http.MethodGet)
	r.Handle("/healthz/detailed", h.DetailedHealthHandler()).Methods(http.MethodGet)
}

// LivenessHandler always answers 200 while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealthJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers 503 while any readiness check fails.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.evaluate()
		code := http.StatusOK
		if status != healthStatusOK {
			code = http.StatusServiceUnavailable
		}
		writeHealthJSON(w, code, HealthResponse{Status: status, Checks: checks})
	})
}

// DetailedHealthHandler reports uptime, version, mode and credential status.
// Missing credentials do not fail the probe: HTTP clients bring their own.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
			Version: h.version,
		}

		failed := ""
		for _, c := range h.checks {
			if s := c.check(); s != "" && failed == "" {
				failed = s
			}
		}
		code := http.StatusOK
		response.Status = healthStatusOK
		if failed != "" {
			response.Status = failed
			code = http.StatusServiceUnavailable
		}

		if sc := h.serverContext; sc != nil {
			cfg := sc.Config()
			response.Transport = cfg.Server.Transport
			response.ReadOnly = cfg.Server.ReadOnly
			response.Credentials = h.credentials()
		}

		writeHealthJSON(w, code, response)
	})
}

// evaluate runs all readiness checks. The overall status is "ok" or "not ready".
func (h *HealthChecker) evaluate() (string, map[string]string) {
	status := healthStatusOK
	checks := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		result := c.check()
		if result == "" {
			result = healthStatusOK
		} else {
			status = healthStatusNotReady
		}
		checks[c.name] = result
	}
	return status, checks
}

func (h *HealthChecker) credentials() *CredentialStatus {
	sc := h.serverContext
	account := sc.DefaultAccount()
	creds := &CredentialStatus{
		GoogleAccount: account,
		GoogleToken:   healthStatusMissing,
		SlackToken:    healthStatusMissing,
	}
	if sc.HasGoogleToken(account) {
		creds.GoogleToken = healthStatusOK
	}
	if sc.Config().Slack.Token != "" {
		creds.SlackToken = healthStatusOK
	}
	return creds
}

func writeHealthJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
