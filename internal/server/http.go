package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/google"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/logging"
	"github.com/teemow/calslack/internal/slack"
)

const (
	// MCPEndpointPath is where the streamable HTTP transport is mounted.
	MCPEndpointPath = "/mcp"

	// GoogleTokenHeader carries the caller's Google access token.
	GoogleTokenHeader = "X-Google-Access-Token"

	// RequestIDHeader is echoed on every response.
	RequestIDHeader = "X-Request-Id"
)

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	Addr string

	// DisableStreaming makes /mcp answer with plain JSON instead of SSE.
	DisableStreaming bool

	HealthChecker *HealthChecker
	// Metrics may be nil.
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// HTTPServer serves the MCP streamable HTTP transport with bearer token
// authentication, CORS and health endpoints.
type HTTPServer struct {
	router     *mux.Router
	httpServer *http.Server
	addr       string
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewHTTPServer wires the MCP server into a router.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, config HTTPServerConfig) *HTTPServer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &HTTPServer{
		router:  mux.NewRouter(),
		addr:    config.Addr,
		metrics: config.Metrics,
		logger:  logger,
	}

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpointPath),
		mcpserver.WithHTTPContextFunc(requestCredentials),
	}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv, opts...)

	s.router.Use(s.requestIDMiddleware, s.metricsMiddleware, corsMiddleware)
	s.router.Handle(MCPEndpointPath, requireBearer(streamable))
	if config.HealthChecker != nil {
		config.HealthChecker.RegisterHealthEndpoints(s.router)
	}

	return s
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until shutdown.
func (s *HTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr, "endpoint", MCPEndpointPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestCredentials moves the caller's tokens from the request headers
// into the context handed to tool handlers.
func requestCredentials(ctx context.Context, r *http.Request) context.Context {
	if token, ok := bearerToken(r); ok {
		ctx = slack.WithToken(ctx, token)
	}
	if token := strings.TrimSpace(r.Header.Get(GoogleTokenHeader)); token != "" {
		ctx = google.WithAccessToken(ctx, token)
	}
	return ctx
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireBearer rejects requests without a bearer token. CORS preflight
// requests are answered before this runs.
func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := bearerToken(r); !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="calslack"`)
			writeJSONError(w, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Mcp-Session-Id, "+GoogleTokenHeader)
		h.Set("Access-Control-Expose-Headers", "Mcp-Session-Id, "+RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := s.logger.With("request_id", id)
		ctx := logging.WithLogger(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
