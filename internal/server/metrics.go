package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/logging"
)

const (
	DefaultMetricsAddr = ":9090"

	metricsReadHeaderTimeout = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 60 * time.Second
)

// MetricsServer exposes /metrics on its own listener, away from the /mcp
// endpoint and its bearer tokens.
type MetricsServer struct {
	addr       string
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewMetricsServer builds a server for the provider's Prometheus registry.
// The provider must be enabled with the prometheus exporter.
func NewMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*MetricsServer, error) {
	if provider == nil || !provider.Enabled() {
		return nil, errors.New("metrics server needs an enabled instrumentation provider")
	}
	handler := provider.PrometheusHandler()
	if handler == nil {
		return nil, errors.New("instrumentation provider does not export prometheus metrics")
	}
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Handle("/metrics", handler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return &MetricsServer{
		addr:   addr,
		logger: logger.With(slog.String("component", "metrics")),
		httpServer: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: metricsReadHeaderTimeout,
			WriteTimeout:      metricsWriteTimeout,
			IdleTimeout:       metricsIdleTimeout,
		},
	}, nil
}

// Listen binds the address. After it returns, Addr reports the bound
// address, which matters for ":0".
func (s *MetricsServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	return nil
}

// Serve blocks until Shutdown. It returns nil after a graceful shutdown.
func (s *MetricsServer) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("metrics server listening", slog.String("addr", s.addr))
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("metrics server shutdown failed", logging.Err(err))
		return err
	}
	return nil
}

func (s *MetricsServer) Addr() string {
	return s.addr
}
