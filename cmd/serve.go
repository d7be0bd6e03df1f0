package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/teemow/calslack/internal/config"
	"github.com/teemow/calslack/internal/google"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/logging"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/calendar_tools"
	"github.com/teemow/calslack/internal/tools/slack_tools"
)

// serveOptions holds the serve flags. Only flags the user set explicitly
// override the loaded configuration.
type serveOptions struct {
	transport        string
	httpAddr         string
	debug            bool
	readOnly         bool
	logFormat        string
	disableStreaming bool
	metricsEnabled   bool
	metricsAddr      string
	tokenDir         string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server to provide Google Calendar and Slack tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default). Google tokens are read from the
    token directory (see 'calslack auth'), the Slack token from slack.token.
  - streamable-http: Streamable HTTP server. Every request to /mcp must carry
    'Authorization: Bearer <slack token>'; a Google access token may be passed
    in the X-Google-Access-Token header.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			applyServeFlags(cmd.Flags(), opts, &cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runServe(ctx, cfg, opts.disableStreaming)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Disable write tools (create-event, update-event, delete-event, sendMessage)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (HTTP transport only)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Metrics server address")
	cmd.Flags().StringVar(&opts.tokenDir, "token-dir", "", "Directory holding Google token files (default: user cache directory)")

	return cmd
}

// applyServeFlags copies explicitly set flags into cfg.
func applyServeFlags(flags *pflag.FlagSet, opts serveOptions, cfg *config.Config) {
	if flags.Changed("transport") {
		cfg.Server.Transport = opts.transport
	}
	if flags.Changed("http-addr") {
		cfg.Server.HTTPAddr = opts.httpAddr
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = opts.debug
	}
	if flags.Changed("read-only") {
		cfg.Server.ReadOnly = opts.readOnly
	}
	if flags.Changed("log-format") {
		cfg.Server.LogFormat = opts.logFormat
	}
	if flags.Changed("metrics-enabled") {
		cfg.Metrics.Enabled = opts.metricsEnabled
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if flags.Changed("token-dir") {
		cfg.Google.TokenDir = opts.tokenDir
	}
}

func runServe(ctx context.Context, cfg config.Config, disableStreaming bool) error {
	logger := logging.Setup(cfg.LogLevel(), cfg.Server.LogFormat)

	// Initialize instrumentation provider
	instrConfig := cfg.InstrumentationConfig(version)
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Metrics get their own port and are only served next to the HTTP transport
	var metricsServer *server.MetricsServer
	if cfg.Server.Transport != config.TransportStdio && cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(cfg.Metrics.Addr, provider, logger)
		if err != nil {
			return err
		}
	}

	auth := google.NewAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenDir)
	if cfg.Google.ClientID == "" {
		logger.Warn("google.clientid is not set, stored Google tokens cannot be refreshed")
	}
	var tokenProvider google.TokenProvider = google.NewFileTokenProvider(auth)
	if cfg.Server.Transport == config.TransportStreamableHTTP {
		tokenProvider = google.NewRequestTokenProvider(tokenProvider)
	}

	serverContext, err := server.NewServerContext(ctx, cfg, tokenProvider)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext.SetLogger(logger)
	serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.Audit))
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("error during metrics server shutdown", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	if cfg.Server.ReadOnly {
		logger.Info("starting in read-only mode, write tools are not registered")
	}

	switch cfg.Server.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(ctx, mcpSrv, serverContext, cfg.Server.HTTPAddr, disableStreaming, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Server.Transport)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("calslack", version,
		mcpserver.WithToolCapabilities(true),
	)
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(addr, provider, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}
	if err := metricsServer.Listen(); err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}

	go func() {
		if err := metricsServer.Serve(); err != nil {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers the Calendar and Slack tool groups.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name: "Slack",
			register: func() error {
				return slack_tools.RegisterSlackTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, disableStreaming bool, logger *slog.Logger) error {
	health := server.NewHealthChecker(sc)
	health.SetVersion(version)

	httpServer := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             addr,
		DisableStreaming: disableStreaming,
		HealthChecker:    health,
		Metrics:          sc.Metrics(),
		Logger:           logger,
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
