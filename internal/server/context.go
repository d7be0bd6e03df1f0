package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/calslack/internal/calendar"
	"github.com/teemow/calslack/internal/clock"
	"github.com/teemow/calslack/internal/config"
	"github.com/teemow/calslack/internal/google"
	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/slack"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	config          config.Config
	tokenProvider   google.TokenProvider
	calendarClients map[string]*calendar.Client // Maps account name to Calendar client
	slackClient     *slack.Client               // Client for the configured token
	clock           clock.Clock
	logger          *slog.Logger
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context. Calendar clients are created
// lazily through tokenProvider; a nil provider only serves request tokens.
func NewServerContext(ctx context.Context, cfg config.Config, tokenProvider google.TokenProvider) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if tokenProvider == nil {
		tokenProvider = google.NewRequestTokenProvider(nil)
	}

	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		config:          cfg,
		tokenProvider:   tokenProvider,
		calendarClients: make(map[string]*calendar.Client),
		clock:           clock.System{},
		logger:          slog.Default(),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration the server was started with
func (sc *ServerContext) Config() config.Config {
	return sc.config
}

// ReadOnly reports whether write tools are disabled
func (sc *ServerContext) ReadOnly() bool {
	return sc.config.Server.ReadOnly
}

// DefaultAccount is the Google account used when a tool call names none
func (sc *ServerContext) DefaultAccount() string {
	if sc.config.Google.DefaultAccount == "" {
		return "default"
	}
	return sc.config.Google.DefaultAccount
}

func (sc *ServerContext) Clock() clock.Clock {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.clock
}

// SetClock replaces the clock used for time based validation
func (sc *ServerContext) SetClock(c clock.Clock) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.clock = c
}

func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

func (sc *ServerContext) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.logger = logger
}

// Metrics returns the metrics recorder, nil when instrumentation is disabled
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, nil when audit logging is disabled
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// CalendarClient returns a Calendar client for the account.
// A Google access token carried by ctx gets its own short lived client.
// Otherwise the client is created from the token provider and cached.
func (sc *ServerContext) CalendarClient(ctx context.Context, account string) (*calendar.Client, error) {
	if sc.IsShutdown() {
		return nil, fmt.Errorf("server is shutting down")
	}
	if _, ok := google.AccessTokenFromContext(ctx); ok {
		return calendar.NewClient(ctx, account, sc.tokenProvider)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.calendarClients[account]; ok {
		return client, nil
	}

	client, err := calendar.NewClient(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		return nil, err
	}
	sc.calendarClients[account] = client
	return client, nil
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// SlackClient returns a Slack client for the token carried by ctx, falling
// back to the configured token. Only the configured token's client is cached.
func (sc *ServerContext) SlackClient(ctx context.Context) (*slack.Client, error) {
	if sc.IsShutdown() {
		return nil, fmt.Errorf("server is shutting down")
	}
	if token, ok := slack.TokenFromContext(ctx); ok {
		return slack.NewClient(sc.slackConfig(token))
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.slackClient != nil {
		return sc.slackClient, nil
	}

	client, err := slack.NewClient(sc.slackConfigLocked(sc.config.Slack.Token))
	if err != nil {
		return nil, err
	}
	sc.slackClient = client
	return client, nil
}

// SetSlackClient sets the Slack client used when a request carries no token
func (sc *ServerContext) SetSlackClient(client *slack.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.slackClient = client
}

func (sc *ServerContext) slackConfig(token string) slack.Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.slackConfigLocked(token)
}

func (sc *ServerContext) slackConfigLocked(token string) slack.Config {
	cfg := sc.config.SlackConfig()
	cfg.Token = token
	cfg.Logger = sc.logger
	cfg.Metrics = sc.metrics
	return cfg
}

// HasGoogleToken reports whether a stored token exists for account.
// Request tokens are not visible here.
func (sc *ServerContext) HasGoogleToken(account string) bool {
	return sc.tokenProvider.HasTokenForAccount(account)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
